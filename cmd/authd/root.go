package main

import (
	"github.com/spf13/cobra"

	"github.com/MrEthical07/authlayer"
)

// Global flags available to all subcommands.
var envFiles []string

// NewRootCmd creates the root command for the authd CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "authd",
		Short: "authd - pluggable HTTP authentication server",
		Long: `authd serves the authentication layer over HTTP. The strategy is chosen with
AUTH_TYPE; every setting is read from the environment and optional .env files.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "dotenv files to load (default .env)")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewHashPasswordCmd())
	cmd.AddCommand(NewLoadtestCmd())

	return cmd
}

func loadConfig() (authlayer.Config, error) {
	return authlayer.Load(envFiles...)
}
