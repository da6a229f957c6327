package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/MrEthical07/authlayer"
)

// NewHashPasswordCmd creates the hash-password subcommand.
func NewHashPasswordCmd() *cobra.Command {
	var algorithm string

	cmd := &cobra.Command{
		Use:   "hash-password [password]",
		Short: "Print the stored hash of a password",
		Long: `Hash a password with the configured algorithm and print the encoded hash. The
password is read from the first line of stdin when no argument is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if algorithm != "" {
				cfg.Password.Algorithm = algorithm
			}

			pw, err := passwordArg(cmd, args)
			if err != nil {
				return err
			}

			hasher, err := authlayer.NewHasher(cfg.Password)
			if err != nil {
				return err
			}
			hash, err := hasher.Hash(pw)
			if err != nil {
				return oops.Code(authlayer.CodeHashFailed).Wrap(err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), hash)
			return err
		},
	}
	cmd.Flags().StringVar(&algorithm, "algorithm", "", "argon2id or bcrypt (default PASSWORD_ALGORITHM)")

	return cmd
}

func passwordArg(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		if err != nil {
			return "", oops.Code(authlayer.CodeInvalidInput).Wrapf(err, "read password from stdin")
		}
		return "", oops.Code(authlayer.CodeInvalidInput).Errorf("password is empty")
	}
	return line, nil
}
