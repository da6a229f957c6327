package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"

	"github.com/MrEthical07/authlayer"
	"github.com/MrEthical07/authlayer/identity/postgres"
	"github.com/MrEthical07/authlayer/internal/httpapi"
	"github.com/MrEthical07/authlayer/internal/logging"
	"github.com/MrEthical07/authlayer/metrics"
	otelexport "github.com/MrEthical07/authlayer/metrics/export/otel"
	promexport "github.com/MrEthical07/authlayer/metrics/export/prometheus"
)

const shutdownTimeout = 10 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	var autoMigrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Start the HTTP server with the strategy selected by AUTH_TYPE. Principals are
stored in PostgreSQL when DATABASE_URL is set and in memory otherwise.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, autoMigrate)
		},
	}
	cmd.Flags().BoolVar(&autoMigrate, "migrate", false, "apply the database schema before serving")

	return cmd
}

func runServe(ctx context.Context, autoMigrate bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := logging.Setup("authd", version, cfg.LogFormat, os.Stderr)
	slog.SetDefault(logger)

	exporter, err := promexport.New(nil)
	if err != nil {
		return oops.Code("METRICS_INIT_FAILED").Wrap(err)
	}
	// The global meter is a no-op until an SDK provider is installed.
	otelExporter, err := otelexport.New(otel.Meter("authd"))
	if err != nil {
		return oops.Code("METRICS_INIT_FAILED").Wrap(err)
	}

	builder := authlayer.New().
		WithConfig(cfg).
		WithLogger(logger).
		WithMetrics(metrics.Multi{exporter, otelExporter}).
		WithAuditSink(authlayer.NewSlogSink(logger.With("component", "audit")))

	if cfg.Database.URL != "" {
		pool, err := pgxpool.New(ctx, cfg.Database.URL)
		if err != nil {
			return oops.Code("DB_CONNECT_FAILED").With("operation", "connect to database").Wrap(err)
		}
		defer pool.Close()

		store := postgres.NewStore(pool)
		if autoMigrate {
			if err := store.Migrate(ctx); err != nil {
				return err
			}
		}
		builder.WithIdentityStore(store)
	}

	if cfg.Redis.Addr != "" {
		client := redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs:    []string{cfg.Redis.Addr},
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer func() { _ = client.Close() }()
		builder.WithRedis(client)
	}

	rt, err := builder.Build()
	if err != nil {
		return oops.Code(authlayer.CodeBuildFailed).Wrap(err)
	}
	defer rt.Close()

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           httpapi.New(rt, httpapi.WithLogger(logger), httpapi.WithMetricsHandler(exporter.Handler())).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.ListenAddr, "auth_type", string(cfg.AuthType))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return oops.Code("SERVER_FAILED").Wrap(err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
