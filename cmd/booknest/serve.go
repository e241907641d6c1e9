// cmd/booknest/serve.go
package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"booknest/internal/auth"
	"booknest/internal/platform/config"
	"booknest/internal/platform/database"
	"booknest/internal/platform/logger"
	"booknest/internal/platform/telemetry"
	"booknest/internal/server"
	"booknest/internal/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP and realtime server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		cfg, log, err := bootstrap()
		if err != nil {
			return err
		}
		defer log.Sync()

		shutdownTracing, err := telemetry.Setup(ctx, cfg.ServiceName, cfg.OTELEndpoint)
		if err != nil {
			return err
		}
		defer func() {
			if err := shutdownTracing(context.Background()); err != nil {
				log.Warnw("Failed to flush traces", "error", err)
			}
		}()

		backends := server.MemoryBackends()
		if cfg.Store == config.StorePostgres {
			db, err := database.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseURL, log)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := database.Migrate(ctx, db); err != nil {
				return err
			}
			backends = server.PostgresBackends(db)
		} else {
			log.Warnw("Running with in-memory store; data is lost on exit")
		}

		objects := storage.NewDiskStore(cfg.StorageDir, cfg.PublicBaseURL, log.Named("storage"))
		srv, err := server.New(cfg, backends, newMailer(cfg, log), objects, log)
		if err != nil {
			return err
		}
		defer srv.Close()

		return srv.Run(ctx)
	},
}

func bootstrap() (*config.Config, *zap.SugaredLogger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, log.With("service", cfg.ServiceName), nil
}

func newMailer(cfg *config.Config, log *zap.SugaredLogger) auth.Mailer {
	if cfg.MailWebhookURL != "" {
		return auth.NewWebhookMailer(cfg.MailWebhookURL, log.Named("mailer"))
	}
	return auth.NewLogMailer(log.Named("mailer"))
}
