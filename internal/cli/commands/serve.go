package commands

import (
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/amaironohi/shop/internal/app"
	"github.com/amaironohi/shop/internal/web/profiling"
	"github.com/amaironohi/shop/internal/web/server"
)

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the HTTP API and serve until SIGINT or SIGTERM.

On shutdown the server stops accepting connections, waits for in-flight
requests, flushes queued order confirmation mail and closes the database.`,
		Example: `  # Serve with ./shop.yaml and SHOP_* overrides
  SHOP_AUTH_SECRET=change-me shop serve

  # Serve against PostgreSQL without touching the schema
  SHOP_DATABASE_DRIVER=pgx DATABASE_URL=postgres://shop@localhost/shop shop serve --migrate=false`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			ctx := cmd.Context()
			a, err := app.New(ctx, cfg, logger)
			if err != nil {
				return err
			}
			if migrate {
				if err := a.Store.Migrate(ctx); err != nil {
					_ = a.Close(ctx)
					return err
				}
			}

			srvCfg := server.DefaultConfig(a.Handler())
			srvCfg.Address = cfg.Server.Addr
			srvCfg.ReadTimeout = cfg.Server.ReadTimeout
			srvCfg.WriteTimeout = cfg.Server.WriteTimeout
			srvCfg.IdleTimeout = cfg.Server.IdleTimeout
			srv, err := server.New(srvCfg)
			if err != nil {
				_ = a.Close(ctx)
				return err
			}

			a.Start(ctx)
			gs := server.NewGracefulShutdown(srv, cfg.Server.ShutdownTimeout, logger)
			a.RegisterShutdown(gs)

			if cfg.Server.PprofAddr != "" {
				if err := startProfiling(cfg.Server.PprofAddr, gs, logger); err != nil {
					_ = a.Close(ctx)
					return err
				}
			}

			logger.Info("starting shop",
				zap.String("version", Version),
				zap.String("database", cfg.Database.Driver),
				zap.Bool("redis", cfg.Redis.Enabled()),
				zap.String("mail", cfg.Mail.Provider),
			)
			return gs.Run(ctx)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", true, "apply the schema before serving")

	return cmd
}

// startProfiling serves pprof on its own listener and stops it with gs.
// Write timeouts stay unset so CPU profiles and traces can run their full
// duration.
func startProfiling(addr string, gs *server.GracefulShutdown, logger *zap.Logger) error {
	srv, err := server.New(&server.Config{
		Address:           addr,
		Handler:           profiling.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	})
	if err != nil {
		return err
	}
	if err := srv.Listen(); err != nil {
		return err
	}

	go func() {
		if err := srv.Serve(); err != nil {
			logger.Error("profiling server failed", zap.Error(err))
		}
	}()
	gs.RegisterHook("pprof", srv.Shutdown)

	logger.Info("profiling enabled", zap.String("addr", srv.Addr()), zap.String("path", profiling.Path))
	return nil
}
