package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/OfekItzhaki/horizon-hcm/internal/api"
	"github.com/OfekItzhaki/horizon-hcm/internal/config"
	"github.com/OfekItzhaki/horizon-hcm/internal/version"
	"github.com/OfekItzhaki/horizon-hcm/pkg/audit"
	"github.com/OfekItzhaki/horizon-hcm/pkg/authz"
	"github.com/OfekItzhaki/horizon-hcm/pkg/clierror"
	"github.com/OfekItzhaki/horizon-hcm/pkg/pgstore"
	"github.com/OfekItzhaki/horizon-hcm/pkg/store"
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("config", "c", "", "Path to YAML config file (HCM_* environment variables override it)")
	serveCmd.Flags().String("listen", "", "Override server.listen_addr")
}

// backend is what the server needs from a database: ownership reads for the
// engine, the audit sink, and the handlers' resource access.
type backend interface {
	authz.Directory
	authz.AuditStore
	api.Resources
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the HTTP API with every resource route behind the ownership check.

Configuration comes from --config, then HCM_* environment variables, e.g.
HCM_DATABASE_DRIVER=postgres HCM_DATABASE_DSN=postgres://... hcm serve

With the sqlite driver the database path defaults to --db.`,
	Args:        cobra.NoArgs,
	Annotations: map[string]string{skipStoreAnnotation: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		listen, _ := cmd.Flags().GetString("listen")

		cfg, err := config.Load(configPath)
		if err != nil {
			return clierror.InvalidConfig(err)
		}
		if listen != "" {
			cfg.Server.ListenAddr = listen
		}
		if cfg.Database.Driver == config.DriverSQLite && cfg.Database.Path == "" {
			cfg.Database.Path = dbPath
		}

		logger, err := cfg.Log.NewLogger(cmd.ErrOrStderr())
		if err != nil {
			return clierror.InvalidConfig(err)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return runServer(ctx, cfg, logger)
	},
}

// openBackend opens the configured database. The returned func releases it.
func openBackend(ctx context.Context, cfg config.DatabaseConfig) (backend, func(), error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		pg, err := pgstore.Open(ctx, cfg.DSN)
		if err != nil {
			return nil, nil, clierror.DatabaseUnavailable("postgres", err)
		}
		if cfg.Migrate {
			if err := pg.Migrate(ctx); err != nil {
				pg.Close()
				return nil, nil, clierror.DatabaseUnavailable("postgres", err)
			}
		}
		return pg, pg.Close, nil
	default:
		path := cfg.Path
		if path == "" {
			path = store.DefaultPath()
		}
		s, err := store.Open(path)
		if err != nil {
			return nil, nil, clierror.DatabaseUnavailable(path, err)
		}
		return s, func() { s.Close() }, nil
	}
}

// newAuditLogger fans denials out to the database, the process log, and
// syslog when enabled. A missing syslog socket is logged and skipped.
func newAuditLogger(cfg config.SyslogConfig, db authz.AuditStore, logger *slog.Logger) (authz.AuditLogger, io.Closer) {
	sinks := []authz.AuditLogger{
		authz.NewStoreAuditLogger(db),
		authz.NewSlogAuditLogger(logger),
	}
	if !cfg.Enabled {
		return authz.NewMultiAuditLogger(sinks...), nil
	}
	sink, err := audit.NewSyslogSink(audit.SyslogConfig{
		SocketPath: cfg.Socket,
		AppName:    cfg.AppName,
	})
	if err != nil {
		logger.Warn("syslog audit sink unavailable, continuing without it", "socket", cfg.Socket, "error", err)
		return authz.NewMultiAuditLogger(sinks...), nil
	}
	return authz.NewMultiAuditLogger(append(sinks, sink)...), sink
}

// newHTTPServer wires the store, engine, and routes into an http.Server.
func newHTTPServer(cfg config.Config, db backend, auditLog authz.AuditLogger, logger *slog.Logger) (*http.Server, error) {
	authzCfg := authz.DefaultConfig()
	authzCfg.Directory = db
	authzCfg.Audit = auditLog
	authzCfg.Logger = logger
	authorizer, err := authz.NewAuthorizer(authzCfg)
	if err != nil {
		return nil, err
	}

	server := api.NewServer(db, authorizer, api.ServerConfig{
		IdentityHeader: cfg.Identity.Header,
		TrustProxy:     cfg.Server.TrustProxy,
		Logger:         logger,
	})
	return &http.Server{
		Addr:     cfg.Server.ListenAddr,
		Handler:  server.Handler(),
		ErrorLog: slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}, nil
}

func runServer(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	logger.Info("hcm starting", "version", version.String(), "driver", cfg.Database.Driver)

	db, closeDB, err := openBackend(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer closeDB()

	auditLog, syslogSink := newAuditLogger(cfg.Syslog, db, logger)
	if syslogSink != nil {
		defer syslogSink.Close()
	}

	httpServer, err := newHTTPServer(cfg, db, auditLog, logger)
	if err != nil {
		return clierror.InternalError(err)
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", cfg.Server.ListenAddr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return clierror.InternalError(fmt.Errorf("HTTP server: %w", err))
	case <-ctx.Done():
	}

	logger.Info("shutting down", "timeout", cfg.Server.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
		httpServer.Close()
	}
	logger.Info("API server stopped")
	return nil
}
