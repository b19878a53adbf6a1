// Package main provides the entry point for the feedback board REST server.
// It loads configuration, connects to PostgreSQL, applies migrations and serves the API.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"feedbackboard/internal/config"
	"feedbackboard/internal/database"
	"feedbackboard/internal/handlers"
	"feedbackboard/internal/observability"
	"feedbackboard/internal/services"
	contextutils "feedbackboard/internal/utils"
	"feedbackboard/internal/version"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// Application owns the database handle and the HTTP server
type Application struct {
	db     *sql.DB
	server *http.Server
	logger *observability.Logger
}

// NewApplication connects to the database and builds the router
func NewApplication(ctx context.Context, cfg *config.Config, logger *observability.Logger) (*Application, error) {
	db, err := database.NewManager(logger).InitDB(ctx, cfg.Database)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to initialize database")
	}

	feedbackService := services.NewFeedbackService(db, logger)
	router := handlers.NewRouter(cfg, feedbackService, logger)

	return &Application{
		db:     db,
		server: newHTTPServer(":"+cfg.Server.Port, router),
		logger: logger,
	}, nil
}

func newHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// Run serves until ctx is cancelled, then shuts the server down gracefully
func (a *Application) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", a.server.Addr)
	if err != nil {
		return contextutils.WrapError(err, "failed to listen")
	}
	return a.serve(ctx, listener)
}

func (a *Application) serve(ctx context.Context, listener net.Listener) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info(gctx, "HTTP server listening", map[string]interface{}{"addr": listener.Addr().String()})
		if err := a.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return contextutils.WrapError(err, "server failed")
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
		defer cancel()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return contextutils.WrapError(err, "graceful shutdown failed")
		}
		return nil
	})

	return g.Wait()
}

// Close releases the database handle
func (a *Application) Close() {
	if a.db == nil {
		return
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error(context.Background(), "Failed to close database", err, nil)
	}
}

func newRootCommand() *cobra.Command {
	var port string

	root := &cobra.Command{
		Use:           "feedback-server",
		Short:         "Serve the feedback board REST API",
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.NewConfig()
			if err != nil {
				return err
			}
			if port != "" {
				cfg.Server.Port = port
			}
			return runServer(cmd.Context(), cfg)
		},
	}
	root.Flags().StringVarP(&port, "port", "p", "", "port to listen on (overrides server.port)")

	root.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.NewConfig()
			if err != nil {
				return err
			}
			logger := observability.NewLoggerWithLevel(&cfg.OpenTelemetry, observability.ParseLevel(cfg.Server.LogLevel))
			defer func() { _ = logger.Sync() }()

			db, err := database.NewManager(logger).InitDB(cmd.Context(), cfg.Database)
			if err != nil {
				return err
			}
			return db.Close()
		},
	})

	return root
}

func runServer(ctx context.Context, cfg *config.Config) error {
	if cfg.OpenTelemetry.ServiceVersion == "" {
		cfg.OpenTelemetry.ServiceVersion = version.Version
	}

	tp, mp, logger, err := observability.SetupObservability(&cfg.OpenTelemetry, handlers.ServiceName)
	if err != nil {
		return contextutils.WrapError(err, "failed to initialize observability")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.TelemetryFlushTimeout)
		defer cancel()
		observability.Shutdown(shutdownCtx, tp, mp, logger)
	}()

	logger.Info(ctx, "Starting feedback board server", map[string]interface{}{
		"port":     cfg.Server.Port,
		"logLevel": cfg.Server.LogLevel,
		"version":  version.String(),
	})

	app, err := NewApplication(ctx, cfg, logger)
	if err != nil {
		logger.Error(ctx, "Failed to create application", err, nil)
		return err
	}
	defer app.Close()

	if err := app.Run(ctx); err != nil {
		logger.Error(ctx, "Application failed", err, nil)
		return err
	}
	logger.Info(ctx, "Server stopped", nil)
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
