package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/giygas/protocolos-api/data"
	"github.com/giygas/protocolos-api/handlers"
	"github.com/giygas/protocolos-api/health"
	"github.com/giygas/protocolos-api/logging"
	"github.com/giygas/protocolos-api/scheduler"
	"github.com/giygas/protocolos-api/server"
	"github.com/giygas/protocolos-api/validation"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Load the reference sheets and serve the JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runServe(cmd.Context())
		},
	}
}

func (a *app) runServe(ctx context.Context) error {
	cfg := a.cfg

	logging.InitLoggerWithEnvironment(cfg.LogDir, cfg.Env, cfg.LogLevel, cfg.LogRetentionWeeks, cfg.MaxLogFileSize)
	defer logging.Close()

	logging.Info("Configuration loaded",
		"env", cfg.Env.String(),
		"address", cfg.Address,
		"port", cfg.Port,
		"refresh_at", cfg.RefreshAt)

	dataContainer := data.NewDataContainer()
	dataContainer.SetServerStartTime(time.Now())

	sched := scheduler.NewScheduler(dataContainer, a.newParser(), cfg.RefreshAt)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer sched.Stop()

	healthChecker := health.NewHealthChecker(dataContainer, sched, cfg.RefreshTimes())
	handler := handlers.NewHTTPHandler(dataContainer, validation.NewDataValidator(), healthChecker)
	srv := server.NewServer(cfg, handler)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("server failed to start: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return <-errChan
}
