package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/amaumene/plexdigest/internal/api"
	"github.com/amaumene/plexdigest/internal/scheduler"
	"github.com/spf13/cobra"
)

func newScheduleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Send the digest on the configured cron schedule and serve the status API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(true)
			if err != nil {
				return err
			}
			defer a.close()
			logger := a.logger

			// 1. Initialize scheduler
			sched := scheduler.NewScheduler(a.digest, a.cfg.Schedule, a.cfg.RunOnStart, logger)
			if err := sched.Start(); err != nil {
				return fmt.Errorf("failed to start scheduler: %w", err)
			}
			defer sched.Stop()

			// 2. Initialize HTTP server
			server := api.NewServer(a.cfg, api.Deps{
				Version: version,
				Runs:    a.digest,
				Trigger: sched,
				NextRun: sched.NextRun,
				Metrics: a.metrics,
			}, logger)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			serverErrChan := make(chan error, 1)
			go func() {
				if err := server.Start(ctx); err != nil {
					serverErrChan <- err
				}
			}()

			// 3. Wait for shutdown signal
			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

			logger.WithField("next_run", sched.NextRun()).Info("plexdigest is running")

			select {
			case err := <-serverErrChan:
				return fmt.Errorf("server error: %w", err)
			case sig := <-sigChan:
				logger.WithField("signal", sig).Info("Received shutdown signal")
				cancel()
				if err := server.Shutdown(context.Background()); err != nil {
					logger.WithError(err).Error("Error during server shutdown")
				}
			}

			logger.Info("plexdigest stopped")
			return nil
		},
	}
}
