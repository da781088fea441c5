package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"ordervox/internal/logging"
	"ordervox/internal/server"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the ordervox API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			comps, err := buildComponents(cfg)
			if err != nil {
				return err
			}
			defer comps.close()

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			srv, err := server.New(cfg, comps.pipeline, comps.tracker, comps.cache, comps.metrics, comps.logger)
			if err != nil {
				return err
			}
			if err := srv.Start(runCtx); err != nil {
				return fmt.Errorf("start server: %w", err)
			}

			pruneDone := make(chan struct{})
			go func() {
				defer close(pruneDone)
				ticker := time.NewTicker(time.Hour)
				defer ticker.Stop()
				for {
					select {
					case <-runCtx.Done():
						return
					case <-ticker.C:
						if _, err := comps.tracker.Prune(runCtx); err != nil {
							comps.logger.Warn("usage prune failed", logging.Error(err))
						}
						comps.cache.Expire()
					}
				}
			}()

			<-runCtx.Done()
			stop()
			srv.Stop(cmd.Context())
			<-pruneDone
			return nil
		},
	}
}
