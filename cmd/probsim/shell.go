package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cory-johannsen/probsim/internal/server"
	"github.com/cory-johannsen/probsim/internal/shell"
	"github.com/cory-johannsen/probsim/internal/simulator"
	"github.com/cory-johannsen/probsim/internal/storage"
)

const (
	healthInterval = 30 * time.Second
	healthTimeout  = 2 * time.Second
)

func (a *app) newShellCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Start the interactive shell",
		Args:  cobra.NoArgs,
		RunE: a.withSession(func(ctx context.Context, cmd *cobra.Command, sess *session, _ []string) error {
			cfg := sess.cfg.Simulator
			refresher := simulator.NewRefresher(sess.sim, cfg.HistoryLimit, cfg.RefreshInterval)

			sh := shell.New(shell.Options{
				Simulator:    sess.sim,
				In:           cmd.InOrStdin(),
				Out:          cmd.OutOrStdout(),
				Logger:       sess.logger,
				BatchSizes:   cfg.BatchSizes,
				HistoryLimit: cfg.HistoryLimit,
				Refresher:    refresher,
			})

			lc := server.NewLifecycle(sess.logger)
			lc.Add("refresher", server.Background(refresher.Start))
			if checker, ok := sess.slot.(storage.HealthChecker); ok {
				lc.Add("storage-health", server.NewHealthMonitor(checker, healthInterval, healthTimeout, sess.logger))
			}
			lc.Add("shell", sh)

			sess.logger.Info("shell started",
				zap.Stringer("session", sess.sim.SessionID()),
				zap.Int("trials", sess.sim.Size()),
			)
			return lc.Run(ctx)
		}),
	}
}
