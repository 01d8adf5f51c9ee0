package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cory-johannsen/probsim/internal/config"
)

// app carries the global flags into every subcommand.
type app struct {
	configPath string
}

func newRootCommand() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "probsim",
		Short: "Simulate dice rolls, coin flips and wheel spins",
		Long: `probsim records trials of three fixed distributions (a six-sided die,
a fair coin and an eight-section wheel), keeps the history across runs,
and reports expected value, variance and standard deviation per type.

Examples:
  probsim roll
  probsim batch coin 100
  probsim stats wheel --format yaml
  probsim export --out results.csv
  probsim shell`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "",
		"path to configuration file (defaults plus PROBSIM_ environment when empty)")

	root.AddCommand(
		a.newTrialCommand("roll", "Roll the die"),
		a.newTrialCommand("flip", "Flip the coin"),
		a.newTrialCommand("spin", "Spin the wheel"),
		a.newBatchCommand(),
		a.newStatsCommand(),
		a.newHistoryCommand(),
		a.newClearCommand(),
		a.newExportCommand(),
		a.newSoundCommand(),
		a.newShellCommand(),
		a.newConfigCommand(),
	)
	return root
}

// withSession opens a session for the duration of fn.
func (a *app) withSession(fn func(ctx context.Context, cmd *cobra.Command, sess *session, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		sess, err := openSession(ctx, a.configPath)
		if err != nil {
			return err
		}
		defer sess.Close()
		return fn(ctx, cmd, sess, args)
	}
}

func (a *app) newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration file and environment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "configuration valid (storage backend: %s)\n", cfg.Storage.Backend)
			return nil
		},
	})
	return cmd
}
