package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cory-johannsen/probsim/internal/distribution"
	"github.com/cory-johannsen/probsim/internal/export"
	"github.com/cory-johannsen/probsim/internal/shell"
	"github.com/cory-johannsen/probsim/internal/simulator"
)

var trialTypes = map[string]distribution.Type{
	"roll": distribution.Dice,
	"flip": distribution.Coin,
	"spin": distribution.Wheel,
}

func (a *app) newTrialCommand(name, short string) *cobra.Command {
	t := trialTypes[name]
	return &cobra.Command{
		Use:   name,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: a.withSession(func(ctx context.Context, cmd *cobra.Command, sess *session, _ []string) error {
			tr, err := sess.sim.RollAndWait(ctx, t)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", tr.Type.Label(), tr.Result)
			return nil
		}),
	}
}

func (a *app) newBatchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "batch <dice|coin|wheel> <n>",
		Short: "Record n trials of one type at once",
		Args:  cobra.ExactArgs(2),
		RunE: a.withSession(func(ctx context.Context, cmd *cobra.Command, sess *session, args []string) error {
			t, err := distribution.ParseType(args[0])
			if err != nil {
				return err
			}
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("%w, got %q", simulator.ErrInvalidBatchSize, args[1])
			}
			trials, err := sess.sim.Batch(ctx, t, n)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded %d %s trials.\n", len(trials), t.Label())
			return nil
		}),
	}
}

func (a *app) newStatsCommand() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "stats <dice|coin|wheel>",
		Short: "Show statistics for one distribution",
		Args:  cobra.ExactArgs(1),
		RunE: a.withSession(func(_ context.Context, cmd *cobra.Command, sess *session, args []string) error {
			t, err := distribution.ParseType(args[0])
			if err != nil {
				return err
			}
			snap, err := sess.sim.Statistics(t)
			if err != nil {
				return err
			}
			return export.Report(cmd.OutOrStdout(), snap, t, format)
		}),
	}
	cmd.Flags().StringVarP(&format, "format", "f", export.FormatText, "output format: text, json or yaml")
	return cmd
}

func (a *app) newHistoryCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the most recent trials",
		Args:  cobra.NoArgs,
		RunE: a.withSession(func(_ context.Context, cmd *cobra.Command, sess *session, _ []string) error {
			n := limit
			if n < 1 {
				n = sess.cfg.Simulator.HistoryLimit
			}
			shell.WriteHistory(cmd.OutOrStdout(), sess.sim.History(n))
			return nil
		}),
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "number of trials to show (default from simulator.history_limit)")
	return cmd
}

func (a *app) newClearCommand() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all recorded trials",
		Args:  cobra.NoArgs,
		RunE: a.withSession(func(ctx context.Context, cmd *cobra.Command, sess *session, _ []string) error {
			out := cmd.OutOrStdout()
			n := sess.sim.Size()
			if n == 0 {
				fmt.Fprintln(out, "History is already empty.")
				return nil
			}
			if !yes {
				fmt.Fprintf(out, "Clear all %d trials? [y/N] ", n)
				answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				answer = strings.ToLower(strings.TrimSpace(answer))
				if answer != "y" && answer != "yes" {
					fmt.Fprintln(out, "Clear cancelled.")
					return nil
				}
			}
			sess.sim.Clear(ctx)
			fmt.Fprintln(out, "History cleared.")
			return nil
		}),
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func (a *app) newExportCommand() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the history as CSV",
		Args:  cobra.NoArgs,
		RunE: a.withSession(func(_ context.Context, cmd *cobra.Command, sess *session, _ []string) error {
			if sess.sim.Size() == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No data to export.")
				return nil
			}
			if out == "-" {
				return sess.sim.Export(cmd.OutOrStdout())
			}
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("creating export file: %w", err)
			}
			err = sess.sim.Export(f)
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			if errors.Is(err, simulator.ErrEmptyExport) {
				_ = os.Remove(out)
				fmt.Fprintln(cmd.OutOrStdout(), "No data to export.")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d trials to %s\n", sess.sim.Size(), out)
			return nil
		}),
	}
	cmd.Flags().StringVarP(&out, "out", "o", export.DefaultFilename, `destination file, or "-" for stdout`)
	return cmd
}

func (a *app) newSoundCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "sound [on|off]",
		Short:     "Show or set the sound preference used by the shell",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"on", "off"},
		RunE: a.withSession(func(ctx context.Context, cmd *cobra.Command, sess *session, args []string) error {
			if len(args) == 1 {
				if err := sess.sim.SetSound(ctx, args[0] == "on"); err != nil {
					return err
				}
			}
			state := "off"
			if sess.sim.Sound() {
				state = "on"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Sound %s.\n", state)
			return nil
		}),
	}
}
