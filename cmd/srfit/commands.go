package main

import (
	"context"
	"fmt"
	"io"
	"math"
	"text/tabwriter"

	"github.com/snow-ghost/symreg/config"
	"github.com/snow-ghost/symreg/worker"
	"github.com/spf13/cobra"
)

var (
	runFile        string
	forceCalibrate bool

	rootCmd = &cobra.Command{
		Use:   "srfit",
		Short: "Score symbolic regression candidates against a dataset",
		Long: `srfit evaluates expression trees from a YAML run file with the
fitness engine: loss, dimensional penalty, baseline normalization and
parsimony. Pool size, seed and logging come from SRFIT_* and LOG_* variables.`,
		SilenceUsage: true,
	}

	scoreCmd = &cobra.Command{
		Use:   "score",
		Short: "Score every candidate in the run file",
		RunE:  runScoreCommand,
	}

	calibrateCmd = &cobra.Command{
		Use:   "calibrate",
		Short: "Compute the constant-zero baseline loss for the run dataset",
		RunE:  runCalibrateCommand,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&runFile, "config", "c", "run.yaml", "path to the YAML run file")
	scoreCmd.Flags().BoolVar(&forceCalibrate, "calibrate", false, "calibrate the baseline even if the run file does not ask for it")

	rootCmd.AddCommand(scoreCmd, calibrateCmd)
}

func runScoreCommand(cmd *cobra.Command, _ []string) error {
	run, err := config.Load(runFile)
	if err != nil {
		return err
	}
	if forceCalibrate {
		run.Calibrate = true
	}

	a, err := newApp(worker.LoadConfig())
	if err != nil {
		return err
	}
	defer a.close(cmd.Context())

	return score(cmd.Context(), a, run, cmd.OutOrStdout())
}

func runCalibrateCommand(cmd *cobra.Command, _ []string) error {
	run, err := config.Load(runFile)
	if err != nil {
		return err
	}

	a, err := newApp(worker.LoadConfig())
	if err != nil {
		return err
	}
	defer a.close(cmd.Context())

	return calibrate(cmd.Context(), a, run, cmd.OutOrStdout())
}

func score(ctx context.Context, a *app, run *config.Run, out io.Writer) error {
	opts, err := run.BuildOptions()
	if err != nil {
		return err
	}
	ds, err := run.BuildDataset()
	if err != nil {
		return err
	}
	population, err := run.BuildCandidates(len(ds.X))
	if err != nil {
		return err
	}

	if run.Calibrate {
		if err := a.pool.Calibrate(ctx, ds, opts); err != nil {
			return err
		}
	}

	report, err := a.pool.ScorePopulation(ctx, ds, population, opts)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tCANDIDATE\tLOSS\tSCORE\t")
	for i, res := range report.Results {
		marker := ""
		if i == report.Best {
			marker = "*"
		}
		fmt.Fprintf(w, "%d%s\t%s\t%s\t%s\t\n", i, marker, run.Candidates[i].Label(i), formatValue(res.Loss), formatValue(res.Score))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(out, "baseline: %s (normalizing: %t), failed: %d/%d\n",
		formatValue(ds.Calibration.BaselineLoss), ds.Calibration.UseBaseline, report.Failed, len(report.Results))
	return nil
}

func calibrate(ctx context.Context, a *app, run *config.Run, out io.Writer) error {
	opts, err := run.BuildOptions()
	if err != nil {
		return err
	}
	ds, err := run.BuildDataset()
	if err != nil {
		return err
	}
	if err := a.pool.Calibrate(ctx, ds, opts); err != nil {
		return err
	}

	fmt.Fprintf(out, "dataset %s: %d samples, %d features\n", ds.ID, ds.N, len(ds.X))
	fmt.Fprintf(out, "baseline loss: %s\nuse baseline: %t\n", formatValue(ds.Calibration.BaselineLoss), ds.Calibration.UseBaseline)
	return nil
}

func formatValue(v float64) string {
	if math.IsInf(v, 1) {
		return "inf"
	}
	return fmt.Sprintf("%.6g", v)
}
