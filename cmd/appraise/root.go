package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/paveg/appraise"
	"github.com/paveg/appraise/internal/config"
	"github.com/spf13/cobra"
)

// globalFlags are the persistent flags shared by every subcommand. Flags
// override the configuration file and environment only when set.
type globalFlags struct {
	cfgFile string
	profile string
	dataset string
	seed    int64
	verbose bool
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:   "appraise",
		Short: "Train appliance price estimators and predict prices",
		Long: `appraise cleans an appliance catalogue, tunes a random forest and a
gradient boosting regressor with randomized cross-validated search and
averages them into a voting ensemble that answers price predictions.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	f := root.PersistentFlags()
	f.StringVar(&g.cfgFile, "config", "", "config file (default is ./appraise.yaml or ~/.appraise/config.yaml)")
	f.StringVar(&g.profile, "profile", "", "built-in profile: ac or smart_tv")
	f.StringVar(&g.dataset, "dataset", "", "dataset path (.csv or .parquet)")
	f.Int64Var(&g.seed, "seed", 0, "random seed for splitting and search")
	f.BoolVar(&g.verbose, "verbose", false, "enable debug logging")

	root.AddCommand(
		newTrainCmd(g),
		newPredictCmd(g),
		newInteractiveCmd(g),
		newCleanCmd(g),
		newConfigCmd(g),
		newVersionCmd(),
	)
	return root
}

// config resolves the configuration and applies flags the user set.
func (g *globalFlags) config(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(g.cfgFile)
	if err != nil {
		return config.Config{}, err
	}
	f := cmd.Flags()
	if f.Changed("profile") {
		cfg.Profile = g.profile
	}
	if f.Changed("dataset") {
		cfg.Dataset = g.dataset
	}
	if f.Changed("seed") {
		cfg.Seed = g.seed
	}
	if f.Changed("verbose") {
		cfg.VerboseLogging = g.verbose
	}
	return cfg, nil
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// pipeline builds a Pipeline that logs to the command's stderr.
func (g *globalFlags) pipeline(cmd *cobra.Command) (*appraise.Pipeline, error) {
	cfg, err := g.config(cmd)
	if err != nil {
		return nil, err
	}
	p, err := appraise.New(cfg, appraise.WithLogger(newLogger(cmd.ErrOrStderr(), cfg.VerboseLogging)))
	if err != nil {
		return nil, fmt.Errorf("preparing pipeline: %w", err)
	}
	return p, nil
}

// train builds a pipeline and trains a model with the command's context.
func (g *globalFlags) train(cmd *cobra.Command) (*appraise.Model, error) {
	p, err := g.pipeline(cmd)
	if err != nil {
		return nil, err
	}
	defer p.Close()
	return p.Train(cmd.Context())
}
