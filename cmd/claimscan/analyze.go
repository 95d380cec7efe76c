package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gyeh/claimstats/internal/analyze"
	"github.com/gyeh/claimstats/internal/db"
	"github.com/gyeh/claimstats/internal/exitcode"
	"github.com/gyeh/claimstats/internal/logging"
)

var thresholdsPath string

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run the analysis sections against the loaded fact table",
	RunE:  runAnalyze,
}

func init() {
	f := analyzeCmd.Flags()
	f.StringVar(&cfg.OutputDir, "out", "results", "Directory for section result CSVs")
	f.IntSliceVar(&cfg.Sections, "sections", nil, "Only run these section numbers (default all)")
	f.BoolVar(&cfg.SkipFraud, "skip-fraud", false, "Skip the fraud-detection sections (33-40)")
	f.StringVar(&thresholdsPath, "thresholds", "", "YAML file overriding detector thresholds")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat)
	ctx := context.Background()

	if cfg.DSN == "" {
		log.Error().Msg("--dsn or CLAIMSTATS_DB_URL is required")
		os.Exit(exitcode.UsageError)
	}
	if thresholdsPath != "" {
		if err := cfg.LoadThresholdsFile(thresholdsPath); err != nil {
			log.Error().Err(err).Msg("invalid thresholds file")
			os.Exit(exitcode.UsageError)
		}
	}

	pool, err := db.NewPool(ctx, cfg.DSN)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		os.Exit(exitcode.DBConnError)
	}
	defer pool.Close()

	rt := &analyze.Runtime{
		Pool: pool,
		Log:  log,
		Sink: analyze.NewCSVSink(cfg.OutputDir),
		Th:   cfg.Thresholds,
	}

	report, err := analyze.Run(ctx, rt, cfg.Sections, cfg.SkipFraud)
	if err != nil {
		log.Error().Err(err).Msg("analysis failed")
		os.Exit(exitcode.AnalyzeError)
	}

	fmt.Printf("Analysis complete: %d sections ran, %d failed (%.1fs), results in %s\n",
		len(report.Ran), len(report.Failed), report.Elapsed.Seconds(), cfg.OutputDir)
	if len(report.Failed) > 0 {
		os.Exit(exitcode.PartialSuccess)
	}
	return nil
}
