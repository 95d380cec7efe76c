package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gyeh/claimstats/internal/db"
	"github.com/gyeh/claimstats/internal/exitcode"
	"github.com/gyeh/claimstats/internal/ingest"
	"github.com/gyeh/claimstats/internal/logging"
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load a billing Parquet file into the database",
	RunE:  runLoad,
}

func init() {
	f := loadCmd.Flags()
	f.StringVar(&cfg.FilePath, "file", "", "Path to Parquet file (required)")
	f.BoolVar(&cfg.Force, "force", false, "Re-load even if file SHA already exists")
	f.BoolVar(&cfg.KeepStaging, "keep-staging", false, "Keep staging rows after transform")
	_ = loadCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(loadCmd)
}

func runLoad(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat)
	ctx := context.Background()

	if err := cfg.ValidateWithDSN(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}

	pool, err := db.NewPool(ctx, cfg.DSN)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		os.Exit(exitcode.DBConnError)
	}
	defer pool.Close()

	summary, err := ingest.Run(ctx, pool, log, &cfg)
	if err != nil {
		if pe, ok := err.(*ingest.PipelineError); ok {
			log.Error().Err(pe.Err).Str("phase", pe.Phase).Msg("load failed")
			switch pe.Phase {
			case "preflight":
				os.Exit(exitcode.ValidationError)
			case "stage":
				os.Exit(exitcode.CopyError)
			default:
				os.Exit(exitcode.TransformError)
			}
		}
		log.Error().Err(err).Msg("load failed")
		os.Exit(exitcode.TransformError)
	}

	fmt.Printf("Load complete: %d rows staged, %d rows in fact table (%.1fs)\n",
		summary.RowsStaged, summary.RowsInserted, summary.DurationTotal.Seconds())
	return nil
}
