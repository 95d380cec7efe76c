package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/gyeh/claimstats/internal/config"
)

var cfg = config.Config{Thresholds: config.DefaultThresholds()}

var rootCmd = &cobra.Command{
	Use:   "claimscan",
	Short: "Medicaid billing data loader and fraud-signal analyzer",
	Long:  "Loads monthly billing Parquet files into Postgres via the COPY protocol and runs the numbered analysis sections, including the fraud-signal detectors and composite risk scoring.",
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfg.DSN, "dsn", os.Getenv("CLAIMSTATS_DB_URL"), "Postgres connection string (or set CLAIMSTATS_DB_URL)")
	pf.StringVar(&cfg.LogFormat, "log-format", "text", "Log format: text or json")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
