package analyze_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	embeddedpostgres "github.com/fergusstrange/embedded-postgres"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gyeh/claimstats/internal/analyze"
	"github.com/gyeh/claimstats/internal/config"
	"github.com/gyeh/claimstats/internal/db"
	"github.com/gyeh/claimstats/internal/logging"
)

const (
	testPort     = 15434
	testDB       = "analyzetest"
	testUser     = "postgres"
	testPassword = "postgres"
)

var (
	testDSN string
	pg      *embeddedpostgres.EmbeddedPostgres
)

func TestMain(m *testing.M) {
	testDSN = fmt.Sprintf("postgresql://%s:%s@localhost:%d/%s?sslmode=disable",
		testUser, testPassword, testPort, testDB)

	pg = embeddedpostgres.NewDatabase(
		embeddedpostgres.DefaultConfig().
			Port(uint32(testPort)).
			Database(testDB).
			Username(testUser).
			Password(testPassword).
			Version(embeddedpostgres.V16).
			RuntimePath(filepath.Join(os.TempDir(), "claimstats-analyze-pg")).
			StartTimeout(30*time.Second),
	)

	if err := pg.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start embedded postgres: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()

	if err := pg.Stop(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to stop embedded postgres: %v\n", err)
	}

	os.Exit(code)
}

func setupDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, testDSN)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	for _, schema := range []string{"claims", "ingest"} {
		if _, err := pool.Exec(ctx, fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", schema)); err != nil {
			t.Fatalf("drop schema %s: %v", schema, err)
		}
	}
	log := logging.Setup("text")
	if err := db.ApplyMigrations(ctx, pool, log); err != nil {
		pool.Close()
		t.Fatalf("migrations: %v", err)
	}
	t.Cleanup(func() { pool.Close() })
	return pool
}

// seedFacts loads a small but varied fact table: 30 providers, 5 codes,
// 12 months, so every aggregation section has something to chew on.
func seedFacts(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	ctx := context.Background()
	codes := []string{"99213", "99214", "G0008", "J3490", "T1019"}
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

	for p := 1; p <= 30; p++ {
		npi := fmt.Sprintf("%010d", p)
		servicing := npi
		if p%5 == 0 {
			servicing = fmt.Sprintf("%010d", p+100)
		}
		for m := 0; m < 12; m++ {
			code := codes[(p+m)%len(codes)]
			paidCents := int64(10000 + p*1000 + m*500)
			claims := int64(5 + p%7 + m%3)
			bene := claims - int64(m%2)
			if bene < 1 {
				bene = 1
			}
			_, err := pool.Exec(ctx,
				`INSERT INTO claims.billing_monthly
				   (billing_npi, servicing_npi, hcpcs_code, claim_month, paid_cents, claim_count, bene_count)
				 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				npi, servicing, code, start.AddDate(0, m, 0), paidCents, claims, bene)
			if err != nil {
				t.Fatalf("seed: %v", err)
			}
		}
	}
}

func TestRunAllSections(t *testing.T) {
	pool := setupDB(t)
	seedFacts(t, pool)

	outDir := t.TempDir()
	rt := &analyze.Runtime{
		Pool: pool,
		Log:  logging.Setup("text"),
		Sink: analyze.NewCSVSink(outDir),
		Th:   config.DefaultThresholds(),
	}

	report, err := analyze.Run(context.Background(), rt, nil, false)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(report.Failed) != 0 {
		t.Fatalf("failed sections: %v", report.Failed)
	}
	if len(report.Ran) != 40 {
		t.Fatalf("ran %d sections, want 40", len(report.Ran))
	}

	// Spot-check a descriptive and a fraud output exist and are non-empty.
	for _, rel := range []string{
		filepath.Join("eda", "01_dataset_overview.csv"),
		filepath.Join("stats", "31_benford_first_digit.csv"),
		filepath.Join("fraud", "40_fraud_risk_scores.csv"),
		filepath.Join("fraud", "40_risk_tier_summary.csv"),
	} {
		info, err := os.Stat(filepath.Join(outDir, rel))
		if err != nil {
			t.Errorf("missing output %s: %v", rel, err)
			continue
		}
		if info.Size() == 0 {
			t.Errorf("empty output %s", rel)
		}
	}
}

func TestRunSectionFiltering(t *testing.T) {
	pool := setupDB(t)
	seedFacts(t, pool)

	outDir := t.TempDir()
	rt := &analyze.Runtime{
		Pool: pool,
		Log:  logging.Setup("text"),
		Sink: analyze.NewCSVSink(outDir),
		Th:   config.DefaultThresholds(),
	}

	report, err := analyze.Run(context.Background(), rt, []int{2, 40}, false)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(report.Ran) != 2 {
		t.Fatalf("ran %v, want sections 2 and 40", report.Ran)
	}

	// Composite without detectors: everyone scores zero.
	scores := filepath.Join(outDir, "fraud", "40_fraud_risk_scores.csv")
	if _, err := os.Stat(scores); err != nil {
		t.Fatalf("composite output missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(outDir, "fraud", "33_upcoding_providers.csv")); err == nil {
		t.Error("section 33 ran despite allow-list")
	}
}

func TestRunSkipFraud(t *testing.T) {
	pool := setupDB(t)
	seedFacts(t, pool)

	outDir := t.TempDir()
	rt := &analyze.Runtime{
		Pool: pool,
		Log:  logging.Setup("text"),
		Sink: analyze.NewCSVSink(outDir),
		Th:   config.DefaultThresholds(),
	}

	report, err := analyze.Run(context.Background(), rt, nil, true)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(report.Ran) != 32 {
		t.Fatalf("ran %d sections, want 32 with fraud skipped", len(report.Ran))
	}
	if _, err := os.Stat(filepath.Join(outDir, "fraud")); err == nil {
		t.Error("fraud output directory created despite --skip-fraud")
	}
}
