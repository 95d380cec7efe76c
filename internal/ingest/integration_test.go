package ingest_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	embeddedpostgres "github.com/fergusstrange/embedded-postgres"
	"github.com/jackc/pgx/v5/pgxpool"
	goparquet "github.com/parquet-go/parquet-go"

	"github.com/gyeh/claimstats/internal/config"
	"github.com/gyeh/claimstats/internal/db"
	"github.com/gyeh/claimstats/internal/ingest"
	"github.com/gyeh/claimstats/internal/logging"
	"github.com/gyeh/claimstats/internal/model"
)

const (
	testPort     = 15435
	testDB       = "ingesttest"
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
			RuntimePath(filepath.Join(os.TempDir(), "claimstats-ingest-pg")).
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

// writeFixture writes rows to a parquet file in a temp dir.
func writeFixture(t *testing.T, rows []model.BillingRow) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "billing.parquet")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create fixture: %v", err)
	}
	w := goparquet.NewGenericWriter[model.BillingRow](f)
	if _, err := w.Write(rows); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close fixture: %v", err)
	}
	return path
}

func goodRows() []model.BillingRow {
	var rows []model.BillingRow
	for p := 1; p <= 5; p++ {
		for m := 1; m <= 3; m++ {
			rows = append(rows, model.BillingRow{
				BillingNPI:         fmt.Sprintf("%010d", p),
				ServicingNPI:       fmt.Sprintf("%010d", p),
				HCPCSCode:          "99213",
				ClaimMonth:         fmt.Sprintf("2023-%02d", m),
				TotalPaid:          100.50 * float64(m),
				TotalClaims:        int64(10 * m),
				TotalBeneficiaries: int64(8 * m),
			})
		}
	}
	return rows
}

func TestLoadEndToEnd(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()
	log := logging.Setup("text")

	rows := goodRows()
	cfg := &config.Config{
		DSN:         testDSN,
		FilePath:    writeFixture(t, rows),
		LogFormat:   "text",
		KeepStaging: true,
	}

	summary, err := ingest.Run(ctx, pool, log, cfg)
	if err != nil {
		t.Fatalf("pipeline.Run: %v", err)
	}

	t.Run("summary_metrics", func(t *testing.T) {
		if summary.RowsRead != int64(len(rows)) {
			t.Errorf("RowsRead: got %d, want %d", summary.RowsRead, len(rows))
		}
		if summary.RowsStaged != int64(len(rows)) {
			t.Errorf("RowsStaged: got %d, want %d", summary.RowsStaged, len(rows))
		}
		if summary.RowsRejected != 0 {
			t.Errorf("RowsRejected: got %d, want 0", summary.RowsRejected)
		}
		if summary.RowsInserted != int64(len(rows)) {
			t.Errorf("RowsInserted: got %d, want %d", summary.RowsInserted, len(rows))
		}
	})

	t.Run("fact_rows_and_money", func(t *testing.T) {
		var count int64
		if err := pool.QueryRow(ctx, "SELECT count(*) FROM claims.billing_monthly").Scan(&count); err != nil {
			t.Fatalf("query: %v", err)
		}
		if count != int64(len(rows)) {
			t.Errorf("fact rows: got %d, want %d", count, len(rows))
		}

		var cents int64
		err := pool.QueryRow(ctx,
			`SELECT paid_cents FROM claims.billing_monthly
			 WHERE billing_npi = '0000000001' AND claim_month = '2023-02-01'`).Scan(&cents)
		if err != nil {
			t.Fatalf("query: %v", err)
		}
		if cents != 20100 {
			t.Errorf("paid_cents = %d, want 20100 (from $201.00)", cents)
		}
	})

	t.Run("dataset_file_loaded", func(t *testing.T) {
		var status string
		err := pool.QueryRow(ctx,
			"SELECT status FROM ingest.dataset_files WHERE dataset_file_id = $1",
			summary.DatasetFileID).Scan(&status)
		if err != nil {
			t.Fatalf("query: %v", err)
		}
		if status != "loaded" {
			t.Errorf("status = %q, want loaded", status)
		}
	})

	t.Run("staging_kept", func(t *testing.T) {
		var count int64
		if err := pool.QueryRow(ctx, "SELECT count(*) FROM ingest.stage_billing_rows").Scan(&count); err != nil {
			t.Fatalf("query: %v", err)
		}
		if count != int64(len(rows)) {
			t.Errorf("staging rows: got %d, want %d (KeepStaging set)", count, len(rows))
		}
	})
}

func TestLoadIdempotency(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()
	log := logging.Setup("text")

	cfg := &config.Config{
		DSN:       testDSN,
		FilePath:  writeFixture(t, goodRows()),
		LogFormat: "text",
	}

	summary1, err := ingest.Run(ctx, pool, log, cfg)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if summary1.RowsStaged == 0 {
		t.Fatal("first run staged nothing")
	}

	summary2, err := ingest.Run(ctx, pool, log, cfg)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if summary2.RowsStaged != 0 {
		t.Errorf("second run staged %d rows, want 0 (already loaded)", summary2.RowsStaged)
	}

	var count int64
	if err := pool.QueryRow(ctx, "SELECT count(*) FROM claims.billing_monthly").Scan(&count); err != nil {
		t.Fatalf("query: %v", err)
	}
	if count != summary1.RowsInserted {
		t.Errorf("fact rows doubled: got %d, want %d", count, summary1.RowsInserted)
	}
}

func TestLoadRejectsMalformedRows(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()
	log := logging.Setup("text")

	rows := goodRows()
	rows = append(rows,
		model.BillingRow{ // unusable provider ID
			BillingNPI: "N/A", ServicingNPI: "0000000001", HCPCSCode: "99213",
			ClaimMonth: "2023-01", TotalPaid: 10, TotalClaims: 1, TotalBeneficiaries: 1,
		},
		model.BillingRow{ // unparseable month
			BillingNPI: "0000000009", ServicingNPI: "0000000009", HCPCSCode: "99213",
			ClaimMonth: "whenever", TotalPaid: 10, TotalClaims: 1, TotalBeneficiaries: 1,
		},
		model.BillingRow{ // negative amount
			BillingNPI: "0000000009", ServicingNPI: "0000000009", HCPCSCode: "99214",
			ClaimMonth: "2023-01", TotalPaid: -10, TotalClaims: 1, TotalBeneficiaries: 1,
		},
	)

	cfg := &config.Config{
		DSN:       testDSN,
		FilePath:  writeFixture(t, rows),
		LogFormat: "text",
	}

	summary, err := ingest.Run(ctx, pool, log, cfg)
	if err != nil {
		t.Fatalf("pipeline.Run: %v", err)
	}
	if summary.RowsRejected != 3 {
		t.Errorf("RowsRejected = %d, want 3", summary.RowsRejected)
	}
	if summary.RowsStaged != int64(len(rows)-3) {
		t.Errorf("RowsStaged = %d, want %d", summary.RowsStaged, len(rows)-3)
	}

	var count int64
	if err := pool.QueryRow(ctx, "SELECT count(*) FROM claims.billing_monthly").Scan(&count); err != nil {
		t.Fatalf("query: %v", err)
	}
	if count != int64(len(rows)-3) {
		t.Errorf("fact rows = %d, want %d", count, len(rows)-3)
	}
}
