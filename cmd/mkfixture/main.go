// mkfixture generates a synthetic billing Parquet fixture with planted
// anomaly patterns, one per detector, against a background of well-behaved
// providers. Deterministic for a fixed seed.
// Usage: go run ./cmd/mkfixture --out testdata/billing-small.parquet
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	goparquet "github.com/parquet-go/parquet-go"

	"github.com/gyeh/claimstats/internal/model"
)

var codes = []string{"99213", "99214", "99215", "G0008", "J3490", "T1019"}

func main() {
	out := flag.String("out", "testdata/billing-small.parquet", "output parquet")
	providers := flag.Int("providers", 120, "number of baseline providers")
	months := flag.Int("months", 18, "number of months of history")
	seed := flag.Int64("seed", 7, "rng seed")
	flag.Parse()

	rng := rand.New(rand.NewSource(*seed))
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	monthStr := func(i int) string { return start.AddDate(0, i, 0).Format("2006-01") }
	npi := func(n int) string { return fmt.Sprintf("%010d", n) }

	var rows []model.BillingRow
	add := func(billing, servicing, code string, month int, paid float64, claims, bene int64) {
		rows = append(rows, model.BillingRow{
			BillingNPI:         billing,
			ServicingNPI:       servicing,
			HCPCSCode:          code,
			ClaimMonth:         monthStr(month),
			TotalPaid:          paid,
			TotalClaims:        claims,
			TotalBeneficiaries: bene,
		})
	}

	// Baseline: well-behaved providers with mild noise around $100/claim.
	for p := 1; p <= *providers; p++ {
		id := npi(p)
		nCodes := 2 + rng.Intn(3)
		for c := 0; c < nCodes; c++ {
			code := codes[(p+c)%len(codes)]
			for m := 0; m < *months; m++ {
				if rng.Float64() < 0.15 {
					continue // not every code every month
				}
				claims := int64(5 + rng.Intn(20))
				bene := claims - int64(rng.Intn(3))
				if bene < 1 {
					bene = 1
				}
				cpc := 90 + rng.Float64()*20
				add(id, id, code, m, cpc*float64(claims), claims, bene)
			}
		}
	}

	// Planted anomalies, numbered out of the baseline NPI range.
	upcoder := npi(9001)
	for m := 0; m < *months; m++ {
		for _, code := range codes[:3] {
			claims := int64(10)
			add(upcoder, upcoder, code, m, 520*float64(claims), claims, 8)
		}
	}

	spiker := npi(9002)
	for m := 0; m < *months; m++ {
		paid := 1000.0
		if m == *months-2 {
			paid = 60000
		}
		add(spiker, spiker, "99213", m, paid, 10, 8)
	}

	ghost := npi(9003)
	for m := 0; m < 6; m++ {
		add(ghost, ghost, "G0008", m, 4000, 180, 2)
	}

	// Kickback pattern: nearly everything routed to one servicing partner.
	hub, partner := npi(9004), npi(9104)
	for m := 0; m < *months; m++ {
		add(hub, partner, "T1019", m, 3000, 12, 10)
	}
	add(hub, npi(9105), "99213", 0, 150, 2, 2)

	burst := npi(9005)
	for m := 0; m < 8; m++ {
		paid := 20.0
		if m == 7 {
			paid = 25000
		}
		add(burst, burst, "J3490", m, paid, 6, 5)
	}

	f, err := os.Create(*out)
	if err != nil {
		fmt.Fprintf(os.Stderr, "create output: %v\n", err)
		os.Exit(1)
	}
	writer := goparquet.NewGenericWriter[model.BillingRow](f)
	if _, err := writer.Write(rows); err != nil {
		fmt.Fprintf(os.Stderr, "write parquet: %v\n", err)
		os.Exit(1)
	}
	if err := writer.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "close writer: %v\n", err)
		os.Exit(1)
	}
	if err := f.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "close file: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Wrote %d rows (%d baseline providers, 5 planted anomalies) to %s\n",
		len(rows), *providers, *out)
}
