package analyze

import (
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestRegistryNumbering(t *testing.T) {
	secs := Registry()
	if len(secs) != 40 {
		t.Fatalf("registry has %d sections, want 40", len(secs))
	}
	names := make(map[string]bool)
	for i, sec := range secs {
		if sec.Number != i+1 {
			t.Errorf("section at index %d numbered %d", i, sec.Number)
		}
		if names[sec.Name] {
			t.Errorf("duplicate section name %q", sec.Name)
		}
		names[sec.Name] = true
		if sec.Run == nil {
			t.Errorf("section %d has no run func", sec.Number)
		}
		if sec.Number >= FraudSectionStart && sec.Group != "fraud" {
			t.Errorf("section %d in group %q, want fraud", sec.Number, sec.Group)
		}
		if sec.Number < FraudSectionStart && sec.Group == "fraud" {
			t.Errorf("descriptive section %d in fraud group", sec.Number)
		}
	}
}

func TestCSVSinkWriteTable(t *testing.T) {
	dir := t.TempDir()
	sink := NewCSVSink(dir)

	err := sink.WriteTable("stats", "08_concentration",
		[]string{"metric", "value"},
		[][]string{{"provider_gini", "0.82"}, {"top10_share", "41.5"}})
	if err != nil {
		t.Fatalf("WriteTable: %v", err)
	}

	f, err := os.Open(filepath.Join(dir, "stats", "08_concentration.csv"))
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("records = %d, want header + 2 rows", len(records))
	}
	if records[0][0] != "metric" || records[2][1] != "41.5" {
		t.Errorf("unexpected content: %v", records)
	}
}

func TestRunSectionIsolatesPanic(t *testing.T) {
	sec := Section{
		Number: 99,
		Name:   "explosive",
		Run: func(ctx context.Context, rt *Runtime) error {
			panic("boom")
		},
	}
	err := runSection(context.Background(), &Runtime{}, sec)
	if err == nil {
		t.Fatal("panic not converted to error")
	}
}

func TestRunSectionPassesError(t *testing.T) {
	want := errors.New("query timeout")
	sec := Section{
		Number: 99,
		Name:   "failing",
		Run: func(ctx context.Context, rt *Runtime) error {
			return want
		},
	}
	if err := runSection(context.Background(), &Runtime{}, sec); !errors.Is(err, want) {
		t.Fatalf("err = %v, want %v", err, want)
	}
}

func TestFormatValue(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{int64(42), "42"},
		{3.5, "3.5"},
		{"G0008", "G0008"},
		{true, "true"},
	}
	for _, tc := range cases {
		if got := formatValue(tc.in); got != tc.want {
			t.Errorf("formatValue(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
