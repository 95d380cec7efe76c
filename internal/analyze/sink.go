package analyze

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
)

// Sink receives section result tables. Implementations must tolerate being
// called once per table, in section order, from a single goroutine, and
// must finish consuming header and rows before returning: callers reuse the
// slices for the next table.
type Sink interface {
	WriteTable(group, name string, header []string, rows [][]string) error
}

// CSVSink writes each table as <dir>/<group>/<name>.csv.
type CSVSink struct {
	Dir string
}

func NewCSVSink(dir string) *CSVSink { return &CSVSink{Dir: dir} }

func (s *CSVSink) WriteTable(group, name string, header []string, rows [][]string) error {
	dir := filepath.Join(s.Dir, group)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create sink dir: %w", err)
	}
	path := filepath.Join(dir, name+".csv")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return f.Close()
}
