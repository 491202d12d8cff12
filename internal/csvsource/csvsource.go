// Package csvsource loads report rows from a CSV file for one-shot runs.
package csvsource

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/tessera-labs/reportrun/internal/types"
)

/*
 * One-shot runs bypass the database: the CSV file IS the dataset. The first
 * record is the header row; every subsequent record becomes one engine record
 * keyed by header name. Cells that parse as numbers load as float64 so the
 * engine sees them as natively numeric, true/false load as bool; everything
 * else stays a string.
 *
 * The loader ignores the principal and dataset ids it is handed - a local
 * file carries no grants. It still satisfies engine.RowLoader so the same
 * engine serves both the server and the CLI.
 */

// Loader serves a parsed CSV file as engine rows.
type Loader struct {
	rows []types.Record
}

// Open reads and parses the CSV file at path.
func Open(path string) (*Loader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv %s: %w", path, err)
	}
	defer f.Close()

	return parse(f, path)
}

func parse(r io.Reader, name string) (*Loader, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return &Loader{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header from %s: %w", name, err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var rows []types.Record
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// A malformed line degrades to a skip; the rest of the file loads.
			continue
		}

		rec := make(types.Record, len(header))
		for i, col := range header {
			if col == "" || i >= len(record) {
				continue
			}
			rec[col] = cell(record[i])
		}
		rows = append(rows, rec)
	}

	return &Loader{rows: rows}, nil
}

// cell types a raw CSV cell: numbers load as float64, true/false as bool,
// everything else as string.
func cell(raw string) any {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	if n, err := strconv.ParseFloat(strings.ReplaceAll(trimmed, ",", ""), 64); err == nil {
		return n
	}
	switch strings.ToLower(trimmed) {
	case "true":
		return true
	case "false":
		return false
	}
	return trimmed
}

// LoadRows returns every parsed row. Satisfies engine.RowLoader.
func (l *Loader) LoadRows(_ context.Context, _ string, _ []types.DatasetID, _ int) ([]types.Record, error) {
	return l.rows, nil
}

// Len reports the number of parsed rows.
func (l *Loader) Len() int {
	return len(l.rows)
}
