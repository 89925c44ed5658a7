package ingestion

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ExtractRows reads a CSV file and renders each data row as one document.
func ExtractRows(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadRows(f)
}

// ReadRows renders every row after the header as "col: value, col: value".
// Short rows render missing cells as empty values.
func ReadRows(r io.Reader) ([]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("csv has no header row")
	}
	if err != nil {
		return nil, fmt.Errorf("reading csv header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	var rows []string
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading csv line %d: %w", line, err)
		}
		rows = append(rows, renderRow(header, rec))
	}
	return rows, nil
}

func renderRow(header, rec []string) string {
	parts := make([]string, len(header))
	for i, col := range header {
		var val string
		if i < len(rec) {
			val = rec[i]
		}
		parts[i] = col + ": " + val
	}
	return strings.Join(parts, ", ")
}
