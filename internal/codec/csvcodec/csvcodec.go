// Package csvcodec parses the CSV/TSV import format (spec.md §4.7): a
// header row naming recognised columns, one note per subsequent row.
package csvcodec

import (
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/Gxrco/Anki-MCP/internal/codec"
)

// Parse reads CSV text (already comma-delimited; TSVToCSV converts TSV first)
// into NoteRecords. Unknown columns are ignored; recognised columns are
// deck, model, front, back, tags, extra (spec.md §4.7).
func Parse(data string) ([]codec.NoteRecord, error) {
	r := csv.NewReader(strings.NewReader(data))
	r.FieldsPerRecord = -1

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	header := rows[0]
	colIndex := make(map[string]int, len(header))
	for i, name := range header {
		colIndex[strings.ToLower(strings.TrimSpace(name))] = i
	}

	var records []codec.NoteRecord
	for _, row := range rows[1:] {
		rec := codec.NoteRecord{Fields: make(map[string]string)}
		rec.Deck = cell(row, colIndex, "deck")
		rec.Model = cell(row, colIndex, "model")
		if front := cell(row, colIndex, "front"); front != "" {
			rec.Fields["front"] = front
		}
		if back := cell(row, colIndex, "back"); back != "" {
			rec.Fields["back"] = back
		}
		if extra := cell(row, colIndex, "extra"); extra != "" {
			rec.Fields["extra"] = extra
		}
		if tags := cell(row, colIndex, "tags"); tags != "" {
			rec.Tags = strings.Fields(tags)
		}
		records = append(records, rec)
	}
	return records, nil
}

func cell(row []string, colIndex map[string]int, name string) string {
	idx, ok := colIndex[name]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// TSVToCSV converts tab-delimited text to comma-delimited CSV with quoting,
// per spec.md §4.7 ("TSV is converted to CSV before parsing").
func TSVToCSV(data string) (string, error) {
	r := csv.NewReader(strings.NewReader(data))
	r.Comma = '\t'
	r.FieldsPerRecord = -1

	rows, err := r.ReadAll()
	if err != nil {
		return "", fmt.Errorf("parse tsv: %w", err)
	}

	var out strings.Builder
	w := csv.NewWriter(&out)
	if err := w.WriteAll(rows); err != nil {
		return "", fmt.Errorf("convert tsv to csv: %w", err)
	}
	return out.String(), nil
}
