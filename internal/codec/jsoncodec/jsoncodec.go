// Package jsoncodec parses and emits the JSON import/export format
// (spec.md §4.7).
package jsoncodec

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Gxrco/Anki-MCP/internal/codec"
	"github.com/Gxrco/Anki-MCP/internal/store"
)

// importRecord mirrors spec.md §4.7's JSON import shape:
// {deck, model, fields, tags}.
type importRecord struct {
	Deck   string            `json:"deck"`
	Model  string            `json:"model"`
	Fields map[string]string `json:"fields"`
	Tags   []string          `json:"tags"`
}

// Parse decodes a JSON array of note records.
func Parse(data []byte) ([]codec.NoteRecord, error) {
	var raw []importRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse json import: %w", err)
	}
	records := make([]codec.NoteRecord, len(raw))
	for i, r := range raw {
		records[i] = codec.NoteRecord{Deck: r.Deck, Model: r.Model, Fields: r.Fields, Tags: r.Tags}
	}
	return records, nil
}

// Document is the export envelope (spec.md §4.7): {version, exported_at,
// deck, notes[], media[], stats?}.
type Document struct {
	Version    int             `json:"version"`
	ExportedAt time.Time       `json:"exported_at"`
	Deck       string          `json:"deck"`
	Notes      []ExportedNote  `json:"notes"`
	Media      []string        `json:"media"`
	Stats      *store.DeckStats `json:"stats,omitempty"`
}

// ExportedNote carries a note plus the cards generated from it.
type ExportedNote struct {
	Model  string            `json:"model"`
	Fields map[string]string `json:"fields"`
	Tags   []string          `json:"tags"`
	Cards  []ExportedCard    `json:"cards"`
}

type ExportedCard struct {
	Template string `json:"template"`
	State    string `json:"state"`
	Due      int    `json:"due"`
}

// Marshal renders a Document to its JSON bytes.
func Marshal(doc Document) ([]byte, error) {
	return json.MarshalIndent(doc, "", "  ")
}
