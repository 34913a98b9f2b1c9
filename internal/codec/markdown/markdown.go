// Package markdown parses and renders the Markdown import/export format
// (spec.md §4.7): `---`-delimited sections, each a set of
// `### Deck:`/`Tags:`/`Model:`/`Q:`/`A:`/`Cloze:`/`Extra:` prefixed lines,
// with continuation lines appending to whichever field was set last.
//
// Sections are split with goldmark's block parser (yuin/goldmark), treating
// each parsed ast.ThematicBreak as a section boundary; this reuses a real
// CommonMark-aware parser instead of a hand-rolled line splitter, matching
// how the rest of this codebase prefers a pack library over a bespoke one.
package markdown

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/Gxrco/Anki-MCP/internal/codec"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Parse splits doc into `---`-delimited sections via goldmark's block
// parser, then line-parses each section into a NoteRecord.
func Parse(doc string) ([]codec.NoteRecord, error) {
	src := []byte(doc)
	md := goldmark.New()
	root := md.Parser().Parse(text.NewReader(src))

	var boundaries []int // byte offsets of each ThematicBreak
	err := ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if n.Kind() == ast.KindThematicBreak {
			if lines := n.Lines(); lines.Len() > 0 {
				boundaries = append(boundaries, lines.At(0).Start)
			}
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse markdown: %w", err)
	}

	sections := splitAt(string(src), boundaries)

	var records []codec.NoteRecord
	for _, section := range sections {
		if strings.TrimSpace(section) == "" {
			continue
		}
		rec, ok := parseSection(section)
		if ok {
			records = append(records, rec)
		}
	}
	return records, nil
}

func splitAt(src string, offsets []int) []string {
	if len(offsets) == 0 {
		return []string{src}
	}
	var parts []string
	prev := 0
	for _, off := range offsets {
		parts = append(parts, src[prev:off])
		prev = off
	}
	parts = append(parts, src[prev:])
	return parts
}

// fieldPrefixes maps a line prefix to the NoteRecord field it sets.
var fieldPrefixes = []string{"### Deck:", "Tags:", "Model:", "Q:", "A:", "Cloze:", "Extra:"}

func parseSection(section string) (codec.NoteRecord, bool) {
	rec := codec.NoteRecord{Fields: make(map[string]string)}
	lines := strings.Split(section, "\n")

	var current string // which field continuation lines append to
	found := false

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || trimmed == "---" {
			continue
		}

		matchedPrefix := ""
		for _, p := range fieldPrefixes {
			if strings.HasPrefix(trimmed, p) {
				matchedPrefix = p
				break
			}
		}

		if matchedPrefix == "" {
			if current != "" {
				appendField(&rec, current, "\n"+trimmed)
			}
			continue
		}

		value := strings.TrimSpace(strings.TrimPrefix(trimmed, matchedPrefix))
		found = true
		switch matchedPrefix {
		case "### Deck:":
			rec.Deck = value
			current = ""
		case "Model:":
			rec.Model = value
			current = ""
		case "Tags:":
			rec.Tags = strings.Fields(value)
			current = ""
		case "Q:":
			rec.Fields["front"] = value
			current = "front"
		case "A:":
			rec.Fields["back"] = value
			current = "back"
		case "Cloze:":
			rec.Fields["front"] = value
			current = "front"
		case "Extra:":
			rec.Fields["extra"] = value
			current = "extra"
		}
	}

	return rec, found
}

func appendField(rec *codec.NoteRecord, field, suffix string) {
	rec.Fields[field] = rec.Fields[field] + suffix
}

// Render emits a Markdown document for the given notes, formatted to
// round-trip through Parse for the basic, basic_reverse, and cloze models
// (spec.md §4.7 export).
func Render(deckName string, notes []codec.NoteRecord) string {
	var buf bytes.Buffer
	for i, n := range notes {
		if i > 0 {
			// Blank lines on both sides are required: CommonMark only parses
			// a bare "---" line as a ThematicBreak (the section boundary
			// Parse looks for) when it isn't immediately preceded by a
			// paragraph line, else it reads as a Setext heading underline.
			buf.WriteString("\n---\n\n")
		}
		fmt.Fprintf(&buf, "### Deck: %s\n", deckName)
		fmt.Fprintf(&buf, "Model: %s\n", n.Model)
		if len(n.Tags) > 0 {
			fmt.Fprintf(&buf, "Tags: %s\n", strings.Join(n.Tags, " "))
		}
		if n.Model == "cloze" {
			fmt.Fprintf(&buf, "Cloze: %s\n", n.Fields["front"])
		} else {
			fmt.Fprintf(&buf, "Q: %s\n", n.Fields["front"])
			fmt.Fprintf(&buf, "A: %s\n", n.Fields["back"])
		}
		if extra, ok := n.Fields["extra"]; ok && extra != "" {
			fmt.Fprintf(&buf, "Extra: %s\n", extra)
		}
	}
	return buf.String()
}
