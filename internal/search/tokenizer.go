// Package search compiles spec.md §4.4's query grammar into an in-memory
// predicate evaluated against a note+card+review bundle, then exposes a
// Matches entry point the toolserver runs over candidate rows. A pure
// predicate tree (rather than a generated SQL WHERE clause) keeps the
// `rated`/`prop` key semantics testable without a live database, matching
// this package's sibling internal/scheduler and internal/queue.
package search

import "strings"

// Term is one parsed query token: either bare text, key:value, or a
// key:value pair whose key isn't one of the recognised ones (Unknown),
// which matchOne treats as always-true rather than as literal bare text
// (spec.md §4.4 "Unknown keys are silently ignored").
type Term struct {
	Key     string // "" for bare terms
	Value   string
	Unknown bool
}

// Tokenize splits query on whitespace outside double quotes, stripping the
// quotes from any phrase (spec.md §4.4 grammar).
func Tokenize(query string) []string {
	var tokens []string
	var cur strings.Builder
	inQuotes := false

	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}

	for _, r := range query {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == ' ' || r == '\t' || r == '\n':
			if inQuotes {
				cur.WriteRune(r)
			} else {
				flush()
			}
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return tokens
}

// ParseTerm splits a single token into its key:value form, or leaves Key
// empty for a bare term.
func ParseTerm(token string) Term {
	if idx := strings.Index(token, ":"); idx > 0 {
		key := token[:idx]
		switch key {
		case "deck", "tag", "is", "rated", "prop", "note":
			return Term{Key: key, Value: token[idx+1:]}
		default:
			return Term{Key: key, Value: token[idx+1:], Unknown: true}
		}
	}
	return Term{Value: token}
}

// Parse tokenizes and parses a full query string into its term list.
func Parse(query string) []Term {
	tokens := Tokenize(query)
	terms := make([]Term, 0, len(tokens))
	for _, t := range tokens {
		terms = append(terms, ParseTerm(t))
	}
	return terms
}
