package db

import (
	"fmt"
	"strings"
)

// CardMatch is a full-text search hit over card content.
type CardMatch struct {
	CardID  string
	Title   string
	Snippet string
	Rank    float64
}

// SearchCards runs a full-text query over indexed card text, best match
// first. The query is sanitized into FTS5 prefix terms so raw user input
// cannot break the match expression.
func (d *DB) SearchCards(query string) ([]CardMatch, error) {
	ftsQuery := buildFTSQuery(query)
	if ftsQuery == "" {
		return nil, nil
	}

	rows, err := d.Query(`
		SELECT card_id, title, snippet(cards_fts, 2, '[', ']', '…', 12), rank
		FROM cards_fts
		WHERE cards_fts MATCH ?
		ORDER BY rank
	`, ftsQuery)
	if err != nil {
		return nil, fmt.Errorf("search cards: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var matches []CardMatch
	for rows.Next() {
		var m CardMatch
		if err := rows.Scan(&m.CardID, &m.Title, &m.Snippet, &m.Rank); err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate matches: %w", err)
	}
	return matches, nil
}

// buildFTSQuery turns free text into a quoted prefix-match FTS5 expression.
func buildFTSQuery(query string) string {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return ""
	}
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.ReplaceAll(f, `"`, "")
		if f == "" {
			continue
		}
		terms = append(terms, `"`+f+`"*`)
	}
	return strings.Join(terms, " ")
}
