package db

import (
	"fmt"
	"strings"
)

// MessageSearchResult represents a search result with snippet
type MessageSearchResult struct {
	Message
	FilePath string
	Snippet  string // body excerpt with <mark> around matches
}

// buildMatchQuery turns "see map" into "see"* "map"* for prefix matching
func buildMatchQuery(query string) string {
	terms := strings.Fields(query)
	quoted := make([]string, len(terms))
	for i, term := range terms {
		// Quoting keeps FTS5 operators in user input literal
		quoted[i] = `"` + strings.ReplaceAll(term, `"`, `""`) + `"*`
	}
	return strings.Join(quoted, " ")
}

// SearchMessages performs a full-text search over message bodies and
// partner numbers. An empty query returns nothing.
func (db *DB) SearchMessages(query string, limit int) ([]*MessageSearchResult, error) {
	match := buildMatchQuery(query)
	if match == "" {
		return nil, nil
	}

	rows, err := db.Query(`
		SELECT
			m.id, m.file_id, m.position, m.type, m.box, m.sender, m.recipient,
			m.partner, m.date, m.body, f.file_path,
			snippet(messages_fts, 0, '<mark>', '</mark>', '...', 32) AS snippet
		FROM messages_fts
		JOIN messages m ON m.id = messages_fts.rowid
		JOIN files f ON f.id = m.file_id
		WHERE messages_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, match, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search messages: %w", err)
	}
	defer rows.Close()

	var results []*MessageSearchResult
	for rows.Next() {
		r := &MessageSearchResult{}
		err := rows.Scan(
			&r.ID, &r.FileID, &r.Position, &r.Type, &r.Box, &r.Sender, &r.Recipient,
			&r.Partner, &r.Date, &r.Body, &r.FilePath,
			&r.Snippet,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan search result: %w", err)
		}
		if r.Snippet == "" {
			r.Snippet = truncateText(r.Body, 200)
		}
		results = append(results, r)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating search results: %w", err)
	}

	return results, nil
}

// truncateText truncates text to maxLen runes
func truncateText(text string, maxLen int) string {
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	return string(runes[:maxLen]) + "..."
}
