package db

import (
	"database/sql"
	"fmt"

	"github.com/noureldenadel/notly/internal/model"
)

// SaveCard creates or updates a card and refreshes its full-text index row.
// searchText is the plain-text rendering of the card content; pass "" to
// index the raw content.
func (d *DB) SaveCard(c *model.Card, searchText string) error {
	if c.CreatedAt == 0 {
		c.CreatedAt = model.NowMillis()
	}
	c.UpdatedAt = model.NowMillis()
	if c.ContentType == "" {
		c.ContentType = model.DefaultContentType
	}
	if searchText == "" {
		searchText = c.Content
	}

	_, err := d.Exec(`
		INSERT INTO cards (id, title, content, content_type, color, is_hidden, word_count, metadata, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			content = excluded.content,
			content_type = excluded.content_type,
			color = excluded.color,
			is_hidden = excluded.is_hidden,
			word_count = excluded.word_count,
			metadata = excluded.metadata,
			updated_at = excluded.updated_at
	`, c.ID, nullable(c.Title), c.Content, c.ContentType, nullable(c.Color),
		boolToInt(c.IsHidden), c.WordCount, nullable(c.Metadata), c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save card: %w", err)
	}

	if _, err := d.Exec("DELETE FROM cards_fts WHERE card_id = ?", c.ID); err != nil {
		return fmt.Errorf("clear card index: %w", err)
	}
	if _, err := d.Exec(`
		INSERT INTO cards_fts (card_id, title, search_text) VALUES (?, ?, ?)
	`, c.ID, c.Title, searchText); err != nil {
		return fmt.Errorf("index card: %w", err)
	}
	return nil
}

// GetCard retrieves a card by id. Returns nil, nil if absent.
func (d *DB) GetCard(id string) (*model.Card, error) {
	row := d.QueryRow(`
		SELECT id, title, content, content_type, color, is_hidden, word_count, metadata, created_at, updated_at
		FROM cards WHERE id = ?
	`, id)

	c, err := scanCard(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get card %s: %w", id, err)
	}
	return c, nil
}

// GetCards retrieves all cards ordered by creation time.
func (d *DB) GetCards() ([]*model.Card, error) {
	rows, err := d.Query(`
		SELECT id, title, content, content_type, color, is_hidden, word_count, metadata, created_at, updated_at
		FROM cards ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("get cards: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var cards []*model.Card
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cards: %w", err)
	}
	return cards, nil
}

// DeleteCard removes a card and its index row. Deleting a non-existent card
// is not an error.
func (d *DB) DeleteCard(id string) error {
	if _, err := d.Exec("DELETE FROM cards WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete card: %w", err)
	}
	if _, err := d.Exec("DELETE FROM cards_fts WHERE card_id = ?", id); err != nil {
		return fmt.Errorf("deindex card: %w", err)
	}
	return nil
}

func scanCard(row rowScanner) (*model.Card, error) {
	var c model.Card
	var title, color, metadata sql.NullString
	var hidden int
	if err := row.Scan(&c.ID, &title, &c.Content, &c.ContentType, &color,
		&hidden, &c.WordCount, &metadata, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.Title = title.String
	c.Color = color.String
	c.Metadata = metadata.String
	c.IsHidden = hidden != 0
	return &c, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
