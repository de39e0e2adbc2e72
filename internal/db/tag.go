package db

import (
	"database/sql"
	"fmt"

	"github.com/noureldenadel/notly/internal/model"
)

// SaveTag creates or updates a tag.
func (d *DB) SaveTag(t *model.Tag) error {
	if t.CreatedAt == 0 {
		t.CreatedAt = model.NowMillis()
	}

	_, err := d.Exec(`
		INSERT INTO tags (id, name, color, group_id, position, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			color = excluded.color,
			group_id = excluded.group_id,
			position = excluded.position
	`, t.ID, t.Name, nullable(t.Color), nullable(t.GroupID), t.Position, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("save tag: %w", err)
	}
	return nil
}

// GetTags retrieves all tags ordered by position.
func (d *DB) GetTags() ([]*model.Tag, error) {
	rows, err := d.Query(`
		SELECT id, name, color, group_id, position, created_at
		FROM tags ORDER BY position, created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("get tags: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tags []*model.Tag
	for rows.Next() {
		var t model.Tag
		var color, groupID sql.NullString
		if err := rows.Scan(&t.ID, &t.Name, &color, &groupID, &t.Position, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		t.Color = color.String
		t.GroupID = groupID.String
		tags = append(tags, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tags: %w", err)
	}
	return tags, nil
}

// DeleteTag removes a tag and its card links. Idempotent.
func (d *DB) DeleteTag(id string) error {
	_, err := d.Exec("DELETE FROM tags WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}
	return nil
}

// TagCard links a tag to a card. Linking twice is not an error.
func (d *DB) TagCard(cardID, tagID string) error {
	_, err := d.Exec(`
		INSERT INTO card_tags (card_id, tag_id) VALUES (?, ?)
		ON CONFLICT(card_id, tag_id) DO NOTHING
	`, cardID, tagID)
	if err != nil {
		return fmt.Errorf("tag card: %w", err)
	}
	return nil
}

// UntagCard removes a tag link from a card. Idempotent.
func (d *DB) UntagCard(cardID, tagID string) error {
	_, err := d.Exec("DELETE FROM card_tags WHERE card_id = ? AND tag_id = ?", cardID, tagID)
	if err != nil {
		return fmt.Errorf("untag card: %w", err)
	}
	return nil
}

// CardTags retrieves the tags attached to a card, ordered by position.
func (d *DB) CardTags(cardID string) ([]*model.Tag, error) {
	rows, err := d.Query(`
		SELECT t.id, t.name, t.color, t.group_id, t.position, t.created_at
		FROM tags t
		JOIN card_tags ct ON ct.tag_id = t.id
		WHERE ct.card_id = ?
		ORDER BY t.position, t.created_at
	`, cardID)
	if err != nil {
		return nil, fmt.Errorf("card tags: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tags []*model.Tag
	for rows.Next() {
		var t model.Tag
		var color, groupID sql.NullString
		if err := rows.Scan(&t.ID, &t.Name, &color, &groupID, &t.Position, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		t.Color = color.String
		t.GroupID = groupID.String
		tags = append(tags, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tags: %w", err)
	}
	return tags, nil
}
