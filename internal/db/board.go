package db

import (
	"database/sql"
	"fmt"

	"github.com/noureldenadel/notly/internal/model"
)

// SaveBoard creates or updates a board. The snapshot column is written as
// part of the upsert; use SaveCanvasSnapshot for snapshot-only updates.
func (d *DB) SaveBoard(b *model.Board) error {
	if b.CreatedAt == 0 {
		b.CreatedAt = model.NowMillis()
	}
	b.UpdatedAt = model.NowMillis()

	_, err := d.Exec(`
		INSERT INTO boards (id, project_id, parent_board_id, title, position, tldraw_snapshot, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			project_id = excluded.project_id,
			parent_board_id = excluded.parent_board_id,
			title = excluded.title,
			position = excluded.position,
			tldraw_snapshot = excluded.tldraw_snapshot,
			updated_at = excluded.updated_at
	`, b.ID, b.ProjectID, nullable(b.ParentBoardID), b.Title, b.Position,
		nullable(b.Snapshot), b.CreatedAt, b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save board: %w", err)
	}
	return nil
}

// GetBoard retrieves a board by id. Returns nil, nil if absent.
func (d *DB) GetBoard(id string) (*model.Board, error) {
	row := d.QueryRow(`
		SELECT id, project_id, parent_board_id, title, position, tldraw_snapshot, created_at, updated_at
		FROM boards WHERE id = ?
	`, id)

	b, err := scanBoard(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get board %s: %w", id, err)
	}
	return b, nil
}

// GetBoards retrieves boards, optionally filtered by project, ordered by
// position with insertion order breaking ties.
func (d *DB) GetBoards(projectID string) ([]*model.Board, error) {
	query := `
		SELECT id, project_id, parent_board_id, title, position, tldraw_snapshot, created_at, updated_at
		FROM boards`
	var args []any
	if projectID != "" {
		query += " WHERE project_id = ?"
		args = append(args, projectID)
	}
	query += " ORDER BY position, created_at"

	rows, err := d.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("get boards: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var boards []*model.Board
	for rows.Next() {
		b, err := scanBoard(rows)
		if err != nil {
			return nil, fmt.Errorf("scan board: %w", err)
		}
		boards = append(boards, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate boards: %w", err)
	}
	return boards, nil
}

// DeleteBoard removes a board. Deleting a non-existent board is not an error.
func (d *DB) DeleteBoard(id string) error {
	_, err := d.Exec("DELETE FROM boards WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete board: %w", err)
	}
	return nil
}

// SaveCanvasSnapshot persists the serialized canvas document for a board.
func (d *DB) SaveCanvasSnapshot(boardID, snapshot string) error {
	res, err := d.Exec(`
		UPDATE boards SET tldraw_snapshot = ?, updated_at = ? WHERE id = ?
	`, snapshot, model.NowMillis(), boardID)
	if err != nil {
		return fmt.Errorf("save canvas snapshot: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("save canvas snapshot: board %s not found", boardID)
	}
	return nil
}

// LoadCanvasSnapshot loads the serialized canvas document for a board.
// Returns "" with no error when the board has no snapshot or does not exist.
func (d *DB) LoadCanvasSnapshot(boardID string) (string, error) {
	var snapshot sql.NullString
	err := d.QueryRow("SELECT tldraw_snapshot FROM boards WHERE id = ?", boardID).Scan(&snapshot)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load canvas snapshot %s: %w", boardID, err)
	}
	return snapshot.String, nil
}

func scanBoard(row rowScanner) (*model.Board, error) {
	var b model.Board
	var parent, snapshot sql.NullString
	if err := row.Scan(&b.ID, &b.ProjectID, &parent, &b.Title, &b.Position,
		&snapshot, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	b.ParentBoardID = parent.String
	b.Snapshot = snapshot.String
	return &b, nil
}
