package db

import (
	"database/sql"
	"fmt"

	"github.com/noureldenadel/notly/internal/model"
)

// SaveProject creates or updates a project.
func (d *DB) SaveProject(p *model.Project) error {
	if p.CreatedAt == 0 {
		p.CreatedAt = model.NowMillis()
	}
	p.UpdatedAt = model.NowMillis()

	_, err := d.Exec(`
		INSERT INTO projects (id, title, description, thumbnail_path, color, settings, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			thumbnail_path = excluded.thumbnail_path,
			color = excluded.color,
			settings = excluded.settings,
			updated_at = excluded.updated_at
	`, p.ID, p.Title, nullable(p.Description), nullable(p.ThumbnailPath),
		nullable(p.Color), nullable(p.Settings), p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save project: %w", err)
	}
	return nil
}

// GetProject retrieves a project by id. Returns nil, nil if absent.
func (d *DB) GetProject(id string) (*model.Project, error) {
	row := d.QueryRow(`
		SELECT id, title, description, thumbnail_path, color, settings, created_at, updated_at
		FROM projects WHERE id = ?
	`, id)

	p, err := scanProject(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get project %s: %w", id, err)
	}
	return p, nil
}

// GetProjects retrieves all projects ordered by creation time.
func (d *DB) GetProjects() ([]*model.Project, error) {
	rows, err := d.Query(`
		SELECT id, title, description, thumbnail_path, color, settings, created_at, updated_at
		FROM projects ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("get projects: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var projects []*model.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}
	return projects, nil
}

// DeleteProject removes a project and, via cascade, its boards.
// Deleting a non-existent project is not an error.
func (d *DB) DeleteProject(id string) error {
	_, err := d.Exec("DELETE FROM projects WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	return nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scan helpers.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (*model.Project, error) {
	var p model.Project
	var description, thumbnail, color, settings sql.NullString
	if err := row.Scan(&p.ID, &p.Title, &description, &thumbnail, &color,
		&settings, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Description = description.String
	p.ThumbnailPath = thumbnail.String
	p.Color = color.String
	p.Settings = settings.String
	return &p, nil
}

// nullable maps an empty string to NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
