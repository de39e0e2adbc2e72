package db

import (
	"database/sql"
	"fmt"

	"github.com/noureldenadel/notly/internal/model"
)

// SaveFile creates or updates a file entry.
func (d *DB) SaveFile(f *model.FileEntry) error {
	if f.CreatedAt == 0 {
		f.CreatedAt = model.NowMillis()
	}
	f.UpdatedAt = model.NowMillis()
	if f.ImportMode == "" {
		f.ImportMode = "copy"
	}

	_, err := d.Exec(`
		INSERT INTO files (id, filename, file_path, file_type, file_size, mime_type, thumbnail_path, import_mode, metadata, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			filename = excluded.filename,
			file_path = excluded.file_path,
			file_type = excluded.file_type,
			file_size = excluded.file_size,
			mime_type = excluded.mime_type,
			thumbnail_path = excluded.thumbnail_path,
			import_mode = excluded.import_mode,
			metadata = excluded.metadata,
			updated_at = excluded.updated_at
	`, f.ID, f.Filename, f.FilePath, f.FileType, nullableInt64(f.FileSize),
		nullable(f.MimeType), nullable(f.ThumbnailPath), f.ImportMode,
		nullable(f.Metadata), f.CreatedAt, f.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save file: %w", err)
	}
	return nil
}

// GetFile retrieves a file entry by id. Returns nil, nil if absent.
func (d *DB) GetFile(id string) (*model.FileEntry, error) {
	row := d.QueryRow(`
		SELECT id, filename, file_path, file_type, file_size, mime_type, thumbnail_path, import_mode, metadata, created_at, updated_at
		FROM files WHERE id = ?
	`, id)

	f, err := scanFile(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get file %s: %w", id, err)
	}
	return f, nil
}

// GetFiles retrieves all file entries ordered by creation time.
func (d *DB) GetFiles() ([]*model.FileEntry, error) {
	rows, err := d.Query(`
		SELECT id, filename, file_path, file_type, file_size, mime_type, thumbnail_path, import_mode, metadata, created_at, updated_at
		FROM files ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("get files: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var files []*model.FileEntry
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		files = append(files, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate files: %w", err)
	}
	return files, nil
}

// DeleteFile removes a file entry. Deleting a non-existent entry is not an
// error.
func (d *DB) DeleteFile(id string) error {
	_, err := d.Exec("DELETE FROM files WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}

func scanFile(row rowScanner) (*model.FileEntry, error) {
	var f model.FileEntry
	var size sql.NullInt64
	var mime, thumbnail, metadata sql.NullString
	if err := row.Scan(&f.ID, &f.Filename, &f.FilePath, &f.FileType, &size,
		&mime, &thumbnail, &f.ImportMode, &metadata, &f.CreatedAt, &f.UpdatedAt); err != nil {
		return nil, err
	}
	f.FileSize = size.Int64
	f.MimeType = mime.String
	f.ThumbnailPath = thumbnail.String
	f.Metadata = metadata.String
	return &f, nil
}

func nullableInt64(v int64) any {
	if v == 0 {
		return nil
	}
	return v
}
