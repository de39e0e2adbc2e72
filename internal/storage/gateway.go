// Package storage provides the persistence gateway abstraction for notly.
// Two backends implement one CRUD contract: the embedded sqlite database
// and an in-memory store for sandboxed runtimes and tests.
package storage

import (
	"github.com/noureldenadel/notly/internal/db"
	"github.com/noureldenadel/notly/internal/model"
)

// Gateway is the uniform persistence contract consumed by the core.
//
// Save* is an upsert keyed by id. Delete* is idempotent: deleting a
// non-existent id is not an error. Get* never returns partially
// constructed entities; a missing entity is nil with no error.
type Gateway interface {
	Init() error

	GetProject(id string) (*model.Project, error)
	GetProjects() ([]*model.Project, error)
	SaveProject(p *model.Project) error
	DeleteProject(id string) error

	GetBoard(id string) (*model.Board, error)
	GetBoards(projectID string) ([]*model.Board, error)
	SaveBoard(b *model.Board) error
	DeleteBoard(id string) error

	GetCard(id string) (*model.Card, error)
	GetCards() ([]*model.Card, error)
	// SaveCard upserts the card; searchText is the plain-text rendering
	// used for the search index (empty falls back to the raw content).
	SaveCard(c *model.Card, searchText string) error
	DeleteCard(id string) error

	GetFiles() ([]*model.FileEntry, error)
	SaveFile(f *model.FileEntry) error
	DeleteFile(id string) error

	GetTags() ([]*model.Tag, error)
	SaveTag(t *model.Tag) error
	DeleteTag(id string) error
	// TagCard links a tag to a card; linking twice is not an error.
	// Both the card and the tag must exist.
	TagCard(cardID, tagID string) error
	UntagCard(cardID, tagID string) error
	CardTags(cardID string) ([]*model.Tag, error)

	SaveCanvasSnapshot(boardID, snapshot string) error
	// LoadCanvasSnapshot returns "" with no error when the board has no
	// snapshot or does not exist.
	LoadCanvasSnapshot(boardID string) (string, error)

	SearchCards(query string) ([]db.CardMatch, error)

	Close() error
}
