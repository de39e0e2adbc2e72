package storage

import (
	"fmt"

	"github.com/noureldenadel/notly/internal/db"
	"github.com/noureldenadel/notly/internal/model"
)

// DatabaseBackend implements Gateway over the embedded sqlite database.
// The connection is opened lazily on first use and reused; a backend whose
// connection was closed re-acquires it transparently.
type DatabaseBackend struct {
	path string
	d    *db.DB
}

// NewDatabaseBackend creates a sqlite-backed gateway for the given
// database path. The connection opens on Init or first use.
func NewDatabaseBackend(path string) *DatabaseBackend {
	return &DatabaseBackend{path: path}
}

// Init opens the database connection and applies migrations.
func (b *DatabaseBackend) Init() error {
	_, err := b.conn()
	return err
}

// conn returns the open handle, opening it if needed.
func (b *DatabaseBackend) conn() (*db.DB, error) {
	if b.d != nil {
		return b.d, nil
	}
	d, err := db.Open(b.path)
	if err != nil {
		return nil, fmt.Errorf("open workspace db: %w", err)
	}
	b.d = d
	return d, nil
}

// Close releases the database handle. The backend may be reused; the next
// call re-opens the connection.
func (b *DatabaseBackend) Close() error {
	if b.d == nil {
		return nil
	}
	err := b.d.Close()
	b.d = nil
	return err
}

func (b *DatabaseBackend) GetProject(id string) (*model.Project, error) {
	d, err := b.conn()
	if err != nil {
		return nil, err
	}
	return d.GetProject(id)
}

func (b *DatabaseBackend) GetProjects() ([]*model.Project, error) {
	d, err := b.conn()
	if err != nil {
		return nil, err
	}
	return d.GetProjects()
}

func (b *DatabaseBackend) SaveProject(p *model.Project) error {
	d, err := b.conn()
	if err != nil {
		return err
	}
	return d.SaveProject(p)
}

func (b *DatabaseBackend) DeleteProject(id string) error {
	d, err := b.conn()
	if err != nil {
		return err
	}
	return d.DeleteProject(id)
}

func (b *DatabaseBackend) GetBoard(id string) (*model.Board, error) {
	d, err := b.conn()
	if err != nil {
		return nil, err
	}
	return d.GetBoard(id)
}

func (b *DatabaseBackend) GetBoards(projectID string) ([]*model.Board, error) {
	d, err := b.conn()
	if err != nil {
		return nil, err
	}
	return d.GetBoards(projectID)
}

func (b *DatabaseBackend) SaveBoard(board *model.Board) error {
	d, err := b.conn()
	if err != nil {
		return err
	}
	return d.SaveBoard(board)
}

func (b *DatabaseBackend) DeleteBoard(id string) error {
	d, err := b.conn()
	if err != nil {
		return err
	}
	return d.DeleteBoard(id)
}

func (b *DatabaseBackend) GetCard(id string) (*model.Card, error) {
	d, err := b.conn()
	if err != nil {
		return nil, err
	}
	return d.GetCard(id)
}

func (b *DatabaseBackend) GetCards() ([]*model.Card, error) {
	d, err := b.conn()
	if err != nil {
		return nil, err
	}
	return d.GetCards()
}

func (b *DatabaseBackend) SaveCard(c *model.Card, searchText string) error {
	d, err := b.conn()
	if err != nil {
		return err
	}
	return d.SaveCard(c, searchText)
}

func (b *DatabaseBackend) DeleteCard(id string) error {
	d, err := b.conn()
	if err != nil {
		return err
	}
	return d.DeleteCard(id)
}

func (b *DatabaseBackend) GetFiles() ([]*model.FileEntry, error) {
	d, err := b.conn()
	if err != nil {
		return nil, err
	}
	return d.GetFiles()
}

func (b *DatabaseBackend) SaveFile(f *model.FileEntry) error {
	d, err := b.conn()
	if err != nil {
		return err
	}
	return d.SaveFile(f)
}

func (b *DatabaseBackend) DeleteFile(id string) error {
	d, err := b.conn()
	if err != nil {
		return err
	}
	return d.DeleteFile(id)
}

func (b *DatabaseBackend) GetTags() ([]*model.Tag, error) {
	d, err := b.conn()
	if err != nil {
		return nil, err
	}
	return d.GetTags()
}

func (b *DatabaseBackend) SaveTag(t *model.Tag) error {
	d, err := b.conn()
	if err != nil {
		return err
	}
	return d.SaveTag(t)
}

func (b *DatabaseBackend) DeleteTag(id string) error {
	d, err := b.conn()
	if err != nil {
		return err
	}
	return d.DeleteTag(id)
}

func (b *DatabaseBackend) TagCard(cardID, tagID string) error {
	d, err := b.conn()
	if err != nil {
		return err
	}
	return d.TagCard(cardID, tagID)
}

func (b *DatabaseBackend) UntagCard(cardID, tagID string) error {
	d, err := b.conn()
	if err != nil {
		return err
	}
	return d.UntagCard(cardID, tagID)
}

func (b *DatabaseBackend) CardTags(cardID string) ([]*model.Tag, error) {
	d, err := b.conn()
	if err != nil {
		return nil, err
	}
	return d.CardTags(cardID)
}

func (b *DatabaseBackend) SaveCanvasSnapshot(boardID, snapshot string) error {
	d, err := b.conn()
	if err != nil {
		return err
	}
	return d.SaveCanvasSnapshot(boardID, snapshot)
}

func (b *DatabaseBackend) LoadCanvasSnapshot(boardID string) (string, error) {
	d, err := b.conn()
	if err != nil {
		return "", err
	}
	return d.LoadCanvasSnapshot(boardID)
}

func (b *DatabaseBackend) SearchCards(query string) ([]db.CardMatch, error) {
	d, err := b.conn()
	if err != nil {
		return nil, err
	}
	return d.SearchCards(query)
}

var _ Gateway = (*DatabaseBackend)(nil)
