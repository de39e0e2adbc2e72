// Package workspace is the application service over the persistence
// gateway. It keeps an in-memory view of the workspace entities, applies
// mutations optimistically, and reconciles with the gateway: a rejected
// write restores the captured pre-mutation state and logs the failure.
// No write is retried automatically.
package workspace

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/noureldenadel/notly/internal/asset"
	"github.com/noureldenadel/notly/internal/bundle"
	"github.com/noureldenadel/notly/internal/cardtext"
	"github.com/noureldenadel/notly/internal/db"
	"github.com/noureldenadel/notly/internal/errors"
	"github.com/noureldenadel/notly/internal/model"
	"github.com/noureldenadel/notly/internal/snapshot"
	"github.com/noureldenadel/notly/internal/storage"
)

// Service owns the live workspace state. All access goes through its
// methods; the zero value is not usable, construct with NewService.
type Service struct {
	gateway   storage.Gateway
	assets    asset.Store
	converter *cardtext.Converter
	resolver  *snapshot.Resolver
	saver     *SnapshotSaver

	mu       sync.Mutex
	projects map[string]*model.Project
	boards   map[string]*model.Board
	cards    map[string]*model.Card
}

// NewService builds a workspace over the gateway. debounce is the quiet
// period for snapshot autosave.
func NewService(gateway storage.Gateway, assets asset.Store, debounce time.Duration) *Service {
	return &Service{
		gateway:   gateway,
		assets:    assets,
		converter: cardtext.NewConverter(),
		resolver:  snapshot.NewResolver(assets),
		saver:     NewSnapshotSaver(gateway, debounce),
		projects:  make(map[string]*model.Project),
		boards:    make(map[string]*model.Board),
		cards:     make(map[string]*model.Card),
	}
}

// Close flushes any pending snapshot saves. The service must not be
// used after Close.
func (s *Service) Close() {
	s.saver.Close()
}

// Load populates the in-memory view from the gateway. Call once at
// startup, before any mutation.
func (s *Service) Load() error {
	projects, err := s.gateway.GetProjects()
	if err != nil {
		return err
	}
	cards, err := s.gateway.GetCards()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range projects {
		s.projects[p.ID] = p
		boards, err := s.gateway.GetBoards(p.ID)
		if err != nil {
			return err
		}
		for _, b := range boards {
			s.boards[b.ID] = b
		}
	}
	for _, c := range cards {
		s.cards[c.ID] = c
	}
	return nil
}

// Projects returns the projects in the in-memory view.
func (s *Service) Projects() []*model.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*model.Project, 0, len(s.projects))
	for _, p := range s.projects {
		cp := *p
		out = append(out, &cp)
	}
	return out
}

// Project returns one project, or nil when unknown.
func (s *Service) Project(id string) *model.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.projects[id]; ok {
		cp := *p
		return &cp
	}
	return nil
}

// CreateProject creates and persists a new project.
func (s *Service) CreateProject(title, description, color string) (*model.Project, error) {
	now := model.NowMillis()
	p := &model.Project{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		Color:       color,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	s.mu.Lock()
	s.projects[p.ID] = p
	s.mu.Unlock()

	if err := s.gateway.SaveProject(p); err != nil {
		s.mu.Lock()
		delete(s.projects, p.ID)
		s.mu.Unlock()
		slog.Error("project create rolled back", "project", p.ID, "error", err)
		return nil, err
	}
	cp := *p
	return &cp, nil
}

// UpdateProject applies an edit to a project and persists it. The edit
// callback receives the project to mutate in place.
func (s *Service) UpdateProject(id string, edit func(*model.Project)) (*model.Project, error) {
	s.mu.Lock()
	p, ok := s.projects[id]
	if !ok {
		s.mu.Unlock()
		return nil, errors.ErrProjectNotFound(id)
	}
	prev := *p
	edit(p)
	p.ID = prev.ID
	p.CreatedAt = prev.CreatedAt
	p.UpdatedAt = model.NowMillis()
	cp := *p
	s.mu.Unlock()

	if err := s.gateway.SaveProject(&cp); err != nil {
		s.mu.Lock()
		s.projects[id] = &prev
		s.mu.Unlock()
		slog.Error("project update rolled back", "project", id, "error", err)
		return nil, err
	}
	return &cp, nil
}

// DeleteProject removes a project and its boards. Idempotent: deleting an
// unknown id is a no-op.
func (s *Service) DeleteProject(id string) error {
	s.mu.Lock()
	prev, existed := s.projects[id]
	var prevBoards []*model.Board
	if existed {
		delete(s.projects, id)
		for boardID, b := range s.boards {
			if b.ProjectID == id {
				prevBoards = append(prevBoards, b)
				delete(s.boards, boardID)
			}
		}
	}
	s.mu.Unlock()

	if !existed {
		return nil
	}

	if err := s.gateway.DeleteProject(id); err != nil {
		s.mu.Lock()
		s.projects[id] = prev
		for _, b := range prevBoards {
			s.boards[b.ID] = b
		}
		s.mu.Unlock()
		slog.Error("project delete rolled back", "project", id, "error", err)
		return err
	}
	return nil
}

// Boards returns the in-memory boards of one project.
func (s *Service) Boards(projectID string) []*model.Board {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.Board
	for _, b := range s.boards {
		if b.ProjectID == projectID {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out
}

// checkParentLocked verifies that parentID can be the parent of boardID
// inside projectID: the parent must exist and live in the same project,
// and a board cannot parent itself. Caller holds s.mu.
func (s *Service) checkParentLocked(projectID, boardID, parentID string) error {
	if parentID == "" {
		return nil
	}
	if parentID == boardID {
		return errors.ErrBoardParentInvalid(boardID, parentID, "A board cannot be its own parent")
	}
	parent, ok := s.boards[parentID]
	if !ok {
		return errors.ErrBoardParentInvalid(boardID, parentID, "No board with this ID exists in the workspace")
	}
	if parent.ProjectID != projectID {
		return errors.ErrBoardParentInvalid(boardID, parentID, "The parent board belongs to a different project")
	}
	return nil
}

// CreateBoard creates and persists a new board in a project.
func (s *Service) CreateBoard(projectID, parentBoardID, title string) (*model.Board, error) {
	s.mu.Lock()
	if _, ok := s.projects[projectID]; !ok {
		s.mu.Unlock()
		return nil, errors.ErrProjectNotFound(projectID)
	}
	if err := s.checkParentLocked(projectID, "", parentBoardID); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	position := 0
	for _, b := range s.boards {
		if b.ProjectID == projectID && b.Position >= position {
			position = b.Position + 1
		}
	}
	now := model.NowMillis()
	b := &model.Board{
		ID:            uuid.NewString(),
		ProjectID:     projectID,
		ParentBoardID: parentBoardID,
		Title:         title,
		Position:      position,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	s.boards[b.ID] = b
	s.mu.Unlock()

	if err := s.gateway.SaveBoard(b); err != nil {
		s.mu.Lock()
		delete(s.boards, b.ID)
		s.mu.Unlock()
		slog.Error("board create rolled back", "board", b.ID, "error", err)
		return nil, err
	}
	cp := *b
	return &cp, nil
}

// UpdateBoard applies an edit to a board and persists it.
func (s *Service) UpdateBoard(id string, edit func(*model.Board)) (*model.Board, error) {
	s.mu.Lock()
	b, ok := s.boards[id]
	if !ok {
		s.mu.Unlock()
		return nil, errors.ErrBoardNotFound(id)
	}
	prev := *b
	edit(b)
	b.ID = prev.ID
	b.ProjectID = prev.ProjectID
	b.CreatedAt = prev.CreatedAt
	b.UpdatedAt = model.NowMillis()
	if err := s.checkParentLocked(b.ProjectID, b.ID, b.ParentBoardID); err != nil {
		*b = prev
		s.mu.Unlock()
		return nil, err
	}
	cp := *b
	s.mu.Unlock()

	if err := s.gateway.SaveBoard(&cp); err != nil {
		s.mu.Lock()
		s.boards[id] = &prev
		s.mu.Unlock()
		slog.Error("board update rolled back", "board", id, "error", err)
		return nil, err
	}
	return &cp, nil
}

// DeleteBoard removes a board. Idempotent.
func (s *Service) DeleteBoard(id string) error {
	s.mu.Lock()
	prev, existed := s.boards[id]
	if existed {
		delete(s.boards, id)
	}
	s.mu.Unlock()

	if !existed {
		return nil
	}

	if err := s.gateway.DeleteBoard(id); err != nil {
		s.mu.Lock()
		s.boards[id] = prev
		s.mu.Unlock()
		slog.Error("board delete rolled back", "board", id, "error", err)
		return err
	}
	return nil
}

// Cards returns the in-memory cards.
func (s *Service) Cards() []*model.Card {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*model.Card, 0, len(s.cards))
	for _, c := range s.cards {
		cp := *c
		out = append(out, &cp)
	}
	return out
}

// CreateCard creates and persists a new card. The word count and search
// text are derived from the content.
func (s *Service) CreateCard(title, content string) (*model.Card, error) {
	now := model.NowMillis()
	c := &model.Card{
		ID:          uuid.NewString(),
		Title:       title,
		Content:     content,
		ContentType: model.DefaultContentType,
		WordCount:   cardtext.WordCount(content),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	s.mu.Lock()
	s.cards[c.ID] = c
	s.mu.Unlock()

	if err := s.gateway.SaveCard(c, cardtext.SearchText(content)); err != nil {
		s.mu.Lock()
		delete(s.cards, c.ID)
		s.mu.Unlock()
		slog.Error("card create rolled back", "card", c.ID, "error", err)
		return nil, err
	}
	cp := *c
	return &cp, nil
}

// UpdateCard applies an edit to a card, recomputes the derived word
// count, and persists it.
func (s *Service) UpdateCard(id string, edit func(*model.Card)) (*model.Card, error) {
	s.mu.Lock()
	c, ok := s.cards[id]
	if !ok {
		s.mu.Unlock()
		return nil, errors.ErrCardNotFound(id)
	}
	prev := *c
	edit(c)
	c.ID = prev.ID
	c.CreatedAt = prev.CreatedAt
	c.WordCount = cardtext.WordCount(c.Content)
	c.UpdatedAt = model.NowMillis()
	cp := *c
	s.mu.Unlock()

	if err := s.gateway.SaveCard(&cp, cardtext.SearchText(cp.Content)); err != nil {
		s.mu.Lock()
		s.cards[id] = &prev
		s.mu.Unlock()
		slog.Error("card update rolled back", "card", id, "error", err)
		return nil, err
	}
	return &cp, nil
}

// DeleteCard removes a card. Idempotent. Board snapshots referencing the
// card keep their embedded id; the reference simply stops resolving.
func (s *Service) DeleteCard(id string) error {
	s.mu.Lock()
	prev, existed := s.cards[id]
	if existed {
		delete(s.cards, id)
	}
	s.mu.Unlock()

	if !existed {
		return nil
	}

	if err := s.gateway.DeleteCard(id); err != nil {
		s.mu.Lock()
		s.cards[id] = prev
		s.mu.Unlock()
		slog.Error("card delete rolled back", "card", id, "error", err)
		return err
	}
	return nil
}

// Board returns one board, or nil when unknown.
func (s *Service) Board(id string) *model.Board {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.boards[id]; ok {
		cp := *b
		return &cp
	}
	return nil
}

// BoardSnapshot returns a board's persisted snapshot with its asset
// sources resolved against the live asset store, so references stay
// valid after the data directory moves. Returns "" when the board has
// no snapshot; a snapshot that does not parse is returned as stored.
func (s *Service) BoardSnapshot(boardID string) (string, error) {
	snap, err := s.gateway.LoadCanvasSnapshot(boardID)
	if err != nil || snap == "" {
		return snap, err
	}

	doc, err := snapshot.Decode(snap)
	if err != nil {
		slog.Warn("board snapshot did not parse, returning it as stored",
			"board", boardID, "error", err)
		return snap, nil
	}
	if !s.resolver.ResolveAssets(doc) {
		return snap, nil
	}
	resolved, err := doc.Encode()
	if err != nil {
		slog.Warn("resolved snapshot did not serialize, returning it as stored",
			"board", boardID, "error", err)
		return snap, nil
	}
	return resolved, nil
}

// ScheduleSnapshot queues a canvas snapshot for debounced persistence.
// Successive calls for the same board within the quiet period coalesce
// into one write. Close or FlushSnapshot force the write through.
func (s *Service) ScheduleSnapshot(boardID, snap string) error {
	s.mu.Lock()
	_, ok := s.boards[boardID]
	s.mu.Unlock()
	if !ok {
		return errors.ErrBoardNotFound(boardID)
	}
	if _, err := snapshot.Decode(snap); err != nil {
		return err
	}
	s.saver.Schedule(boardID, snap)
	return nil
}

// FlushSnapshot persists a board's pending snapshot immediately.
func (s *Service) FlushSnapshot(boardID string) {
	s.saver.Flush(boardID)
}

// BoardCards returns the cards referenced by a board's snapshot, scanned
// from the raw snapshot string without a full structural parse.
func (s *Service) BoardCards(boardID string) ([]*model.Card, error) {
	snap, err := s.gateway.LoadCanvasSnapshot(boardID)
	if err != nil {
		return nil, err
	}
	if snap == "" {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.Card
	for _, id := range snapshot.ScanCardIDs(snap) {
		if c, ok := s.cards[id]; ok {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

// Tags returns all workspace tags.
func (s *Service) Tags() ([]*model.Tag, error) {
	return s.gateway.GetTags()
}

// CreateTag creates and persists a workspace tag.
func (s *Service) CreateTag(name, color string) (*model.Tag, error) {
	t := &model.Tag{
		ID:        uuid.NewString(),
		Name:      name,
		Color:     color,
		CreatedAt: model.NowMillis(),
	}
	if err := s.gateway.SaveTag(t); err != nil {
		return nil, err
	}
	return t, nil
}

// DeleteTag removes a tag. Idempotent.
func (s *Service) DeleteTag(id string) error {
	return s.gateway.DeleteTag(id)
}

// TagCard attaches a tag to a card. Attaching twice is not an error.
func (s *Service) TagCard(cardID, tagID string) error {
	return s.gateway.TagCard(cardID, tagID)
}

// UntagCard detaches a tag from a card. Idempotent.
func (s *Service) UntagCard(cardID, tagID string) error {
	return s.gateway.UntagCard(cardID, tagID)
}

// CardTags returns the tags attached to a card.
func (s *Service) CardTags(cardID string) ([]*model.Tag, error) {
	return s.gateway.CardTags(cardID)
}

// SearchCards runs a full-text query over card titles and content.
func (s *Service) SearchCards(query string) ([]db.CardMatch, error) {
	return s.gateway.SearchCards(query)
}

// CardMarkdown renders a card's content as markdown.
func (s *Service) CardMarkdown(id string) (string, error) {
	s.mu.Lock()
	c, ok := s.cards[id]
	s.mu.Unlock()
	if !ok {
		return "", errors.ErrCardNotFound(id)
	}
	return s.converter.Markdown(c.Content)
}

// ExportProject writes a project's bundle archive to path.
func (s *Service) ExportProject(projectID, path, appVersion string) (*bundle.Manifest, error) {
	return bundle.NewExporter(s.gateway, s.assets, appVersion).ExportToFile(projectID, path)
}

// ImportBundle imports a bundle archive and refreshes the in-memory view
// with the created entities. Returns the new project id.
func (s *Service) ImportBundle(path string) (string, error) {
	projectID, err := bundle.NewImporter(s.gateway, s.assets).ImportFile(path)
	if err != nil {
		return "", err
	}

	project, err := s.gateway.GetProject(projectID)
	if err != nil {
		return "", err
	}
	boards, err := s.gateway.GetBoards(projectID)
	if err != nil {
		return "", err
	}
	cards, err := s.gateway.GetCards()
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	if project != nil {
		s.projects[project.ID] = project
	}
	for _, b := range boards {
		s.boards[b.ID] = b
	}
	for _, c := range cards {
		if _, known := s.cards[c.ID]; !known {
			s.cards[c.ID] = c
		}
	}
	s.mu.Unlock()
	return projectID, nil
}
