package storage

import (
	"sort"
	"strings"
	"sync"

	"github.com/noureldenadel/notly/internal/db"
	"github.com/noureldenadel/notly/internal/model"
)

// MemoryBackend implements Gateway in process memory. It stands in for the
// browser-local structured store in sandboxed runtimes and backs tests.
// Safe for concurrent use.
type MemoryBackend struct {
	mu       sync.RWMutex
	projects map[string]model.Project
	boards   map[string]model.Board
	cards    map[string]model.Card
	files    map[string]model.FileEntry
	tags     map[string]model.Tag
	cardTags map[string]map[string]bool
	// searchText holds the indexed plain text per card id.
	searchText map[string]string
}

// NewMemoryBackend creates an empty in-memory gateway.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		projects:   make(map[string]model.Project),
		boards:     make(map[string]model.Board),
		cards:      make(map[string]model.Card),
		files:      make(map[string]model.FileEntry),
		tags:       make(map[string]model.Tag),
		cardTags:   make(map[string]map[string]bool),
		searchText: make(map[string]string),
	}
}

func (m *MemoryBackend) Init() error  { return nil }
func (m *MemoryBackend) Close() error { return nil }

func (m *MemoryBackend) GetProject(id string) (*model.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.projects[id]; ok {
		cp := p
		return &cp, nil
	}
	return nil, nil
}

func (m *MemoryBackend) GetProjects() ([]*model.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.Project, 0, len(m.projects))
	for _, p := range m.projects {
		cp := p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt < out[j].CreatedAt })
	return out, nil
}

func (m *MemoryBackend) SaveProject(p *model.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.CreatedAt == 0 {
		p.CreatedAt = model.NowMillis()
	}
	p.UpdatedAt = model.NowMillis()
	m.projects[p.ID] = *p
	return nil
}

func (m *MemoryBackend) DeleteProject(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.projects, id)
	// Cascade to owned boards, matching the database backend.
	for bid, b := range m.boards {
		if b.ProjectID == id {
			delete(m.boards, bid)
		}
	}
	return nil
}

func (m *MemoryBackend) GetBoard(id string) (*model.Board, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if b, ok := m.boards[id]; ok {
		cp := b
		return &cp, nil
	}
	return nil, nil
}

func (m *MemoryBackend) GetBoards(projectID string) ([]*model.Board, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.Board, 0)
	for _, b := range m.boards {
		if projectID != "" && b.ProjectID != projectID {
			continue
		}
		cp := b
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].CreatedAt < out[j].CreatedAt
	})
	return out, nil
}

func (m *MemoryBackend) SaveBoard(b *model.Board) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b.CreatedAt == 0 {
		b.CreatedAt = model.NowMillis()
	}
	b.UpdatedAt = model.NowMillis()
	m.boards[b.ID] = *b
	return nil
}

func (m *MemoryBackend) DeleteBoard(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.boards, id)
	return nil
}

func (m *MemoryBackend) GetCard(id string) (*model.Card, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if c, ok := m.cards[id]; ok {
		cp := c
		return &cp, nil
	}
	return nil, nil
}

func (m *MemoryBackend) GetCards() ([]*model.Card, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.Card, 0, len(m.cards))
	for _, c := range m.cards {
		cp := c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt < out[j].CreatedAt })
	return out, nil
}

func (m *MemoryBackend) SaveCard(c *model.Card, searchText string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
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
	m.cards[c.ID] = *c
	m.searchText[c.ID] = searchText
	return nil
}

func (m *MemoryBackend) DeleteCard(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.cards, id)
	delete(m.searchText, id)
	delete(m.cardTags, id)
	return nil
}

func (m *MemoryBackend) GetFiles() ([]*model.FileEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.FileEntry, 0, len(m.files))
	for _, f := range m.files {
		cp := f
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt < out[j].CreatedAt })
	return out, nil
}

func (m *MemoryBackend) SaveFile(f *model.FileEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if f.CreatedAt == 0 {
		f.CreatedAt = model.NowMillis()
	}
	f.UpdatedAt = model.NowMillis()
	if f.ImportMode == "" {
		f.ImportMode = "copy"
	}
	m.files[f.ID] = *f
	return nil
}

func (m *MemoryBackend) DeleteFile(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, id)
	return nil
}

func (m *MemoryBackend) GetTags() ([]*model.Tag, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.Tag, 0, len(m.tags))
	for _, t := range m.tags {
		cp := t
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].CreatedAt < out[j].CreatedAt
	})
	return out, nil
}

func (m *MemoryBackend) SaveTag(t *model.Tag) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.CreatedAt == 0 {
		t.CreatedAt = model.NowMillis()
	}
	m.tags[t.ID] = *t
	return nil
}

func (m *MemoryBackend) DeleteTag(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tags, id)
	for cardID := range m.cardTags {
		delete(m.cardTags[cardID], id)
	}
	return nil
}

func (m *MemoryBackend) TagCard(cardID, tagID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.cards[cardID]; !ok {
		return &notFoundError{entity: "card", id: cardID}
	}
	if _, ok := m.tags[tagID]; !ok {
		return &notFoundError{entity: "tag", id: tagID}
	}
	if m.cardTags[cardID] == nil {
		m.cardTags[cardID] = make(map[string]bool)
	}
	m.cardTags[cardID][tagID] = true
	return nil
}

func (m *MemoryBackend) UntagCard(cardID, tagID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.cardTags[cardID], tagID)
	return nil
}

func (m *MemoryBackend) CardTags(cardID string) ([]*model.Tag, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Tag
	for tagID := range m.cardTags[cardID] {
		if t, ok := m.tags[tagID]; ok {
			cp := t
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].CreatedAt < out[j].CreatedAt
	})
	return out, nil
}

func (m *MemoryBackend) SaveCanvasSnapshot(boardID, snapshot string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.boards[boardID]
	if !ok {
		return &notFoundError{entity: "board", id: boardID}
	}
	b.Snapshot = snapshot
	b.UpdatedAt = model.NowMillis()
	m.boards[boardID] = b
	return nil
}

func (m *MemoryBackend) LoadCanvasSnapshot(boardID string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if b, ok := m.boards[boardID]; ok {
		return b.Snapshot, nil
	}
	return "", nil
}

// SearchCards performs a case-insensitive substring match over the indexed
// text. The memory backend has no FTS engine; ranking is hit order.
func (m *MemoryBackend) SearchCards(query string) ([]db.CardMatch, error) {
	query = strings.TrimSpace(strings.ToLower(query))
	if query == "" {
		return nil, nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matches []db.CardMatch
	for id, text := range m.searchText {
		c := m.cards[id]
		haystack := strings.ToLower(c.Title + " " + text)
		if strings.Contains(haystack, query) {
			matches = append(matches, db.CardMatch{CardID: id, Title: c.Title, Snippet: snippetAround(text, query)})
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].CardID < matches[j].CardID })
	return matches, nil
}

func snippetAround(text, query string) string {
	idx := strings.Index(strings.ToLower(text), query)
	if idx < 0 {
		return ""
	}
	start := idx - 20
	if start < 0 {
		start = 0
	}
	end := idx + len(query) + 20
	if end > len(text) {
		end = len(text)
	}
	return text[start:end]
}

type notFoundError struct {
	entity string
	id     string
}

func (e *notFoundError) Error() string {
	return e.entity + " " + e.id + " not found"
}

var _ Gateway = (*MemoryBackend)(nil)
