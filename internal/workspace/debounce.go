package workspace

import (
	"log/slog"
	"sync"
	"time"

	"github.com/noureldenadel/notly/internal/storage"
)

// SnapshotSaver coalesces rapid canvas edits into periodic snapshot
// writes. Each board gets its own timer; a new snapshot for a board that
// already has a pending write replaces the pending payload and restarts
// the delay. Owned by the composition root, never a package-level
// singleton.
type SnapshotSaver struct {
	gateway storage.Gateway
	delay   time.Duration

	mu      sync.Mutex
	timers  map[string]*time.Timer
	pending map[string]string
	closed  bool
}

func NewSnapshotSaver(gateway storage.Gateway, delay time.Duration) *SnapshotSaver {
	return &SnapshotSaver{
		gateway: gateway,
		delay:   delay,
		timers:  make(map[string]*time.Timer),
		pending: make(map[string]string),
	}
}

// Schedule queues a snapshot write for a board, replacing any pending
// write for the same board and restarting its delay.
func (s *SnapshotSaver) Schedule(boardID, snapshot string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.pending[boardID] = snapshot
	if t, ok := s.timers[boardID]; ok {
		t.Stop()
	}
	s.timers[boardID] = time.AfterFunc(s.delay, func() { s.flush(boardID) })
}

// Flush writes a board's pending snapshot immediately, if any.
func (s *SnapshotSaver) Flush(boardID string) {
	s.mu.Lock()
	if t, ok := s.timers[boardID]; ok {
		t.Stop()
	}
	s.mu.Unlock()
	s.flush(boardID)
}

// Close writes every pending snapshot and stops all timers. The saver
// accepts no further work afterwards.
func (s *SnapshotSaver) Close() {
	s.mu.Lock()
	s.closed = true
	var boardIDs []string
	for boardID, t := range s.timers {
		t.Stop()
		boardIDs = append(boardIDs, boardID)
	}
	for boardID := range s.pending {
		boardIDs = append(boardIDs, boardID)
	}
	s.mu.Unlock()

	seen := make(map[string]bool)
	for _, boardID := range boardIDs {
		if !seen[boardID] {
			seen[boardID] = true
			s.flush(boardID)
		}
	}
}

func (s *SnapshotSaver) flush(boardID string) {
	s.mu.Lock()
	snap, ok := s.pending[boardID]
	if ok {
		delete(s.pending, boardID)
		delete(s.timers, boardID)
	}
	s.mu.Unlock()
	if !ok {
		return
	}

	if err := s.gateway.SaveCanvasSnapshot(boardID, snap); err != nil {
		slog.Error("snapshot autosave failed", "board", boardID, "error", err)
	}
}
