package conversation

import (
	"context"
	"sync"
	"time"
)

// DefaultWindowSize is the number of turns kept per user.
const DefaultWindowSize = 10

// Turn is one entry of a user's recent dialogue.
type Turn struct {
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Window is a bounded per-user turn log. Appends beyond the capacity evict
// the oldest turn; Recent returns turns oldest first.
type Window interface {
	Append(ctx context.Context, userID string, turn Turn) error
	Recent(ctx context.Context, userID string, n int) ([]Turn, error)
}

// MemoryWindow is a process-local ring buffer.
type MemoryWindow struct {
	mu    sync.Mutex
	size  int
	turns map[string][]Turn
}

func NewMemoryWindow(size int) *MemoryWindow {
	if size <= 0 {
		size = DefaultWindowSize
	}
	return &MemoryWindow{size: size, turns: make(map[string][]Turn)}
}

func (w *MemoryWindow) Append(_ context.Context, userID string, turn Turn) error {
	if turn.Timestamp.IsZero() {
		turn.Timestamp = time.Now().UTC()
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	list := append(w.turns[userID], turn)
	if over := len(list) - w.size; over > 0 {
		list = append([]Turn(nil), list[over:]...)
	}
	w.turns[userID] = list
	return nil
}

func (w *MemoryWindow) Recent(_ context.Context, userID string, n int) ([]Turn, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	list := w.turns[userID]
	if n > 0 && len(list) > n {
		list = list[len(list)-n:]
	}
	return append([]Turn(nil), list...), nil
}
