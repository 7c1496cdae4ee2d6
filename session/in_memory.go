package session

import (
	"slices"
	"sync"

	"github.com/hupe1980/hassmesh/core"
)

// Store persists conversation contents keyed by session ID.
type Store interface {
	// History returns a copy of the stored contents, empty for unknown IDs.
	History(sessionID string) ([]core.Content, error)
	// Save replaces the stored contents for sessionID.
	Save(sessionID string, contents []core.Content) error
	// Delete forgets sessionID.
	Delete(sessionID string) error
}

// Options configures an InMemoryStore.
type Options struct {
	// MaxContents bounds the history kept per session; older entries are
	// dropped first. 0 keeps everything.
	MaxContents int
}

// InMemoryStore is a volatile Store backed by a process local map. It is
// safe for concurrent access. Returned and stored slices are cloned.
type InMemoryStore struct {
	mu          sync.RWMutex
	sessions    map[string][]core.Content
	maxContents int
}

var _ Store = (*InMemoryStore)(nil)

// NewInMemoryStore constructs an empty in-memory store.
func NewInMemoryStore(optFns ...func(o *Options)) *InMemoryStore {
	opts := Options{MaxContents: 40}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &InMemoryStore{
		sessions:    make(map[string][]core.Content),
		maxContents: opts.MaxContents,
	}
}

// History implements Store.
func (s *InMemoryStore) History(sessionID string) ([]core.Content, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.sessions[sessionID]), nil
}

// Save implements Store. Histories longer than MaxContents are trimmed, see
// trim.
func (s *InMemoryStore) Save(sessionID string, contents []core.Content) error {
	contents = trim(contents, s.maxContents)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[sessionID] = slices.Clone(contents)

	return nil
}

// trim keeps the newest max contents, moved to start at a user turn so the
// window never opens with a dangling tool call or tool result. When the
// newest max contents hold no user turn, the window grows back to the last
// user turn before the cut; without any user turn the plain tail is kept.
func trim(contents []core.Content, max int) []core.Content {
	if max <= 0 || len(contents) <= max {
		return contents
	}

	cut := len(contents) - max

	for i := cut; i < len(contents); i++ {
		if contents[i].Role == core.RoleUser {
			return contents[i:]
		}
	}

	for i := cut - 1; i >= 0; i-- {
		if contents[i].Role == core.RoleUser {
			return contents[i:]
		}
	}

	return contents[cut:]
}

// Delete implements Store.
func (s *InMemoryStore) Delete(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, sessionID)

	return nil
}

// Len returns the number of stored sessions.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.sessions)
}
