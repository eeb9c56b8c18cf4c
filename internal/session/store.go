package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/medconnect/agent/internal/domain"
	"github.com/patrickmn/go-cache"
)

// entry pairs a session with the mutex that serializes its turns
type entry struct {
	mu   sync.Mutex
	sess *domain.Session
}

// Store is the in-memory session arena. Sessions are keyed by id and
// evicted after the idle TTL. Acquire serializes turn processing per
// session: two utterances for the same session never interleave.
type Store struct {
	cache   *cache.Cache
	mu      sync.Mutex
	idleTTL time.Duration
}

// NewStore creates a session store with idle-based eviction
func NewStore(idleTTL time.Duration) *Store {
	if idleTTL <= 0 {
		idleTTL = 30 * time.Minute
	}
	return &Store{
		cache:   cache.New(idleTTL, 10*time.Minute),
		idleTTL: idleTTL,
	}
}

// Acquire returns the session for id with its turn lock held; the
// returned release func must be called when the turn finishes. A nil or
// unknown id yields a fresh session.
func (s *Store) Acquire(id uuid.UUID) (*domain.Session, func()) {
	s.mu.Lock()
	var e *entry
	if id != uuid.Nil {
		if x, found := s.cache.Get(id.String()); found {
			e = x.(*entry)
		}
	}
	if e == nil {
		e = &entry{sess: domain.NewSession()}
		s.cache.Set(e.sess.ID.String(), e, cache.DefaultExpiration)
	}
	s.mu.Unlock()

	e.mu.Lock()
	release := func() {
		// Refresh the idle TTL on every completed turn
		s.cache.Set(e.sess.ID.String(), e, cache.DefaultExpiration)
		e.mu.Unlock()
	}
	return e.sess, release
}

// Snapshot returns a copy of the session for read-only presentation
func (s *Store) Snapshot(id uuid.UUID) (*domain.Session, bool) {
	x, found := s.cache.Get(id.String())
	if !found {
		return nil, false
	}
	e := x.(*entry)

	e.mu.Lock()
	defer e.mu.Unlock()

	copied := *e.sess
	copied.Slots = e.sess.Slots.Clone()
	copied.Turns = append([]domain.Turn(nil), e.sess.Turns...)
	return &copied, true
}

// Delete ends a session immediately
func (s *Store) Delete(id uuid.UUID) {
	s.cache.Delete(id.String())
}

// Len returns the number of live sessions
func (s *Store) Len() int {
	return s.cache.ItemCount()
}
