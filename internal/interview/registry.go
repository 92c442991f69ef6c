package interview

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"careerpath/internal/backend"
	"careerpath/internal/domain"
)

const DefaultIdleTTL = 2 * time.Hour

// Registry holds live interviews keyed by id. Sessions idle longer than the
// TTL are dropped on the next Create.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	retry    backend.Policy
	logger   zerolog.Logger
	now      func() time.Time
}

func NewRegistry(ttl time.Duration, retry backend.Policy, logger zerolog.Logger) *Registry {
	if ttl <= 0 {
		ttl = DefaultIdleTTL
	}
	return &Registry{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		retry:    retry,
		logger:   logger,
		now:      time.Now,
	}
}

// Create registers a fresh, not yet started interview for ownerID.
func (r *Registry) Create(ownerID string) *Session {
	s := newSession(uuid.NewString(), ownerID, r.retry, r.logger)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweepLocked()
	r.sessions[s.id] = s
	return s
}

// Get returns the interview when it exists and belongs to ownerID.
func (r *Registry) Get(ownerID, id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok || s.ownerID != ownerID {
		return nil, domain.ErrSessionExpired
	}
	return s, nil
}

func (r *Registry) Remove(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *Registry) sweepLocked() {
	cutoff := r.now().Add(-r.ttl)
	for id, s := range r.sessions {
		if s.lastTouched().Before(cutoff) {
			delete(r.sessions, id)
		}
	}
}
