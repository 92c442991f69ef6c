package identity

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"careerpath/internal/backend"
	"careerpath/internal/domain"
)

// UserCacheTTL bounds how long a user record is served without a refresh.
const UserCacheTTL = time.Hour

type cachedUser struct {
	user   domain.User
	stored time.Time
}

// UserCache holds the last user record read for each identity. It is written
// only by Session.Refresh; concurrent refreshes are last-writer-wins. Entries
// older than the TTL are ignored and swept on the next Put.
type UserCache struct {
	mu        sync.RWMutex
	users     map[string]cachedUser
	ttl       time.Duration
	lastSweep time.Time
	now       func() time.Time
}

func NewUserCache() *UserCache {
	return &UserCache{users: make(map[string]cachedUser), ttl: UserCacheTTL, now: time.Now}
}

func (c *UserCache) Get(userID string) (domain.User, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.users[userID]
	if !ok || c.now().Sub(e.stored) > c.ttl {
		return domain.User{}, false
	}
	return e.user, true
}

func (c *UserCache) Put(userID string, u domain.User) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	if now.Sub(c.lastSweep) >= c.ttl {
		c.lastSweep = now
		for id, e := range c.users {
			if now.Sub(e.stored) > c.ttl {
				delete(c.users, id)
			}
		}
	}
	c.users[userID] = cachedUser{user: u, stored: now}
}

func (c *UserCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.users)
}

func (c *UserCache) Delete(userID string) {
	c.mu.Lock()
	delete(c.users, userID)
	c.mu.Unlock()
}

// Session is the explicit per-request handle on the signed-in user: token
// accessor, authenticated fetch and the cached user record.
type Session struct {
	identity Identity
	api      *backend.Client
	cache    *UserCache
}

func NewSession(id Identity, api *backend.Client, cache *UserCache) *Session {
	s := &Session{identity: id, cache: cache}
	s.api = api.WithTokens(s)
	return s
}

func (s *Session) Identity() Identity { return s.identity }

func (s *Session) UserID() string { return s.identity.UserID }

// Token implements backend.TokenSource.
func (s *Session) Token(context.Context) (string, error) {
	if s.identity.Token == "" {
		return "", ErrNoToken
	}
	if !s.identity.ExpiresAt.IsZero() && time.Now().After(s.identity.ExpiresAt) {
		return "", errors.New("session token expired")
	}
	return s.identity.Token, nil
}

// API is the backend client bound to this session's token.
func (s *Session) API() *backend.Client { return s.api }

// Fetch is the authenticated fetch helper for endpoints without a typed call.
func (s *Session) Fetch(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Response, error) {
	return s.api.Fetch(ctx, method, path, body, contentType)
}

// User returns the cached user, loading it on first use.
func (s *Session) User(ctx context.Context) (*domain.User, error) {
	if u, ok := s.cache.Get(s.identity.UserID); ok {
		return &u, nil
	}
	return s.Refresh(ctx)
}

// Refresh re-reads the user from the backend and replaces the cached copy.
func (s *Session) Refresh(ctx context.Context) (*domain.User, error) {
	u, err := s.api.Me(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.Put(s.identity.UserID, *u)
	return u, nil
}

// Forget drops the cached user, used on sign out.
func (s *Session) Forget() {
	s.cache.Delete(s.identity.UserID)
}

// CreatedAt is the account creation time from the token, falling back to the
// backend record. The zero time means unknown.
func (s *Session) CreatedAt(u *domain.User) time.Time {
	if !s.identity.CreatedAt.IsZero() {
		return s.identity.CreatedAt
	}
	if u != nil && u.CreatedAt != nil {
		return *u.CreatedAt
	}
	return time.Time{}
}

var _ backend.TokenSource = (*Session)(nil)

type sessionKey struct{}

func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

func SessionFromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(*Session)
	return s, ok && s != nil
}
