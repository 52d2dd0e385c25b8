package matching

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/reusefull/reusefull/backend/matching-service/internal/models"
)

// Outcome is the result of a Session.Update call.
type Outcome struct {
	Charities  []models.Charity
	Generation uint64
	// Superseded is true when a newer pass was started before this one
	// finished. Charities then holds the latest applied result instead.
	Superseded bool
}

// Session holds the result list for one donor. Passes may overlap; the result
// of the most recently started pass wins regardless of completion order.
type Session struct {
	matcher *Matcher
	issued  atomic.Uint64

	mu      sync.Mutex
	applied uint64
	results []models.Charity

	loadMu sync.Mutex
	cached *Collections
}

// NewSession creates an empty session backed by m.
func NewSession(m *Matcher) *Session {
	return &Session{matcher: m, results: []models.Charity{}}
}

// Update runs a full pass for p and applies it unless a newer pass was
// started in the meantime.
func (s *Session) Update(ctx context.Context, c Collections, p models.DonorPreferences) Outcome {
	gen := s.issued.Add(1)
	return s.apply(gen, s.matcher.Run(ctx, c, p))
}

// Refresh is Update with the collections read from src. The first successful
// load is cached and reused by every later Refresh on this session; a failed
// load caches nothing and leaves the session untouched, so the next call
// retries. The pass claims its generation before any loading starts.
func (s *Session) Refresh(ctx context.Context, src Source, p models.DonorPreferences) (Outcome, error) {
	gen := s.issued.Add(1)
	c, err := s.collections(ctx, src)
	if err != nil {
		return Outcome{}, err
	}
	return s.apply(gen, s.matcher.Run(ctx, c, p)), nil
}

func (s *Session) collections(ctx context.Context, src Source) (Collections, error) {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()
	if s.cached != nil {
		return *s.cached, nil
	}
	c, err := LoadCollections(ctx, src)
	if err != nil {
		return Collections{}, err
	}
	s.cached = &c
	return c, nil
}

func (s *Session) apply(gen uint64, out []models.Charity) Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.issued.Load() || gen <= s.applied {
		return Outcome{Charities: s.results, Generation: s.applied, Superseded: true}
	}
	s.applied = gen
	s.results = out
	return Outcome{Charities: out, Generation: gen}
}

// Results returns the latest applied result and its generation. Generation 0
// means no pass has been applied yet.
func (s *Session) Results() ([]models.Charity, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.results, s.applied
}

type sessionEntry struct {
	session  *Session
	lastUsed time.Time
}

// Sessions is a registry of donor sessions keyed by a random id. Sessions idle
// for longer than the TTL are dropped.
type Sessions struct {
	matcher *Matcher
	ttl     time.Duration
	now     func() time.Time

	mu      sync.Mutex
	entries map[string]*sessionEntry
}

// NewSessions creates a registry. A non-positive ttl disables eviction.
func NewSessions(m *Matcher, ttl time.Duration) *Sessions {
	return &Sessions{
		matcher: m,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]*sessionEntry),
	}
}

// Create registers a new session and returns its id.
func (s *Sessions) Create() (string, *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.evictLocked(now)

	id := uuid.NewString()
	sess := NewSession(s.matcher)
	s.entries[id] = &sessionEntry{session: sess, lastUsed: now}
	return id, sess
}

// Get returns a live session and marks it used.
func (s *Sessions) Get(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return nil, false
	}
	now := s.now()
	if s.expired(e, now) {
		delete(s.entries, id)
		return nil, false
	}
	e.lastUsed = now
	return e.session, true
}

// Len returns the number of registered sessions, including idle ones not yet swept.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Sessions) expired(e *sessionEntry, now time.Time) bool {
	return s.ttl > 0 && now.Sub(e.lastUsed) > s.ttl
}

func (s *Sessions) evictLocked(now time.Time) {
	for id, e := range s.entries {
		if s.expired(e, now) {
			delete(s.entries, id)
		}
	}
}
