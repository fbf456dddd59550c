package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/travelplanner/catalog/internal/core/domain"
	"github.com/travelplanner/catalog/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory identity repository
// ---------------------------------------------------------------------------

type stubIdentityRepo struct {
	mu         sync.Mutex
	byUsername map[string]*domain.Identity
	adminGuard int64
	nextID     int
	findErr    error
}

func newStubIdentityRepo() *stubIdentityRepo {
	return &stubIdentityRepo{byUsername: make(map[string]*domain.Identity)}
}

func cloneIdentity(u *domain.Identity) *domain.Identity {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubIdentityRepo) Create(_ context.Context, identity *domain.Identity) (*domain.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byUsername[identity.Username]; exists {
		return nil, domain.ErrDuplicateUsername
	}
	r.nextID++
	stored := cloneIdentity(identity)
	stored.ID = fmt.Sprintf("id-%d", r.nextID)
	r.byUsername[stored.Username] = stored
	if stored.IsAdmin() {
		r.adminGuard++
	}
	return cloneIdentity(stored), nil
}

func (r *stubIdentityRepo) FindByUsername(_ context.Context, username string) (*domain.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	u, ok := r.byUsername[username]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneIdentity(u), nil
}

func (r *stubIdentityRepo) FindByID(_ context.Context, id string) (*domain.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byUsername {
		if u.ID == id {
			return cloneIdentity(u), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *stubIdentityRepo) Promote(_ context.Context, username string) (*domain.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byUsername[username]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if !u.IsAdmin() {
		u.Role = domain.RoleAdmin
		r.adminGuard++
	}
	return cloneIdentity(u), nil
}

// DemoteAdmin mirrors the store's guarded decrement.
func (r *stubIdentityRepo) DemoteAdmin(_ context.Context, username string) (*domain.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.adminGuard <= 1 {
		return nil, domain.ErrLastAdmin
	}
	u, ok := r.byUsername[username]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if u.IsAdmin() {
		u.Role = domain.RoleUser
		r.adminGuard--
	}
	return cloneIdentity(u), nil
}

func (r *stubIdentityRepo) UpdatePasswordHash(_ context.Context, id, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byUsername {
		if u.ID == id {
			u.PasswordHash = hash
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *stubIdentityRepo) SyncAdminCount(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, u := range r.byUsername {
		if u.IsAdmin() {
			n++
		}
	}
	r.adminGuard = n
	return n, nil
}

func (r *stubIdentityRepo) role(username string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byUsername[username].Role
}

// ---------------------------------------------------------------------------
// In-memory destination repository
// ---------------------------------------------------------------------------

type stubDestinationRepo struct {
	byID      map[string]*domain.Destination
	nextID    int
	lastQuery ports.DestinationQuery
	writes    int
}

func newStubDestinationRepo() *stubDestinationRepo {
	return &stubDestinationRepo{byID: make(map[string]*domain.Destination)}
}

func cloneDestination(d *domain.Destination) *domain.Destination {
	clone := *d
	clone.Activities = append([]string{}, d.Activities...)
	return &clone
}

func (r *stubDestinationRepo) List(_ context.Context, q ports.DestinationQuery) ([]*domain.Destination, error) {
	r.lastQuery = q
	var out []*domain.Destination
	for _, d := range r.byID {
		if q.Category != "" && d.Category != q.Category {
			continue
		}
		out = append(out, cloneDestination(d))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *stubDestinationRepo) FindByID(_ context.Context, id string) (*domain.Destination, error) {
	if id == "bad" {
		return nil, domain.ErrInvalidID
	}
	d, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneDestination(d), nil
}

func (r *stubDestinationRepo) Create(_ context.Context, d *domain.Destination) (*domain.Destination, error) {
	r.writes++
	r.nextID++
	stored := cloneDestination(d)
	stored.ID = fmt.Sprintf("dest-%02d", r.nextID)
	r.byID[stored.ID] = stored
	return cloneDestination(stored), nil
}

func (r *stubDestinationRepo) Update(_ context.Context, id string, fields domain.DestinationFields) (*domain.Destination, error) {
	r.writes++
	d, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	fields.ApplyTo(d)
	return cloneDestination(d), nil
}

func (r *stubDestinationRepo) Delete(_ context.Context, id string) error {
	r.writes++
	if _, ok := r.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *stubDestinationRepo) ReplaceAll(_ context.Context, ds []*domain.Destination) (int, error) {
	r.byID = make(map[string]*domain.Destination)
	for _, d := range ds {
		r.nextID++
		stored := cloneDestination(d)
		stored.ID = fmt.Sprintf("dest-%02d", r.nextID)
		r.byID[stored.ID] = stored
	}
	return len(ds), nil
}

// ---------------------------------------------------------------------------
// Session store, throttle and audit sink
// ---------------------------------------------------------------------------

type stubSessionStore struct {
	sessions map[string]*domain.Session
	next     int
	getErr   error
}

func newStubSessionStore() *stubSessionStore {
	return &stubSessionStore{sessions: make(map[string]*domain.Session)}
}

func (s *stubSessionStore) Create(_ context.Context, identityID string, ttl time.Duration) (*domain.Session, error) {
	s.next++
	now := time.Now().UTC()
	sess := &domain.Session{
		Token:      fmt.Sprintf("tok-%d", s.next),
		IdentityID: identityID,
		CreatedAt:  now,
		ExpiresAt:  now.Add(ttl),
	}
	s.sessions[sess.Token] = sess
	return sess, nil
}

func (s *stubSessionStore) Get(_ context.Context, token string) (*domain.Session, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	sess, ok := s.sessions[token]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	clone := *sess
	return &clone, nil
}

func (s *stubSessionStore) Delete(_ context.Context, token string) error {
	delete(s.sessions, token)
	return nil
}

type stubThrottle struct {
	limit  int
	hits   map[string]int
	resets int
	err    error
}

func newStubThrottle(limit int) *stubThrottle {
	return &stubThrottle{limit: limit, hits: make(map[string]int)}
}

func (t *stubThrottle) Hit(_ context.Context, key string) (bool, error) {
	if t.err != nil {
		return true, t.err
	}
	t.hits[key]++
	return t.hits[key] <= t.limit, nil
}

func (t *stubThrottle) Reset(_ context.Context, key string) error {
	t.resets++
	delete(t.hits, key)
	return nil
}

type recordingSink struct {
	mu     sync.Mutex
	events []domain.AuditEvent
}

func (s *recordingSink) Record(e domain.AuditEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

func (s *recordingSink) find(action domain.AuditAction, outcome string) *domain.AuditEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.events {
		if s.events[i].Action == action && s.events[i].Outcome == outcome {
			e := s.events[i]
			return &e
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------------

func newTestIdentityService(repo ports.IdentityRepository, sink ports.AuditSink) *IdentityService {
	svc := NewIdentityService(repo, sink, zerolog.Nop())
	svc.hashCost = 4 // bcrypt.MinCost keeps the suite fast
	return svc
}
