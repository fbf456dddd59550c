package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/travelplanner/catalog/internal/core/domain"
	"github.com/travelplanner/catalog/internal/core/ports"
)

const DefaultSessionTTL = 24 * time.Hour

// SessionService issues, resolves and destroys login sessions. Expiry is
// fixed from login; activity does not extend a session.
type SessionService struct {
	identities ports.IdentityService
	store      ports.SessionStore
	throttle   ports.LoginThrottle
	audit      ports.AuditSink
	ttl        time.Duration
	log        zerolog.Logger
}

// NewSessionService wires the session use cases. throttle may be nil to
// disable login throttling.
func NewSessionService(
	identities ports.IdentityService,
	store ports.SessionStore,
	throttle ports.LoginThrottle,
	audit ports.AuditSink,
	ttl time.Duration,
	log zerolog.Logger,
) *SessionService {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionService{
		identities: identities,
		store:      store,
		throttle:   throttle,
		audit:      audit,
		ttl:        ttl,
		log:        log,
	}
}

// TTL is the fixed lifetime of new sessions.
func (s *SessionService) TTL() time.Duration {
	return s.ttl
}

func (s *SessionService) Login(ctx context.Context, username, password string) (*domain.Session, *domain.Identity, error) {
	key := strings.TrimSpace(username)

	if s.throttle != nil && key != "" {
		allowed, err := s.throttle.Hit(ctx, key)
		if err != nil {
			// Fail open: a throttle outage must not lock everyone out.
			s.log.Warn().Err(err).Msg("login throttle unavailable")
		} else if !allowed {
			recordAudit(s.audit, domain.AuditLoginFailed, "", key, domain.OutcomeDenied, domain.ErrTooManyAttempts)
			return nil, nil, domain.ErrTooManyAttempts
		}
	}

	identity, err := s.identities.Authenticate(ctx, username, password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			recordAudit(s.audit, domain.AuditLoginFailed, "", key, domain.OutcomeDenied, err)
		}
		return nil, nil, err
	}

	session, err := s.store.Create(ctx, identity.ID, s.ttl)
	if err != nil {
		return nil, nil, err
	}

	if s.throttle != nil {
		if err := s.throttle.Reset(ctx, key); err != nil {
			s.log.Warn().Err(err).Msg("failed to reset login throttle")
		}
	}

	s.log.Info().Str("identity_id", identity.ID).Msg("session created")
	recordAudit(s.audit, domain.AuditLogin, identity.ID, identity.Username, domain.OutcomeSuccess, nil)
	return session, identity, nil
}

func (s *SessionService) Resolve(ctx context.Context, token string) (*domain.Identity, error) {
	if token == "" {
		return nil, nil
	}

	session, err := s.store.Get(ctx, token)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if session.Expired(time.Now()) {
		return nil, nil
	}

	identity, err := s.identities.Get(ctx, session.IdentityID)
	if errors.Is(err, domain.ErrNotFound) {
		// Orphaned session: the identity is gone.
		if derr := s.store.Delete(ctx, token); derr != nil {
			s.log.Warn().Err(derr).Msg("failed to delete orphaned session")
		}
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return identity, nil
}

func (s *SessionService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	session, err := s.store.Get(ctx, token)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if err := s.store.Delete(ctx, token); err != nil {
		return err
	}
	recordAudit(s.audit, domain.AuditLogout, session.IdentityID, "", domain.OutcomeSuccess, nil)
	return nil
}
