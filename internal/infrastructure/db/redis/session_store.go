package redis

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/travelplanner/catalog/internal/core/domain"
)

const (
	sessionKeyPrefix = "session:"
	tokenBytes       = 32
	maxTokenAttempts = 3
)

// SessionStore keeps sessions under session:<token> with the session TTL,
// so Redis expires them without a sweeper.
type SessionStore struct {
	client *redis.Client
}

func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{client: client}
}

type sessionRecord struct {
	IdentityID string    `json:"identity_id"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

func newToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func (s *SessionStore) Create(ctx context.Context, identityID string, ttl time.Duration) (*domain.Session, error) {
	now := time.Now().UTC()
	rec := sessionRecord{IdentityID: identityID, CreatedAt: now, ExpiresAt: now.Add(ttl)}
	payload, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}

	for i := 0; i < maxTokenAttempts; i++ {
		token, err := newToken()
		if err != nil {
			return nil, err
		}
		ok, err := s.client.SetNX(ctx, sessionKeyPrefix+token, payload, ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("store session: %w", err)
		}
		if ok {
			return &domain.Session{
				Token:      token,
				IdentityID: rec.IdentityID,
				CreatedAt:  rec.CreatedAt,
				ExpiresAt:  rec.ExpiresAt,
			}, nil
		}
	}
	return nil, errors.New("store session: token collision")
}

func (s *SessionStore) Get(ctx context.Context, token string) (*domain.Session, error) {
	raw, err := s.client.Get(ctx, sessionKeyPrefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	var rec sessionRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	sess := &domain.Session{
		Token:      token,
		IdentityID: rec.IdentityID,
		CreatedAt:  rec.CreatedAt,
		ExpiresAt:  rec.ExpiresAt,
	}
	if sess.Expired(time.Now()) {
		return nil, domain.ErrSessionNotFound
	}
	return sess, nil
}

func (s *SessionStore) Delete(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, sessionKeyPrefix+token).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
