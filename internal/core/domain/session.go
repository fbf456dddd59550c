package domain

import "time"

// Session binds an opaque token to an identity until ExpiresAt.
type Session struct {
	Token      string    `json:"-"`
	IdentityID string    `json:"identityId"`
	CreatedAt  time.Time `json:"createdAt"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

// Expired reports whether the session is past its fixed expiry.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
