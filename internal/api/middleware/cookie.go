package middleware

import (
	"crypto/sha256"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/labstack/echo/v4"
)

// SessionCookieName is the cookie carrying the signed session token.
const SessionCookieName = "sid"

// SessionCookie signs and encrypts the opaque session token so that a
// tampered or forged cookie never reaches the session store.
type SessionCookie struct {
	codec  *securecookie.SecureCookie
	maxAge time.Duration
	secure bool
}

// NewSessionCookie derives the signing and encryption keys from secret.
func NewSessionCookie(secret string, maxAge time.Duration, secure bool) *SessionCookie {
	h := sha256.Sum256([]byte("auth:" + secret))
	e := sha256.Sum256([]byte("enc:" + secret))

	codec := securecookie.New(h[:], e[:])
	codec.MaxAge(int(maxAge.Seconds()))

	return &SessionCookie{codec: codec, maxAge: maxAge, secure: secure}
}

// Write sets the session cookie holding token.
func (s *SessionCookie) Write(c echo.Context, token string) error {
	encoded, err := s.codec.Encode(SessionCookieName, token)
	if err != nil {
		return err
	}
	c.SetCookie(s.cookie(encoded, int(s.maxAge.Seconds()), time.Now().Add(s.maxAge)))
	return nil
}

// Read returns the session token, or false when the cookie is missing or
// fails verification.
func (s *SessionCookie) Read(c echo.Context) (string, bool) {
	ck, err := c.Cookie(SessionCookieName)
	if err != nil || ck.Value == "" {
		return "", false
	}
	var token string
	if err := s.codec.Decode(SessionCookieName, ck.Value, &token); err != nil {
		return "", false
	}
	return token, token != ""
}

// Clear expires the session cookie on the client.
func (s *SessionCookie) Clear(c echo.Context) {
	c.SetCookie(s.cookie("", -1, time.Unix(0, 0)))
}

func (s *SessionCookie) cookie(value string, maxAge int, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		Expires:  expires,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
