package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/travelplanner/catalog/internal/core/domain"
	"github.com/travelplanner/catalog/internal/core/ports"
)

const (
	identityKey = "identity"
	tokenKey    = "session_token"
)

// LoadSession resolves the session cookie to an identity and stores it in
// the request context. It never rejects a request: a missing, forged or
// expired session leaves the request anonymous, and a session store outage
// is logged and treated the same way.
func LoadSession(sessions ports.SessionService, cookie *SessionCookie, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := cookie.Read(c)
			if !ok {
				return next(c)
			}
			SetSessionToken(c, token)

			identity, err := sessions.Resolve(c.Request().Context(), token)
			if err != nil {
				log.Error().Err(err).
					Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
					Msg("session lookup failed")
				return next(c)
			}
			if identity != nil {
				SetIdentity(c, identity)
			}
			return next(c)
		}
	}
}

// SetIdentity attaches identity to the request context.
func SetIdentity(c echo.Context, identity *domain.Identity) {
	c.Set(identityKey, identity)
}

// Identity returns the identity attached by LoadSession, or nil.
func Identity(c echo.Context) *domain.Identity {
	identity, _ := c.Get(identityKey).(*domain.Identity)
	return identity
}

// SetSessionToken records the verified session token for the request.
func SetSessionToken(c echo.Context, token string) {
	c.Set(tokenKey, token)
}

// SessionToken returns the verified session token from the cookie, if any.
func SessionToken(c echo.Context) string {
	token, _ := c.Get(tokenKey).(string)
	return token
}
