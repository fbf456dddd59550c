package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// LoginThrottle limits login attempts per username.
// Key format: login_attempts:<username>
//
// Every attempt refreshes the key expiry, so a blocked username is released
// once no attempt has been made for a full window.
type LoginThrottle struct {
	client      *redis.Client
	maxAttempts int64
	window      time.Duration
}

func NewLoginThrottle(client *redis.Client, maxAttempts int, window time.Duration) *LoginThrottle {
	return &LoginThrottle{client: client, maxAttempts: int64(maxAttempts), window: window}
}

// Hit records an attempt and reports whether it is within the limit.
func (t *LoginThrottle) Hit(ctx context.Context, username string) (bool, error) {
	pipe := t.client.TxPipeline()
	incr := pipe.Incr(ctx, t.key(username))
	pipe.Expire(ctx, t.key(username), t.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return true, fmt.Errorf("login throttle: %w", err)
	}
	return incr.Val() <= t.maxAttempts, nil
}

// Reset clears the attempt counter after a successful login.
func (t *LoginThrottle) Reset(ctx context.Context, username string) error {
	return t.client.Del(ctx, t.key(username)).Err()
}

func (t *LoginThrottle) key(username string) string {
	return fmt.Sprintf("login_attempts:%s", username)
}
