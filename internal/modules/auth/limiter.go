package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/cristianjhd92/ProCivilManager-sub002/internal/config"
	"github.com/redis/go-redis/v9"
)

// LoginLimiter throttles the login surface with two independent fixed
// windows: one keyed by client IP, one keyed by the normalized submitted
// identity (so distributed attacks on a single account are still caught).
// Redis being unreachable fails open; losing throttling beats losing login.
type LoginLimiter struct {
	rdb *redis.Client
	cfg config.RateLimitConfig
}

func NewLoginLimiter(rdb *redis.Client, cfg config.RateLimitConfig) *LoginLimiter {
	return &LoginLimiter{rdb: rdb, cfg: cfg}
}

// Allow checks both login windows and returns a RateLimitedError naming the
// first window exceeded.
func (l *LoginLimiter) Allow(ctx context.Context, ip, identity string, now time.Time) error {
	if ip != "" {
		if err := l.check(ctx, "ip", loginIPKey(ip, now, l.cfg.LoginWindow), l.cfg.LoginIPMax, now); err != nil {
			return err
		}
	}
	if identity != "" {
		if err := l.check(ctx, "identity", loginIdentityKey(identity, now, l.cfg.LoginWindow), l.cfg.LoginIdentityMax, now); err != nil {
			return err
		}
	}
	return nil
}

func (l *LoginLimiter) check(ctx context.Context, scope, key string, max int, now time.Time) error {
	count, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		return nil
	}
	if count == 1 {
		l.rdb.PExpire(ctx, key, l.cfg.LoginWindow+time.Second)
	}
	if count > int64(max) {
		return &RateLimitedError{
			Scope:      scope,
			RetryAfter: windowRemaining(now, l.cfg.LoginWindow),
		}
	}
	return nil
}

func loginIPKey(ip string, now time.Time, window time.Duration) string {
	return fmt.Sprintf("pcm:rl:login:ip:%s:%d", ip, now.Truncate(window).Unix())
}

func loginIdentityKey(identity string, now time.Time, window time.Duration) string {
	return fmt.Sprintf("pcm:rl:login:id:%s:%d", identity, now.Truncate(window).Unix())
}

// windowRemaining computes the time until the current fixed window rolls
// over, which becomes the Retry-After value.
func windowRemaining(now time.Time, window time.Duration) time.Duration {
	return now.Truncate(window).Add(window).Sub(now)
}
