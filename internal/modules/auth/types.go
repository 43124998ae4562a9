package auth

import (
	"errors"
	"fmt"
	"time"
)

// RequestContext carries per-request provenance into the service layer so
// time and client identity stay injectable.
type RequestContext struct {
	IP        string
	UserAgent string
	Now       time.Time
}

func (rc RequestContext) now() time.Time {
	if rc.Now.IsZero() {
		return time.Now()
	}
	return rc.Now
}

// Domain failures recovered at the HTTP boundary. Wrong email and wrong
// password intentionally collapse into the same error so responses cannot
// be used for account enumeration.
var (
	ErrInvalidCredentials      = errors.New("invalid credentials")
	ErrInvalidOrExpiredSession = errors.New("invalid or expired session")
	ErrUnauthenticated         = errors.New("unauthenticated")
)

// AccountLockedError reports a temporarily locked account. The message
// carries the approximate remaining time, never the exact unlock timestamp.
type AccountLockedError struct {
	Remaining time.Duration
}

func (e *AccountLockedError) Error() string {
	remaining := e.Remaining.Round(time.Minute)
	if remaining < time.Minute {
		remaining = time.Minute
	}
	return fmt.Sprintf("account temporarily locked, try again in about %s", remaining)
}

// RateLimitedError reports an exceeded login window. Scope names the window
// that tripped: "ip", "identity" or "global".
type RateLimitedError struct {
	Scope      string
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s, retry after %s", e.Scope, e.RetryAfter.Round(time.Second))
}

// RetryAfterSeconds returns the Retry-After header value, at least 1.
func (e *RateLimitedError) RetryAfterSeconds() int {
	secs := int(e.RetryAfter.Seconds())
	if e.RetryAfter > time.Duration(secs)*time.Second {
		secs++
	}
	if secs < 1 {
		secs = 1
	}
	return secs
}

type LoginDTO struct {
	Email    string `json:"email"    binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResult is what a successful login or refresh hands back to the
// transport layer. RefreshSecret is the cleartext cookie value; it is never
// persisted server-side.
type LoginResult struct {
	AccessToken   string
	ExpiresIn     int
	RefreshSecret string
	UserID        string
	UserEmail     string
	UserRole      string
	UserName      string
}
