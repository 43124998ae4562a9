package auth

import (
	"context"
	"time"

	"github.com/cristianjhd92/ProCivilManager-sub002/internal/models"
)

// lockoutGuard tracks consecutive failed logins per account. Counter races
// between concurrent logins are last-write-wins; an off-by-one miscount is
// tolerated, a bypass of the lock window is not (the window check reads the
// stored timestamp, not the counter).
type lockoutGuard struct {
	users     UserStore
	threshold int
	duration  time.Duration
}

// remaining returns how long the account stays locked, zero when unlocked.
func (g *lockoutGuard) remaining(u *models.UserModel, now time.Time) time.Duration {
	if u.LockedUntil == nil || !u.LockedUntil.After(now) {
		return 0
	}
	return u.LockedUntil.Sub(now)
}

// onFailure bumps the counter and arms the lock when the threshold is hit.
// The returned error is what the caller reports: AccountLockedError on the
// locking failure, ErrInvalidCredentials otherwise.
func (g *lockoutGuard) onFailure(ctx context.Context, u *models.UserModel, now time.Time) error {
	count := u.FailedLoginCount + 1
	if count >= g.threshold {
		until := now.Add(g.duration)
		if err := g.users.RecordLoginFailure(ctx, u.ID, count, &until); err != nil {
			return err
		}
		return &AccountLockedError{Remaining: g.duration}
	}
	if err := g.users.RecordLoginFailure(ctx, u.ID, count, nil); err != nil {
		return err
	}
	return ErrInvalidCredentials
}
