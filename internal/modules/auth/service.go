package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cristianjhd92/ProCivilManager-sub002/internal/config"
	"github.com/cristianjhd92/ProCivilManager-sub002/internal/models"
	"github.com/cristianjhd92/ProCivilManager-sub002/internal/modules/user"
	jwtpkg "github.com/cristianjhd92/ProCivilManager-sub002/internal/pkg/jwt"
	"github.com/cristianjhd92/ProCivilManager-sub002/internal/pkg/password"
	"go.uber.org/zap"
)

// Limiter guards the login surface. A nil limiter disables throttling.
type Limiter interface {
	Allow(ctx context.Context, ip, identity string, now time.Time) error
}

// Service is the session facade: the four public operations composing the
// credential verifier, lockout guard, rate limiter, rotation protocol and
// token codec.
type Service struct {
	users    UserStore
	sessions SessionStore
	limiter  Limiter
	codec    *jwtpkg.Codec
	lockout  lockoutGuard
	cfg      config.AuthConfig
	logger   *zap.Logger
}

func NewService(cfg config.AuthConfig, users UserStore, sessions SessionStore, limiter Limiter, codec *jwtpkg.Codec, logger *zap.Logger) *Service {
	return &Service{
		users:    users,
		sessions: sessions,
		limiter:  limiter,
		codec:    codec,
		lockout:  lockoutGuard{users: users, threshold: cfg.LockoutThreshold, duration: cfg.LockoutDuration},
		cfg:      cfg,
		logger:   logger,
	}
}

// Login verifies credentials and, on success, opens a refresh session and
// signs an access token. Wrong email and wrong password are reported
// identically.
func (s *Service) Login(ctx context.Context, email, plaintext string, rc RequestContext) (*LoginResult, error) {
	now := rc.now()
	identity := user.NormalizeEmail(email)

	if s.limiter != nil {
		if err := s.limiter.Allow(ctx, rc.IP, identity, now); err != nil {
			return nil, err
		}
	}

	u, err := s.users.FindByEmail(ctx, identity)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if u == nil {
		return nil, ErrInvalidCredentials
	}

	// Locked accounts short-circuit before any password hashing happens.
	if remaining := s.lockout.remaining(u, now); remaining > 0 {
		return nil, &AccountLockedError{Remaining: remaining}
	}

	if !password.Verify(plaintext, u.Password) {
		return nil, s.lockout.onFailure(ctx, u, now)
	}

	secret, tokenHash, err := newRefreshSecret()
	if err != nil {
		return nil, err
	}
	session := &models.RefreshSessionModel{
		UserID:      u.ID,
		TokenHash:   tokenHash,
		ExpiresAt:   now.Add(s.cfg.RefreshTTL),
		CreatedByIP: rc.IP,
		UserAgent:   rc.UserAgent,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	// Counters reset only once the session is durable, so a failed session
	// write never silently clears the lockout state.
	if err := s.users.RecordLoginSuccess(ctx, u.ID, rc.IP, now); err != nil {
		s.logger.Warn("login succeeded but counter reset failed",
			zap.String("user_id", u.ID), zap.Error(err))
	}

	accessToken, err := s.codec.Sign(u.ID, u.Role, now)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	return &LoginResult{
		AccessToken:   accessToken,
		ExpiresIn:     int(s.codec.TTL().Seconds()),
		RefreshSecret: secret,
		UserID:        u.ID,
		UserEmail:     u.Email,
		UserRole:      u.Role,
		UserName:      u.Name,
	}, nil
}

// Refresh rotates the presented refresh session: the successor is created
// and the predecessor retired in one transaction, with a conditional update
// deciding the winner when two requests race on the same secret.
func (s *Service) Refresh(ctx context.Context, presentedSecret string, rc RequestContext) (*LoginResult, error) {
	if presentedSecret == "" {
		return nil, ErrInvalidOrExpiredSession
	}
	now := rc.now()

	current, err := s.sessions.FindUsableByHash(ctx, hashRefreshSecret(presentedSecret), now)
	if err != nil {
		return nil, fmt.Errorf("find session: %w", err)
	}
	if current == nil {
		return nil, ErrInvalidOrExpiredSession
	}

	u, err := s.users.FindByID(ctx, current.UserID)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if u == nil {
		return nil, ErrInvalidOrExpiredSession
	}

	secret, tokenHash, err := newRefreshSecret()
	if err != nil {
		return nil, err
	}

	successor := &models.RefreshSessionModel{
		UserID:      current.UserID,
		TokenHash:   tokenHash,
		ExpiresAt:   now.Add(s.cfg.RefreshTTL),
		CreatedByIP: rc.IP,
		UserAgent:   rc.UserAgent,
	}
	err = s.sessions.WithTransaction(ctx, func(tx SessionStore) error {
		if err := tx.Create(ctx, successor); err != nil {
			return err
		}
		retired, err := tx.Retire(ctx, current.ID, successor.ID, rc.IP, now)
		if err != nil {
			return err
		}
		if !retired {
			// Another request rotated this session first; roll the
			// successor back and let the loser re-authenticate.
			return ErrInvalidOrExpiredSession
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInvalidOrExpiredSession) {
			return nil, ErrInvalidOrExpiredSession
		}
		return nil, fmt.Errorf("rotate session: %w", err)
	}

	accessToken, err := s.codec.Sign(u.ID, u.Role, now)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	return &LoginResult{
		AccessToken:   accessToken,
		ExpiresIn:     int(s.codec.TTL().Seconds()),
		RefreshSecret: secret,
		UserID:        u.ID,
		UserEmail:     u.Email,
		UserRole:      u.Role,
		UserName:      u.Name,
	}, nil
}

// Logout revokes the session matching the presented secret. A secret that
// matches nothing is not an error; logout is idempotent.
func (s *Service) Logout(ctx context.Context, presentedSecret string, rc RequestContext) error {
	if presentedSecret == "" {
		return nil
	}
	now := rc.now()

	session, err := s.sessions.FindUsableByHash(ctx, hashRefreshSecret(presentedSecret), now)
	if err != nil {
		return fmt.Errorf("find session: %w", err)
	}
	if session == nil {
		return nil
	}
	if _, err := s.sessions.Revoke(ctx, session.ID, rc.IP, now); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// LogoutAll revokes every usable session the user currently holds.
func (s *Service) LogoutAll(ctx context.Context, userID string, rc RequestContext) error {
	if userID == "" {
		return ErrUnauthenticated
	}
	now := rc.now()
	count, err := s.sessions.RevokeAllForUser(ctx, userID, rc.IP, now)
	if err != nil {
		return fmt.Errorf("revoke sessions: %w", err)
	}
	s.logger.Info("revoked all sessions", zap.String("user_id", userID), zap.Int64("count", count))
	return nil
}

// PurgeExpired removes refresh sessions past their absolute lifetime. It is
// wired to the background scheduler, never the request path.
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	return s.sessions.DeleteExpired(ctx, time.Now())
}
