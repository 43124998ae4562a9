package auth

import (
	"context"
	"errors"
	"time"

	"github.com/cristianjhd92/ProCivilManager-sub002/internal/models"
	"gorm.io/gorm"
)

// UserStore is the credential-and-role directory the auth core consumes.
// Lookups take the normalized email form. Absent users are (nil, nil), not
// an error. Implemented by the user module.
type UserStore interface {
	FindByEmail(ctx context.Context, normalizedEmail string) (*models.UserModel, error)
	FindByID(ctx context.Context, id string) (*models.UserModel, error)
	RecordLoginFailure(ctx context.Context, userID string, failedCount int, lockedUntil *time.Time) error
	RecordLoginSuccess(ctx context.Context, userID, ip string, now time.Time) error
}

// SessionStore persists refresh sessions. Usability filtering (revoked_at
// null, expires_at in the future) happens inside the store's queries, not in
// application code, so concurrent requests cannot observe stale rows.
type SessionStore interface {
	Create(ctx context.Context, session *models.RefreshSessionModel) error
	FindUsableByHash(ctx context.Context, tokenHash string, now time.Time) (*models.RefreshSessionModel, error)
	// Retire marks a session revoked and links its successor, but only if the
	// session is still usable. Returns false when another request already
	// retired it.
	Retire(ctx context.Context, id, replacedBy, ip string, now time.Time) (bool, error)
	// Revoke marks a session revoked without a successor (logout).
	Revoke(ctx context.Context, id, ip string, now time.Time) (bool, error)
	RevokeAllForUser(ctx context.Context, userID, ip string, now time.Time) (int64, error)
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
	// WithTransaction runs fn against a store bound to a single transaction;
	// any error rolls every write back.
	WithTransaction(ctx context.Context, fn func(SessionStore) error) error
}

// GormSessionStore is the MySQL-backed SessionStore.
type GormSessionStore struct {
	db *gorm.DB
}

func NewGormSessionStore(db *gorm.DB) *GormSessionStore {
	return &GormSessionStore{db: db}
}

func (s *GormSessionStore) Create(ctx context.Context, session *models.RefreshSessionModel) error {
	return s.db.WithContext(ctx).Create(session).Error
}

func (s *GormSessionStore) FindUsableByHash(ctx context.Context, tokenHash string, now time.Time) (*models.RefreshSessionModel, error) {
	var session models.RefreshSessionModel
	err := s.db.WithContext(ctx).
		Where("token_hash = ? AND revoked_at IS NULL AND expires_at > ?", tokenHash, now).
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

func (s *GormSessionStore) Retire(ctx context.Context, id, replacedBy, ip string, now time.Time) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.RefreshSessionModel{}).
		Where("id = ? AND revoked_at IS NULL AND expires_at > ?", id, now).
		Updates(map[string]interface{}{
			"revoked_at":    now,
			"revoked_by_ip": ip,
			"replaced_by":   replacedBy,
			"last_used_at":  now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *GormSessionStore) Revoke(ctx context.Context, id, ip string, now time.Time) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.RefreshSessionModel{}).
		Where("id = ? AND revoked_at IS NULL", id).
		Updates(map[string]interface{}{
			"revoked_at":    now,
			"revoked_by_ip": ip,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *GormSessionStore) RevokeAllForUser(ctx context.Context, userID, ip string, now time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.RefreshSessionModel{}).
		Where("user_id = ? AND revoked_at IS NULL AND expires_at > ?", userID, now).
		Updates(map[string]interface{}{
			"revoked_at":    now,
			"revoked_by_ip": ip,
		})
	return res.RowsAffected, res.Error
}

func (s *GormSessionStore) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("expires_at <= ?", before).
		Delete(&models.RefreshSessionModel{})
	return res.RowsAffected, res.Error
}

func (s *GormSessionStore) WithTransaction(ctx context.Context, fn func(SessionStore) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormSessionStore{db: tx})
	})
}
