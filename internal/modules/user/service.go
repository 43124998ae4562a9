package user

import (
	"context"
	"errors"
	"time"

	"github.com/cristianjhd92/ProCivilManager-sub002/internal/models"
	"github.com/cristianjhd92/ProCivilManager-sub002/internal/pkg/mail"
	"github.com/cristianjhd92/ProCivilManager-sub002/internal/pkg/password"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrEmailTaken = errors.New("email already registered")

type RegisterDTO struct {
	Email    string `json:"email"    binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name"`
}

// Service is the user directory: account lookup, registration and the
// lockout-tracking writes the auth module performs on the user record.
type Service struct {
	db         *gorm.DB
	bcryptCost int
	mailer     *mail.Sender
	logger     *zap.Logger
}

func NewService(db *gorm.DB, bcryptCost int, mailer *mail.Sender, logger *zap.Logger) *Service {
	return &Service{db: db, bcryptCost: bcryptCost, mailer: mailer, logger: logger}
}

// FindByEmail looks a user up by normalized email. Absent users are (nil, nil).
func (s *Service) FindByEmail(ctx context.Context, normalizedEmail string) (*models.UserModel, error) {
	var u models.UserModel
	if err := s.db.WithContext(ctx).
		Where("normalized_email = ?", normalizedEmail).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (s *Service) FindByID(ctx context.Context, id string) (*models.UserModel, error) {
	var u models.UserModel
	if err := s.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// RecordLoginFailure persists the bumped failure counter and, when set, the
// lock window. Last write wins under concurrent attempts.
func (s *Service) RecordLoginFailure(ctx context.Context, userID string, failedCount int, lockedUntil *time.Time) error {
	return s.db.WithContext(ctx).Model(&models.UserModel{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"failed_login_count": failedCount,
			"locked_until":       lockedUntil,
		}).Error
}

// RecordLoginSuccess clears the lockout state and stamps login provenance.
func (s *Service) RecordLoginSuccess(ctx context.Context, userID, ip string, now time.Time) error {
	return s.db.WithContext(ctx).Model(&models.UserModel{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"failed_login_count": 0,
			"locked_until":       nil,
			"last_login_time":    now,
			"last_login_ip":      ip,
		}).Error
}

// Register creates an account. The first account becomes the admin; everyone
// after that registers as a regular user. The welcome mail is fire-and-forget.
func (s *Service) Register(ctx context.Context, dto *RegisterDTO) (*models.UserModel, error) {
	normalized := NormalizeEmail(dto.Email)

	existing, err := s.FindByEmail(ctx, normalized)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := password.Hash(dto.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.UserModel{}).Count(&count).Error; err != nil {
		return nil, err
	}
	role := models.RoleUser
	if count == 0 {
		role = models.RoleAdmin
	}

	u := models.UserModel{
		Email:           dto.Email,
		NormalizedEmail: normalized,
		Name:            dto.Name,
		Password:        hash,
		Role:            role,
	}
	if err := s.db.WithContext(ctx).Create(&u).Error; err != nil {
		return nil, err
	}

	if s.mailer != nil {
		go func(email, name string) {
			if err := s.mailer.SendWelcome(email, name); err != nil {
				s.logger.Warn("welcome mail failed", zap.String("email", email), zap.Error(err))
			}
		}(u.Email, u.Name)
	}
	return &u, nil
}
