package models

import "time"

// RefreshSessionModel is one issued refresh credential. Only the SHA-256 of
// the client-held secret is stored; the cleartext never touches the database.
// A session is usable iff RevokedAt is null and ExpiresAt is in the future.
// ReplacedBy links a retired session to its rotation successor for audit.
type RefreshSessionModel struct {
	Base
	UserID      string     `json:"user_id"       gorm:"index;not null"`
	TokenHash   string     `json:"-"             gorm:"uniqueIndex;size:64;not null"`
	ExpiresAt   time.Time  `json:"expires_at"    gorm:"index;not null"`
	LastUsedAt  *time.Time `json:"last_used_at"`
	RevokedAt   *time.Time `json:"revoked_at"    gorm:"index"`
	RevokedByIP string     `json:"revoked_by_ip"`
	ReplacedBy  string     `json:"replaced_by"`
	CreatedByIP string     `json:"created_by_ip"`
	UserAgent   string     `json:"user_agent"    gorm:"type:text"`
}

func (RefreshSessionModel) TableName() string { return "refresh_sessions" }
