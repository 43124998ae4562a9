package models

import "time"

// Roles assignable to a user account.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// UserModel is an application account. Email is the login identity;
// NormalizedEmail is the case- and diacritic-insensitive lookup key.
// FailedLoginCount and LockedUntil back the login lockout window and are
// only ever written by the auth module.
type UserModel struct {
	Base
	Email            string     `json:"email"           gorm:"not null"`
	NormalizedEmail  string     `json:"-"               gorm:"uniqueIndex;size:191;not null"`
	Name             string     `json:"name"`
	Password         string     `json:"-"               gorm:"not null"`
	Role             string     `json:"role"            gorm:"not null;default:user"`
	FailedLoginCount int        `json:"-"               gorm:"not null;default:0"`
	LockedUntil      *time.Time `json:"-"`
	LastLoginTime    *time.Time `json:"last_login_time"`
	LastLoginIP      string     `json:"last_login_ip"`
}

func (UserModel) TableName() string { return "users" }
