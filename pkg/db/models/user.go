package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is an account. Users are never hard-deleted.
type User struct {
	ID              uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	Email           string     `gorm:"column:email;type:text;not null;uniqueIndex:users_email_key"`
	Phone           *string    `gorm:"column:phone;uniqueIndex:users_phone_key"`
	PasswordHash    string     `gorm:"column:password_hash;not null"`
	Name            string     `gorm:"column:name;not null"`
	Bio             string     `gorm:"column:bio;not null;default:''"`
	Region          string     `gorm:"column:region;not null;default:''"`
	AvatarURL       *string    `gorm:"column:avatar_url"`
	EmailVerifiedAt *time.Time `gorm:"column:email_verified_at"`
	LastLoginAt     *time.Time `gorm:"column:last_login_at"`
	CreatedAt       time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	ensureID(&u.ID)
	return nil
}
