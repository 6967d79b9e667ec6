package auth

import "time"

type User struct {
	ID           uint64 `gorm:"primaryKey"`
	Username     string `gorm:"uniqueIndex;not null"`
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`

	// Email ownership is proven with a one-time code before login is allowed.
	EmailVerified bool       `gorm:"not null;default:false"`
	OTPCode       *string    `gorm:"type:text"`
	OTPExpiresAt  *time.Time `gorm:"type:timestamptz"`

	// Separate code for the forgot-password flow.
	ResetCode      *string    `gorm:"type:text"`
	ResetExpiresAt *time.Time `gorm:"type:timestamptz"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`
}
