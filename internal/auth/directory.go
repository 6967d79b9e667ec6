package auth

import (
	"context"

	"gorm.io/gorm"
)

// Directory resolves user ids to email addresses for the notification
// sweep.
type Directory struct {
	DB *gorm.DB
}

func (d *Directory) EmailFor(ctx context.Context, userID uint64) (string, error) {
	var u User
	if err := d.DB.WithContext(ctx).Select("email").First(&u, userID).Error; err != nil {
		return "", err
	}
	return u.Email, nil
}
