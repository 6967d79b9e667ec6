// Package settings stores per-user preferences. The notification sweep only
// reads the lead minutes; everything else is cosmetic and surfaced through
// the HTTP API as-is.
package settings

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

const (
	DefaultLeadMinutes    = 30
	DefaultTheme          = "light"
	DefaultPrimaryColor   = "#4e73df"
	DefaultSecondaryColor = "#858796"
)

type Setting struct {
	UserID uint64 `gorm:"primaryKey" json:"user_id"`

	Theme          string `gorm:"type:text;not null;default:'light'" json:"theme"`
	PrimaryColor   string `gorm:"type:text;not null;default:'#4e73df'" json:"primary_color"`
	SecondaryColor string `gorm:"type:text;not null;default:'#858796'" json:"secondary_color"`

	// Minutes before the due time at which the pre-due email fires.
	NotificationLeadMinutes int `gorm:"not null;default:30" json:"notification_lead_minutes"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func defaults(userID uint64) Setting {
	return Setting{
		UserID:                  userID,
		Theme:                   DefaultTheme,
		PrimaryColor:            DefaultPrimaryColor,
		SecondaryColor:          DefaultSecondaryColor,
		NotificationLeadMinutes: DefaultLeadMinutes,
	}
}

// LeadTimes is the narrow read-only view the notification sweep depends on.
type LeadTimes interface {
	NotificationLeadMinutes(ctx context.Context, userID uint64) int
}

type Store struct {
	DB *gorm.DB
}

var _ LeadTimes = (*Store)(nil)

// Get returns the user's settings, creating the defaults on first access.
func (s *Store) Get(ctx context.Context, userID uint64) (Setting, error) {
	var st Setting
	err := s.DB.WithContext(ctx).Where("user_id = ?", userID).First(&st).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		st = defaults(userID)
		if err := s.DB.WithContext(ctx).Create(&st).Error; err != nil {
			return Setting{}, err
		}
		return st, nil
	}
	if err != nil {
		return Setting{}, err
	}
	return st, nil
}

type UpdateInput struct {
	Theme          *string `json:"theme"`
	PrimaryColor   *string `json:"primary_color"`
	SecondaryColor *string `json:"secondary_color"`
	LeadMinutes    *int    `json:"notification_lead_minutes"`
}

var ErrInvalidSetting = errors.New("invalid setting value")

func (s *Store) Update(ctx context.Context, userID uint64, in UpdateInput) (Setting, error) {
	st, err := s.Get(ctx, userID)
	if err != nil {
		return Setting{}, err
	}

	if in.Theme != nil {
		switch *in.Theme {
		case "light", "dark", "auto":
			st.Theme = *in.Theme
		default:
			return Setting{}, ErrInvalidSetting
		}
	}
	if in.PrimaryColor != nil {
		st.PrimaryColor = *in.PrimaryColor
	}
	if in.SecondaryColor != nil {
		st.SecondaryColor = *in.SecondaryColor
	}
	if in.LeadMinutes != nil {
		if *in.LeadMinutes < 1 || *in.LeadMinutes > 24*60 {
			return Setting{}, ErrInvalidSetting
		}
		st.NotificationLeadMinutes = *in.LeadMinutes
	}

	if err := s.DB.WithContext(ctx).Save(&st).Error; err != nil {
		return Setting{}, err
	}
	return st, nil
}

// NotificationLeadMinutes returns the user's configured lead, falling back
// to the default when the row is missing or unreadable. The sweep has no
// caller to surface the error to.
func (s *Store) NotificationLeadMinutes(ctx context.Context, userID uint64) int {
	var st Setting
	err := s.DB.WithContext(ctx).Where("user_id = ?", userID).First(&st).Error
	if err != nil || st.NotificationLeadMinutes <= 0 {
		return DefaultLeadMinutes
	}
	return st.NotificationLeadMinutes
}

// FixedLeadTimes serves lead minutes from a static map. Tests use it in
// place of the database-backed store.
type FixedLeadTimes map[uint64]int

func (f FixedLeadTimes) NotificationLeadMinutes(_ context.Context, userID uint64) int {
	if m, ok := f[userID]; ok && m > 0 {
		return m
	}
	return DefaultLeadMinutes
}
