package reminder

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/lib/pq"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusDeleted   Status = "deleted"
)

const MaxTitleLen = 100

// EditEntry is one snapshot of a reminder's title/due time taken just before
// a successful edit applied.
type EditEntry struct {
	PreviousTitle string    `json:"previous_title"`
	PreviousDueAt time.Time `json:"previous_due_at"`
	EditedAt      time.Time `json:"edited_at"`
}

// EditHistory is append-only and stored as a jsonb document.
type EditHistory []EditEntry

func (h EditHistory) Value() (driver.Value, error) {
	if h == nil {
		h = EditHistory{}
	}
	return json.Marshal(h)
}

func (h *EditHistory) Scan(src any) error {
	if src == nil {
		*h = nil
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, h)
	case string:
		return json.Unmarshal([]byte(v), h)
	default:
		return errors.New("edit history: unsupported scan source")
	}
}

type Reminder struct {
	ID     string `gorm:"primaryKey;type:uuid"`
	UserID uint64 `gorm:"index;not null"`

	Title       string `gorm:"type:varchar(100);not null"`
	Description string `gorm:"type:text;not null;default:''"`

	DueAt  time.Time `gorm:"type:timestamptz;index;not null"`
	Status Status    `gorm:"type:text;index;not null;default:'active'"`

	CompletedAt *time.Time `gorm:"type:timestamptz"`
	Notified    bool       `gorm:"not null;default:false"`

	Tags pq.StringArray `gorm:"type:text[];not null;default:'{}'"`

	EditHistory EditHistory `gorm:"type:jsonb;not null;default:'[]'::jsonb"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`
}

// IsOverdue reports whether an active reminder's due time has passed.
func (r *Reminder) IsOverdue(now time.Time) bool {
	return r.Status == StatusActive && now.After(r.DueAt)
}

// CanEdit reports whether the record may still be edited or soft-deleted:
// only while active and strictly more than guard before the due time.
func (r *Reminder) CanEdit(now time.Time, guard time.Duration) bool {
	return r.Status == StatusActive && now.Before(r.DueAt.Add(-guard))
}
