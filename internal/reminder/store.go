package reminder

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

// Stats summarizes one owner's reminders for the dashboard.
type Stats struct {
	Active    int64 `json:"active"`
	Completed int64 `json:"completed"`
	Deleted   int64 `json:"deleted"`
	Today     int64 `json:"today"`
	Overdue   int64 `json:"overdue"`
}

type TagCount struct {
	Tag   string `json:"tag"`
	Count int64  `json:"count"`
}

// Store is the persistence boundary for reminders. Every query is scoped by
// the owning user. The guarded mutations take effect only while the record
// is still in the expected status and report whether they applied, which is
// the per-record compare-and-set the sweeps and user edits rely on to avoid
// racing each other.
type Store interface {
	Create(ctx context.Context, r *Reminder) error
	Find(ctx context.Context, userID uint64, status Status) ([]Reminder, error)
	FindByID(ctx context.Context, userID uint64, id string) (*Reminder, error)

	// ApplyEdit persists title/description/due/tags/history changes while the
	// record is still active.
	ApplyEdit(ctx context.Context, r *Reminder) (bool, error)
	// MarkDeleted moves an active record to trash.
	MarkDeleted(ctx context.Context, userID uint64, id string, now time.Time) (bool, error)
	// CompleteIfActive transitions active -> completed with the given instant.
	CompleteIfActive(ctx context.Context, id string, now time.Time) (bool, error)
	// MarkNotified latches the notified flag on an active, un-notified record.
	MarkNotified(ctx context.Context, id string, now time.Time) (bool, error)
	// HardDelete removes a trashed record entirely.
	HardDelete(ctx context.Context, userID uint64, id string) (bool, error)

	// FindUnnotified returns active, un-notified reminders due at or after now,
	// across all owners. The notification sweep narrows them per owner.
	FindUnnotified(ctx context.Context, now time.Time) ([]Reminder, error)
	// FindOverdue returns active reminders whose due time has passed.
	FindOverdue(ctx context.Context, now time.Time) ([]Reminder, error)

	CountStats(ctx context.Context, userID uint64, now time.Time) (Stats, error)
	TagCounts(ctx context.Context, userID uint64, limit int) ([]TagCount, error)
}

// GormStore is the Postgres-backed Store.
type GormStore struct {
	DB *gorm.DB
}

var _ Store = (*GormStore)(nil)

func (s *GormStore) Create(ctx context.Context, r *Reminder) error {
	return s.DB.WithContext(ctx).Create(r).Error
}

func (s *GormStore) Find(ctx context.Context, userID uint64, status Status) ([]Reminder, error) {
	q := s.DB.WithContext(ctx).Where("user_id = ? AND status = ?", userID, status)

	switch status {
	case StatusCompleted:
		q = q.Order("completed_at desc")
	case StatusDeleted:
		q = q.Order("updated_at desc")
	default:
		q = q.Order("due_at asc")
	}

	var rows []Reminder
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *GormStore) FindByID(ctx context.Context, userID uint64, id string) (*Reminder, error) {
	var r Reminder
	err := s.DB.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&r).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &r, nil
}

func (s *GormStore) ApplyEdit(ctx context.Context, r *Reminder) (bool, error) {
	res := s.DB.WithContext(ctx).Model(&Reminder{}).
		Where("id = ? AND user_id = ? AND status = ?", r.ID, r.UserID, StatusActive).
		Updates(map[string]any{
			"title":        r.Title,
			"description":  r.Description,
			"due_at":       r.DueAt,
			"tags":         r.Tags,
			"edit_history": r.EditHistory,
			"updated_at":   r.UpdatedAt,
		})
	return res.RowsAffected > 0, res.Error
}

func (s *GormStore) MarkDeleted(ctx context.Context, userID uint64, id string, now time.Time) (bool, error) {
	res := s.DB.WithContext(ctx).Model(&Reminder{}).
		Where("id = ? AND user_id = ? AND status = ?", id, userID, StatusActive).
		Updates(map[string]any{"status": StatusDeleted, "updated_at": now})
	return res.RowsAffected > 0, res.Error
}

func (s *GormStore) CompleteIfActive(ctx context.Context, id string, now time.Time) (bool, error) {
	res := s.DB.WithContext(ctx).Model(&Reminder{}).
		Where("id = ? AND status = ?", id, StatusActive).
		Updates(map[string]any{"status": StatusCompleted, "completed_at": now, "updated_at": now})
	return res.RowsAffected > 0, res.Error
}

func (s *GormStore) MarkNotified(ctx context.Context, id string, now time.Time) (bool, error) {
	res := s.DB.WithContext(ctx).Model(&Reminder{}).
		Where("id = ? AND status = ? AND notified = false", id, StatusActive).
		Updates(map[string]any{"notified": true, "updated_at": now})
	return res.RowsAffected > 0, res.Error
}

func (s *GormStore) HardDelete(ctx context.Context, userID uint64, id string) (bool, error) {
	res := s.DB.WithContext(ctx).
		Where("id = ? AND user_id = ? AND status = ?", id, userID, StatusDeleted).
		Delete(&Reminder{})
	return res.RowsAffected > 0, res.Error
}

func (s *GormStore) FindUnnotified(ctx context.Context, now time.Time) ([]Reminder, error) {
	var rows []Reminder
	err := s.DB.WithContext(ctx).
		Where("status = ? AND notified = false AND due_at >= ?", StatusActive, now).
		Order("due_at asc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *GormStore) FindOverdue(ctx context.Context, now time.Time) ([]Reminder, error) {
	var rows []Reminder
	err := s.DB.WithContext(ctx).
		Where("status = ? AND due_at < ?", StatusActive, now).
		Order("due_at asc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *GormStore) CountStats(ctx context.Context, userID uint64, now time.Time) (Stats, error) {
	var st Stats

	count := func(dest *int64, conds string, args ...any) error {
		return s.DB.WithContext(ctx).Model(&Reminder{}).
			Where("user_id = ?", userID).
			Where(conds, args...).
			Count(dest).Error
	}

	if err := count(&st.Active, "status = ?", StatusActive); err != nil {
		return st, err
	}
	if err := count(&st.Completed, "status = ?", StatusCompleted); err != nil {
		return st, err
	}
	if err := count(&st.Deleted, "status = ?", StatusDeleted); err != nil {
		return st, err
	}

	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)
	if err := count(&st.Today, "status = ? AND due_at >= ? AND due_at < ?", StatusActive, dayStart, dayEnd); err != nil {
		return st, err
	}
	if err := count(&st.Overdue, "status = ? AND due_at < ?", StatusActive, now); err != nil {
		return st, err
	}

	return st, nil
}

func (s *GormStore) TagCounts(ctx context.Context, userID uint64, limit int) ([]TagCount, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var out []TagCount
	err := s.DB.WithContext(ctx).Raw(`
		select tag, count(*) as count
		from (
			select unnest(tags) as tag
			from reminders
			where user_id = ? and status = 'active'
		) t
		group by tag
		order by count desc, tag asc
		limit ?
	`, userID, limit).Scan(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
