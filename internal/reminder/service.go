package reminder

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"ontime/internal/clock"
)

// DefaultEditGuard is how close to the due time edits and soft deletes are
// refused. Configurable per deployment.
const DefaultEditGuard = 2 * time.Minute

// Service is the lifecycle state machine. It is the single place that
// enforces the transition rules: active -> completed | deleted, both
// terminal, no way back to active. User-facing handlers and the background
// sweeps both go through it.
type Service struct {
	Store     Store
	Now       clock.Clock
	EditGuard time.Duration
}

func NewService(store Store, now clock.Clock, editGuard time.Duration) *Service {
	if now == nil {
		now = time.Now
	}
	if editGuard <= 0 {
		editGuard = DefaultEditGuard
	}
	return &Service{Store: store, Now: now, EditGuard: editGuard}
}

type CreateInput struct {
	Title       string
	Description string
	DueAt       time.Time
}

type EditInput struct {
	Title       *string
	Description *string
	DueAt       *time.Time
}

// tagsFor never returns nil so the text[] column stays non-null.
func tagsFor(parts ...string) pq.StringArray {
	tags := ExtractTags(parts...)
	if tags == nil {
		tags = []string{}
	}
	return pq.StringArray(tags)
}

func validateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", ErrTitleRequired
	}
	if len(title) > MaxTitleLen {
		return "", ErrTitleTooLong
	}
	return title, nil
}

// Create makes a new active reminder. The due time must be strictly in the
// future.
func (s *Service) Create(ctx context.Context, userID uint64, in CreateInput) (*Reminder, error) {
	title, err := validateTitle(in.Title)
	if err != nil {
		return nil, err
	}

	now := s.Now()
	if !in.DueAt.After(now) {
		return nil, ErrPastDue
	}

	r := &Reminder{
		ID:          uuid.NewString(),
		UserID:      userID,
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		DueAt:       in.DueAt.UTC(),
		Status:      StatusActive,
		Notified:    false,
		Tags:        tagsFor(title, in.Description),
		EditHistory: EditHistory{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.Store.Create(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Service) List(ctx context.Context, userID uint64, status Status) ([]Reminder, error) {
	return s.Store.Find(ctx, userID, status)
}

func (s *Service) Get(ctx context.Context, userID uint64, id string) (*Reminder, error) {
	return s.Store.FindByID(ctx, userID, id)
}

// Edit changes title, description and/or due time. Allowed only while the
// record is active and strictly more than the guard window before its due
// time. A title change appends one edit-history snapshot of the pre-edit
// title and due time.
func (s *Service) Edit(ctx context.Context, userID uint64, id string, in EditInput) (*Reminder, error) {
	r, err := s.Store.FindByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	now := s.Now()
	if !r.CanEdit(now, s.EditGuard) {
		return nil, ErrEditWindowClosed
	}

	if in.Title != nil {
		title, err := validateTitle(*in.Title)
		if err != nil {
			return nil, err
		}
		if title != r.Title {
			r.EditHistory = append(r.EditHistory, EditEntry{
				PreviousTitle: r.Title,
				PreviousDueAt: r.DueAt,
				EditedAt:      now,
			})
		}
		r.Title = title
	}
	if in.Description != nil {
		r.Description = strings.TrimSpace(*in.Description)
	}
	if in.DueAt != nil {
		if !in.DueAt.After(now) {
			return nil, ErrPastDue
		}
		r.DueAt = in.DueAt.UTC()
	}

	r.Tags = tagsFor(r.Title, r.Description)
	r.UpdatedAt = now

	ok, err := s.Store.ApplyEdit(ctx, r)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Lost the race with a sweep or another request; the record is no
		// longer active.
		return nil, ErrEditWindowClosed
	}
	return r, nil
}

// SoftDelete moves an active reminder to trash, under the same guard window
// as Edit.
func (s *Service) SoftDelete(ctx context.Context, userID uint64, id string) (*Reminder, error) {
	r, err := s.Store.FindByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	now := s.Now()
	if !r.CanEdit(now, s.EditGuard) {
		return nil, ErrEditWindowClosed
	}

	ok, err := s.Store.MarkDeleted(ctx, userID, id, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrEditWindowClosed
	}
	r.Status = StatusDeleted
	r.UpdatedAt = now
	return r, nil
}

// Complete transitions active -> completed and stamps CompletedAt. Unlike
// Edit and SoftDelete it is not guarded by the edit window: completing is
// always allowed while the record is active. Completing an already
// completed reminder is a no-op.
func (s *Service) Complete(ctx context.Context, userID uint64, id string) (*Reminder, error) {
	r, err := s.Store.FindByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	now := s.Now()
	ok, err := s.Store.CompleteIfActive(ctx, r.ID, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		cur, err := s.Store.FindByID(ctx, userID, id)
		if err != nil {
			return nil, err
		}
		if cur.Status == StatusCompleted {
			return cur, nil
		}
		// Trashed records cannot be completed.
		return nil, ErrNotFound
	}

	r.Status = StatusCompleted
	completedAt := now
	r.CompletedAt = &completedAt
	r.UpdatedAt = now
	return r, nil
}

// PermanentlyDelete removes a trashed reminder for good. Records in any
// other status are refused.
func (s *Service) PermanentlyDelete(ctx context.Context, userID uint64, id string) error {
	r, err := s.Store.FindByID(ctx, userID, id)
	if err != nil {
		return err
	}
	if r.Status != StatusDeleted {
		return ErrNotInTrash
	}

	ok, err := s.Store.HardDelete(ctx, userID, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotInTrash
	}
	return nil
}

func (s *Service) Stats(ctx context.Context, userID uint64) (Stats, error) {
	return s.Store.CountStats(ctx, userID, s.Now())
}

func (s *Service) TagCounts(ctx context.Context, userID uint64, limit int) ([]TagCount, error) {
	return s.Store.TagCounts(ctx, userID, limit)
}
