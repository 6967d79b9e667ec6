package reminder

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemStore is an in-memory Store with the same per-record atomicity as the
// Postgres implementation. Tests use it to drive the lifecycle and the
// sweeps deterministically.
type MemStore struct {
	mu      sync.Mutex
	records map[string]Reminder
}

var _ Store = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return &MemStore{records: make(map[string]Reminder)}
}

func (s *MemStore) Create(_ context.Context, r *Reminder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[r.ID] = *r
	return nil
}

func (s *MemStore) Find(_ context.Context, userID uint64, status Status) ([]Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rows []Reminder
	for _, r := range s.records {
		if r.UserID == userID && r.Status == status {
			rows = append(rows, r)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].DueAt.Before(rows[j].DueAt) })
	return rows, nil
}

func (s *MemStore) FindByID(_ context.Context, userID uint64, id string) (*Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[id]
	if !ok || r.UserID != userID {
		return nil, ErrNotFound
	}
	return &r, nil
}

func (s *MemStore) ApplyEdit(_ context.Context, upd *Reminder) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[upd.ID]
	if !ok || r.UserID != upd.UserID || r.Status != StatusActive {
		return false, nil
	}
	r.Title = upd.Title
	r.Description = upd.Description
	r.DueAt = upd.DueAt
	r.Tags = upd.Tags
	r.EditHistory = upd.EditHistory
	r.UpdatedAt = upd.UpdatedAt
	s.records[upd.ID] = r
	return true, nil
}

func (s *MemStore) MarkDeleted(_ context.Context, userID uint64, id string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[id]
	if !ok || r.UserID != userID || r.Status != StatusActive {
		return false, nil
	}
	r.Status = StatusDeleted
	r.UpdatedAt = now
	s.records[id] = r
	return true, nil
}

func (s *MemStore) CompleteIfActive(_ context.Context, id string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[id]
	if !ok || r.Status != StatusActive {
		return false, nil
	}
	r.Status = StatusCompleted
	completedAt := now
	r.CompletedAt = &completedAt
	r.UpdatedAt = now
	s.records[id] = r
	return true, nil
}

func (s *MemStore) MarkNotified(_ context.Context, id string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[id]
	if !ok || r.Status != StatusActive || r.Notified {
		return false, nil
	}
	r.Notified = true
	r.UpdatedAt = now
	s.records[id] = r
	return true, nil
}

func (s *MemStore) HardDelete(_ context.Context, userID uint64, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[id]
	if !ok || r.UserID != userID || r.Status != StatusDeleted {
		return false, nil
	}
	delete(s.records, id)
	return true, nil
}

func (s *MemStore) FindUnnotified(_ context.Context, now time.Time) ([]Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rows []Reminder
	for _, r := range s.records {
		if r.Status == StatusActive && !r.Notified && !r.DueAt.Before(now) {
			rows = append(rows, r)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].DueAt.Before(rows[j].DueAt) })
	return rows, nil
}

func (s *MemStore) FindOverdue(_ context.Context, now time.Time) ([]Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rows []Reminder
	for _, r := range s.records {
		if r.Status == StatusActive && r.DueAt.Before(now) {
			rows = append(rows, r)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].DueAt.Before(rows[j].DueAt) })
	return rows, nil
}

func (s *MemStore) CountStats(_ context.Context, userID uint64, now time.Time) (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	var st Stats
	for _, r := range s.records {
		if r.UserID != userID {
			continue
		}
		switch r.Status {
		case StatusActive:
			st.Active++
			if r.DueAt.Before(now) {
				st.Overdue++
			}
			if !r.DueAt.Before(dayStart) && r.DueAt.Before(dayEnd) {
				st.Today++
			}
		case StatusCompleted:
			st.Completed++
		case StatusDeleted:
			st.Deleted++
		}
	}
	return st, nil
}

func (s *MemStore) TagCounts(_ context.Context, userID uint64, limit int) ([]TagCount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 || limit > 200 {
		limit = 50
	}

	counts := map[string]int64{}
	for _, r := range s.records {
		if r.UserID != userID || r.Status != StatusActive {
			continue
		}
		for _, t := range r.Tags {
			counts[t]++
		}
	}

	out := make([]TagCount, 0, len(counts))
	for tag, n := range counts {
		out = append(out, TagCount{Tag: tag, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Tag < out[j].Tag
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
