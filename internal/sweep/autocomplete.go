package sweep

import (
	"context"
	"log"
	"time"

	"ontime/internal/clock"
	"ontime/internal/reminder"
)

const DefaultAutoCompleteInterval = 5 * time.Minute

// AutoCompleter moves overdue active reminders to completed. It runs on its
// own interval, independent of the notifier; because its query is scoped to
// active records, re-running it is a no-op for anything already handled.
type AutoCompleter struct {
	Store    reminder.Store
	Now      clock.Clock
	Interval time.Duration
}

func (a *AutoCompleter) interval() time.Duration {
	if a.Interval <= 0 {
		return DefaultAutoCompleteInterval
	}
	return a.Interval
}

func (a *AutoCompleter) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

func (a *AutoCompleter) Run(ctx context.Context) {
	ticker := time.NewTicker(a.interval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.RunOnce(ctx)
		}
	}
}

func (a *AutoCompleter) RunOnce(ctx context.Context) {
	now := a.now()

	rows, err := a.Store.FindOverdue(ctx, now)
	if err != nil {
		log.Printf("[autocomplete] query failed: %v", err)
		return
	}

	for _, r := range rows {
		if !clock.IsPast(now, r.DueAt) {
			continue
		}
		ok, err := a.Store.CompleteIfActive(ctx, r.ID, now)
		if err != nil {
			log.Printf("[autocomplete] update failed for %q: %v", r.Title, err)
			continue
		}
		if ok {
			log.Printf("[autocomplete] completed overdue %q (user %d)", r.Title, r.UserID)
		}
	}
}
