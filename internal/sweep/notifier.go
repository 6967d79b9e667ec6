// Package sweep runs the periodic background passes over the reminder
// store: the pre-due email notifier and the overdue auto-completer. Each
// sweep owns a ticker loop driven by a context; ticks are handled inline,
// so a slow pass simply delays the next tick instead of overlapping it.
package sweep

import (
	"context"
	"fmt"
	"log"
	"time"

	"ontime/internal/clock"
	"ontime/internal/mail"
	"ontime/internal/reminder"
	"ontime/internal/settings"
)

const DefaultNotifyInterval = time.Minute

// Emails resolves an owner id to the address notifications go to.
type Emails interface {
	EmailFor(ctx context.Context, userID uint64) (string, error)
}

// Notifier finds active, un-notified reminders whose due time has entered
// the owner's notification window and sends each exactly one email, then
// latches the notified flag. A failed send leaves the flag unset so the
// next pass retries; delivery is at-least-once.
type Notifier struct {
	Store    reminder.Store
	Leads    settings.LeadTimes
	Emails   Emails
	Mailer   mail.Mailer
	Now      clock.Clock
	Interval time.Duration
}

func (n *Notifier) interval() time.Duration {
	if n.Interval <= 0 {
		return DefaultNotifyInterval
	}
	return n.Interval
}

func (n *Notifier) now() time.Time {
	if n.Now != nil {
		return n.Now()
	}
	return time.Now()
}

func (n *Notifier) Run(ctx context.Context) {
	ticker := time.NewTicker(n.interval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single pass. Failures on one reminder never abort the
// rest of the candidate set.
func (n *Notifier) RunOnce(ctx context.Context) {
	now := n.now()

	rows, err := n.Store.FindUnnotified(ctx, now)
	if err != nil {
		log.Printf("[notify] query failed: %v", err)
		return
	}

	for _, r := range rows {
		lead := time.Duration(n.Leads.NotificationLeadMinutes(ctx, r.UserID)) * time.Minute
		if !clock.WindowContains(now, r.DueAt, 0, lead) {
			continue
		}

		addr, err := n.Emails.EmailFor(ctx, r.UserID)
		if err != nil {
			log.Printf("[notify] no address for user %d: %v", r.UserID, err)
			continue
		}

		if err := n.Mailer.Send(addr, subjectFor(r), bodyFor(r, now)); err != nil {
			// Left un-notified; the next pass retries.
			log.Printf("[notify] send failed for %q: %v", r.Title, err)
			continue
		}

		ok, err := n.Store.MarkNotified(ctx, r.ID, now)
		if err != nil {
			// Sent but not latched; a duplicate on the next pass is the
			// accepted trade-off.
			log.Printf("[notify] latch failed for %q: %v", r.Title, err)
			continue
		}
		if ok {
			log.Printf("[notify] sent for %q (user %d)", r.Title, r.UserID)
		}
	}
}

func subjectFor(r reminder.Reminder) string {
	return fmt.Sprintf("Reminder: %s", r.Title)
}

func bodyFor(r reminder.Reminder, now time.Time) string {
	desc := r.Description
	if desc == "" {
		desc = "No description"
	}
	return fmt.Sprintf(
		"Your reminder %q is coming up in %d minutes!\n\nDue: %s\nDescription: %s\n\nThank you for using OnTime.",
		r.Title,
		clock.MinutesUntil(now, r.DueAt),
		r.DueAt.Format(time.RFC1123),
		desc,
	)
}
