package sweep

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ontime/internal/reminder"
	"ontime/internal/settings"
)

type sentMail struct {
	To      string
	Subject string
	Body    string
}

type fakeMailer struct {
	sent []sentMail
	fail bool
}

func (m *fakeMailer) Send(to, subject, body string) error {
	if m.fail {
		return errors.New("smtp down")
	}
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

type fixedEmails map[uint64]string

func (f fixedEmails) EmailFor(_ context.Context, userID uint64) (string, error) {
	addr, ok := f[userID]
	if !ok {
		return "", fmt.Errorf("unknown user %d", userID)
	}
	return addr, nil
}

type fixture struct {
	store  *reminder.MemStore
	svc    *reminder.Service
	mailer *fakeMailer
	now    time.Time
}

func newFixture(now time.Time) *fixture {
	f := &fixture{store: reminder.NewMemStore(), mailer: &fakeMailer{}, now: now}
	f.svc = reminder.NewService(f.store, func() time.Time { return f.now }, reminder.DefaultEditGuard)
	return f
}

func (f *fixture) notifier(leads settings.LeadTimes) *Notifier {
	return &Notifier{
		Store:  f.store,
		Leads:  leads,
		Emails: fixedEmails{1: "one@example.com", 2: "two@example.com"},
		Mailer: f.mailer,
		Now:    func() time.Time { return f.now },
	}
}

func (f *fixture) autoCompleter() *AutoCompleter {
	return &AutoCompleter{Store: f.store, Now: func() time.Time { return f.now }}
}

func (f *fixture) create(t *testing.T, userID uint64, title string, dueAt time.Time) *reminder.Reminder {
	t.Helper()
	r, err := f.svc.Create(context.Background(), userID, reminder.CreateInput{Title: title, DueAt: dueAt})
	require.NoError(t, err)
	return r
}

var start = time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)

func TestNotifierSendsOnceInsideWindow(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(start)

	r := f.create(t, 1, "Pay bill", start.Add(10*time.Minute))
	n := f.notifier(settings.FixedLeadTimes{1: 30})

	n.RunOnce(ctx)
	require.Len(t, f.mailer.sent, 1)
	assert.Equal(t, "one@example.com", f.mailer.sent[0].To)
	assert.Equal(t, "Reminder: Pay bill", f.mailer.sent[0].Subject)
	assert.Contains(t, f.mailer.sent[0].Body, "10 minutes")

	got, err := f.store.FindByID(ctx, 1, r.ID)
	require.NoError(t, err)
	assert.True(t, got.Notified)

	// A later pass must not send again.
	f.now = start.Add(11 * time.Minute)
	n.RunOnce(ctx)
	assert.Len(t, f.mailer.sent, 1)
}

func TestNotifierRespectsPerOwnerLead(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(start)

	f.create(t, 1, "soon enough", start.Add(10*time.Minute))
	f.create(t, 2, "still far off", start.Add(10*time.Minute))

	// User 2 only wants a 5 minute heads-up.
	n := f.notifier(settings.FixedLeadTimes{1: 30, 2: 5})
	n.RunOnce(ctx)

	require.Len(t, f.mailer.sent, 1)
	assert.Equal(t, "one@example.com", f.mailer.sent[0].To)

	// Once inside user 2's window the send goes out.
	f.now = start.Add(6 * time.Minute)
	n.RunOnce(ctx)
	require.Len(t, f.mailer.sent, 2)
	assert.Equal(t, "two@example.com", f.mailer.sent[1].To)
}

func TestNotifierSkipsOutsideWindow(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(start)

	f.create(t, 1, "next week", start.Add(7*24*time.Hour))
	n := f.notifier(settings.FixedLeadTimes{1: 30})

	n.RunOnce(ctx)
	assert.Empty(t, f.mailer.sent)
}

func TestNotifierSkipsTrashedReminders(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(start)

	r := f.create(t, 1, "gone", start.Add(10*time.Minute))
	_, err := f.svc.SoftDelete(ctx, 1, r.ID)
	require.NoError(t, err)

	f.notifier(settings.FixedLeadTimes{1: 30}).RunOnce(ctx)
	assert.Empty(t, f.mailer.sent)
}

func TestNotifierRetriesAfterSendFailure(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(start)

	r := f.create(t, 1, "flaky", start.Add(10*time.Minute))
	n := f.notifier(settings.FixedLeadTimes{1: 30})

	f.mailer.fail = true
	n.RunOnce(ctx)

	got, err := f.store.FindByID(ctx, 1, r.ID)
	require.NoError(t, err)
	assert.False(t, got.Notified, "failed send must not latch the flag")

	f.mailer.fail = false
	f.now = start.Add(time.Minute)
	n.RunOnce(ctx)

	require.Len(t, f.mailer.sent, 1)
	got, err = f.store.FindByID(ctx, 1, r.ID)
	require.NoError(t, err)
	assert.True(t, got.Notified)
}

func TestNotifierIsolatesPerReminderFailures(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(start)

	// User 3 has no address; user 1's reminder must still go out.
	f.create(t, 3, "orphan", start.Add(5*time.Minute))
	f.create(t, 1, "fine", start.Add(10*time.Minute))

	f.notifier(settings.FixedLeadTimes{}).RunOnce(ctx)

	require.Len(t, f.mailer.sent, 1)
	assert.Equal(t, "one@example.com", f.mailer.sent[0].To)
}

func TestAutoCompleteSweep(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(start)

	overdue := f.create(t, 1, "overdue", start.Add(time.Second))
	upcoming := f.create(t, 1, "upcoming", start.Add(time.Hour))

	f.now = start.Add(2 * time.Second)
	a := f.autoCompleter()
	a.RunOnce(ctx)

	got, err := f.store.FindByID(ctx, 1, overdue.ID)
	require.NoError(t, err)
	assert.Equal(t, reminder.StatusCompleted, got.Status)
	require.NotNil(t, got.CompletedAt)
	assert.True(t, got.CompletedAt.Equal(f.now))

	still, err := f.store.FindByID(ctx, 1, upcoming.ID)
	require.NoError(t, err)
	assert.Equal(t, reminder.StatusActive, still.Status)

	// Re-running immediately is a no-op for the completed record.
	firstCompletedAt := *got.CompletedAt
	f.now = start.Add(time.Minute)
	a.RunOnce(ctx)
	got, err = f.store.FindByID(ctx, 1, overdue.ID)
	require.NoError(t, err)
	assert.True(t, got.CompletedAt.Equal(firstCompletedAt))
}

// Full pass through the lifecycle: create at 09:00 due 10:00, notified at
// 09:35 with a 30 minute lead, auto-completed just after 10:00.
func TestLifecycleScenario(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC))

	r := f.create(t, 1, "Pay bill", time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC))
	assert.Equal(t, reminder.StatusActive, r.Status)

	n := f.notifier(settings.FixedLeadTimes{1: 30})
	a := f.autoCompleter()

	f.now = time.Date(2025, 1, 1, 9, 35, 0, 0, time.UTC)
	n.RunOnce(ctx)
	a.RunOnce(ctx)

	got, err := f.store.FindByID(ctx, 1, r.ID)
	require.NoError(t, err)
	assert.True(t, got.Notified)
	assert.Equal(t, reminder.StatusActive, got.Status)
	require.Len(t, f.mailer.sent, 1)

	f.now = time.Date(2025, 1, 1, 10, 0, 1, 0, time.UTC)
	n.RunOnce(ctx)
	a.RunOnce(ctx)

	got, err = f.store.FindByID(ctx, 1, r.ID)
	require.NoError(t, err)
	assert.Equal(t, reminder.StatusCompleted, got.Status)
	require.NotNil(t, got.CompletedAt)
	assert.True(t, got.CompletedAt.Equal(f.now))
	assert.Len(t, f.mailer.sent, 1, "no second send after completion")
}
