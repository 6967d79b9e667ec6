package reminder

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)

func newTestService(now time.Time) (*Service, *time.Time) {
	cur := now
	svc := NewService(NewMemStore(), func() time.Time { return cur }, DefaultEditGuard)
	return svc, &cur
}

func mustCreate(t *testing.T, svc *Service, userID uint64, title string, dueAt time.Time) *Reminder {
	t.Helper()
	r, err := svc.Create(context.Background(), userID, CreateInput{Title: title, DueAt: dueAt})
	require.NoError(t, err)
	return r
}

func TestCreate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newTestService(baseTime)

	r := mustCreate(t, svc, 1, "Pay bill", baseTime.Add(time.Hour))
	assert.NotEmpty(t, r.ID)
	assert.Equal(t, StatusActive, r.Status)
	assert.False(t, r.Notified)
	assert.Nil(t, r.CompletedAt)
	assert.Empty(t, r.EditHistory)

	got, err := svc.Get(ctx, 1, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "Pay bill", got.Title)

	// Owner scoping.
	_, err = svc.Get(ctx, 2, r.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateRejectsPastDue(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newTestService(baseTime)

	_, err := svc.Create(ctx, 1, CreateInput{Title: "late", DueAt: baseTime.Add(-time.Second)})
	assert.ErrorIs(t, err, ErrPastDue)

	// Exactly now is still rejected; future must be strict.
	_, err = svc.Create(ctx, 1, CreateInput{Title: "now", DueAt: baseTime})
	assert.ErrorIs(t, err, ErrPastDue)

	_, err = svc.Create(ctx, 1, CreateInput{Title: "soon", DueAt: baseTime.Add(time.Second)})
	assert.NoError(t, err)
}

func TestCreateValidatesTitle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newTestService(baseTime)
	due := baseTime.Add(time.Hour)

	_, err := svc.Create(ctx, 1, CreateInput{Title: "   ", DueAt: due})
	assert.ErrorIs(t, err, ErrTitleRequired)

	long := make([]byte, MaxTitleLen+1)
	for i := range long {
		long[i] = 'a'
	}
	_, err = svc.Create(ctx, 1, CreateInput{Title: string(long), DueAt: due})
	assert.ErrorIs(t, err, ErrTitleTooLong)
}

func TestEditGuardWindow(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, cur := newTestService(baseTime)

	due := baseTime.Add(time.Hour)
	r := mustCreate(t, svc, 1, "A", due)
	newTitle := "B"

	// One second outside the guard window: allowed.
	*cur = due.Add(-DefaultEditGuard - time.Second)
	_, err := svc.Edit(ctx, 1, r.ID, EditInput{Title: &newTitle})
	assert.NoError(t, err)

	// Exactly at the boundary: refused (guard is strict).
	*cur = due.Add(-DefaultEditGuard)
	_, err = svc.Edit(ctx, 1, r.ID, EditInput{Title: &newTitle})
	assert.ErrorIs(t, err, ErrEditWindowClosed)

	// One second inside: refused.
	*cur = due.Add(-DefaultEditGuard + time.Second)
	_, err = svc.Edit(ctx, 1, r.ID, EditInput{Title: &newTitle})
	assert.ErrorIs(t, err, ErrEditWindowClosed)

	// Soft delete shares the same guard.
	_, err = svc.SoftDelete(ctx, 1, r.ID)
	assert.ErrorIs(t, err, ErrEditWindowClosed)
}

func TestEditHistory(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, cur := newTestService(baseTime)

	due := baseTime.Add(time.Hour)
	r := mustCreate(t, svc, 1, "A", due)

	*cur = baseTime.Add(time.Minute)
	title := "B"
	got, err := svc.Edit(ctx, 1, r.ID, EditInput{Title: &title})
	require.NoError(t, err)
	require.Len(t, got.EditHistory, 1)
	assert.Equal(t, "A", got.EditHistory[0].PreviousTitle)
	assert.True(t, got.EditHistory[0].PreviousDueAt.Equal(due))
	assert.True(t, got.EditHistory[0].EditedAt.Equal(*cur))
	assert.True(t, got.UpdatedAt.Equal(*cur))

	// Same title again: no new entry.
	got, err = svc.Edit(ctx, 1, r.ID, EditInput{Title: &title})
	require.NoError(t, err)
	assert.Len(t, got.EditHistory, 1)

	// Description-only change: no new entry, but UpdatedAt refreshes.
	*cur = baseTime.Add(2 * time.Minute)
	desc := "details"
	got, err = svc.Edit(ctx, 1, r.ID, EditInput{Description: &desc})
	require.NoError(t, err)
	assert.Len(t, got.EditHistory, 1)
	assert.Equal(t, "details", got.Description)
	assert.True(t, got.UpdatedAt.Equal(*cur))
}

func TestEditRejectsPastDue(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newTestService(baseTime)

	r := mustCreate(t, svc, 1, "A", baseTime.Add(time.Hour))

	past := baseTime.Add(-time.Minute)
	_, err := svc.Edit(ctx, 1, r.ID, EditInput{DueAt: &past})
	assert.ErrorIs(t, err, ErrPastDue)

	future := baseTime.Add(2 * time.Hour)
	got, err := svc.Edit(ctx, 1, r.ID, EditInput{DueAt: &future})
	require.NoError(t, err)
	assert.True(t, got.DueAt.Equal(future))
}

func TestEditUpdatesTags(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newTestService(baseTime)

	r := mustCreate(t, svc, 1, "Pay #rent", baseTime.Add(time.Hour))
	assert.Equal(t, []string{"rent"}, []string(r.Tags))

	title := "Pay #Rent and #bills"
	got, err := svc.Edit(ctx, 1, r.ID, EditInput{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, []string{"rent", "bills"}, []string(got.Tags))
}

func TestComplete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, cur := newTestService(baseTime)

	due := baseTime.Add(time.Hour)
	r := mustCreate(t, svc, 1, "A", due)

	// Completing inside the edit guard window is still allowed.
	*cur = due.Add(-time.Second)
	got, err := svc.Complete(ctx, 1, r.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
	require.NotNil(t, got.CompletedAt)
	assert.True(t, got.CompletedAt.Equal(*cur))

	// Idempotent: completing again keeps the original timestamp.
	*cur = due.Add(time.Minute)
	again, err := svc.Complete(ctx, 1, r.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, again.Status)
	assert.True(t, again.CompletedAt.Equal(due.Add(-time.Second)))
}

func TestTerminalStatesStayTerminal(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newTestService(baseTime)

	title := "B"

	completed := mustCreate(t, svc, 1, "done soon", baseTime.Add(time.Hour))
	_, err := svc.Complete(ctx, 1, completed.ID)
	require.NoError(t, err)

	_, err = svc.Edit(ctx, 1, completed.ID, EditInput{Title: &title})
	assert.ErrorIs(t, err, ErrEditWindowClosed)
	_, err = svc.SoftDelete(ctx, 1, completed.ID)
	assert.ErrorIs(t, err, ErrEditWindowClosed)

	trashed := mustCreate(t, svc, 1, "trash me", baseTime.Add(time.Hour))
	_, err = svc.SoftDelete(ctx, 1, trashed.ID)
	require.NoError(t, err)

	_, err = svc.Edit(ctx, 1, trashed.ID, EditInput{Title: &title})
	assert.ErrorIs(t, err, ErrEditWindowClosed)
	_, err = svc.Complete(ctx, 1, trashed.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := svc.Get(ctx, 1, trashed.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusDeleted, got.Status)
	assert.Nil(t, got.CompletedAt)
}

func TestPermanentlyDelete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newTestService(baseTime)

	r := mustCreate(t, svc, 1, "A", baseTime.Add(time.Hour))

	// Only trashed records can be removed for good.
	err := svc.PermanentlyDelete(ctx, 1, r.ID)
	assert.ErrorIs(t, err, ErrNotInTrash)

	_, err = svc.SoftDelete(ctx, 1, r.ID)
	require.NoError(t, err)

	require.NoError(t, svc.PermanentlyDelete(ctx, 1, r.ID))

	_, err = svc.Get(ctx, 1, r.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	err = svc.PermanentlyDelete(ctx, 1, r.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStats(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, cur := newTestService(baseTime)

	mustCreate(t, svc, 1, "today", baseTime.Add(time.Hour))
	b := mustCreate(t, svc, 1, "done", baseTime.Add(time.Hour))
	_, err := svc.Complete(ctx, 1, b.ID)
	require.NoError(t, err)
	c := mustCreate(t, svc, 1, "gone", baseTime.Add(time.Hour))
	_, err = svc.SoftDelete(ctx, 1, c.ID)
	require.NoError(t, err)
	mustCreate(t, svc, 1, "overdue", baseTime.Add(time.Minute))

	// Other users never leak into the counts.
	mustCreate(t, svc, 2, "other", baseTime.Add(time.Hour))

	*cur = baseTime.Add(30 * time.Minute)
	st, err := svc.Stats(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, Stats{Active: 2, Completed: 1, Deleted: 1, Today: 2, Overdue: 1}, st)
}

func TestTagCounts(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newTestService(baseTime)

	mustCreate(t, svc, 1, "pay #rent", baseTime.Add(time.Hour))
	mustCreate(t, svc, 1, "pay #rent again #bills", baseTime.Add(2*time.Hour))

	got, err := svc.TagCounts(ctx, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, []TagCount{{Tag: "rent", Count: 2}, {Tag: "bills", Count: 1}}, got)
}

func TestExtractTags(t *testing.T) {
	t.Parallel()

	assert.Nil(t, ExtractTags("no tags here"))
	assert.Equal(t, []string{"a", "b"}, ExtractTags("#a #A", "#b"))
}
