package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"ontime/internal/auth"
	"ontime/internal/clock"
	"ontime/internal/reminder"

	"github.com/go-chi/chi/v5"
)

// ReminderHandler exposes the guarded lifecycle mutations.
type ReminderHandler struct {
	Svc *reminder.Service

	// Offset used when a due time arrives as separate date and HH:MM
	// fields; clients sending RFC3339 carry their own zone.
	UTCOffsetMinutes int
}

type reminderDTO struct {
	ID           string               `json:"id"`
	Title        string               `json:"title"`
	Description  string               `json:"description"`
	DueAt        time.Time            `json:"due_at"`
	Status       reminder.Status      `json:"status"`
	CompletedAt  *time.Time           `json:"completed_at"`
	Notified     bool                 `json:"notified"`
	Tags         []string             `json:"tags"`
	EditHistory  reminder.EditHistory `json:"edit_history"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
	CanEdit      bool                 `json:"can_edit"`
	IsOverdue    bool                 `json:"is_overdue"`
	MinutesUntil int                  `json:"minutes_until"`
}

func (h *ReminderHandler) dto(r reminder.Reminder) reminderDTO {
	now := h.Svc.Now()
	return reminderDTO{
		ID:           r.ID,
		Title:        r.Title,
		Description:  r.Description,
		DueAt:        r.DueAt,
		Status:       r.Status,
		CompletedAt:  r.CompletedAt,
		Notified:     r.Notified,
		Tags:         []string(r.Tags),
		EditHistory:  r.EditHistory,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
		CanEdit:      r.CanEdit(now, h.Svc.EditGuard),
		IsOverdue:    r.IsOverdue(now),
		MinutesUntil: clock.MinutesUntil(now, r.DueAt),
	}
}

type dueFields struct {
	DueAt *string `json:"due_at"` // RFC3339
	Date  *string `json:"date"`   // YYYY-MM-DD, with Time
	Time  *string `json:"time"`   // HH:MM 24-hour
}

// resolveDue normalizes the two wire forms of a due time into one UTC
// instant. Returns nil when neither form was supplied.
func (h *ReminderHandler) resolveDue(f dueFields) (*time.Time, error) {
	if f.DueAt != nil && strings.TrimSpace(*f.DueAt) != "" {
		t, err := time.Parse(time.RFC3339, strings.TrimSpace(*f.DueAt))
		if err != nil {
			return nil, errors.New("invalid due_at (RFC3339)")
		}
		t = t.UTC()
		return &t, nil
	}
	if f.Date != nil && f.Time != nil {
		t, err := clock.Combine(*f.Date, *f.Time, h.UTCOffsetMinutes)
		if err != nil {
			return nil, err
		}
		return &t, nil
	}
	return nil, nil
}

type createReminderReq struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	dueFields
}

func (h *ReminderHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	var req createReminderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	due, err := h.resolveDue(req.dueFields)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if due == nil {
		http.Error(w, "due time is required", http.StatusBadRequest)
		return
	}

	created, err := h.Svc.Create(r.Context(), uid, reminder.CreateInput{
		Title:       req.Title,
		Description: req.Description,
		DueAt:       *due,
	})
	if err != nil {
		writeReminderErr(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(h.dto(*created))
}

type updateReminderReq struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	dueFields
}

func (h *ReminderHandler) Update(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	var req updateReminderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	due, err := h.resolveDue(req.dueFields)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	updated, err := h.Svc.Edit(r.Context(), uid, id, reminder.EditInput{
		Title:       req.Title,
		Description: req.Description,
		DueAt:       due,
	})
	if err != nil {
		writeReminderErr(w, err)
		return
	}
	writeJSON(w, h.dto(*updated))
}

func (h *ReminderHandler) Complete(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	done, err := h.Svc.Complete(r.Context(), uid, chi.URLParam(r, "id"))
	if err != nil {
		writeReminderErr(w, err)
		return
	}
	writeJSON(w, h.dto(*done))
}

func (h *ReminderHandler) SoftDelete(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	trashed, err := h.Svc.SoftDelete(r.Context(), uid, chi.URLParam(r, "id"))
	if err != nil {
		writeReminderErr(w, err)
		return
	}
	writeJSON(w, map[string]any{
		"message":  "reminder moved to trash",
		"reminder": h.dto(*trashed),
	})
}

func (h *ReminderHandler) PermanentDelete(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	if err := h.Svc.PermanentlyDelete(r.Context(), uid, chi.URLParam(r, "id")); err != nil {
		writeReminderErr(w, err)
		return
	}
	writeJSON(w, map[string]any{"message": "reminder permanently deleted"})
}

func writeReminderErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, reminder.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, reminder.ErrEditWindowClosed),
		errors.Is(err, reminder.ErrNotInTrash):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, reminder.ErrPastDue),
		errors.Is(err, reminder.ErrTitleRequired),
		errors.Is(err, reminder.ErrTitleTooLong),
		errors.Is(err, clock.ErrInvalidTimeFormat):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, "server error", http.StatusInternalServerError)
	}
}
