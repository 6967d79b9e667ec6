package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"ontime/internal/auth"
	"ontime/internal/reminder"

	"github.com/go-chi/chi/v5"
)

// ReminderReadHandler serves the list/detail/aggregate views.
type ReminderReadHandler struct {
	Write *ReminderHandler
}

func (h *ReminderReadHandler) svc() *reminder.Service { return h.Write.Svc }

// List returns the owner's reminders in one status bucket, active by
// default. Active rows carry the can_edit / minutes_until decorations the
// dashboard renders.
func (h *ReminderReadHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	status := reminder.StatusActive
	switch strings.TrimSpace(strings.ToLower(r.URL.Query().Get("status"))) {
	case "", "active":
	case "completed":
		status = reminder.StatusCompleted
	case "deleted":
		status = reminder.StatusDeleted
	default:
		http.Error(w, "invalid status", http.StatusBadRequest)
		return
	}

	rows, err := h.svc().List(r.Context(), uid, status)
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	out := make([]reminderDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, h.Write.dto(row))
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

func (h *ReminderReadHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	row, err := h.svc().Get(r.Context(), uid, chi.URLParam(r, "id"))
	if err != nil {
		writeReminderErr(w, err)
		return
	}
	writeJSON(w, h.Write.dto(*row))
}

func (h *ReminderReadHandler) Stats(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	st, err := h.svc().Stats(r.Context(), uid)
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, st)
}

func (h *ReminderReadHandler) Tags(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	limit := 50
	if v := strings.TrimSpace(r.URL.Query().Get("limit")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	out, err := h.svc().TagCounts(r.Context(), uid, limit)
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, out)
}
