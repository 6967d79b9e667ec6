package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"ontime/internal/auth"
	"ontime/internal/settings"
)

type SettingsHandler struct {
	Store *settings.Store
}

func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	st, err := h.Store.Get(r.Context(), uid)
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, st)
}

func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	var in settings.UpdateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	st, err := h.Store.Update(r.Context(), uid, in)
	if err != nil {
		if errors.Is(err, settings.ErrInvalidSetting) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, st)
}
