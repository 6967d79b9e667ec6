package handler

import (
	"net/http"

	"ontime/internal/auth"

	"gorm.io/gorm"
)

type MeHandler struct {
	DB *gorm.DB
}

func (h *MeHandler) Me(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	var u auth.User
	if err := h.DB.First(&u, uid).Error; err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	writeJSON(w, map[string]any{
		"id":       u.ID,
		"username": u.Username,
		"email":    u.Email,
	})
}
