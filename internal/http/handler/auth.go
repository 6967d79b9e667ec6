package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"

	"ontime/internal/auth"
	"ontime/internal/mail"

	"gorm.io/gorm"
)

var emailRe = regexp.MustCompile(`^[\w.+-]+@[\w-]+(\.[\w-]+)+$`)

type AuthHandler struct {
	DB     *gorm.DB
	JWT    *auth.JWT
	Mailer mail.Mailer
}

type registerReq struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	switch {
	case req.Username == "" || req.Email == "" || req.Password == "":
		http.Error(w, "all fields are required", http.StatusBadRequest)
		return
	case req.Password != req.ConfirmPassword:
		http.Error(w, "passwords do not match", http.StatusBadRequest)
		return
	case len(req.Password) < 6:
		http.Error(w, "password must be at least 6 characters", http.StatusBadRequest)
		return
	case !emailRe.MatchString(req.Email):
		http.Error(w, "invalid email format", http.StatusBadRequest)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	otp := auth.GenerateOTP()
	expires := time.Now().Add(auth.OTPTTL)

	u := auth.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		OTPCode:      &otp,
		OTPExpiresAt: &expires,
	}
	if err := h.DB.Create(&u).Error; err != nil {
		http.Error(w, "user already exists", http.StatusConflict)
		return
	}

	if err := h.Mailer.Send(u.Email, "OnTime - Verify your email",
		"Your OnTime verification code is: "+otp+"\n\nIt expires in 10 minutes."); err != nil {
		log.Printf("[auth] otp mail failed for %s: %v", u.Email, err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"message": "registered, verification code sent",
		"user_id": u.ID,
		"email":   u.Email,
	})
}

type verifyReq struct {
	UserID uint64 `json:"user_id"`
	OTP    string `json:"otp"`
}

func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req verifyReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.UserID == 0 || req.OTP == "" {
		http.Error(w, "user_id and otp are required", http.StatusBadRequest)
		return
	}

	var u auth.User
	if err := h.DB.First(&u, req.UserID).Error; err != nil {
		http.Error(w, "user not found", http.StatusNotFound)
		return
	}
	if u.OTPCode == nil || *u.OTPCode != req.OTP {
		http.Error(w, "invalid code", http.StatusBadRequest)
		return
	}
	if u.OTPExpiresAt == nil || time.Now().After(*u.OTPExpiresAt) {
		http.Error(w, "code expired", http.StatusBadRequest)
		return
	}

	if err := h.DB.Model(&u).Updates(map[string]any{
		"email_verified": true,
		"otp_code":       nil,
		"otp_expires_at": nil,
	}).Error; err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	h.writeToken(w, u)
}

type emailReq struct {
	Email string `json:"email"`
}

func (h *AuthHandler) ResendOTP(w http.ResponseWriter, r *http.Request) {
	var req emailReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	var u auth.User
	if err := h.DB.Where("email = ?", strings.ToLower(strings.TrimSpace(req.Email))).First(&u).Error; err != nil {
		http.Error(w, "user not found", http.StatusNotFound)
		return
	}
	if u.EmailVerified {
		http.Error(w, "email already verified", http.StatusBadRequest)
		return
	}

	otp := auth.GenerateOTP()
	expires := time.Now().Add(auth.OTPTTL)
	if err := h.DB.Model(&u).Updates(map[string]any{
		"otp_code":       otp,
		"otp_expires_at": expires,
	}).Error; err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	if err := h.Mailer.Send(u.Email, "OnTime - Verify your email",
		"Your OnTime verification code is: "+otp+"\n\nIt expires in 10 minutes."); err != nil {
		log.Printf("[auth] otp mail failed for %s: %v", u.Email, err)
		http.Error(w, "failed to send code", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{"message": "verification code sent"})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req registerReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		http.Error(w, "invalid input", http.StatusBadRequest)
		return
	}

	var u auth.User
	if err := h.DB.Where("email = ?", req.Email).First(&u).Error; err != nil {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	if !auth.ComparePassword(u.PasswordHash, req.Password) {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	if !u.EmailVerified {
		http.Error(w, "email not verified", http.StatusForbidden)
		return
	}

	h.writeToken(w, u)
}

func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req emailReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	var u auth.User
	if err := h.DB.Where("email = ?", strings.ToLower(strings.TrimSpace(req.Email))).First(&u).Error; err != nil {
		// Do not reveal which addresses exist.
		writeJSON(w, map[string]any{"message": "if the account exists, a reset code was sent"})
		return
	}

	code := auth.GenerateOTP()
	expires := time.Now().Add(auth.OTPTTL)
	if err := h.DB.Model(&u).Updates(map[string]any{
		"reset_code":       code,
		"reset_expires_at": expires,
	}).Error; err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	if err := h.Mailer.Send(u.Email, "OnTime - Password reset",
		"Your OnTime password reset code is: "+code+"\n\nIt expires in 10 minutes."); err != nil {
		log.Printf("[auth] reset mail failed for %s: %v", u.Email, err)
	}

	writeJSON(w, map[string]any{"message": "if the account exists, a reset code was sent"})
}

type resetReq struct {
	Email       string `json:"email"`
	OTP         string `json:"otp"`
	NewPassword string `json:"new_password"`
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if len(req.NewPassword) < 6 {
		http.Error(w, "password must be at least 6 characters", http.StatusBadRequest)
		return
	}

	var u auth.User
	if err := h.DB.Where("email = ?", strings.ToLower(strings.TrimSpace(req.Email))).First(&u).Error; err != nil {
		http.Error(w, "invalid code", http.StatusBadRequest)
		return
	}
	if u.ResetCode == nil || *u.ResetCode != req.OTP ||
		u.ResetExpiresAt == nil || time.Now().After(*u.ResetExpiresAt) {
		http.Error(w, "invalid code", http.StatusBadRequest)
		return
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	if err := h.DB.Model(&u).Updates(map[string]any{
		"password_hash":    hash,
		"reset_code":       nil,
		"reset_expires_at": nil,
	}).Error; err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{"message": "password updated"})
}

func (h *AuthHandler) writeToken(w http.ResponseWriter, u auth.User) {
	token, err := h.JWT.Sign(u.ID)
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{
		"token": token,
		"user": map[string]any{
			"id":       u.ID,
			"username": u.Username,
			"email":    u.Email,
		},
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
