package http

import (
	"net/http"

	"ontime/internal/auth"
	"ontime/internal/config"
	"ontime/internal/http/handler"
	mw "ontime/internal/http/middleware"
	"ontime/internal/mail"
	"ontime/internal/reminder"
	"ontime/internal/settings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"gorm.io/gorm"
)

func NewRouter(cfg config.Config, db *gorm.DB, jwtSvc *auth.JWT, svc *reminder.Service, mailer mail.Mailer) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(mw.CORS(cfg.CORSAllowedOrigins, cfg.CORSAllowCredentials))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	ah := &handler.AuthHandler{DB: db, JWT: jwtSvc, Mailer: mailer}
	r.Post("/auth/register", ah.Register)
	r.Post("/auth/verify", ah.VerifyEmail)
	r.Post("/auth/resend-otp", ah.ResendOTP)
	r.Post("/auth/login", ah.Login)
	r.Post("/auth/forgot-password", ah.ForgotPassword)
	r.Post("/auth/reset-password", ah.ResetPassword)

	me := &handler.MeHandler{DB: db}
	r.With(auth.RequireAuth(jwtSvc)).Get("/me", me.Me)

	rh := &handler.ReminderHandler{Svc: svc, UTCOffsetMinutes: cfg.UTCOffsetMinutes}
	read := &handler.ReminderReadHandler{Write: rh}

	r.Route("/reminders", func(r chi.Router) {
		r.Use(auth.RequireAuth(jwtSvc))

		r.Post("/", rh.Create)
		r.Get("/", read.List)
		r.Get("/stats", read.Stats)
		r.Get("/tags", read.Tags)

		r.Get("/{id}", read.Get)
		r.Put("/{id}", rh.Update)
		r.Put("/{id}/complete", rh.Complete)
		r.Delete("/{id}", rh.SoftDelete)
		r.Delete("/{id}/permanent", rh.PermanentDelete)
	})

	sh := &handler.SettingsHandler{Store: &settings.Store{DB: db}}
	r.Route("/settings", func(r chi.Router) {
		r.Use(auth.RequireAuth(jwtSvc))
		r.Get("/", sh.Get)
		r.Put("/", sh.Update)
	})

	return r
}
