package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ontime/internal/auth"
	"ontime/internal/config"
	"ontime/internal/db"
	httpx "ontime/internal/http"
	"ontime/internal/mail"
	"ontime/internal/reminder"
	"ontime/internal/settings"
	"ontime/internal/sweep"
)

func main() {
	cfg, _ := config.Load()

	gdb, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	if err := db.AutoMigrateAndIndexes(gdb); err != nil {
		log.Fatal(err)
	}

	var mailer mail.Mailer = mail.LogMailer{}
	if cfg.SMTPHost != "" {
		mailer = mail.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom)
	}

	store := &reminder.GormStore{DB: gdb}
	svc := reminder.NewService(store, time.Now, cfg.EditGuardWindow)

	jwtSvc := auth.NewJWT(cfg.JWTSecret)
	r := httpx.NewRouter(cfg, gdb, jwtSvc, svc, mailer)

	// background sweeps
	notifier := &sweep.Notifier{
		Store:    store,
		Leads:    &settings.Store{DB: gdb},
		Emails:   &auth.Directory{DB: gdb},
		Mailer:   mailer,
		Now:      time.Now,
		Interval: cfg.NotifyInterval,
	}
	completer := &sweep.AutoCompleter{
		Store:    store,
		Now:      time.Now,
		Interval: cfg.AutoCompleteInterval,
	}

	ctx, cancel := context.WithCancel(context.Background())
	go notifier.Run(ctx)
	go completer.Run(ctx)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("listening on %s\n", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	// graceful shutdown
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	<-ch

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
}
