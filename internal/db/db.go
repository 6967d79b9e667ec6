package db

import (
	"fmt"

	"ontime/internal/auth"
	"ontime/internal/reminder"
	"ontime/internal/settings"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Connect(dsn string) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	return gdb, nil
}

func AutoMigrateAndIndexes(gdb *gorm.DB) error {
	// Tables
	if err := gdb.AutoMigrate(
		&auth.User{},
		&reminder.Reminder{},
		&settings.Setting{},
	); err != nil {
		return err
	}

	// Tag filter (GIN for text[])
	if err := gdb.Exec(`create index if not exists idx_reminders_tags on reminders using gin (tags);`).Error; err != nil {
		return err
	}

	// Sweep and listing indexes. The two partial indexes match the sweep
	// predicates exactly.
	stmts := []string{
		`create index if not exists idx_reminders_user_status on reminders(user_id, status);`,
		`create index if not exists idx_reminders_unnotified on reminders(due_at) where status = 'active' and notified = false;`,
		`create index if not exists idx_reminders_overdue on reminders(due_at) where status = 'active';`,
	}
	for _, s := range stmts {
		if err := gdb.Exec(s).Error; err != nil {
			return fmt.Errorf("index exec failed: %w (sql=%s)", err, s)
		}
	}

	return nil
}
