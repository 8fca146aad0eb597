package database

import (
	"fmt"
	"io/fs"
	"sort"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/badurubalaji/msls-sub015/internal/model"
	migrations "github.com/badurubalaji/msls-sub015/migrations/postgres"
	"github.com/badurubalaji/msls-sub015/pkg/config"
)

// Connect opens the postgres connection, applies the pool limits from
// configuration and migrates the schema.
func Connect(cfg *config.Config) (*gorm.DB, error) {
	logLevel := gormlogger.Warn
	if cfg.App.Debug {
		logLevel = gormlogger.Info
	}

	// PreferSimpleProtocol avoids "prepared statement already exists"
	// errors behind pgbouncer-style poolers
	pgConfig := postgres.Config{
		DSN:                  cfg.Database.DSN(),
		PreferSimpleProtocol: true,
	}

	db, err := gorm.Open(postgres.New(pgConfig), &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, err
	}

	// Configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	if cfg.Database.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	}
	if cfg.Database.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	}
	if cfg.Database.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// Migrate creates or updates the table structure for all models, then
// applies the embedded row-level-security DDL. The SQL is idempotent so
// re-running on startup is safe.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Tenant{},
		&model.User{},
		&model.UserTenant{},
		&model.Student{},
		&model.Guardian{},
		&model.Admission{},
		&model.Exam{},
		&model.ExamResult{},
		&model.Document{},
	); err != nil {
		return err
	}

	entries, err := fs.Glob(migrations.FS, "*.sql")
	if err != nil {
		return err
	}
	sort.Strings(entries)
	for _, name := range entries {
		b, err := migrations.FS.ReadFile(name)
		if err != nil {
			return err
		}
		if err := db.Exec(string(b)).Error; err != nil {
			return fmt.Errorf("migration %s: %w", name, err)
		}
	}
	return nil
}

// WithTenant runs fn inside a transaction scoped to one tenant. The first
// statement sets the transaction-local app.tenant_id session variable the
// row-level-security policies read, so every statement fn issues is fenced
// to that tenant and the setting never leaks back to the pooled connection.
func WithTenant(db *gorm.DB, tenantID string, fn func(tx *gorm.DB) error) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT set_config('app.tenant_id', ?, true)", tenantID).Error; err != nil {
			return err
		}
		return fn(tx)
	})
}

// Retry dials the database a few times before giving up; container
// orchestration frequently starts the API before postgres is ready.
func Retry(cfg *config.Config, attempts int, wait time.Duration) (*gorm.DB, error) {
	var db *gorm.DB
	var err error
	for i := 0; i < attempts; i++ {
		db, err = Connect(cfg)
		if err == nil {
			return db, nil
		}
		time.Sleep(wait)
	}
	return nil, err
}
