// Package db opens the database connections the product stores run on.
package db

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"shopnex/internal/config"
)

// OpenPostgres открывает соединение с БД по строке из .env
func OpenPostgres(cfg config.PostgresConfig) (*gorm.DB, error) {
	if cfg.DSN == "" {
		return nil, errors.New("DB_DSN is empty (check your .env)")
	}
	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		Logger: logger.New(slogWriter{}, logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	return db, nil
}

// ClosePostgres закрывает пул соединений
func ClosePostgres(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// slogWriter — логгер gorm поверх slog
type slogWriter struct{}

func (slogWriter) Printf(format string, args ...any) {
	slog.Warn("gorm", "msg", fmt.Sprintf(format, args...))
}
