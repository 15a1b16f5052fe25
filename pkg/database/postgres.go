package database

import (
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Options configures the connection pool and SQL logging.
type Options struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	LogLevel        logger.LogLevel
}

// ConnectDB opens the Postgres store. The returned handle is passed explicitly
// to every repository and service; nothing keeps a package level connection.
func ConnectDB(opts Options) (*gorm.DB, error) {
	if opts.LogLevel == 0 {
		opts.LogLevel = logger.Warn
	}

	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  opts.LogLevel,
			IgnoreRecordNotFoundError: true,
			Colorful:                  opts.LogLevel == logger.Info,
		},
	)

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  opts.DSN,
		PreferSimpleProtocol: true, // Disables implicit prepared statements for transaction-mode poolers
	}), &gorm.Config{
		Logger:      newLogger,
		PrepareStmt: false,
		NowFunc:     func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(opts.ConnMaxLifetime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return db, nil
}

// SetLockTimeout bounds row-lock waits for the rest of the transaction tx.
// Dialects without lock timeouts (SQLite in tests) are left untouched.
func SetLockTimeout(tx *gorm.DB, d time.Duration) error {
	if d <= 0 || tx.Dialector.Name() != "postgres" {
		return nil
	}
	return tx.Exec(fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", d.Milliseconds())).Error
}
