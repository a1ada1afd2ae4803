package postgres

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/seu-repo/sigec-route/internal/domain"
)

// Options tunes the connection pool
type Options struct {
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	Debug           bool
}

// NewConnection initializes a new PostgreSQL connection using GORM
func NewConnection(url string, opts Options, log *zap.Logger) (*gorm.DB, error) {
	level := logger.Warn
	if opts.Debug {
		level = logger.Info
	}

	db, err := gorm.Open(postgres.Open(url), &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	if opts.MaxIdleConns <= 0 {
		opts.MaxIdleConns = 10
	}
	if opts.MaxOpenConns <= 0 {
		opts.MaxOpenConns = 100
	}
	sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	if opts.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	log.Info("Successfully connected to PostgreSQL",
		zap.Int("max_idle_conns", opts.MaxIdleConns),
		zap.Int("max_open_conns", opts.MaxOpenConns),
	)
	return db, nil
}

// RunMigrations creates the station catalog and saved trip tables
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(&stationRecord{}, &chargerRecord{}, &domain.Trip{}); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Close closes the underlying sql.DB
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
