package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pocketledger/internal/config"
)

// Record is the single table behind the GORM-backed store.
type Record struct {
	Key       string `gorm:"primaryKey;size:64"`
	Value     string
	UpdatedAt time.Time
}

// TableName keeps the table name stable regardless of pluralization rules.
func (Record) TableName() string { return "kv_records" }

// GormStore is a Store backed by a relational database through GORM.
// The driver (sqlite or postgres) is selected by configuration.
type GormStore struct {
	db *gorm.DB
}

var _ Store = (*GormStore)(nil)

// NewGormStore opens the configured database and migrates the kv table.
func NewGormStore(cfg *config.Config) (*GormStore, error) {
	var dialector gorm.Dialector
	switch cfg.StorageDriver {
	case config.DriverPostgres:
		dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSSLMode)
		dialector = postgres.Open(dsn)
	default:
		dialector = sqlite.Open(cfg.StoragePath)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open durable store: %w", err)
	}

	return NewGormStoreWithDB(db)
}

// NewGormStoreWithDB wraps an already-open GORM handle. Used by tests
// to run against an in-memory database.
func NewGormStoreWithDB(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&Record{}); err != nil {
		return nil, fmt.Errorf("failed to migrate durable store: %w", err)
	}
	return &GormStore{db: db}, nil
}

// Get returns the value stored under key, if any.
func (s *GormStore) Get(ctx context.Context, key string) (string, bool, error) {
	var rec Record
	err := s.db.WithContext(ctx).First(&rec, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return rec.Value, true, nil
}

// Set upserts the value under key.
func (s *GormStore) Set(ctx context.Context, key, value string) error {
	rec := Record{Key: key, Value: value}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&rec).Error
}

// Remove deletes the key. Absent keys delete zero rows, which is fine.
func (s *GormStore) Remove(ctx context.Context, key string) error {
	return s.db.WithContext(ctx).Delete(&Record{}, "key = ?", key).Error
}

// Close closes the underlying database connection.
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
