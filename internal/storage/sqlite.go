package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"scratchcard/internal/models"
)

// ClientRecord is one persisted key-value row.
type ClientRecord struct {
	RecordKey string `gorm:"primaryKey;column:record_key;type:varchar(255)"`
	Value     []byte `gorm:"not null"`
	UpdatedAt time.Time
}

// TableName sets the gorm table name.
func (ClientRecord) TableName() string { return "client_records" }

// SQLiteStore persists records through gorm.
type SQLiteStore struct {
	db *gorm.DB
}

// NewSQLiteStore opens (and migrates) the sqlite database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		path = "scratchcard.db"
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return NewGormStore(db)
}

// NewGormStore wraps an existing gorm handle.
func NewGormStore(db *gorm.DB) (*SQLiteStore, error) {
	if err := db.AutoMigrate(&ClientRecord{}); err != nil {
		return nil, fmt.Errorf("migrate client records: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Get loads the row of key.
func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, error) {
	var rec ClientRecord
	err := s.db.WithContext(ctx).Take(&rec, "record_key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec.Value, nil
}

// Put upserts the row of key.
func (s *SQLiteStore) Put(ctx context.Context, key string, value []byte) error {
	rec := ClientRecord{RecordKey: key, Value: value, UpdatedAt: time.Now()}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "record_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&rec).Error
}

// Delete removes the row of key.
func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	return s.db.WithContext(ctx).Where("record_key = ?", key).Delete(&ClientRecord{}).Error
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
