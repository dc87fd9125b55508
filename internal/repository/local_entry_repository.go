package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"kanban-sync/internal/domain"
)

// ErrEntryNotFound is returned when a key has no stored value
var ErrEntryNotFound = errors.New("local entry not found")

// LocalEntryRepository is the on-device key to JSON value store
type LocalEntryRepository interface {
	Get(ctx context.Context, key string, dst any) error
	Put(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, key string) error
}

// localEntryRepositoryImpl is the GORM implementation of LocalEntryRepository
type localEntryRepositoryImpl struct {
	db *gorm.DB
}

// NewLocalEntryRepository creates a new instance of LocalEntryRepository
func NewLocalEntryRepository(db *gorm.DB) LocalEntryRepository {
	return &localEntryRepositoryImpl{db: db}
}

// Get decodes the value stored under key into dst
func (r *localEntryRepositoryImpl) Get(ctx context.Context, key string, dst any) error {
	var entry domain.LocalEntry
	if err := r.db.WithContext(ctx).First(&entry, "key = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrEntryNotFound
		}
		return err
	}
	if err := json.Unmarshal(entry.Value, dst); err != nil {
		return fmt.Errorf("failed to decode local entry %s: %w", key, err)
	}
	return nil
}

// Put stores value under key, replacing any previous value
func (r *localEntryRepositoryImpl) Put(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode local entry %s: %w", key, err)
	}
	entry := domain.LocalEntry{Key: key, Value: datatypes.JSON(raw)}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&entry).Error
}

// Delete removes the value stored under key
func (r *localEntryRepositoryImpl) Delete(ctx context.Context, key string) error {
	return r.db.WithContext(ctx).Delete(&domain.LocalEntry{}, "key = ?", key).Error
}
