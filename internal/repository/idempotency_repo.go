package repository

import (
	"context"
	"errors"

	"backend/internal/model"

	"gorm.io/gorm"
)

// IdempotencyRepository claims idempotency keys for multi-step operations.
type IdempotencyRepository interface {
	// Claim inserts the key and reports whether this caller won it. When the
	// key already exists the stored row is returned so the caller can answer
	// with the previously applied result.
	Claim(ctx context.Context, key, operation, entityID string) (bool, *model.IdempotencyKey, error)
	// SetEntity stores the id of the entity an operation created, for keys
	// claimed before the entity existed.
	SetEntity(ctx context.Context, key, entityID string) error
}

type idempotencyRepository struct {
	db *gorm.DB
}

func NewIdempotencyRepository(db *gorm.DB) IdempotencyRepository {
	return &idempotencyRepository{db: db}
}

func (r *idempotencyRepository) Claim(ctx context.Context, key, operation, entityID string) (bool, *model.IdempotencyKey, error) {
	db := GetDB(ctx, r.db)

	entry := model.IdempotencyKey{Key: key, Operation: operation, EntityID: entityID}
	err := db.Create(&entry).Error
	if err == nil {
		return true, &entry, nil
	}
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		return false, nil, err
	}

	var existing model.IdempotencyKey
	if findErr := db.First(&existing, "key = ?", key).Error; findErr != nil {
		return false, nil, findErr
	}
	return false, &existing, nil
}

func (r *idempotencyRepository) SetEntity(ctx context.Context, key, entityID string) error {
	return GetDB(ctx, r.db).
		Model(&model.IdempotencyKey{}).
		Where("key = ?", key).
		Update("entity_id", entityID).Error
}
