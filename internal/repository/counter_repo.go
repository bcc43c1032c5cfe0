package repository

import (
	"context"

	"gorm.io/gorm"
)

// CounterRepository hands out running-number sequence values. Next is atomic
// per scope: the upsert bumps the counter row and returns the new value in
// one statement, so concurrent allocators can never see the same number.
type CounterRepository interface {
	Next(ctx context.Context, scope string) (int64, error)
}

type counterRepository struct {
	db *gorm.DB
}

func NewCounterRepository(db *gorm.DB) CounterRepository {
	return &counterRepository{db: db}
}

func (r *counterRepository) Next(ctx context.Context, scope string) (int64, error) {
	var value int64
	err := GetDB(ctx, r.db).Raw(`
		INSERT INTO sequence_counters (scope, value, updated_at)
		VALUES (?, 1, NOW())
		ON CONFLICT (scope)
		DO UPDATE SET value = sequence_counters.value + 1, updated_at = NOW()
		RETURNING value
	`, scope).Scan(&value).Error
	if err != nil {
		return 0, err
	}
	return value, nil
}
