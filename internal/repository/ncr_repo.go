package repository

import (
	"context"

	"backend/internal/model"

	"gorm.io/gorm"
)

type NCRRepository interface {
	Create(ctx context.Context, ncr *model.NCRRecord) error
	FindByID(ctx context.Context, id string) (*model.NCRRecord, error)
	List(ctx context.Context, page, limit int) ([]model.NCRRecord, int64, error)
}

type ncrRepository struct {
	db *gorm.DB
}

func NewNCRRepository(db *gorm.DB) NCRRepository {
	return &ncrRepository{db: db}
}

func (r *ncrRepository) Create(ctx context.Context, ncr *model.NCRRecord) error {
	return GetDB(ctx, r.db).Create(ncr).Error
}

func (r *ncrRepository) FindByID(ctx context.Context, id string) (*model.NCRRecord, error) {
	var ncr model.NCRRecord
	if err := GetDB(ctx, r.db).Preload("Reporter").First(&ncr, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &ncr, nil
}

func (r *ncrRepository) List(ctx context.Context, page, limit int) ([]model.NCRRecord, int64, error) {
	var ncrs []model.NCRRecord
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.NCRRecord{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.
		Preload("Reporter").
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&ncrs).Error; err != nil {
		return nil, 0, err
	}

	return ncrs, total, nil
}
