package repository

import (
	"context"

	"backend/internal/model"

	"gorm.io/gorm"
)

type CollectionOrderRepository interface {
	Create(ctx context.Context, order *model.CollectionOrder) error
	FindByID(ctx context.Context, id string) (*model.CollectionOrder, error)
	FindByIDWithRecords(ctx context.Context, id string) (*model.CollectionOrder, error)
	List(ctx context.Context, status string, page, limit int) ([]model.CollectionOrder, int64, error)
	UpdateWithVersion(ctx context.Context, id string, expectedVersion int, fields map[string]interface{}) error
}

type collectionOrderRepository struct {
	db *gorm.DB
}

func NewCollectionOrderRepository(db *gorm.DB) CollectionOrderRepository {
	return &collectionOrderRepository{db: db}
}

func (r *collectionOrderRepository) Create(ctx context.Context, order *model.CollectionOrder) error {
	return GetDB(ctx, r.db).Create(order).Error
}

func (r *collectionOrderRepository) FindByID(ctx context.Context, id string) (*model.CollectionOrder, error) {
	var order model.CollectionOrder
	if err := GetDB(ctx, r.db).First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *collectionOrderRepository) FindByIDWithRecords(ctx context.Context, id string) (*model.CollectionOrder, error) {
	var order model.CollectionOrder
	if err := GetDB(ctx, r.db).Preload("Records").First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *collectionOrderRepository) List(ctx context.Context, status string, page, limit int) ([]model.CollectionOrder, int64, error) {
	var orders []model.CollectionOrder
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.CollectionOrder{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.
		Preload("Records").
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

func (r *collectionOrderRepository) UpdateWithVersion(ctx context.Context, id string, expectedVersion int, fields map[string]interface{}) error {
	fields["version"] = expectedVersion + 1

	res := GetDB(ctx, r.db).
		Model(&model.CollectionOrder{}).
		Where("id = ? AND version = ?", id, expectedVersion).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrVersionConflict
	}
	return nil
}
