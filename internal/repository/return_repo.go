package repository

import (
	"context"
	"errors"

	"backend/internal/model"

	"gorm.io/gorm"
)

// ErrVersionConflict is returned when an optimistic-concurrency write finds
// the record already changed by another actor.
var ErrVersionConflict = errors.New("record version conflict")

// ReturnFilter narrows List queries.
type ReturnFilter struct {
	Status      string
	Branch      string
	Disposition string
	Page        int
	Limit       int
}

type ReturnRepository interface {
	Create(ctx context.Context, rec *model.ReturnRecord) error
	FindByID(ctx context.Context, id string) (*model.ReturnRecord, error)
	List(ctx context.Context, filter ReturnFilter) ([]model.ReturnRecord, int64, error)
	ListAll(ctx context.Context) ([]model.ReturnRecord, error)
	ListByCollectionOrder(ctx context.Context, orderID string) ([]model.ReturnRecord, error)
	// UpdateWithVersion applies fields only if the stored version still equals
	// expectedVersion, bumping the version in the same write. A stale version
	// yields ErrVersionConflict; the record is never blindly overwritten.
	UpdateWithVersion(ctx context.Context, id string, expectedVersion int, fields map[string]interface{}) error
}

type returnRepository struct {
	db *gorm.DB
}

func NewReturnRepository(db *gorm.DB) ReturnRepository {
	return &returnRepository{db: db}
}

func (r *returnRepository) Create(ctx context.Context, rec *model.ReturnRecord) error {
	return GetDB(ctx, r.db).Create(rec).Error
}

func (r *returnRepository) FindByID(ctx context.Context, id string) (*model.ReturnRecord, error) {
	var rec model.ReturnRecord
	if err := GetDB(ctx, r.db).First(&rec, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *returnRepository) List(ctx context.Context, filter ReturnFilter) ([]model.ReturnRecord, int64, error) {
	var records []model.ReturnRecord
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.ReturnRecord{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Branch != "" {
		query = query.Where("branch = ?", filter.Branch)
	}
	if filter.Disposition != "" {
		query = query.Where("disposition = ?", filter.Disposition)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	offset := (filter.Page - 1) * filter.Limit
	if err := query.
		Order("created_at DESC").
		Offset(offset).Limit(filter.Limit).
		Find(&records).Error; err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

func (r *returnRepository) ListAll(ctx context.Context) ([]model.ReturnRecord, error) {
	var records []model.ReturnRecord
	if err := GetDB(ctx, r.db).Order("created_at ASC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (r *returnRepository) ListByCollectionOrder(ctx context.Context, orderID string) ([]model.ReturnRecord, error) {
	var records []model.ReturnRecord
	if err := GetDB(ctx, r.db).Where("collection_order_id = ?", orderID).Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (r *returnRepository) UpdateWithVersion(ctx context.Context, id string, expectedVersion int, fields map[string]interface{}) error {
	fields["version"] = expectedVersion + 1

	res := GetDB(ctx, r.db).
		Model(&model.ReturnRecord{}).
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
