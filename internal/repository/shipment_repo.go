package repository

import (
	"context"

	"backend/internal/model"

	"gorm.io/gorm"
)

type ShipmentRepository interface {
	Create(ctx context.Context, shipment *model.ShipmentManifest) error
	FindByID(ctx context.Context, id string) (*model.ShipmentManifest, error)
	FindByIDWithOrders(ctx context.Context, id string) (*model.ShipmentManifest, error)
	List(ctx context.Context, status string, page, limit int) ([]model.ShipmentManifest, int64, error)
	UpdateWithVersion(ctx context.Context, id string, expectedVersion int, fields map[string]interface{}) error
}

type shipmentRepository struct {
	db *gorm.DB
}

func NewShipmentRepository(db *gorm.DB) ShipmentRepository {
	return &shipmentRepository{db: db}
}

func (r *shipmentRepository) Create(ctx context.Context, shipment *model.ShipmentManifest) error {
	return GetDB(ctx, r.db).Create(shipment).Error
}

func (r *shipmentRepository) FindByID(ctx context.Context, id string) (*model.ShipmentManifest, error) {
	var shipment model.ShipmentManifest
	if err := GetDB(ctx, r.db).First(&shipment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &shipment, nil
}

func (r *shipmentRepository) FindByIDWithOrders(ctx context.Context, id string) (*model.ShipmentManifest, error) {
	var shipment model.ShipmentManifest
	if err := GetDB(ctx, r.db).
		Preload("Orders").
		Preload("Orders.Records").
		First(&shipment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &shipment, nil
}

func (r *shipmentRepository) List(ctx context.Context, status string, page, limit int) ([]model.ShipmentManifest, int64, error) {
	var shipments []model.ShipmentManifest
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.ShipmentManifest{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.
		Preload("Orders").
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&shipments).Error; err != nil {
		return nil, 0, err
	}

	return shipments, total, nil
}

func (r *shipmentRepository) UpdateWithVersion(ctx context.Context, id string, expectedVersion int, fields map[string]interface{}) error {
	fields["version"] = expectedVersion + 1

	res := GetDB(ctx, r.db).
		Model(&model.ShipmentManifest{}).
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
