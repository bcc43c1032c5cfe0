package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"backend/internal/model"
	"backend/internal/numbering"
	"backend/internal/repository"
	ws "backend/internal/websocket"
	"backend/internal/workflow"

	"gorm.io/gorm"
)

// --- DTOs ---

type CreateShipmentRequest struct {
	Branch         string   `json:"branch" binding:"required"`
	VehicleNo      string   `json:"vehicle_no"`
	DriverName     string   `json:"driver_name"`
	OrderIDs       []string `json:"order_ids" binding:"required,min=1"`
	IdempotencyKey string   `json:"idempotency_key" binding:"required"`
}

type ArriveShipmentRequest struct {
	Version        int    `json:"version" binding:"gte=0"`
	IdempotencyKey string `json:"idempotency_key" binding:"required"`
}

type ShipmentResponse struct {
	ID         string                    `json:"id"`
	VehicleNo  string                    `json:"vehicle_no"`
	DriverName string                    `json:"driver_name"`
	Status     string                    `json:"status"`
	DepartedAt *string                   `json:"departed_at"`
	ArrivedAt  *string                   `json:"arrived_at"`
	Orders     []CollectionOrderResponse `json:"orders,omitempty"`
	Version    int                       `json:"version"`
	CreatedAt  string                    `json:"created_at"`
}

// --- Interface ---

type ShipmentService interface {
	Create(ctx context.Context, userID string, req CreateShipmentRequest) (ShipmentResponse, error)
	Get(ctx context.Context, id string) (ShipmentResponse, error)
	List(ctx context.Context, status string, page, limit int) ([]ShipmentResponse, int64, error)
	Arrive(ctx context.Context, userID, id string, req ArriveShipmentRequest) (ShipmentResponse, error)
}

type shipmentService struct {
	shipmentRepo    repository.ShipmentRepository
	collectionRepo  repository.CollectionOrderRepository
	returnRepo      repository.ReturnRepository
	auditRepo       repository.AuditRepository
	idempotencyRepo repository.IdempotencyRepository
	txManager       repository.TransactionManager
	numbers         numbering.Service
	hub             *ws.Hub
}

func NewShipmentService(
	shipmentRepo repository.ShipmentRepository,
	collectionRepo repository.CollectionOrderRepository,
	returnRepo repository.ReturnRepository,
	auditRepo repository.AuditRepository,
	idempotencyRepo repository.IdempotencyRepository,
	txManager repository.TransactionManager,
	numbers numbering.Service,
	hub *ws.Hub,
) ShipmentService {
	return &shipmentService{
		shipmentRepo:    shipmentRepo,
		collectionRepo:  collectionRepo,
		returnRepo:      returnRepo,
		auditRepo:       auditRepo,
		idempotencyRepo: idempotencyRepo,
		txManager:       txManager,
		numbers:         numbers,
		hub:             hub,
	}
}

// --- Implementation ---

// Create builds a manifest from consolidated collection orders and dispatches
// it: the manifest starts IN_TRANSIT and every linked record that the
// transition table allows moves Consolidated → InTransit in the same
// transaction.
func (s *shipmentService) Create(ctx context.Context, userID string, req CreateShipmentRequest) (ShipmentResponse, error) {
	var shipment *model.ShipmentManifest
	var alreadyApplied bool
	var existingID string

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		claimed, existing, claimErr := s.idempotencyRepo.Claim(txCtx, req.IdempotencyKey, "dispatch", "")
		if claimErr != nil {
			return fmt.Errorf("failed to claim idempotency key: %w", claimErr)
		}
		if !claimed {
			alreadyApplied = true
			existingID = existing.EntityID
			return nil
		}

		id, numErr := s.numbers.NextShipmentNumber(txCtx, req.Branch)
		if numErr != nil {
			return numErr
		}

		now := time.Now()
		shipment = &model.ShipmentManifest{
			ID:         id,
			VehicleNo:  req.VehicleNo,
			DriverName: req.DriverName,
			Status:     model.ShipmentStatusInTransit,
			DepartedAt: &now,
		}
		if createErr := s.shipmentRepo.Create(txCtx, shipment); createErr != nil {
			return fmt.Errorf("failed to create shipment: %w", createErr)
		}

		for _, orderID := range req.OrderIDs {
			order, findErr := s.collectionRepo.FindByID(txCtx, orderID)
			if findErr != nil {
				if errors.Is(findErr, gorm.ErrRecordNotFound) {
					return &workflow.ValidationError{RecordID: orderID, Field: "order_ids", Reason: "collection order not found"}
				}
				return fmt.Errorf("failed to load collection order %s: %w", orderID, findErr)
			}
			if order.Status != model.CollectionStatusConsolidated {
				return &workflow.ValidationError{RecordID: orderID, Field: "order_ids", Reason: "only CONSOLIDATED orders can be dispatched (current: " + order.Status + ")"}
			}

			fields := map[string]interface{}{"shipment_id": shipment.ID}
			if updateErr := s.collectionRepo.UpdateWithVersion(txCtx, orderID, order.Version, fields); updateErr != nil {
				if errors.Is(updateErr, repository.ErrVersionConflict) {
					return &workflow.ConflictError{RecordID: orderID, ExpectedVersion: order.Version}
				}
				return fmt.Errorf("failed to attach order %s: %w", orderID, updateErr)
			}

			if syncErr := s.syncOrderRecords(txCtx, orderID, workflow.ActionDispatch); syncErr != nil {
				return syncErr
			}
		}

		// Record the created entity against the key so a retry can answer
		// with the original shipment.
		if linkErr := s.idempotencyRepo.SetEntity(txCtx, req.IdempotencyKey, shipment.ID); linkErr != nil {
			return fmt.Errorf("failed to link idempotency key: %w", linkErr)
		}

		return s.audit(txCtx, userID, model.ActionDispatchShipment, shipment.ID, req.VehicleNo, req)
	})
	if err != nil {
		return ShipmentResponse{}, err
	}

	if alreadyApplied {
		return s.Get(ctx, existingID)
	}

	resp := toShipmentResponse(shipment)
	s.hub.BroadcastEvent("shipment.created", resp)
	return resp, nil
}

func (s *shipmentService) Get(ctx context.Context, id string) (ShipmentResponse, error) {
	shipment, err := s.shipmentRepo.FindByIDWithOrders(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ShipmentResponse{}, fmt.Errorf("shipment not found: %s", id)
		}
		return ShipmentResponse{}, fmt.Errorf("failed to load shipment %s: %w", id, err)
	}
	return toShipmentResponse(shipment), nil
}

func (s *shipmentService) List(ctx context.Context, status string, page, limit int) ([]ShipmentResponse, int64, error) {
	shipments, total, err := s.shipmentRepo.List(ctx, status, page, limit)
	if err != nil {
		return nil, 0, err
	}
	res := make([]ShipmentResponse, 0, len(shipments))
	for i := range shipments {
		res = append(res, toShipmentResponse(&shipments[i]))
	}
	return res, total, nil
}

// Arrive marks the manifest received at the hub. Every in-transit record on
// board is hub-received except Direct Return items, which stay InTransit so
// they can be documented straight away.
func (s *shipmentService) Arrive(ctx context.Context, userID, id string, req ArriveShipmentRequest) (ShipmentResponse, error) {
	var shipment *model.ShipmentManifest
	var alreadyApplied bool

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		claimed, _, claimErr := s.idempotencyRepo.Claim(txCtx, req.IdempotencyKey, "arrive", id)
		if claimErr != nil {
			return fmt.Errorf("failed to claim idempotency key: %w", claimErr)
		}
		if !claimed {
			alreadyApplied = true
			return nil
		}

		var loadErr error
		shipment, loadErr = s.shipmentRepo.FindByIDWithOrders(txCtx, id)
		if loadErr != nil {
			if errors.Is(loadErr, gorm.ErrRecordNotFound) {
				return fmt.Errorf("shipment not found: %s", id)
			}
			return fmt.Errorf("failed to load shipment %s: %w", id, loadErr)
		}
		if shipment.Status != model.ShipmentStatusInTransit {
			return &workflow.ValidationError{RecordID: id, Field: "status", Reason: "shipment already arrived"}
		}

		now := time.Now()
		fields := map[string]interface{}{
			"status":     model.ShipmentStatusArrivedHQ,
			"arrived_at": now,
		}
		if updateErr := s.shipmentRepo.UpdateWithVersion(txCtx, id, req.Version, fields); updateErr != nil {
			if errors.Is(updateErr, repository.ErrVersionConflict) {
				return &workflow.ConflictError{RecordID: id, ExpectedVersion: req.Version}
			}
			return fmt.Errorf("failed to mark shipment arrived: %w", updateErr)
		}
		shipment.Status = model.ShipmentStatusArrivedHQ
		shipment.ArrivedAt = &now
		shipment.Version = req.Version + 1

		for i := range shipment.Orders {
			if syncErr := s.syncOrderRecords(txCtx, shipment.Orders[i].ID, workflow.ActionHubReceive); syncErr != nil {
				return syncErr
			}
		}

		return s.audit(txCtx, userID, model.ActionArriveShipment, id, shipment.VehicleNo, req)
	})
	if err != nil {
		return ShipmentResponse{}, err
	}

	if alreadyApplied {
		return s.Get(ctx, id)
	}

	resp := toShipmentResponse(shipment)
	s.hub.BroadcastEvent("shipment.updated", resp)
	return resp, nil
}

// --- Helpers ---

func (s *shipmentService) syncOrderRecords(ctx context.Context, orderID string, action workflow.Action) error {
	records, err := s.returnRepo.ListByCollectionOrder(ctx, orderID)
	if err != nil {
		return fmt.Errorf("failed to load records for order %s: %w", orderID, err)
	}

	for i := range records {
		rec := &records[i]
		migrateInPlace(rec)
		if action == workflow.ActionHubReceive && workflow.IsDirectReturn(rec) {
			continue
		}
		if !workflow.CanTransition(rec, action) {
			continue
		}
		updated, _, applyErr := workflow.ApplyTransition(rec, action, workflow.TransitionInput{})
		if applyErr != nil {
			return applyErr
		}
		fields := transitionFields(rec, updated)
		if updateErr := s.returnRepo.UpdateWithVersion(ctx, rec.ID, rec.Version, fields); updateErr != nil {
			if errors.Is(updateErr, repository.ErrVersionConflict) {
				return &workflow.ConflictError{RecordID: rec.ID, ExpectedVersion: rec.Version}
			}
			return fmt.Errorf("failed to sync record %s: %w", rec.ID, updateErr)
		}
	}
	return nil
}

func (s *shipmentService) audit(ctx context.Context, userID, action, entityID, entityName string, payload interface{}) error {
	details, _ := json.Marshal(payload)
	entry := &model.AuditLog{
		UserID:     parseUserID(userID),
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    string(details),
	}
	if err := s.auditRepo.Log(ctx, entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

func toShipmentResponse(shipment *model.ShipmentManifest) ShipmentResponse {
	orders := make([]CollectionOrderResponse, 0, len(shipment.Orders))
	for i := range shipment.Orders {
		orders = append(orders, toCollectionOrderResponse(&shipment.Orders[i]))
	}

	return ShipmentResponse{
		ID:         shipment.ID,
		VehicleNo:  shipment.VehicleNo,
		DriverName: shipment.DriverName,
		Status:     shipment.Status,
		DepartedAt: formatTimePtr(shipment.DepartedAt),
		ArrivedAt:  formatTimePtr(shipment.ArrivedAt),
		Orders:     orders,
		Version:    shipment.Version,
		CreatedAt:  shipment.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
