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

type CreateCollectionOrderRequest struct {
	Branch     string   `json:"branch" binding:"required"`
	RecordIDs  []string `json:"record_ids" binding:"required,min=1"`
	PickupDate string   `json:"pickup_date"` // RFC 3339; optional
	Note       string   `json:"note"`
}

type AssignCollectionRequest struct {
	AssignedTo string `json:"assigned_to" binding:"required"`
	Version    int    `json:"version" binding:"gte=0"`
}

type CollectRequest struct {
	Version int `json:"version" binding:"gte=0"`
}

type ConsolidateRequest struct {
	Version             int    `json:"version" binding:"gte=0"`
	IdempotencyKey      string `json:"idempotency_key" binding:"required"`
	PreliminaryDecision string `json:"preliminary_decision"`
	ReturnRoute         string `json:"return_route"`
}

type FailCollectionRequest struct {
	Version int    `json:"version" binding:"gte=0"`
	Reason  string `json:"reason"`
}

type CollectionOrderResponse struct {
	ID         string           `json:"id"`
	Branch     string           `json:"branch"`
	Status     string           `json:"status"`
	AssignedTo string           `json:"assigned_to"`
	PickupDate *string          `json:"pickup_date"`
	Note       string           `json:"note"`
	ShipmentID *string          `json:"shipment_id"`
	Records    []ReturnResponse `json:"records,omitempty"`
	Version    int              `json:"version"`
	CreatedAt  string           `json:"created_at"`
}

// --- Interface ---

type CollectionService interface {
	Create(ctx context.Context, userID string, req CreateCollectionOrderRequest) (CollectionOrderResponse, error)
	Get(ctx context.Context, id string) (CollectionOrderResponse, error)
	List(ctx context.Context, status string, page, limit int) ([]CollectionOrderResponse, int64, error)
	Assign(ctx context.Context, userID, id string, req AssignCollectionRequest) (CollectionOrderResponse, error)
	Collect(ctx context.Context, userID, id string, req CollectRequest) (CollectionOrderResponse, error)
	Consolidate(ctx context.Context, userID, id string, req ConsolidateRequest) (CollectionOrderResponse, error)
	Fail(ctx context.Context, userID, id string, req FailCollectionRequest) (CollectionOrderResponse, error)
}

type collectionService struct {
	collectionRepo  repository.CollectionOrderRepository
	returnRepo      repository.ReturnRepository
	auditRepo       repository.AuditRepository
	idempotencyRepo repository.IdempotencyRepository
	txManager       repository.TransactionManager
	numbers         numbering.Service
	hub             *ws.Hub
}

func NewCollectionService(
	collectionRepo repository.CollectionOrderRepository,
	returnRepo repository.ReturnRepository,
	auditRepo repository.AuditRepository,
	idempotencyRepo repository.IdempotencyRepository,
	txManager repository.TransactionManager,
	numbers numbering.Service,
	hub *ws.Hub,
) CollectionService {
	return &collectionService{
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

func (s *collectionService) Create(ctx context.Context, userID string, req CreateCollectionOrderRequest) (CollectionOrderResponse, error) {
	var pickupDate *time.Time
	if req.PickupDate != "" {
		parsed, err := time.Parse(time.RFC3339, req.PickupDate)
		if err != nil {
			return CollectionOrderResponse{}, &workflow.ValidationError{Field: "pickup_date", Reason: "must be RFC 3339"}
		}
		pickupDate = &parsed
	}

	var order *model.CollectionOrder
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		id, numErr := s.numbers.NextCollectionOrderNumber(txCtx, req.Branch)
		if numErr != nil {
			return numErr
		}

		order = &model.CollectionOrder{
			ID:         id,
			Branch:     req.Branch,
			Status:     model.CollectionStatusPending,
			PickupDate: pickupDate,
			Note:       req.Note,
		}
		if createErr := s.collectionRepo.Create(txCtx, order); createErr != nil {
			return fmt.Errorf("failed to create collection order: %w", createErr)
		}

		for _, recID := range req.RecordIDs {
			rec, findErr := s.returnRepo.FindByID(txCtx, recID)
			if findErr != nil {
				if errors.Is(findErr, gorm.ErrRecordNotFound) {
					return &workflow.ValidationError{RecordID: recID, Field: "record_ids", Reason: "return record not found"}
				}
				return fmt.Errorf("failed to load return record %s: %w", recID, findErr)
			}
			if rec.CollectionOrderID != nil {
				return &workflow.ValidationError{RecordID: recID, Field: "record_ids", Reason: "already linked to collection order " + *rec.CollectionOrderID}
			}
			fields := map[string]interface{}{"collection_order_id": order.ID}
			if updateErr := s.returnRepo.UpdateWithVersion(txCtx, rec.ID, rec.Version, fields); updateErr != nil {
				if errors.Is(updateErr, repository.ErrVersionConflict) {
					return &workflow.ConflictError{RecordID: rec.ID, ExpectedVersion: rec.Version}
				}
				return fmt.Errorf("failed to link record %s: %w", rec.ID, updateErr)
			}
		}

		return s.audit(txCtx, userID, model.ActionCreateCollectionOrder, order.ID, req.Branch, req)
	})
	if err != nil {
		return CollectionOrderResponse{}, err
	}

	resp := toCollectionOrderResponse(order)
	s.hub.BroadcastEvent("collection_order.created", resp)
	return resp, nil
}

func (s *collectionService) Get(ctx context.Context, id string) (CollectionOrderResponse, error) {
	order, err := s.collectionRepo.FindByIDWithRecords(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return CollectionOrderResponse{}, fmt.Errorf("collection order not found: %s", id)
		}
		return CollectionOrderResponse{}, fmt.Errorf("failed to load collection order %s: %w", id, err)
	}
	return toCollectionOrderResponse(order), nil
}

func (s *collectionService) List(ctx context.Context, status string, page, limit int) ([]CollectionOrderResponse, int64, error) {
	orders, total, err := s.collectionRepo.List(ctx, status, page, limit)
	if err != nil {
		return nil, 0, err
	}
	res := make([]CollectionOrderResponse, 0, len(orders))
	for i := range orders {
		res = append(res, toCollectionOrderResponse(&orders[i]))
	}
	return res, total, nil
}

func (s *collectionService) Assign(ctx context.Context, userID, id string, req AssignCollectionRequest) (CollectionOrderResponse, error) {
	return s.advance(ctx, userID, id, req.Version, model.ActionAssignCollection,
		[]string{model.CollectionStatusPending}, model.CollectionStatusAssigned,
		map[string]interface{}{"assigned_to": req.AssignedTo}, nil)
}

// Collect marks the pickup done and, loosely synchronized, moves linked
// records that are still waiting at the branch forward one stage.
func (s *collectionService) Collect(ctx context.Context, userID, id string, req CollectRequest) (CollectionOrderResponse, error) {
	return s.advance(ctx, userID, id, req.Version, model.ActionCollectOrder,
		[]string{model.CollectionStatusAssigned}, model.CollectionStatusCollected,
		nil, func(txCtx context.Context, order *model.CollectionOrder) error {
			return s.syncRecords(txCtx, order.ID, workflow.ActionBranchReceive, workflow.TransitionInput{})
		})
}

func (s *collectionService) Consolidate(ctx context.Context, userID, id string, req ConsolidateRequest) (CollectionOrderResponse, error) {
	if req.PreliminaryDecision == "Return" && req.ReturnRoute == "" {
		return CollectionOrderResponse{}, &workflow.ValidationError{RecordID: id, Field: "return_route", Reason: "required when preliminary decision is Return"}
	}

	var order *model.CollectionOrder
	var alreadyApplied bool
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		claimed, _, claimErr := s.idempotencyRepo.Claim(txCtx, req.IdempotencyKey, "consolidate", id)
		if claimErr != nil {
			return fmt.Errorf("failed to claim idempotency key: %w", claimErr)
		}
		if !claimed {
			alreadyApplied = true
			return nil
		}

		var loadErr error
		order, loadErr = s.collectionRepo.FindByID(txCtx, id)
		if loadErr != nil {
			return fmt.Errorf("failed to load collection order %s: %w", id, loadErr)
		}
		if order.Status != model.CollectionStatusCollected {
			return &workflow.ValidationError{RecordID: id, Field: "status", Reason: "only COLLECTED orders can be consolidated (current: " + order.Status + ")"}
		}

		fields := map[string]interface{}{"status": model.CollectionStatusConsolidated}
		if updateErr := s.collectionRepo.UpdateWithVersion(txCtx, id, req.Version, fields); updateErr != nil {
			if errors.Is(updateErr, repository.ErrVersionConflict) {
				return &workflow.ConflictError{RecordID: id, ExpectedVersion: req.Version}
			}
			return fmt.Errorf("failed to consolidate order: %w", updateErr)
		}
		order.Status = model.CollectionStatusConsolidated
		order.Version = req.Version + 1

		input := workflow.TransitionInput{
			PreliminaryDecision: req.PreliminaryDecision,
			ReturnRoute:         req.ReturnRoute,
		}
		if syncErr := s.syncRecords(txCtx, id, workflow.ActionConsolidate, input); syncErr != nil {
			return syncErr
		}

		return s.audit(txCtx, userID, model.ActionConsolidateOrder, id, order.Branch, req)
	})
	if err != nil {
		return CollectionOrderResponse{}, err
	}

	if alreadyApplied {
		return s.Get(ctx, id)
	}

	resp := toCollectionOrderResponse(order)
	s.hub.BroadcastEvent("collection_order.updated", resp)
	return resp, nil
}

func (s *collectionService) Fail(ctx context.Context, userID, id string, req FailCollectionRequest) (CollectionOrderResponse, error) {
	extra := map[string]interface{}{}
	if req.Reason != "" {
		extra["note"] = req.Reason
	}
	return s.advance(ctx, userID, id, req.Version, model.ActionFailCollection,
		[]string{model.CollectionStatusPending, model.CollectionStatusAssigned}, model.CollectionStatusFailed,
		extra, nil)
}

// --- Helpers ---

// advance is the shared status-flip path for the collection order's own small
// lifecycle: verify the current status, write the new one with the version
// check, run any extra step, audit.
func (s *collectionService) advance(
	ctx context.Context,
	userID, id string,
	version int,
	auditAction string,
	allowedFrom []string,
	to string,
	extraFields map[string]interface{},
	extraStep func(ctx context.Context, order *model.CollectionOrder) error,
) (CollectionOrderResponse, error) {
	var order *model.CollectionOrder
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var loadErr error
		order, loadErr = s.collectionRepo.FindByID(txCtx, id)
		if loadErr != nil {
			if errors.Is(loadErr, gorm.ErrRecordNotFound) {
				return fmt.Errorf("collection order not found: %s", id)
			}
			return fmt.Errorf("failed to load collection order %s: %w", id, loadErr)
		}

		legal := false
		for _, from := range allowedFrom {
			if order.Status == from {
				legal = true
				break
			}
		}
		if !legal {
			return &workflow.ValidationError{RecordID: id, Field: "status", Reason: fmt.Sprintf("cannot move %s order to %s", order.Status, to)}
		}

		fields := map[string]interface{}{"status": to}
		for k, v := range extraFields {
			fields[k] = v
		}
		if updateErr := s.collectionRepo.UpdateWithVersion(txCtx, id, version, fields); updateErr != nil {
			if errors.Is(updateErr, repository.ErrVersionConflict) {
				return &workflow.ConflictError{RecordID: id, ExpectedVersion: version}
			}
			return fmt.Errorf("failed to update collection order: %w", updateErr)
		}
		order.Status = to
		order.Version = version + 1
		if assigned, ok := extraFields["assigned_to"].(string); ok {
			order.AssignedTo = assigned
		}

		if extraStep != nil {
			if stepErr := extraStep(txCtx, order); stepErr != nil {
				return stepErr
			}
		}

		return s.audit(txCtx, userID, auditAction, id, order.Branch, fields)
	})
	if err != nil {
		return CollectionOrderResponse{}, err
	}

	resp := toCollectionOrderResponse(order)
	s.hub.BroadcastEvent("collection_order.updated", resp)
	return resp, nil
}

// syncRecords applies action to every linked record the transition table
// allows it for, skipping the rest. The order status and its records are only
// loosely synchronized; a record that already moved on is not an error.
func (s *collectionService) syncRecords(ctx context.Context, orderID string, action workflow.Action, input workflow.TransitionInput) error {
	records, err := s.returnRepo.ListByCollectionOrder(ctx, orderID)
	if err != nil {
		return fmt.Errorf("failed to load records for order %s: %w", orderID, err)
	}

	for i := range records {
		rec := &records[i]
		migrateInPlace(rec)
		if !workflow.CanTransition(rec, action) {
			continue
		}
		updated, _, applyErr := workflow.ApplyTransition(rec, action, input)
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

func (s *collectionService) audit(ctx context.Context, userID, action, entityID, entityName string, payload interface{}) error {
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

func toCollectionOrderResponse(order *model.CollectionOrder) CollectionOrderResponse {
	records := make([]ReturnResponse, 0, len(order.Records))
	for i := range order.Records {
		migrateInPlace(&order.Records[i])
		records = append(records, toReturnResponse(&order.Records[i]))
	}

	return CollectionOrderResponse{
		ID:         order.ID,
		Branch:     order.Branch,
		Status:     order.Status,
		AssignedTo: order.AssignedTo,
		PickupDate: formatTimePtr(order.PickupDate),
		Note:       order.Note,
		ShipmentID: order.ShipmentID,
		Records:    records,
		Version:    order.Version,
		CreatedAt:  order.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
