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

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Notifier is the outbound-message dependency; satisfied by the telegram
// notifier or a noop.
type Notifier interface {
	Send(ctx context.Context, text string)
}

// --- DTOs ---

type CreateReturnRequest struct {
	RefNo        string `json:"ref_no" binding:"required"`
	Branch       string `json:"branch" binding:"required"`
	CustomerName string `json:"customer_name"`
	DestCustomer string `json:"dest_customer"`
	ProductCode  string `json:"product_code" binding:"required"`
	ProductName  string `json:"product_name"`
	Quantity     int64  `json:"quantity" binding:"required,gt=0"`
	Unit         string `json:"unit"`
	PriceUnit    string `json:"price_unit"`
	PriceBill    string `json:"price_bill"`
	PriceSell    string `json:"price_sell"`
	NeoRefNo     string `json:"neo_ref_no"`
	Submit       bool   `json:"submit"` // true: submit the request immediately instead of leaving a draft
}

type TransitionRequest struct {
	Action  string `json:"action" binding:"required"`
	Version int    `json:"version" binding:"gte=0"`

	Condition           string `json:"condition"`
	Decision            string `json:"decision"`
	PreliminaryDecision string `json:"preliminary_decision"`
	ReturnRoute         string `json:"return_route"`
	Note                string `json:"note"`

	RaiseNCR    bool   `json:"raise_ncr"`
	NCRProblem  string `json:"ncr_problem"`
	NCRCause    string `json:"ncr_cause"`
	NCRAction   string `json:"ncr_action"`
	NCRSeverity string `json:"ncr_severity"`
}

type SplitRequest struct {
	SplitQty       int64  `json:"split_qty" binding:"required,gt=0"`
	Version        int    `json:"version" binding:"gte=0"`
	UnitBreakdown  bool   `json:"unit_breakdown"`
	ConversionRate int64  `json:"conversion_rate"`
	NewUnit        string `json:"new_unit"`
	Disposition    string `json:"disposition"` // optional immediate disposition for the split-off part
}

type UndoRequest struct {
	Version int `json:"version" binding:"gte=0"`
}

type ReturnResponse struct {
	ID                  string   `json:"id"`
	RefNo               string   `json:"ref_no"`
	ParentID            *string  `json:"parent_id"`
	Branch              string   `json:"branch"`
	CustomerName        string   `json:"customer_name"`
	DestCustomer        string   `json:"dest_customer"`
	ProductCode         string   `json:"product_code"`
	ProductName         string   `json:"product_name"`
	Quantity            int64    `json:"quantity"`
	Unit                string   `json:"unit"`
	PriceUnit           string   `json:"price_unit"`
	PriceBill           string   `json:"price_bill"`
	PriceSell           string   `json:"price_sell"`
	Status              string   `json:"status"`
	Condition           string   `json:"condition"`
	Disposition         string   `json:"disposition"`
	PreliminaryDecision string   `json:"preliminary_decision"`
	PreliminaryRoute    string   `json:"preliminary_route"`
	NCRNumber           string   `json:"ncr_number"`
	CollectionOrderID   *string  `json:"collection_order_id"`
	NeoRefNo            string   `json:"neo_ref_no"`
	DirectReturn        bool     `json:"direct_return"`
	Version             int      `json:"version"`
	AllowedActions      []string `json:"allowed_actions"`
	RequestedAt         *string  `json:"requested_at"`
	ReceivedAt          *string  `json:"received_at"`
	GradedAt            *string  `json:"graded_at"`
	DocumentedAt        *string  `json:"documented_at"`
	CompletedAt         *string  `json:"completed_at"`
	CreatedAt           string   `json:"created_at"`
}

type SplitResponse struct {
	Remainder ReturnResponse `json:"remainder"`
	Sibling   ReturnResponse `json:"sibling"`
}

// --- Interface ---

type ReturnService interface {
	Create(ctx context.Context, userID string, req CreateReturnRequest) (ReturnResponse, error)
	Get(ctx context.Context, id string) (ReturnResponse, error)
	List(ctx context.Context, filter repository.ReturnFilter) ([]ReturnResponse, int64, error)
	Transition(ctx context.Context, userID, id string, req TransitionRequest) (ReturnResponse, error)
	Split(ctx context.Context, userID, id string, req SplitRequest) (SplitResponse, error)
	Undo(ctx context.Context, userID, id string, req UndoRequest) (ReturnResponse, error)
}

type returnService struct {
	returnRepo     repository.ReturnRepository
	collectionRepo repository.CollectionOrderRepository
	ncrRepo        repository.NCRRepository
	auditRepo      repository.AuditRepository
	txManager      repository.TransactionManager
	numbers        numbering.Service
	hub            *ws.Hub
	notifier       Notifier
}

func NewReturnService(
	returnRepo repository.ReturnRepository,
	collectionRepo repository.CollectionOrderRepository,
	ncrRepo repository.NCRRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	numbers numbering.Service,
	hub *ws.Hub,
	notifier Notifier,
) ReturnService {
	return &returnService{
		returnRepo:     returnRepo,
		collectionRepo: collectionRepo,
		ncrRepo:        ncrRepo,
		auditRepo:      auditRepo,
		txManager:      txManager,
		numbers:        numbers,
		hub:            hub,
		notifier:       notifier,
	}
}

// --- Implementation ---

func parsePrice(raw, field, recordID string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, &workflow.ValidationError{RecordID: recordID, Field: field, Reason: "not a valid amount"}
	}
	return d, nil
}

func (s *returnService) Create(ctx context.Context, userID string, req CreateReturnRequest) (ReturnResponse, error) {
	priceUnit, err := parsePrice(req.PriceUnit, "price_unit", req.RefNo)
	if err != nil {
		return ReturnResponse{}, err
	}
	priceBill, err := parsePrice(req.PriceBill, "price_bill", req.RefNo)
	if err != nil {
		return ReturnResponse{}, err
	}
	priceSell, err := parsePrice(req.PriceSell, "price_sell", req.RefNo)
	if err != nil {
		return ReturnResponse{}, err
	}

	var rec *model.ReturnRecord
	var effects []workflow.SideEffect
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		id, numErr := s.numbers.NextReturnNumber(txCtx, req.Branch)
		if numErr != nil {
			return numErr
		}

		rec = &model.ReturnRecord{
			ID:           id,
			RefNo:        req.RefNo,
			Branch:       req.Branch,
			CustomerName: req.CustomerName,
			DestCustomer: req.DestCustomer,
			ProductCode:  req.ProductCode,
			ProductName:  req.ProductName,
			Quantity:     req.Quantity,
			Unit:         req.Unit,
			PriceUnit:    priceUnit,
			PriceBill:    priceBill,
			PriceSell:    priceSell,
			Status:       string(workflow.StatusDraft),
			Disposition:  workflow.DispositionPending,
			NeoRefNo:     req.NeoRefNo,
		}

		if req.Submit {
			updated, fx, applyErr := workflow.ApplyTransition(rec, workflow.ActionRequest, workflow.TransitionInput{})
			if applyErr != nil {
				return applyErr
			}
			rec = updated
			effects = fx
		}

		if createErr := s.returnRepo.Create(txCtx, rec); createErr != nil {
			return fmt.Errorf("failed to create return record: %w", createErr)
		}

		return s.writeAudit(txCtx, userID, model.ActionCreateReturn, rec.ID, rec.ProductName, req)
	})
	if err != nil {
		return ReturnResponse{}, err
	}

	// Only a committed record notifies; the store stays the single source
	// of truth for what happened.
	s.fireNotifications(ctx, effects)
	s.hub.BroadcastEvent("return.created", toReturnResponse(rec))
	return toReturnResponse(rec), nil
}

func (s *returnService) Get(ctx context.Context, id string) (ReturnResponse, error) {
	rec, err := s.loadMigrated(ctx, id)
	if err != nil {
		return ReturnResponse{}, err
	}
	return toReturnResponse(rec), nil
}

func (s *returnService) List(ctx context.Context, filter repository.ReturnFilter) ([]ReturnResponse, int64, error) {
	records, total, err := s.returnRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	res := make([]ReturnResponse, 0, len(records))
	for i := range records {
		migrateInPlace(&records[i])
		res = append(res, toReturnResponse(&records[i]))
	}
	return res, total, nil
}

func (s *returnService) Transition(ctx context.Context, userID, id string, req TransitionRequest) (ReturnResponse, error) {
	rec, err := s.loadMigrated(ctx, id)
	if err != nil {
		return ReturnResponse{}, err
	}

	input := workflow.TransitionInput{
		Condition:           req.Condition,
		Decision:            req.Decision,
		PreliminaryDecision: req.PreliminaryDecision,
		ReturnRoute:         req.ReturnRoute,
		Note:                req.Note,
		RaiseNCR:            req.RaiseNCR,
		NCR: workflow.NCRDraft{
			Problem:     req.NCRProblem,
			Cause:       req.NCRCause,
			ActionTaken: req.NCRAction,
			Severity:    req.NCRSeverity,
		},
	}

	updated, effects, err := workflow.ApplyTransition(rec, workflow.Action(req.Action), input)
	if err != nil {
		return ReturnResponse{}, err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		for _, fx := range effects {
			switch fx.Kind {
			case workflow.SideEffectCreateCollectionOrder:
				orderID, numErr := s.numbers.NextCollectionOrderNumber(txCtx, rec.Branch)
				if numErr != nil {
					return numErr
				}
				order := &model.CollectionOrder{
					ID:     orderID,
					Branch: rec.Branch,
					Status: model.CollectionStatusPending,
				}
				if createErr := s.collectionRepo.Create(txCtx, order); createErr != nil {
					return fmt.Errorf("failed to create collection order: %w", createErr)
				}
				updated.CollectionOrderID = &order.ID

			case workflow.SideEffectCreateNCR:
				ncrID, numErr := s.numbers.NextNCRNumber(txCtx, rec.Branch)
				if numErr != nil {
					return numErr
				}
				snapshot, _ := json.Marshal(toReturnResponse(rec))
				ncr := &model.NCRRecord{
					ID:             ncrID,
					ReturnRecordID: rec.ID,
					Problem:        fx.NCR.Problem,
					Cause:          fx.NCR.Cause,
					ActionTaken:    fx.NCR.ActionTaken,
					Severity:       fx.NCR.Severity,
					ItemSnapshot:   string(snapshot),
					ReportedBy:     parseUserID(userID),
				}
				if createErr := s.ncrRepo.Create(txCtx, ncr); createErr != nil {
					return fmt.Errorf("failed to create NCR report: %w", createErr)
				}
				updated.NCRNumber = ncr.ID
				if auditErr := s.writeAudit(txCtx, userID, model.ActionCreateNCR, ncr.ID, rec.ProductName, fx.NCR); auditErr != nil {
					return auditErr
				}
			}
		}

		fields := transitionFields(rec, updated)
		if updateErr := s.returnRepo.UpdateWithVersion(txCtx, rec.ID, req.Version, fields); updateErr != nil {
			if errors.Is(updateErr, repository.ErrVersionConflict) {
				return &workflow.ConflictError{RecordID: rec.ID, ExpectedVersion: req.Version}
			}
			return fmt.Errorf("failed to update return record: %w", updateErr)
		}
		updated.Version = req.Version + 1

		auditDetails := map[string]interface{}{
			"action": req.Action,
			"from":   rec.Status,
			"to":     updated.Status,
			"note":   req.Note,
		}
		return s.writeAudit(txCtx, userID, model.ActionTransitionReturn, rec.ID, rec.ProductName, auditDetails)
	})
	if err != nil {
		return ReturnResponse{}, err
	}

	s.fireNotifications(ctx, effects)
	s.hub.BroadcastEvent("return.updated", toReturnResponse(updated))
	return toReturnResponse(updated), nil
}

func (s *returnService) Split(ctx context.Context, userID, id string, req SplitRequest) (SplitResponse, error) {
	rec, err := s.loadMigrated(ctx, id)
	if err != nil {
		return SplitResponse{}, err
	}

	var remainder, sibling *model.ReturnRecord
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		siblingID, numErr := s.numbers.NextReturnNumber(txCtx, rec.Branch)
		if numErr != nil {
			return numErr
		}

		var splitErr error
		remainder, sibling, splitErr = workflow.SplitRecord(rec, req.SplitQty, workflow.SplitOptions{
			SiblingID:      siblingID,
			UnitBreakdown:  req.UnitBreakdown,
			ConversionRate: req.ConversionRate,
			NewUnit:        req.NewUnit,
			Disposition:    req.Disposition,
		})
		if splitErr != nil {
			return splitErr
		}

		fields := map[string]interface{}{
			"quantity":   remainder.Quantity,
			"unit":       remainder.Unit,
			"price_unit": remainder.PriceUnit,
		}
		if updateErr := s.returnRepo.UpdateWithVersion(txCtx, rec.ID, req.Version, fields); updateErr != nil {
			if errors.Is(updateErr, repository.ErrVersionConflict) {
				return &workflow.ConflictError{RecordID: rec.ID, ExpectedVersion: req.Version}
			}
			return fmt.Errorf("failed to update split remainder: %w", updateErr)
		}
		remainder.Version = req.Version + 1

		if createErr := s.returnRepo.Create(txCtx, sibling); createErr != nil {
			return fmt.Errorf("failed to create split sibling: %w", createErr)
		}

		details := map[string]interface{}{
			"sibling_id":      sibling.ID,
			"split_qty":       req.SplitQty,
			"unit_breakdown":  req.UnitBreakdown,
			"conversion_rate": req.ConversionRate,
		}
		return s.writeAudit(txCtx, userID, model.ActionSplitReturn, rec.ID, rec.ProductName, details)
	})
	if err != nil {
		return SplitResponse{}, err
	}

	s.hub.BroadcastEvent("return.updated", toReturnResponse(remainder))
	s.hub.BroadcastEvent("return.created", toReturnResponse(sibling))
	return SplitResponse{
		Remainder: toReturnResponse(remainder),
		Sibling:   toReturnResponse(sibling),
	}, nil
}

func (s *returnService) Undo(ctx context.Context, userID, id string, req UndoRequest) (ReturnResponse, error) {
	rec, err := s.loadMigrated(ctx, id)
	if err != nil {
		return ReturnResponse{}, err
	}

	updated, _, err := workflow.ApplyTransition(rec, workflow.ActionUndo, workflow.TransitionInput{})
	if err != nil {
		return ReturnResponse{}, err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		fields := map[string]interface{}{"status": updated.Status}
		if updateErr := s.returnRepo.UpdateWithVersion(txCtx, rec.ID, req.Version, fields); updateErr != nil {
			if errors.Is(updateErr, repository.ErrVersionConflict) {
				return &workflow.ConflictError{RecordID: rec.ID, ExpectedVersion: req.Version}
			}
			return fmt.Errorf("failed to undo transition: %w", updateErr)
		}
		updated.Version = req.Version + 1

		details := map[string]interface{}{"from": rec.Status, "to": updated.Status}
		return s.writeAudit(txCtx, userID, model.ActionUndoTransition, rec.ID, rec.ProductName, details)
	})
	if err != nil {
		return ReturnResponse{}, err
	}

	s.hub.BroadcastEvent("return.updated", toReturnResponse(updated))
	return toReturnResponse(updated), nil
}

// --- Helpers ---

// loadMigrated fetches a record and folds any legacy status vocabulary onto
// the canonical set before decision logic sees it.
func (s *returnService) loadMigrated(ctx context.Context, id string) (*model.ReturnRecord, error) {
	rec, err := s.returnRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("return record not found: %s", id)
		}
		return nil, fmt.Errorf("failed to load return record %s: %w", id, err)
	}
	migrateInPlace(rec)
	return rec, nil
}

func migrateInPlace(rec *model.ReturnRecord) {
	if status, disposition, ok := workflow.MigrateRecordStatus(rec.Status, rec.Disposition); ok {
		rec.Status = string(status)
		rec.Disposition = disposition
	}
}

// transitionFields collects only the columns the transition actually changed.
func transitionFields(before, after *model.ReturnRecord) map[string]interface{} {
	fields := map[string]interface{}{"status": after.Status}
	if after.Condition != before.Condition {
		fields["condition"] = after.Condition
	}
	if after.Disposition != before.Disposition {
		fields["disposition"] = after.Disposition
	}
	if after.PreliminaryDecision != before.PreliminaryDecision {
		fields["preliminary_decision"] = after.PreliminaryDecision
	}
	if after.PreliminaryRoute != before.PreliminaryRoute {
		fields["preliminary_route"] = after.PreliminaryRoute
	}
	if after.NCRNumber != before.NCRNumber {
		fields["ncr_number"] = after.NCRNumber
	}
	if after.CollectionOrderID != nil && before.CollectionOrderID == nil {
		fields["collection_order_id"] = *after.CollectionOrderID
	}
	if after.RequestedAt != nil && before.RequestedAt == nil {
		fields["requested_at"] = *after.RequestedAt
	}
	if after.ReceivedAt != nil && before.ReceivedAt == nil {
		fields["received_at"] = *after.ReceivedAt
	}
	if after.GradedAt != nil && before.GradedAt == nil {
		fields["graded_at"] = *after.GradedAt
	}
	if after.DocumentedAt != nil && before.DocumentedAt == nil {
		fields["documented_at"] = *after.DocumentedAt
	}
	if after.CompletedAt != nil && before.CompletedAt == nil {
		fields["completed_at"] = *after.CompletedAt
	}
	return fields
}

func (s *returnService) writeAudit(ctx context.Context, userID, action, entityID, entityName string, payload interface{}) error {
	details, _ := json.Marshal(payload)
	audit := &model.AuditLog{
		UserID:     parseUserID(userID),
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    string(details),
	}
	if err := s.auditRepo.Log(ctx, audit); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

func (s *returnService) fireNotifications(ctx context.Context, effects []workflow.SideEffect) {
	for _, fx := range effects {
		if fx.Kind == workflow.SideEffectNotify {
			msg := fx.Message
			go s.notifier.Send(context.WithoutCancel(ctx), msg)
		}
	}
}

func parseUserID(userID string) *uuid.UUID {
	if parsed, err := uuid.Parse(userID); err == nil {
		return &parsed
	}
	return nil
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	formatted := t.Format("2006-01-02T15:04:05Z07:00")
	return &formatted
}

func toReturnResponse(rec *model.ReturnRecord) ReturnResponse {
	allowed := workflow.AllowedActions(rec)
	actions := make([]string, 0, len(allowed))
	for _, a := range allowed {
		actions = append(actions, string(a))
	}

	return ReturnResponse{
		ID:                  rec.ID,
		RefNo:               rec.RefNo,
		ParentID:            rec.ParentID,
		Branch:              rec.Branch,
		CustomerName:        rec.CustomerName,
		DestCustomer:        rec.DestCustomer,
		ProductCode:         rec.ProductCode,
		ProductName:         rec.ProductName,
		Quantity:            rec.Quantity,
		Unit:                rec.Unit,
		PriceUnit:           rec.PriceUnit.String(),
		PriceBill:           rec.PriceBill.String(),
		PriceSell:           rec.PriceSell.String(),
		Status:              rec.Status,
		Condition:           rec.Condition,
		Disposition:         rec.Disposition,
		PreliminaryDecision: rec.PreliminaryDecision,
		PreliminaryRoute:    rec.PreliminaryRoute,
		NCRNumber:           rec.NCRNumber,
		CollectionOrderID:   rec.CollectionOrderID,
		NeoRefNo:            rec.NeoRefNo,
		DirectReturn:        workflow.IsDirectReturn(rec),
		Version:             rec.Version,
		AllowedActions:      actions,
		RequestedAt:         formatTimePtr(rec.RequestedAt),
		ReceivedAt:          formatTimePtr(rec.ReceivedAt),
		GradedAt:            formatTimePtr(rec.GradedAt),
		DocumentedAt:        formatTimePtr(rec.DocumentedAt),
		CompletedAt:         formatTimePtr(rec.CompletedAt),
		CreatedAt:           rec.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
