package workflow

import (
	"strings"
	"time"

	"backend/internal/model"
)

// DirectReturnPrefix marks records that bypass hub receiving and grading.
// The flag is computed from the reference number, never stored, so it cannot
// drift from the data that defines it.
const DirectReturnPrefix = "DR-"

// IsDirectReturn reports whether rec takes the InTransit→Documented fast path.
func IsDirectReturn(rec *model.ReturnRecord) bool {
	return strings.HasPrefix(rec.RefNo, DirectReturnPrefix)
}

// predecessors is the single canonical transition table: for each action, the
// set of statuses it may be applied from. Every screen consults this table
// through CanTransition; nothing else decides legality.
var predecessors = map[Action]map[Status]struct{}{
	ActionRequest: {
		StatusDraft:     {},
		StatusRequested: {},
	},
	ActionJobAccept: {
		StatusRequested: {},
	},
	ActionBranchReceive: {
		StatusJobAccepted: {},
	},
	ActionConsolidate: {
		StatusBranchReceived: {},
	},
	ActionDispatch: {
		StatusConsolidated: {},
	},
	ActionHubReceive: {
		StatusInTransit: {},
	},
	ActionGrade: {
		StatusHubReceived: {},
	},
	ActionDocument: {
		StatusQCGraded: {},
	},
	ActionComplete: {
		StatusDocumented: {},
	},
	ActionReject: {
		StatusDraft:     {},
		StatusRequested: {},
	},
}

// targets maps each forward action to the status it produces.
var targets = map[Action]Status{
	ActionRequest:       StatusRequested,
	ActionJobAccept:     StatusJobAccepted,
	ActionBranchReceive: StatusBranchReceived,
	ActionConsolidate:   StatusConsolidated,
	ActionDispatch:      StatusInTransit,
	ActionHubReceive:    StatusHubReceived,
	ActionGrade:         StatusQCGraded,
	ActionDocument:      StatusDocumented,
	ActionComplete:      StatusCompleted,
	ActionReject:        StatusRejected,
}

// previousStage supports the one-step undo. Rejected is deliberately absent:
// a rejection is terminal and cannot be undone.
var previousStage = map[Status]Status{
	StatusRequested:      StatusDraft,
	StatusJobAccepted:    StatusRequested,
	StatusBranchReceived: StatusJobAccepted,
	StatusConsolidated:   StatusBranchReceived,
	StatusInTransit:      StatusConsolidated,
	StatusHubReceived:    StatusInTransit,
	StatusQCGraded:       StatusHubReceived,
	StatusDocumented:     StatusQCGraded,
}

// CanTransition reports whether action is legal from the record's current
// status. Unrecognised persisted statuses never allow anything.
func CanTransition(rec *model.ReturnRecord, action Action) bool {
	current, ok := MigrateStatus(rec.Status)
	if !ok {
		return false
	}

	if action == ActionUndo {
		_, hasPrev := previousStage[current]
		return hasPrev && !IsTerminal(current)
	}

	if IsDirectReturn(rec) {
		// Direct Return items skip branch consolidation on the way out and
		// may skip hub receiving and grading on the way in.
		if action == ActionDispatch && current == StatusRequested {
			return true
		}
		if action == ActionDocument && current == StatusInTransit {
			return true
		}
	}

	preds, ok := predecessors[action]
	if !ok {
		return false
	}
	_, ok = preds[current]
	return ok
}

// AllowedActions returns every action legal from the record's current status,
// in pipeline order. Callers render exactly this set.
func AllowedActions(rec *model.ReturnRecord) []Action {
	order := []Action{
		ActionRequest, ActionJobAccept, ActionBranchReceive, ActionConsolidate,
		ActionDispatch, ActionHubReceive, ActionGrade, ActionDocument,
		ActionComplete, ActionReject, ActionUndo,
	}
	var allowed []Action
	for _, a := range order {
		if CanTransition(rec, a) {
			allowed = append(allowed, a)
		}
	}
	return allowed
}

// SideEffectKind labels an auxiliary record the caller must create when a
// transition is persisted.
type SideEffectKind string

const (
	SideEffectCreateNCR             SideEffectKind = "CreateNCR"
	SideEffectCreateCollectionOrder SideEffectKind = "CreateCollectionOrder"
	SideEffectNotify                SideEffectKind = "Notify"
)

// NCRDraft carries the quality-incident fields for a report spawned during
// grading.
type NCRDraft struct {
	Problem     string
	Cause       string
	ActionTaken string
	Severity    string
}

// SideEffect describes one auxiliary record or message produced by a
// transition. ApplyTransition only describes side effects; the caller owns
// persistence.
type SideEffect struct {
	Kind    SideEffectKind
	NCR     *NCRDraft
	Message string
}

// TransitionInput carries the user-supplied fields a transition may need.
type TransitionInput struct {
	Condition           string
	Decision            string
	PreliminaryDecision string
	ReturnRoute         string
	Note                string

	RaiseNCR bool
	NCR      NCRDraft

	Now time.Time
}

// ApplyTransition decides whether action is legal from the record's current
// status and, if so, returns the resulting record state plus the side effects
// the caller must persist. The input record is never mutated; callers persist
// the returned copy (or nothing, on error).
func ApplyTransition(rec *model.ReturnRecord, action Action, in TransitionInput) (*model.ReturnRecord, []SideEffect, error) {
	if rec.Quantity <= 0 {
		return nil, nil, &ValidationError{RecordID: rec.ID, Field: "quantity", Reason: "must be greater than zero"}
	}

	current, ok := MigrateStatus(rec.Status)
	if !ok {
		return nil, nil, &ValidationError{RecordID: rec.ID, Field: "status", Reason: "unrecognised status " + rec.Status}
	}

	// Checked before legality: a Pending disposition can never complete, and
	// the caller needs the missing-field error rather than an illegal-action
	// one, wherever the record sits in the pipeline.
	if action == ActionComplete && (rec.Disposition == "" || rec.Disposition == DispositionPending) {
		return nil, nil, &ValidationError{RecordID: rec.ID, Field: "disposition", Reason: "must be finalized before completion"}
	}

	if !CanTransition(rec, action) {
		return nil, nil, &TransitionError{
			RecordID: rec.ID,
			Action:   action,
			From:     current,
			Allowed:  AllowedActions(rec),
		}
	}

	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}

	updated := *rec
	var effects []SideEffect

	if action == ActionUndo {
		prev := previousStage[current]
		// Direct Return records reach Documented straight from InTransit;
		// undo retraces the path they actually took.
		if current == StatusDocumented && IsDirectReturn(rec) {
			prev = StatusInTransit
		}
		updated.Status = string(prev)
		updated.Version = rec.Version // caller bumps on persist
		return &updated, nil, nil
	}

	switch action {
	case ActionRequest:
		if updated.Branch == "" {
			return nil, nil, &ValidationError{RecordID: rec.ID, Field: "branch", Reason: "required"}
		}
		if updated.RequestedAt == nil {
			updated.RequestedAt = &now
		}
		effects = append(effects, SideEffect{
			Kind:    SideEffectNotify,
			Message: "Return requested: " + rec.ID + " (" + rec.ProductName + ")",
		})

	case ActionConsolidate:
		if in.PreliminaryDecision == "Return" && in.ReturnRoute == "" {
			return nil, nil, &ValidationError{RecordID: rec.ID, Field: "return_route", Reason: "required when preliminary decision is Return"}
		}
		updated.PreliminaryDecision = in.PreliminaryDecision
		updated.PreliminaryRoute = in.ReturnRoute
		if rec.CollectionOrderID == nil {
			effects = append(effects, SideEffect{Kind: SideEffectCreateCollectionOrder})
		}

	case ActionHubReceive:
		if updated.ReceivedAt == nil {
			updated.ReceivedAt = &now
		}

	case ActionGrade:
		if in.Condition == "" || in.Condition == ConditionUnknown {
			return nil, nil, &ValidationError{RecordID: rec.ID, Field: "condition", Reason: "grading requires an inspected condition"}
		}
		updated.Condition = in.Condition
		updated.Disposition = ComputeDisposition(in.Condition, in.Decision)
		if updated.GradedAt == nil {
			updated.GradedAt = &now
		}
		if in.RaiseNCR {
			if in.NCR.Problem == "" {
				return nil, nil, &ValidationError{RecordID: rec.ID, Field: "ncr.problem", Reason: "required when raising a non-conformance report"}
			}
			ncr := in.NCR
			effects = append(effects, SideEffect{Kind: SideEffectCreateNCR, NCR: &ncr})
		}

	case ActionDocument:
		if updated.DocumentedAt == nil {
			updated.DocumentedAt = &now
		}

	case ActionComplete:
		if updated.CompletedAt == nil {
			updated.CompletedAt = &now
		}
		effects = append(effects, SideEffect{
			Kind:    SideEffectNotify,
			Message: "Return completed: " + rec.ID + " disposition " + updated.Disposition,
		})
	}

	updated.Status = string(targets[action])
	return &updated, effects, nil
}
