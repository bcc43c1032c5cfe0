package workflow

import (
	"testing"
	"time"

	"backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(status Status) *model.ReturnRecord {
	return &model.ReturnRecord{
		ID:          "RET-BKK-2024-0001",
		RefNo:       "INV-1001",
		Branch:      "กรุงเทพฯ",
		ProductCode: "P-100",
		ProductName: "Widget",
		Quantity:    10,
		Unit:        "Piece",
		Status:      string(status),
		Disposition: DispositionPending,
	}
}

func TestCanTransitionTable(t *testing.T) {
	cases := []struct {
		from   Status
		action Action
		want   bool
	}{
		{StatusDraft, ActionRequest, true},
		{StatusDraft, ActionReject, true},
		{StatusDraft, ActionGrade, false},
		{StatusRequested, ActionRequest, true}, // re-request is a no-op-safe repeat
		{StatusRequested, ActionJobAccept, true},
		{StatusRequested, ActionReject, true},
		{StatusRequested, ActionDispatch, false},
		{StatusJobAccepted, ActionBranchReceive, true},
		{StatusJobAccepted, ActionReject, false},
		{StatusBranchReceived, ActionConsolidate, true},
		{StatusConsolidated, ActionDispatch, true},
		{StatusConsolidated, ActionHubReceive, false},
		{StatusInTransit, ActionHubReceive, true},
		{StatusInTransit, ActionDocument, false},
		{StatusHubReceived, ActionGrade, true},
		{StatusQCGraded, ActionDocument, true},
		{StatusDocumented, ActionComplete, true},
		{StatusCompleted, ActionComplete, false},
		{StatusCompleted, ActionUndo, false},
		{StatusRejected, ActionRequest, false},
		{StatusRejected, ActionUndo, false},
		{StatusDraft, ActionUndo, false},
		{StatusRequested, ActionUndo, true},
		{StatusDocumented, ActionUndo, true},
	}

	for _, tc := range cases {
		got := CanTransition(record(tc.from), tc.action)
		assert.Equal(t, tc.want, got, "%s from %s", tc.action, tc.from)
	}
}

func TestCanTransitionUnrecognisedStatus(t *testing.T) {
	rec := record(StatusDraft)
	rec.Status = "WaitingForGodot"
	for _, a := range []Action{ActionRequest, ActionReject, ActionUndo} {
		assert.False(t, CanTransition(rec, a))
	}
	assert.Empty(t, AllowedActions(rec))
}

func TestCanTransitionLegacyStatus(t *testing.T) {
	rec := record(StatusDraft)
	rec.Status = "ReceivedAtHub"
	assert.True(t, CanTransition(rec, ActionGrade))
	assert.False(t, CanTransition(rec, ActionComplete))
}

func TestDirectReturnFastPaths(t *testing.T) {
	dr := record(StatusRequested)
	dr.RefNo = "DR-1001"
	require.True(t, IsDirectReturn(dr))
	assert.True(t, CanTransition(dr, ActionDispatch))

	dr.Status = string(StatusInTransit)
	assert.True(t, CanTransition(dr, ActionDocument))
	assert.True(t, CanTransition(dr, ActionHubReceive)) // still allowed, just not required

	// The same statuses without the prefix stay on the long route.
	plain := record(StatusRequested)
	assert.False(t, CanTransition(plain, ActionDispatch))
	plain.Status = string(StatusInTransit)
	assert.False(t, CanTransition(plain, ActionDocument))
}

func TestApplyTransitionIllegalAction(t *testing.T) {
	rec := record(StatusCompleted)
	rec.Disposition = DispositionRestock
	_, _, err := ApplyTransition(rec, ActionComplete, TransitionInput{})

	var terr *TransitionError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, ActionComplete, terr.Action)
	assert.Equal(t, StatusCompleted, terr.From)
	assert.Empty(t, terr.Allowed)
}

func TestApplyTransitionRequest(t *testing.T) {
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	rec := record(StatusDraft)

	updated, effects, err := ApplyTransition(rec, ActionRequest, TransitionInput{Now: now})
	require.NoError(t, err)
	assert.Equal(t, string(StatusRequested), updated.Status)
	require.NotNil(t, updated.RequestedAt)
	assert.Equal(t, now, *updated.RequestedAt)

	require.Len(t, effects, 1)
	assert.Equal(t, SideEffectNotify, effects[0].Kind)
	assert.Contains(t, effects[0].Message, rec.ID)

	// Input record is untouched.
	assert.Equal(t, string(StatusDraft), rec.Status)
	assert.Nil(t, rec.RequestedAt)
}

func TestApplyTransitionRequestRequiresBranch(t *testing.T) {
	rec := record(StatusDraft)
	rec.Branch = ""

	_, _, err := ApplyTransition(rec, ActionRequest, TransitionInput{})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "branch", verr.Field)
}

func TestApplyTransitionRejectsNonPositiveQuantity(t *testing.T) {
	rec := record(StatusDraft)
	rec.Quantity = 0

	_, _, err := ApplyTransition(rec, ActionRequest, TransitionInput{})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "quantity", verr.Field)
}

func TestApplyTransitionConsolidate(t *testing.T) {
	rec := record(StatusBranchReceived)

	// Return routing without a route is rejected.
	_, _, err := ApplyTransition(rec, ActionConsolidate, TransitionInput{PreliminaryDecision: "Return"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "return_route", verr.Field)

	updated, effects, err := ApplyTransition(rec, ActionConsolidate, TransitionInput{
		PreliminaryDecision: "Return",
		ReturnRoute:         "Hub",
	})
	require.NoError(t, err)
	assert.Equal(t, string(StatusConsolidated), updated.Status)
	assert.Equal(t, "Return", updated.PreliminaryDecision)
	assert.Equal(t, "Hub", updated.PreliminaryRoute)
	require.Len(t, effects, 1)
	assert.Equal(t, SideEffectCreateCollectionOrder, effects[0].Kind)

	// Already linked to an order: no new one is requested.
	linked := record(StatusBranchReceived)
	orderID := "COL-BKK-2024-0001"
	linked.CollectionOrderID = &orderID
	_, effects, err = ApplyTransition(linked, ActionConsolidate, TransitionInput{})
	require.NoError(t, err)
	assert.Empty(t, effects)
}

func TestApplyTransitionGrade(t *testing.T) {
	now := time.Date(2024, 6, 2, 14, 0, 0, 0, time.UTC)
	rec := record(StatusHubReceived)

	// Grading demands an inspected condition.
	for _, condition := range []string{"", ConditionUnknown} {
		_, _, err := ApplyTransition(rec, ActionGrade, TransitionInput{Condition: condition, Decision: "Restock"})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "condition", verr.Field)
	}

	updated, effects, err := ApplyTransition(rec, ActionGrade, TransitionInput{
		Condition: "Damaged",
		Decision:  "RTV",
		Now:       now,
	})
	require.NoError(t, err)
	assert.Equal(t, string(StatusQCGraded), updated.Status)
	assert.Equal(t, "Damaged", updated.Condition)
	assert.Equal(t, DispositionRTV, updated.Disposition)
	require.NotNil(t, updated.GradedAt)
	assert.Equal(t, now, *updated.GradedAt)
	assert.Empty(t, effects)
}

func TestApplyTransitionGradeWithNCR(t *testing.T) {
	rec := record(StatusHubReceived)

	_, _, err := ApplyTransition(rec, ActionGrade, TransitionInput{
		Condition: "Damaged",
		Decision:  "Claim",
		RaiseNCR:  true,
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "ncr.problem", verr.Field)

	updated, effects, err := ApplyTransition(rec, ActionGrade, TransitionInput{
		Condition: "Damaged",
		Decision:  "Claim",
		RaiseNCR:  true,
		NCR:       NCRDraft{Problem: "Crushed carton", Severity: "major"},
	})
	require.NoError(t, err)
	assert.Equal(t, DispositionClaim, updated.Disposition)
	require.Len(t, effects, 1)
	assert.Equal(t, SideEffectCreateNCR, effects[0].Kind)
	require.NotNil(t, effects[0].NCR)
	assert.Equal(t, "Crushed carton", effects[0].NCR.Problem)
}

func TestApplyTransitionCompleteRequiresFinalDisposition(t *testing.T) {
	rec := record(StatusDocumented)
	rec.Disposition = DispositionPending

	_, _, err := ApplyTransition(rec, ActionComplete, TransitionInput{})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "disposition", verr.Field)

	rec.Disposition = DispositionRestock
	updated, effects, err := ApplyTransition(rec, ActionComplete, TransitionInput{})
	require.NoError(t, err)
	assert.Equal(t, string(StatusCompleted), updated.Status)
	assert.NotNil(t, updated.CompletedAt)
	require.Len(t, effects, 1)
	assert.Equal(t, SideEffectNotify, effects[0].Kind)
	assert.Contains(t, effects[0].Message, DispositionRestock)
}

func TestApplyTransitionCompletePendingDispositionAnyStatus(t *testing.T) {
	// A Pending disposition is reported as the missing field even where
	// Complete is not a legal move, legacy statuses included.
	for _, status := range []string{"Graded", string(StatusQCGraded), string(StatusDraft), string(StatusInTransit)} {
		rec := record(StatusDraft)
		rec.Status = status
		rec.Disposition = DispositionPending

		_, _, err := ApplyTransition(rec, ActionComplete, TransitionInput{})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr, "status %s", status)
		assert.Equal(t, "disposition", verr.Field, "status %s", status)
	}
}

func TestApplyTransitionUndo(t *testing.T) {
	rec := record(StatusQCGraded)

	updated, effects, err := ApplyTransition(rec, ActionUndo, TransitionInput{})
	require.NoError(t, err)
	assert.Equal(t, string(StatusHubReceived), updated.Status)
	assert.Empty(t, effects)

	// One step at a time: a second undo goes back exactly one more stage.
	again, _, err := ApplyTransition(updated, ActionUndo, TransitionInput{})
	require.NoError(t, err)
	assert.Equal(t, string(StatusInTransit), again.Status)
}

func TestApplyTransitionUndoDirectReturn(t *testing.T) {
	dr := record(StatusDocumented)
	dr.RefNo = "DR-1001"

	// A Direct Return documented straight from InTransit undoes to InTransit,
	// not to a grading stage it never visited.
	updated, _, err := ApplyTransition(dr, ActionUndo, TransitionInput{})
	require.NoError(t, err)
	assert.Equal(t, string(StatusInTransit), updated.Status)

	plain := record(StatusDocumented)
	updated, _, err = ApplyTransition(plain, ActionUndo, TransitionInput{})
	require.NoError(t, err)
	assert.Equal(t, string(StatusQCGraded), updated.Status)
}

func TestApplyTransitionUndoFromRejected(t *testing.T) {
	rec := record(StatusRejected)
	_, _, err := ApplyTransition(rec, ActionUndo, TransitionInput{})

	var terr *TransitionError
	require.ErrorAs(t, err, &terr)
}
