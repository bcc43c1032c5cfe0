package workflow

import (
	"testing"
	"time"

	"backend/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gradedRecord() *model.ReturnRecord {
	graded := time.Date(2024, 6, 2, 14, 0, 0, 0, time.UTC)
	return &model.ReturnRecord{
		ID:          "RET-BKK-2024-0007",
		RefNo:       "INV-2002",
		Branch:      "กรุงเทพฯ",
		ProductCode: "P-200",
		ProductName: "Gadget",
		Quantity:    100,
		Unit:        "Box",
		PriceBill:   decimal.RequireFromString("2400"),
		Status:      string(StatusQCGraded),
		Condition:   "Damaged",
		Disposition: DispositionRTV,
		NCRNumber:   "NCR-BKK-2024-0001",
		GradedAt:    &graded,
		Version:     3,
	}
}

func TestSplitRecordConservesQuantity(t *testing.T) {
	rec := gradedRecord()

	remainder, sibling, err := SplitRecord(rec, 30, SplitOptions{SiblingID: "RET-BKK-2024-0008"})
	require.NoError(t, err)

	assert.Equal(t, int64(70), remainder.Quantity)
	assert.Equal(t, int64(30), sibling.Quantity)
	assert.Equal(t, rec.Quantity, remainder.Quantity+sibling.Quantity)

	assert.Equal(t, "RET-BKK-2024-0008", sibling.ID)
	require.NotNil(t, sibling.ParentID)
	assert.Equal(t, rec.ID, *sibling.ParentID)
	assert.Equal(t, 0, sibling.Version)
	assert.Empty(t, sibling.NCRNumber, "NCR number belongs to the original record only")

	// No immediate disposition: back into the grading queue.
	assert.Equal(t, string(StatusHubReceived), sibling.Status)
	assert.Empty(t, sibling.Condition)
	assert.Equal(t, DispositionPending, sibling.Disposition)
	assert.Nil(t, sibling.GradedAt)
}

func TestSplitRecordImmediateDisposition(t *testing.T) {
	rec := gradedRecord()

	_, sibling, err := SplitRecord(rec, 30, SplitOptions{
		SiblingID:   "RET-BKK-2024-0008",
		Disposition: DispositionRecycle,
	})
	require.NoError(t, err)

	assert.Equal(t, string(StatusQCGraded), sibling.Status)
	assert.Equal(t, DispositionRecycle, sibling.Disposition)
	assert.Equal(t, rec.Condition, sibling.Condition)
}

func TestSplitRecordUnitBreakdown(t *testing.T) {
	rec := gradedRecord() // 100 Box, bill 2400

	remainder, sibling, err := SplitRecord(rec, 50, SplitOptions{
		SiblingID:      "RET-BKK-2024-0008",
		UnitBreakdown:  true,
		ConversionRate: 12,
		NewUnit:        "Piece",
	})
	require.NoError(t, err)

	// 100 boxes of 12 = 1200 pieces; 50 split off leaves 1150.
	assert.Equal(t, int64(1150), remainder.Quantity)
	assert.Equal(t, int64(50), sibling.Quantity)
	assert.Equal(t, "Piece", remainder.Unit)
	assert.Equal(t, "Piece", sibling.Unit)

	perUnit := decimal.RequireFromString("200") // 2400 / 12, exact
	assert.True(t, remainder.PriceUnit.Equal(perUnit), "remainder per-unit price %s", remainder.PriceUnit)
	assert.True(t, sibling.PriceUnit.Equal(perUnit), "sibling per-unit price %s", sibling.PriceUnit)
}

func TestSplitRecordInexactDivisionRejected(t *testing.T) {
	rec := gradedRecord()
	rec.PriceBill = decimal.RequireFromString("100") // 100/12 never terminates

	_, _, err := SplitRecord(rec, 50, SplitOptions{
		SiblingID:      "RET-BKK-2024-0008",
		UnitBreakdown:  true,
		ConversionRate: 12,
		NewUnit:        "Piece",
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "price_bill", verr.Field)
}

func TestSplitRecordBounds(t *testing.T) {
	rec := gradedRecord()

	for _, qty := range []int64{0, -5, 100, 150} {
		_, _, err := SplitRecord(rec, qty, SplitOptions{SiblingID: "RET-BKK-2024-0008"})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr, "split qty %d", qty)
		assert.Equal(t, "split_qty", verr.Field)
	}

	// With breakdown the bound is the effective quantity, not the stored one.
	_, _, err := SplitRecord(rec, 100, SplitOptions{
		SiblingID:      "RET-BKK-2024-0008",
		UnitBreakdown:  true,
		ConversionRate: 12,
		NewUnit:        "Piece",
	})
	require.NoError(t, err)
}

func TestSplitRecordOptionValidation(t *testing.T) {
	rec := gradedRecord()

	_, _, err := SplitRecord(rec, 30, SplitOptions{})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "sibling_id", verr.Field)

	_, _, err = SplitRecord(rec, 30, SplitOptions{
		SiblingID:      "RET-BKK-2024-0008",
		UnitBreakdown:  true,
		ConversionRate: 1,
	})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "conversion_rate", verr.Field)
}

func TestSplitResultsReenterTransitionTable(t *testing.T) {
	rec := gradedRecord()

	remainder, sibling, err := SplitRecord(rec, 30, SplitOptions{SiblingID: "RET-BKK-2024-0008"})
	require.NoError(t, err)

	// Remainder stayed QCGraded and can be documented; the regrading sibling
	// has to be graded first.
	assert.True(t, CanTransition(remainder, ActionDocument))
	assert.False(t, CanTransition(sibling, ActionDocument))
	assert.True(t, CanTransition(sibling, ActionGrade))
}
