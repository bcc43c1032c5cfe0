package workflow

import (
	"fmt"

	"backend/internal/model"

	"github.com/shopspring/decimal"
)

// SplitOptions controls how a record is divided.
type SplitOptions struct {
	// SiblingID is the fresh running number for the new record; the caller
	// obtains it from the numbering service before splitting.
	SiblingID string

	// UnitBreakdown converts the record from a pack unit into individual
	// units before splitting (e.g. Box of 12 → Pieces).
	UnitBreakdown  bool
	ConversionRate int64
	NewUnit        string

	// Disposition, when set, is applied to the sibling immediately so it
	// advances straight to the post-QC state instead of re-entering the
	// grading queue.
	Disposition string
}

// EffectiveQuantity is the quantity a split operates over: the stored
// quantity, multiplied by the conversion rate when the record is being broken
// from a pack unit into individual units.
func EffectiveQuantity(rec *model.ReturnRecord, opts SplitOptions) int64 {
	if opts.UnitBreakdown && opts.ConversionRate > 1 {
		return rec.Quantity * opts.ConversionRate
	}
	return rec.Quantity
}

// SplitRecord divides rec into a remainder and a new sibling record.
// Quantity is conserved exactly: remainder.Quantity + sibling.Quantity equals
// EffectiveQuantity(rec, opts). When unit breakdown is used, the per-unit
// price is the bill price divided by the conversion rate, and the division
// must be exact; a price that does not divide evenly is rejected rather than
// silently rounded.
func SplitRecord(rec *model.ReturnRecord, splitQty int64, opts SplitOptions) (*model.ReturnRecord, *model.ReturnRecord, error) {
	if opts.SiblingID == "" {
		return nil, nil, &ValidationError{RecordID: rec.ID, Field: "sibling_id", Reason: "required"}
	}
	if opts.UnitBreakdown && opts.ConversionRate <= 1 {
		return nil, nil, &ValidationError{RecordID: rec.ID, Field: "conversion_rate", Reason: "must be greater than 1 for unit breakdown"}
	}

	eff := EffectiveQuantity(rec, opts)
	if splitQty <= 0 || splitQty >= eff {
		return nil, nil, &ValidationError{
			RecordID: rec.ID,
			Field:    "split_qty",
			Reason:   fmt.Sprintf("must be between 1 and %d", eff-1),
		}
	}

	remainder := *rec
	sibling := *rec
	parentID := rec.ID
	sibling.ID = opts.SiblingID
	sibling.ParentID = &parentID
	sibling.Version = 0
	sibling.NCRNumber = ""
	sibling.CollectionOrderID = rec.CollectionOrderID

	remainder.Quantity = eff - splitQty
	sibling.Quantity = splitQty

	if opts.UnitBreakdown {
		rate := decimal.NewFromInt(opts.ConversionRate)
		perUnit := rec.PriceBill.Div(rate)
		if !perUnit.Mul(rate).Equal(rec.PriceBill) {
			return nil, nil, &ValidationError{
				RecordID: rec.ID,
				Field:    "price_bill",
				Reason:   fmt.Sprintf("%s is not exactly divisible by conversion rate %d", rec.PriceBill, opts.ConversionRate),
			}
		}
		remainder.Unit = opts.NewUnit
		sibling.Unit = opts.NewUnit
		remainder.PriceUnit = perUnit
		sibling.PriceUnit = perUnit
	}

	if opts.Disposition != "" && opts.Disposition != DispositionPending {
		// Immediate disposition: the sibling's handling is already decided,
		// so it lands in the post-QC state with its parent's condition.
		sibling.Status = string(StatusQCGraded)
		sibling.Disposition = opts.Disposition
	} else {
		// Back into the grading queue for its own inspection.
		sibling.Status = string(StatusHubReceived)
		sibling.Condition = ""
		sibling.Disposition = DispositionPending
		sibling.GradedAt = nil
	}

	return &remainder, &sibling, nil
}
