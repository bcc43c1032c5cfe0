package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeDisposition(t *testing.T) {
	cases := []struct {
		name      string
		condition string
		decision  string
		want      string
	}{
		{"no condition yet", "", "Restock", DispositionPending},
		{"unknown condition", ConditionUnknown, "Restock", DispositionPending},
		{"restock", "Good", "Restock", DispositionRestock},
		{"resell maps to restock", "Good", "Resell", DispositionRestock},
		{"rtv", "Damaged", "RTV", DispositionRTV},
		{"return maps to rtv", "Damaged", "Return", DispositionRTV},
		{"return to vendor maps to rtv", "Damaged", "ReturnToVendor", DispositionRTV},
		{"internal use", "Opened", "InternalUse", DispositionInternalUse},
		{"recycle", "Broken", "Recycle", DispositionRecycle},
		{"scrap maps to recycle", "Broken", "Scrap", DispositionRecycle},
		{"claim", "Damaged", "Claim", DispositionClaim},
		{"no decision yet", "Good", "", DispositionPending},
		{"unrecognised decision", "Good", "Juggle", DispositionPending},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ComputeDisposition(tc.condition, tc.decision))
		})
	}
}
