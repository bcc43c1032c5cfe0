package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMigrateStatus(t *testing.T) {
	cases := []struct {
		raw  string
		want Status
	}{
		{"Draft", StatusDraft},
		{"COL_Draft", StatusDraft},
		{"ReturnRequested", StatusRequested},
		{"NCR_Requested", StatusRequested},
		{"Accepted", StatusJobAccepted},
		{"ReceivedAtBranch", StatusBranchReceived},
		{"COL_Consolidated", StatusConsolidated},
		{"InTransitHub", StatusInTransit},
		{"COL_InTransit", StatusInTransit},
		{"NCR_InTransit", StatusInTransit},
		{"ReceivedAtHub", StatusHubReceived},
		{"QCPassed", StatusQCGraded},
		{"NCR_Graded", StatusQCGraded},
		{"ReturnToSupplier", StatusDocumented},
		{"Closed", StatusCompleted},
		{"Cancelled", StatusRejected},
		{"SoftDeleted", StatusRejected},
	}

	for _, tc := range cases {
		got, ok := MigrateStatus(tc.raw)
		assert.True(t, ok, "expected %q to be recognised", tc.raw)
		assert.Equal(t, tc.want, got, "raw status %q", tc.raw)
	}
}

func TestMigrateStatusCanonicalPassthrough(t *testing.T) {
	all := []Status{
		StatusDraft, StatusRequested, StatusJobAccepted, StatusBranchReceived,
		StatusConsolidated, StatusInTransit, StatusHubReceived, StatusQCGraded,
		StatusDocumented, StatusCompleted, StatusRejected,
	}
	for _, s := range all {
		got, ok := MigrateStatus(string(s))
		assert.True(t, ok)
		assert.Equal(t, s, got)
	}
}

func TestMigrateStatusUnknown(t *testing.T) {
	_, ok := MigrateStatus("WaitingForGodot")
	assert.False(t, ok)

	_, ok = MigrateStatus("")
	assert.False(t, ok)
}

func TestMigrateRecordStatusReturnToSupplier(t *testing.T) {
	status, disposition, ok := MigrateRecordStatus("ReturnToSupplier", "")
	assert.True(t, ok)
	assert.Equal(t, StatusDocumented, status)
	assert.Equal(t, DispositionRTV, disposition)

	// A stored disposition other than Pending wins over the legacy status.
	status, disposition, ok = MigrateRecordStatus("ReturnToSupplier", DispositionClaim)
	assert.True(t, ok)
	assert.Equal(t, StatusDocumented, status)
	assert.Equal(t, DispositionClaim, disposition)
}

func TestMigrateRecordStatusDefaultsDisposition(t *testing.T) {
	_, disposition, ok := MigrateRecordStatus("HubReceived", "")
	assert.True(t, ok)
	assert.Equal(t, DispositionPending, disposition)
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, IsTerminal(StatusCompleted))
	assert.True(t, IsTerminal(StatusRejected))
	assert.False(t, IsTerminal(StatusDraft))
	assert.False(t, IsTerminal(StatusDocumented))
}
