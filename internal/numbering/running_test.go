package numbering

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBranchCode(t *testing.T) {
	assert.Equal(t, "BKK", BranchCode("กรุงเทพฯ"))
	assert.Equal(t, "BKK", BranchCode("กรุงเทพมหานคร"))
	assert.Equal(t, "CNX", BranchCode("เชียงใหม่"))
	assert.Equal(t, "HQ", BranchCode("สำนักงานใหญ่"))

	// Already-a-code passes through.
	assert.Equal(t, "BKK", BranchCode("BKK"))
	assert.Equal(t, "HQ", BranchCode("HQ"))

	// Unknown names and non-code strings fall back.
	assert.Equal(t, DefaultBranchCode, BranchCode("สาขาลับ"))
	assert.Equal(t, DefaultBranchCode, BranchCode("bkk"))
	assert.Equal(t, DefaultBranchCode, BranchCode("B1"))
	assert.Equal(t, DefaultBranchCode, BranchCode(""))
	assert.Equal(t, DefaultBranchCode, BranchCode("TOOLONG"))

	// Surrounding whitespace is ignored.
	assert.Equal(t, "CNX", BranchCode(" เชียงใหม่ "))
}

func TestScopeAndFormat(t *testing.T) {
	scope := Scope(PrefixCollection, "เชียงใหม่", 2024)
	assert.Equal(t, "COL-CNX-2024", scope)
	assert.Equal(t, "COL-CNX-2024-0003", Format(scope, 3))
	assert.Equal(t, "COL-CNX-2024-12345", Format(scope, 12345))
}

func TestGenerateRunningID(t *testing.T) {
	existing := []string{
		"COL-CNX-2024-0001",
		"COL-CNX-2024-0002",
	}
	assert.Equal(t, "COL-CNX-2024-0003", GenerateRunningID(PrefixCollection, "เชียงใหม่", 2024, existing))
}

func TestGenerateRunningIDEmptyScope(t *testing.T) {
	assert.Equal(t, "RET-BKK-2024-0001", GenerateRunningID(PrefixReturn, "กรุงเทพฯ", 2024, nil))
}

func TestGenerateRunningIDIgnoresOtherScopes(t *testing.T) {
	existing := []string{
		"COL-BKK-2024-0009", // other branch
		"COL-CNX-2023-0044", // other year
		"RET-CNX-2024-0100", // other prefix
		"COL-CNX-2024-0002",
		"COL-CNX-2024-junk", // malformed suffix
	}
	assert.Equal(t, "COL-CNX-2024-0003", GenerateRunningID(PrefixCollection, "เชียงใหม่", 2024, existing))
}

func TestGenerateRunningIDNeverRefillsGaps(t *testing.T) {
	existing := []string{
		"SHP-HQ-2024-0001",
		"SHP-HQ-2024-0007", // 2-6 were voided; the sequence must not reuse them
	}
	assert.Equal(t, "SHP-HQ-2024-0008", GenerateRunningID(PrefixShipment, "สำนักงานใหญ่", 2024, existing))
}

func TestGenerateRunningIDUnknownBranch(t *testing.T) {
	assert.Equal(t, "NCR-GEN-2024-0001", GenerateRunningID(PrefixNCR, "สาขาลับ", 2024, nil))
}
