package service

import (
	"testing"
	"time"

	"backend/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestBuildReturnsWorkbookHeader(t *testing.T) {
	f, err := BuildReturnsWorkbook(nil)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	for i, want := range exportColumns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		require.NoError(t, err)
		got, err := f.GetCellValue("Sheet1", cell)
		require.NoError(t, err)
		assert.Equal(t, want, got, "header column %d", i+1)
	}
}

func TestBuildReturnsWorkbookRows(t *testing.T) {
	orderID := "COL-BKK-2024-0002"
	requested := time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC)
	graded := time.Date(2024, 5, 10, 16, 45, 0, 0, time.UTC)

	records := []model.ReturnRecord{
		{
			ID:                "RET-BKK-2024-0001",
			RefNo:             "INV-1001",
			Branch:            "กรุงเทพฯ",
			CustomerName:      "ลูกค้า ก",
			ProductCode:       "P-100",
			ProductName:       "Widget",
			Quantity:          10,
			Unit:              "Piece",
			PriceUnit:         decimal.RequireFromString("25.50"),
			PriceBill:         decimal.RequireFromString("255"),
			PriceSell:         decimal.RequireFromString("300"),
			Status:            "QCGraded",
			Condition:         "Damaged",
			Disposition:       "RTV",
			NCRNumber:         "NCR-BKK-2024-0001",
			CollectionOrderID: &orderID,
			RequestedAt:       &requested,
			GradedAt:          &graded,
		},
		{
			ID:          "RET-CNX-2024-0001",
			RefNo:       "DR-2002",
			Branch:      "เชียงใหม่",
			ProductCode: "P-200",
			ProductName: "Gadget",
			Quantity:    3,
			Unit:        "Box",
			PriceUnit:   decimal.RequireFromString("100"),
			PriceBill:   decimal.RequireFromString("300"),
			PriceSell:   decimal.RequireFromString("360"),
			Status:      "InTransit",
			Disposition: "Pending",
		},
	}

	f, err := BuildReturnsWorkbook(records)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	get := func(col, row int) string {
		cell, cellErr := excelize.CoordinatesToCellName(col, row)
		require.NoError(t, cellErr)
		v, getErr := f.GetCellValue("Sheet1", cell)
		require.NoError(t, getErr)
		return v
	}

	// First data row: full record.
	assert.Equal(t, "RET-BKK-2024-0001", get(1, 2))
	assert.Equal(t, "INV-1001", get(2, 2))
	assert.Equal(t, "กรุงเทพฯ", get(3, 2))
	assert.Equal(t, "ลูกค้า ก", get(4, 2))
	assert.Equal(t, "10", get(8, 2))
	assert.Equal(t, "Piece", get(9, 2))
	assert.Equal(t, "25.5", get(10, 2))
	assert.Equal(t, "QCGraded", get(13, 2))
	assert.Equal(t, "RTV", get(15, 2))
	assert.Equal(t, "NCR-BKK-2024-0001", get(16, 2))
	assert.Equal(t, orderID, get(17, 2))
	assert.Equal(t, "2024-05-01 08:30:00", get(18, 2))
	assert.Equal(t, "2024-05-10 16:45:00", get(20, 2))

	// Second data row: nil pointers render as empty cells.
	assert.Equal(t, "RET-CNX-2024-0001", get(1, 3))
	assert.Equal(t, "", get(17, 3))
	assert.Equal(t, "", get(18, 3))
	assert.Equal(t, "", get(22, 3))
}
