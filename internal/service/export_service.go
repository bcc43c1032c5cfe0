package service

import (
	"context"
	"fmt"
	"time"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/xuri/excelize/v2"
)

// exportColumns is the fixed field mapping for the returns workbook. Column
// order matches the spreadsheet the back office already works with; changing
// it breaks downstream macros.
var exportColumns = []string{
	"ID", "RefNo", "Branch", "Customer", "DestCustomer",
	"ProductCode", "ProductName", "Quantity", "Unit",
	"PriceUnit", "PriceBill", "PriceSell",
	"Status", "Condition", "Disposition",
	"NCRNumber", "CollectionOrder",
	"RequestedAt", "ReceivedAt", "GradedAt", "DocumentedAt", "CompletedAt",
}

type ExportService interface {
	ExportReturns(ctx context.Context) (*excelize.File, error)
}

type exportService struct {
	returnRepo repository.ReturnRepository
}

func NewExportService(returnRepo repository.ReturnRepository) ExportService {
	return &exportService{returnRepo: returnRepo}
}

func (s *exportService) ExportReturns(ctx context.Context) (*excelize.File, error) {
	records, err := s.returnRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load return records: %w", err)
	}
	return BuildReturnsWorkbook(records)
}

// BuildReturnsWorkbook renders records into a workbook using the fixed
// column mapping.
func BuildReturnsWorkbook(records []model.ReturnRecord) (*excelize.File, error) {
	f := excelize.NewFile()
	const sheet = "Sheet1"

	for i, header := range exportColumns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return nil, err
		}
	}

	for row := range records {
		rec := &records[row]
		values := []interface{}{
			rec.ID, rec.RefNo, rec.Branch, rec.CustomerName, rec.DestCustomer,
			rec.ProductCode, rec.ProductName, rec.Quantity, rec.Unit,
			rec.PriceUnit.String(), rec.PriceBill.String(), rec.PriceSell.String(),
			rec.Status, rec.Condition, rec.Disposition,
			rec.NCRNumber, derefString(rec.CollectionOrderID),
			derefTime(rec.RequestedAt), derefTime(rec.ReceivedAt),
			derefTime(rec.GradedAt), derefTime(rec.DocumentedAt), derefTime(rec.CompletedAt),
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return nil, err
			}
		}
	}

	return f, nil
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02 15:04:05")
}
