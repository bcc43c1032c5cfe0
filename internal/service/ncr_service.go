package service

import (
	"context"
	"errors"
	"fmt"

	"backend/internal/model"
	"backend/internal/repository"

	"gorm.io/gorm"
)

type NCRResponse struct {
	ID             string `json:"id"`
	ReturnRecordID string `json:"return_record_id"`
	Problem        string `json:"problem"`
	Cause          string `json:"cause"`
	ActionTaken    string `json:"action_taken"`
	Severity       string `json:"severity"`
	ItemSnapshot   string `json:"item_snapshot"`
	ReporterName   string `json:"reporter_name"`
	CreatedAt      string `json:"created_at"`
}

// NCRService is the read side of non-conformance reports. Reports are only
// ever created as a side effect of grading a return record; there is no
// standalone create path.
type NCRService interface {
	Get(ctx context.Context, id string) (NCRResponse, error)
	List(ctx context.Context, page, limit int) ([]NCRResponse, int64, error)
}

type ncrService struct {
	ncrRepo repository.NCRRepository
}

func NewNCRService(ncrRepo repository.NCRRepository) NCRService {
	return &ncrService{ncrRepo: ncrRepo}
}

func (s *ncrService) Get(ctx context.Context, id string) (NCRResponse, error) {
	ncr, err := s.ncrRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return NCRResponse{}, fmt.Errorf("NCR report not found: %s", id)
		}
		return NCRResponse{}, fmt.Errorf("failed to load NCR report %s: %w", id, err)
	}
	return toNCRResponse(ncr), nil
}

func (s *ncrService) List(ctx context.Context, page, limit int) ([]NCRResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	ncrs, total, err := s.ncrRepo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]NCRResponse, 0, len(ncrs))
	for i := range ncrs {
		res = append(res, toNCRResponse(&ncrs[i]))
	}
	return res, total, nil
}

func toNCRResponse(ncr *model.NCRRecord) NCRResponse {
	reporter := ""
	if ncr.Reporter != nil {
		reporter = ncr.Reporter.Username
	}

	return NCRResponse{
		ID:             ncr.ID,
		ReturnRecordID: ncr.ReturnRecordID,
		Problem:        ncr.Problem,
		Cause:          ncr.Cause,
		ActionTaken:    ncr.ActionTaken,
		Severity:       ncr.Severity,
		ItemSnapshot:   ncr.ItemSnapshot,
		ReporterName:   reporter,
		CreatedAt:      ncr.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}
