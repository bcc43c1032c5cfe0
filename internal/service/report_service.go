package service

import (
	"context"
	"time"

	"backend/internal/model"

	"gorm.io/gorm"
)

type BucketCount struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

type ReturnsSummaryResponse struct {
	TimeRangeStartDate time.Time     `json:"time_range_start_date"`
	TimeRangeEndDate   time.Time     `json:"time_range_end_date"`
	TotalRecords       int64         `json:"total_records"`
	OpenRecords        int64         `json:"open_records"`
	ByStatus           []BucketCount `json:"by_status"`
	ByDisposition      []BucketCount `json:"by_disposition"`
	ByBranch           []BucketCount `json:"by_branch"`
}

type ReportService interface {
	GetReturnsSummary(ctx context.Context, startDate, endDate time.Time) (ReturnsSummaryResponse, error)
}

type reportService struct {
	db *gorm.DB
}

func NewReportService(db *gorm.DB) ReportService {
	return &reportService{db: db}
}

// GetReturnsSummary aggregates return records created within the time range
// into status, disposition, and branch tallies for the dashboard screens.
func (s *reportService) GetReturnsSummary(ctx context.Context, startDate, endDate time.Time) (ReturnsSummaryResponse, error) {
	var response ReturnsSummaryResponse
	response.TimeRangeStartDate = startDate
	response.TimeRangeEndDate = endDate

	base := func() *gorm.DB {
		return s.db.WithContext(ctx).
			Model(&model.ReturnRecord{}).
			Where("created_at >= ? AND created_at <= ?", startDate, endDate)
	}

	if err := base().Count(&response.TotalRecords).Error; err != nil {
		return response, err
	}

	if err := base().
		Where("status NOT IN ?", []string{"Completed", "Rejected"}).
		Count(&response.OpenRecords).Error; err != nil {
		return response, err
	}

	if err := base().
		Select("status as key, COUNT(*) as count").
		Group("status").
		Order("count DESC").
		Scan(&response.ByStatus).Error; err != nil {
		return response, err
	}

	if err := base().
		Select("disposition as key, COUNT(*) as count").
		Group("disposition").
		Order("count DESC").
		Scan(&response.ByDisposition).Error; err != nil {
		return response, err
	}

	if err := base().
		Select("branch as key, COUNT(*) as count").
		Group("branch").
		Order("count DESC").
		Scan(&response.ByBranch).Error; err != nil {
		return response, err
	}

	return response, nil
}
