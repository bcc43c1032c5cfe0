package handler

import (
	"net/http"
	"time"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type ReportHandler struct {
	reportService service.ReportService
}

func NewReportHandler(reportService service.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

func (h *ReportHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/api/reports")
	group.Use(middleware.RequireRole("admin", "manager"))
	{
		group.GET("/returns-summary", h.GetReturnsSummary)
	}
}

// GetReturnsSummary aggregates return records into dashboard tallies
// @Summary      Returns summary report
// @Description  Counts return records created in the date range, grouped by status, disposition, and branch. Defaults to the last 30 days.
// @Tags         reports
// @Security     BearerAuth
// @Produce      json
// @Param        start_date  query     string  false  "Start date (YYYY-MM-DD)"
// @Param        end_date    query     string  false  "End date (YYYY-MM-DD)"
// @Success      200         {object}  response.Response{data=service.ReturnsSummaryResponse}
// @Failure      400         {object}  response.Response
// @Router       /api/reports/returns-summary [get]
func (h *ReportHandler) GetReturnsSummary(c *gin.Context) {
	endDate := time.Now()
	startDate := endDate.AddDate(0, 0, -30)

	if raw := c.Query("start_date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid start_date, expected YYYY-MM-DD"))
			return
		}
		startDate = parsed
	}
	if raw := c.Query("end_date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid end_date, expected YYYY-MM-DD"))
			return
		}
		// Include the whole end day
		endDate = parsed.Add(24*time.Hour - time.Second)
	}

	summary, err := h.reportService.GetReturnsSummary(c.Request.Context(), startDate, endDate)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, summary))
}
