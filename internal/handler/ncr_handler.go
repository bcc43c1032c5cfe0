package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type NCRHandler struct {
	ncrService service.NCRService
}

func NewNCRHandler(ncrService service.NCRService) *NCRHandler {
	return &NCRHandler{ncrService: ncrService}
}

func (h *NCRHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/api/ncr-reports")
	group.Use(middleware.RequireRole("admin", "manager", "staff"))
	{
		group.GET("", h.ListReports)
		group.GET("/:id", h.GetReport)
	}
}

// ListReports retrieves non-conformance reports with pagination
// @Summary      List NCR reports
// @Tags         ncr-reports
// @Security     BearerAuth
// @Produce      json
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Number of items per page (default 20)"
// @Success      200    {object}  response.Response{data=object}
// @Router       /api/ncr-reports [get]
func (h *NCRHandler) ListReports(c *gin.Context) {
	params := pagination.Parse(c)

	reports, total, err := h.ncrService.List(c.Request.Context(), params.Page, params.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"reports": reports,
		"total":   total,
		"page":    params.Page,
		"limit":   params.Limit,
	}))
}

// GetReport retrieves a single non-conformance report
// @Summary      Get NCR report
// @Tags         ncr-reports
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "NCR report ID"
// @Success      200  {object}  response.Response{data=service.NCRResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/ncr-reports/{id} [get]
func (h *NCRHandler) GetReport(c *gin.Context) {
	report, err := h.ncrService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, report))
}
