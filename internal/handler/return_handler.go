package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"backend/internal/middleware"
	"backend/internal/repository"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type ReturnHandler struct {
	returnService service.ReturnService
	exportService service.ExportService
}

func NewReturnHandler(returnService service.ReturnService, exportService service.ExportService) *ReturnHandler {
	return &ReturnHandler{returnService: returnService, exportService: exportService}
}

func (h *ReturnHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/api/returns")
	group.Use(middleware.RequireRole("admin", "manager", "staff"))
	{
		group.POST("", h.CreateReturn)
		group.GET("", h.ListReturns)
		group.GET("/export", h.ExportReturns)
		group.GET("/:id", h.GetReturn)
		group.POST("/:id/transitions", h.TransitionReturn)
		group.POST("/:id/split", h.SplitReturn)
		group.POST("/:id/undo", middleware.RequirePermission("returns.undo"), h.UndoTransition)
	}
}

func currentUserID(c *gin.Context) string {
	if userID, exists := c.Get("userID"); exists {
		if id, ok := userID.(string); ok {
			return id
		}
	}
	return ""
}

// CreateReturn registers a new return record, as draft or submitted
// @Summary      Create return record
// @Description  Creates a return record with a generated running number. Set submit=true to submit the request immediately.
// @Tags         returns
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      service.CreateReturnRequest  true  "Return record details"
// @Success      201      {object}  response.Response{data=service.ReturnResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/returns [post]
func (h *ReturnHandler) CreateReturn(c *gin.Context) {
	var req service.CreateReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request: "+err.Error()))
		return
	}

	rec, err := h.returnService.Create(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, rec))
}

// ListReturns retrieves return records with filters and pagination
// @Summary      List return records
// @Tags         returns
// @Security     BearerAuth
// @Produce      json
// @Param        status       query     string  false  "Filter by status"
// @Param        branch       query     string  false  "Filter by branch"
// @Param        disposition  query     string  false  "Filter by disposition"
// @Param        page         query     int     false  "Page number (default 1)"
// @Param        limit        query     int     false  "Number of items per page (default 20)"
// @Success      200          {object}  response.Response{data=object}
// @Router       /api/returns [get]
func (h *ReturnHandler) ListReturns(c *gin.Context) {
	params := pagination.Parse(c)

	filter := repository.ReturnFilter{
		Status:      c.Query("status"),
		Branch:      c.Query("branch"),
		Disposition: c.Query("disposition"),
		Page:        params.Page,
		Limit:       params.Limit,
	}

	records, total, err := h.returnService.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"records": records,
		"total":   total,
		"page":    params.Page,
		"limit":   params.Limit,
	}))
}

// GetReturn retrieves a single return record with its allowed actions
// @Summary      Get return record
// @Tags         returns
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Return record ID"
// @Success      200  {object}  response.Response{data=service.ReturnResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/returns/{id} [get]
func (h *ReturnHandler) GetReturn(c *gin.Context) {
	rec, err := h.returnService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, rec))
}

// TransitionReturn applies a workflow action to a return record
// @Summary      Apply workflow action
// @Description  Moves the record through its pipeline (Request, JobAccept, BranchReceive, Consolidate, Dispatch, HubReceive, Grade, Document, Complete, Reject). Requires the record's current version.
// @Tags         returns
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                     true  "Return record ID"
// @Param        request  body      service.TransitionRequest  true  "Action and inputs"
// @Success      200      {object}  response.Response{data=service.ReturnResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /api/returns/{id}/transitions [post]
func (h *ReturnHandler) TransitionReturn(c *gin.Context) {
	var req service.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request: "+err.Error()))
		return
	}

	rec, err := h.returnService.Transition(c.Request.Context(), currentUserID(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, rec))
}

// SplitReturn splits a return record into two parts
// @Summary      Split return record
// @Description  Splits off part of the quantity into a sibling record, optionally breaking the unit down via a conversion rate. Value is conserved exactly.
// @Tags         returns
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                true  "Return record ID"
// @Param        request  body      service.SplitRequest  true  "Split details"
// @Success      200      {object}  response.Response{data=service.SplitResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/returns/{id}/split [post]
func (h *ReturnHandler) SplitReturn(c *gin.Context) {
	var req service.SplitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request: "+err.Error()))
		return
	}

	result, err := h.returnService.Split(c.Request.Context(), currentUserID(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// UndoTransition steps a return record back one pipeline stage
// @Summary      Undo last transition
// @Description  Moves the record back to the previous stage. Requires the returns.undo permission.
// @Tags         returns
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string               true  "Return record ID"
// @Param        request  body      service.UndoRequest  true  "Current version"
// @Success      200      {object}  response.Response{data=service.ReturnResponse}
// @Failure      409      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /api/returns/{id}/undo [post]
func (h *ReturnHandler) UndoTransition(c *gin.Context) {
	var req service.UndoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request: "+err.Error()))
		return
	}

	rec, err := h.returnService.Undo(c.Request.Context(), currentUserID(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, rec))
}

// ExportReturns downloads all return records as an Excel workbook
// @Summary      Export returns to Excel
// @Description  Streams an .xlsx workbook using the back office's fixed column mapping.
// @Tags         returns
// @Security     BearerAuth
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success      200  {file}  binary
// @Router       /api/returns/export [get]
func (h *ReturnHandler) ExportReturns(c *gin.Context) {
	workbook, err := h.exportService.ExportReturns(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := workbook.Write(&buf); err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to render workbook: "+err.Error()))
		return
	}

	filename := fmt.Sprintf("returns-%s.xlsx", time.Now().Format("20060102-150405"))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}
