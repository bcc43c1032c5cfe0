package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type ShipmentHandler struct {
	shipmentService service.ShipmentService
}

func NewShipmentHandler(shipmentService service.ShipmentService) *ShipmentHandler {
	return &ShipmentHandler{shipmentService: shipmentService}
}

func (h *ShipmentHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/api/shipments")
	group.Use(middleware.RequireRole("admin", "manager", "staff"))
	{
		group.POST("", h.DispatchShipment)
		group.GET("", h.ListShipments)
		group.GET("/:id", h.GetShipment)
		group.POST("/:id/arrive", h.ArriveShipment)
	}
}

// DispatchShipment creates a manifest from consolidated orders and dispatches it
// @Summary      Dispatch shipment
// @Description  Idempotent: a retried request with the same idempotency key answers with the originally created manifest.
// @Tags         shipments
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      service.CreateShipmentRequest  true  "Manifest details with order IDs"
// @Success      201      {object}  response.Response{data=service.ShipmentResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/shipments [post]
func (h *ShipmentHandler) DispatchShipment(c *gin.Context) {
	var req service.CreateShipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request: "+err.Error()))
		return
	}

	shipment, err := h.shipmentService.Create(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, shipment))
}

// ListShipments retrieves shipment manifests with pagination
// @Summary      List shipments
// @Tags         shipments
// @Security     BearerAuth
// @Produce      json
// @Param        status  query     string  false  "Filter by status"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Number of items per page (default 20)"
// @Success      200     {object}  response.Response{data=object}
// @Router       /api/shipments [get]
func (h *ShipmentHandler) ListShipments(c *gin.Context) {
	params := pagination.Parse(c)

	shipments, total, err := h.shipmentService.List(c.Request.Context(), c.Query("status"), params.Page, params.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"shipments": shipments,
		"total":     total,
		"page":      params.Page,
		"limit":     params.Limit,
	}))
}

// GetShipment retrieves a manifest with its orders and their records
// @Summary      Get shipment
// @Tags         shipments
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Shipment ID"
// @Success      200  {object}  response.Response{data=service.ShipmentResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/shipments/{id} [get]
func (h *ShipmentHandler) GetShipment(c *gin.Context) {
	shipment, err := h.shipmentService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, shipment))
}

// ArriveShipment marks a manifest received at the hub
// @Summary      Mark shipment arrived
// @Description  Hub-receives every in-transit record on board; Direct Return items stay in transit so they can be documented directly.
// @Tags         shipments
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                         true  "Shipment ID"
// @Param        request  body      service.ArriveShipmentRequest  true  "Version and idempotency key"
// @Success      200      {object}  response.Response{data=service.ShipmentResponse}
// @Failure      409      {object}  response.Response
// @Router       /api/shipments/{id}/arrive [post]
func (h *ShipmentHandler) ArriveShipment(c *gin.Context) {
	var req service.ArriveShipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request: "+err.Error()))
		return
	}

	shipment, err := h.shipmentService.Arrive(c.Request.Context(), currentUserID(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, shipment))
}
