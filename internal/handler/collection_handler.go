package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type CollectionHandler struct {
	collectionService service.CollectionService
}

func NewCollectionHandler(collectionService service.CollectionService) *CollectionHandler {
	return &CollectionHandler{collectionService: collectionService}
}

func (h *CollectionHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/api/collection-orders")
	group.Use(middleware.RequireRole("admin", "manager", "staff"))
	{
		group.POST("", h.CreateOrder)
		group.GET("", h.ListOrders)
		group.GET("/:id", h.GetOrder)
		group.POST("/:id/assign", h.AssignOrder)
		group.POST("/:id/collect", h.CollectOrder)
		group.POST("/:id/consolidate", h.ConsolidateOrder)
		group.POST("/:id/fail", h.FailOrder)
	}
}

// CreateOrder creates a collection order and links return records to it
// @Summary      Create collection order
// @Tags         collection-orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      service.CreateCollectionOrderRequest  true  "Order details with record IDs"
// @Success      201      {object}  response.Response{data=service.CollectionOrderResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/collection-orders [post]
func (h *CollectionHandler) CreateOrder(c *gin.Context) {
	var req service.CreateCollectionOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request: "+err.Error()))
		return
	}

	order, err := h.collectionService.Create(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, order))
}

// ListOrders retrieves collection orders with pagination
// @Summary      List collection orders
// @Tags         collection-orders
// @Security     BearerAuth
// @Produce      json
// @Param        status  query     string  false  "Filter by status"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Number of items per page (default 20)"
// @Success      200     {object}  response.Response{data=object}
// @Router       /api/collection-orders [get]
func (h *CollectionHandler) ListOrders(c *gin.Context) {
	params := pagination.Parse(c)

	orders, total, err := h.collectionService.List(c.Request.Context(), c.Query("status"), params.Page, params.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"orders": orders,
		"total":  total,
		"page":   params.Page,
		"limit":  params.Limit,
	}))
}

// GetOrder retrieves a collection order with its linked records
// @Summary      Get collection order
// @Tags         collection-orders
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Collection order ID"
// @Success      200  {object}  response.Response{data=service.CollectionOrderResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/collection-orders/{id} [get]
func (h *CollectionHandler) GetOrder(c *gin.Context) {
	order, err := h.collectionService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// AssignOrder assigns a pending collection order to a courier
// @Summary      Assign collection order
// @Tags         collection-orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                           true  "Collection order ID"
// @Param        request  body      service.AssignCollectionRequest  true  "Assignee and version"
// @Success      200      {object}  response.Response{data=service.CollectionOrderResponse}
// @Failure      409      {object}  response.Response
// @Router       /api/collection-orders/{id}/assign [post]
func (h *CollectionHandler) AssignOrder(c *gin.Context) {
	var req service.AssignCollectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request: "+err.Error()))
		return
	}

	order, err := h.collectionService.Assign(c.Request.Context(), currentUserID(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// CollectOrder marks the pickup done and receives the linked records at the branch
// @Summary      Mark collection order collected
// @Tags         collection-orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                  true  "Collection order ID"
// @Param        request  body      service.CollectRequest  true  "Current version"
// @Success      200      {object}  response.Response{data=service.CollectionOrderResponse}
// @Failure      409      {object}  response.Response
// @Router       /api/collection-orders/{id}/collect [post]
func (h *CollectionHandler) CollectOrder(c *gin.Context) {
	var req service.CollectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request: "+err.Error()))
		return
	}

	order, err := h.collectionService.Collect(c.Request.Context(), currentUserID(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// ConsolidateOrder consolidates a collected order, advancing its records
// @Summary      Consolidate collection order
// @Description  Idempotent: retried requests with the same idempotency key answer with the already-consolidated order.
// @Tags         collection-orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                      true  "Collection order ID"
// @Param        request  body      service.ConsolidateRequest  true  "Version, idempotency key, routing"
// @Success      200      {object}  response.Response{data=service.CollectionOrderResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/collection-orders/{id}/consolidate [post]
func (h *CollectionHandler) ConsolidateOrder(c *gin.Context) {
	var req service.ConsolidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request: "+err.Error()))
		return
	}

	order, err := h.collectionService.Consolidate(c.Request.Context(), currentUserID(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// FailOrder marks a collection order failed
// @Summary      Fail collection order
// @Tags         collection-orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                         true  "Collection order ID"
// @Param        request  body      service.FailCollectionRequest  true  "Version and reason"
// @Success      200      {object}  response.Response{data=service.CollectionOrderResponse}
// @Failure      409      {object}  response.Response
// @Router       /api/collection-orders/{id}/fail [post]
func (h *CollectionHandler) FailOrder(c *gin.Context) {
	var req service.FailCollectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request: "+err.Error()))
		return
	}

	order, err := h.collectionService.Fail(c.Request.Context(), currentUserID(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}
