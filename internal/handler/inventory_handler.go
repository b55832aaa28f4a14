package handler

import (
	"net/http"
	"time"

	"github.com/Robertishimwe/inveprobackend-sub001/internal/middleware"
	"github.com/Robertishimwe/inveprobackend-sub001/internal/service"
	"github.com/Robertishimwe/inveprobackend-sub001/pkg/pagination"
	"github.com/Robertishimwe/inveprobackend-sub001/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type InventoryHandler struct {
	inventoryService service.InventoryService
	stockService     service.StockService
}

func NewInventoryHandler(inventoryService service.InventoryService, stockService service.StockService) *InventoryHandler {
	return &InventoryHandler{inventoryService: inventoryService, stockService: stockService}
}

func (h *InventoryHandler) RegisterRoutes(router *gin.RouterGroup) {
	inventory := router.Group("/api/inventory")
	{
		inventory.GET("/items", middleware.RequirePermission("inventory.read"), h.ListItems)
		inventory.GET("/items/:productId/:locationId", middleware.RequirePermission("inventory.read"), h.GetItem)
		inventory.GET("/products/:productId/items", middleware.RequirePermission("inventory.read"), h.ListItemsByProduct)
		inventory.GET("/products/:productId/ledger", middleware.RequirePermission("inventory.read"), h.LedgerByProduct)
		inventory.GET("/ledger", middleware.RequirePermission("inventory.read"), h.LedgerByDateRange)
		inventory.POST("/reconcile", middleware.RequirePermission("inventory.reconcile"), h.Reconcile)
		inventory.POST("/allocate", middleware.RequirePermission("inventory.adjust"), h.Allocate)
		inventory.POST("/release", middleware.RequirePermission("inventory.adjust"), h.Release)
		inventory.POST("/sales", middleware.RequirePermission("pos.operate"), h.RecordSale)
		inventory.POST("/returns", middleware.RequirePermission("pos.operate"), h.RecordReturn)
		inventory.POST("/receipts", middleware.RequirePermission("inventory.adjust"), h.RecordPurchaseReceipt)
	}
}

// ListItems handles retrieving paginated stock levels at a location
// @Summary      List stock levels
// @Description  Retrieves paginated stock counters for one location
// @Tags         inventory
// @Security     BearerAuth
// @Produce      json
// @Param        location_id  query     string  true   "Location UUID"
// @Param        page         query     int     false  "Page number (default 1)"
// @Param        limit        query     int     false  "Number of items per page (default 20)"
// @Success      200  {object}  response.Response{data=object}
// @Failure      400  {object}  response.Response
// @Router       /api/inventory/items [get]
func (h *InventoryHandler) ListItems(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}
	params := pagination.Parse(c)

	items, total, err := h.inventoryService.ListByLocation(c.Request.Context(), tenantID, c.Query("location_id"), params.Page, params.Limit)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Paged(http.StatusOK, items, params.Meta(total)))
}

// GetItem returns the stock counters for one (product, location) pair
// @Summary      Get stock level
// @Tags         inventory
// @Security     BearerAuth
// @Produce      json
// @Param        productId   path      string  true  "Product UUID"
// @Param        locationId  path      string  true  "Location UUID"
// @Success      200  {object}  response.Response{data=service.InventoryItemResponse}
// @Failure      400  {object}  response.Response
// @Router       /api/inventory/items/{productId}/{locationId} [get]
func (h *InventoryHandler) GetItem(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}

	item, err := h.inventoryService.GetItem(c.Request.Context(), tenantID, c.Param("productId"), c.Param("locationId"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, item))
}

// ListItemsByProduct returns stock counters for a product across all locations
// @Summary      Stock levels per location for a product
// @Tags         inventory
// @Security     BearerAuth
// @Produce      json
// @Param        productId  path      string  true  "Product UUID"
// @Success      200  {object}  response.Response{data=object}
// @Router       /api/inventory/products/{productId}/items [get]
func (h *InventoryHandler) ListItemsByProduct(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}

	items, err := h.inventoryService.ListByProduct(c.Request.Context(), tenantID, c.Param("productId"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{"items": items}))
}

// LedgerByProduct returns the movement history for a product
// @Summary      Product movement history
// @Description  Paginated ledger entries for one product, newest first
// @Tags         inventory
// @Security     BearerAuth
// @Produce      json
// @Param        productId  path      string  true   "Product UUID"
// @Param        page       query     int     false  "Page number (default 1)"
// @Param        limit      query     int     false  "Number of items per page (default 50)"
// @Success      200  {object}  response.Response{data=object}
// @Router       /api/inventory/products/{productId}/ledger [get]
func (h *InventoryHandler) LedgerByProduct(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}
	params := pagination.Parse(c)

	entries, total, err := h.inventoryService.LedgerByProduct(c.Request.Context(), tenantID, c.Param("productId"), params.Page, params.Limit)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Paged(http.StatusOK, entries, params.Meta(total)))
}

// LedgerByDateRange returns tenant-wide ledger entries inside a time window
// @Summary      Ledger by date range
// @Tags         inventory
// @Security     BearerAuth
// @Produce      json
// @Param        from   query     string  true   "Range start (RFC3339)"
// @Param        to     query     string  true   "Range end (RFC3339)"
// @Param        page   query     int     false  "Page number (default 1)"
// @Param        limit  query     int     false  "Number of items per page (default 50)"
// @Success      200  {object}  response.Response{data=object}
// @Failure      400  {object}  response.Response
// @Router       /api/inventory/ledger [get]
func (h *InventoryHandler) LedgerByDateRange(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}

	from, err := time.Parse(time.RFC3339, c.Query("from"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid 'from' timestamp: "+err.Error()))
		return
	}
	to, err := time.Parse(time.RFC3339, c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid 'to' timestamp: "+err.Error()))
		return
	}

	params := pagination.Parse(c)
	entries, total, err := h.inventoryService.LedgerByDateRange(c.Request.Context(), tenantID, from, to, params.Page, params.Limit)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Paged(http.StatusOK, entries, params.Meta(total)))
}

// Reconcile verifies stock counters against the ledger at one location
// @Summary      Reconcile counters against the ledger
// @Description  Compares each counter row at the location with the sum of its ledger entries
// @Tags         inventory
// @Security     BearerAuth
// @Produce      json
// @Param        location_id  query     string  true  "Location UUID"
// @Success      200  {object}  response.Response{data=object}
// @Failure      400  {object}  response.Response
// @Router       /api/inventory/reconcile [post]
func (h *InventoryHandler) Reconcile(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}

	results, err := h.inventoryService.ReconcileLocation(c.Request.Context(), tenantID, c.Query("location_id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}

	drifted := 0
	for _, r := range results {
		if !r.Consistent {
			drifted++
		}
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"results": results,
		"checked": len(results),
		"drifted": drifted,
	}))
}

type stockOperationRequest struct {
	ProductID  string          `json:"product_id" binding:"required"`
	LocationID string          `json:"location_id" binding:"required"`
	Quantity   decimal.Decimal `json:"quantity" binding:"required"`
	UnitCost   decimal.Decimal `json:"unit_cost"`
	RelatedID  string          `json:"related_id"`
}

func (r *stockOperationRequest) parse() (productID, locationID, relatedID uuid.UUID, err error) {
	productID, err = uuid.Parse(r.ProductID)
	if err != nil {
		return
	}
	locationID, err = uuid.Parse(r.LocationID)
	if err != nil {
		return
	}
	if r.RelatedID != "" {
		relatedID, err = uuid.Parse(r.RelatedID)
	}
	return
}

// Allocate reserves available stock for an order
// @Summary      Allocate stock
// @Tags         inventory
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      handler.stockOperationRequest  true  "Allocation"
// @Success      200  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/inventory/allocate [post]
func (h *InventoryHandler) Allocate(c *gin.Context) {
	h.counterOperation(c, func(tenantID, productID, locationID uuid.UUID, qty decimal.Decimal) error {
		return h.stockService.Allocate(c.Request.Context(), tenantID, productID, locationID, qty)
	})
}

// Release returns previously allocated stock
// @Summary      Release allocation
// @Tags         inventory
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      handler.stockOperationRequest  true  "Release"
// @Success      200  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/inventory/release [post]
func (h *InventoryHandler) Release(c *gin.Context) {
	h.counterOperation(c, func(tenantID, productID, locationID uuid.UUID, qty decimal.Decimal) error {
		return h.stockService.Release(c.Request.Context(), tenantID, productID, locationID, qty)
	})
}

func (h *InventoryHandler) counterOperation(c *gin.Context, op func(tenantID, productID, locationID uuid.UUID, qty decimal.Decimal) error) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}

	var req stockOperationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	productID, locationID, _, err := req.parse()
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid id: "+err.Error()))
		return
	}

	if err := op(tenantID, productID, locationID, req.Quantity); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"status": "ok"}))
}

// RecordSale deducts sold stock against an order
// @Summary      Record a sale movement
// @Tags         inventory
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      handler.stockOperationRequest  true  "Sale"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/inventory/sales [post]
func (h *InventoryHandler) RecordSale(c *gin.Context) {
	h.movementOperation(c, func(tenantID, productID, locationID, relatedID uuid.UUID, req stockOperationRequest) error {
		return h.stockService.RecordSale(c.Request.Context(), tenantID, productID, locationID, req.Quantity, actorFrom(c), relatedID)
	})
}

// RecordReturn puts returned stock back against an order
// @Summary      Record a customer return
// @Tags         inventory
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      handler.stockOperationRequest  true  "Return"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/inventory/returns [post]
func (h *InventoryHandler) RecordReturn(c *gin.Context) {
	h.movementOperation(c, func(tenantID, productID, locationID, relatedID uuid.UUID, req stockOperationRequest) error {
		return h.stockService.RecordReturn(c.Request.Context(), tenantID, productID, locationID, req.Quantity, actorFrom(c), relatedID)
	})
}

// RecordPurchaseReceipt books received purchase order stock with its cost
// @Summary      Record a purchase order receipt
// @Tags         inventory
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      handler.stockOperationRequest  true  "Receipt"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/inventory/receipts [post]
func (h *InventoryHandler) RecordPurchaseReceipt(c *gin.Context) {
	h.movementOperation(c, func(tenantID, productID, locationID, relatedID uuid.UUID, req stockOperationRequest) error {
		return h.stockService.RecordPurchaseReceipt(c.Request.Context(), tenantID, productID, locationID, req.Quantity, req.UnitCost, actorFrom(c), relatedID)
	})
}

func (h *InventoryHandler) movementOperation(c *gin.Context, op func(tenantID, productID, locationID, relatedID uuid.UUID, req stockOperationRequest) error) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}

	var req stockOperationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	productID, locationID, relatedID, err := req.parse()
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid id: "+err.Error()))
		return
	}

	if err := op(tenantID, productID, locationID, relatedID, req); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"status": "ok"}))
}
