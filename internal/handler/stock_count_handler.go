package handler

import (
	"net/http"

	"github.com/Robertishimwe/inveprobackend-sub001/internal/middleware"
	"github.com/Robertishimwe/inveprobackend-sub001/internal/service"
	"github.com/Robertishimwe/inveprobackend-sub001/pkg/pagination"
	"github.com/Robertishimwe/inveprobackend-sub001/pkg/response"

	"github.com/gin-gonic/gin"
)

type StockCountHandler struct {
	countService service.StockCountService
}

func NewStockCountHandler(countService service.StockCountService) *StockCountHandler {
	return &StockCountHandler{countService: countService}
}

func (h *StockCountHandler) RegisterRoutes(router *gin.RouterGroup) {
	counts := router.Group("/api/stock-counts")
	{
		counts.POST("", middleware.RequirePermission("counts.write"), h.InitiateCount)
		counts.GET("", middleware.RequirePermission("counts.read"), h.ListCounts)
		counts.GET("/:id", middleware.RequirePermission("counts.read"), h.GetCount)
		counts.POST("/:id/counts", middleware.RequirePermission("counts.write"), h.EnterCounts)
		counts.POST("/:id/review", middleware.RequirePermission("counts.approve"), h.ReviewCount)
		counts.POST("/:id/post", middleware.RequirePermission("counts.approve"), h.PostCount)
	}
}

// InitiateCount opens a stock count with snapshotted on-hand quantities
// @Summary      Initiate stock count
// @Description  Snapshots on-hand quantities for the counted products at one location
// @Tags         stock-counts
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.InitiateCountRequest  true  "Count payload"
// @Success      201  {object}  response.Response{data=service.StockCountResponse}
// @Failure      400  {object}  response.Response
// @Router       /api/stock-counts [post]
func (h *StockCountHandler) InitiateCount(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}

	var req service.InitiateCountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	count, err := h.countService.Initiate(c.Request.Context(), tenantID, actorFrom(c), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, count))
}

// EnterCounts records physically counted quantities
// @Summary      Enter counted quantities
// @Tags         stock-counts
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                     true  "Stock count UUID"
// @Param        payload  body      service.EnterCountsRequest  true  "Counted lines"
// @Success      200  {object}  response.Response{data=service.StockCountResponse}
// @Failure      400  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/stock-counts/{id}/counts [post]
func (h *StockCountHandler) EnterCounts(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}

	var req service.EnterCountsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	count, err := h.countService.EnterCounts(c.Request.Context(), tenantID, c.Param("id"), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, count))
}

// ReviewCount approves or rejects counted lines
// @Summary      Review counted lines
// @Tags         stock-counts
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                      true  "Stock count UUID"
// @Param        payload  body      service.ReviewCountsRequest  true  "Review decisions"
// @Success      200  {object}  response.Response{data=service.StockCountResponse}
// @Failure      400  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/stock-counts/{id}/review [post]
func (h *StockCountHandler) ReviewCount(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}

	var req service.ReviewCountsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	count, err := h.countService.Review(c.Request.Context(), tenantID, c.Param("id"), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, count))
}

// PostCount applies approved variances as reconciliation movements
// @Summary      Post stock count
// @Description  Emits one reconciliation movement per approved line with non-zero variance
// @Tags         stock-counts
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                    true   "Stock count UUID"
// @Param        payload  body      service.PostCountRequest  false  "Idempotency key"
// @Success      200  {object}  response.Response{data=service.StockCountResponse}
// @Failure      409  {object}  response.Response
// @Router       /api/stock-counts/{id}/post [post]
func (h *StockCountHandler) PostCount(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}

	var req service.PostCountRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	count, err := h.countService.Post(c.Request.Context(), tenantID, actorFrom(c), c.Param("id"), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, count))
}

// GetCount fetches one stock count with its lines
// @Summary      Get stock count
// @Tags         stock-counts
// @Security     BearerAuth
// @Produce      json
// @Param        id  path      string  true  "Stock count UUID"
// @Success      200  {object}  response.Response{data=service.StockCountResponse}
// @Failure      400  {object}  response.Response
// @Router       /api/stock-counts/{id} [get]
func (h *StockCountHandler) GetCount(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}

	count, err := h.countService.Get(c.Request.Context(), tenantID, c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, count))
}

// ListCounts returns paginated stock counts with optional filters
// @Summary      List stock counts
// @Tags         stock-counts
// @Security     BearerAuth
// @Produce      json
// @Param        location_id  query     string  false  "Location UUID filter"
// @Param        status       query     string  false  "Status filter"
// @Param        page         query     int     false  "Page number (default 1)"
// @Param        limit        query     int     false  "Number of items per page (default 20)"
// @Success      200  {object}  response.Response{data=object}
// @Router       /api/stock-counts [get]
func (h *StockCountHandler) ListCounts(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}
	params := pagination.Parse(c)

	counts, total, err := h.countService.List(c.Request.Context(), tenantID, c.Query("location_id"), c.Query("status"), params.Page, params.Limit)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Paged(http.StatusOK, counts, params.Meta(total)))
}
