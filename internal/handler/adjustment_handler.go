package handler

import (
	"net/http"

	"github.com/Robertishimwe/inveprobackend-sub001/internal/middleware"
	"github.com/Robertishimwe/inveprobackend-sub001/internal/service"
	"github.com/Robertishimwe/inveprobackend-sub001/pkg/pagination"
	"github.com/Robertishimwe/inveprobackend-sub001/pkg/response"

	"github.com/gin-gonic/gin"
)

type AdjustmentHandler struct {
	adjustmentService service.AdjustmentService
}

func NewAdjustmentHandler(adjustmentService service.AdjustmentService) *AdjustmentHandler {
	return &AdjustmentHandler{adjustmentService: adjustmentService}
}

func (h *AdjustmentHandler) RegisterRoutes(router *gin.RouterGroup) {
	adjustments := router.Group("/api/adjustments")
	{
		adjustments.POST("", middleware.RequirePermission("inventory.adjust"), h.PostAdjustment)
		adjustments.GET("", middleware.RequirePermission("inventory.read"), h.ListAdjustments)
		adjustments.GET("/:id", middleware.RequirePermission("inventory.read"), h.GetAdjustment)
	}
}

// PostAdjustment creates and immediately applies a manual stock adjustment
// @Summary      Post an inventory adjustment
// @Description  Validates all lines and applies the batch atomically; on any failure no stock moves
// @Tags         adjustments
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.PostAdjustmentRequest  true  "Adjustment payload"
// @Success      201  {object}  response.Response{data=service.AdjustmentResponse}
// @Failure      400  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/adjustments [post]
func (h *AdjustmentHandler) PostAdjustment(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}

	var req service.PostAdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	adjustment, err := h.adjustmentService.PostAdjustment(c.Request.Context(), tenantID, actorFrom(c), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, adjustment))
}

// GetAdjustment fetches one adjustment with its lines
// @Summary      Get adjustment
// @Tags         adjustments
// @Security     BearerAuth
// @Produce      json
// @Param        id  path      string  true  "Adjustment UUID"
// @Success      200  {object}  response.Response{data=service.AdjustmentResponse}
// @Failure      400  {object}  response.Response
// @Router       /api/adjustments/{id} [get]
func (h *AdjustmentHandler) GetAdjustment(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}

	adjustment, err := h.adjustmentService.GetAdjustment(c.Request.Context(), tenantID, c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, adjustment))
}

// ListAdjustments returns paginated adjustments, optionally filtered by location
// @Summary      List adjustments
// @Tags         adjustments
// @Security     BearerAuth
// @Produce      json
// @Param        location_id  query     string  false  "Location UUID filter"
// @Param        page         query     int     false  "Page number (default 1)"
// @Param        limit        query     int     false  "Number of items per page (default 20)"
// @Success      200  {object}  response.Response{data=object}
// @Router       /api/adjustments [get]
func (h *AdjustmentHandler) ListAdjustments(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}
	params := pagination.Parse(c)

	adjustments, total, err := h.adjustmentService.ListAdjustments(c.Request.Context(), tenantID, c.Query("location_id"), params.Page, params.Limit)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Paged(http.StatusOK, adjustments, params.Meta(total)))
}
