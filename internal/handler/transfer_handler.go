package handler

import (
	"net/http"

	"github.com/Robertishimwe/inveprobackend-sub001/internal/middleware"
	"github.com/Robertishimwe/inveprobackend-sub001/internal/service"
	"github.com/Robertishimwe/inveprobackend-sub001/pkg/pagination"
	"github.com/Robertishimwe/inveprobackend-sub001/pkg/response"

	"github.com/gin-gonic/gin"
)

type TransferHandler struct {
	transferService service.TransferService
}

func NewTransferHandler(transferService service.TransferService) *TransferHandler {
	return &TransferHandler{transferService: transferService}
}

func (h *TransferHandler) RegisterRoutes(router *gin.RouterGroup) {
	transfers := router.Group("/api/transfers")
	{
		transfers.POST("", middleware.RequirePermission("transfers.write"), h.CreateTransfer)
		transfers.GET("", middleware.RequirePermission("transfers.read"), h.ListTransfers)
		transfers.GET("/:id", middleware.RequirePermission("transfers.read"), h.GetTransfer)
		transfers.POST("/:id/ship", middleware.RequirePermission("transfers.write"), h.ShipTransfer)
		transfers.POST("/:id/receive", middleware.RequirePermission("transfers.receive"), h.ReceiveTransfer)
		transfers.POST("/:id/cancel", middleware.RequirePermission("transfers.write"), h.CancelTransfer)
	}
}

// CreateTransfer creates a draft transfer between two locations
// @Summary      Create transfer
// @Description  Creates a DRAFT transfer; no stock moves until shipping
// @Tags         transfers
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateTransferRequest  true  "Transfer payload"
// @Success      201  {object}  response.Response{data=service.TransferResponse}
// @Failure      400  {object}  response.Response
// @Router       /api/transfers [post]
func (h *TransferHandler) CreateTransfer(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}

	var req service.CreateTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	transfer, err := h.transferService.Create(c.Request.Context(), tenantID, actorFrom(c), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, transfer))
}

// ShipTransfer moves the transfer to SHIPPED, deducting source stock
// @Summary      Ship transfer
// @Description  Deducts every line from the source and books it as incoming at the destination
// @Tags         transfers
// @Security     BearerAuth
// @Produce      json
// @Param        id  path      string  true  "Transfer UUID"
// @Success      200  {object}  response.Response{data=service.TransferResponse}
// @Failure      409  {object}  response.Response
// @Router       /api/transfers/{id}/ship [post]
func (h *TransferHandler) ShipTransfer(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}

	transfer, err := h.transferService.Ship(c.Request.Context(), tenantID, actorFrom(c), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, transfer))
}

// ReceiveTransfer books received quantities at the destination
// @Summary      Receive transfer
// @Description  Accepts partial receipts; the transfer completes once every line is fully received
// @Tags         transfers
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                          true  "Transfer UUID"
// @Param        payload  body      service.ReceiveTransferRequest  true  "Received lines"
// @Success      200  {object}  response.Response{data=service.TransferResponse}
// @Failure      400  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/transfers/{id}/receive [post]
func (h *TransferHandler) ReceiveTransfer(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}

	var req service.ReceiveTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	transfer, err := h.transferService.Receive(c.Request.Context(), tenantID, actorFrom(c), c.Param("id"), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, transfer))
}

// CancelTransfer cancels a transfer, restocking the source if already shipped
// @Summary      Cancel transfer
// @Tags         transfers
// @Security     BearerAuth
// @Produce      json
// @Param        id  path      string  true  "Transfer UUID"
// @Success      200  {object}  response.Response{data=service.TransferResponse}
// @Failure      409  {object}  response.Response
// @Router       /api/transfers/{id}/cancel [post]
func (h *TransferHandler) CancelTransfer(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}

	transfer, err := h.transferService.Cancel(c.Request.Context(), tenantID, actorFrom(c), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, transfer))
}

// GetTransfer fetches one transfer with its lines
// @Summary      Get transfer
// @Tags         transfers
// @Security     BearerAuth
// @Produce      json
// @Param        id  path      string  true  "Transfer UUID"
// @Success      200  {object}  response.Response{data=service.TransferResponse}
// @Failure      400  {object}  response.Response
// @Router       /api/transfers/{id} [get]
func (h *TransferHandler) GetTransfer(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}

	transfer, err := h.transferService.Get(c.Request.Context(), tenantID, c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, transfer))
}

// ListTransfers returns paginated transfers, optionally filtered by status
// @Summary      List transfers
// @Tags         transfers
// @Security     BearerAuth
// @Produce      json
// @Param        status  query     string  false  "Status filter"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Number of items per page (default 20)"
// @Success      200  {object}  response.Response{data=object}
// @Router       /api/transfers [get]
func (h *TransferHandler) ListTransfers(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}
	params := pagination.Parse(c)

	transfers, total, err := h.transferService.List(c.Request.Context(), tenantID, c.Query("status"), params.Page, params.Limit)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Paged(http.StatusOK, transfers, params.Meta(total)))
}
