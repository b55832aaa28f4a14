package handler

import (
	"net/http"

	"github.com/Robertishimwe/inveprobackend-sub001/internal/middleware"
	"github.com/Robertishimwe/inveprobackend-sub001/internal/service"
	"github.com/Robertishimwe/inveprobackend-sub001/pkg/pagination"
	"github.com/Robertishimwe/inveprobackend-sub001/pkg/response"

	"github.com/gin-gonic/gin"
)

type PosSessionHandler struct {
	sessionService service.PosSessionService
}

func NewPosSessionHandler(sessionService service.PosSessionService) *PosSessionHandler {
	return &PosSessionHandler{sessionService: sessionService}
}

func (h *PosSessionHandler) RegisterRoutes(router *gin.RouterGroup) {
	sessions := router.Group("/api/pos-sessions")
	{
		sessions.POST("", middleware.RequirePermission("pos.operate"), h.StartSession)
		sessions.GET("", middleware.RequirePermission("pos.operate"), h.ListSessions)
		sessions.GET("/:id", middleware.RequirePermission("pos.operate"), h.GetSession)
		sessions.GET("/:id/transactions", middleware.RequirePermission("pos.operate"), h.ListSessionTransactions)
		sessions.POST("/:id/transactions", middleware.RequirePermission("pos.operate"), h.RecordTransaction)
		sessions.POST("/:id/close", middleware.RequirePermission("pos.reconcile"), h.EndSession)
		sessions.POST("/:id/reconcile", middleware.RequirePermission("pos.reconcile"), h.ReconcileSession)
	}
}

// StartSession opens a cash drawer session for a terminal
// @Summary      Open POS session
// @Description  Opens the drawer with a counted starting float; one OPEN session per terminal
// @Tags         pos-sessions
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.StartSessionRequest  true  "Session payload"
// @Success      201  {object}  response.Response{data=service.PosSessionResponse}
// @Failure      400  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/pos-sessions [post]
func (h *PosSessionHandler) StartSession(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}

	var req service.StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	session, err := h.sessionService.Start(c.Request.Context(), tenantID, actorFrom(c), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, session))
}

// RecordTransaction records a money event against an open session
// @Summary      Record POS transaction
// @Tags         pos-sessions
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                               true  "Session UUID"
// @Param        payload  body      service.RecordPosTransactionRequest  true  "Transaction payload"
// @Success      201  {object}  response.Response{data=service.PosTransactionResponse}
// @Failure      400  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/pos-sessions/{id}/transactions [post]
func (h *PosSessionHandler) RecordTransaction(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}

	var req service.RecordPosTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	txn, err := h.sessionService.RecordTransaction(c.Request.Context(), tenantID, c.Param("id"), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, txn))
}

// EndSession closes the drawer with a counted ending amount
// @Summary      Close POS session
// @Description  Recomputes the expected drawer amount from recorded transactions and stores the difference
// @Tags         pos-sessions
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                     true  "Session UUID"
// @Param        payload  body      service.EndSessionRequest  true  "Ending cash"
// @Success      200  {object}  response.Response{data=service.PosSessionResponse}
// @Failure      409  {object}  response.Response
// @Router       /api/pos-sessions/{id}/close [post]
func (h *PosSessionHandler) EndSession(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}

	var req service.EndSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	session, err := h.sessionService.End(c.Request.Context(), tenantID, actorFrom(c), c.Param("id"), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, session))
}

// ReconcileSession marks a closed session as reviewed
// @Summary      Reconcile POS session
// @Tags         pos-sessions
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                           true   "Session UUID"
// @Param        payload  body      service.ReconcileSessionRequest  false  "Manager notes"
// @Success      200  {object}  response.Response{data=service.PosSessionResponse}
// @Failure      409  {object}  response.Response
// @Router       /api/pos-sessions/{id}/reconcile [post]
func (h *PosSessionHandler) ReconcileSession(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}

	var req service.ReconcileSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	session, err := h.sessionService.Reconcile(c.Request.Context(), tenantID, actorFrom(c), c.Param("id"), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, session))
}

// GetSession fetches one POS session
// @Summary      Get POS session
// @Tags         pos-sessions
// @Security     BearerAuth
// @Produce      json
// @Param        id  path      string  true  "Session UUID"
// @Success      200  {object}  response.Response{data=service.PosSessionResponse}
// @Failure      400  {object}  response.Response
// @Router       /api/pos-sessions/{id} [get]
func (h *PosSessionHandler) GetSession(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}

	session, err := h.sessionService.Get(c.Request.Context(), tenantID, c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, session))
}

// ListSessionTransactions lists the money events of one session
// @Summary      List POS session transactions
// @Tags         pos-sessions
// @Security     BearerAuth
// @Produce      json
// @Param        id  path      string  true  "Session UUID"
// @Success      200  {object}  response.Response{data=object}
// @Router       /api/pos-sessions/{id}/transactions [get]
func (h *PosSessionHandler) ListSessionTransactions(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}

	txns, err := h.sessionService.ListTransactions(c.Request.Context(), tenantID, c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{"transactions": txns}))
}

// ListSessions returns paginated sessions with optional filters
// @Summary      List POS sessions
// @Tags         pos-sessions
// @Security     BearerAuth
// @Produce      json
// @Param        location_id  query     string  false  "Location UUID filter"
// @Param        status       query     string  false  "Status filter"
// @Param        page         query     int     false  "Page number (default 1)"
// @Param        limit        query     int     false  "Number of items per page (default 20)"
// @Success      200  {object}  response.Response{data=object}
// @Router       /api/pos-sessions [get]
func (h *PosSessionHandler) ListSessions(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}
	params := pagination.Parse(c)

	sessions, total, err := h.sessionService.List(c.Request.Context(), tenantID, c.Query("location_id"), c.Query("status"), params.Page, params.Limit)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Paged(http.StatusOK, sessions, params.Meta(total)))
}
