package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/Robertishimwe/inveprobackend-sub001/internal/model"
	"github.com/Robertishimwe/inveprobackend-sub001/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DTOs
type StartSessionRequest struct {
	LocationID   string          `json:"location_id" binding:"required"`
	TerminalID   string          `json:"terminal_id" binding:"required"`
	StartingCash decimal.Decimal `json:"starting_cash"`
}

type RecordPosTransactionRequest struct {
	Type      string          `json:"type" binding:"required,oneof=CASH_SALE CARD_SALE CASH_REFUND CARD_REFUND PAY_IN PAY_OUT"`
	Amount    decimal.Decimal `json:"amount" binding:"required"`
	Reference string          `json:"reference"`
}

type EndSessionRequest struct {
	EndingCash decimal.Decimal `json:"ending_cash"`
	Notes      string          `json:"notes"`
}

type ReconcileSessionRequest struct {
	Notes string `json:"notes"`
}

type PosSessionResponse struct {
	ID             string           `json:"id"`
	LocationID     string           `json:"location_id"`
	TerminalID     string           `json:"terminal_id"`
	Status         string           `json:"status"`
	StartingCash   decimal.Decimal  `json:"starting_cash"`
	EndingCash     *decimal.Decimal `json:"ending_cash,omitempty"`
	CalculatedCash *decimal.Decimal `json:"calculated_cash,omitempty"`
	Difference     *decimal.Decimal `json:"difference,omitempty"`
	Notes          string           `json:"notes"`
	OpenedAt       time.Time        `json:"opened_at"`
	ClosedAt       *time.Time       `json:"closed_at,omitempty"`
	ReconciledAt   *time.Time       `json:"reconciled_at,omitempty"`
}

type PosTransactionResponse struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Amount    decimal.Decimal `json:"amount"`
	Reference string          `json:"reference"`
	CreatedAt time.Time       `json:"created_at"`
}

// PosSessionService manages cash drawer sessions. A drawer opens with a
// counted float, accumulates transactions while OPEN, closes with a counted
// ending amount, and is reconciled once a manager reviews the difference.
type PosSessionService interface {
	Start(ctx context.Context, tenantID uuid.UUID, userID *uuid.UUID, req StartSessionRequest) (*PosSessionResponse, error)
	RecordTransaction(ctx context.Context, tenantID uuid.UUID, sessionID string, req RecordPosTransactionRequest) (*PosTransactionResponse, error)
	End(ctx context.Context, tenantID uuid.UUID, userID *uuid.UUID, sessionID string, req EndSessionRequest) (*PosSessionResponse, error)
	Reconcile(ctx context.Context, tenantID uuid.UUID, userID *uuid.UUID, sessionID string, req ReconcileSessionRequest) (*PosSessionResponse, error)
	Get(ctx context.Context, tenantID uuid.UUID, sessionID string) (*PosSessionResponse, error)
	ListTransactions(ctx context.Context, tenantID uuid.UUID, sessionID string) ([]PosTransactionResponse, error)
	List(ctx context.Context, tenantID uuid.UUID, locationID, status string, page, limit int) ([]PosSessionResponse, int64, error)
}

type posSessionService struct {
	sessionRepo  repository.PosSessionRepository
	locationRepo repository.LocationRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
}

func NewPosSessionService(
	sessionRepo repository.PosSessionRepository,
	locationRepo repository.LocationRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) PosSessionService {
	return &posSessionService{
		sessionRepo:  sessionRepo,
		locationRepo: locationRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
	}
}

func (s *posSessionService) Start(ctx context.Context, tenantID uuid.UUID, userID *uuid.UUID, req StartSessionRequest) (*PosSessionResponse, error) {
	locationID, err := uuid.Parse(req.LocationID)
	if err != nil {
		return nil, validationf("invalid location_id: %v", err)
	}
	if req.StartingCash.IsNegative() {
		return nil, validationf("starting cash cannot be negative")
	}

	session := model.PosSession{
		TenantID:     tenantID,
		LocationID:   locationID,
		TerminalID:   req.TerminalID,
		UserID:       userID,
		Status:       model.SessionStatusOpen,
		StartingCash: req.StartingCash,
		OpenedAt:     time.Now(),
	}

	err = withConflictRetry(ctx, s.txManager, func(txCtx context.Context) error {
		session.ID = uuid.Nil

		if _, findErr := s.locationRepo.FindByID(txCtx, tenantID, locationID); findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return validationf("location not found: %s", req.LocationID)
			}
			return findErr
		}

		existing, findErr := s.sessionRepo.FindOpenByTerminal(txCtx, tenantID, locationID, req.TerminalID)
		if findErr != nil && !errors.Is(findErr, gorm.ErrRecordNotFound) {
			return findErr
		}
		if existing != nil {
			return ErrSessionAlreadyOpen
		}

		if createErr := s.sessionRepo.Create(txCtx, &session); createErr != nil {
			// A concurrent Start can pass the open-session lookup before
			// either insert commits; the partial unique index catches it.
			if isUniqueViolation(createErr) {
				return ErrSessionAlreadyOpen
			}
			return createErr
		}

		details, _ := json.Marshal(map[string]interface{}{
			"location_id":   req.LocationID,
			"terminal_id":   req.TerminalID,
			"starting_cash": req.StartingCash.String(),
		})
		return s.auditRepo.Log(txCtx, &model.AuditLog{
			TenantID: tenantID,
			UserID:   userID,
			Action:   model.ActionOpenPosSession,
			EntityID: session.ID.String(),
			Details:  string(details),
		})
	})

	if err != nil {
		return nil, err
	}
	return toPosSessionResponse(&session), nil
}

func (s *posSessionService) RecordTransaction(ctx context.Context, tenantID uuid.UUID, sessionID string, req RecordPosTransactionRequest) (*PosTransactionResponse, error) {
	id, err := uuid.Parse(sessionID)
	if err != nil {
		return nil, validationf("invalid session id: %v", err)
	}
	if !req.Amount.IsPositive() {
		return nil, validationf("amount must be positive")
	}

	var txn model.PosSessionTransaction
	err = withConflictRetry(ctx, s.txManager, func(txCtx context.Context) error {
		session, findErr := s.sessionRepo.FindByIDForUpdate(txCtx, tenantID, id)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return validationf("session not found: %s", sessionID)
			}
			return findErr
		}
		if session.Status != model.SessionStatusOpen {
			return invalidStatef("cannot record transactions on a %s session", session.Status)
		}

		txn = model.PosSessionTransaction{
			SessionID: session.ID,
			TenantID:  tenantID,
			Type:      req.Type,
			Amount:    req.Amount,
			Reference: req.Reference,
		}
		return s.sessionRepo.CreateTransaction(txCtx, &txn)
	})

	if err != nil {
		return nil, err
	}
	return &PosTransactionResponse{
		ID:        txn.ID.String(),
		Type:      txn.Type,
		Amount:    txn.Amount,
		Reference: txn.Reference,
		CreatedAt: txn.CreatedAt,
	}, nil
}

func (s *posSessionService) End(ctx context.Context, tenantID uuid.UUID, userID *uuid.UUID, sessionID string, req EndSessionRequest) (*PosSessionResponse, error) {
	id, err := uuid.Parse(sessionID)
	if err != nil {
		return nil, validationf("invalid session id: %v", err)
	}
	if req.EndingCash.IsNegative() {
		return nil, validationf("ending cash cannot be negative")
	}

	var session *model.PosSession
	err = withConflictRetry(ctx, s.txManager, func(txCtx context.Context) error {
		found, findErr := s.sessionRepo.FindByIDForUpdate(txCtx, tenantID, id)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return validationf("session not found: %s", sessionID)
			}
			return findErr
		}
		session = found
		if session.Status != model.SessionStatusOpen {
			return invalidStatef("cannot close a %s session", session.Status)
		}

		txns, listErr := s.sessionRepo.ListTransactions(txCtx, tenantID, session.ID)
		if listErr != nil {
			return listErr
		}

		calculated := model.CalculateExpectedCash(session.StartingCash, txns)
		now := time.Now()
		session.Status = model.SessionStatusClosed
		session.EndingCash = decimal.NewNullDecimal(req.EndingCash)
		session.CalculatedCash = decimal.NewNullDecimal(calculated)
		session.Difference = decimal.NewNullDecimal(req.EndingCash.Sub(calculated))
		session.ClosedAt = &now
		if req.Notes != "" {
			session.Notes = req.Notes
		}
		if saveErr := s.sessionRepo.Save(txCtx, session); saveErr != nil {
			return saveErr
		}

		details, _ := json.Marshal(map[string]interface{}{
			"ending_cash":     req.EndingCash.String(),
			"calculated_cash": calculated.String(),
			"difference":      session.Difference.Decimal.String(),
		})
		return s.auditRepo.Log(txCtx, &model.AuditLog{
			TenantID: tenantID,
			UserID:   userID,
			Action:   model.ActionClosePosSession,
			EntityID: session.ID.String(),
			Details:  string(details),
		})
	})

	if err != nil {
		return nil, err
	}
	return toPosSessionResponse(session), nil
}

func (s *posSessionService) Reconcile(ctx context.Context, tenantID uuid.UUID, userID *uuid.UUID, sessionID string, req ReconcileSessionRequest) (*PosSessionResponse, error) {
	id, err := uuid.Parse(sessionID)
	if err != nil {
		return nil, validationf("invalid session id: %v", err)
	}

	var session *model.PosSession
	err = withConflictRetry(ctx, s.txManager, func(txCtx context.Context) error {
		found, findErr := s.sessionRepo.FindByIDForUpdate(txCtx, tenantID, id)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return validationf("session not found: %s", sessionID)
			}
			return findErr
		}
		session = found
		if session.Status != model.SessionStatusClosed {
			return invalidStatef("cannot reconcile a %s session", session.Status)
		}

		now := time.Now()
		session.Status = model.SessionStatusReconciled
		session.ReconciledAt = &now
		if req.Notes != "" {
			session.Notes = req.Notes
		}
		if saveErr := s.sessionRepo.Save(txCtx, session); saveErr != nil {
			return saveErr
		}

		details, _ := json.Marshal(map[string]interface{}{
			"difference": session.Difference.Decimal.String(),
		})
		return s.auditRepo.Log(txCtx, &model.AuditLog{
			TenantID: tenantID,
			UserID:   userID,
			Action:   model.ActionReconcileSession,
			EntityID: session.ID.String(),
			Details:  string(details),
		})
	})

	if err != nil {
		return nil, err
	}
	return toPosSessionResponse(session), nil
}

func (s *posSessionService) Get(ctx context.Context, tenantID uuid.UUID, sessionID string) (*PosSessionResponse, error) {
	id, err := uuid.Parse(sessionID)
	if err != nil {
		return nil, validationf("invalid session id: %v", err)
	}
	session, err := s.sessionRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, validationf("session not found: %s", sessionID)
		}
		return nil, err
	}
	return toPosSessionResponse(session), nil
}

func (s *posSessionService) ListTransactions(ctx context.Context, tenantID uuid.UUID, sessionID string) ([]PosTransactionResponse, error) {
	id, err := uuid.Parse(sessionID)
	if err != nil {
		return nil, validationf("invalid session id: %v", err)
	}
	txns, err := s.sessionRepo.ListTransactions(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	res := make([]PosTransactionResponse, 0, len(txns))
	for i := range txns {
		res = append(res, PosTransactionResponse{
			ID:        txns[i].ID.String(),
			Type:      txns[i].Type,
			Amount:    txns[i].Amount,
			Reference: txns[i].Reference,
			CreatedAt: txns[i].CreatedAt,
		})
	}
	return res, nil
}

func (s *posSessionService) List(ctx context.Context, tenantID uuid.UUID, locationID, status string, page, limit int) ([]PosSessionResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	var locFilter *uuid.UUID
	if locationID != "" {
		parsed, err := uuid.Parse(locationID)
		if err != nil {
			return nil, 0, validationf("invalid location_id: %v", err)
		}
		locFilter = &parsed
	}

	sessions, total, err := s.sessionRepo.List(ctx, tenantID, locFilter, status, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]PosSessionResponse, 0, len(sessions))
	for i := range sessions {
		res = append(res, *toPosSessionResponse(&sessions[i]))
	}
	return res, total, nil
}

func toPosSessionResponse(session *model.PosSession) *PosSessionResponse {
	res := &PosSessionResponse{
		ID:           session.ID.String(),
		LocationID:   session.LocationID.String(),
		TerminalID:   session.TerminalID,
		Status:       session.Status,
		StartingCash: session.StartingCash,
		Notes:        session.Notes,
		OpenedAt:     session.OpenedAt,
		ClosedAt:     session.ClosedAt,
		ReconciledAt: session.ReconciledAt,
	}
	if session.EndingCash.Valid {
		v := session.EndingCash.Decimal
		res.EndingCash = &v
	}
	if session.CalculatedCash.Valid {
		v := session.CalculatedCash.Decimal
		res.CalculatedCash = &v
	}
	if session.Difference.Valid {
		v := session.Difference.Decimal
		res.Difference = &v
	}
	return res
}
