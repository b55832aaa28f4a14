package repository

import (
	"context"

	"github.com/Robertishimwe/inveprobackend-sub001/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PosSessionRepository interface {
	Create(ctx context.Context, session *model.PosSession) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.PosSession, error)
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*model.PosSession, error)
	// FindOpenByTerminal returns the OPEN session for a (location, terminal),
	// or gorm.ErrRecordNotFound when the drawer is free.
	FindOpenByTerminal(ctx context.Context, tenantID, locationID uuid.UUID, terminalID string) (*model.PosSession, error)
	Save(ctx context.Context, session *model.PosSession) error
	CreateTransaction(ctx context.Context, txn *model.PosSessionTransaction) error
	ListTransactions(ctx context.Context, tenantID, sessionID uuid.UUID) ([]model.PosSessionTransaction, error)
	List(ctx context.Context, tenantID uuid.UUID, locationID *uuid.UUID, status string, page, limit int) ([]model.PosSession, int64, error)
}

type posSessionRepository struct {
	db *gorm.DB
}

func NewPosSessionRepository(db *gorm.DB) PosSessionRepository {
	return &posSessionRepository{db: db}
}

func (r *posSessionRepository) Create(ctx context.Context, session *model.PosSession) error {
	return GetDB(ctx, r.db).Create(session).Error
}

func (r *posSessionRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.PosSession, error) {
	var session model.PosSession
	if err := GetDB(ctx, r.db).
		Where("tenant_id = ?", tenantID).
		First(&session, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *posSessionRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*model.PosSession, error) {
	var session model.PosSession
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ?", tenantID).
		First(&session, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *posSessionRepository) FindOpenByTerminal(ctx context.Context, tenantID, locationID uuid.UUID, terminalID string) (*model.PosSession, error) {
	var session model.PosSession
	if err := GetDB(ctx, r.db).
		Where("tenant_id = ? AND location_id = ? AND terminal_id = ? AND status = ?",
			tenantID, locationID, terminalID, model.SessionStatusOpen).
		First(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *posSessionRepository) Save(ctx context.Context, session *model.PosSession) error {
	return GetDB(ctx, r.db).Omit("Transactions").Save(session).Error
}

func (r *posSessionRepository) CreateTransaction(ctx context.Context, txn *model.PosSessionTransaction) error {
	return GetDB(ctx, r.db).Create(txn).Error
}

func (r *posSessionRepository) ListTransactions(ctx context.Context, tenantID, sessionID uuid.UUID) ([]model.PosSessionTransaction, error) {
	var txns []model.PosSessionTransaction
	if err := GetDB(ctx, r.db).
		Where("tenant_id = ? AND session_id = ?", tenantID, sessionID).
		Order("created_at asc").
		Find(&txns).Error; err != nil {
		return nil, err
	}
	return txns, nil
}

func (r *posSessionRepository) List(ctx context.Context, tenantID uuid.UUID, locationID *uuid.UUID, status string, page, limit int) ([]model.PosSession, int64, error) {
	var sessions []model.PosSession
	var total int64

	db := GetDB(ctx, r.db).Model(&model.PosSession{}).Where("tenant_id = ?", tenantID)
	if locationID != nil {
		db = db.Where("location_id = ?", *locationID)
	}
	if status != "" {
		db = db.Where("status = ?", status)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("opened_at desc").Offset(offset).Limit(limit).Find(&sessions).Error; err != nil {
		return nil, 0, err
	}

	return sessions, total, nil
}
