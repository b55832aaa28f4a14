package database

import (
	"log"

	"github.com/Robertishimwe/inveprobackend-sub001/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// Auto-migrate core models
	err = db.AutoMigrate(
		&model.User{},
		&model.RefreshToken{},
		&model.Role{},
		&model.Permission{},
		&model.Product{},
		&model.Location{},
		&model.UnitOfMeasure{},
		&model.InventoryItem{},
		&model.InventoryTransaction{},
		&model.InventoryAdjustment{},
		&model.InventoryAdjustmentItem{},
		&model.InventoryTransfer{},
		&model.InventoryTransferItem{},
		&model.StockCount{},
		&model.StockCountItem{},
		&model.PosSession{},
		&model.PosSessionTransaction{},
		&model.AuditLog{},
	)
	if err != nil {
		log.Println("WARNING: Failed to auto-migrate models:", err)
	}

	// Partial unique index backing the one-open-session-per-terminal rule.
	// The service-level lookup alone races under concurrent opens because
	// there is no row to lock while the drawer is free.
	err = db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS uniq_open_pos_session
		ON pos_sessions (tenant_id, location_id, terminal_id)
		WHERE status = 'OPEN'`).Error
	if err != nil {
		log.Println("WARNING: Failed to create open-session index:", err)
	}

	return db, nil
}
