package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionCreateProduct  = "CREATE_PRODUCT"
	ActionUpdateProduct  = "UPDATE_PRODUCT"
	ActionDeleteProduct  = "DELETE_PRODUCT"
	ActionCreateLocation = "CREATE_LOCATION"

	// Inventory engine actions
	ActionPostAdjustment   = "POST_ADJUSTMENT"
	ActionCreateTransfer   = "CREATE_TRANSFER"
	ActionShipTransfer     = "SHIP_TRANSFER"
	ActionReceiveTransfer  = "RECEIVE_TRANSFER"
	ActionCancelTransfer   = "CANCEL_TRANSFER"
	ActionInitiateCount    = "INITIATE_STOCK_COUNT"
	ActionPostCount        = "POST_STOCK_COUNT"
	ActionOpenPosSession   = "OPEN_POS_SESSION"
	ActionClosePosSession  = "CLOSE_POS_SESSION"
	ActionReconcileSession = "RECONCILE_POS_SESSION"
)

// AuditLog tracks Who, What, and When for critical system changes
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"tenant_id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // Nullable gracefully if automated bot
	User       *User      `gorm:"foreignKey:UserID" json:"user"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`        // Reference string (uuid/code)
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"` // Human readable name
	Details    string     `gorm:"type:jsonb" json:"details"`                      // Serialized JSON payload of the action
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}
