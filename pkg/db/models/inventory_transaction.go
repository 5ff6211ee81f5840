package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/opsdeskhq/opsdesk-backend/pkg/enums"
)

// InventoryTransaction records one confirmed stock movement. Rows are
// append-only and never updated after insert.
type InventoryTransaction struct {
	ID              uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	Type            enums.MovementType `gorm:"column:type;not null;index"`
	SKU             string             `gorm:"column:sku;not null;index"`
	ProductName     string             `gorm:"column:product_name;not null"`
	Quantity        int                `gorm:"column:quantity;not null"`
	TransactionDate time.Time          `gorm:"column:transaction_date;not null"`
	UserName        string             `gorm:"column:user_name;not null"`
	Reference       string             `gorm:"column:reference"`
	Notes           string             `gorm:"column:notes;type:text"`
	CreatedAt       time.Time          `gorm:"column:created_at;autoCreateTime"`
}
