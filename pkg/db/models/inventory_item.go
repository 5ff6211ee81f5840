package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InventoryItem tracks on-hand and allocated counts per SKU.
type InventoryItem struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	SKU          string          `gorm:"column:sku;uniqueIndex;not null"`
	ProductName  string          `gorm:"column:product_name;not null"`
	OnHandQty    int             `gorm:"column:on_hand_qty;not null;default:0"`
	AllocatedQty int             `gorm:"column:allocated_qty;not null;default:0"`
	MinQty       int             `gorm:"column:min_qty;not null;default:0"`
	UnitCost     decimal.Decimal `gorm:"column:unit_cost;type:numeric(12,2);not null;default:0"`
	Location     string          `gorm:"column:location"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// AvailableQty is the quantity eligible for checkout.
func (i InventoryItem) AvailableQty() int {
	return i.OnHandQty - i.AllocatedQty
}
