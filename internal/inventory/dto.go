package inventory

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/opsdeskhq/opsdesk-backend/pkg/db/models"
	"github.com/opsdeskhq/opsdesk-backend/pkg/enums"
)

// MovementInput describes one scan-in or check-out request.
type MovementInput struct {
	SKU       string
	Quantity  int
	UserName  string
	Reference string
	Notes     string
}

// MovementResult is the outcome of a confirmed movement. LowStock is an
// advisory flag; it never blocks the movement itself.
type MovementResult struct {
	Item        *models.InventoryItem       `json:"item"`
	Transaction *models.InventoryTransaction `json:"transaction"`
	LowStock    bool                        `json:"low_stock"`
}

// UpsertItemInput creates or updates the catalog row for a SKU.
type UpsertItemInput struct {
	SKU         string
	ProductName string
	MinQty      int
	UnitCost    decimal.Decimal
	Location    string
}

// TransactionFilter narrows the movement ledger listing.
type TransactionFilter struct {
	SKU    string
	Type   enums.MovementType
	Cursor string
	Limit  int
}

// ItemFilter narrows the catalog listing.
type ItemFilter struct {
	Search string
	Cursor string
	Limit  int
}

// SummaryResult aggregates the current stock position.
type SummaryResult struct {
	ItemCount     int64           `json:"item_count"`
	TotalOnHand   int64           `json:"total_on_hand"`
	TotalValue    decimal.Decimal `json:"total_value"`
	LowStockCount int64           `json:"low_stock_count"`
}

// MovementEvent is published on the bus after a movement committed.
type MovementEvent struct {
	Type            enums.MovementType `json:"type"`
	SKU             string             `json:"sku"`
	ProductName     string             `json:"product_name"`
	Quantity        int                `json:"quantity"`
	OnHandAfter     int                `json:"on_hand_after"`
	LowStock        bool               `json:"low_stock"`
	TransactionDate time.Time          `json:"transaction_date"`
}
