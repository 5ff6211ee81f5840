package inventory

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/opsdeskhq/opsdesk-backend/pkg/db/models"
	"github.com/opsdeskhq/opsdesk-backend/pkg/enums"
	"github.com/opsdeskhq/opsdesk-backend/pkg/pagination"
)

// Repository persists inventory items and the append-only movement ledger.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Transaction(ctx context.Context, fn func(Repository) error) error

	GetBySKU(ctx context.Context, sku string) (*models.InventoryItem, error)
	UpsertItem(ctx context.Context, item *models.InventoryItem) error
	ListItems(ctx context.Context, search string, cursor *pagination.Cursor, limit int) ([]models.InventoryItem, error)

	// ApplyScanIn raises on_hand_qty unconditionally.
	ApplyScanIn(ctx context.Context, id uuid.UUID, qty int) error
	// ApplyCheckOut lowers on_hand_qty only while availability covers the
	// quantity. Returns false without mutating when the guard fails.
	ApplyCheckOut(ctx context.Context, id uuid.UUID, qty int) (bool, error)

	AppendTransaction(ctx context.Context, txn *models.InventoryTransaction) error
	ListTransactions(ctx context.Context, sku string, movementType enums.MovementType, cursor *pagination.Cursor, limit int) ([]models.InventoryTransaction, error)

	Summary(ctx context.Context) (*SummaryResult, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds the gorm-backed inventory repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{db: tx}
}

func (r *repository) Transaction(ctx context.Context, fn func(Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(r.WithTx(tx))
	})
}

func (r *repository) GetBySKU(ctx context.Context, sku string) (*models.InventoryItem, error) {
	var item models.InventoryItem
	err := r.db.WithContext(ctx).
		Where("sku = ?", sku).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) UpsertItem(ctx context.Context, item *models.InventoryItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "sku"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"product_name", "min_qty", "unit_cost", "location", "updated_at",
			}),
		}).
		Create(item).Error
}

func (r *repository) ListItems(ctx context.Context, search string, cursor *pagination.Cursor, limit int) ([]models.InventoryItem, error) {
	query := r.db.WithContext(ctx).Model(&models.InventoryItem{})
	if search != "" {
		pattern := "%" + search + "%"
		query = query.Where("sku LIKE ? OR product_name LIKE ?", pattern, pattern)
	}
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var items []models.InventoryItem
	err := query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) ApplyScanIn(ctx context.Context, id uuid.UUID, qty int) error {
	result := r.db.WithContext(ctx).
		Model(&models.InventoryItem{}).
		Where("id = ?", id).
		Update("on_hand_qty", gorm.Expr("on_hand_qty + ?", qty))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) ApplyCheckOut(ctx context.Context, id uuid.UUID, qty int) (bool, error) {
	// The availability guard lives in the WHERE clause so racing check-outs
	// serialize on the row and the losers match nothing.
	result := r.db.WithContext(ctx).
		Model(&models.InventoryItem{}).
		Where("id = ? AND on_hand_qty - allocated_qty >= ?", id, qty).
		Update("on_hand_qty", gorm.Expr("on_hand_qty - ?", qty))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) AppendTransaction(ctx context.Context, txn *models.InventoryTransaction) error {
	if txn.ID == uuid.Nil {
		txn.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *repository) ListTransactions(ctx context.Context, sku string, movementType enums.MovementType, cursor *pagination.Cursor, limit int) ([]models.InventoryTransaction, error) {
	query := r.db.WithContext(ctx).Model(&models.InventoryTransaction{})
	if sku != "" {
		query = query.Where("sku = ?", sku)
	}
	if movementType != "" {
		query = query.Where("type = ?", movementType)
	}
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var txns []models.InventoryTransaction
	err := query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&txns).Error
	if err != nil {
		return nil, err
	}
	return txns, nil
}

func (r *repository) Summary(ctx context.Context) (*SummaryResult, error) {
	var summary SummaryResult
	err := r.db.WithContext(ctx).
		Model(&models.InventoryItem{}).
		Select(
			"COUNT(*) AS item_count, " +
				"COALESCE(SUM(on_hand_qty), 0) AS total_on_hand, " +
				"COALESCE(SUM(on_hand_qty * unit_cost), 0) AS total_value, " +
				"COALESCE(SUM(CASE WHEN on_hand_qty - allocated_qty < min_qty THEN 1 ELSE 0 END), 0) AS low_stock_count",
		).
		Scan(&summary).Error
	if err != nil {
		return nil, err
	}
	return &summary, nil
}
