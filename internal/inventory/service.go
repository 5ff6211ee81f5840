package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/opsdeskhq/opsdesk-backend/pkg/db/models"
	"github.com/opsdeskhq/opsdesk-backend/pkg/enums"
	pkgerrors "github.com/opsdeskhq/opsdesk-backend/pkg/errors"
	"github.com/opsdeskhq/opsdesk-backend/pkg/events"
	"github.com/opsdeskhq/opsdesk-backend/pkg/metrics"
	"github.com/opsdeskhq/opsdesk-backend/pkg/pagination"
)

// errInsufficientStock aborts a check-out transaction when the availability
// guard matched nothing.
var errInsufficientStock = errors.New("insufficient availability")

// Service owns the stock ledger: item catalog, confirmed movements, and the
// availability invariant on check-out.
type Service interface {
	LookupBySKU(ctx context.Context, sku string) (*models.InventoryItem, error)
	ScanIn(ctx context.Context, input MovementInput) (*MovementResult, error)
	CheckOut(ctx context.Context, input MovementInput) (*MovementResult, error)
	ListTransactions(ctx context.Context, filter TransactionFilter) ([]models.InventoryTransaction, string, error)

	UpsertItem(ctx context.Context, input UpsertItemInput) (*models.InventoryItem, error)
	ListItems(ctx context.Context, filter ItemFilter) ([]models.InventoryItem, string, error)
	Summary(ctx context.Context) (*SummaryResult, error)
}

// ServiceParams wires the service dependencies.
type ServiceParams struct {
	Repo    Repository
	Bus     *events.Bus
	Metrics *metrics.Metrics
	Now     func() time.Time
}

type service struct {
	repo    Repository
	bus     *events.Bus
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewService wires an inventory service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &service{
		repo:    params.Repo,
		bus:     params.Bus,
		metrics: params.Metrics,
		now:     params.Now,
	}, nil
}

func (s *service) LookupBySKU(ctx context.Context, sku string) (*models.InventoryItem, error) {
	if strings.TrimSpace(sku) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sku is required")
	}
	item, err := s.repo.GetBySKU(ctx, sku)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("no item with sku %q", sku))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load item")
	}
	return item, nil
}

func (s *service) ScanIn(ctx context.Context, input MovementInput) (*MovementResult, error) {
	return s.applyMovement(ctx, enums.MovementTypeScanIn, input)
}

func (s *service) CheckOut(ctx context.Context, input MovementInput) (*MovementResult, error) {
	return s.applyMovement(ctx, enums.MovementTypeCheckOut, input)
}

// applyMovement runs the quantity update and the ledger append in one DB
// transaction, then publishes the movement event after commit.
func (s *service) applyMovement(ctx context.Context, movementType enums.MovementType, input MovementInput) (*MovementResult, error) {
	if err := validateMovement(input); err != nil {
		return nil, err
	}

	var (
		item *models.InventoryItem
		txn  *models.InventoryTransaction
	)
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		current, txErr := tx.GetBySKU(ctx, input.SKU)
		if txErr != nil {
			return txErr
		}

		switch movementType {
		case enums.MovementTypeScanIn:
			txErr = tx.ApplyScanIn(ctx, current.ID, input.Quantity)
		case enums.MovementTypeCheckOut:
			ok, applyErr := tx.ApplyCheckOut(ctx, current.ID, input.Quantity)
			if applyErr != nil {
				txErr = applyErr
			} else if !ok {
				txErr = errInsufficientStock
			}
		default:
			txErr = fmt.Errorf("unsupported movement type %q", movementType)
		}
		if txErr != nil {
			return txErr
		}

		txn = &models.InventoryTransaction{
			Type:            movementType,
			SKU:             current.SKU,
			ProductName:     current.ProductName,
			Quantity:        input.Quantity,
			TransactionDate: s.now().UTC(),
			UserName:        input.UserName,
			Reference:       input.Reference,
			Notes:           input.Notes,
		}
		if txErr = tx.AppendTransaction(ctx, txn); txErr != nil {
			return txErr
		}

		item, txErr = tx.GetBySKU(ctx, input.SKU)
		return txErr
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("no item with sku %q", input.SKU))
		}
		if errors.Is(err, errInsufficientStock) {
			s.metrics.IncMovementDenied()
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "insufficient availability")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "apply movement")
	}

	result := &MovementResult{
		Item:        item,
		Transaction: txn,
		LowStock:    item.AvailableQty() < item.MinQty,
	}

	s.metrics.IncMovement(string(movementType))
	s.publish(ctx, events.Event{Topic: events.TopicStockMovement, Payload: MovementEvent{
		Type:            movementType,
		SKU:             item.SKU,
		ProductName:     item.ProductName,
		Quantity:        input.Quantity,
		OnHandAfter:     item.OnHandQty,
		LowStock:        result.LowStock,
		TransactionDate: txn.TransactionDate,
	}})
	return result, nil
}

func (s *service) ListTransactions(ctx context.Context, filter TransactionFilter) ([]models.InventoryTransaction, string, error) {
	if filter.Type != "" && !filter.Type.IsValid() {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid movement type %q", filter.Type))
	}
	cursor, err := pagination.ParseCursor(filter.Cursor)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(filter.Limit)
	txns, err := s.repo.ListTransactions(ctx, filter.SKU, filter.Type, cursor, limit+1)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list transactions")
	}

	var next string
	if len(txns) > limit {
		txns = txns[:limit]
		last := txns[len(txns)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return txns, next, nil
}

func (s *service) UpsertItem(ctx context.Context, input UpsertItemInput) (*models.InventoryItem, error) {
	if strings.TrimSpace(input.SKU) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sku is required")
	}
	if strings.TrimSpace(input.ProductName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	if input.MinQty < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "min quantity cannot be negative")
	}
	if input.UnitCost.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit cost cannot be negative")
	}

	item := &models.InventoryItem{
		SKU:         input.SKU,
		ProductName: input.ProductName,
		MinQty:      input.MinQty,
		UnitCost:    input.UnitCost,
		Location:    input.Location,
	}
	// Upsert and re-read in one transaction so the returned snapshot carries
	// the quantity counters of an existing SKU, including any movement that
	// would otherwise land between the two statements.
	var stored *models.InventoryItem
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		if txErr := tx.UpsertItem(ctx, item); txErr != nil {
			return txErr
		}
		loaded, txErr := tx.GetBySKU(ctx, input.SKU)
		if txErr != nil {
			return txErr
		}
		stored = loaded
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist item")
	}
	return stored, nil
}

func (s *service) ListItems(ctx context.Context, filter ItemFilter) ([]models.InventoryItem, string, error) {
	cursor, err := pagination.ParseCursor(filter.Cursor)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(filter.Limit)
	items, err := s.repo.ListItems(ctx, filter.Search, cursor, limit+1)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list items")
	}

	var next string
	if len(items) > limit {
		items = items[:limit]
		last := items[len(items)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return items, next, nil
}

func (s *service) Summary(ctx context.Context) (*SummaryResult, error) {
	summary, err := s.repo.Summary(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "summarize inventory")
	}
	return summary, nil
}

func (s *service) publish(ctx context.Context, event events.Event) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(ctx, event)
}

func validateMovement(input MovementInput) error {
	if strings.TrimSpace(input.SKU) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "sku is required")
	}
	if input.Quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if strings.TrimSpace(input.UserName) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "user name is required")
	}
	return nil
}
