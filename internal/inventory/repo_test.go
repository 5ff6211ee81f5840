package inventory

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/opsdeskhq/opsdesk-backend/pkg/db/models"
	"github.com/opsdeskhq/opsdesk-backend/pkg/enums"
	pkgerrors "github.com/opsdeskhq/opsdesk-backend/pkg/errors"
	"github.com/opsdeskhq/opsdesk-backend/pkg/events"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// The busy timeout lets concurrent movement tests contend on the shared
	// in-memory database instead of failing fast with SQLITE_BUSY.
	dsn := fmt.Sprintf("file:inventory_%s?mode=memory&cache=shared&_busy_timeout=5000", uuid.NewString())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := gdb.AutoMigrate(
		&models.InventoryItem{},
		&models.InventoryTransaction{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return gdb
}

func seedItem(t *testing.T, gdb *gorm.DB, sku string, onHand, allocated, minQty int) *models.InventoryItem {
	t.Helper()
	item := &models.InventoryItem{
		ID:           uuid.New(),
		SKU:          sku,
		ProductName:  "Thermal Label Roll",
		OnHandQty:    onHand,
		AllocatedQty: allocated,
		MinQty:       minQty,
		UnitCost:     decimal.NewFromFloat(3.50),
		Location:     "A-12",
	}
	if err := gdb.Create(item).Error; err != nil {
		t.Fatalf("seed item: %v", err)
	}
	return item
}

func newDBService(t *testing.T, gdb *gorm.DB, bus *events.Bus) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{Repo: NewRepository(gdb), Bus: bus})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestScanInRaisesOnHandAndAppendsLedger(t *testing.T) {
	gdb := newTestDB(t)
	seedItem(t, gdb, "SKU-001", 10, 2, 5)

	bus := events.NewBus()
	var published []MovementEvent
	bus.Subscribe(events.TopicStockMovement, func(ctx context.Context, e events.Event) {
		published = append(published, e.Payload.(MovementEvent))
	})
	svc := newDBService(t, gdb, bus)

	result, err := svc.ScanIn(context.Background(), MovementInput{
		SKU: "SKU-001", Quantity: 5, UserName: "pat", Reference: "PO-7781",
	})
	if err != nil {
		t.Fatalf("scan in: %v", err)
	}
	if result.Item.OnHandQty != 15 {
		t.Fatalf("expected on-hand 15, got %d", result.Item.OnHandQty)
	}
	if result.Transaction.Type != enums.MovementTypeScanIn || result.Transaction.Quantity != 5 {
		t.Fatalf("unexpected ledger row: %+v", result.Transaction)
	}
	if result.LowStock {
		t.Fatal("13 available against min 5 is not low stock")
	}
	if len(published) != 1 || published[0].OnHandAfter != 15 {
		t.Fatalf("expected one movement event, got %+v", published)
	}

	var count int64
	gdb.Model(&models.InventoryTransaction{}).Count(&count)
	if count != 1 {
		t.Fatalf("expected one ledger row, got %d", count)
	}
}

func TestCheckOutRespectsAvailability(t *testing.T) {
	gdb := newTestDB(t)
	seedItem(t, gdb, "SKU-001", 10, 2, 0)
	svc := newDBService(t, gdb, nil)
	ctx := context.Background()

	// 8 available: checking out all 8 succeeds.
	result, err := svc.CheckOut(ctx, MovementInput{SKU: "SKU-001", Quantity: 8, UserName: "pat"})
	if err != nil {
		t.Fatalf("check out: %v", err)
	}
	if result.Item.OnHandQty != 2 || result.Item.AvailableQty() != 0 {
		t.Fatalf("unexpected quantities after checkout: %+v", result.Item)
	}

	// Nothing left above the allocation; the guard must refuse.
	_, err = svc.CheckOut(ctx, MovementInput{SKU: "SKU-001", Quantity: 1, UserName: "pat"})
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict, got %v", err)
	}

	// The refused movement left no trace: quantities and ledger unchanged.
	var item models.InventoryItem
	if err := gdb.Where("sku = ?", "SKU-001").First(&item).Error; err != nil {
		t.Fatalf("reload item: %v", err)
	}
	if item.OnHandQty != 2 || item.AllocatedQty != 2 {
		t.Fatalf("refused checkout mutated item: %+v", item)
	}
	var count int64
	gdb.Model(&models.InventoryTransaction{}).Count(&count)
	if count != 1 {
		t.Fatalf("expected one ledger row, got %d", count)
	}
}

func TestCheckOutOverdraftRefusedOutright(t *testing.T) {
	gdb := newTestDB(t)
	seedItem(t, gdb, "SKU-001", 3, 0, 0)
	svc := newDBService(t, gdb, nil)

	_, err := svc.CheckOut(context.Background(), MovementInput{SKU: "SKU-001", Quantity: 4, UserName: "pat"})
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestCheckOutFlagsLowStockAdvisory(t *testing.T) {
	gdb := newTestDB(t)
	seedItem(t, gdb, "SKU-001", 10, 0, 5)
	svc := newDBService(t, gdb, nil)

	result, err := svc.CheckOut(context.Background(), MovementInput{SKU: "SKU-001", Quantity: 7, UserName: "pat"})
	if err != nil {
		t.Fatalf("check out: %v", err)
	}
	if !result.LowStock {
		t.Fatal("3 available against min 5 must flag low stock")
	}
	if result.Item.OnHandQty != 3 {
		t.Fatalf("advisory must not block the movement, got on-hand %d", result.Item.OnHandQty)
	}
}

func TestMovementValidation(t *testing.T) {
	gdb := newTestDB(t)
	seedItem(t, gdb, "SKU-001", 10, 0, 0)
	svc := newDBService(t, gdb, nil)
	ctx := context.Background()

	cases := []MovementInput{
		{SKU: "", Quantity: 1, UserName: "pat"},
		{SKU: "SKU-001", Quantity: 0, UserName: "pat"},
		{SKU: "SKU-001", Quantity: -3, UserName: "pat"},
		{SKU: "SKU-001", Quantity: 1, UserName: ""},
	}
	for _, input := range cases {
		if _, err := svc.ScanIn(ctx, input); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
			t.Fatalf("expected validation error for %+v, got %v", input, err)
		}
	}

	if _, err := svc.ScanIn(ctx, MovementInput{SKU: "SKU-404", Quantity: 1, UserName: "pat"}); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found for unknown sku, got %v", err)
	}
}

func TestListTransactionsNewestFirstWithCursor(t *testing.T) {
	gdb := newTestDB(t)
	seedItem(t, gdb, "SKU-001", 100, 0, 0)
	svc := newDBService(t, gdb, nil)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := svc.ScanIn(ctx, MovementInput{SKU: "SKU-001", Quantity: i + 1, UserName: "pat"}); err != nil {
			t.Fatalf("scan in %d: %v", i, err)
		}
	}

	first, next, err := svc.ListTransactions(ctx, TransactionFilter{SKU: "SKU-001", Limit: 3})
	if err != nil {
		t.Fatalf("list transactions: %v", err)
	}
	if len(first) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(first))
	}
	if next == "" {
		t.Fatal("expected a next cursor")
	}
	if first[0].Quantity != 5 {
		t.Fatalf("expected newest first, got quantity %d", first[0].Quantity)
	}

	rest, next, err := svc.ListTransactions(ctx, TransactionFilter{SKU: "SKU-001", Limit: 3, Cursor: next})
	if err != nil {
		t.Fatalf("list transactions page 2: %v", err)
	}
	if len(rest) != 2 || next != "" {
		t.Fatalf("expected final page of 2, got %d rows, cursor %q", len(rest), next)
	}
	for _, row := range first {
		for _, other := range rest {
			if row.ID == other.ID {
				t.Fatalf("row %s appeared on both pages", row.ID)
			}
		}
	}
}

func TestListTransactionsFiltersByType(t *testing.T) {
	gdb := newTestDB(t)
	seedItem(t, gdb, "SKU-001", 100, 0, 0)
	svc := newDBService(t, gdb, nil)
	ctx := context.Background()

	if _, err := svc.ScanIn(ctx, MovementInput{SKU: "SKU-001", Quantity: 4, UserName: "pat"}); err != nil {
		t.Fatalf("scan in: %v", err)
	}
	if _, err := svc.CheckOut(ctx, MovementInput{SKU: "SKU-001", Quantity: 2, UserName: "pat"}); err != nil {
		t.Fatalf("check out: %v", err)
	}

	outs, _, err := svc.ListTransactions(ctx, TransactionFilter{Type: enums.MovementTypeCheckOut})
	if err != nil {
		t.Fatalf("list transactions: %v", err)
	}
	if len(outs) != 1 || outs[0].Type != enums.MovementTypeCheckOut {
		t.Fatalf("type filter wrong: %+v", outs)
	}

	_, _, err = svc.ListTransactions(ctx, TransactionFilter{Type: enums.MovementType("transfer")})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for unknown type, got %v", err)
	}
}

func TestUpsertItemPreservesCounters(t *testing.T) {
	gdb := newTestDB(t)
	svc := newDBService(t, gdb, nil)
	ctx := context.Background()

	created, err := svc.UpsertItem(ctx, UpsertItemInput{
		SKU:         "SKU-010",
		ProductName: "Packing Tape",
		MinQty:      10,
		UnitCost:    decimal.NewFromFloat(1.25),
		Location:    "B-03",
	})
	if err != nil {
		t.Fatalf("upsert create: %v", err)
	}
	if created.OnHandQty != 0 {
		t.Fatalf("new item must start at zero, got %d", created.OnHandQty)
	}

	if _, err := svc.ScanIn(ctx, MovementInput{SKU: "SKU-010", Quantity: 6, UserName: "pat"}); err != nil {
		t.Fatalf("scan in: %v", err)
	}

	updated, err := svc.UpsertItem(ctx, UpsertItemInput{
		SKU:         "SKU-010",
		ProductName: "Packing Tape 48mm",
		MinQty:      12,
		UnitCost:    decimal.NewFromFloat(1.40),
		Location:    "B-04",
	})
	if err != nil {
		t.Fatalf("upsert update: %v", err)
	}
	if updated.ProductName != "Packing Tape 48mm" || updated.MinQty != 12 {
		t.Fatalf("catalog fields not updated: %+v", updated)
	}
	if updated.OnHandQty != 6 {
		t.Fatalf("upsert must not touch counters, got on-hand %d", updated.OnHandQty)
	}
	if updated.ID != created.ID {
		t.Fatalf("upsert replaced the row: %s vs %s", updated.ID, created.ID)
	}
}

func TestListItemsSearch(t *testing.T) {
	gdb := newTestDB(t)
	svc := newDBService(t, gdb, nil)
	ctx := context.Background()

	for _, spec := range []struct{ sku, name string }{
		{"SKU-100", "Thermal Label Roll"},
		{"SKU-101", "Packing Tape"},
		{"SKU-102", "Label Printer Ribbon"},
	} {
		if _, err := svc.UpsertItem(ctx, UpsertItemInput{SKU: spec.sku, ProductName: spec.name}); err != nil {
			t.Fatalf("seed %s: %v", spec.sku, err)
		}
	}

	labels, _, err := svc.ListItems(ctx, ItemFilter{Search: "Label"})
	if err != nil {
		t.Fatalf("list items: %v", err)
	}
	if len(labels) != 2 {
		t.Fatalf("expected 2 label items, got %d", len(labels))
	}

	bySKU, _, err := svc.ListItems(ctx, ItemFilter{Search: "SKU-101"})
	if err != nil {
		t.Fatalf("list items: %v", err)
	}
	if len(bySKU) != 1 || bySKU[0].ProductName != "Packing Tape" {
		t.Fatalf("sku search wrong: %+v", bySKU)
	}
}

func TestSummaryAggregates(t *testing.T) {
	gdb := newTestDB(t)
	svc := newDBService(t, gdb, nil)
	ctx := context.Background()

	itemA := seedItem(t, gdb, "SKU-001", 10, 0, 5)
	itemA.UnitCost = decimal.NewFromFloat(2.00)
	if err := gdb.Save(itemA).Error; err != nil {
		t.Fatalf("set cost: %v", err)
	}
	itemB := seedItem(t, gdb, "SKU-002", 2, 0, 5)
	itemB.UnitCost = decimal.NewFromFloat(10.00)
	if err := gdb.Save(itemB).Error; err != nil {
		t.Fatalf("set cost: %v", err)
	}

	summary, err := svc.Summary(ctx)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.ItemCount != 2 {
		t.Fatalf("expected 2 items, got %d", summary.ItemCount)
	}
	if summary.TotalOnHand != 12 {
		t.Fatalf("expected total on-hand 12, got %d", summary.TotalOnHand)
	}
	if !summary.TotalValue.Equal(decimal.NewFromFloat(40.00)) {
		t.Fatalf("expected total value 40.00, got %s", summary.TotalValue)
	}
	if summary.LowStockCount != 1 {
		t.Fatalf("expected one low stock item, got %d", summary.LowStockCount)
	}
}

func TestCheckOutConcurrentNeverOverdraws(t *testing.T) {
	gdb := newTestDB(t)
	seedItem(t, gdb, "SKU-001", 10, 0, 0)
	svc := newDBService(t, gdb, nil)
	ctx := context.Background()

	// 10 available, quantity 3 each: at most 3 of the 8 callers can win.
	const callers = 8
	const qty = 3

	var wg sync.WaitGroup
	results := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			_, err := svc.CheckOut(ctx, MovementInput{SKU: "SKU-001", Quantity: qty, UserName: "pat"})
			results[slot] = err
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range results {
		if err == nil {
			successes++
			continue
		}
		if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
			t.Fatalf("unexpected movement error: %v", err)
		}
	}
	if successes > 3 {
		t.Fatalf("availability admits at most 3 check-outs, got %d", successes)
	}
	if successes == 0 {
		t.Fatal("expected at least one check-out to win")
	}

	var item models.InventoryItem
	if err := gdb.First(&item, "sku = ?", "SKU-001").Error; err != nil {
		t.Fatalf("reload item: %v", err)
	}
	if item.OnHandQty != 10-successes*qty {
		t.Fatalf("expected on-hand %d, got %d", 10-successes*qty, item.OnHandQty)
	}
	if item.AvailableQty() < 0 {
		t.Fatalf("availability went negative: %d", item.AvailableQty())
	}

	var ledger int64
	if err := gdb.Model(&models.InventoryTransaction{}).Where("sku = ?", "SKU-001").Count(&ledger).Error; err != nil {
		t.Fatalf("count ledger: %v", err)
	}
	if ledger != int64(successes) {
		t.Fatalf("ledger rows must equal confirmed movements: %d != %d", ledger, successes)
	}
}
