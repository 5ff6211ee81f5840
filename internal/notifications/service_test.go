package notifications

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/opsdeskhq/opsdesk-backend/internal/inventory"
	"github.com/opsdeskhq/opsdesk-backend/internal/recruitment"
	"github.com/opsdeskhq/opsdesk-backend/pkg/db/models"
	"github.com/opsdeskhq/opsdesk-backend/pkg/enums"
	pkgerrors "github.com/opsdeskhq/opsdesk-backend/pkg/errors"
	"github.com/opsdeskhq/opsdesk-backend/pkg/events"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:notifications_%s?mode=memory&cache=shared", uuid.NewString())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := gdb.AutoMigrate(&models.Notification{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return gdb
}

func newDBService(t *testing.T, gdb *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{Repo: NewRepository(gdb)})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func seedNotification(t *testing.T, gdb *gorm.DB, kind enums.NotificationKind, read bool) *models.Notification {
	t.Helper()
	n := &models.Notification{
		ID:    uuid.New(),
		Kind:  kind,
		Title: "seed",
	}
	if read {
		now := time.Now().UTC()
		n.ReadAt = &now
	}
	if err := gdb.Create(n).Error; err != nil {
		t.Fatalf("seed notification: %v", err)
	}
	return n
}

func TestListUnreadOnly(t *testing.T) {
	gdb := newTestDB(t)
	svc := newDBService(t, gdb)
	ctx := context.Background()

	seedNotification(t, gdb, enums.NotificationKindLowStock, true)
	unread := seedNotification(t, gdb, enums.NotificationKindApplicationSubmitted, false)

	rows, next, err := svc.List(ctx, ListFilter{UnreadOnly: true})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != unread.ID {
		t.Fatalf("unread filter wrong: %+v", rows)
	}
	if next != "" {
		t.Fatalf("unexpected cursor %q", next)
	}

	count, err := svc.UnreadCount(ctx)
	if err != nil {
		t.Fatalf("unread count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 unread, got %d", count)
	}
}

func TestMarkReadAndMarkAllRead(t *testing.T) {
	gdb := newTestDB(t)
	svc := newDBService(t, gdb)
	ctx := context.Background()

	first := seedNotification(t, gdb, enums.NotificationKindLowStock, false)
	seedNotification(t, gdb, enums.NotificationKindLowStock, false)

	if err := svc.MarkRead(ctx, first.ID); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	// Marking twice is a no-op, not an error.
	if err := svc.MarkRead(ctx, first.ID); err != nil {
		t.Fatalf("mark read again: %v", err)
	}
	if err := svc.MarkRead(ctx, uuid.New()); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	updated, err := svc.MarkAllRead(ctx)
	if err != nil {
		t.Fatalf("mark all read: %v", err)
	}
	if updated != 1 {
		t.Fatalf("expected 1 row updated, got %d", updated)
	}

	count, err := svc.UnreadCount(ctx)
	if err != nil {
		t.Fatalf("unread count: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 unread, got %d", count)
	}
}

func TestWriterRecordsSubmittedApplications(t *testing.T) {
	gdb := newTestDB(t)
	bus := events.NewBus()
	if _, err := RegisterWriter(WriterParams{
		Repo:        NewRepository(gdb),
		Bus:         bus,
		OnSubmitted: true,
		OnLowStock:  true,
	}); err != nil {
		t.Fatalf("register writer: %v", err)
	}

	bus.Publish(context.Background(), events.Event{
		Topic: events.TopicApplicationSubmitted,
		Payload: recruitment.SubmittedEvent{
			AnonymousID: "APL-2026-0001",
			JobTitle:    "Stockroom Lead",
			Department:  "Operations",
		},
	})

	var rows []models.Notification
	if err := gdb.Find(&rows).Error; err != nil {
		t.Fatalf("load notifications: %v", err)
	}
	if len(rows) != 1 || rows[0].Kind != enums.NotificationKindApplicationSubmitted {
		t.Fatalf("expected one application notification, got %+v", rows)
	}
}

func TestWriterRecordsOnlyLowStockMovements(t *testing.T) {
	gdb := newTestDB(t)
	bus := events.NewBus()
	if _, err := RegisterWriter(WriterParams{
		Repo:       NewRepository(gdb),
		Bus:        bus,
		OnLowStock: true,
	}); err != nil {
		t.Fatalf("register writer: %v", err)
	}
	ctx := context.Background()

	bus.Publish(ctx, events.Event{
		Topic:   events.TopicStockMovement,
		Payload: inventory.MovementEvent{SKU: "SKU-001", LowStock: false},
	})
	bus.Publish(ctx, events.Event{
		Topic:   events.TopicStockMovement,
		Payload: inventory.MovementEvent{SKU: "SKU-002", ProductName: "Tape", OnHandAfter: 2, Type: enums.MovementTypeCheckOut, LowStock: true},
	})

	var rows []models.Notification
	if err := gdb.Find(&rows).Error; err != nil {
		t.Fatalf("load notifications: %v", err)
	}
	if len(rows) != 1 || rows[0].Kind != enums.NotificationKindLowStock {
		t.Fatalf("expected one low stock notification, got %+v", rows)
	}
}
