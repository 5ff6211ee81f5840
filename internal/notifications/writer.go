package notifications

import (
	"context"
	"fmt"

	"github.com/opsdeskhq/opsdesk-backend/internal/inventory"
	"github.com/opsdeskhq/opsdesk-backend/internal/recruitment"
	"github.com/opsdeskhq/opsdesk-backend/pkg/db/models"
	"github.com/opsdeskhq/opsdesk-backend/pkg/enums"
	"github.com/opsdeskhq/opsdesk-backend/pkg/events"
	"github.com/opsdeskhq/opsdesk-backend/pkg/logger"
)

// WriterParams configures which bus topics turn into feed entries.
type WriterParams struct {
	Repo   Repository
	Log    *logger.Logger
	Bus    *events.Bus

	OnSubmitted bool
	OnLowStock  bool
}

// Writer turns domain events into notification rows. Registration happens
// once at startup; delivery runs on the publisher's goroutine, so the
// handlers only do a single insert each.
type Writer struct {
	repo Repository
	log  *logger.Logger
}

// RegisterWriter subscribes the notification writer to the bus.
func RegisterWriter(params WriterParams) (*Writer, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if params.Bus == nil {
		return nil, fmt.Errorf("event bus required")
	}

	w := &Writer{repo: params.Repo, log: params.Log}
	if params.OnSubmitted {
		params.Bus.Subscribe(events.TopicApplicationSubmitted, w.onApplicationSubmitted)
	}
	if params.OnLowStock {
		params.Bus.Subscribe(events.TopicStockMovement, w.onStockMovement)
	}
	return w, nil
}

func (w *Writer) onApplicationSubmitted(ctx context.Context, event events.Event) {
	payload, ok := event.Payload.(recruitment.SubmittedEvent)
	if !ok {
		return
	}
	w.write(ctx, &models.Notification{
		Kind:  enums.NotificationKindApplicationSubmitted,
		Title: fmt.Sprintf("New application %s", payload.AnonymousID),
		Body:  fmt.Sprintf("%s received an application for %s.", payload.Department, payload.JobTitle),
	})
}

func (w *Writer) onStockMovement(ctx context.Context, event events.Event) {
	payload, ok := event.Payload.(inventory.MovementEvent)
	if !ok || !payload.LowStock {
		return
	}
	w.write(ctx, &models.Notification{
		Kind:  enums.NotificationKindLowStock,
		Title: fmt.Sprintf("Low stock: %s", payload.SKU),
		Body:  fmt.Sprintf("%s is down to %d on hand after a %s.", payload.ProductName, payload.OnHandAfter, payload.Type),
	})
}

func (w *Writer) write(ctx context.Context, notification *models.Notification) {
	if err := w.repo.Create(ctx, notification); err != nil && w.log != nil {
		// A failed feed insert never fails the movement or submission that
		// triggered it.
		w.log.Error(ctx, "write notification", err)
	}
}
