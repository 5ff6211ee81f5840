package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/opsdeskhq/opsdesk-backend/api/middleware"
	"github.com/opsdeskhq/opsdesk-backend/api/responses"
	"github.com/opsdeskhq/opsdesk-backend/api/validators"
	"github.com/opsdeskhq/opsdesk-backend/internal/inventory"
	"github.com/opsdeskhq/opsdesk-backend/pkg/enums"
	pkgerrors "github.com/opsdeskhq/opsdesk-backend/pkg/errors"
	"github.com/opsdeskhq/opsdesk-backend/pkg/logger"
	"github.com/opsdeskhq/opsdesk-backend/pkg/pagination"
)

type movementRequest struct {
	SKU       string `json:"sku" validate:"required,max=100"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
	Reference string `json:"reference" validate:"max=200"`
	Notes     string `json:"notes" validate:"max=2000"`
}

type upsertItemRequest struct {
	SKU         string `json:"sku" validate:"required,max=100"`
	ProductName string `json:"product_name" validate:"required,max=200"`
	MinQty      int    `json:"min_qty" validate:"min=0"`
	UnitCost    string `json:"unit_cost"`
	Location    string `json:"location" validate:"max=100"`
}

type listEnvelope struct {
	Items      any    `json:"items"`
	NextCursor string `json:"next_cursor,omitempty"`
}

func movementInput(r *http.Request, req movementRequest) inventory.MovementInput {
	userName := middleware.DisplayNameFromContext(r.Context())
	if userName == "" {
		userName = middleware.UserIDFromContext(r.Context())
	}
	return inventory.MovementInput{
		SKU:       validators.SanitizeString(req.SKU, 100),
		Quantity:  req.Quantity,
		UserName:  userName,
		Reference: validators.SanitizeString(req.Reference, 200),
		Notes:     validators.SanitizeString(req.Notes, 2000),
	}
}

// ScanIn records received stock.
func ScanIn(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req movementRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ScanIn(r.Context(), movementInput(r, req))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// CheckOut records issued stock, refusing overdrafts.
func CheckOut(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req movementRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.CheckOut(r.Context(), movementInput(r, req))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// GetInventoryItem looks up a single SKU.
func GetInventoryItem(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		item, err := svc.LookupBySKU(r.Context(), chi.URLParam(r, "sku"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

// UpsertInventoryItem creates or updates a catalog row.
func UpsertInventoryItem(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req upsertItemRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		unitCost := decimal.Zero
		if req.UnitCost != "" {
			parsed, err := decimal.NewFromString(req.UnitCost)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid unit cost"))
				return
			}
			unitCost = parsed
		}

		item, err := svc.UpsertItem(r.Context(), inventory.UpsertItemInput{
			SKU:         validators.SanitizeString(req.SKU, 100),
			ProductName: validators.SanitizeString(req.ProductName, 200),
			MinQty:      req.MinQty,
			UnitCost:    unitCost,
			Location:    validators.SanitizeString(req.Location, 100),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

// ListInventoryItems returns the paginated catalog.
func ListInventoryItems(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, next, err := svc.ListItems(r.Context(), inventory.ItemFilter{
			Search: validators.QueryString(r, "search"),
			Cursor: validators.QueryString(r, "cursor"),
			Limit:  limit,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, listEnvelope{Items: items, NextCursor: next})
	}
}

// ListInventoryTransactions returns the paginated movement ledger.
func ListInventoryTransactions(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		txns, next, err := svc.ListTransactions(r.Context(), inventory.TransactionFilter{
			SKU:    validators.QueryString(r, "sku"),
			Type:   enums.MovementType(validators.QueryString(r, "type")),
			Cursor: validators.QueryString(r, "cursor"),
			Limit:  limit,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, listEnvelope{Items: txns, NextCursor: next})
	}
}

// InventorySummary returns stock position aggregates.
func InventorySummary(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summary, err := svc.Summary(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}
