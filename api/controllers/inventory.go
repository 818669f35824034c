package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/furnistore/furnistore-backend/api/middleware"
	"github.com/furnistore/furnistore-backend/api/responses"
	"github.com/furnistore/furnistore-backend/api/validators"
	internalinventory "github.com/furnistore/furnistore-backend/internal/inventory"
	"github.com/furnistore/furnistore-backend/pkg/enums"
	pkgerrors "github.com/furnistore/furnistore-backend/pkg/errors"
	"github.com/furnistore/furnistore-backend/pkg/logger"
)

type applyMovementRequest struct {
	ProductID       uuid.UUID        `json:"product_id" validate:"required"`
	TransactionType string           `json:"transaction_type" validate:"required"`
	Quantity        int              `json:"quantity" validate:"required"`
	UnitCost        *decimal.Decimal `json:"unit_cost,omitempty"`
	SupplierID      *uuid.UUID       `json:"supplier_id,omitempty"`
	ReferenceNumber *string          `json:"reference_number,omitempty"`
	Note            *string          `json:"note,omitempty"`
}

// ApplyMovement records one stock movement through the ledger.
func ApplyMovement(svc internalinventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req applyMovementRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		transactionType, err := enums.ParseTransactionType(req.TransactionType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "invalid transaction type"))
			return
		}

		input := internalinventory.MovementInput{
			ProductID:       req.ProductID,
			Type:            transactionType,
			Quantity:        req.Quantity,
			UnitCost:        req.UnitCost,
			SupplierID:      req.SupplierID,
			ReferenceNumber: req.ReferenceNumber,
			Note:            req.Note,
		}
		if actorID, ok := middleware.ActorFromContext(r.Context()); ok {
			input.ActorID = &actorID
		}

		result, err := svc.ApplyMovement(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// GetInventory returns the stock state for one product.
func GetInventory(svc internalinventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := uuid.Parse(chi.URLParam(r, "productID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "invalid product id"))
			return
		}
		view, err := svc.GetInventory(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// ListInventory returns stock rows, optionally filtered.
func ListInventory(svc internalinventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		input := internalinventory.ListInput{
			Search:       validators.SanitizeString(r.URL.Query().Get("search"), 100),
			LowStockOnly: strings.EqualFold(r.URL.Query().Get("low_stock"), "true"),
		}
		views, err := svc.ListInventory(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, views)
	}
}

type inventorySettingsRequest struct {
	ReorderLevel    *int `json:"reorder_level,omitempty"`
	ReorderQuantity *int `json:"reorder_quantity,omitempty"`
}

// UpdateInventorySettings patches reorder thresholds.
func UpdateInventorySettings(svc internalinventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := uuid.Parse(chi.URLParam(r, "productID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "invalid product id"))
			return
		}

		var req inventorySettingsRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.UpdateSettings(r.Context(), internalinventory.SettingsInput{
			ProductID:       productID,
			ReorderLevel:    req.ReorderLevel,
			ReorderQuantity: req.ReorderQuantity,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// InventoryHistory lists ledger entries newest-first.
func InventoryHistory(svc internalinventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, 500)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := internalinventory.HistoryInput{Limit: limit}
		productID, err := validators.ParseQueryUUID(r, "product_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if productID != uuid.Nil {
			input.ProductID = &productID
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("type")); raw != "" {
			input.Type = &raw
		}

		entries, err := svc.History(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, entries)
	}
}
