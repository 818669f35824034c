package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/furnistore/furnistore-backend/internal/catalog"
	"github.com/furnistore/furnistore-backend/pkg/db/models"
	"github.com/furnistore/furnistore-backend/pkg/enums"
	pkgerrors "github.com/furnistore/furnistore-backend/pkg/errors"
	"github.com/furnistore/furnistore-backend/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines the stock ledger operations.
type Service interface {
	ApplyMovement(ctx context.Context, input MovementInput) (*MovementResult, error)
	GetInventory(ctx context.Context, productID uuid.UUID) (*InventoryView, error)
	ListInventory(ctx context.Context, input ListInput) ([]InventoryView, error)
	UpdateSettings(ctx context.Context, input SettingsInput) (*InventoryView, error)
	History(ctx context.Context, input HistoryInput) ([]LedgerEntry, error)
	DebitForOrder(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int, orderID uuid.UUID, actorID *uuid.UUID) error
}

type service struct {
	repo    *Repository
	catalog *catalog.Repository
	tx      txRunner
	metrics *metrics.CoreMetrics
}

// NewService builds a stock ledger service with the required dependencies.
func NewService(repo *Repository, catalogRepo *catalog.Repository, tx txRunner, core *metrics.CoreMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if catalogRepo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		repo:    repo,
		catalog: catalogRepo,
		tx:      tx,
		metrics: core,
	}, nil
}

// MovementInput is one requested stock movement. Quantity carries magnitude
// only; the effective sign is derived from Type.
type MovementInput struct {
	ProductID       uuid.UUID
	Type            enums.TransactionType
	Quantity        int
	UnitCost        *decimal.Decimal
	SupplierID      *uuid.UUID
	ReferenceNumber *string
	Note            *string
	ActorID         *uuid.UUID
}

// MovementResult reports the ledger entry and the inventory state after it.
type MovementResult struct {
	Transaction models.InventoryTransaction
	Inventory   models.Inventory
}

// ApplyMovement validates, normalizes, and atomically applies one stock
// movement: the inventory update and the ledger append commit together or
// not at all.
func (s *service) ApplyMovement(ctx context.Context, input MovementInput) (*MovementResult, error) {
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid transaction type")
	}
	if input.Quantity == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be non-zero")
	}
	if input.UnitCost != nil && input.UnitCost.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit cost cannot be negative")
	}

	magnitude := input.Quantity
	if magnitude < 0 {
		magnitude = -magnitude
	}
	delta := magnitude
	if input.Type.Deducts() {
		delta = -magnitude
	}

	var result MovementResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if _, err := s.catalog.WithTx(tx).FindByID(ctx, input.ProductID); err != nil {
			return err
		}
		if input.SupplierID != nil {
			exists, err := repo.SupplierExists(ctx, *input.SupplierID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check supplier")
			}
			if !exists {
				return pkgerrors.New(pkgerrors.CodeNotFound, "supplier not found")
			}
		}

		item, err := getOrCreate(ctx, repo, input.ProductID)
		if err != nil {
			return err
		}

		restocked := input.Type == enums.TransactionTypeImport
		affected, err := repo.AdjustOnHand(ctx, item.ID, delta, restocked)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "adjust stock")
		}
		if affected == 0 {
			s.metrics.IncInsufficientStock()
			return pkgerrors.New(pkgerrors.CodeInsufficientStock, "movement would drive stock negative").
				WithDetails(map[string]any{
					"product_id": input.ProductID,
					"on_hand":    item.QuantityOnHand,
					"requested":  magnitude,
				})
		}

		txn := models.InventoryTransaction{
			ID:              uuid.New(),
			InventoryID:     item.ID,
			ProductID:       input.ProductID,
			SupplierID:      input.SupplierID,
			Type:            input.Type,
			Quantity:        delta,
			UnitCost:        input.UnitCost,
			ReferenceNumber: input.ReferenceNumber,
			Note:            input.Note,
			CreatedBy:       input.ActorID,
		}
		if input.UnitCost != nil {
			total := input.UnitCost.Mul(decimal.NewFromInt(int64(magnitude)))
			txn.TotalCost = &total
		}
		if err := repo.AppendTransaction(ctx, &txn); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append ledger entry")
		}

		updated, err := repo.FindByProductID(ctx, input.ProductID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload inventory")
		}

		result.Transaction = txn
		result.Inventory = *updated
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncStockMovement(string(input.Type))
	return &result, nil
}

// getOrCreate returns the product's inventory row, creating it with default
// thresholds on first touch. A concurrent first touch loses the insert on
// the product_id unique index and falls back to the winner's row.
func getOrCreate(ctx context.Context, repo *Repository, productID uuid.UUID) (*models.Inventory, error) {
	item, err := repo.FindByProductID(ctx, productID)
	if err == nil {
		return item, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory")
	}

	fresh := models.Inventory{
		ID:              uuid.New(),
		ProductID:       productID,
		QuantityOnHand:  0,
		ReorderLevel:    10,
		ReorderQuantity: 50,
	}
	if err := repo.Create(ctx, &fresh); err != nil {
		existing, findErr := repo.FindByProductID(ctx, productID)
		if findErr == nil {
			return existing, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create inventory")
	}
	return &fresh, nil
}

// InventoryView is the read shape served to callers.
type InventoryView struct {
	ID              uuid.UUID  `json:"id"`
	ProductID       uuid.UUID  `json:"product_id"`
	ProductName     string     `json:"product_name"`
	QuantityOnHand  int        `json:"quantity_on_hand"`
	Reserved        int        `json:"quantity_reserved"`
	Available       int        `json:"available"`
	ReorderLevel    int        `json:"reorder_level"`
	ReorderQuantity int        `json:"reorder_quantity"`
	LowStock        bool       `json:"low_stock"`
	LastRestockDate *time.Time `json:"last_restock_date,omitempty"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func toView(item models.Inventory, productName string) InventoryView {
	return InventoryView{
		ID:              item.ID,
		ProductID:       item.ProductID,
		ProductName:     productName,
		QuantityOnHand:  item.QuantityOnHand,
		Reserved:        item.QuantityReserved,
		Available:       item.Available(),
		ReorderLevel:    item.ReorderLevel,
		ReorderQuantity: item.ReorderQuantity,
		LowStock:        item.IsLowStock(),
		LastRestockDate: item.LastRestockDate,
		UpdatedAt:       item.UpdatedAt,
	}
}

// GetInventory returns the current state for one product.
func (s *service) GetInventory(ctx context.Context, productID uuid.UUID) (*InventoryView, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	product, err := s.catalog.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	item, err := s.repo.FindByProductID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "inventory not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory")
	}
	view := toView(*item, product.Name)
	return &view, nil
}

// ListInput narrows the inventory listing.
type ListInput struct {
	Search       string
	LowStockOnly bool
}

// ListInventory returns inventory rows with product names attached.
func (s *service) ListInventory(ctx context.Context, input ListInput) ([]InventoryView, error) {
	rows, err := s.repo.List(ctx, input.Search)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list inventory")
	}
	views := make([]InventoryView, 0, len(rows))
	for _, row := range rows {
		if input.LowStockOnly && !row.IsLowStock() {
			continue
		}
		views = append(views, toView(row.Inventory, row.ProductName))
	}
	return views, nil
}

// SettingsInput patches the reorder thresholds for a product.
type SettingsInput struct {
	ProductID       uuid.UUID
	ReorderLevel    *int
	ReorderQuantity *int
}

// UpdateSettings adjusts reorder thresholds without touching stock counts.
func (s *service) UpdateSettings(ctx context.Context, input SettingsInput) (*InventoryView, error) {
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if input.ReorderLevel == nil && input.ReorderQuantity == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no settings provided")
	}
	if input.ReorderLevel != nil && *input.ReorderLevel < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reorder level cannot be negative")
	}
	if input.ReorderQuantity != nil && *input.ReorderQuantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reorder quantity must be positive")
	}

	product, err := s.catalog.FindByID(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}

	var view InventoryView
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		item, err := getOrCreate(ctx, repo, input.ProductID)
		if err != nil {
			return err
		}

		updates := map[string]any{}
		if input.ReorderLevel != nil {
			updates["reorder_level"] = *input.ReorderLevel
			item.ReorderLevel = *input.ReorderLevel
		}
		if input.ReorderQuantity != nil {
			updates["reorder_quantity"] = *input.ReorderQuantity
			item.ReorderQuantity = *input.ReorderQuantity
		}
		if err := repo.UpdateSettings(ctx, item.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update inventory settings")
		}

		view = toView(*item, product.Name)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// HistoryInput narrows the ledger listing.
type HistoryInput struct {
	ProductID *uuid.UUID
	Type      *string
	Limit     int
}

// LedgerEntry is the read shape for one ledger row.
type LedgerEntry struct {
	ID              uuid.UUID             `json:"id"`
	ProductID       uuid.UUID             `json:"product_id"`
	ProductName     string                `json:"product_name"`
	SupplierID      *uuid.UUID            `json:"supplier_id,omitempty"`
	SupplierName    *string               `json:"supplier_name,omitempty"`
	Type            enums.TransactionType `json:"transaction_type"`
	Quantity        int                   `json:"quantity"`
	UnitCost        *decimal.Decimal      `json:"unit_cost,omitempty"`
	TotalCost       *decimal.Decimal      `json:"total_cost,omitempty"`
	ReferenceNumber *string               `json:"reference_number,omitempty"`
	Note            *string               `json:"note,omitempty"`
	CreatedBy       *uuid.UUID            `json:"created_by,omitempty"`
	CreatedAt       time.Time             `json:"created_at"`
}

// History lists ledger entries newest-first, optionally filtered by product
// and transaction type.
func (s *service) History(ctx context.Context, input HistoryInput) ([]LedgerEntry, error) {
	filter := HistoryFilter{Limit: input.Limit}
	if input.ProductID != nil {
		filter.ProductID = input.ProductID
	}
	if input.Type != nil && *input.Type != "" {
		parsed, err := enums.ParseTransactionType(*input.Type)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid transaction type")
		}
		filter.Type = &parsed
	}

	rows, err := s.repo.History(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list ledger entries")
	}

	entries := make([]LedgerEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, LedgerEntry{
			ID:              row.ID,
			ProductID:       row.ProductID,
			ProductName:     row.ProductName,
			SupplierID:      row.SupplierID,
			SupplierName:    row.SupplierName,
			Type:            row.Type,
			Quantity:        row.Quantity,
			UnitCost:        row.UnitCost,
			TotalCost:       row.TotalCost,
			ReferenceNumber: row.ReferenceNumber,
			Note:            row.Note,
			CreatedBy:       row.CreatedBy,
			CreatedAt:       row.CreatedAt,
		})
	}
	return entries, nil
}

// DebitForOrder applies an export movement for one order line inside the
// caller's transaction, so the debit commits or rolls back with the order.
func (s *service) DebitForOrder(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int, orderID uuid.UUID, actorID *uuid.UUID) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "debit quantity must be positive")
	}
	repo := s.repo.WithTx(tx)

	item, err := getOrCreate(ctx, repo, productID)
	if err != nil {
		return err
	}

	affected, err := repo.AdjustOnHand(ctx, item.ID, -qty, false)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "debit stock")
	}
	if affected == 0 {
		s.metrics.IncInsufficientStock()
		return pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock for order").
			WithDetails(map[string]any{
				"product_id": productID,
				"on_hand":    item.QuantityOnHand,
				"requested":  qty,
			})
	}

	ref := orderID.String()
	txn := models.InventoryTransaction{
		ID:              uuid.New(),
		InventoryID:     item.ID,
		ProductID:       productID,
		Type:            enums.TransactionTypeExport,
		Quantity:        -qty,
		ReferenceNumber: &ref,
		CreatedBy:       actorID,
	}
	if err := repo.AppendTransaction(ctx, &txn); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append ledger entry")
	}

	s.metrics.IncStockMovement(string(enums.TransactionTypeExport))
	return nil
}
