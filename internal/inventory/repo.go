package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/furnistore/furnistore-backend/pkg/db/models"
	"github.com/furnistore/furnistore-backend/pkg/enums"
)

// Repository wires together stock ledger persistence helpers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindByProductID loads the inventory row for a product.
func (r *Repository) FindByProductID(ctx context.Context, productID uuid.UUID) (*models.Inventory, error) {
	var item models.Inventory
	if err := r.db.WithContext(ctx).First(&item, "product_id = ?", productID).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// Create inserts a fresh inventory row.
func (r *Repository) Create(ctx context.Context, item *models.Inventory) error {
	return r.db.WithContext(ctx).Create(item).Error
}

// AdjustOnHand applies a signed delta to quantity_on_hand, guarded so the
// result cannot go negative. The guard and the write are one statement, so
// two concurrent movements on the same product cannot interleave the
// insufficient-stock check with the update. Returns the number of rows
// changed: zero means the movement would have driven stock negative.
func (r *Repository) AdjustOnHand(ctx context.Context, inventoryID uuid.UUID, delta int, restocked bool) (int64, error) {
	updates := map[string]any{
		"quantity_on_hand": gorm.Expr("quantity_on_hand + ?", delta),
		"updated_at":       time.Now().UTC(),
	}
	if restocked {
		updates["last_restock_date"] = time.Now().UTC()
	}
	res := r.db.WithContext(ctx).
		Model(&models.Inventory{}).
		Where("id = ? AND quantity_on_hand + ? >= 0", inventoryID, delta).
		Updates(updates)
	return res.RowsAffected, res.Error
}

// SupplierExists reports whether the supplier row is present.
func (r *Repository) SupplierExists(ctx context.Context, supplierID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Supplier{}).
		Where("id = ?", supplierID).
		Count(&count).Error
	return count > 0, err
}

// AppendTransaction writes one immutable ledger entry.
func (r *Repository) AppendTransaction(ctx context.Context, txn *models.InventoryTransaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

// UpdateSettings patches reorder thresholds on the inventory row.
func (r *Repository) UpdateSettings(ctx context.Context, inventoryID uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.Inventory{}).
		Where("id = ?", inventoryID).
		Updates(updates).Error
}

// InventoryRow pairs an inventory record with its product's display name.
type InventoryRow struct {
	models.Inventory
	ProductName string
}

// List returns inventory rows joined to their products, optionally filtered
// by a case-insensitive search over product name or id.
func (r *Repository) List(ctx context.Context, search string) ([]InventoryRow, error) {
	qb := r.db.WithContext(ctx).
		Table("inventory").
		Select("inventory.*, products.name AS product_name").
		Joins("JOIN products ON products.id = inventory.product_id")

	if search != "" {
		pattern := "%" + search + "%"
		qb = qb.Where("products.name LIKE ? OR CAST(products.id AS TEXT) LIKE ?", pattern, pattern)
	}

	var rows []InventoryRow
	if err := qb.Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// HistoryFilter narrows the ledger listing.
type HistoryFilter struct {
	ProductID *uuid.UUID
	Type      *enums.TransactionType
	Limit     int
}

// LedgerRow is a ledger entry denormalized with product and supplier names.
type LedgerRow struct {
	models.InventoryTransaction
	ProductName  string
	SupplierName *string
}

// History returns ledger entries newest-first.
func (r *Repository) History(ctx context.Context, filter HistoryFilter) ([]LedgerRow, error) {
	qb := r.db.WithContext(ctx).
		Table("inventory_transactions").
		Select("inventory_transactions.*, products.name AS product_name, suppliers.name AS supplier_name").
		Joins("JOIN products ON products.id = inventory_transactions.product_id").
		Joins("LEFT JOIN suppliers ON suppliers.id = inventory_transactions.supplier_id")

	if filter.ProductID != nil {
		qb = qb.Where("inventory_transactions.product_id = ?", *filter.ProductID)
	}
	if filter.Type != nil {
		qb = qb.Where("inventory_transactions.transaction_type = ?", *filter.Type)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	var rows []LedgerRow
	err := qb.Order("inventory_transactions.created_at DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// SumMovements totals the signed ledger deltas for a product. Used to
// reconcile the ledger against the current on-hand quantity.
func (r *Repository) SumMovements(ctx context.Context, productID uuid.UUID) (int, error) {
	var total *int
	err := r.db.WithContext(ctx).
		Model(&models.InventoryTransaction{}).
		Where("product_id = ?", productID).
		Select("SUM(quantity)").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}
