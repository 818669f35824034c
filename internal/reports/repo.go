package reports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/furnistore/furnistore-backend/pkg/db/models"
	"github.com/furnistore/furnistore-backend/pkg/enums"
)

// Repository owns the read-only queries behind the report engine.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// OrdersInRange returns non-cancelled orders placed inside [from, to), items
// included so revenue buckets can sum quantities.
func (r *Repository) OrdersInRange(ctx context.Context, from, to time.Time) ([]models.Order, error) {
	var list []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("date_order >= ? AND date_order < ?", from, to).
		Where("status_order <> ?", enums.OrderStatusCancelled).
		Order("date_order ASC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

// FindOrderWithItems loads one order and its item snapshots.
func (r *Repository) FindOrderWithItems(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		First(&order, "id = ?", orderID).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListOrdersWithItems returns orders in [from, to) with items preloaded,
// newest-first. Cancelled orders are included; detail exports show them.
func (r *Repository) ListOrdersWithItems(ctx context.Context, from, to time.Time) ([]models.Order, error) {
	var list []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("date_order >= ? AND date_order < ?", from, to).
		Order("date_order DESC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

// TopProductRow aggregates one product's sales across order items.
type TopProductRow struct {
	ProductID    uuid.UUID       `json:"product_id"`
	Name         string          `json:"name"`
	UnitsSold    int             `json:"units_sold"`
	GrossRevenue decimal.Decimal `json:"gross_revenue"`
}

// TopProducts groups order items by product and ranks by units sold inside
// [from, to). Cancelled orders are excluded from the ranking.
func (r *Repository) TopProducts(ctx context.Context, limit int, from, to time.Time) ([]TopProductRow, error) {
	var rows []TopProductRow
	err := r.db.WithContext(ctx).
		Table("order_items").
		Select("order_items.product_id AS product_id, order_items.name AS name, SUM(order_items.quantity) AS units_sold, SUM(order_items.quantity * order_items.price) AS gross_revenue").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.date_order >= ? AND orders.date_order < ?", from, to).
		Where("orders.status_order <> ?", enums.OrderStatusCancelled).
		Group("order_items.product_id, order_items.name").
		Order("units_sold DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// LowStockRow joins inventory with the product name for alert classification.
type LowStockRow struct {
	models.Inventory
	ProductName string
}

// InventoryWithNames returns every inventory row with its product name.
func (r *Repository) InventoryWithNames(ctx context.Context) ([]LowStockRow, error) {
	var rows []LowStockRow
	err := r.db.WithContext(ctx).
		Table("inventory").
		Select("inventory.*, products.name AS product_name").
		Joins("JOIN products ON products.id = inventory.product_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
