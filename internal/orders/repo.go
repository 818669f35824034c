package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/furnistore/furnistore-backend/pkg/db/models"
	"github.com/furnistore/furnistore-backend/pkg/enums"
)

// Repository owns order persistence.
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

// CreateOrder inserts the order header together with its item snapshots.
func (r *Repository) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

// FindByID loads one order with its items.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListByUser returns a user's orders newest-first, items included.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	var list []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", userID).
		Order("date_order DESC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

// IncrementSellCount bumps a product's sell_count by qty. Zero rows affected
// means the product does not exist.
func (r *Repository) IncrementSellCount(ctx context.Context, productID uuid.UUID, qty int) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		Update("sell_count", gorm.Expr("sell_count + ?", qty))
	return res.RowsAffected, res.Error
}

// UpdateOrderStatus writes the fulfillment status.
func (r *Repository) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Update("status_order", status).Error
}

// UpdatePaymentStatus writes the payment status.
func (r *Repository) UpdatePaymentStatus(ctx context.Context, orderID uuid.UUID, status enums.PaymentStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Update("status_payment", status).Error
}
