package orders

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/furnistore/furnistore-backend/pkg/db/models"
	"github.com/furnistore/furnistore-backend/pkg/enums"
	pkgerrors "github.com/furnistore/furnistore-backend/pkg/errors"
	"github.com/furnistore/furnistore-backend/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// StockDebiter optionally debits physical stock inside the order transaction.
type StockDebiter interface {
	DebitForOrder(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int, orderID uuid.UUID, actorID *uuid.UUID) error
}

// Service defines order placement and lifecycle operations.
type Service interface {
	PlaceOrder(ctx context.Context, input PlaceOrderInput) (*models.Order, error)
	GetOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) (*models.Order, error)
	UpdatePaymentStatus(ctx context.Context, orderID uuid.UUID, status enums.PaymentStatus) (*models.Order, error)
}

type service struct {
	repo      *Repository
	tx        txRunner
	debiter   StockDebiter
	autoDebit bool
	metrics   *metrics.CoreMetrics
}

// NewService builds an order service. debiter may be nil when stock
// auto-debit is disabled.
func NewService(repo *Repository, tx txRunner, debiter StockDebiter, autoDebit bool, core *metrics.CoreMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if autoDebit && debiter == nil {
		return nil, fmt.Errorf("stock debiter required when auto-debit is enabled")
	}
	return &service{
		repo:      repo,
		tx:        tx,
		debiter:   debiter,
		autoDebit: autoDebit,
		metrics:   core,
	}, nil
}

// PlaceOrderItem is one requested line. Name, image, color, and price are
// snapshotted as supplied.
type PlaceOrderItem struct {
	ProductID uuid.UUID
	Name      string
	Img       *string
	Color     *string
	Quantity  int
	Price     decimal.Decimal
}

// PlaceOrderInput carries everything needed to place an order. Monetary
// totals are caller-supplied and stored as-is.
type PlaceOrderInput struct {
	UserID        uuid.UUID
	FullName      string
	Phone         string
	Country       string
	City          string
	Address       string
	Note          *string
	PaymentMethod string
	SubTotal      decimal.Decimal
	VAT           decimal.Decimal
	DeliveryFee   decimal.Decimal
	TotalOrder    decimal.Decimal
	Items         []PlaceOrderItem
	ActorID       *uuid.UUID
}

func (input PlaceOrderInput) validate() error {
	if input.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if input.FullName == "" || input.Phone == "" || input.Country == "" || input.City == "" || input.Address == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "shipping details incomplete")
	}
	if input.PaymentMethod == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment method required")
	}
	if len(input.Items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "order requires at least one item")
	}
	for _, item := range input.Items {
		if item.ProductID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "item product id required")
		}
		if item.Quantity <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive")
		}
		if item.Price.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, "item price cannot be negative")
		}
	}
	return nil
}

// PlaceOrder commits the order header, its item snapshots, the sell_count
// bumps, and (when enabled) the stock debits in one transaction.
func (s *service) PlaceOrder(ctx context.Context, input PlaceOrderInput) (*models.Order, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	order := models.Order{
		ID:            uuid.New(),
		UserID:        input.UserID,
		FullName:      input.FullName,
		Phone:         input.Phone,
		Country:       input.Country,
		City:          input.City,
		Address:       input.Address,
		Note:          input.Note,
		PaymentMethod: input.PaymentMethod,
		StatusPayment: enums.PaymentStatusUnpaid,
		SubTotal:      input.SubTotal,
		VAT:           input.VAT,
		DeliveryFee:   input.DeliveryFee,
		TotalOrder:    input.TotalOrder,
		StatusOrder:   enums.OrderStatusPending,
	}
	for _, item := range input.Items {
		order.Items = append(order.Items, models.OrderItem{
			ID:        uuid.New(),
			OrderID:   order.ID,
			ProductID: item.ProductID,
			Name:      item.Name,
			Img:       item.Img,
			Color:     item.Color,
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
	}

	// Aggregate per product, then touch products in ascending id order so
	// concurrent orders sharing products never deadlock on row locks.
	perProduct := map[uuid.UUID]int{}
	for _, item := range input.Items {
		perProduct[item.ProductID] += item.Quantity
	}
	productIDs := make([]uuid.UUID, 0, len(perProduct))
	for id := range perProduct {
		productIDs = append(productIDs, id)
	}
	sort.Slice(productIDs, func(i, j int) bool {
		return productIDs[i].String() < productIDs[j].String()
	})

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateOrder(ctx, &order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}

		for _, productID := range productIDs {
			affected, err := repo.IncrementSellCount(ctx, productID, perProduct[productID])
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "increment sell count")
			}
			if affected == 0 {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
					WithDetails(map[string]any{"product_id": productID})
			}
			if s.autoDebit {
				if err := s.debiter.DebitForOrder(ctx, tx, productID, perProduct[productID], order.ID, input.ActorID); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncOrderPlaced()
	return &order, nil
}

// GetOrder loads one order with its item snapshots.
func (s *service) GetOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

// ListByUser returns the user's orders newest-first.
func (s *service) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	list, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return list, nil
}

// UpdateOrderStatus advances the fulfillment state machine.
func (s *service) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) (*models.Order, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}

	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.StatusOrder == status {
			updated = order
			return nil
		}
		if !order.StatusOrder.CanTransitionTo(status) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order status transition disallowed").
				WithDetails(map[string]any{
					"from": order.StatusOrder,
					"to":   status,
				})
		}
		if err := repo.UpdateOrderStatus(ctx, order.ID, status); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		order.StatusOrder = status
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// UpdatePaymentStatus advances the payment state machine.
func (s *service) UpdatePaymentStatus(ctx context.Context, orderID uuid.UUID, status enums.PaymentStatus) (*models.Order, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment status")
	}

	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.StatusPayment == status {
			updated = order
			return nil
		}
		if !order.StatusPayment.CanTransitionTo(status) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "payment status transition disallowed").
				WithDetails(map[string]any{
					"from": order.StatusPayment,
					"to":   status,
				})
		}
		if err := repo.UpdatePaymentStatus(ctx, order.ID, status); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payment status")
		}
		order.StatusPayment = status
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
