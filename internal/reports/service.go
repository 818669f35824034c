package reports

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/furnistore/furnistore-backend/pkg/db/models"
	"github.com/furnistore/furnistore-backend/pkg/enums"
	pkgerrors "github.com/furnistore/furnistore-backend/pkg/errors"
	"github.com/furnistore/furnistore-backend/pkg/redis"
)

// Service defines the read-only report engine. Reports tolerate slight
// staleness: revenue and top-product payloads may be served from cache.
type Service interface {
	Revenue(ctx context.Context, input RevenueInput) (*RevenueReport, error)
	OrderDetail(ctx context.Context, orderID uuid.UUID) (*OrderDetail, error)
	ListOrders(ctx context.Context, from, to time.Time) ([]OrderDetail, error)
	TopProducts(ctx context.Context, limit int, from, to time.Time) ([]TopProductRow, error)
	LowStockAlerts(ctx context.Context) ([]LowStockAlert, error)
}

type service struct {
	repo  *Repository
	cache *reportCache
}

// NewService builds the report engine. redisClient may be nil; reports then
// always hit the database.
func NewService(repo *Repository, redisClient *redis.Client, cacheTTL time.Duration) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("reports repository required")
	}
	var cache *reportCache
	if redisClient != nil {
		cache = newReportCache(redisClient, cacheTTL)
	}
	return &service{repo: repo, cache: cache}, nil
}

// RevenueInput selects the bucket size and the half-open window [From, To).
type RevenueInput struct {
	Period enums.ReportPeriod
	From   time.Time
	To     time.Time
}

// RevenueBucket is one period's aggregated revenue.
type RevenueBucket struct {
	Key        string          `json:"key"`
	OrderCount int             `json:"order_count"`
	UnitsSold  int             `json:"units_sold"`
	Revenue    decimal.Decimal `json:"revenue"`
}

// RevenueReport is the bucketed revenue for a window.
type RevenueReport struct {
	Period       enums.ReportPeriod `json:"period"`
	From         time.Time          `json:"from"`
	To           time.Time          `json:"to"`
	Buckets      []RevenueBucket    `json:"buckets"`
	TotalOrders  int                `json:"total_orders"`
	TotalUnits   int                `json:"total_units"`
	TotalRevenue decimal.Decimal    `json:"total_revenue"`
}

// Revenue buckets non-cancelled orders by day, month, or year. Bucketing
// happens in Go on the order timestamps so the same query backs every period.
func (s *service) Revenue(ctx context.Context, input RevenueInput) (*RevenueReport, error) {
	if !input.Period.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid report period")
	}
	if input.From.IsZero() || input.To.IsZero() || !input.From.Before(input.To) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "report window must satisfy from < to")
	}

	cacheKey := strings.Join([]string{
		"revenue",
		string(input.Period),
		input.From.UTC().Format(time.RFC3339),
		input.To.UTC().Format(time.RFC3339),
	}, ":")
	var cached RevenueReport
	if s.cache.get(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	orders, err := s.repo.OrdersInRange(ctx, input.From, input.To)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load orders for revenue")
	}

	layout := input.Period.BucketLayout()
	byKey := map[string]*RevenueBucket{}
	total := decimal.Zero
	totalUnits := 0
	for _, order := range orders {
		key := order.DateOrder.UTC().Format(layout)
		bucket, ok := byKey[key]
		if !ok {
			bucket = &RevenueBucket{Key: key, Revenue: decimal.Zero}
			byKey[key] = bucket
		}
		bucket.OrderCount++
		bucket.Revenue = bucket.Revenue.Add(order.TotalOrder)
		total = total.Add(order.TotalOrder)
		for _, item := range order.Items {
			bucket.UnitsSold += item.Quantity
			totalUnits += item.Quantity
		}
	}

	buckets := make([]RevenueBucket, 0, len(byKey))
	for _, bucket := range byKey {
		buckets = append(buckets, *bucket)
	}
	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].Key < buckets[j].Key
	})

	report := RevenueReport{
		Period:       input.Period,
		From:         input.From,
		To:           input.To,
		Buckets:      buckets,
		TotalOrders:  len(orders),
		TotalUnits:   totalUnits,
		TotalRevenue: total,
	}
	s.cache.set(ctx, cacheKey, report)
	return &report, nil
}

// OrderDetailLine is one flattened item of an order export.
type OrderDetailLine struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	Color     *string         `json:"color,omitempty"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// OrderDetail is the denormalized export shape for one order.
type OrderDetail struct {
	OrderID         uuid.UUID           `json:"order_id"`
	UserID          uuid.UUID           `json:"user_id"`
	FullName        string              `json:"full_name"`
	Phone           string              `json:"phone"`
	ShippingAddress string              `json:"shipping_address"`
	DateOrder       time.Time           `json:"date_order"`
	PaymentMethod   string              `json:"payment_method"`
	StatusPayment   enums.PaymentStatus `json:"status_payment"`
	StatusOrder     enums.OrderStatus   `json:"status_order"`
	SubTotal        decimal.Decimal     `json:"sub_total"`
	VAT             decimal.Decimal     `json:"vat"`
	DeliveryFee     decimal.Decimal     `json:"delivery_fee"`
	TotalOrder      decimal.Decimal     `json:"total_order"`
	Lines           []OrderDetailLine   `json:"lines"`
}

func toOrderDetail(order models.Order) OrderDetail {
	detail := OrderDetail{
		OrderID:         order.ID,
		UserID:          order.UserID,
		FullName:        order.FullName,
		Phone:           order.Phone,
		ShippingAddress: strings.Join([]string{order.Address, order.City, order.Country}, ", "),
		DateOrder:       order.DateOrder,
		PaymentMethod:   order.PaymentMethod,
		StatusPayment:   order.StatusPayment,
		StatusOrder:     order.StatusOrder,
		SubTotal:        order.SubTotal,
		VAT:             order.VAT,
		DeliveryFee:     order.DeliveryFee,
		TotalOrder:      order.TotalOrder,
	}
	for _, item := range order.Items {
		detail.Lines = append(detail.Lines, OrderDetailLine{
			ProductID: item.ProductID,
			Name:      item.Name,
			Color:     item.Color,
			Quantity:  item.Quantity,
			Price:     item.Price,
			LineTotal: item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))),
		})
	}
	return detail
}

// OrderDetail flattens one order with per-line totals.
func (s *service) OrderDetail(ctx context.Context, orderID uuid.UUID) (*OrderDetail, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.FindOrderWithItems(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	detail := toOrderDetail(*order)
	return &detail, nil
}

// ListOrders flattens every order in [from, to), newest-first.
func (s *service) ListOrders(ctx context.Context, from, to time.Time) ([]OrderDetail, error) {
	if from.IsZero() || to.IsZero() || !from.Before(to) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "report window must satisfy from < to")
	}
	orders, err := s.repo.ListOrdersWithItems(ctx, from, to)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	details := make([]OrderDetail, 0, len(orders))
	for _, order := range orders {
		details = append(details, toOrderDetail(order))
	}
	return details, nil
}

// TopProducts ranks products by units sold across non-cancelled orders placed
// inside [from, to).
func (s *service) TopProducts(ctx context.Context, limit int, from, to time.Time) ([]TopProductRow, error) {
	if limit <= 0 {
		limit = 10
	}
	if from.IsZero() || to.IsZero() || !from.Before(to) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "report window must satisfy from < to")
	}
	cacheKey := strings.Join([]string{
		"top-products",
		strconv.Itoa(limit),
		from.UTC().Format(time.RFC3339),
		to.UTC().Format(time.RFC3339),
	}, ":")
	var cached []TopProductRow
	if s.cache.get(ctx, cacheKey, &cached) {
		return cached, nil
	}

	rows, err := s.repo.TopProducts(ctx, limit, from, to)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rank products")
	}
	s.cache.set(ctx, cacheKey, rows)
	return rows, nil
}

// LowStockAlert is one inventory row needing attention.
type LowStockAlert struct {
	ProductID       uuid.UUID         `json:"product_id"`
	ProductName     string            `json:"product_name"`
	QuantityOnHand  int               `json:"quantity_on_hand"`
	Reserved        int               `json:"quantity_reserved"`
	Available       int               `json:"available"`
	ReorderLevel    int               `json:"reorder_level"`
	ReorderQuantity int               `json:"reorder_quantity"`
	Status          enums.StockStatus `json:"status"`
}

// LowStockAlerts classifies inventory rows whose available stock has reached
// the reorder level, worst-first. Available is on-hand minus reserved and is
// not clamped: negative values mean reservations exceed physical stock and
// sort to the top.
func (s *service) LowStockAlerts(ctx context.Context) ([]LowStockAlert, error) {
	rows, err := s.repo.InventoryWithNames(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory")
	}

	alerts := make([]LowStockAlert, 0)
	for _, row := range rows {
		available := row.Available()
		var status enums.StockStatus
		switch {
		case available <= 0:
			status = enums.StockStatusOutOfStock
		case available <= row.ReorderLevel:
			status = enums.StockStatusLowStock
		default:
			continue
		}
		alerts = append(alerts, LowStockAlert{
			ProductID:       row.ProductID,
			ProductName:     row.ProductName,
			QuantityOnHand:  row.QuantityOnHand,
			Reserved:        row.QuantityReserved,
			Available:       available,
			ReorderLevel:    row.ReorderLevel,
			ReorderQuantity: row.ReorderQuantity,
			Status:          status,
		})
	}
	sort.Slice(alerts, func(i, j int) bool {
		return alerts[i].Available < alerts[j].Available
	})
	return alerts, nil
}
