package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/furnistore/furnistore-backend/internal/catalog"
	"github.com/furnistore/furnistore-backend/internal/inventory"
	"github.com/furnistore/furnistore-backend/internal/orders"
	"github.com/furnistore/furnistore-backend/internal/reports"
	"github.com/furnistore/furnistore-backend/internal/reviews"
	"github.com/furnistore/furnistore-backend/internal/suppliers"
	"github.com/furnistore/furnistore-backend/pkg/config"
	"github.com/furnistore/furnistore-backend/pkg/db/models"
	"github.com/furnistore/furnistore-backend/pkg/enums"
	pkgerrors "github.com/furnistore/furnistore-backend/pkg/errors"
	"github.com/furnistore/furnistore-backend/pkg/types"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type testEnv struct {
	db     *gorm.DB
	router http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := "file:routes_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Product{},
		&models.Supplier{},
		&models.Inventory{},
		&models.InventoryTransaction{},
		&models.Order{},
		&models.OrderItem{},
		&models.Review{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	runner := gormTxRunner{db: db}
	catalogRepo := catalog.NewRepository(db)

	inventoryService, err := inventory.NewService(inventory.NewRepository(db), catalogRepo, runner, nil)
	if err != nil {
		t.Fatalf("inventory service: %v", err)
	}
	ordersService, err := orders.NewService(orders.NewRepository(db), runner, nil, false, nil)
	if err != nil {
		t.Fatalf("orders service: %v", err)
	}
	reviewsService, err := reviews.NewService(reviews.NewRepository(db), catalogRepo, runner, nil)
	if err != nil {
		t.Fatalf("reviews service: %v", err)
	}
	reportsService, err := reports.NewService(reports.NewRepository(db), nil, 0)
	if err != nil {
		t.Fatalf("reports service: %v", err)
	}
	suppliersService, err := suppliers.NewService(suppliers.NewRepository(db), runner)
	if err != nil {
		t.Fatalf("suppliers service: %v", err)
	}

	router := NewRouter(Deps{
		Config:    &config.Config{App: config.AppConfig{Env: config.AppEnvDev}},
		DB:        stubPinger{},
		Inventory: inventoryService,
		Orders:    ordersService,
		Reviews:   reviewsService,
		Reports:   reportsService,
		Suppliers: suppliersService,
	})

	return &testEnv{db: db, router: router}
}

func (e *testEnv) seedProduct(t *testing.T, name string) uuid.UUID {
	t.Helper()
	product := models.Product{ID: uuid.New(), Name: name, Status: enums.ProductStatusActive}
	if err := e.db.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product.ID
}

func (e *testEnv) do(t *testing.T, method, path string, body any, actorID string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if actorID != "" {
		req.Header.Set("X-Actor-Id", actorID)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) types.APIError {
	t.Helper()
	var envelope types.ErrorEnvelope
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	return envelope.Error
}

func TestHealthEndpoints(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	if rec := env.do(t, http.MethodGet, "/health/live", nil, ""); rec.Code != http.StatusOK {
		t.Fatalf("live: expected 200, got %d", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/health/ready", nil, ""); rec.Code != http.StatusOK {
		t.Fatalf("ready: expected 200, got %d", rec.Code)
	}
}

func TestStockMovementRoundTrip(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	productID := env.seedProduct(t, "Oak Table")
	actor := uuid.NewString()

	rec := env.do(t, http.MethodPost, "/api/v1/inventory/movements", map[string]any{
		"product_id":       productID,
		"transaction_type": "import_stock",
		"quantity":         10,
		"unit_cost":        "12.50",
	}, actor)
	if rec.Code != http.StatusCreated {
		t.Fatalf("import: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/inventory/%s", productID), nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get inventory: expected 200, got %d", rec.Code)
	}

	// An export beyond on-hand stock maps to 409 INSUFFICIENT_STOCK.
	rec = env.do(t, http.MethodPost, "/api/v1/inventory/movements", map[string]any{
		"product_id":       productID,
		"transaction_type": "export_stock",
		"quantity":         99,
	}, actor)
	if rec.Code != http.StatusConflict {
		t.Fatalf("over-export: expected 409, got %d", rec.Code)
	}
	if apiErr := decodeError(t, rec); apiErr.Code != string(pkgerrors.CodeInsufficientStock) {
		t.Fatalf("unexpected error code %s", apiErr.Code)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/inventory/transactions?limit=10", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("history: expected 200, got %d", rec.Code)
	}
}

func TestOrderEndpointsRequireActor(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/api/v1/orders", map[string]any{}, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without actor, got %d", rec.Code)
	}
}

func TestOrderLifecycleOverHTTP(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	productID := env.seedProduct(t, "Oak Chair")
	actor := uuid.NewString()

	rec := env.do(t, http.MethodPost, "/api/v1/orders", map[string]any{
		"full_name":      "Ada Buyer",
		"phone":          "555-0100",
		"country":        "US",
		"city":           "Portland",
		"address":        "12 Elm St",
		"payment_method": "cod",
		"sub_total":      "30.00",
		"vat":            "0",
		"delivery_fee":   "0",
		"total_order":    "30.00",
		"items": []map[string]any{
			{"product_id": productID, "name": "Oak Chair", "quantity": 3, "price": "10.00"},
		},
	}, actor)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create order: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var envelope struct {
		Data models.Order `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode order: %v", err)
	}
	orderID := envelope.Data.ID

	rec = env.do(t, http.MethodGet, "/api/v1/orders", nil, actor)
	if rec.Code != http.StatusOK {
		t.Fatalf("list orders: expected 200, got %d", rec.Code)
	}

	// Skipping confirmed is a 422 state conflict.
	rec = env.do(t, http.MethodPatch, fmt.Sprintf("/api/v1/orders/%s/status", orderID),
		map[string]any{"status": "shipping"}, actor)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("skip transition: expected 422, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodPatch, fmt.Sprintf("/api/v1/orders/%s/status", orderID),
		map[string]any{"status": "confirmed"}, actor)
	if rec.Code != http.StatusOK {
		t.Fatalf("confirm: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodPatch, fmt.Sprintf("/api/v1/orders/%s/payment", orderID),
		map[string]any{"status": "paid"}, actor)
	if rec.Code != http.StatusOK {
		t.Fatalf("pay: expected 200, got %d", rec.Code)
	}
}

func TestReviewEndpointsOverHTTP(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	productID := env.seedProduct(t, "Bookshelf")
	actor := uuid.NewString()

	rec := env.do(t, http.MethodPost, "/api/v1/reviews", map[string]any{
		"product_id": productID,
		"star":       5,
	}, actor)
	if rec.Code != http.StatusCreated {
		t.Fatalf("record review: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/products/%s/reviews", productID), nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list reviews: expected 200, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/products/%s/reviews?sort=user_id", productID), nil, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad sort key: expected 400, got %d", rec.Code)
	}
}

func TestReportEndpointsOverHTTP(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	productID := env.seedProduct(t, "Nightstand")

	if err := env.db.Create(&models.Inventory{
		ID:              uuid.New(),
		ProductID:       productID,
		QuantityOnHand:  2,
		ReorderLevel:    10,
		ReorderQuantity: 50,
	}).Error; err != nil {
		t.Fatalf("seed inventory: %v", err)
	}

	rec := env.do(t, http.MethodGet, "/api/v1/reports/low-stock", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("low stock: expected 200, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/reports/revenue?period=daily&from=2026-01-01&to=2026-02-01", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("revenue: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodGet, "/api/v1/reports/revenue?period=hourly", nil, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad period: expected 400, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/reports/top-products", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("top products: expected 200, got %d", rec.Code)
	}
}

func TestSupplierEndpointsOverHTTP(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/suppliers", map[string]any{
		"name": "Nordic Woodworks",
	}, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("create supplier: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodPost, "/api/v1/suppliers", map[string]any{
		"name": "Nordic Woodworks",
	}, "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate supplier: expected 409, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/suppliers?search=Nordic", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list suppliers: expected 200, got %d", rec.Code)
	}
}
