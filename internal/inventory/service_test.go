package inventory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/furnistore/furnistore-backend/internal/catalog"
	"github.com/furnistore/furnistore-backend/pkg/db/models"
	"github.com/furnistore/furnistore-backend/pkg/enums"
	pkgerrors "github.com/furnistore/furnistore-backend/pkg/errors"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:inventory_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Product{},
		&models.Supplier{},
		&models.Inventory{},
		&models.InventoryTransaction{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(NewRepository(db), catalog.NewRepository(db), gormTxRunner{db: db}, nil)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc
}

func seedProduct(t *testing.T, db *gorm.DB, name string) uuid.UUID {
	t.Helper()
	product := models.Product{
		ID:     uuid.New(),
		Name:   name,
		Status: enums.ProductStatusActive,
	}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product.ID
}

func TestApplyMovementCreatesInventoryLazily(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	productID := seedProduct(t, db, "Oak Table")

	cost := decimal.RequireFromString("25.50")
	result, err := svc.ApplyMovement(ctx, MovementInput{
		ProductID: productID,
		Type:      enums.TransactionTypeImport,
		Quantity:  20,
		UnitCost:  &cost,
	})
	if err != nil {
		t.Fatalf("apply import: %v", err)
	}

	if result.Inventory.QuantityOnHand != 20 {
		t.Fatalf("expected on-hand 20, got %d", result.Inventory.QuantityOnHand)
	}
	if result.Inventory.ReorderLevel != 10 || result.Inventory.ReorderQuantity != 50 {
		t.Fatalf("expected default thresholds, got %+v", result.Inventory)
	}
	if result.Inventory.LastRestockDate == nil {
		t.Fatal("expected last restock date to be set on import")
	}
	if result.Transaction.Quantity != 20 {
		t.Fatalf("expected ledger quantity 20, got %d", result.Transaction.Quantity)
	}
	if result.Transaction.TotalCost == nil || !result.Transaction.TotalCost.Equal(decimal.RequireFromString("510.00")) {
		t.Fatalf("unexpected total cost: %v", result.Transaction.TotalCost)
	}
}

func TestApplyMovementSupplierAnnotation(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	productID := seedProduct(t, db, "Pine Desk")

	supplier := models.Supplier{ID: uuid.New(), Name: "Nordic Woods"}
	if err := db.Create(&supplier).Error; err != nil {
		t.Fatalf("seed supplier: %v", err)
	}

	result, err := svc.ApplyMovement(ctx, MovementInput{
		ProductID:  productID,
		Type:       enums.TransactionTypeImport,
		Quantity:   5,
		SupplierID: &supplier.ID,
	})
	if err != nil {
		t.Fatalf("apply import: %v", err)
	}
	if result.Transaction.SupplierID == nil || *result.Transaction.SupplierID != supplier.ID {
		t.Fatalf("expected supplier on ledger entry, got %+v", result.Transaction)
	}

	ghost := uuid.New()
	_, err = svc.ApplyMovement(ctx, MovementInput{
		ProductID:  productID,
		Type:       enums.TransactionTypeImport,
		Quantity:   5,
		SupplierID: &ghost,
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for unknown supplier, got %v", err)
	}

	var item models.Inventory
	if err := db.First(&item, "product_id = ?", productID).Error; err != nil {
		t.Fatalf("load inventory: %v", err)
	}
	if item.QuantityOnHand != 5 {
		t.Fatalf("rejected movement must not change stock, got %d", item.QuantityOnHand)
	}
}

func TestApplyMovementNormalizesSign(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	productID := seedProduct(t, db, "Velvet Sofa")

	if _, err := svc.ApplyMovement(ctx, MovementInput{
		ProductID: productID,
		Type:      enums.TransactionTypeImport,
		Quantity:  10,
	}); err != nil {
		t.Fatalf("seed import: %v", err)
	}

	// Caller sends a positive magnitude for an export; the ledger records it negative.
	result, err := svc.ApplyMovement(ctx, MovementInput{
		ProductID: productID,
		Type:      enums.TransactionTypeExport,
		Quantity:  4,
	})
	if err != nil {
		t.Fatalf("apply export: %v", err)
	}
	if result.Transaction.Quantity != -4 {
		t.Fatalf("expected ledger quantity -4, got %d", result.Transaction.Quantity)
	}
	if result.Inventory.QuantityOnHand != 6 {
		t.Fatalf("expected on-hand 6, got %d", result.Inventory.QuantityOnHand)
	}

	// Negative magnitude on a return deducts the same way.
	result, err = svc.ApplyMovement(ctx, MovementInput{
		ProductID: productID,
		Type:      enums.TransactionTypeReturn,
		Quantity:  -2,
	})
	if err != nil {
		t.Fatalf("apply return: %v", err)
	}
	if result.Transaction.Quantity != -2 {
		t.Fatalf("expected ledger quantity -2, got %d", result.Transaction.Quantity)
	}
	if result.Inventory.QuantityOnHand != 4 {
		t.Fatalf("expected on-hand 4, got %d", result.Inventory.QuantityOnHand)
	}
}

func TestApplyMovementInsufficientStockRollsBack(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	productID := seedProduct(t, db, "Walnut Desk")

	if _, err := svc.ApplyMovement(ctx, MovementInput{
		ProductID: productID,
		Type:      enums.TransactionTypeImport,
		Quantity:  3,
	}); err != nil {
		t.Fatalf("seed import: %v", err)
	}

	_, err := svc.ApplyMovement(ctx, MovementInput{
		ProductID: productID,
		Type:      enums.TransactionTypeExport,
		Quantity:  5,
	})
	if err == nil {
		t.Fatal("expected insufficient stock error")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("unexpected error: %v", err)
	}

	var item models.Inventory
	if err := db.First(&item, "product_id = ?", productID).Error; err != nil {
		t.Fatalf("load inventory: %v", err)
	}
	if item.QuantityOnHand != 3 {
		t.Fatalf("expected on-hand unchanged at 3, got %d", item.QuantityOnHand)
	}

	var ledgerCount int64
	if err := db.Model(&models.InventoryTransaction{}).Where("product_id = ?", productID).Count(&ledgerCount).Error; err != nil {
		t.Fatalf("count ledger: %v", err)
	}
	if ledgerCount != 1 {
		t.Fatalf("expected 1 ledger entry after rejected movement, got %d", ledgerCount)
	}
}

func TestLedgerReconcilesWithOnHand(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	repo := NewRepository(db)
	ctx := context.Background()
	productID := seedProduct(t, db, "Bookshelf")

	movements := []MovementInput{
		{ProductID: productID, Type: enums.TransactionTypeImport, Quantity: 50},
		{ProductID: productID, Type: enums.TransactionTypeExport, Quantity: 12},
		{ProductID: productID, Type: enums.TransactionTypeAdjustment, Quantity: 5},
		{ProductID: productID, Type: enums.TransactionTypeReturn, Quantity: 3},
		{ProductID: productID, Type: enums.TransactionTypeExport, Quantity: 7},
	}
	for i, movement := range movements {
		if _, err := svc.ApplyMovement(ctx, movement); err != nil {
			t.Fatalf("movement %d: %v", i, err)
		}
	}

	item, err := repo.FindByProductID(ctx, productID)
	if err != nil {
		t.Fatalf("load inventory: %v", err)
	}
	sum, err := repo.SumMovements(ctx, productID)
	if err != nil {
		t.Fatalf("sum movements: %v", err)
	}
	if sum != item.QuantityOnHand {
		t.Fatalf("ledger sum %d does not match on-hand %d", sum, item.QuantityOnHand)
	}
	if item.QuantityOnHand != 33 {
		t.Fatalf("expected on-hand 33, got %d", item.QuantityOnHand)
	}
}

func TestApplyMovementUnknownProduct(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)

	_, err := svc.ApplyMovement(context.Background(), MovementInput{
		ProductID: uuid.New(),
		Type:      enums.TransactionTypeImport,
		Quantity:  1,
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestApplyMovementValidation(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	productID := seedProduct(t, db, "Lamp")
	negative := decimal.RequireFromString("-1")

	cases := []struct {
		name  string
		input MovementInput
	}{
		{"missing product", MovementInput{Type: enums.TransactionTypeImport, Quantity: 1}},
		{"bad type", MovementInput{ProductID: productID, Type: "restock", Quantity: 1}},
		{"zero quantity", MovementInput{ProductID: productID, Type: enums.TransactionTypeImport}},
		{"negative cost", MovementInput{ProductID: productID, Type: enums.TransactionTypeImport, Quantity: 1, UnitCost: &negative}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.ApplyMovement(ctx, tc.input)
			if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestUpdateSettingsAndLowStockFlag(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	productID := seedProduct(t, db, "Armchair")

	if _, err := svc.ApplyMovement(ctx, MovementInput{
		ProductID: productID,
		Type:      enums.TransactionTypeImport,
		Quantity:  8,
	}); err != nil {
		t.Fatalf("seed import: %v", err)
	}

	level := 5
	qty := 25
	view, err := svc.UpdateSettings(ctx, SettingsInput{
		ProductID:       productID,
		ReorderLevel:    &level,
		ReorderQuantity: &qty,
	})
	if err != nil {
		t.Fatalf("update settings: %v", err)
	}
	if view.ReorderLevel != 5 || view.ReorderQuantity != 25 {
		t.Fatalf("unexpected settings: %+v", view)
	}
	if view.LowStock {
		t.Fatal("8 on hand with reorder level 5 should not be low stock")
	}

	got, err := svc.GetInventory(ctx, productID)
	if err != nil {
		t.Fatalf("get inventory: %v", err)
	}
	if got.ReorderLevel != 5 {
		t.Fatalf("settings not persisted: %+v", got)
	}
}

func TestHistoryFilters(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	tableID := seedProduct(t, db, "Dining Table")
	chairID := seedProduct(t, db, "Dining Chair")

	seed := []MovementInput{
		{ProductID: tableID, Type: enums.TransactionTypeImport, Quantity: 10},
		{ProductID: tableID, Type: enums.TransactionTypeExport, Quantity: 2},
		{ProductID: chairID, Type: enums.TransactionTypeImport, Quantity: 40},
	}
	for i, movement := range seed {
		if _, err := svc.ApplyMovement(ctx, movement); err != nil {
			t.Fatalf("movement %d: %v", i, err)
		}
	}

	all, err := svc.History(ctx, HistoryInput{})
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(all))
	}

	byProduct, err := svc.History(ctx, HistoryInput{ProductID: &tableID})
	if err != nil {
		t.Fatalf("history by product: %v", err)
	}
	if len(byProduct) != 2 {
		t.Fatalf("expected 2 entries for table, got %d", len(byProduct))
	}
	for _, entry := range byProduct {
		if entry.ProductName != "Dining Table" {
			t.Fatalf("unexpected product name %q", entry.ProductName)
		}
	}

	exportType := string(enums.TransactionTypeExport)
	byType, err := svc.History(ctx, HistoryInput{Type: &exportType})
	if err != nil {
		t.Fatalf("history by type: %v", err)
	}
	if len(byType) != 1 || byType[0].Quantity != -2 {
		t.Fatalf("unexpected export entries: %+v", byType)
	}

	bad := "restock"
	if _, err := svc.History(ctx, HistoryInput{Type: &bad}); err == nil {
		t.Fatal("expected validation error for unknown type")
	}
}

func TestListInventoryLowStockOnly(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	healthyID := seedProduct(t, db, "Wardrobe")
	lowID := seedProduct(t, db, "Nightstand")

	if _, err := svc.ApplyMovement(ctx, MovementInput{ProductID: healthyID, Type: enums.TransactionTypeImport, Quantity: 100}); err != nil {
		t.Fatalf("seed healthy: %v", err)
	}
	if _, err := svc.ApplyMovement(ctx, MovementInput{ProductID: lowID, Type: enums.TransactionTypeImport, Quantity: 4}); err != nil {
		t.Fatalf("seed low: %v", err)
	}

	views, err := svc.ListInventory(ctx, ListInput{LowStockOnly: true})
	if err != nil {
		t.Fatalf("list inventory: %v", err)
	}
	if len(views) != 1 || views[0].ProductID != lowID {
		t.Fatalf("expected only the low product, got %+v", views)
	}
	if !views[0].LowStock {
		t.Fatal("expected low stock flag")
	}
}

func TestDebitForOrderWithinTransaction(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	productID := seedProduct(t, db, "Coffee Table")
	orderID := uuid.New()

	if _, err := svc.ApplyMovement(ctx, MovementInput{ProductID: productID, Type: enums.TransactionTypeImport, Quantity: 10}); err != nil {
		t.Fatalf("seed import: %v", err)
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		return svc.DebitForOrder(ctx, tx, productID, 4, orderID, nil)
	})
	if err != nil {
		t.Fatalf("debit: %v", err)
	}

	var item models.Inventory
	if err := db.First(&item, "product_id = ?", productID).Error; err != nil {
		t.Fatalf("load inventory: %v", err)
	}
	if item.QuantityOnHand != 6 {
		t.Fatalf("expected on-hand 6, got %d", item.QuantityOnHand)
	}

	var txn models.InventoryTransaction
	if err := db.Last(&txn, "product_id = ?", productID).Error; err != nil {
		t.Fatalf("load ledger: %v", err)
	}
	if txn.Quantity != -4 || txn.Type != enums.TransactionTypeExport {
		t.Fatalf("unexpected ledger entry: %+v", txn)
	}
	if txn.ReferenceNumber == nil || *txn.ReferenceNumber != orderID.String() {
		t.Fatalf("expected order reference, got %v", txn.ReferenceNumber)
	}

	// An over-debit rolls back the whole transaction.
	err = db.Transaction(func(tx *gorm.DB) error {
		return svc.DebitForOrder(ctx, tx, productID, 99, orderID, nil)
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	if err := db.First(&item, "product_id = ?", productID).Error; err != nil {
		t.Fatalf("reload inventory: %v", err)
	}
	if item.QuantityOnHand != 6 {
		t.Fatalf("expected on-hand unchanged at 6, got %d", item.QuantityOnHand)
	}
}
