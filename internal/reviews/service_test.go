package reviews

import (
	"context"
	"math"
	"testing"

	"github.com/google/uuid"
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
	dsn := "file:reviews_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Product{}, &models.Review{}); err != nil {
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

func productAvg(t *testing.T, db *gorm.DB, productID uuid.UUID) float64 {
	t.Helper()
	var product models.Product
	if err := db.First(&product, "id = ?", productID).Error; err != nil {
		t.Fatalf("load product: %v", err)
	}
	return product.ReviewAvg
}

func TestRatingFollowsWriteSequence(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	productID := seedProduct(t, db, "Loveseat")
	author := uuid.New()

	first, err := svc.Record(ctx, RecordInput{ProductID: productID, UserID: author, Star: 5})
	if err != nil {
		t.Fatalf("record first: %v", err)
	}
	if avg := productAvg(t, db, productID); avg != 5 {
		t.Fatalf("expected avg 5, got %v", avg)
	}

	if _, err := svc.Record(ctx, RecordInput{ProductID: productID, UserID: uuid.New(), Star: 3}); err != nil {
		t.Fatalf("record second: %v", err)
	}
	if avg := productAvg(t, db, productID); avg != 4 {
		t.Fatalf("expected avg 4, got %v", avg)
	}

	// Edit the 5 down to 3: average becomes 3.
	newStar := 3.0
	if _, err := svc.Edit(ctx, EditInput{ReviewID: first.ID, ActorID: author, Star: &newStar}); err != nil {
		t.Fatalf("edit: %v", err)
	}
	if avg := productAvg(t, db, productID); avg != 3 {
		t.Fatalf("expected avg 3 after edit, got %v", avg)
	}

	// Delete one: the remaining 3 stands alone.
	if err := svc.Delete(ctx, first.ID, author); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if avg := productAvg(t, db, productID); avg != 3 {
		t.Fatalf("expected avg 3 after delete, got %v", avg)
	}
}

func TestZeroReviewsMeansZeroAverage(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	productID := seedProduct(t, db, "Futon")
	author := uuid.New()

	review, err := svc.Record(ctx, RecordInput{ProductID: productID, UserID: author, Star: 4})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := svc.Delete(ctx, review.ID, author); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if avg := productAvg(t, db, productID); avg != 0 {
		t.Fatalf("expected avg 0 with no reviews, got %v", avg)
	}
}

func TestAverageIsTrueMean(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	productID := seedProduct(t, db, "Recliner")

	for _, star := range []float64{5, 4, 2} {
		if _, err := svc.Record(ctx, RecordInput{ProductID: productID, UserID: uuid.New(), Star: star}); err != nil {
			t.Fatalf("record %v: %v", star, err)
		}
	}
	want := (5.0 + 4.0 + 2.0) / 3.0
	if avg := productAvg(t, db, productID); math.Abs(avg-want) > 1e-9 {
		t.Fatalf("expected avg %v, got %v", want, avg)
	}
}

func TestStarValidation(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	productID := seedProduct(t, db, "Bean Bag")

	for _, star := range []float64{0, 0.5, 5.5, -1} {
		_, err := svc.Record(ctx, RecordInput{ProductID: productID, UserID: uuid.New(), Star: star})
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("star %v: expected validation error, got %v", star, err)
		}
	}
}

func TestOwnershipEnforced(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	productID := seedProduct(t, db, "Side Table")
	author := uuid.New()
	stranger := uuid.New()

	review, err := svc.Record(ctx, RecordInput{ProductID: productID, UserID: author, Star: 4})
	if err != nil {
		t.Fatalf("record: %v", err)
	}

	star := 1.0
	_, err = svc.Edit(ctx, EditInput{ReviewID: review.ID, ActorID: stranger, Star: &star})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden on edit, got %v", err)
	}

	err = svc.Delete(ctx, review.ID, stranger)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden on delete, got %v", err)
	}

	if avg := productAvg(t, db, productID); avg != 4 {
		t.Fatalf("expected avg untouched at 4, got %v", avg)
	}
}

func TestRecordUnknownProduct(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)

	_, err := svc.Record(context.Background(), RecordInput{ProductID: uuid.New(), UserID: uuid.New(), Star: 4})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListByProductSorting(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	productID := seedProduct(t, db, "Dresser")

	for _, star := range []float64{2, 5, 3} {
		if _, err := svc.Record(ctx, RecordInput{ProductID: productID, UserID: uuid.New(), Star: star}); err != nil {
			t.Fatalf("record %v: %v", star, err)
		}
	}

	byStar, err := svc.ListByProduct(ctx, ListInput{ProductID: productID, SortKey: "star", Descending: true})
	if err != nil {
		t.Fatalf("list by star: %v", err)
	}
	if len(byStar) != 3 || byStar[0].Star != 5 || byStar[2].Star != 2 {
		t.Fatalf("unexpected order: %+v", byStar)
	}

	_, err = svc.ListByProduct(ctx, ListInput{ProductID: productID, SortKey: "user_id"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for unknown sort key, got %v", err)
	}
}
