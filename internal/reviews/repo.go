package reviews

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/furnistore/furnistore-backend/pkg/db/models"
)

// Sort keys accepted by ListByProduct. Anything else is rejected upstream.
var allowedSortKeys = map[string]string{
	"created_at": "created_at",
	"star":       "star",
}

// Repository owns review persistence and the derived rating on products.
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

// Create inserts one review.
func (r *Repository) Create(ctx context.Context, review *models.Review) error {
	return r.db.WithContext(ctx).Create(review).Error
}

// FindByID loads one review.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	var review models.Review
	if err := r.db.WithContext(ctx).First(&review, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

// Update patches the mutable fields of a review.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Review{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// Delete removes one review.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Review{}, "id = ?", id).Error
}

// RecomputeProductAverage rewrites the product's review_avg from the full
// review set in one statement, so concurrent writers always converge on the
// true arithmetic mean. Products with no reviews go back to zero.
func (r *Repository) RecomputeProductAverage(ctx context.Context, productID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		Update("review_avg", gorm.Expr(
			"COALESCE((SELECT AVG(star) FROM reviews WHERE product_id = ?), 0)",
			productID,
		)).Error
}

// ListByProduct returns a product's reviews ordered by an allow-listed key.
func (r *Repository) ListByProduct(ctx context.Context, productID uuid.UUID, sortKey string, descending bool) ([]models.Review, error) {
	column := allowedSortKeys[sortKey]
	direction := "ASC"
	if descending {
		direction = "DESC"
	}

	var list []models.Review
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order(column + " " + direction).
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

// IsAllowedSortKey reports whether the key can be used to order reviews.
func IsAllowedSortKey(key string) bool {
	_, ok := allowedSortKeys[key]
	return ok
}
