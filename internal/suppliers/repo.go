package suppliers

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/furnistore/furnistore-backend/pkg/db/models"
)

// Repository owns supplier persistence.
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

// Create inserts one supplier.
func (r *Repository) Create(ctx context.Context, supplier *models.Supplier) error {
	return r.db.WithContext(ctx).Create(supplier).Error
}

// FindByID loads one supplier.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Supplier, error) {
	var supplier models.Supplier
	if err := r.db.WithContext(ctx).First(&supplier, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &supplier, nil
}

// FindByName loads a supplier by its unique name.
func (r *Repository) FindByName(ctx context.Context, name string) (*models.Supplier, error) {
	var supplier models.Supplier
	if err := r.db.WithContext(ctx).First(&supplier, "name = ?", name).Error; err != nil {
		return nil, err
	}
	return &supplier, nil
}

// List returns suppliers ordered by name, optionally filtered by a
// substring match on name or contact person.
func (r *Repository) List(ctx context.Context, search string) ([]models.Supplier, error) {
	qb := r.db.WithContext(ctx).Model(&models.Supplier{})
	if search != "" {
		pattern := "%" + search + "%"
		qb = qb.Where("name LIKE ? OR contact_person LIKE ?", pattern, pattern)
	}

	var list []models.Supplier
	if err := qb.Order("name ASC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// Update patches supplier fields.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Supplier{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// Delete removes one supplier.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Supplier{}, "id = ?", id).Error
}
