package models

import (
	"time"

	"github.com/google/uuid"
)

// Inventory tracks physical stock per product, one row per product.
// Rows are created lazily by the first movement that touches a product.
type Inventory struct {
	ID               uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	ProductID        uuid.UUID  `gorm:"column:product_id;type:uuid;not null;uniqueIndex"`
	QuantityOnHand   int        `gorm:"column:quantity_on_hand;not null;default:0"`
	QuantityReserved int        `gorm:"column:quantity_reserved;not null;default:0"`
	ReorderLevel     int        `gorm:"column:reorder_level;not null;default:10"`
	ReorderQuantity  int        `gorm:"column:reorder_quantity;not null;default:50"`
	LastRestockDate  *time.Time `gorm:"column:last_restock_date"`
	UpdatedAt        time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName keeps the singular table used by the schema.
func (Inventory) TableName() string {
	return "inventory"
}

// Available returns on-hand minus reserved. Not clamped: a negative value
// means reservations exceed physical stock and is surfaced as-is.
func (i Inventory) Available() int {
	return i.QuantityOnHand - i.QuantityReserved
}

// IsLowStock reports whether available stock has reached the reorder level.
func (i Inventory) IsLowStock() bool {
	return i.Available() <= i.ReorderLevel
}
