package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderItem is a point-in-time snapshot of a purchased product. Name, image,
// color, and price are copied from the request at order creation and are
// deliberately never re-resolved against the live product row, so historical
// orders survive later catalog changes.
type OrderItem struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrderID   uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	Name      string          `gorm:"column:name;not null"`
	Img       *string         `gorm:"column:img"`
	Color     *string         `gorm:"column:color"`
	Quantity  int             `gorm:"column:quantity;not null"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
}
