package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/furnistore/furnistore-backend/pkg/enums"
)

// InventoryTransaction is one immutable ledger entry. Rows are only ever
// inserted; the sum of Quantity over a product's entries equals its current
// quantity_on_hand.
type InventoryTransaction struct {
	ID              uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	InventoryID     uuid.UUID             `gorm:"column:inventory_id;type:uuid;not null;index"`
	ProductID       uuid.UUID             `gorm:"column:product_id;type:uuid;not null;index"`
	SupplierID      *uuid.UUID            `gorm:"column:supplier_id;type:uuid"`
	Type            enums.TransactionType `gorm:"column:transaction_type;not null"`
	Quantity        int                   `gorm:"column:quantity;not null"`
	UnitCost        *decimal.Decimal      `gorm:"column:unit_cost;type:numeric(12,2)"`
	TotalCost       *decimal.Decimal      `gorm:"column:total_cost;type:numeric(14,2)"`
	ReferenceNumber *string               `gorm:"column:reference_number"`
	Note            *string               `gorm:"column:note"`
	CreatedBy       *uuid.UUID            `gorm:"column:created_by;type:uuid"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime;index"`
}
