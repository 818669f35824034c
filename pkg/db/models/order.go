package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/furnistore/furnistore-backend/pkg/enums"
)

// Order is a customer purchase. Monetary fields are caller-supplied at
// placement and never recomputed afterwards.
type Order struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	UserID        uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index"`
	FullName      string              `gorm:"column:full_name;not null"`
	Phone         string              `gorm:"column:phone;not null"`
	Country       string              `gorm:"column:country;not null"`
	City          string              `gorm:"column:city;not null"`
	Address       string              `gorm:"column:address;not null"`
	Note          *string             `gorm:"column:note"`
	DateOrder     time.Time           `gorm:"column:date_order;autoCreateTime;index"`
	PaymentMethod string              `gorm:"column:payment_method;not null"`
	StatusPayment enums.PaymentStatus `gorm:"column:status_payment;not null;default:unpaid"`
	SubTotal      decimal.Decimal     `gorm:"column:sub_total;type:numeric(14,2);not null"`
	VAT           decimal.Decimal     `gorm:"column:vat;type:numeric(14,2);not null;default:0"`
	DeliveryFee   decimal.Decimal     `gorm:"column:delivery_fee;type:numeric(14,2);not null;default:0"`
	TotalOrder    decimal.Decimal     `gorm:"column:total_order;type:numeric(14,2);not null"`
	StatusOrder   enums.OrderStatus   `gorm:"column:status_order;not null;default:pending"`
	Items         []OrderItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}
