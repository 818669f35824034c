package models

import (
	"time"

	"github.com/google/uuid"
)

// Review is a star rating plus free text for a product, optionally tied to
// the order that justified it. review_avg on the product is derived from the
// full set of these rows.
type Review struct {
	ID        uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	ProductID uuid.UUID      `gorm:"column:product_id;type:uuid;not null;index"`
	UserID    uuid.UUID      `gorm:"column:user_id;type:uuid;not null"`
	OrderID   *uuid.UUID     `gorm:"column:order_id;type:uuid"`
	Star      float64        `gorm:"column:star;not null"`
	Message   *string        `gorm:"column:message"`
	Img       []string       `gorm:"column:img;serializer:json"`
	Service   map[string]int `gorm:"column:service;serializer:json"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime;index"`
}
