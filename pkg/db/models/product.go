package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/furnistore/furnistore-backend/pkg/enums"
)

// Product represents the canonical catalog listing. The catalog itself is
// owned elsewhere; this core only reads products and nudges sell_count and
// review_avg.
type Product struct {
	ID           uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	Name         string              `gorm:"column:name;not null;index"`
	Img          *string             `gorm:"column:img"`
	Title        *string             `gorm:"column:title"`
	Description  *string             `gorm:"column:description"`
	Status       enums.ProductStatus `gorm:"column:status;not null;default:active"`
	Material     map[string]string   `gorm:"column:material;serializer:json"`
	Size         map[string]string   `gorm:"column:size;serializer:json"`
	RootPrice    decimal.Decimal     `gorm:"column:root_price;type:numeric(12,2);not null;default:0"`
	CurrentPrice decimal.Decimal     `gorm:"column:current_price;type:numeric(12,2);not null;default:0"`
	ReviewAvg    float64             `gorm:"column:review_avg;not null;default:0"`
	SellCount    int                 `gorm:"column:sell_count;not null;default:0"`
	CreatedAt    time.Time           `gorm:"column:created_at;autoCreateTime"`
}
