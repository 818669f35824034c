package models

import (
	"time"

	"github.com/google/uuid"
)

// Supplier is reference data annotating import/adjustment ledger entries.
type Supplier struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name          string    `gorm:"column:name;not null;uniqueIndex"`
	Email         *string   `gorm:"column:email"`
	Phone         *string   `gorm:"column:phone"`
	Address       *string   `gorm:"column:address"`
	ContactPerson *string   `gorm:"column:contact_person"`
	TaxCode       *string   `gorm:"column:tax_code"`
	BankAccount   *string   `gorm:"column:bank_account"`
	BankName      *string   `gorm:"column:bank_name"`
	Note          *string   `gorm:"column:note"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
