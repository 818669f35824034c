package enums

import "fmt"

// TransactionType maps to the transaction_type enum in Postgres.
type TransactionType string

const (
	TransactionTypeImport     TransactionType = "import_stock"
	TransactionTypeExport     TransactionType = "export_stock"
	TransactionTypeAdjustment TransactionType = "adjustment"
	TransactionTypeReturn     TransactionType = "return_stock"
)

var validTransactionTypes = []TransactionType{
	TransactionTypeImport,
	TransactionTypeExport,
	TransactionTypeAdjustment,
	TransactionTypeReturn,
}

// IsValid reports whether the value matches the canonical transaction type enum.
func (t TransactionType) IsValid() bool {
	for _, candidate := range validTransactionTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// Deducts reports whether movements of this type remove units from stock.
// Export and return movements always apply as a negative magnitude
// regardless of the sign the caller supplied.
func (t TransactionType) Deducts() bool {
	return t == TransactionTypeExport || t == TransactionTypeReturn
}

// ParseTransactionType converts raw input into TransactionType.
func ParseTransactionType(value string) (TransactionType, error) {
	for _, candidate := range validTransactionTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid transaction type %q", value)
}
