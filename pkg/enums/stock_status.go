package enums

// StockStatus classifies an inventory row in low-stock alerts.
type StockStatus string

const (
	StockStatusOutOfStock StockStatus = "out_of_stock"
	StockStatusLowStock   StockStatus = "low_stock"
)
