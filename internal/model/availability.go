package model

// Availability is the display status derived from stock and threshold.
type Availability string

const (
	InStock    Availability = "In stock"
	LowStock   Availability = "Low stock"
	OutOfStock Availability = "Out of stock"
)

// IsLowStock reports stock at or below the threshold. Out of stock products
// are low stock too; Availability decides which label wins.
func (p Product) IsLowStock() bool {
	return p.StockQuantity <= p.ThresholdValue
}

// IsOutOfStock reports an empty (or corrupt, negative) stock.
func (p Product) IsOutOfStock() bool {
	return p.StockQuantity <= 0
}

// Availability classifies the snapshot. Out of stock takes precedence over
// low stock.
func (p Product) Availability() Availability {
	switch {
	case p.IsOutOfStock():
		return OutOfStock
	case p.IsLowStock():
		return LowStock
	default:
		return InStock
	}
}
