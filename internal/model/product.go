package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a row of the stock ledger. StockQuantity only changes through the
// sale coordinator, a restock or an administrative edit.
type Product struct {
	BaseModel
	Name           string          `gorm:"type:varchar(255);not null;index" json:"name"`
	BuyingPrice    decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"buying_price"`
	SellingPrice   decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"selling_price"`
	StockQuantity  int             `gorm:"not null;default:0;check:chk_products_stock_non_negative,stock_quantity >= 0" json:"stock_quantity"`
	ThresholdValue int             `gorm:"not null" json:"threshold_value"`
	ExpiryDate     *time.Time      `gorm:"type:date" json:"expiry_date,omitempty"`
}

// ProductResponse is a product together with its derived availability.
type ProductResponse struct {
	Product
	Availability Availability `json:"availability"`
	LowStock     bool         `json:"low_stock"`
}

// ToResponse snapshots the product and classifies it.
func (p *Product) ToResponse() ProductResponse {
	return ProductResponse{
		Product:      *p,
		Availability: p.Availability(),
		LowStock:     p.IsLowStock(),
	}
}
