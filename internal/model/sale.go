package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Sale records one product sold. ProductName and UnitPrice are snapshots taken
// under the product row lock so the record survives later catalog edits.
type Sale struct {
	BaseModel
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	Product     *Product        `gorm:"foreignKey:ProductID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	ProductName string          `gorm:"type:varchar(255);not null" json:"product_name"`
	Quantity    int             `gorm:"not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"unit_price"`
	TotalPrice  decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total_price"`
	UserID      *uuid.UUID      `gorm:"type:uuid;index" json:"user_id,omitempty"`
	User        *User           `gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL" json:"user,omitempty"`
	SaleDate    time.Time       `gorm:"not null;index" json:"sale_date"`
}

// LineTotal is quantity × unit price rounded to cents.
func LineTotal(quantity int, unitPrice decimal.Decimal) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity))).Round(2)
}
