package models

import "github.com/shopspring/decimal"

const (
	VendorPending   = "pending"
	VendorActive    = "active"
	VendorSuspended = "suspended"
)

// VendorProfile is the store attached to a vendor's Profile.
// CommissionRate is a percentage in 0..100.
type VendorProfile struct {
	Base
	UserID           string          `gorm:"uniqueIndex;type:varchar(36);not null" json:"user_id"`
	StoreName        string          `gorm:"size:255;not null" json:"store_name"`
	StoreDescription string          `gorm:"type:text" json:"store_description"`
	CommissionRate   decimal.Decimal `gorm:"type:decimal(5,2);not null;default:10" json:"commission_rate"`
	Status           string          `gorm:"size:16;not null;default:pending;index" json:"status"`
	TotalSales       decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"total_sales"`

	Profile *Profile `gorm:"foreignKey:UserID" json:"profile,omitempty"`
}
