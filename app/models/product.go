package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	ProductDraft      = "draft"
	ProductActive     = "active"
	ProductOutOfStock = "out_of_stock"
)

// Product belongs to one vendor. VendorID is the vendor's Profile id.
type Product struct {
	Base
	VendorID        string          `gorm:"type:varchar(36);not null;index" json:"vendor_id"`
	Name            string          `gorm:"size:255;not null;index" json:"name"`
	Description     string          `gorm:"type:text" json:"description"`
	Price           decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	StockQuantity   int             `gorm:"not null;default:0" json:"stock_quantity"`
	Category        string          `gorm:"size:100;index" json:"category"`
	ImageURL        string          `gorm:"size:1024" json:"image_url"`
	Status          string          `gorm:"size:16;not null;default:draft;index" json:"status"`
	MetaTitle       string          `gorm:"size:255" json:"meta_title"`
	MetaDescription string          `gorm:"size:500" json:"meta_description"`
	MetaImageURL    string          `gorm:"size:1024" json:"meta_image_url"`
	DeletedAt       gorm.DeletedAt  `gorm:"index" json:"-"`

	Vendor *VendorProfile `gorm:"foreignKey:VendorID;references:UserID" json:"vendor,omitempty"`
}

// StoreName is the owning vendor's store name when it was preloaded.
func (p Product) StoreName() string {
	if p.Vendor == nil {
		return ""
	}
	return p.Vendor.StoreName
}
