package models

import "github.com/shopspring/decimal"

const (
	OrderPending    = "pending"
	OrderProcessing = "processing"
	OrderCompleted  = "completed"
	OrderCancelled  = "cancelled"

	PaymentCOD  = "cod"
	PaymentCard = "card"

	PaymentUnpaid = "unpaid"
	PaymentPaid   = "paid"
)

// Order is created once per successful checkout. RequestID is the buyer's
// idempotency key; (buyer_id, request_id) is unique.
type Order struct {
	Base
	BuyerID            string          `gorm:"type:varchar(36);not null;index;uniqueIndex:idx_orders_buyer_request" json:"buyer_id"`
	RequestID          string          `gorm:"type:varchar(64);not null;uniqueIndex:idx_orders_buyer_request" json:"request_id"`
	TotalAmount        decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"total_amount"`
	Status             string          `gorm:"size:16;not null;default:pending;index" json:"status"`
	PaymentMethod      string          `gorm:"size:8;not null" json:"payment_method"`
	PaymentStatus      string          `gorm:"size:8;not null" json:"payment_status"`
	ShippingName       string          `gorm:"size:255;not null" json:"shipping_name"`
	ShippingPhone      string          `gorm:"size:50;not null" json:"shipping_phone"`
	ShippingAddress    string          `gorm:"size:500;not null" json:"shipping_address"`
	ShippingCity       string          `gorm:"size:100;not null" json:"shipping_city"`
	ShippingPostalCode string          `gorm:"size:20;not null" json:"shipping_postal_code"`

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`
	Buyer *Profile    `gorm:"foreignKey:BuyerID" json:"buyer,omitempty"`
}

// OrderItem snapshots price and the commission split at purchase time.
// CommissionAmount + VendorAmount always equals Price * Quantity.
type OrderItem struct {
	Base
	OrderID          string          `gorm:"type:varchar(36);not null;index" json:"order_id"`
	ProductID        string          `gorm:"type:varchar(36);not null;index" json:"product_id"`
	VendorID         string          `gorm:"type:varchar(36);not null;index" json:"vendor_id"`
	Quantity         int             `gorm:"not null" json:"quantity"`
	Price            decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	CommissionRate   decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"commission_rate"`
	CommissionAmount decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"commission_amount"`
	VendorAmount     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"vendor_amount"`

	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Order   *Order   `gorm:"foreignKey:OrderID" json:"order,omitempty"`
}

func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

func ValidOrderStatus(s string) bool {
	switch s {
	case OrderPending, OrderProcessing, OrderCompleted, OrderCancelled:
		return true
	}
	return false
}
