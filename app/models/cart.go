package models

// CartItem is one line of a buyer's cart. Quantity is always at least 1;
// a line that drops to zero is deleted.
type CartItem struct {
	Base
	UserID    string `gorm:"type:varchar(36);not null;uniqueIndex:idx_cart_user_product" json:"user_id"`
	ProductID string `gorm:"type:varchar(36);not null;uniqueIndex:idx_cart_user_product" json:"product_id"`
	Quantity  int    `gorm:"not null;default:1" json:"quantity"`

	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}
