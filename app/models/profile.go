package models

const (
	RoleBuyer  = "buyer"
	RoleVendor = "vendor"
	RoleAdmin  = "admin"
)

// Profile is a signed-up account. Role gates what the account can do.
type Profile struct {
	Base
	Email        string `gorm:"uniqueIndex;size:255;not null" json:"email"`
	FullName     string `gorm:"size:255" json:"full_name"`
	Role         string `gorm:"size:16;not null;default:buyer;index" json:"role"`
	PasswordHash string `gorm:"size:255;not null" json:"-"`
}
