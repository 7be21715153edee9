package seeders

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/markethub/app/models"
	"github.com/shashiranjanraj/markethub/pkg/auth"
)

// DemoPassword is the password of every seeded account.
const DemoPassword = "markethub-demo"

func init() {
	Register("accounts", seedAccounts)
	Register("stores", seedStores)
	Register("products", seedProducts)
}

var demoAccounts = []models.Profile{
	{Base: models.Base{ID: "00000000-0000-4000-8000-000000000001"}, Email: "admin@markethub.local", FullName: "Market Admin", Role: models.RoleAdmin},
	{Base: models.Base{ID: "00000000-0000-4000-8000-000000000002"}, Email: "lamps@markethub.local", FullName: "Lena Lamp", Role: models.RoleVendor},
	{Base: models.Base{ID: "00000000-0000-4000-8000-000000000003"}, Email: "books@markethub.local", FullName: "Boris Book", Role: models.RoleVendor},
	{Base: models.Base{ID: "00000000-0000-4000-8000-000000000004"}, Email: "buyer@markethub.local", FullName: "Bea Buyer", Role: models.RoleBuyer},
}

func seedAccounts(ctx context.Context, db *gorm.DB) error {
	hash, err := auth.HashPassword(DemoPassword)
	if err != nil {
		return err
	}
	for _, a := range demoAccounts {
		a.PasswordHash = hash
		if err := db.WithContext(ctx).Where("email = ?", a.Email).FirstOrCreate(&a).Error; err != nil {
			return err
		}
	}
	return nil
}

func seedStores(ctx context.Context, db *gorm.DB) error {
	stores := []models.VendorProfile{
		{UserID: demoAccounts[1].ID, StoreName: "Lamp House", StoreDescription: "Lighting for desks and dens.", CommissionRate: decimal.NewFromInt(10), Status: models.VendorActive},
		{UserID: demoAccounts[2].ID, StoreName: "Second Chapter", StoreDescription: "Used and rare books.", CommissionRate: decimal.RequireFromString("12.5"), Status: models.VendorPending},
	}
	for _, s := range stores {
		s.TotalSales = decimal.Zero
		if err := db.WithContext(ctx).Where("user_id = ?", s.UserID).FirstOrCreate(&s).Error; err != nil {
			return err
		}
	}
	return nil
}

func seedProducts(ctx context.Context, db *gorm.DB) error {
	lamps, books := demoAccounts[1].ID, demoAccounts[2].ID
	products := []models.Product{
		{Base: models.Base{ID: "00000000-0000-4000-9000-000000000001"}, VendorID: lamps, Name: "Brass Desk Lamp", Description: "Adjustable arm, warm bulb included.", Price: decimal.RequireFromString("49.90"), StockQuantity: 12, Category: "lighting", Status: models.ProductActive},
		{Base: models.Base{ID: "00000000-0000-4000-9000-000000000002"}, VendorID: lamps, Name: "Paper Floor Lamp", Description: "Rice paper shade on an oak stand.", Price: decimal.RequireFromString("89.00"), StockQuantity: 4, Category: "lighting", Status: models.ProductActive},
		{Base: models.Base{ID: "00000000-0000-4000-9000-000000000003"}, VendorID: lamps, Name: "Edison Bulb Pack", Description: "Four filament bulbs.", Price: decimal.RequireFromString("15.00"), Category: "lighting", Status: models.ProductDraft},
		{Base: models.Base{ID: "00000000-0000-4000-9000-000000000004"}, VendorID: books, Name: "Field Guide to Mushrooms", Description: "Second edition, light shelf wear.", Price: decimal.RequireFromString("22.50"), StockQuantity: 1, Category: "books", Status: models.ProductActive},
	}
	for _, p := range products {
		if err := db.WithContext(ctx).FirstOrCreate(&p, "id = ?", p.ID).Error; err != nil {
			return err
		}
	}
	return nil
}
