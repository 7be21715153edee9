package services_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/markethub/app/models"
	"github.com/shashiranjanraj/markethub/pkg/session"
	"github.com/shashiranjanraj/markethub/pkg/testkit"
)

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	return testkit.OpenDB(t, models.All()...)
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func seedProfile(t *testing.T, db *gorm.DB, email, role string) models.Profile {
	t.Helper()
	p := models.Profile{Email: email, FullName: email, Role: role, PasswordHash: "x"}
	require.NoError(t, db.Create(&p).Error)
	return p
}

// seedVendor creates a vendor account with an active store at rate percent.
func seedVendor(t *testing.T, db *gorm.DB, email, rate string) models.Profile {
	t.Helper()
	p := seedProfile(t, db, email, models.RoleVendor)
	store := models.VendorProfile{
		UserID:         p.ID,
		StoreName:      email + " store",
		CommissionRate: dec(rate),
		Status:         models.VendorActive,
		TotalSales:     decimal.Zero,
	}
	require.NoError(t, db.Create(&store).Error)
	return p
}

func seedProduct(t *testing.T, db *gorm.DB, vendorID, name, price string, stock int) models.Product {
	t.Helper()
	p := models.Product{
		VendorID:      vendorID,
		Name:          name,
		Price:         dec(price),
		StockQuantity: stock,
		Category:      "home",
		Status:        models.ProductActive,
	}
	require.NoError(t, db.Create(&p).Error)
	return p
}

func reload[T any](t *testing.T, db *gorm.DB, id string) T {
	t.Helper()
	var v T
	require.NoError(t, db.Unscoped().Where("id = ?", id).First(&v).Error)
	return v
}

func count(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

func sessionFor(p models.Profile) *session.Session {
	return &session.Session{ID: "s-" + p.ID, UserID: p.ID, Role: p.Role}
}

var bg = context.Background()
