// Package migrations registers the markethub schema. Importing it for side
// effects is enough for the migrate commands to see every migration.
package migrations

import (
	"gorm.io/gorm"

	"github.com/shashiranjanraj/markethub/app/models"
	"github.com/shashiranjanraj/markethub/pkg/migration"
	"github.com/shashiranjanraj/markethub/pkg/queue"
)

func init() {
	migration.Register("20260101000000_create_profiles_table", table{&models.Profile{}})
	migration.Register("20260101000100_create_vendor_profiles_table", table{&models.VendorProfile{}})
	migration.Register("20260101000200_create_products_table", table{&models.Product{}})
	migration.Register("20260101000300_create_cart_items_table", table{&models.CartItem{}})
	migration.Register("20260101000400_create_orders_table", table{&models.Order{}})
	migration.Register("20260101000500_create_order_items_table", table{&models.OrderItem{}})
	migration.Register("20260101000600_create_failed_jobs_table", table{&queue.FailedJobRecord{}})
	migration.Register("20260301000000_add_product_stock_check", stockCheck{})
}

// table creates or drops the table behind one model.
type table struct{ model any }

func (t table) Up(db *gorm.DB) error   { return db.AutoMigrate(t.model) }
func (t table) Down(db *gorm.DB) error { return db.Migrator().DropTable(t.model) }

// stockCheck adds a CHECK constraint so no write path can drive stock below
// zero. SQLite cannot add constraints to an existing table; there the
// conditional decrement in the product repository is the only guard.
type stockCheck struct{}

const stockCheckName = "chk_products_stock_non_negative"

func (stockCheck) Up(db *gorm.DB) error {
	if db.Dialector.Name() == "sqlite" {
		return nil
	}
	return db.Exec("ALTER TABLE products ADD CONSTRAINT " + stockCheckName + " CHECK (stock_quantity >= 0)").Error
}

func (stockCheck) Down(db *gorm.DB) error {
	if db.Dialector.Name() == "sqlite" {
		return nil
	}
	return db.Exec("ALTER TABLE products DROP CONSTRAINT " + stockCheckName).Error
}
