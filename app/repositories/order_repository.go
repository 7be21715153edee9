package repositories

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/markethub/app/models"
	"github.com/shashiranjanraj/markethub/pkg/orm"
)

// OrderRepository handles database operations for Order and OrderItem.
type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) WithTx(tx *gorm.DB) *OrderRepository {
	return &OrderRepository{db: tx}
}

func (r *OrderRepository) query(ctx context.Context) *orm.Query {
	return orm.Use(r.db).WithContext(ctx)
}

// withProducts preloads item products including soft-deleted ones.
func withProducts(db *gorm.DB) *gorm.DB { return db.Unscoped() }

// Create inserts the order header and then its items.
func (r *OrderRepository) Create(ctx context.Context, o *models.Order) error {
	items := o.Items
	o.Items = nil
	if err := r.query(ctx).Create(o); err != nil {
		return err
	}
	for i := range items {
		items[i].OrderID = o.ID
	}
	if len(items) > 0 {
		if err := r.query(ctx).Create(&items); err != nil {
			return err
		}
	}
	o.Items = items
	return nil
}

// FindByRequest finds the buyer's order placed under requestID.
func (r *OrderRepository) FindByRequest(ctx context.Context, buyerID, requestID string) (models.Order, error) {
	var o models.Order
	err := r.query(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at").Order("id") }).
		Preload("Items.Product", withProducts).
		Where("buyer_id = ? AND request_id = ?", buyerID, requestID).
		First(&o)
	return o, err
}

// FindWithItems loads an order with its items, their products and the buyer.
func (r *OrderRepository) FindWithItems(ctx context.Context, id string) (models.Order, error) {
	var o models.Order
	err := r.query(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at").Order("id") }).
		Preload("Items.Product", withProducts).
		Preload("Buyer").
		Where("id = ?", id).
		First(&o)
	return o, err
}

func (r *OrderRepository) FindByID(ctx context.Context, id string) (models.Order, error) {
	var o models.Order
	err := r.query(ctx).Where("id = ?", id).First(&o)
	return o, err
}

// ListByBuyer returns the buyer's orders, newest first.
func (r *OrderRepository) ListByBuyer(ctx context.Context, buyerID string) ([]models.Order, error) {
	var out []models.Order
	err := r.query(ctx).
		Preload("Items").
		Preload("Items.Product", withProducts).
		Where("buyer_id = ?", buyerID).
		Order("created_at desc").
		Get(&out)
	return out, err
}

// ListAll returns the newest orders across the marketplace with buyers.
func (r *OrderRepository) ListAll(ctx context.Context, limit int) ([]models.Order, error) {
	var out []models.Order
	err := r.query(ctx).Preload("Buyer").Preload("Items").Order("created_at desc").Limit(limit).Get(&out)
	return out, err
}

func (r *OrderRepository) SetStatus(ctx context.Context, id, status string) (bool, error) {
	n, err := r.query(ctx).Model(&models.Order{}).Where("id = ?", id).Updates(map[string]any{"status": status})
	return n > 0, err
}

// ItemsByVendor returns every line sold by the vendor with its order and
// product, newest first.
func (r *OrderRepository) ItemsByVendor(ctx context.Context, vendorID string) ([]models.OrderItem, error) {
	var out []models.OrderItem
	err := r.query(ctx).
		Preload("Order").
		Preload("Product", withProducts).
		Where("vendor_id = ?", vendorID).
		Order("created_at desc").
		Get(&out)
	return out, err
}

// SalesByVendor sums price*quantity per vendor over orders that were not
// cancelled.
func (r *OrderRepository) SalesByVendor(ctx context.Context) (map[string]decimal.Decimal, error) {
	var rows []struct {
		VendorID string
		Total    decimal.Decimal
	}
	err := r.db.WithContext(ctx).
		Table("order_items").
		Select("order_items.vendor_id AS vendor_id, COALESCE(SUM(order_items.price * order_items.quantity), 0) AS total").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.status <> ?", models.OrderCancelled).
		Group("order_items.vendor_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]decimal.Decimal, len(rows))
	for _, row := range rows {
		out[row.VendorID] = row.Total.Round(2)
	}
	return out, nil
}

// Totals is the marketplace-wide order summary.
type Totals struct {
	Orders     int64
	Revenue    decimal.Decimal
	Commission decimal.Decimal
}

// Totals counts every order and sums order totals and item commissions.
func (r *OrderRepository) Totals(ctx context.Context) (Totals, error) {
	var t Totals
	var orders struct {
		N       int64
		Revenue decimal.Decimal
	}
	err := r.db.WithContext(ctx).Model(&models.Order{}).
		Select("COUNT(*) AS n, COALESCE(SUM(total_amount), 0) AS revenue").
		Scan(&orders).Error
	if err != nil {
		return t, err
	}
	var items struct{ Commission decimal.Decimal }
	err = r.db.WithContext(ctx).Model(&models.OrderItem{}).
		Select("COALESCE(SUM(commission_amount), 0) AS commission").
		Scan(&items).Error
	if err != nil {
		return t, err
	}
	t.Orders = orders.N
	t.Revenue = orders.Revenue.Round(2)
	t.Commission = items.Commission.Round(2)
	return t, nil
}

func (r *OrderRepository) CountByStatus(ctx context.Context, status string) (int64, error) {
	return r.query(ctx).Model(&models.Order{}).Where("status = ?", status).Count()
}
