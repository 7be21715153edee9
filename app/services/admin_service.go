package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/markethub/app/models"
	"github.com/shashiranjanraj/markethub/app/repositories"
	"github.com/shashiranjanraj/markethub/pkg/event"
	"github.com/shashiranjanraj/markethub/pkg/logger"
	"github.com/shashiranjanraj/markethub/pkg/orm"
)

const adminOrdersCap = 200

type VendorStatusInput struct {
	Status string `json:"status" validate:"required,oneof=active suspended"`
}

type CommissionInput struct {
	CommissionRate *decimal.Decimal `json:"commission_rate" validate:"required,gte=0,lte=100"`
}

type OrderStatusInput struct {
	Status string `json:"status" validate:"required"`
}

// VendorStatusChanged is the payload of EventVendorStatusChange.
type VendorStatusChanged struct {
	VendorID string `json:"vendor_id"`
	UserID   string `json:"user_id"`
	From     string `json:"from"`
	To       string `json:"to"`
}

// OrderStatusChanged is the payload of EventOrderStatusChanged.
type OrderStatusChanged struct {
	OrderID string `json:"order_id"`
	BuyerID string `json:"buyer_id"`
	From    string `json:"from"`
	To      string `json:"to"`
}

type Overview struct {
	TotalOrders     int64           `json:"total_orders"`
	TotalRevenue    decimal.Decimal `json:"total_revenue"`
	TotalCommission decimal.Decimal `json:"total_commission"`
	TotalVendors    int64           `json:"total_vendors"`
	PendingVendors  int64           `json:"pending_vendors"`
}

type AdminService struct {
	vendors  *repositories.VendorRepository
	products *repositories.ProductRepository
	orders   *repositories.OrderRepository
}

func NewAdminService(db *gorm.DB) *AdminService {
	return &AdminService{
		vendors:  repositories.NewVendorRepository(db),
		products: repositories.NewProductRepository(db),
		orders:   repositories.NewOrderRepository(db),
	}
}

// ListVendors returns every store with its owner's email and name.
func (s *AdminService) ListVendors(ctx context.Context) ([]models.VendorProfile, error) {
	return s.vendors.List(ctx)
}

// SetVendorStatus approves or suspends a store.
func (s *AdminService) SetVendorStatus(ctx context.Context, id string, in VendorStatusInput) (models.VendorProfile, error) {
	if err := check(in); err != nil {
		return models.VendorProfile{}, err
	}
	v, err := s.vendor(ctx, id)
	if err != nil {
		return models.VendorProfile{}, err
	}
	from := v.Status
	if _, err := s.vendors.Update(ctx, id, map[string]any{"status": in.Status}); err != nil {
		return models.VendorProfile{}, fmt.Errorf("admin: set vendor status: %w", err)
	}
	v.Status = in.Status
	logger.WithCtx(ctx).Info("admin: vendor status changed", "vendor_id", id, "from", from, "to", in.Status)
	event.Fire(ctx, EventVendorStatusChange, VendorStatusChanged{VendorID: v.ID, UserID: v.UserID, From: from, To: in.Status})
	return v, nil
}

// SetCommissionRate sets a store's percentage. It must lie in 0..100.
func (s *AdminService) SetCommissionRate(ctx context.Context, id string, in CommissionInput) (models.VendorProfile, error) {
	if err := check(in); err != nil {
		return models.VendorProfile{}, err
	}
	rate := in.CommissionRate.Round(2)
	if rate.IsNegative() || rate.GreaterThan(hundred) {
		return models.VendorProfile{}, invalid("commission_rate", "The commission rate must be between 0 and 100.")
	}
	v, err := s.vendor(ctx, id)
	if err != nil {
		return models.VendorProfile{}, err
	}
	if _, err := s.vendors.Update(ctx, id, map[string]any{"commission_rate": rate}); err != nil {
		return models.VendorProfile{}, fmt.Errorf("admin: set commission: %w", err)
	}
	logger.WithCtx(ctx).Info("admin: commission changed", "vendor_id", id, "from", v.CommissionRate, "to", rate)
	v.CommissionRate = rate
	return v, nil
}

func (s *AdminService) ListProducts(ctx context.Context) ([]models.Product, error) {
	return s.products.ListAll(ctx, adminProductsCap)
}

func (s *AdminService) ListOrders(ctx context.Context) ([]models.Order, error) {
	return s.orders.ListAll(ctx, adminOrdersCap)
}

// SetOrderStatus moves an order to any known status.
func (s *AdminService) SetOrderStatus(ctx context.Context, id string, in OrderStatusInput) (models.Order, error) {
	if err := check(in); err != nil {
		return models.Order{}, err
	}
	if !models.ValidOrderStatus(in.Status) {
		return models.Order{}, ErrInvalidStatus
	}
	o, err := s.orders.FindByID(ctx, id)
	if errors.Is(err, orm.ErrNotFound) {
		return models.Order{}, ErrNotFound
	}
	if err != nil {
		return models.Order{}, err
	}
	from := o.Status
	if _, err := s.orders.SetStatus(ctx, id, in.Status); err != nil {
		return models.Order{}, fmt.Errorf("admin: set order status: %w", err)
	}
	o.Status = in.Status
	logger.WithCtx(ctx).Info("admin: order status changed", "order_id", id, "from", from, "to", in.Status)
	event.Fire(ctx, EventOrderStatusChanged, OrderStatusChanged{OrderID: o.ID, BuyerID: o.BuyerID, From: from, To: in.Status})
	return o, nil
}

func (s *AdminService) Overview(ctx context.Context) (Overview, error) {
	totals, err := s.orders.Totals(ctx)
	if err != nil {
		return Overview{}, fmt.Errorf("admin: order totals: %w", err)
	}
	vendors, err := s.vendors.Count(ctx)
	if err != nil {
		return Overview{}, fmt.Errorf("admin: count vendors: %w", err)
	}
	pending, err := s.vendors.CountByStatus(ctx, models.VendorPending)
	if err != nil {
		return Overview{}, fmt.Errorf("admin: count pending vendors: %w", err)
	}
	return Overview{
		TotalOrders:     totals.Orders,
		TotalRevenue:    totals.Revenue,
		TotalCommission: totals.Commission,
		TotalVendors:    vendors,
		PendingVendors:  pending,
	}, nil
}

// ReconcileVendorSales recomputes every store's total_sales from order
// items of orders that were not cancelled, and returns how many changed.
func (s *AdminService) ReconcileVendorSales(ctx context.Context) (int, error) {
	sales, err := s.orders.SalesByVendor(ctx)
	if err != nil {
		return 0, fmt.Errorf("reconcile: sum sales: %w", err)
	}
	stores, err := s.vendors.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("reconcile: list stores: %w", err)
	}
	changed := 0
	for _, v := range stores {
		want := sales[v.UserID]
		if v.TotalSales.Equal(want) {
			continue
		}
		if err := s.vendors.SetSales(ctx, v.UserID, want); err != nil {
			return changed, fmt.Errorf("reconcile: update %s: %w", v.ID, err)
		}
		logger.WithCtx(ctx).Info("reconcile: vendor sales corrected", "vendor_id", v.ID, "from", v.TotalSales, "to", want)
		changed++
	}
	return changed, nil
}

func (s *AdminService) vendor(ctx context.Context, id string) (models.VendorProfile, error) {
	v, err := s.vendors.FindByID(ctx, id)
	if errors.Is(err, orm.ErrNotFound) {
		return models.VendorProfile{}, ErrNotFound
	}
	return v, err
}
