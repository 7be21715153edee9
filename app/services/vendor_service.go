package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/markethub/app/models"
	"github.com/shashiranjanraj/markethub/app/repositories"
	"github.com/shashiranjanraj/markethub/config"
	"github.com/shashiranjanraj/markethub/pkg/collection"
	"github.com/shashiranjanraj/markethub/pkg/logger"
	"github.com/shashiranjanraj/markethub/pkg/orm"
)

type StoreInput struct {
	StoreName        string `json:"store_name"        validate:"notblank,max=255"`
	StoreDescription string `json:"store_description" validate:"max=5000"`
}

// EarningLine is one sold order item as its vendor sees it.
type EarningLine struct {
	ID               string          `json:"id"`
	OrderID          string          `json:"order_id"`
	OrderStatus      string          `json:"order_status"`
	ProductID        string          `json:"product_id"`
	ProductName      string          `json:"product_name"`
	Quantity         int             `json:"quantity"`
	Price            decimal.Decimal `json:"price"`
	CommissionAmount decimal.Decimal `json:"commission_amount"`
	VendorAmount     decimal.Decimal `json:"vendor_amount"`
	CreatedAt        time.Time       `json:"created_at"`
}

type Earnings struct {
	Items       []EarningLine   `json:"items"`
	Revenue     decimal.Decimal `json:"revenue"`
	Commissions decimal.Decimal `json:"commissions"`
	ItemCount   int             `json:"item_count"`
	TotalSales  decimal.Decimal `json:"total_sales"`
}

type VendorService struct {
	vendors *repositories.VendorRepository
	orders  *repositories.OrderRepository
}

func NewVendorService(db *gorm.DB) *VendorService {
	return &VendorService{
		vendors: repositories.NewVendorRepository(db),
		orders:  repositories.NewOrderRepository(db),
	}
}

// SetupStore opens the vendor's store. New stores wait for admin approval
// and start at the default commission rate.
func (s *VendorService) SetupStore(ctx context.Context, userID string, in StoreInput) (models.VendorProfile, error) {
	in.StoreName = strings.TrimSpace(in.StoreName)
	if err := check(in); err != nil {
		return models.VendorProfile{}, err
	}
	_, err := s.vendors.FindByUserID(ctx, userID)
	if err == nil {
		return models.VendorProfile{}, ErrVendorProfileExists
	}
	if !errors.Is(err, orm.ErrNotFound) {
		return models.VendorProfile{}, fmt.Errorf("vendor: look up store: %w", err)
	}
	v := models.VendorProfile{
		UserID:           userID,
		StoreName:        in.StoreName,
		StoreDescription: in.StoreDescription,
		CommissionRate:   config.DefaultCommissionRate(),
		Status:           models.VendorPending,
		TotalSales:       decimal.Zero,
	}
	if err := s.vendors.Create(ctx, &v); err != nil {
		if _, again := s.vendors.FindByUserID(ctx, userID); again == nil {
			return models.VendorProfile{}, ErrVendorProfileExists
		}
		return models.VendorProfile{}, fmt.Errorf("vendor: create store: %w", err)
	}
	logger.WithCtx(ctx).Info("vendor: store created", "vendor_id", v.ID, "user_id", userID)
	return v, nil
}

func (s *VendorService) UpdateStore(ctx context.Context, userID string, in StoreInput) (models.VendorProfile, error) {
	in.StoreName = strings.TrimSpace(in.StoreName)
	if err := check(in); err != nil {
		return models.VendorProfile{}, err
	}
	v, err := s.Store(ctx, userID)
	if err != nil {
		return models.VendorProfile{}, err
	}
	fields := map[string]any{"store_name": in.StoreName, "store_description": in.StoreDescription}
	if _, err := s.vendors.Update(ctx, v.ID, fields); err != nil {
		return models.VendorProfile{}, fmt.Errorf("vendor: update store: %w", err)
	}
	v.StoreName = in.StoreName
	v.StoreDescription = in.StoreDescription
	return v, nil
}

// Store returns the caller's store, or ErrNoVendorProfile.
func (s *VendorService) Store(ctx context.Context, userID string) (models.VendorProfile, error) {
	v, err := s.vendors.FindByUserID(ctx, userID)
	if errors.Is(err, orm.ErrNotFound) {
		return models.VendorProfile{}, ErrNoVendorProfile
	}
	return v, err
}

// Earnings summarises everything the vendor has sold.
func (s *VendorService) Earnings(ctx context.Context, userID string) (Earnings, error) {
	rows, err := s.orders.ItemsByVendor(ctx, userID)
	if err != nil {
		return Earnings{}, fmt.Errorf("vendor: load sales: %w", err)
	}
	out := Earnings{
		Items: collection.Map(rows, func(i models.OrderItem) EarningLine {
			line := EarningLine{
				ID:               i.ID,
				OrderID:          i.OrderID,
				ProductID:        i.ProductID,
				Quantity:         i.Quantity,
				Price:            i.Price,
				CommissionAmount: i.CommissionAmount,
				VendorAmount:     i.VendorAmount,
				CreatedAt:        i.CreatedAt,
			}
			if i.Product != nil {
				line.ProductName = i.Product.Name
			}
			if i.Order != nil {
				line.OrderStatus = i.Order.Status
			}
			return line
		}),
		Revenue:     collection.SumDecimal(rows, func(i models.OrderItem) decimal.Decimal { return i.VendorAmount }),
		Commissions: collection.SumDecimal(rows, func(i models.OrderItem) decimal.Decimal { return i.CommissionAmount }),
		ItemCount:   len(rows),
		TotalSales:  decimal.Zero,
	}
	if v, err := s.vendors.FindByUserID(ctx, userID); err == nil {
		out.TotalSales = v.TotalSales
	} else if !errors.Is(err, orm.ErrNotFound) {
		return Earnings{}, fmt.Errorf("vendor: load store: %w", err)
	}
	return out, nil
}
