package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/markethub/app/models"
	"github.com/shashiranjanraj/markethub/app/repositories"
	"github.com/shashiranjanraj/markethub/config"
	"github.com/shashiranjanraj/markethub/pkg/cache"
	"github.com/shashiranjanraj/markethub/pkg/collection"
	"github.com/shashiranjanraj/markethub/pkg/event"
	"github.com/shashiranjanraj/markethub/pkg/logger"
	"github.com/shashiranjanraj/markethub/pkg/metrics"
	"github.com/shashiranjanraj/markethub/pkg/orm"
	"github.com/shashiranjanraj/markethub/pkg/session"
)

// checkoutLock guards one in-flight checkout per buyer and request id.
var checkoutLock = cache.Lock

// Event names fired by the order workflow.
const (
	EventOrderPlaced        = "order.placed"
	EventOrderStatusChanged = "order.status_changed"
	EventVendorStatusChange = "vendor.status_changed"
)

// OrderPlaced is the payload of EventOrderPlaced.
type OrderPlaced struct {
	OrderID   string          `json:"order_id"`
	BuyerID   string          `json:"buyer_id"`
	Total     decimal.Decimal `json:"total_amount"`
	VendorIDs []string        `json:"vendor_ids"`
}

// CheckoutInput is what the buyer submits from the checkout form.
type CheckoutInput struct {
	ShippingName       string `json:"shipping_name"        validate:"notblank,max=255"`
	ShippingPhone      string `json:"shipping_phone"       validate:"notblank,max=50"`
	ShippingAddress    string `json:"shipping_address"     validate:"notblank,max=500"`
	ShippingCity       string `json:"shipping_city"        validate:"notblank,max=100"`
	ShippingPostalCode string `json:"shipping_postal_code" validate:"notblank,max=20"`
	PaymentMethod      string `json:"payment_method"       validate:"required,oneof=cod card"`
	RequestID          string `json:"request_id"           validate:"omitempty,max=64"`
}

func (in *CheckoutInput) normalize() {
	in.ShippingName = strings.TrimSpace(in.ShippingName)
	in.ShippingPhone = strings.TrimSpace(in.ShippingPhone)
	in.ShippingAddress = strings.TrimSpace(in.ShippingAddress)
	in.ShippingCity = strings.TrimSpace(in.ShippingCity)
	in.ShippingPostalCode = strings.TrimSpace(in.ShippingPostalCode)
	in.PaymentMethod = strings.ToLower(strings.TrimSpace(in.PaymentMethod))
	in.RequestID = strings.TrimSpace(in.RequestID)
}

// CheckoutResult is the placed order. Replayed is true when the request id
// matched an order placed earlier and nothing new was written.
type CheckoutResult struct {
	Order    models.Order `json:"order"`
	Replayed bool         `json:"replayed"`
}

type CheckoutService struct {
	db       *gorm.DB
	carts    *repositories.CartRepository
	products *repositories.ProductRepository
	vendors  *repositories.VendorRepository
	orders   *repositories.OrderRepository
}

func NewCheckoutService(db *gorm.DB) *CheckoutService {
	return &CheckoutService{
		db:       db,
		carts:    repositories.NewCartRepository(db),
		products: repositories.NewProductRepository(db),
		vendors:  repositories.NewVendorRepository(db),
		orders:   repositories.NewOrderRepository(db),
	}
}

// Checkout turns the buyer's cart into an order. Everything it writes
// commits together or not at all.
func (s *CheckoutService) Checkout(ctx context.Context, buyerID string, in CheckoutInput) (res *CheckoutResult, err error) {
	start := time.Now()
	log := logger.WithCtx(ctx)
	defer func() {
		if res != nil && !res.Replayed {
			metrics.RecordCheckout("success", start, res.Order.TotalAmount, orderCommission(res.Order))
			return
		}
		label := "replayed"
		if err != nil {
			label = checkoutLabel(err)
		}
		metrics.RecordCheckout(label, start, decimal.Zero, decimal.Zero)
	}()

	in.normalize()
	if err := check(in); err != nil {
		return nil, err
	}

	requestID := in.RequestID
	if requestID != "" {
		key := fmt.Sprintf("checkout:%s:%s", buyerID, requestID)
		ok, lockErr := checkoutLock(ctx, key, config.IdempotencyTTL())
		switch {
		case lockErr != nil:
			// The unique (buyer_id, request_id) index still stops a double order.
			log.Warn("checkout: idempotency lock unavailable", "error", lockErr)
		case !ok:
			return nil, ErrDuplicateRequest
		default:
			defer func() { _ = cache.Unlock(context.WithoutCancel(ctx), key) }()
		}

		if prior, err := s.replay(ctx, buyerID, requestID); prior != nil || err != nil {
			return prior, err
		}
	} else {
		requestID = uuid.NewString()
	}

	var order models.Order
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var txErr error
		order, txErr = s.place(ctx, tx, buyerID, requestID, in)
		return txErr
	})
	if err != nil {
		// A concurrent request with the same id may have won the unique index.
		if in.RequestID != "" && !isDomainError(err) {
			if prior, _ := s.replay(ctx, buyerID, requestID); prior != nil {
				return prior, nil
			}
		}
		return nil, err
	}

	if order.PaymentMethod == models.PaymentCard {
		log.Info("checkout: card payment accepted without a gateway", "order_id", order.ID)
	}
	log.Info("checkout: order placed",
		"order_id", order.ID,
		"buyer_id", buyerID,
		"items", len(order.Items),
		"total", order.TotalAmount,
	)

	vendorIDs := collection.Unique(collection.Map(order.Items, func(i models.OrderItem) string { return i.VendorID }))
	event.Fire(ctx, EventOrderPlaced, OrderPlaced{
		OrderID:   order.ID,
		BuyerID:   buyerID,
		Total:     order.TotalAmount,
		VendorIDs: vendorIDs,
	})
	return &CheckoutResult{Order: order}, nil
}

func (s *CheckoutService) replay(ctx context.Context, buyerID, requestID string) (*CheckoutResult, error) {
	prior, err := s.orders.FindByRequest(ctx, buyerID, requestID)
	if errors.Is(err, orm.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("checkout: look up request: %w", err)
	}
	logger.WithCtx(ctx).Info("checkout: replaying order", "order_id", prior.ID, "request_id", requestID)
	return &CheckoutResult{Order: prior, Replayed: true}, nil
}

// place runs the writes of one checkout on tx.
func (s *CheckoutService) place(ctx context.Context, tx *gorm.DB, buyerID, requestID string, in CheckoutInput) (models.Order, error) {
	carts := s.carts.WithTx(tx)
	products := s.products.WithTx(tx)
	vendors := s.vendors.WithTx(tx)
	orders := s.orders.WithTx(tx)

	lines, err := carts.ListByUser(ctx, buyerID)
	if err != nil {
		return models.Order{}, fmt.Errorf("checkout: load cart: %w", err)
	}
	if len(lines) == 0 {
		return models.Order{}, ErrEmptyCart
	}

	current := make([]models.Product, len(lines))
	for i, line := range lines {
		p, err := products.FindByID(ctx, line.ProductID)
		if errors.Is(err, orm.ErrNotFound) {
			return models.Order{}, ErrProductUnavailable
		}
		if err != nil {
			return models.Order{}, fmt.Errorf("checkout: load product %s: %w", line.ProductID, err)
		}
		if p.Status != models.ProductActive {
			return models.Order{}, ErrProductUnavailable
		}
		current[i] = p
	}

	rates, err := vendors.RatesByUserID(ctx, collection.Unique(collection.Map(current, func(p models.Product) string {
		return p.VendorID
	})))
	if err != nil {
		return models.Order{}, fmt.Errorf("checkout: load commission rates: %w", err)
	}

	items := make([]models.OrderItem, len(lines))
	for i, line := range lines {
		p := current[i]
		rate := rateFor(rates, p.VendorID)
		split := SplitLine(p.Price, line.Quantity, rate)
		items[i] = models.OrderItem{
			ProductID:        p.ID,
			VendorID:         p.VendorID,
			Quantity:         line.Quantity,
			Price:            p.Price,
			CommissionRate:   rate,
			CommissionAmount: split.Commission,
			VendorAmount:     split.Vendor,
		}
	}
	total := collection.SumDecimal(items, models.OrderItem.LineTotal)

	paymentStatus := models.PaymentUnpaid
	if in.PaymentMethod == models.PaymentCard {
		paymentStatus = models.PaymentPaid
	}
	order := models.Order{
		BuyerID:            buyerID,
		RequestID:          requestID,
		TotalAmount:        total,
		Status:             models.OrderPending,
		PaymentMethod:      in.PaymentMethod,
		PaymentStatus:      paymentStatus,
		ShippingName:       in.ShippingName,
		ShippingPhone:      in.ShippingPhone,
		ShippingAddress:    in.ShippingAddress,
		ShippingCity:       in.ShippingCity,
		ShippingPostalCode: in.ShippingPostalCode,
		Items:              items,
	}
	if err := orders.Create(ctx, &order); err != nil {
		return models.Order{}, fmt.Errorf("checkout: create order: %w", err)
	}

	for i, item := range order.Items {
		ok, err := products.DecrementStock(ctx, item.ProductID, item.Quantity)
		if err != nil {
			return models.Order{}, fmt.Errorf("checkout: decrement stock: %w", err)
		}
		if !ok {
			return models.Order{}, ErrInsufficientStock
		}
		if current[i].StockQuantity-item.Quantity <= 0 {
			if err := products.MarkSoldOut(ctx, item.ProductID); err != nil {
				return models.Order{}, fmt.Errorf("checkout: mark sold out: %w", err)
			}
		}
		order.Items[i].Product = &current[i]
	}

	sales, vendorOrder := collection.GroupBy(order.Items, func(i models.OrderItem) string { return i.VendorID })
	for _, vendorID := range vendorOrder {
		if err := vendors.AddSales(ctx, vendorID, collection.SumDecimal(sales[vendorID], models.OrderItem.LineTotal)); err != nil {
			return models.Order{}, fmt.Errorf("checkout: add vendor sales: %w", err)
		}
	}

	if _, err := carts.Clear(ctx, buyerID); err != nil {
		return models.Order{}, fmt.Errorf("checkout: clear cart: %w", err)
	}
	return order, nil
}

// Confirmation returns the order for its buyer or an admin.
func (s *CheckoutService) Confirmation(ctx context.Context, viewer *session.Session, orderID string) (models.Order, error) {
	o, err := s.orders.FindWithItems(ctx, orderID)
	if errors.Is(err, orm.ErrNotFound) {
		return models.Order{}, ErrNotFound
	}
	if err != nil {
		return models.Order{}, err
	}
	if viewer == nil || (o.BuyerID != viewer.UserID && viewer.Role != models.RoleAdmin) {
		return models.Order{}, ErrForbidden
	}
	return o, nil
}

func (s *CheckoutService) ListForBuyer(ctx context.Context, buyerID string) ([]models.Order, error) {
	return s.orders.ListByBuyer(ctx, buyerID)
}

func orderCommission(o models.Order) decimal.Decimal {
	return collection.SumDecimal(o.Items, func(i models.OrderItem) decimal.Decimal { return i.CommissionAmount })
}

func checkoutLabel(err error) string {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		return "invalid"
	case errors.Is(err, ErrEmptyCart):
		return "empty_cart"
	case errors.Is(err, ErrInsufficientStock), errors.Is(err, ErrDuplicateRequest):
		return "conflict"
	case errors.Is(err, ErrProductUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}

func isDomainError(err error) bool {
	return checkoutLabel(err) != "error"
}
