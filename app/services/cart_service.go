package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/markethub/app/models"
	"github.com/shashiranjanraj/markethub/app/repositories"
	"github.com/shashiranjanraj/markethub/pkg/collection"
	"github.com/shashiranjanraj/markethub/pkg/orm"
)

type AddToCartInput struct {
	ProductID string `json:"product_id" validate:"required,max=36"`
	Quantity  int    `json:"quantity"   validate:"omitempty,gte=1,lte=1000"`
}

type SetQuantityInput struct {
	Quantity int `json:"quantity" validate:"lte=1000"`
}

// CartLine is a cart item with the live product it points at.
type CartLine struct {
	ID        string          `json:"id"`
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	ImageURL  string          `json:"image_url"`
	Stock     int             `json:"stock_quantity"`
	Status    string          `json:"status"`
	VendorID  string          `json:"vendor_id"`
	StoreName string          `json:"store_name"`
	LineTotal decimal.Decimal `json:"line_total"`
}

type CartView struct {
	Items    []CartLine      `json:"items"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

type CartService struct {
	db       *gorm.DB
	carts    *repositories.CartRepository
	products *repositories.ProductRepository
}

func NewCartService(db *gorm.DB) *CartService {
	return &CartService{
		db:       db,
		carts:    repositories.NewCartRepository(db),
		products: repositories.NewProductRepository(db),
	}
}

// Add puts qty more of the product in the buyer's cart. The line may never
// hold more than the product has in stock.
func (s *CartService) Add(ctx context.Context, userID string, in AddToCartInput) (models.CartItem, error) {
	if err := check(in); err != nil {
		return models.CartItem{}, err
	}
	qty := in.Quantity
	if qty == 0 {
		qty = 1
	}

	var item models.CartItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		carts := s.carts.WithTx(tx)
		p, err := s.products.WithTx(tx).FindByID(ctx, in.ProductID)
		if errors.Is(err, orm.ErrNotFound) {
			return ErrProductUnavailable
		}
		if err != nil {
			return err
		}
		if p.Status != models.ProductActive || p.StockQuantity <= 0 {
			return ErrProductUnavailable
		}

		existing, err := carts.Find(ctx, userID, p.ID)
		switch {
		case errors.Is(err, orm.ErrNotFound):
			if qty > p.StockQuantity {
				return ErrInsufficientStock
			}
			item = models.CartItem{UserID: userID, ProductID: p.ID, Quantity: qty}
			return carts.Create(ctx, &item)
		case err != nil:
			return err
		}

		next := existing.Quantity + qty
		if next > p.StockQuantity {
			return ErrInsufficientStock
		}
		if err := carts.SetQuantity(ctx, existing.ID, next); err != nil {
			return err
		}
		existing.Quantity = next
		item = existing
		return nil
	})
	if err != nil {
		return models.CartItem{}, wrapUnlessDomain("cart: add", err)
	}
	return item, nil
}

// SetQuantity overwrites a line's quantity. Zero or less removes the line,
// and deleted is true.
func (s *CartService) SetQuantity(ctx context.Context, userID, itemID string, in SetQuantityInput) (item models.CartItem, deleted bool, err error) {
	if err := check(in); err != nil {
		return models.CartItem{}, false, err
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		carts := s.carts.WithTx(tx)
		found, err := carts.FindByID(ctx, userID, itemID)
		if errors.Is(err, orm.ErrNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if in.Quantity <= 0 {
			deleted = true
			return carts.Delete(ctx, found.ID)
		}

		p, err := s.products.WithTx(tx).FindByID(ctx, found.ProductID)
		if errors.Is(err, orm.ErrNotFound) {
			return ErrProductUnavailable
		}
		if err != nil {
			return err
		}
		if p.Status != models.ProductActive {
			return ErrProductUnavailable
		}
		if in.Quantity > p.StockQuantity {
			return ErrInsufficientStock
		}
		if err := carts.SetQuantity(ctx, found.ID, in.Quantity); err != nil {
			return err
		}
		found.Quantity = in.Quantity
		item = found
		return nil
	})
	if err != nil {
		return models.CartItem{}, false, wrapUnlessDomain("cart: set quantity", err)
	}
	return item, deleted, nil
}

// List returns the buyer's cart priced at current product prices. Lines
// whose product was deleted are skipped.
func (s *CartService) List(ctx context.Context, userID string) (CartView, error) {
	rows, err := s.carts.ListByUser(ctx, userID)
	if err != nil {
		return CartView{}, fmt.Errorf("cart: list: %w", err)
	}
	live := collection.Filter(rows, func(c models.CartItem) bool { return c.Product != nil })
	lines := collection.Map(live, func(c models.CartItem) CartLine {
		p := c.Product
		return CartLine{
			ID:        c.ID,
			ProductID: c.ProductID,
			Quantity:  c.Quantity,
			Name:      p.Name,
			Price:     p.Price,
			ImageURL:  p.ImageURL,
			Stock:     p.StockQuantity,
			Status:    p.Status,
			VendorID:  p.VendorID,
			StoreName: p.StoreName(),
			LineTotal: p.Price.Mul(decimal.NewFromInt(int64(c.Quantity))),
		}
	})
	return CartView{
		Items:    lines,
		Subtotal: collection.SumDecimal(lines, func(l CartLine) decimal.Decimal { return l.LineTotal }),
	}, nil
}

func (s *CartService) Clear(ctx context.Context, userID string) error {
	if _, err := s.carts.Clear(ctx, userID); err != nil {
		return fmt.Errorf("cart: clear: %w", err)
	}
	return nil
}

// wrapUnlessDomain leaves sentinel and validation errors as they are so
// callers can still match them, and adds op context to everything else.
func wrapUnlessDomain(op string, err error) error {
	if isDomainError(err) || errors.Is(err, ErrNotFound) || errors.Is(err, ErrForbidden) {
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}
