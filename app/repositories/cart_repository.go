package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/markethub/app/models"
	"github.com/shashiranjanraj/markethub/pkg/orm"
)

// CartRepository handles database operations for CartItem.
type CartRepository struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) *CartRepository {
	return &CartRepository{db: db}
}

func (r *CartRepository) WithTx(tx *gorm.DB) *CartRepository {
	return &CartRepository{db: tx}
}

func (r *CartRepository) query(ctx context.Context) *orm.Query {
	return orm.Use(r.db).WithContext(ctx)
}

// ListByUser returns the buyer's lines in the order they were added, each
// with its product and store.
func (r *CartRepository) ListByUser(ctx context.Context, userID string) ([]models.CartItem, error) {
	var out []models.CartItem
	err := r.query(ctx).
		Preload("Product").
		Preload("Product.Vendor").
		Where("user_id = ?", userID).
		Order("created_at").Order("id").
		Get(&out)
	return out, err
}

// Find returns the buyer's line for productID.
func (r *CartRepository) Find(ctx context.Context, userID, productID string) (models.CartItem, error) {
	var item models.CartItem
	err := r.query(ctx).Where("user_id = ? AND product_id = ?", userID, productID).First(&item)
	return item, err
}

func (r *CartRepository) FindByID(ctx context.Context, userID, id string) (models.CartItem, error) {
	var item models.CartItem
	err := r.query(ctx).Where("user_id = ? AND id = ?", userID, id).First(&item)
	return item, err
}

func (r *CartRepository) Create(ctx context.Context, item *models.CartItem) error {
	return r.query(ctx).Create(item)
}

func (r *CartRepository) SetQuantity(ctx context.Context, id string, qty int) error {
	_, err := r.query(ctx).Model(&models.CartItem{}).Where("id = ?", id).Updates(map[string]any{"quantity": qty})
	return err
}

func (r *CartRepository) Delete(ctx context.Context, id string) error {
	_, err := r.query(ctx).Where("id = ?", id).Delete(&models.CartItem{})
	return err
}

// Clear removes every line of the buyer's cart and reports how many went.
func (r *CartRepository) Clear(ctx context.Context, userID string) (int64, error) {
	return r.query(ctx).Where("user_id = ?", userID).Delete(&models.CartItem{})
}

// DeleteByProduct drops every buyer's line for productID.
func (r *CartRepository) DeleteByProduct(ctx context.Context, productID string) (int64, error) {
	return r.query(ctx).Where("product_id = ?", productID).Delete(&models.CartItem{})
}
