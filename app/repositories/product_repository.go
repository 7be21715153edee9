package repositories

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/markethub/app/models"
	"github.com/shashiranjanraj/markethub/pkg/collection"
	"github.com/shashiranjanraj/markethub/pkg/orm"
)

// ProductRepository handles database operations for Product.
type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) WithTx(tx *gorm.DB) *ProductRepository {
	return &ProductRepository{db: tx}
}

func (r *ProductRepository) query(ctx context.Context) *orm.Query {
	return orm.Use(r.db).WithContext(ctx)
}

// ProductFilter narrows the public listing.
type ProductFilter struct {
	Search   string
	Category string
	Page     int
	PerPage  int
}

// ListActive returns one page of active products, newest first, with the
// owning store preloaded. Search matches name and description.
func (r *ProductRepository) ListActive(ctx context.Context, f ProductFilter) ([]models.Product, orm.Pagination, error) {
	q := r.query(ctx).Model(&models.Product{}).Where("status = ?", models.ProductActive)
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("(LOWER(name) LIKE ? OR LOWER(description) LIKE ?)", like, like)
	}
	if c := strings.TrimSpace(f.Category); c != "" {
		q = q.Where("category = ?", c)
	}
	var out []models.Product
	p, err := q.Order("created_at desc").Order("id").Paginate(f.Page, f.PerPage, &out)
	if err != nil {
		return nil, p, err
	}
	return out, p, r.attachVendors(ctx, out)
}

// attachVendors fills Vendor on each product with one extra query; the
// paginated count cannot carry a preload.
func (r *ProductRepository) attachVendors(ctx context.Context, products []models.Product) error {
	ids := collection.Unique(collection.Map(products, func(p models.Product) string { return p.VendorID }))
	if len(ids) == 0 {
		return nil
	}
	var vendors []models.VendorProfile
	if err := r.query(ctx).Where("user_id IN ?", ids).Get(&vendors); err != nil {
		return err
	}
	byUser := collection.KeyBy(vendors, func(v models.VendorProfile) string { return v.UserID })
	for i := range products {
		if v, ok := byUser[products[i].VendorID]; ok {
			products[i].Vendor = &v
		}
	}
	return nil
}

// Categories lists the distinct non-empty categories of active products.
func (r *ProductRepository) Categories(ctx context.Context) ([]string, error) {
	var out []string
	err := r.query(ctx).Model(&models.Product{}).
		Where("status = ? AND category <> ''", models.ProductActive).
		Gorm().Distinct("category").Order("category").Pluck("category", &out).Error
	return out, err
}

// FindByID loads a live product with its store.
func (r *ProductRepository) FindByID(ctx context.Context, id string) (models.Product, error) {
	var p models.Product
	err := r.query(ctx).Preload("Vendor").Where("id = ?", id).First(&p)
	return p, err
}

func (r *ProductRepository) ListByVendor(ctx context.Context, vendorID string) ([]models.Product, error) {
	var out []models.Product
	err := r.query(ctx).Where("vendor_id = ?", vendorID).Order("created_at desc").Get(&out)
	return out, err
}

// ListAll returns the newest products of every vendor and status.
func (r *ProductRepository) ListAll(ctx context.Context, limit int) ([]models.Product, error) {
	var out []models.Product
	err := r.query(ctx).Preload("Vendor").Order("created_at desc").Limit(limit).Get(&out)
	return out, err
}

func (r *ProductRepository) Create(ctx context.Context, p *models.Product) error {
	return r.query(ctx).Create(p)
}

func (r *ProductRepository) Save(ctx context.Context, p *models.Product) error {
	return r.query(ctx).Save(p)
}

// Delete soft-deletes the product so order history keeps its name.
func (r *ProductRepository) Delete(ctx context.Context, id string) (bool, error) {
	n, err := r.query(ctx).Where("id = ?", id).Delete(&models.Product{})
	return n > 0, err
}

// DecrementStock takes qty units from the product only if that many are
// left. It reports false when the guard failed and nothing changed.
func (r *ProductRepository) DecrementStock(ctx context.Context, id string, qty int) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ? AND stock_quantity >= ?", id, qty).
		UpdateColumn("stock_quantity", gorm.Expr("stock_quantity - ?", qty))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// MarkSoldOut flips the product to out_of_stock once its stock is zero.
func (r *ProductRepository) MarkSoldOut(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ? AND stock_quantity = 0", id).
		UpdateColumn("status", models.ProductOutOfStock).Error
}

func (r *ProductRepository) CountByStatus(ctx context.Context, status string) (int64, error) {
	return r.query(ctx).Model(&models.Product{}).Where("status = ?", status).Count()
}
