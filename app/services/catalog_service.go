package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/markethub/app/models"
	"github.com/shashiranjanraj/markethub/app/repositories"
	"github.com/shashiranjanraj/markethub/config"
	"github.com/shashiranjanraj/markethub/pkg/cache"
	"github.com/shashiranjanraj/markethub/pkg/collection"
	"github.com/shashiranjanraj/markethub/pkg/logger"
	"github.com/shashiranjanraj/markethub/pkg/orm"
	"github.com/shashiranjanraj/markethub/pkg/session"
	"github.com/shashiranjanraj/markethub/pkg/storage"
)

const (
	categoriesKey    = "catalog:categories"
	metaDescLimit    = 155
	MaxImageBytes    = 5 << 20
	adminProductsCap = 50
)

var imageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

// ProductInput is the vendor's product form. Meta fields left blank are
// generated from the product; a blank image_url keeps the current image.
type ProductInput struct {
	Name            string          `json:"name"             validate:"notblank,max=255"`
	Description     string          `json:"description"      validate:"max=5000"`
	Price           decimal.Decimal `json:"price"            validate:"gt=0"`
	StockQuantity   int             `json:"stock_quantity"   validate:"gte=0"`
	Category        string          `json:"category"         validate:"max=100"`
	ImageURL        string          `json:"image_url"        validate:"omitempty,url,max=1024"`
	Status          string          `json:"status"           validate:"omitempty,oneof=draft active out_of_stock"`
	MetaTitle       string          `json:"meta_title"       validate:"max=255"`
	MetaDescription string          `json:"meta_description" validate:"max=500"`
	MetaImageURL    string          `json:"meta_image_url"   validate:"omitempty,url,max=1024"`
}

// ProductFilter is the public listing query.
type ProductFilter = repositories.ProductFilter

// Meta is the SEO block of a product page.
type Meta struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

// ProductView is a product as the storefront shows it.
type ProductView struct {
	models.Product
	StoreName     string `json:"store_name"`
	Slug          string `json:"slug"`
	CanonicalPath string `json:"canonical_path"`
	Meta          Meta   `json:"meta"`
}

func NewProductView(p models.Product) ProductView {
	v := ProductView{
		Product:   p,
		StoreName: p.StoreName(),
		Slug:      Slugify(p.Name),
	}
	v.CanonicalPath = "/product/" + p.ID
	if v.Slug != "" {
		v.CanonicalPath += "/" + v.Slug
	}
	v.Meta = Meta{
		Title:       firstNonEmpty(p.MetaTitle, p.Name),
		Description: firstNonEmpty(p.MetaDescription, p.Description),
		Image:       firstNonEmpty(p.MetaImageURL, p.ImageURL),
	}
	// The store's sales figures stay out of public responses.
	v.Product.Vendor = nil
	return v
}

type CatalogService struct {
	db       *gorm.DB
	products *repositories.ProductRepository
	carts    *repositories.CartRepository
	vendors  *repositories.VendorRepository
	disk     func() (storage.Disk, error)
}

func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{
		db:       db,
		products: repositories.NewProductRepository(db),
		carts:    repositories.NewCartRepository(db),
		vendors:  repositories.NewVendorRepository(db),
		disk:     storage.Default,
	}
}

// WithDisk replaces the storage disk used for product images.
func (s *CatalogService) WithDisk(d storage.Disk) *CatalogService {
	s.disk = func() (storage.Disk, error) { return d, nil }
	return s
}

// ListActive returns one page of the public catalog.
func (s *CatalogService) ListActive(ctx context.Context, f ProductFilter) ([]ProductView, orm.Pagination, error) {
	f.Category = strings.TrimSpace(f.Category)
	if strings.EqualFold(f.Category, "all") {
		f.Category = ""
	}
	rows, page, err := s.products.ListActive(ctx, f)
	if err != nil {
		return nil, page, fmt.Errorf("catalog: list: %w", err)
	}
	return collection.Map(rows, NewProductView), page, nil
}

// Categories lists the categories in use by active products.
func (s *CatalogService) Categories(ctx context.Context) ([]string, error) {
	return cache.Remember(ctx, categoriesKey, config.CatalogCacheTTL(), func() ([]string, error) {
		out, err := s.products.Categories(ctx)
		if out == nil {
			out = []string{}
		}
		return out, err
	})
}

// Get returns a product page. Products that are not active are shown only
// to their vendor and to admins.
func (s *CatalogService) Get(ctx context.Context, viewer *session.Session, id string) (ProductView, error) {
	p, err := s.products.FindByID(ctx, id)
	if errors.Is(err, orm.ErrNotFound) {
		return ProductView{}, ErrNotFound
	}
	if err != nil {
		return ProductView{}, fmt.Errorf("catalog: get: %w", err)
	}
	if p.Status != models.ProductActive && !canManage(viewer, p) {
		return ProductView{}, ErrNotFound
	}
	return NewProductView(p), nil
}

// VendorProducts lists every product of the vendor, newest first.
func (s *CatalogService) VendorProducts(ctx context.Context, vendorID string) ([]models.Product, error) {
	return s.products.ListByVendor(ctx, vendorID)
}

// Create adds a product to the vendor's catalog. The vendor needs a store.
func (s *CatalogService) Create(ctx context.Context, vendorID string, in ProductInput) (models.Product, error) {
	store, err := s.vendors.FindByUserID(ctx, vendorID)
	if errors.Is(err, orm.ErrNotFound) {
		return models.Product{}, ErrNoVendorProfile
	}
	if err != nil {
		return models.Product{}, fmt.Errorf("catalog: load store: %w", err)
	}
	p := models.Product{VendorID: vendorID}
	if err := apply(&p, in, store.StoreName); err != nil {
		return models.Product{}, err
	}
	if err := s.products.Create(ctx, &p); err != nil {
		return models.Product{}, fmt.Errorf("catalog: create: %w", err)
	}
	s.forgetCategories(ctx)
	logger.WithCtx(ctx).Info("catalog: product created", "product_id", p.ID, "vendor_id", vendorID)
	return p, nil
}

// Update replaces the product's fields. Only its vendor or an admin may.
func (s *CatalogService) Update(ctx context.Context, viewer *session.Session, id string, in ProductInput) (models.Product, error) {
	p, err := s.owned(ctx, viewer, id)
	if err != nil {
		return models.Product{}, err
	}
	if err := apply(&p, in, p.StoreName()); err != nil {
		return models.Product{}, err
	}
	p.Vendor = nil
	if err := s.products.Save(ctx, &p); err != nil {
		return models.Product{}, fmt.Errorf("catalog: update: %w", err)
	}
	s.forgetCategories(ctx)
	return p, nil
}

// Delete removes the product from the catalog and from every cart holding
// it. Past orders keep it.
func (s *CatalogService) Delete(ctx context.Context, viewer *session.Session, id string) error {
	p, err := s.owned(ctx, viewer, id)
	if err != nil {
		return err
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.products.WithTx(tx).Delete(ctx, p.ID); err != nil {
			return err
		}
		_, err := s.carts.WithTx(tx).DeleteByProduct(ctx, p.ID)
		return err
	})
	if err != nil {
		return fmt.Errorf("catalog: delete: %w", err)
	}
	s.forgetCategories(ctx)
	return nil
}

// UploadImage stores an image for the product and points image_url at it.
// The content type is sniffed; only common web image formats are taken.
func (s *CatalogService) UploadImage(ctx context.Context, viewer *session.Session, id string, r io.Reader) (models.Product, error) {
	p, err := s.owned(ctx, viewer, id)
	if err != nil {
		return models.Product{}, err
	}

	data, err := io.ReadAll(io.LimitReader(r, MaxImageBytes+1))
	if err != nil {
		return models.Product{}, fmt.Errorf("catalog: read image: %w", err)
	}
	if len(data) == 0 {
		return models.Product{}, invalid("image", "The image field is required.")
	}
	if len(data) > MaxImageBytes {
		return models.Product{}, invalid("image", "The image must not be larger than 5 MB.")
	}
	mt := mimetype.Detect(data)
	if !imageTypes[mt.String()] {
		return models.Product{}, invalid("image", "The image must be a JPEG, PNG, WebP or GIF file.")
	}

	disk, err := s.disk()
	if err != nil {
		return models.Product{}, fmt.Errorf("catalog: storage: %w", err)
	}
	key := fmt.Sprintf("products/%s/%s%s", p.ID, uuid.NewString(), mt.Extension())
	if err := disk.Put(ctx, key, bytes.NewReader(data), mt.String()); err != nil {
		return models.Product{}, fmt.Errorf("catalog: store image: %w", err)
	}

	url := disk.URL(key)
	if p.MetaImageURL == "" || p.MetaImageURL == p.ImageURL {
		p.MetaImageURL = url
	}
	p.ImageURL = url
	p.Vendor = nil
	if err := s.products.Save(ctx, &p); err != nil {
		return models.Product{}, fmt.Errorf("catalog: save image url: %w", err)
	}
	logger.WithCtx(ctx).Info("catalog: image stored", "product_id", p.ID, "key", key, "type", mt.String())
	return p, nil
}

func (s *CatalogService) owned(ctx context.Context, viewer *session.Session, id string) (models.Product, error) {
	p, err := s.products.FindByID(ctx, id)
	if errors.Is(err, orm.ErrNotFound) {
		return models.Product{}, ErrNotFound
	}
	if err != nil {
		return models.Product{}, fmt.Errorf("catalog: load product: %w", err)
	}
	if !canManage(viewer, p) {
		return models.Product{}, ErrForbidden
	}
	return p, nil
}

func (s *CatalogService) forgetCategories(ctx context.Context) {
	if err := cache.Del(ctx, categoriesKey); err != nil {
		logger.WithCtx(ctx).Warn("catalog: drop category cache", "error", err)
	}
}

func canManage(viewer *session.Session, p models.Product) bool {
	if viewer == nil {
		return false
	}
	return viewer.Role == models.RoleAdmin || viewer.UserID == p.VendorID
}

// apply copies a validated form onto p and fills generated fields.
func apply(p *models.Product, in ProductInput, storeName string) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Category = strings.TrimSpace(in.Category)
	if err := check(in); err != nil {
		return err
	}
	price := in.Price.Round(2)
	if !price.IsPositive() {
		return invalid("price", "The price must be greater than 0.")
	}
	status := in.Status
	if status == "" {
		status = models.ProductDraft
	}
	if status == models.ProductActive && in.StockQuantity == 0 {
		status = models.ProductOutOfStock
	}

	p.Name = in.Name
	p.Description = in.Description
	p.Price = price
	p.StockQuantity = in.StockQuantity
	p.Category = in.Category
	p.ImageURL = firstNonEmpty(in.ImageURL, p.ImageURL)
	p.Status = status
	p.MetaTitle = firstNonEmpty(strings.TrimSpace(in.MetaTitle), metaTitle(in.Name, storeName))
	p.MetaDescription = firstNonEmpty(strings.TrimSpace(in.MetaDescription), metaDescription(in.Description))
	p.MetaImageURL = firstNonEmpty(in.MetaImageURL, p.ImageURL)
	return nil
}

// Slugify lowercases s and joins its ASCII alphanumeric runs with "-".
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			dash = false
			b.WriteRune(r)
			continue
		}
		dash = true
	}
	return b.String()
}

func metaTitle(name, store string) string {
	if store == "" {
		return name
	}
	return name + " | " + store
}

// metaDescription collapses whitespace and cuts to the search snippet length
// without splitting a character.
func metaDescription(desc string) string {
	flat := strings.Join(strings.Fields(desc), " ")
	runes := []rune(flat)
	if len(runes) <= metaDescLimit {
		return flat
	}
	return strings.TrimSpace(string(runes[:metaDescLimit]))
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
