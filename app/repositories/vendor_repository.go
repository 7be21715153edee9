package repositories

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/markethub/app/models"
	"github.com/shashiranjanraj/markethub/pkg/orm"
)

// VendorRepository handles database operations for VendorProfile.
type VendorRepository struct {
	db *gorm.DB
}

func NewVendorRepository(db *gorm.DB) *VendorRepository {
	return &VendorRepository{db: db}
}

func (r *VendorRepository) WithTx(tx *gorm.DB) *VendorRepository {
	return &VendorRepository{db: tx}
}

func (r *VendorRepository) query(ctx context.Context) *orm.Query {
	return orm.Use(r.db).WithContext(ctx)
}

// FindByUserID returns the store owned by the given profile.
func (r *VendorRepository) FindByUserID(ctx context.Context, userID string) (models.VendorProfile, error) {
	var v models.VendorProfile
	err := r.query(ctx).Where("user_id = ?", userID).First(&v)
	return v, err
}

func (r *VendorRepository) FindByID(ctx context.Context, id string) (models.VendorProfile, error) {
	var v models.VendorProfile
	err := r.query(ctx).Preload("Profile").Where("id = ?", id).First(&v)
	return v, err
}

// RatesByUserID loads the commission rate of every listed vendor that has
// a store. Vendors without one are absent from the map.
func (r *VendorRepository) RatesByUserID(ctx context.Context, userIDs []string) (map[string]decimal.Decimal, error) {
	out := make(map[string]decimal.Decimal, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	var rows []models.VendorProfile
	if err := r.query(ctx).Select("user_id", "commission_rate").Where("user_id IN ?", userIDs).Get(&rows); err != nil {
		return nil, err
	}
	for _, v := range rows {
		out[v.UserID] = v.CommissionRate
	}
	return out, nil
}

func (r *VendorRepository) Create(ctx context.Context, v *models.VendorProfile) error {
	return r.query(ctx).Create(v)
}

// Update applies fields to the store with id and reports whether it existed.
func (r *VendorRepository) Update(ctx context.Context, id string, fields map[string]any) (bool, error) {
	n, err := r.query(ctx).Model(&models.VendorProfile{}).Where("id = ?", id).Updates(fields)
	return n > 0, err
}

// List returns every store with its owner, newest first.
func (r *VendorRepository) List(ctx context.Context) ([]models.VendorProfile, error) {
	var out []models.VendorProfile
	err := r.query(ctx).Preload("Profile").Order("created_at desc").Get(&out)
	return out, err
}

// AddSales increases the store's lifetime sales by amount.
func (r *VendorRepository) AddSales(ctx context.Context, userID string, amount decimal.Decimal) error {
	return r.db.WithContext(ctx).Model(&models.VendorProfile{}).
		Where("user_id = ?", userID).
		UpdateColumn("total_sales", gorm.Expr("total_sales + ?", amount)).Error
}

func (r *VendorRepository) SetSales(ctx context.Context, userID string, total decimal.Decimal) error {
	return r.db.WithContext(ctx).Model(&models.VendorProfile{}).
		Where("user_id = ?", userID).
		UpdateColumn("total_sales", total).Error
}

func (r *VendorRepository) Count(ctx context.Context) (int64, error) {
	return r.query(ctx).Model(&models.VendorProfile{}).Count()
}

func (r *VendorRepository) CountByStatus(ctx context.Context, status string) (int64, error) {
	return r.query(ctx).Model(&models.VendorProfile{}).Where("status = ?", status).Count()
}
