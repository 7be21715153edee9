// Package repositories holds the database access for each model. Every
// repository is bound to a *gorm.DB; WithTx rebinds it to a transaction so
// services can compose several repositories inside one unit of work.
package repositories

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/markethub/app/models"
	"github.com/shashiranjanraj/markethub/pkg/orm"
)

// ProfileRepository handles database operations for Profile.
type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) WithTx(tx *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: tx}
}

func (r *ProfileRepository) query(ctx context.Context) *orm.Query {
	return orm.Use(r.db).WithContext(ctx)
}

// FindByEmail looks up a profile by email, ignoring case.
func (r *ProfileRepository) FindByEmail(ctx context.Context, email string) (models.Profile, error) {
	var p models.Profile
	err := r.query(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&p)
	return p, err
}

func (r *ProfileRepository) FindByID(ctx context.Context, id string) (models.Profile, error) {
	var p models.Profile
	err := r.query(ctx).Where("id = ?", id).First(&p)
	return p, err
}

func (r *ProfileRepository) Create(ctx context.Context, p *models.Profile) error {
	return r.query(ctx).Create(p)
}

// SetRole changes the account's role.
func (r *ProfileRepository) SetRole(ctx context.Context, id, role string) error {
	_, err := r.query(ctx).Model(&models.Profile{}).Where("id = ?", id).Updates(map[string]any{"role": role})
	return err
}
