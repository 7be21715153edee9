package services_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/markethub/app/models"
	"github.com/shashiranjanraj/markethub/app/services"
	"github.com/shashiranjanraj/markethub/pkg/storage"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Hand-made Lamp!":      "hand-made-lamp",
		"  Brass  &  Copper  ": "brass-copper",
		"100% Cotton Tee (XL)": "100-cotton-tee-xl",
		"---":                  "",
		"Café Table":           "caf-table",
		"already-a-slug":       "already-a-slug",
	}
	for in, want := range cases {
		assert.Equal(t, want, services.Slugify(in), in)
	}
}

func productInput(name string) services.ProductInput {
	return services.ProductInput{
		Name:          name,
		Description:   "A warm   brass\nlamp for reading.",
		Price:         dec("19.999"),
		StockQuantity: 4,
		Category:      "lighting",
		Status:        models.ProductActive,
	}
}

func TestCreateGeneratesMeta(t *testing.T) {
	db := openDB(t)
	vendor := seedVendor(t, db, "v@shop.io", "10")
	svc := services.NewCatalogService(db)

	p, err := svc.Create(bg, vendor.ID, productInput("Reading Lamp"))
	require.NoError(t, err)
	assert.Equal(t, "20.00", p.Price.StringFixed(2))
	assert.Equal(t, "Reading Lamp | v@shop.io store", p.MetaTitle)
	assert.Equal(t, "A warm brass lamp for reading.", p.MetaDescription)

	in := productInput("Long")
	in.Description = strings.Repeat("word ", 60)
	long, err := svc.Create(bg, vendor.ID, in)
	require.NoError(t, err)
	assert.LessOrEqual(t, len([]rune(long.MetaDescription)), 155)

	in = productInput("Empty")
	in.StockQuantity = 0
	empty, err := svc.Create(bg, vendor.ID, in)
	require.NoError(t, err)
	assert.Equal(t, models.ProductOutOfStock, empty.Status)
}

func TestCreateNeedsStoreAndValidInput(t *testing.T) {
	db := openDB(t)
	storeless := seedProfile(t, db, "v@shop.io", models.RoleVendor)
	vendor := seedVendor(t, db, "w@shop.io", "10")
	svc := services.NewCatalogService(db)

	_, err := svc.Create(bg, storeless.ID, productInput("Lamp"))
	assert.ErrorIs(t, err, services.ErrNoVendorProfile)

	in := productInput(" ")
	in.Price = dec("0.001")
	in.StockQuantity = -1
	_, err = svc.Create(bg, vendor.ID, in)
	var verr *services.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "name")
	assert.Contains(t, verr.Fields, "stock_quantity")
}

func TestGetHidesInactiveFromStrangers(t *testing.T) {
	db := openDB(t)
	vendor := seedVendor(t, db, "v@shop.io", "10")
	other := seedVendor(t, db, "o@shop.io", "10")
	admin := seedProfile(t, db, "a@shop.io", models.RoleAdmin)
	svc := services.NewCatalogService(db)

	in := productInput("Draft Lamp")
	in.Status = models.ProductDraft
	p, err := svc.Create(bg, vendor.ID, in)
	require.NoError(t, err)

	_, err = svc.Get(bg, nil, p.ID)
	assert.ErrorIs(t, err, services.ErrNotFound)
	_, err = svc.Get(bg, sessionFor(other), p.ID)
	assert.ErrorIs(t, err, services.ErrNotFound)

	view, err := svc.Get(bg, sessionFor(vendor), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "draft-lamp", view.Slug)
	assert.Equal(t, "/product/"+p.ID+"/draft-lamp", view.CanonicalPath)
	assert.Equal(t, "v@shop.io store", view.StoreName)
	assert.Nil(t, view.Vendor)

	_, err = svc.Get(bg, sessionFor(admin), p.ID)
	assert.NoError(t, err)
}

func TestListActiveFilters(t *testing.T) {
	db := openDB(t)
	vendor := seedVendor(t, db, "v@shop.io", "10")
	seedProduct(t, db, vendor.ID, "Brass Lamp", "20", 3)
	rug := seedProduct(t, db, vendor.ID, "Wool Rug", "80", 3)
	require.NoError(t, db.Model(&models.Product{}).Where("id = ?", rug.ID).Update("category", "floor").Error)
	hidden := seedProduct(t, db, vendor.ID, "Hidden Lamp", "20", 3)
	require.NoError(t, db.Model(&models.Product{}).Where("id = ?", hidden.ID).Update("status", models.ProductDraft).Error)
	svc := services.NewCatalogService(db)

	all, page, err := svc.ListActive(bg, services.ProductFilter{Category: "all"})
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.EqualValues(t, 2, page.Total)

	lamps, _, err := svc.ListActive(bg, services.ProductFilter{Search: "LAMP"})
	require.NoError(t, err)
	require.Len(t, lamps, 1)
	assert.Equal(t, "Brass Lamp", lamps[0].Name)
	assert.Equal(t, "v@shop.io store", lamps[0].StoreName)

	floor, _, err := svc.ListActive(bg, services.ProductFilter{Category: "floor"})
	require.NoError(t, err)
	require.Len(t, floor, 1)
	assert.Equal(t, rug.ID, floor[0].ID)

	cats, err := svc.Categories(bg)
	require.NoError(t, err)
	assert.Equal(t, []string{"floor", "home"}, cats)
}

func TestUpdateAndDeleteAreOwnerOnly(t *testing.T) {
	db := openDB(t)
	vendor := seedVendor(t, db, "v@shop.io", "10")
	other := seedVendor(t, db, "o@shop.io", "10")
	svc := services.NewCatalogService(db)
	p, err := svc.Create(bg, vendor.ID, productInput("Lamp"))
	require.NoError(t, err)

	_, err = svc.Update(bg, sessionFor(other), p.ID, productInput("Stolen"))
	assert.ErrorIs(t, err, services.ErrForbidden)
	assert.ErrorIs(t, svc.Delete(bg, sessionFor(other), p.ID), services.ErrForbidden)

	in := productInput("Lamp v2")
	in.Price = dec("25")
	updated, err := svc.Update(bg, sessionFor(vendor), p.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "Lamp v2", updated.Name)
	assert.Equal(t, "25.00", updated.Price.StringFixed(2))

	require.NoError(t, svc.Delete(bg, sessionFor(vendor), p.ID))
	_, err = svc.Get(bg, sessionFor(vendor), p.ID)
	assert.ErrorIs(t, err, services.ErrNotFound)
	assert.Equal(t, "Lamp v2", reload[models.Product](t, db, p.ID).Name)
}

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00\x1f\x15\xc4\x89")

func TestUploadImage(t *testing.T) {
	db := openDB(t)
	vendor := seedVendor(t, db, "v@shop.io", "10")
	disk, err := storage.NewLocalDisk(t.TempDir(), "http://cdn.test/storage")
	require.NoError(t, err)
	svc := services.NewCatalogService(db).WithDisk(disk)
	p, err := svc.Create(bg, vendor.ID, productInput("Lamp"))
	require.NoError(t, err)

	updated, err := svc.UploadImage(bg, sessionFor(vendor), p.ID, bytes.NewReader(pngHeader))
	require.NoError(t, err)
	prefix := "http://cdn.test/storage/products/" + p.ID + "/"
	assert.True(t, strings.HasPrefix(updated.ImageURL, prefix), updated.ImageURL)
	assert.True(t, strings.HasSuffix(updated.ImageURL, ".png"), updated.ImageURL)
	assert.Equal(t, updated.ImageURL, updated.MetaImageURL)

	key := strings.TrimPrefix(updated.ImageURL, "http://cdn.test/storage/")
	ok, err := disk.Exists(context.Background(), key)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = svc.UploadImage(bg, sessionFor(vendor), p.ID, strings.NewReader("plain text, not an image"))
	var verr *services.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "image")
}
