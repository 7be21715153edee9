package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/markethub/app/models"
	"github.com/shashiranjanraj/markethub/app/services"
)

func TestCartAddIncrementsExistingLine(t *testing.T) {
	db := openDB(t)
	vendor := seedVendor(t, db, "v@shop.io", "10")
	buyer := seedProfile(t, db, "b@shop.io", models.RoleBuyer)
	lamp := seedProduct(t, db, vendor.ID, "Lamp", "20", 5)
	cart := services.NewCartService(db)

	_, err := cart.Add(bg, buyer.ID, services.AddToCartInput{ProductID: lamp.ID})
	require.NoError(t, err)
	item, err := cart.Add(bg, buyer.ID, services.AddToCartInput{ProductID: lamp.ID, Quantity: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, item.Quantity)

	view, err := cart.List(bg, buyer.ID)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, "v@shop.io store", view.Items[0].StoreName)
	assert.Equal(t, "60.00", view.Subtotal.StringFixed(2))
}

func TestCartAddCapsAtStock(t *testing.T) {
	db := openDB(t)
	vendor := seedVendor(t, db, "v@shop.io", "10")
	buyer := seedProfile(t, db, "b@shop.io", models.RoleBuyer)
	lamp := seedProduct(t, db, vendor.ID, "Lamp", "20", 2)
	cart := services.NewCartService(db)

	_, err := cart.Add(bg, buyer.ID, services.AddToCartInput{ProductID: lamp.ID, Quantity: 2})
	require.NoError(t, err)
	_, err = cart.Add(bg, buyer.ID, services.AddToCartInput{ProductID: lamp.ID})
	assert.ErrorIs(t, err, services.ErrInsufficientStock)

	_, err = cart.Add(bg, buyer.ID, services.AddToCartInput{ProductID: seedProduct(t, db, vendor.ID, "Gone", "5", 0).ID})
	assert.ErrorIs(t, err, services.ErrProductUnavailable)

	_, err = cart.Add(bg, buyer.ID, services.AddToCartInput{ProductID: "nope"})
	assert.ErrorIs(t, err, services.ErrProductUnavailable)
}

func TestCartSetQuantity(t *testing.T) {
	db := openDB(t)
	vendor := seedVendor(t, db, "v@shop.io", "10")
	buyer := seedProfile(t, db, "b@shop.io", models.RoleBuyer)
	intruder := seedProfile(t, db, "x@shop.io", models.RoleBuyer)
	lamp := seedProduct(t, db, vendor.ID, "Lamp", "20", 4)
	cart := services.NewCartService(db)
	item, err := cart.Add(bg, buyer.ID, services.AddToCartInput{ProductID: lamp.ID})
	require.NoError(t, err)

	updated, deleted, err := cart.SetQuantity(bg, buyer.ID, item.ID, services.SetQuantityInput{Quantity: 4})
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.Equal(t, 4, updated.Quantity)

	_, _, err = cart.SetQuantity(bg, buyer.ID, item.ID, services.SetQuantityInput{Quantity: 5})
	assert.ErrorIs(t, err, services.ErrInsufficientStock)

	_, _, err = cart.SetQuantity(bg, intruder.ID, item.ID, services.SetQuantityInput{Quantity: 1})
	assert.ErrorIs(t, err, services.ErrNotFound)

	_, deleted, err = cart.SetQuantity(bg, buyer.ID, item.ID, services.SetQuantityInput{Quantity: 0})
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.Zero(t, count(t, db, &models.CartItem{}))
}

func TestCartListSkipsDeletedProducts(t *testing.T) {
	db := openDB(t)
	vendor := seedVendor(t, db, "v@shop.io", "10")
	buyer := seedProfile(t, db, "b@shop.io", models.RoleBuyer)
	keep := seedProduct(t, db, vendor.ID, "Lamp", "20", 4)
	drop := seedProduct(t, db, vendor.ID, "Shade", "5", 4)
	cart := services.NewCartService(db)
	_, err := cart.Add(bg, buyer.ID, services.AddToCartInput{ProductID: keep.ID})
	require.NoError(t, err)
	_, err = cart.Add(bg, buyer.ID, services.AddToCartInput{ProductID: drop.ID})
	require.NoError(t, err)
	require.NoError(t, db.Delete(&models.Product{}, "id = ?", drop.ID).Error)

	view, err := cart.List(bg, buyer.ID)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, keep.ID, view.Items[0].ProductID)
	assert.Equal(t, "20.00", view.Subtotal.StringFixed(2))

	require.NoError(t, cart.Clear(bg, buyer.ID))
	assert.Zero(t, count(t, db, &models.CartItem{}))
}

func TestCartSetQuantityRefusesInactiveProduct(t *testing.T) {
	db := openDB(t)
	vendor := seedVendor(t, db, "v@shop.io", "10")
	buyer := seedProfile(t, db, "b@shop.io", models.RoleBuyer)
	lamp := seedProduct(t, db, vendor.ID, "Lamp", "20", 9)
	cart := services.NewCartService(db)
	item, err := cart.Add(bg, buyer.ID, services.AddToCartInput{ProductID: lamp.ID})
	require.NoError(t, err)

	require.NoError(t, db.Model(&models.Product{}).Where("id = ?", lamp.ID).Update("status", models.ProductDraft).Error)
	_, _, err = cart.SetQuantity(bg, buyer.ID, item.ID, services.SetQuantityInput{Quantity: 3})
	assert.ErrorIs(t, err, services.ErrProductUnavailable)
	assert.Equal(t, 1, reload[models.CartItem](t, db, item.ID).Quantity)

	_, deleted, err := cart.SetQuantity(bg, buyer.ID, item.ID, services.SetQuantityInput{Quantity: 0})
	require.NoError(t, err)
	assert.True(t, deleted)
}
