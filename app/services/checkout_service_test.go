package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/markethub/app/models"
	"github.com/shashiranjanraj/markethub/app/services"
	"github.com/shashiranjanraj/markethub/config"
)

func shipping() services.CheckoutInput {
	return services.CheckoutInput{
		ShippingName:       "Asha Buyer",
		ShippingPhone:      "+91 98000 00000",
		ShippingAddress:    "12 MG Road",
		ShippingCity:       "Pune",
		ShippingPostalCode: "411001",
		PaymentMethod:      models.PaymentCOD,
	}
}

func addToCart(t *testing.T, cart *services.CartService, buyerID, productID string, qty int) {
	t.Helper()
	_, err := cart.Add(bg, buyerID, services.AddToCartInput{ProductID: productID, Quantity: qty})
	require.NoError(t, err)
}

func TestCheckoutSplitsCommissionAndClearsCart(t *testing.T) {
	db := openDB(t)
	vendor := seedVendor(t, db, "v@shop.io", "15")
	buyer := seedProfile(t, db, "b@shop.io", models.RoleBuyer)
	lamp := seedProduct(t, db, vendor.ID, "Lamp", "20", 5)
	cart := services.NewCartService(db)
	addToCart(t, cart, buyer.ID, lamp.ID, 2)

	res, err := services.NewCheckoutService(db).Checkout(bg, buyer.ID, shipping())
	require.NoError(t, err)
	require.False(t, res.Replayed)

	order := res.Order
	assert.Equal(t, "40.00", order.TotalAmount.StringFixed(2))
	assert.Equal(t, models.OrderPending, order.Status)
	assert.Equal(t, models.PaymentUnpaid, order.PaymentStatus)
	assert.NotEmpty(t, order.RequestID)
	require.Len(t, order.Items, 1)

	item := reload[models.OrderItem](t, db, order.Items[0].ID)
	assert.Equal(t, "20.00", item.Price.StringFixed(2))
	assert.Equal(t, 2, item.Quantity)
	assert.Equal(t, "6.00", item.CommissionAmount.StringFixed(2))
	assert.Equal(t, "34.00", item.VendorAmount.StringFixed(2))
	assert.True(t, item.CommissionAmount.Add(item.VendorAmount).Equal(item.LineTotal()))

	assert.Equal(t, 3, reload[models.Product](t, db, lamp.ID).StockQuantity)
	view, err := cart.List(bg, buyer.ID)
	require.NoError(t, err)
	assert.Empty(t, view.Items)

	var store models.VendorProfile
	require.NoError(t, db.Where("user_id = ?", vendor.ID).First(&store).Error)
	assert.Equal(t, "40.00", store.TotalSales.StringFixed(2))
}

func TestCheckoutTotalMatchesLineSum(t *testing.T) {
	db := openDB(t)
	a := seedVendor(t, db, "a@shop.io", "12.5")
	b := seedVendor(t, db, "b@shop.io", "7")
	buyer := seedProfile(t, db, "buyer@shop.io", models.RoleBuyer)
	cart := services.NewCartService(db)
	addToCart(t, cart, buyer.ID, seedProduct(t, db, a.ID, "Mug", "9.99", 10).ID, 3)
	addToCart(t, cart, buyer.ID, seedProduct(t, db, b.ID, "Rug", "45.35", 2).ID, 1)
	addToCart(t, cart, buyer.ID, seedProduct(t, db, a.ID, "Pen", "0.33", 50).ID, 7)

	res, err := services.NewCheckoutService(db).Checkout(bg, buyer.ID, shipping())
	require.NoError(t, err)

	var items []models.OrderItem
	require.NoError(t, db.Where("order_id = ?", res.Order.ID).Find(&items).Error)
	require.Len(t, items, 3)
	sum := dec("0")
	for _, it := range items {
		sum = sum.Add(it.LineTotal())
		assert.True(t, it.CommissionAmount.Add(it.VendorAmount).Equal(it.LineTotal()), "split of %s", it.ProductID)
	}
	assert.True(t, sum.Equal(reload[models.Order](t, db, res.Order.ID).TotalAmount))
	assert.Equal(t, "77.63", sum.StringFixed(2))
}

func TestCheckoutEmptyCartCreatesNothing(t *testing.T) {
	db := openDB(t)
	buyer := seedProfile(t, db, "b@shop.io", models.RoleBuyer)

	_, err := services.NewCheckoutService(db).Checkout(bg, buyer.ID, shipping())
	assert.ErrorIs(t, err, services.ErrEmptyCart)
	assert.Zero(t, count(t, db, &models.Order{}))
}

func TestCheckoutRejectsBlankShipping(t *testing.T) {
	db := openDB(t)
	vendor := seedVendor(t, db, "v@shop.io", "10")
	buyer := seedProfile(t, db, "b@shop.io", models.RoleBuyer)
	lamp := seedProduct(t, db, vendor.ID, "Lamp", "20", 5)
	cart := services.NewCartService(db)
	addToCart(t, cart, buyer.ID, lamp.ID, 1)

	in := shipping()
	in.ShippingCity = "   "
	in.PaymentMethod = "cheque"
	_, err := services.NewCheckoutService(db).Checkout(bg, buyer.ID, in)

	var verr *services.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "shipping_city")
	assert.Contains(t, verr.Fields, "payment_method")
	assert.Zero(t, count(t, db, &models.Order{}))
	assert.Equal(t, 5, reload[models.Product](t, db, lamp.ID).StockQuantity)
	view, err := cart.List(bg, buyer.ID)
	require.NoError(t, err)
	assert.Len(t, view.Items, 1)
}

func TestCheckoutReplaysSameRequestID(t *testing.T) {
	db := openDB(t)
	vendor := seedVendor(t, db, "v@shop.io", "10")
	buyer := seedProfile(t, db, "b@shop.io", models.RoleBuyer)
	lamp := seedProduct(t, db, vendor.ID, "Lamp", "20", 5)
	addToCart(t, services.NewCartService(db), buyer.ID, lamp.ID, 1)
	svc := services.NewCheckoutService(db)

	in := shipping()
	in.RequestID = "place-order-7f3a"
	first, err := svc.Checkout(bg, buyer.ID, in)
	require.NoError(t, err)

	second, err := svc.Checkout(bg, buyer.ID, in)
	require.NoError(t, err)
	assert.True(t, second.Replayed)
	assert.Equal(t, first.Order.ID, second.Order.ID)
	assert.Len(t, second.Order.Items, 1)
	assert.EqualValues(t, 1, count(t, db, &models.Order{}))
	assert.Equal(t, 4, reload[models.Product](t, db, lamp.ID).StockQuantity)
}

func TestCheckoutRequestIDIsPerBuyer(t *testing.T) {
	db := openDB(t)
	vendor := seedVendor(t, db, "v@shop.io", "10")
	lamp := seedProduct(t, db, vendor.ID, "Lamp", "20", 5)
	cart := services.NewCartService(db)
	svc := services.NewCheckoutService(db)

	in := shipping()
	in.RequestID = "same-key"
	for _, email := range []string{"one@shop.io", "two@shop.io"} {
		buyer := seedProfile(t, db, email, models.RoleBuyer)
		addToCart(t, cart, buyer.ID, lamp.ID, 1)
		res, err := svc.Checkout(bg, buyer.ID, in)
		require.NoError(t, err)
		assert.False(t, res.Replayed)
	}
	assert.EqualValues(t, 2, count(t, db, &models.Order{}))
}

func TestCheckoutOversellRollsEverythingBack(t *testing.T) {
	db := openDB(t)
	vendor := seedVendor(t, db, "v@shop.io", "10")
	buyer := seedProfile(t, db, "b@shop.io", models.RoleBuyer)
	first := seedProduct(t, db, vendor.ID, "Lamp", "20", 5)
	second := seedProduct(t, db, vendor.ID, "Shade", "8", 1)
	cart := services.NewCartService(db)
	addToCart(t, cart, buyer.ID, first.ID, 2)
	addToCart(t, cart, buyer.ID, second.ID, 1)

	// Another buyer takes the last shade after it went into this cart.
	require.NoError(t, db.Model(&models.Product{}).Where("id = ?", second.ID).Update("stock_quantity", 0).Error)

	_, err := services.NewCheckoutService(db).Checkout(bg, buyer.ID, shipping())
	assert.ErrorIs(t, err, services.ErrInsufficientStock)

	assert.Zero(t, count(t, db, &models.Order{}))
	assert.Zero(t, count(t, db, &models.OrderItem{}))
	assert.Equal(t, 5, reload[models.Product](t, db, first.ID).StockQuantity)
	view, err := cart.List(bg, buyer.ID)
	require.NoError(t, err)
	assert.Len(t, view.Items, 2)

	var store models.VendorProfile
	require.NoError(t, db.Where("user_id = ?", vendor.ID).First(&store).Error)
	assert.True(t, store.TotalSales.IsZero())
}

func TestCheckoutFallsBackToDefaultRate(t *testing.T) {
	config.Set("DEFAULT_COMMISSION_RATE", "10")
	db := openDB(t)
	storeless := seedProfile(t, db, "v@shop.io", models.RoleVendor)
	buyer := seedProfile(t, db, "b@shop.io", models.RoleBuyer)
	chair := seedProduct(t, db, storeless.ID, "Chair", "100", 3)
	addToCart(t, services.NewCartService(db), buyer.ID, chair.ID, 1)

	res, err := services.NewCheckoutService(db).Checkout(bg, buyer.ID, shipping())
	require.NoError(t, err)
	item := res.Order.Items[0]
	assert.Equal(t, "10.00", item.CommissionAmount.StringFixed(2))
	assert.Equal(t, "90.00", item.VendorAmount.StringFixed(2))
	assert.Equal(t, "10.00", item.CommissionRate.StringFixed(2))
}

func TestCheckoutZeroRateIsKept(t *testing.T) {
	db := openDB(t)
	vendor := seedVendor(t, db, "v@shop.io", "0")
	buyer := seedProfile(t, db, "b@shop.io", models.RoleBuyer)
	addToCart(t, services.NewCartService(db), buyer.ID, seedProduct(t, db, vendor.ID, "Lamp", "20", 5).ID, 1)

	res, err := services.NewCheckoutService(db).Checkout(bg, buyer.ID, shipping())
	require.NoError(t, err)
	assert.True(t, res.Order.Items[0].CommissionAmount.IsZero())
	assert.Equal(t, "20.00", res.Order.Items[0].VendorAmount.StringFixed(2))
}

func TestCheckoutMarksLastUnitSoldOut(t *testing.T) {
	db := openDB(t)
	vendor := seedVendor(t, db, "v@shop.io", "10")
	buyer := seedProfile(t, db, "b@shop.io", models.RoleBuyer)
	lamp := seedProduct(t, db, vendor.ID, "Lamp", "20", 2)
	addToCart(t, services.NewCartService(db), buyer.ID, lamp.ID, 2)

	_, err := services.NewCheckoutService(db).Checkout(bg, buyer.ID, shipping())
	require.NoError(t, err)

	after := reload[models.Product](t, db, lamp.ID)
	assert.Zero(t, after.StockQuantity)
	assert.Equal(t, models.ProductOutOfStock, after.Status)
}

func TestCheckoutCardIsMarkedPaid(t *testing.T) {
	db := openDB(t)
	vendor := seedVendor(t, db, "v@shop.io", "10")
	buyer := seedProfile(t, db, "b@shop.io", models.RoleBuyer)
	addToCart(t, services.NewCartService(db), buyer.ID, seedProduct(t, db, vendor.ID, "Lamp", "20", 2).ID, 1)

	in := shipping()
	in.PaymentMethod = models.PaymentCard
	res, err := services.NewCheckoutService(db).Checkout(bg, buyer.ID, in)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, res.Order.PaymentStatus)
}

func TestCheckoutRejectsDeactivatedProduct(t *testing.T) {
	db := openDB(t)
	vendor := seedVendor(t, db, "v@shop.io", "10")
	buyer := seedProfile(t, db, "b@shop.io", models.RoleBuyer)
	lamp := seedProduct(t, db, vendor.ID, "Lamp", "20", 2)
	addToCart(t, services.NewCartService(db), buyer.ID, lamp.ID, 1)
	require.NoError(t, db.Model(&models.Product{}).Where("id = ?", lamp.ID).Update("status", models.ProductDraft).Error)

	_, err := services.NewCheckoutService(db).Checkout(bg, buyer.ID, shipping())
	assert.ErrorIs(t, err, services.ErrProductUnavailable)
	assert.Zero(t, count(t, db, &models.Order{}))
}

func TestSnapshotSurvivesPriceChange(t *testing.T) {
	db := openDB(t)
	vendor := seedVendor(t, db, "v@shop.io", "10")
	buyer := seedProfile(t, db, "b@shop.io", models.RoleBuyer)
	lamp := seedProduct(t, db, vendor.ID, "Lamp", "20", 2)
	addToCart(t, services.NewCartService(db), buyer.ID, lamp.ID, 1)
	res, err := services.NewCheckoutService(db).Checkout(bg, buyer.ID, shipping())
	require.NoError(t, err)

	require.NoError(t, db.Model(&models.Product{}).Where("id = ?", lamp.ID).Update("price", dec("99")).Error)

	item := reload[models.OrderItem](t, db, res.Order.Items[0].ID)
	assert.Equal(t, "20.00", item.Price.StringFixed(2))
}

func TestConfirmationVisibility(t *testing.T) {
	db := openDB(t)
	vendor := seedVendor(t, db, "v@shop.io", "10")
	buyer := seedProfile(t, db, "b@shop.io", models.RoleBuyer)
	other := seedProfile(t, db, "o@shop.io", models.RoleBuyer)
	admin := seedProfile(t, db, "a@shop.io", models.RoleAdmin)
	addToCart(t, services.NewCartService(db), buyer.ID, seedProduct(t, db, vendor.ID, "Lamp", "20", 2).ID, 1)
	svc := services.NewCheckoutService(db)
	res, err := svc.Checkout(bg, buyer.ID, shipping())
	require.NoError(t, err)

	got, err := svc.Confirmation(bg, sessionFor(buyer), res.Order.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	require.NotNil(t, got.Items[0].Product)
	assert.Equal(t, "Lamp", got.Items[0].Product.Name)

	_, err = svc.Confirmation(bg, sessionFor(admin), res.Order.ID)
	assert.NoError(t, err)

	_, err = svc.Confirmation(bg, sessionFor(other), res.Order.ID)
	assert.ErrorIs(t, err, services.ErrForbidden)

	_, err = svc.Confirmation(bg, sessionFor(buyer), "missing")
	assert.ErrorIs(t, err, services.ErrNotFound)

	orders, err := svc.ListForBuyer(bg, buyer.ID)
	require.NoError(t, err)
	assert.Len(t, orders, 1)
}

func TestCheckoutAfterVendorDeletesCartProduct(t *testing.T) {
	db := openDB(t)
	vendor := seedVendor(t, db, "v@shop.io", "10")
	buyer := seedProfile(t, db, "b@shop.io", models.RoleBuyer)
	lamp := seedProduct(t, db, vendor.ID, "Lamp", "20", 5)
	shade := seedProduct(t, db, vendor.ID, "Shade", "8", 5)
	cart := services.NewCartService(db)
	addToCart(t, cart, buyer.ID, lamp.ID, 1)
	addToCart(t, cart, buyer.ID, shade.ID, 1)

	require.NoError(t, services.NewCatalogService(db).Delete(bg, sessionFor(vendor), shade.ID))
	assert.Equal(t, int64(1), count(t, db, &models.CartItem{}))

	view, err := cart.List(bg, buyer.ID)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)

	res, err := services.NewCheckoutService(db).Checkout(bg, buyer.ID, shipping())
	require.NoError(t, err)
	require.Len(t, res.Order.Items, 1)
	assert.Equal(t, "20.00", res.Order.TotalAmount.StringFixed(2))
}

func TestCheckoutInFlightLock(t *testing.T) {
	db := openDB(t)
	vendor := seedVendor(t, db, "v@shop.io", "10")
	buyer := seedProfile(t, db, "b@shop.io", models.RoleBuyer)
	lamp := seedProduct(t, db, vendor.ID, "Lamp", "20", 5)
	addToCart(t, services.NewCartService(db), buyer.ID, lamp.ID, 1)
	checkout := services.NewCheckoutService(db)
	in := shipping()
	in.RequestID = "tap-twice"

	var keys []string
	restore := services.StubCheckoutLock(func(_ context.Context, key string, _ time.Duration) (bool, error) {
		keys = append(keys, key)
		return false, nil
	})
	_, err := checkout.Checkout(bg, buyer.ID, in)
	restore()
	assert.ErrorIs(t, err, services.ErrDuplicateRequest)
	assert.Equal(t, []string{"checkout:" + buyer.ID + ":tap-twice"}, keys)
	assert.Zero(t, count(t, db, &models.Order{}))

	restore = services.StubCheckoutLock(func(context.Context, string, time.Duration) (bool, error) {
		return false, errors.New("redis: connection refused")
	})
	defer restore()
	res, err := checkout.Checkout(bg, buyer.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "tap-twice", res.Order.RequestID)
}
