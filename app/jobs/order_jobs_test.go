package jobs_test

import (
	"context"
	"encoding/base64"
	"io"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/markethub/app/jobs"
	"github.com/shashiranjanraj/markethub/app/models"
	"github.com/shashiranjanraj/markethub/app/services"
	"github.com/shashiranjanraj/markethub/config"
	"github.com/shashiranjanraj/markethub/pkg/crypt"
	"github.com/shashiranjanraj/markethub/pkg/database"
	mhttp "github.com/shashiranjanraj/markethub/pkg/http"
	"github.com/shashiranjanraj/markethub/pkg/mail"
	"github.com/shashiranjanraj/markethub/pkg/testkit"
)

var bg = context.Background()

// placeOrder checks out one lamp from each of two vendors.
func placeOrder(t *testing.T) models.Order {
	t.Helper()
	db := testkit.OpenDB(t, models.All()...)
	database.DB = db
	t.Cleanup(func() { database.DB = nil })

	for _, p := range []models.Profile{
		{Base: models.Base{ID: "u-buyer"}, Email: "buyer@shop.io", Role: models.RoleBuyer, PasswordHash: "x"},
		{Base: models.Base{ID: "u-lamps"}, Email: "lamps@shop.io", Role: models.RoleVendor, PasswordHash: "x"},
		{Base: models.Base{ID: "u-rugs"}, Email: "rugs@shop.io", Role: models.RoleVendor, PasswordHash: "x"},
	} {
		require.NoError(t, db.Create(&p).Error)
	}
	cart := services.NewCartService(db)
	for _, p := range []models.Product{
		{Base: models.Base{ID: "p-lamp"}, VendorID: "u-lamps", Name: "Desk Lamp", Price: decimal.NewFromInt(20), StockQuantity: 5, Status: models.ProductActive},
		{Base: models.Base{ID: "p-rug"}, VendorID: "u-rugs", Name: "Wool Rug", Price: decimal.NewFromInt(80), StockQuantity: 5, Status: models.ProductActive},
	} {
		require.NoError(t, db.Create(&p).Error)
		_, err := cart.Add(bg, "u-buyer", services.AddToCartInput{ProductID: p.ID, Quantity: 1})
		require.NoError(t, err)
	}
	res, err := services.NewCheckoutService(db).Checkout(bg, "u-buyer", services.CheckoutInput{
		ShippingName:       "Bea <Buyer>",
		ShippingPhone:      "555-0100",
		ShippingAddress:    "1 Main St",
		ShippingCity:       "Springfield",
		ShippingPostalCode: "12345",
		PaymentMethod:      models.PaymentCOD,
	})
	require.NoError(t, err)
	return res.Order
}

func outbox(t *testing.T) *mail.Outbox {
	t.Helper()
	box := &mail.Outbox{}
	mail.SetDefault(box)
	t.Cleanup(func() { mail.SetDefault(nil) })
	return box
}

func TestSendOrderConfirmation(t *testing.T) {
	order := placeOrder(t)
	box := outbox(t)

	require.NoError(t, jobs.SendOrderConfirmation{OrderID: order.ID}.Handle(bg))

	sent := box.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, []string{"buyer@shop.io"}, sent[0].To)
	assert.Contains(t, sent[0].Subject, order.ID)
	assert.Contains(t, sent[0].HTML, "Desk Lamp")
	assert.Contains(t, sent[0].HTML, "100.00")
	assert.Contains(t, sent[0].HTML, "Bea &lt;Buyer&gt;")
}

func TestSendOrderConfirmationMissingOrder(t *testing.T) {
	placeOrder(t)
	outbox(t)
	assert.Error(t, jobs.SendOrderConfirmation{OrderID: "nope"}.Handle(bg))
}

func TestNotifyVendorsMailsEachVendor(t *testing.T) {
	order := placeOrder(t)
	box := outbox(t)
	config.Set("ORDER_WEBHOOK_URL", "")

	require.NoError(t, jobs.NotifyVendorsOfOrder{OrderID: order.ID}.Handle(bg))

	sent := box.Sent()
	require.Len(t, sent, 2)
	to := map[string]string{}
	for _, m := range sent {
		to[m.To[0]] = m.HTML
	}
	assert.Contains(t, to["lamps@shop.io"], "Desk Lamp")
	assert.NotContains(t, to["lamps@shop.io"], "Wool Rug")
	assert.Contains(t, to["rugs@shop.io"], "Wool Rug")
}

func TestNotifyVendorsPostsSignedWebhook(t *testing.T) {
	order := placeOrder(t)
	outbox(t)
	config.Set("ORDER_WEBHOOK_URL", "https://hooks.example.com/orders")
	t.Cleanup(func() { config.Set("ORDER_WEBHOOK_URL", "") })

	mt := testkit.NewMockTransport(&testkit.Scenario{
		IsMockRequired: true,
		NetUtilMockStep: []testkit.MockStep{{
			Method:     "httprequest",
			IsMock:     true,
			MatchURL:   "https://hooks.example.com/",
			ReturnData: testkit.MockReturnData{StatusCode: 202, Body: base64.StdEncoding.EncodeToString([]byte(`{}`))},
		}},
	})
	mhttp.DefaultClient.Transport = mt
	t.Cleanup(mhttp.ResetTransport)

	require.NoError(t, jobs.NotifyVendorsOfOrder{OrderID: order.ID}.Handle(bg))

	reqs := mt.Requests()
	require.Len(t, reqs, 1)
	body, err := io.ReadAll(reqs[0].Body)
	require.NoError(t, err)
	assert.Equal(t, "order.placed", reqs[0].Header.Get("X-Markethub-Event"))
	assert.True(t, crypt.Verify(body, reqs[0].Header.Get(crypt.SignatureHeader)))
	assert.Contains(t, string(body), order.ID)
}
