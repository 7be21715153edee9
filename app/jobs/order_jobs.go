// Package jobs holds the queued work the order workflow triggers. Jobs
// carry ids only and reload state from database.DB when they run.
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"

	"github.com/shopspring/decimal"

	"github.com/shashiranjanraj/markethub/app/models"
	"github.com/shashiranjanraj/markethub/app/repositories"
	"github.com/shashiranjanraj/markethub/config"
	"github.com/shashiranjanraj/markethub/pkg/collection"
	"github.com/shashiranjanraj/markethub/pkg/crypt"
	"github.com/shashiranjanraj/markethub/pkg/database"
	"github.com/shashiranjanraj/markethub/pkg/logger"
	"github.com/shashiranjanraj/markethub/pkg/mail"
	"github.com/shashiranjanraj/markethub/pkg/notification"
	"github.com/shashiranjanraj/markethub/pkg/orm"
	"github.com/shashiranjanraj/markethub/pkg/queue"
	"github.com/shashiranjanraj/markethub/pkg/workerpool"
)

// vendorMailConcurrency caps parallel vendor mails per order.
const vendorMailConcurrency = 4

var (
	confirmationTmpl = template.Must(template.New("order_confirmation").Parse(`<h1>Thanks for your order, {{.Name}}</h1>
<p>Order <strong>{{.OrderID}}</strong> is {{.Status}}.</p>
<table>{{range .Lines}}<tr><td>{{.Name}}</td><td>{{.Quantity}} × {{.Price}}</td><td>{{.Total}}</td></tr>{{end}}</table>
<p>Total: {{.Total}} ({{.Payment}})</p>
<p>Shipping to {{.Address}}, {{.City}} {{.PostalCode}}</p>`))

	vendorTmpl = template.Must(template.New("vendor_order").Parse(`<h1>New order {{.OrderID}}</h1>
<table>{{range .Lines}}<tr><td>{{.Name}}</td><td>{{.Quantity}}</td><td>{{.Total}}</td></tr>{{end}}</table>
<p>Your share after commission: {{.Earned}}</p>`))
)

// Register makes the jobs known to the default queue.
func Register() {
	queue.Register(SendOrderConfirmation{})
	queue.Register(NotifyVendorsOfOrder{})
}

type line struct {
	Name     string
	Quantity int
	Price    string
	Total    string
}

func lines(items []models.OrderItem) []line {
	return collection.Map(items, func(i models.OrderItem) line {
		name := i.ProductID
		if i.Product != nil {
			name = i.Product.Name
		}
		return line{Name: name, Quantity: i.Quantity, Price: i.Price.StringFixed(2), Total: i.LineTotal().StringFixed(2)}
	})
}

func loadOrder(ctx context.Context, id string) (models.Order, error) {
	if database.DB == nil {
		return models.Order{}, errors.New("jobs: database is not connected")
	}
	o, err := repositories.NewOrderRepository(database.DB).FindWithItems(ctx, id)
	if err != nil {
		return models.Order{}, fmt.Errorf("jobs: load order %s: %w", id, err)
	}
	return o, nil
}

// SendOrderConfirmation mails the buyer a receipt.
type SendOrderConfirmation struct {
	OrderID string `json:"order_id"`
}

func (SendOrderConfirmation) Name() string { return "orders.send_confirmation" }

func (j SendOrderConfirmation) Handle(ctx context.Context) error {
	o, err := loadOrder(ctx, j.OrderID)
	if err != nil {
		return err
	}
	if o.Buyer == nil {
		return fmt.Errorf("jobs: order %s has no buyer", o.ID)
	}
	return notification.Send(ctx, confirmation{order: o})
}

type confirmation struct{ order models.Order }

func (confirmation) Via() []string { return []string{notification.ChannelMail} }

func (n confirmation) ToMail() (mail.Message, error) {
	o := n.order
	msg := mail.Message{To: []string{o.Buyer.Email}, Subject: "Your order " + o.ID + " is confirmed"}
	err := msg.Render(confirmationTmpl, map[string]any{
		"Name":       o.ShippingName,
		"OrderID":    o.ID,
		"Status":     o.Status,
		"Lines":      lines(o.Items),
		"Total":      o.TotalAmount.StringFixed(2),
		"Payment":    o.PaymentMethod,
		"Address":    o.ShippingAddress,
		"City":       o.ShippingCity,
		"PostalCode": o.ShippingPostalCode,
	})
	return msg, err
}

// NotifyVendorsOfOrder mails every vendor with items in the order and, when
// ORDER_WEBHOOK_URL is set, posts the order to it.
type NotifyVendorsOfOrder struct {
	OrderID string `json:"order_id"`
}

func (NotifyVendorsOfOrder) Name() string { return "orders.notify_vendors" }

func (j NotifyVendorsOfOrder) Handle(ctx context.Context) error {
	o, err := loadOrder(ctx, j.OrderID)
	if err != nil {
		return err
	}
	profiles := repositories.NewProfileRepository(database.DB)
	byVendor, vendorIDs := collection.GroupBy(o.Items, func(i models.OrderItem) string { return i.VendorID })

	pool := workerpool.New(vendorMailConcurrency)
	for _, vendorID := range vendorIDs {
		items := byVendor[vendorID]
		err := pool.Go(ctx, func(ctx context.Context) error {
			p, err := profiles.FindByID(ctx, vendorID)
			if errors.Is(err, orm.ErrNotFound) {
				logger.WithCtx(ctx).Warn("jobs: vendor profile missing", "vendor_id", vendorID, "order_id", o.ID)
				return nil
			}
			if err != nil {
				return fmt.Errorf("load vendor %s: %w", vendorID, err)
			}
			return notification.Send(ctx, vendorNotice{order: o, email: p.Email, items: items})
		})
		if err != nil {
			break
		}
	}
	errs := []error{pool.Wait()}

	if url := config.OrderWebhook(); url != "" {
		hook, err := newOrderWebhook(url, o)
		if err == nil {
			err = notification.Send(ctx, hook)
		}
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

type vendorNotice struct {
	order models.Order
	email string
	items []models.OrderItem
}

func (vendorNotice) Via() []string { return []string{notification.ChannelMail} }

func (n vendorNotice) ToMail() (mail.Message, error) {
	earned := collection.SumDecimal(n.items, func(i models.OrderItem) decimal.Decimal { return i.VendorAmount })
	msg := mail.Message{To: []string{n.email}, Subject: "New order " + n.order.ID}
	err := msg.Render(vendorTmpl, map[string]any{
		"OrderID": n.order.ID,
		"Lines":   lines(n.items),
		"Earned":  earned.StringFixed(2),
	})
	return msg, err
}

// orderWebhook posts the order as signed JSON.
type orderWebhook struct {
	url  string
	body json.RawMessage
}

func newOrderWebhook(url string, o models.Order) (orderWebhook, error) {
	body, err := json.Marshal(map[string]any{
		"event":        "order.placed",
		"order_id":     o.ID,
		"buyer_id":     o.BuyerID,
		"total_amount": o.TotalAmount,
		"status":       o.Status,
		"items": collection.Map(o.Items, func(i models.OrderItem) map[string]any {
			return map[string]any{
				"product_id":        i.ProductID,
				"vendor_id":         i.VendorID,
				"quantity":          i.Quantity,
				"price":             i.Price,
				"commission_amount": i.CommissionAmount,
				"vendor_amount":     i.VendorAmount,
			}
		}),
	})
	if err != nil {
		return orderWebhook{}, fmt.Errorf("jobs: encode webhook: %w", err)
	}
	return orderWebhook{url: url, body: body}, nil
}

func (orderWebhook) Via() []string { return []string{notification.ChannelWebhook} }

func (h orderWebhook) ToWebhook() notification.WebhookData {
	return notification.WebhookData{
		URL:     h.url,
		Payload: h.body,
		Headers: map[string]string{
			"X-Markethub-Event":   "order.placed",
			crypt.SignatureHeader: crypt.Sign(h.body),
		},
	}
}
