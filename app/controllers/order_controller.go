package controllers

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/shashiranjanraj/markethub/app/models"
	"github.com/shashiranjanraj/markethub/app/services"
	"github.com/shashiranjanraj/markethub/pkg/ctx"
	"github.com/shashiranjanraj/markethub/pkg/resource"
)

// IdempotencyHeader may carry the checkout request id instead of the body.
const IdempotencyHeader = "Idempotency-Key"

type OrderController struct {
	svc *services.CheckoutService
}

func NewOrderController(svc *services.CheckoutService) *OrderController {
	return &OrderController{svc: svc}
}

// Checkout handles POST /api/checkout. A replayed request answers 200 with
// the original order; a new order answers 201.
func (oc *OrderController) Checkout(c *ctx.Context) {
	var in services.CheckoutInput
	if !c.DecodeJSON(&in) {
		return
	}
	if in.RequestID == "" {
		in.RequestID = c.Header(IdempotencyHeader)
	}
	res, err := oc.svc.Checkout(c.Context(), c.UserID(), in)
	if err != nil {
		fail(c, err)
		return
	}
	if res.Replayed {
		c.Success(res)
		return
	}
	c.Created(res)
}

func (oc *OrderController) Index(c *ctx.Context) {
	orders, err := oc.svc.ListForBuyer(c.Context(), c.UserID())
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(resource.Collection(orders, OrderSummary))
}

func (oc *OrderController) Confirmation(c *ctx.Context) {
	o, err := oc.svc.Confirmation(c.Context(), c.Session(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(o)
}

// OrderSummary is the list shape of an order.
func OrderSummary(o models.Order) resource.Map {
	return resource.Map{
		"id":             o.ID,
		"total_amount":   o.TotalAmount,
		"status":         o.Status,
		"payment_method": o.PaymentMethod,
		"payment_status": o.PaymentStatus,
		"item_count":     len(o.Items),
		"created_at":     o.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// AdminOrderSummary adds the buyer's email and the platform's cut.
var AdminOrderSummary = resource.With(OrderSummary, func(o models.Order) resource.Map {
	email := ""
	if o.Buyer != nil {
		email = o.Buyer.Email
	}
	commission := decimal.Zero
	for _, i := range o.Items {
		commission = commission.Add(i.CommissionAmount)
	}
	return resource.Map{
		"buyer_id":          o.BuyerID,
		"buyer_email":       email,
		"shipping_name":     o.ShippingName,
		"shipping_city":     o.ShippingCity,
		"commission_amount": commission,
	}
})
