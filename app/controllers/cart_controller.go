package controllers

import (
	"github.com/shashiranjanraj/markethub/app/services"
	"github.com/shashiranjanraj/markethub/pkg/ctx"
)

type CartController struct {
	svc *services.CartService
}

func NewCartController(svc *services.CartService) *CartController {
	return &CartController{svc: svc}
}

func (cc *CartController) Index(c *ctx.Context) {
	cart, err := cc.svc.List(c.Context(), c.UserID())
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(cart)
}

func (cc *CartController) Store(c *ctx.Context) {
	var in services.AddToCartInput
	if !c.DecodeJSON(&in) {
		return
	}
	item, err := cc.svc.Add(c.Context(), c.UserID(), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.Created(item)
}

// Update handles PUT /api/cart/{id}. A quantity of zero removes the line.
func (cc *CartController) Update(c *ctx.Context) {
	var in services.SetQuantityInput
	if !c.DecodeJSON(&in) {
		return
	}
	item, deleted, err := cc.svc.SetQuantity(c.Context(), c.UserID(), c.Param("id"), in)
	if err != nil {
		fail(c, err)
		return
	}
	if deleted {
		c.NoContent()
		return
	}
	c.Success(item)
}

func (cc *CartController) Clear(c *ctx.Context) {
	if err := cc.svc.Clear(c.Context(), c.UserID()); err != nil {
		fail(c, err)
		return
	}
	c.NoContent()
}
