package controllers

import (
	"github.com/shashiranjanraj/markethub/app/models"
	"github.com/shashiranjanraj/markethub/app/services"
	"github.com/shashiranjanraj/markethub/pkg/ctx"
	"github.com/shashiranjanraj/markethub/pkg/resource"
)

type AdminController struct {
	svc *services.AdminService
}

func NewAdminController(svc *services.AdminService) *AdminController {
	return &AdminController{svc: svc}
}

func (ac *AdminController) Overview(c *ctx.Context) {
	o, err := ac.svc.Overview(c.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(o)
}

func (ac *AdminController) Vendors(c *ctx.Context) {
	vendors, err := ac.svc.ListVendors(c.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(resource.Collection(vendors, VendorRow))
}

func (ac *AdminController) SetVendorStatus(c *ctx.Context) {
	var in services.VendorStatusInput
	if !c.DecodeJSON(&in) {
		return
	}
	v, err := ac.svc.SetVendorStatus(c.Context(), c.Param("id"), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(v)
}

func (ac *AdminController) SetCommission(c *ctx.Context) {
	var in services.CommissionInput
	if !c.DecodeJSON(&in) {
		return
	}
	v, err := ac.svc.SetCommissionRate(c.Context(), c.Param("id"), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(v)
}

func (ac *AdminController) Products(c *ctx.Context) {
	products, err := ac.svc.ListProducts(c.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(products)
}

func (ac *AdminController) Orders(c *ctx.Context) {
	orders, err := ac.svc.ListOrders(c.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(resource.Collection(orders, AdminOrderSummary))
}

func (ac *AdminController) SetOrderStatus(c *ctx.Context) {
	var in services.OrderStatusInput
	if !c.DecodeJSON(&in) {
		return
	}
	o, err := ac.svc.SetOrderStatus(c.Context(), c.Param("id"), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(o)
}

// VendorRow is a store as the moderation table lists it.
func VendorRow(v models.VendorProfile) resource.Map {
	row := resource.Map{
		"id":              v.ID,
		"user_id":         v.UserID,
		"store_name":      v.StoreName,
		"status":          v.Status,
		"commission_rate": v.CommissionRate,
		"total_sales":     v.TotalSales,
		"email":           "",
		"full_name":       "",
		"created_at":      v.CreatedAt,
	}
	if v.Profile != nil {
		row["email"] = v.Profile.Email
		row["full_name"] = v.Profile.FullName
	}
	return row
}
