package controllers

import (
	"github.com/shashiranjanraj/markethub/app/services"
	"github.com/shashiranjanraj/markethub/pkg/ctx"
)

type CatalogController struct {
	svc *services.CatalogService
}

func NewCatalogController(svc *services.CatalogService) *CatalogController {
	return &CatalogController{svc: svc}
}

// Index handles GET /api/products?search=&category=&page=&per_page=.
func (cc *CatalogController) Index(c *ctx.Context) {
	items, page, err := cc.svc.ListActive(c.Context(), services.ProductFilter{
		Search:   c.Query("search"),
		Category: c.Query("category"),
		Page:     c.QueryInt("page", 1),
		PerPage:  c.QueryInt("per_page", 24),
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.Paginated(items, page)
}

func (cc *CatalogController) Categories(c *ctx.Context) {
	cats, err := cc.svc.Categories(c.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(cats)
}

// Show handles both /api/products/{id} and /api/products/{id}/{slug}. The
// slug is cosmetic; the canonical one is in the response.
func (cc *CatalogController) Show(c *ctx.Context) {
	p, err := cc.svc.Get(c.Context(), c.Session(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(p)
}
