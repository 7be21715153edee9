package controllers

import (
	"net/http"
	"time"

	"github.com/shashiranjanraj/markethub/app/services"
	"github.com/shashiranjanraj/markethub/pkg/ctx"
	"github.com/shashiranjanraj/markethub/pkg/sse"
)

type VendorController struct {
	vendors *services.VendorService
	catalog *services.CatalogService
	feed    *sse.Broker
}

func NewVendorController(vendors *services.VendorService, catalog *services.CatalogService, feed *sse.Broker) *VendorController {
	return &VendorController{vendors: vendors, catalog: catalog, feed: feed}
}

func (vc *VendorController) Store(c *ctx.Context) {
	v, err := vc.vendors.Store(c.Context(), c.UserID())
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(v)
}

func (vc *VendorController) SetupStore(c *ctx.Context) {
	var in services.StoreInput
	if !c.DecodeJSON(&in) {
		return
	}
	v, err := vc.vendors.SetupStore(c.Context(), c.UserID(), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.Created(v)
}

func (vc *VendorController) UpdateStore(c *ctx.Context) {
	var in services.StoreInput
	if !c.DecodeJSON(&in) {
		return
	}
	v, err := vc.vendors.UpdateStore(c.Context(), c.UserID(), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(v)
}

func (vc *VendorController) Products(c *ctx.Context) {
	products, err := vc.catalog.VendorProducts(c.Context(), c.UserID())
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(products)
}

func (vc *VendorController) CreateProduct(c *ctx.Context) {
	var in services.ProductInput
	if !c.DecodeJSON(&in) {
		return
	}
	p, err := vc.catalog.Create(c.Context(), c.UserID(), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.Created(p)
}

func (vc *VendorController) UpdateProduct(c *ctx.Context) {
	var in services.ProductInput
	if !c.DecodeJSON(&in) {
		return
	}
	p, err := vc.catalog.Update(c.Context(), c.Session(), c.Param("id"), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(p)
}

func (vc *VendorController) DeleteProduct(c *ctx.Context) {
	if err := vc.catalog.Delete(c.Context(), c.Session(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.NoContent()
}

// UploadImage handles POST /api/vendor/products/{id}/image with the file
// in the multipart field "image".
func (vc *VendorController) UploadImage(c *ctx.Context) {
	c.R.Body = http.MaxBytesReader(c.W, c.R.Body, services.MaxImageBytes+1<<20)
	if err := c.R.ParseMultipartForm(services.MaxImageBytes); err != nil {
		c.Error(http.StatusBadRequest, "Expected a multipart form no larger than 5 MB")
		return
	}
	file, _, err := c.R.FormFile("image")
	if err != nil {
		c.ValidationError(map[string]string{"image": "The image field is required."})
		return
	}
	defer file.Close()

	p, err := vc.catalog.UploadImage(c.Context(), c.Session(), c.Param("id"), file)
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(p)
}

func (vc *VendorController) Earnings(c *ctx.Context) {
	e, err := vc.vendors.Earnings(c.Context(), c.UserID())
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(e)
}

// Stream handles GET /api/vendor/orders/stream: one SSE event per order
// that includes the vendor's products.
func (vc *VendorController) Stream(c *ctx.Context) {
	events, cancel := vc.feed.Subscribe(c.UserID())
	defer cancel()
	stream := sse.New(c.W, c.R)
	if stream == nil {
		return
	}
	stream.Pump(events, 25*time.Second)
}
