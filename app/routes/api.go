// Package routes registers the marketplace's HTTP endpoints.
package routes

import (
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/markethub/app/controllers"
	"github.com/shashiranjanraj/markethub/app/models"
	"github.com/shashiranjanraj/markethub/app/services"
	"github.com/shashiranjanraj/markethub/pkg/ctx"
	"github.com/shashiranjanraj/markethub/pkg/middleware"
	"github.com/shashiranjanraj/markethub/pkg/rbac"
	"github.com/shashiranjanraj/markethub/pkg/response"
	"github.com/shashiranjanraj/markethub/pkg/router"
	"github.com/shashiranjanraj/markethub/pkg/session"
	"github.com/shashiranjanraj/markethub/pkg/sse"
	"github.com/shashiranjanraj/markethub/pkg/storage"
)

// Deps is what the handlers are built from. Disk is optional and
// defaults to the configured storage disk; Hub is optional too.
type Deps struct {
	DB       *gorm.DB
	Sessions session.Store
	Hub      http.Handler
	Feed     *sse.Broker
	Disk     storage.Disk
}

func RegisterAPI(r *router.Router, d Deps) {
	catalog := services.NewCatalogService(d.DB)
	if d.Disk != nil {
		catalog.WithDisk(d.Disk)
	}
	feed := d.Feed
	if feed == nil {
		feed = sse.NewBroker()
	}

	authC := controllers.NewAuthController(services.NewAuthService(d.DB, d.Sessions))
	catalogC := controllers.NewCatalogController(catalog)
	cartC := controllers.NewCartController(services.NewCartService(d.DB))
	orderC := controllers.NewOrderController(services.NewCheckoutService(d.DB))
	vendorC := controllers.NewVendorController(services.NewVendorService(d.DB), catalog, feed)
	adminC := controllers.NewAdminController(services.NewAdminService(d.DB))

	signedIn := middleware.Auth(d.Sessions)
	throttle := middleware.RateLimit(middleware.DefaultLimiter(), 20, time.Minute)

	r.Get("/", "home", func(w http.ResponseWriter, _ *http.Request) {
		response.JSONMessage(w, http.StatusOK, "Backend API is running")
	})

	api := r.Group("/api")
	api.Get("/hello", "hello", func(w http.ResponseWriter, _ *http.Request) {
		response.JSONMessage(w, http.StatusOK, "Hello from backend API")
	})

	auth := api.Group("/auth")
	auth.Post("/signup", "auth.signup", ctx.Wrap(authC.SignUp), throttle)
	auth.Post("/signin", "auth.signin", ctx.Wrap(authC.SignIn), throttle)
	auth.Post("/signout", "auth.signout", ctx.Wrap(authC.SignOut), signedIn)
	auth.Get("/me", "auth.me", ctx.Wrap(authC.Me), signedIn)

	products := api.Group("/products", middleware.OptionalAuth(d.Sessions))
	products.Get("/", "products.index", ctx.Wrap(catalogC.Index))
	products.Get("/categories", "products.categories", ctx.Wrap(catalogC.Categories))
	products.Get("/{id}", "products.show", ctx.Wrap(catalogC.Show))
	products.Get("/{id}/{slug}", "products.canonical", ctx.Wrap(catalogC.Show))

	buyer := api.Group("/", signedIn)
	buyer.Get("/cart", "cart.index", ctx.Wrap(cartC.Index))
	buyer.Post("/cart", "cart.store", ctx.Wrap(cartC.Store))
	buyer.Put("/cart/{id}", "cart.update", ctx.Wrap(cartC.Update))
	buyer.Delete("/cart", "cart.clear", ctx.Wrap(cartC.Clear))
	buyer.Post("/checkout", "checkout", ctx.Wrap(orderC.Checkout))
	buyer.Get("/orders", "orders.index", ctx.Wrap(orderC.Index))
	buyer.Get("/orders/{id}/confirmation", "orders.confirmation", ctx.Wrap(orderC.Confirmation))

	vendor := api.Group("/vendor", signedIn, rbac.HasRole(models.RoleVendor, models.RoleAdmin))
	vendor.Get("/store", "vendor.store", ctx.Wrap(vendorC.Store))
	vendor.Post("/store", "vendor.store.setup", ctx.Wrap(vendorC.SetupStore))
	vendor.Put("/store", "vendor.store.update", ctx.Wrap(vendorC.UpdateStore))
	vendor.Get("/products", "vendor.products", ctx.Wrap(vendorC.Products))
	vendor.Post("/products", "vendor.products.store", ctx.Wrap(vendorC.CreateProduct))
	vendor.Put("/products/{id}", "vendor.products.update", ctx.Wrap(vendorC.UpdateProduct))
	vendor.Delete("/products/{id}", "vendor.products.destroy", ctx.Wrap(vendorC.DeleteProduct))
	vendor.Post("/products/{id}/image", "vendor.products.image", ctx.Wrap(vendorC.UploadImage))
	vendor.Get("/earnings", "vendor.earnings", ctx.Wrap(vendorC.Earnings))
	vendor.Get("/orders/stream", "vendor.orders.stream", ctx.Wrap(vendorC.Stream))

	admin := api.Group("/admin", signedIn, rbac.HasRole(models.RoleAdmin))
	admin.Get("/overview", "admin.overview", ctx.Wrap(adminC.Overview))
	admin.Get("/vendors", "admin.vendors", ctx.Wrap(adminC.Vendors))
	admin.Put("/vendors/{id}/status", "admin.vendors.status", ctx.Wrap(adminC.SetVendorStatus))
	admin.Put("/vendors/{id}/commission", "admin.vendors.commission", ctx.Wrap(adminC.SetCommission))
	admin.Get("/products", "admin.products", ctx.Wrap(adminC.Products))
	admin.Get("/orders", "admin.orders", ctx.Wrap(adminC.Orders))
	admin.Put("/orders/{id}/status", "admin.orders.status", ctx.Wrap(adminC.SetOrderStatus))

	if d.Hub != nil {
		ws := r.Group("/ws", signedIn, rbac.HasRole(models.RoleAdmin))
		ws.Get("/admin/orders", "ws.admin.orders", d.Hub.ServeHTTP)
	}
}
