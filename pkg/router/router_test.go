package router_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/markethub/pkg/router"
)

func ok(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }

func tag(v string) router.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add("X-Chain", v)
			next.ServeHTTP(w, r)
		})
	}
}

func TestGroupsAndNamedRoutes(t *testing.T) {
	r := router.New()
	api := r.Group("/api", tag("api"))
	vendor := api.Group("vendor", tag("vendor"))
	vendor.Put("/products/{id}", "vendor.products.update", ok, tag("route"))
	vendor.Delete("/products/{id}", "vendor.products.delete", ok)

	req := httptest.NewRequest(http.MethodPut, "/api/vendor/products/7", nil)
	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"api", "vendor", "route"}, rec.Header().Values("X-Chain"))

	url, err := r.URL("vendor.products.update", map[string]string{"id": "7"})
	require.NoError(t, err)
	assert.Equal(t, "/api/vendor/products/7", url)

	_, err = r.URL("vendor.products.update", nil)
	assert.Error(t, err)
	_, err = r.URL("nope", nil)
	assert.Error(t, err)
}

func TestRoutesListing(t *testing.T) {
	r := router.New()
	r.Get("/", "home", ok)
	g := r.Group("/api")
	g.Post("/checkout", "checkout", ok)
	g.Put("/admin/orders/{id}/status", "", ok)
	r.Mount("/storage", "storage", http.NotFoundHandler())

	assert.Equal(t, []router.Route{
		{Method: "GET", Path: "/", Name: "home"},
		{Method: "PUT", Path: "/api/admin/orders/{id}/status"},
		{Method: "POST", Path: "/api/checkout", Name: "checkout"},
		{Method: "*", Path: "/storage/*", Name: "storage"},
	}, r.Routes())
}
