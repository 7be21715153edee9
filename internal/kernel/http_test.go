package kernel_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/markethub/app/models"
	"github.com/shashiranjanraj/markethub/app/routes"
	"github.com/shashiranjanraj/markethub/internal/kernel"
	"github.com/shashiranjanraj/markethub/pkg/reqid"
	"github.com/shashiranjanraj/markethub/pkg/session"
	"github.com/shashiranjanraj/markethub/pkg/testkit"
)

func newHandler(t *testing.T, probe func(context.Context) error) http.Handler {
	t.Helper()
	db := testkit.OpenDB(t, models.All()...)
	require.NoError(t, db.Create(&models.Product{
		Base:          models.Base{ID: "p-1"},
		VendorID:      "u-1",
		Name:          "Desk Lamp",
		Price:         decimal.NewFromInt(20),
		StockQuantity: 2,
		Category:      "lighting",
		Status:        models.ProductActive,
	}).Error)

	r, err := kernel.NewRouter(kernel.Options{
		Deps:  routes.Deps{DB: db, Sessions: session.NewMemoryStore()},
		Probe: probe,
	})
	require.NoError(t, err)
	return r.Handler()
}

func TestHealth(t *testing.T) {
	t.Run("up", func(t *testing.T) {
		h := newHandler(t, func(context.Context) error { return nil })
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.NotEmpty(t, rec.Header().Get(reqid.Header))
	})
	t.Run("down", func(t *testing.T) {
		h := newHandler(t, func(context.Context) error { return errors.New("db gone") })
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestGraphQLCatalog(t *testing.T) {
	h := newHandler(t, nil)
	body := `{"query":"{ categories products { id price } }"}`
	req := httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":{"categories":["lighting"],"products":[{"id":"p-1","price":"20.00"}]}}`, rec.Body.String())
}

func TestMetricsAndAPIMounted(t *testing.T) {
	h := newHandler(t, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/hello", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Hello from backend API"}`, rec.Body.String())
}
