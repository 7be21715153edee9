// Package kernel assembles the HTTP handler: global middleware, the
// operational endpoints and the marketplace API.
package kernel

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/shashiranjanraj/markethub/app/gql"
	"github.com/shashiranjanraj/markethub/app/routes"
	"github.com/shashiranjanraj/markethub/app/services"
	"github.com/shashiranjanraj/markethub/pkg/database"
	gqlhttp "github.com/shashiranjanraj/markethub/pkg/graphql"
	"github.com/shashiranjanraj/markethub/pkg/metrics"
	"github.com/shashiranjanraj/markethub/pkg/middleware"
	"github.com/shashiranjanraj/markethub/pkg/reqid"
	"github.com/shashiranjanraj/markethub/pkg/response"
	"github.com/shashiranjanraj/markethub/pkg/router"
	"github.com/shashiranjanraj/markethub/pkg/storage"
)

// Options configures NewRouter. Files, when set, is served read-only under
// /storage so locally stored product images resolve.
type Options struct {
	routes.Deps
	Files *storage.LocalDisk
	Probe func(ctx context.Context) error
}

// NewRouter builds the full route table. Middleware order, outermost
// first: metrics, recovery, request id, access log, CORS, global rate limit.
func NewRouter(o Options) (*router.Router, error) {
	r := router.New()
	r.Use(
		metrics.Middleware(),
		middleware.Recovery,
		reqid.Middleware(),
		middleware.Logger,
		middleware.CORS(middleware.DefaultCORSOptions()),
		middleware.RateLimit(middleware.DefaultLimiter(), 300, time.Minute),
	)

	probe := o.Probe
	if probe == nil {
		probe = database.Ping
	}
	r.Get("/health", "health", func(w http.ResponseWriter, req *http.Request) {
		c, cancel := context.WithTimeout(req.Context(), 2*time.Second)
		defer cancel()
		if err := probe(c); err != nil {
			response.JSONMessage(w, http.StatusServiceUnavailable, "unavailable")
			return
		}
		response.JSONMessage(w, http.StatusOK, "ok")
	})
	r.Get("/metrics", "metrics", metrics.Handler())

	if o.Files != nil {
		r.Mount("/storage", "storage", o.Files.Handler("/storage"))
	}

	catalog := services.NewCatalogService(o.DB)
	if o.Disk != nil {
		catalog.WithDisk(o.Disk)
	}
	schema, err := gql.Schema(catalog)
	if err != nil {
		return nil, fmt.Errorf("kernel: graphql schema: %w", err)
	}
	viewer := middleware.OptionalAuth(o.Sessions)
	r.Get("/graphql", "graphql.query", gqlhttp.Handler(schema), viewer)
	r.Post("/graphql", "graphql", gqlhttp.Handler(schema), viewer)

	routes.RegisterAPI(r, o.Deps)
	return r, nil
}
