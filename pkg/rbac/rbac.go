// Package rbac gates routes on the role carried by the request's session.
package rbac

import (
	"net/http"

	"github.com/shashiranjanraj/markethub/pkg/response"
	"github.com/shashiranjanraj/markethub/pkg/session"
)

// HasRole lets through only sessions whose role is one of roles. It must
// run after middleware.Auth.
func HasRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, ok := session.FromContext(r.Context())
			if !ok {
				response.Unauthorized(w, "Unauthorized")
				return
			}
			if !allowed[s.Role] {
				response.Forbidden(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
