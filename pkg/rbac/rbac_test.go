package rbac_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/shashiranjanraj/markethub/pkg/rbac"
	"github.com/shashiranjanraj/markethub/pkg/session"
)

func TestHasRole(t *testing.T) {
	h := rbac.HasRole("vendor", "admin")(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))

	cases := []struct {
		name string
		role string
		want int
	}{
		{"anonymous", "", http.StatusUnauthorized},
		{"buyer", "buyer", http.StatusForbidden},
		{"vendor", "vendor", http.StatusOK},
		{"admin", "admin", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.role != "" {
				s := session.New("u-1", tc.role, time.Hour)
				req = req.WithContext(session.WithSession(req.Context(), s))
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}
