// Package ctx gives handlers a single *Context instead of the
// (http.ResponseWriter, *http.Request) pair:
//
//	func (c *CartController) Index(x *ctx.Context) {
//	    cart, err := c.svc.List(x.Context(), x.Session().UserID)
//	    ...
//	    x.Success(cart)
//	}
//
//	r.Get("/cart", "cart.index", ctx.Wrap(cartController.Index))
package ctx

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/shashiranjanraj/markethub/pkg/bind"
	"github.com/shashiranjanraj/markethub/pkg/logger"
	"github.com/shashiranjanraj/markethub/pkg/orm"
	"github.com/shashiranjanraj/markethub/pkg/response"
	"github.com/shashiranjanraj/markethub/pkg/session"
	"github.com/shashiranjanraj/markethub/pkg/validate"
)

type HandlerFunc func(c *Context)

// Wrap adapts a HandlerFunc to net/http.
func Wrap(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := acquire(w, r)
		defer release(c)
		h(c)
	}
}

type Context struct {
	W      http.ResponseWriter
	R      *http.Request
	status int
}

var pool = sync.Pool{
	New: func() any { return &Context{} },
}

func acquire(w http.ResponseWriter, r *http.Request) *Context {
	c := pool.Get().(*Context)
	c.W = w
	c.R = r
	c.status = 0
	return c
}

func release(c *Context) {
	c.W = nil
	c.R = nil
	pool.Put(c)
}

// ─── Request helpers ──────────────────────────────────────────────────────────

func (c *Context) Param(key string) string { return chi.URLParam(c.R, key) }

func (c *Context) Query(key string) string { return strings.TrimSpace(c.R.URL.Query().Get(key)) }

func (c *Context) QueryInt(key string, def int) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return def
	}
	return n
}

func (c *Context) Header(key string) string { return c.R.Header.Get(key) }

func (c *Context) Context() context.Context { return c.R.Context() }

// Session is the signed-in user's session. It is nil on public routes.
func (c *Context) Session() *session.Session {
	s, _ := session.FromContext(c.R.Context())
	return s
}

// UserID is the signed-in user's id, or "" on public routes.
func (c *Context) UserID() string {
	if s := c.Session(); s != nil {
		return s.UserID
	}
	return ""
}

func (c *Context) Role() string {
	if s := c.Session(); s != nil {
		return s.Role
	}
	return ""
}

// ─── Binding / Validation ─────────────────────────────────────────────────────

// BindJSON decodes and validates the body into dest. On failure it writes
// a 400 or 422 response and returns false.
func (c *Context) BindJSON(dest any) bool {
	errs, err := bind.JSON(c.R, dest)
	if err != nil {
		c.Error(http.StatusBadRequest, err.Error())
		return false
	}
	if validate.HasErrors(errs) {
		c.ValidationError(errs)
		return false
	}
	return true
}

// DecodeJSON decodes the body into dest without validating it. On failure
// it writes a 400 and returns false.
func (c *Context) DecodeJSON(dest any) bool {
	if err := bind.Decode(c.R, dest); err != nil {
		c.Error(http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

// ─── Response helpers ─────────────────────────────────────────────────────────

func (c *Context) JSON(code int, body response.Envelope) {
	c.status = code
	response.Write(c.W, code, body)
}

func (c *Context) Success(data any) {
	c.JSON(http.StatusOK, response.Envelope{Status: http.StatusOK, Data: data})
}

func (c *Context) Created(data any) {
	c.JSON(http.StatusCreated, response.Envelope{Status: http.StatusCreated, Data: data})
}

func (c *Context) Paginated(items any, p orm.Pagination) {
	c.Success(map[string]any{"items": items, "pagination": p})
}

func (c *Context) NoContent() {
	c.status = http.StatusNoContent
	c.W.WriteHeader(http.StatusNoContent)
}

func (c *Context) Error(code int, message string) {
	c.JSON(code, response.Envelope{Status: code, Message: message})
}

func (c *Context) ValidationError(errs map[string]string) {
	c.JSON(http.StatusUnprocessableEntity, response.Envelope{
		Status:  http.StatusUnprocessableEntity,
		Message: "Validation failed",
		Errors:  errs,
	})
}

func (c *Context) Unauthorized(message string) { c.Error(http.StatusUnauthorized, message) }
func (c *Context) Forbidden(message string)    { c.Error(http.StatusForbidden, message) }
func (c *Context) NotFound(message string)     { c.Error(http.StatusNotFound, message) }
func (c *Context) Conflict(message string)     { c.Error(http.StatusConflict, message) }

// InternalError logs err with the request logger and sends a generic 500.
func (c *Context) InternalError(err error) {
	logger.WithCtx(c.Context()).Error("request failed", "path", c.R.URL.Path, "error", err)
	c.Error(http.StatusInternalServerError, "Internal server error")
}

// WrittenStatus is the status code written so far, or 0.
func (c *Context) WrittenStatus() int { return c.status }
