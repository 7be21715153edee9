// Package controllers adapts HTTP requests to the services in app/services.
// Handlers decode, call one service method and render its result or error.
package controllers

import (
	"errors"
	"net/http"

	"github.com/shashiranjanraj/markethub/app/services"
	"github.com/shashiranjanraj/markethub/pkg/ctx"
)

// fail renders a service error with the status it maps to. Anything that
// is not a known domain error is logged and hidden behind a 500.
func fail(c *ctx.Context, err error) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		c.ValidationError(verr.Fields)
	case errors.Is(err, services.ErrNotFound):
		c.NotFound("Not found")
	case errors.Is(err, services.ErrForbidden):
		c.Forbidden("You are not allowed to do that")
	case errors.Is(err, services.ErrInvalidCredentials):
		c.Unauthorized("Invalid email or password")
	case errors.Is(err, services.ErrEmailTaken):
		c.Conflict("Email is already registered")
	case errors.Is(err, services.ErrVendorProfileExists):
		c.Conflict("Your store is already set up")
	case errors.Is(err, services.ErrInsufficientStock):
		c.Conflict("Not enough stock for one of the items")
	case errors.Is(err, services.ErrDuplicateRequest):
		c.Conflict("This checkout is already being processed")
	case errors.Is(err, services.ErrProductUnavailable):
		c.Conflict("A product is no longer available")
	case errors.Is(err, services.ErrEmptyCart):
		c.Error(http.StatusBadRequest, "Your cart is empty")
	case errors.Is(err, services.ErrNoVendorProfile):
		c.Forbidden("Set up your store first")
	case errors.Is(err, services.ErrInvalidStatus):
		c.ValidationError(map[string]string{"status": "The status is not valid."})
	default:
		c.InternalError(err)
	}
}
