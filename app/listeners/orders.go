// Package listeners wires domain events to background jobs and live feeds.
package listeners

import (
	"context"
	"errors"
	"fmt"

	"github.com/shashiranjanraj/markethub/app/jobs"
	"github.com/shashiranjanraj/markethub/app/services"
	"github.com/shashiranjanraj/markethub/pkg/event"
	"github.com/shashiranjanraj/markethub/pkg/queue"
	"github.com/shashiranjanraj/markethub/pkg/sse"
)

// Publisher broadcasts to the admin live feed. *ws.Hub implements it.
type Publisher interface {
	Publish(ctx context.Context, typ string, data any) error
}

// Register subscribes the order workflow listeners. hub and feed may be
// nil, as in CLI commands that run without the HTTP server.
func Register(hub Publisher, feed *sse.Broker) {
	event.Listen(services.EventOrderPlaced, func(ctx context.Context, payload any) error {
		p, ok := payload.(services.OrderPlaced)
		if !ok {
			return fmt.Errorf("listeners: unexpected %T for %s", payload, services.EventOrderPlaced)
		}
		errs := []error{
			queue.Dispatch(ctx, jobs.SendOrderConfirmation{OrderID: p.OrderID}),
			queue.Dispatch(ctx, jobs.NotifyVendorsOfOrder{OrderID: p.OrderID}),
		}
		if hub != nil {
			errs = append(errs, hub.Publish(ctx, services.EventOrderPlaced, p))
		}
		if feed != nil {
			for _, vendorID := range p.VendorIDs {
				feed.Publish(vendorID, sse.Event{Name: services.EventOrderPlaced, Data: p})
			}
		}
		return errors.Join(errs...)
	})

	broadcast := func(name string) event.Handler {
		return func(ctx context.Context, payload any) error {
			if hub == nil {
				return nil
			}
			return hub.Publish(ctx, name, payload)
		}
	}
	event.Listen(services.EventOrderStatusChanged, broadcast(services.EventOrderStatusChanged))
	event.Listen(services.EventVendorStatusChange, broadcast(services.EventVendorStatusChange))
}
