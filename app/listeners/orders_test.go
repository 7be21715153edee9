package listeners_test

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/markethub/app/listeners"
	"github.com/shashiranjanraj/markethub/app/services"
	"github.com/shashiranjanraj/markethub/pkg/event"
	"github.com/shashiranjanraj/markethub/pkg/queue"
	"github.com/shashiranjanraj/markethub/pkg/sse"
)

type recorder struct {
	mu    sync.Mutex
	types []string
}

func (r *recorder) Publish(_ context.Context, typ string, _ any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types = append(r.types, typ)
	return nil
}

func TestOrderPlacedFansOut(t *testing.T) {
	t.Cleanup(event.Flush)
	driver := queue.NewMemoryDriver(10)
	queue.SetDriver(driver)

	hub := &recorder{}
	feed := sse.NewBroker()
	vendorEvents, cancel := feed.Subscribe("u-vendor")
	defer cancel()
	listeners.Register(hub, feed)

	event.Fire(context.Background(), services.EventOrderPlaced, services.OrderPlaced{
		OrderID:   "o-1",
		BuyerID:   "u-buyer",
		Total:     decimal.NewFromInt(40),
		VendorIDs: []string{"u-vendor"},
	})

	assert.Equal(t, 2, driver.Len())
	assert.Equal(t, []string{services.EventOrderPlaced}, hub.types)
	require.Len(t, vendorEvents, 1)
	e := <-vendorEvents
	assert.Equal(t, "o-1", e.Data.(services.OrderPlaced).OrderID)

	event.Fire(context.Background(), services.EventOrderStatusChanged, services.OrderStatusChanged{OrderID: "o-1", To: "completed"})
	assert.Equal(t, []string{services.EventOrderPlaced, services.EventOrderStatusChanged}, hub.types)
}

func TestRegisterWithoutHub(t *testing.T) {
	t.Cleanup(event.Flush)
	driver := queue.NewMemoryDriver(10)
	queue.SetDriver(driver)
	listeners.Register(nil, nil)

	event.Fire(context.Background(), services.EventOrderPlaced, services.OrderPlaced{OrderID: "o-2"})
	event.Fire(context.Background(), services.EventVendorStatusChange, services.VendorStatusChanged{VendorID: "v-1"})
	assert.Equal(t, 2, driver.Len())
}
