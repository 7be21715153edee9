package queue_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/markethub/pkg/queue"
	"github.com/shashiranjanraj/markethub/pkg/testkit"
)

var (
	seen   sync.Map
	counts atomic.Int32
)

type recordJob struct {
	OrderID string `json:"order_id"`
}

func (recordJob) Name() string { return "test.record" }
func (j recordJob) Handle(context.Context) error {
	seen.Store(j.OrderID, true)
	return nil
}

type flakyJob struct {
	FailTimes int32 `json:"fail_times"`
}

func (*flakyJob) Name() string { return "test.flaky" }
func (j *flakyJob) Handle(context.Context) error {
	if counts.Add(1) <= j.FailTimes {
		return errors.New("transient")
	}
	return nil
}

func startManager(t *testing.T, m *queue.Manager) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx, 2)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func TestDispatchAndProcess(t *testing.T) {
	m := queue.New(queue.NewMemoryDriver(10))
	m.Register(recordJob{})
	startManager(t, m)

	require.NoError(t, m.Dispatch(context.Background(), recordJob{OrderID: "o-1"}))

	assert.Eventually(t, func() bool {
		_, ok := seen.Load("o-1")
		return ok
	}, time.Second, 10*time.Millisecond)
}

func TestRetryThenSucceed(t *testing.T) {
	counts.Store(0)
	m := queue.New(queue.NewMemoryDriver(10))
	m.SetRetry(3, time.Millisecond)
	m.Register(&flakyJob{})
	startManager(t, m)

	require.NoError(t, m.Dispatch(context.Background(), &flakyJob{FailTimes: 2}))

	assert.Eventually(t, func() bool { return counts.Load() == 3 }, time.Second, 5*time.Millisecond)
	assert.Empty(t, m.FailedJobs())
}

func TestExhaustedJobIsPersisted(t *testing.T) {
	counts.Store(0)
	db := testkit.OpenDB(t, &queue.FailedJobRecord{})

	m := queue.New(queue.NewMemoryDriver(10))
	m.SetRetry(2, time.Millisecond)
	m.UseDB(db)
	m.Register(&flakyJob{})
	startManager(t, m)

	require.NoError(t, m.Dispatch(context.Background(), &flakyJob{FailTimes: 100}))

	require.Eventually(t, func() bool { return len(m.FailedJobs()) == 1 }, time.Second, 5*time.Millisecond)
	f := m.FailedJobs()[0]
	assert.Equal(t, "test.flaky", f.Name)
	assert.Equal(t, 2, f.Attempts)
	assert.Equal(t, "transient", f.Err)

	stored, err := m.StoredFailures(context.Background())
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.JSONEq(t, `{"fail_times":100}`, stored[0].Payload)
}

func TestUnknownJobIsRecordedAsFailed(t *testing.T) {
	m := queue.New(queue.NewMemoryDriver(10))
	startManager(t, m)

	require.NoError(t, m.Dispatch(context.Background(), recordJob{OrderID: "lost"}))

	require.Eventually(t, func() bool { return len(m.FailedJobs()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "test.record", m.FailedJobs()[0].Name)
}

func TestMemoryDriverFull(t *testing.T) {
	d := queue.NewMemoryDriver(1)
	require.NoError(t, d.Push(context.Background(), []byte("a")))
	assert.ErrorIs(t, d.Push(context.Background(), []byte("b")), queue.ErrQueueFull)
	assert.Equal(t, 1, d.Len())
}
