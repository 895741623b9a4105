package events_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"contentpay_backend/internal/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type recordingListener struct {
	name string
	mu   sync.Mutex
	got  []events.Event
	err  error
}

func (l *recordingListener) Name() string { return l.name }

func (l *recordingListener) Handle(_ context.Context, e events.Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.got = append(l.got, e)
	return l.err
}

func (l *recordingListener) received() []events.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]events.Event(nil), l.got...)
}

type panickingListener struct{}

func (panickingListener) Name() string { return "panics" }
func (panickingListener) Handle(context.Context, events.Event) error {
	panic("boom")
}

// blockingListener signals on the first event and then waits for release.
type blockingListener struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (l *blockingListener) Name() string { return "blocking" }
func (l *blockingListener) Handle(context.Context, events.Event) error {
	l.once.Do(func() { close(l.started) })
	<-l.release
	return nil
}

func TestAsyncPublisher_DeliversToEveryListener(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	failing := &recordingListener{name: "failing", err: errors.New("smtp down")}
	ok := &recordingListener{name: "ok"}
	p := events.NewAsyncPublisher(2, 8, failing, panickingListener{}, ok)

	assert.True(t, p.Publish(t.Context(), events.PaymentCompleted{MerchantUid: "ORDER-20250101-120000-ABC123"}))
	assert.True(t, p.Publish(t.Context(), events.PaymentRefunded{MerchantUid: "ORDER-20250101-120000-ABC123"}))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, p.Close(ctx))

	assert.Len(t, failing.received(), 2)
	assert.Len(t, ok.received(), 2)
}

func TestAsyncPublisher_DropsWhenFull(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	blocking := &blockingListener{started: make(chan struct{}), release: make(chan struct{})}
	p := events.NewAsyncPublisher(1, 1, blocking)

	require.True(t, p.Publish(t.Context(), events.PaymentCompleted{}))
	<-blocking.started

	assert.True(t, p.Publish(t.Context(), events.PaymentCompleted{}), "fills the queue")
	assert.False(t, p.Publish(t.Context(), events.PaymentCompleted{}), "queue is full")

	close(blocking.release)
	require.NoError(t, p.Close(context.Background()))
}

func TestAsyncPublisher_PublishAfterClose(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	p := events.NewAsyncPublisher(1, 1)
	require.NoError(t, p.Close(context.Background()))
	require.NoError(t, p.Close(context.Background()))

	assert.False(t, p.Publish(t.Context(), events.PaymentCompleted{}))
}

func TestAsyncPublisher_CloseHonoursDeadline(t *testing.T) {
	blocking := &blockingListener{started: make(chan struct{}), release: make(chan struct{})}
	p := events.NewAsyncPublisher(1, 1, blocking)
	require.True(t, p.Publish(t.Context(), events.PaymentCompleted{}))
	<-blocking.started

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, p.Close(ctx), context.DeadlineExceeded)

	close(blocking.release)
}

func TestSyncPublisher(t *testing.T) {
	l := &recordingListener{name: "sync"}
	p := events.NewSyncPublisher(panickingListener{}, l)

	assert.True(t, p.Publish(t.Context(), events.PaymentCompleted{}))
	assert.Len(t, l.received(), 1)
}
