package ledgerline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureSink struct {
	mu     sync.Mutex
	events []AuditEvent
	fail   error
}

func (s *captureSink) publish(ctx context.Context, event AuditEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.events = append(s.events, event)
	return nil
}

func (s *captureSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func TestBufferedPublisherShutdownDrains(t *testing.T) {
	sink := &captureSink{}
	bp := newBufferedPublisher(sink.publish, WithFlushInterval(time.Hour))

	bp.Enqueue(AuditEvent{"action": "a"})
	bp.Enqueue(AuditEvent{"action": "b"})
	require.NoError(t, bp.Shutdown(context.Background()))
	assert.Equal(t, 2, sink.count())
}

func TestBufferedPublisherPreservesOrder(t *testing.T) {
	sink := &captureSink{}
	bp := newBufferedPublisher(sink.publish, WithFlushInterval(time.Hour))
	for _, action := range []string{"a", "b", "c"} {
		bp.Enqueue(AuditEvent{"action": action})
	}
	require.NoError(t, bp.Shutdown(context.Background()))
	require.Equal(t, 3, sink.count())
	assert.Equal(t, "a", sink.events[0]["action"])
	assert.Equal(t, "c", sink.events[2]["action"])
}

func TestBufferedPublisherOverflowDropsOldest(t *testing.T) {
	var overflow error
	sink := &captureSink{}
	bp := newBufferedPublisher(sink.publish,
		WithFlushInterval(time.Hour),
		WithMaxQueueSize(2),
		WithBufferOnError(func(err error) { overflow = err }),
	)
	bp.Enqueue(AuditEvent{"action": "a"})
	bp.Enqueue(AuditEvent{"action": "b"})
	bp.Enqueue(AuditEvent{"action": "c"})
	require.NoError(t, bp.Shutdown(context.Background()))

	require.Error(t, overflow)
	require.Equal(t, 2, sink.count())
	assert.Equal(t, "b", sink.events[0]["action"], "the oldest event is dropped")
}

func TestBufferedPublisherReportsPublishErrors(t *testing.T) {
	var got error
	sink := &captureSink{fail: errors.New("publish down")}
	bp := newBufferedPublisher(sink.publish,
		WithFlushInterval(time.Hour),
		WithBufferOnError(func(err error) { got = err }),
	)
	bp.Enqueue(AuditEvent{"action": "a"})
	require.NoError(t, bp.Shutdown(context.Background()))
	assert.EqualError(t, got, "publish down")
}

func TestBufferedPublisherPeriodicFlush(t *testing.T) {
	sink := &captureSink{}
	bp := newBufferedPublisher(sink.publish, WithFlushInterval(5*time.Millisecond))
	defer bp.Shutdown(context.Background())

	bp.Enqueue(AuditEvent{"action": "a"})
	assert.Eventually(t, func() bool { return sink.count() == 1 }, time.Second, time.Millisecond)
}
