package ledgerline

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// BufferOption configures the BufferedPublisher.
type BufferOption func(*bufferConfig)

type bufferConfig struct {
	flushInterval time.Duration
	maxQueueSize  int
	onError       func(error)
}

func defaultBufferConfig() bufferConfig {
	return bufferConfig{
		flushInterval: 5 * time.Second,
		maxQueueSize:  10000,
	}
}

// WithFlushInterval sets the periodic flush interval (default 5s).
func WithFlushInterval(d time.Duration) BufferOption {
	return func(c *bufferConfig) { c.flushInterval = d }
}

// WithMaxQueueSize sets the maximum queued events before the oldest are
// dropped (default 10000).
func WithMaxQueueSize(n int) BufferOption {
	return func(c *bufferConfig) { c.maxQueueSize = n }
}

// WithBufferOnError sets the callback for publish failures and queue
// overflow. Without it, failed events are dropped silently.
func WithBufferOnError(fn func(error)) BufferOption {
	return func(c *bufferConfig) { c.onError = fn }
}

// BufferedPublisher queues audit events and publishes them in the
// background, for fire-and-forget instrumentation that must not block the
// instrumented path. Events are published one at a time in enqueue order.
type BufferedPublisher struct {
	publish func(ctx context.Context, event AuditEvent) error
	cfg     bufferConfig

	mu     sync.Mutex
	queue  []AuditEvent
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewBufferedPublisher creates a BufferedPublisher draining into the
// client's Publish.
func NewBufferedPublisher(c *Client, opts ...BufferOption) *BufferedPublisher {
	return newBufferedPublisher(func(ctx context.Context, event AuditEvent) error {
		return c.Publish(ctx, event, nil)
	}, opts...)
}

func newBufferedPublisher(publish func(context.Context, AuditEvent) error, opts ...BufferOption) *BufferedPublisher {
	cfg := defaultBufferConfig()
	for _, o := range opts {
		o(&cfg)
	}
	b := &BufferedPublisher{
		publish: publish,
		cfg:     cfg,
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
	go b.loop()
	return b
}

func (b *BufferedPublisher) loop() {
	defer close(b.doneCh)
	ticker := time.NewTicker(b.cfg.flushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			b.Flush(context.Background())
		case <-b.stopCh:
			return
		}
	}
}

// Enqueue adds an event to the queue. Thread-safe and non-blocking; on
// overflow the oldest events are dropped and reported through the error
// callback.
func (b *BufferedPublisher) Enqueue(event AuditEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.queue = append(b.queue, event)
	if len(b.queue) > b.cfg.maxQueueSize {
		drop := len(b.queue) - b.cfg.maxQueueSize
		b.queue = b.queue[drop:]
		if b.cfg.onError != nil {
			b.cfg.onError(fmt.Errorf("ledgerline: queue overflow: dropped %d oldest event(s)", drop))
		}
	}
}

// Flush publishes every queued event now. Failed events are reported
// through the error callback and not requeued.
func (b *BufferedPublisher) Flush(ctx context.Context) {
	b.mu.Lock()
	batch := b.queue
	b.queue = nil
	b.mu.Unlock()

	for _, event := range batch {
		if err := b.publish(ctx, event); err != nil && b.cfg.onError != nil {
			b.cfg.onError(err)
		}
	}
}

// Shutdown stops the background goroutine and drains remaining events.
func (b *BufferedPublisher) Shutdown(ctx context.Context) error {
	close(b.stopCh)
	<-b.doneCh

	for {
		b.mu.Lock()
		empty := len(b.queue) == 0
		b.mu.Unlock()
		if empty {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			b.Flush(ctx)
		}
	}
}
