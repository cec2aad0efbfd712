package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Channel defaults.
const (
	DefaultQueueSize       = 256
	DefaultDeliveryTimeout = 10 * time.Second
)

// ChannelOptions configures a NotificationChannel.
type ChannelOptions struct {
	// GroupKey is the grouping scope stamped on every delivery.
	GroupKey string
	// QueueSize bounds the number of pushes waiting for delivery.
	QueueSize int
	// DeliveryTimeout bounds a single backend Deliver call.
	DeliveryTimeout time.Duration
	// OnAccepted runs on the delivery goroutine after the backend accepted a
	// notification. It must not block.
	OnAccepted func(Delivery)
	Logger     *slog.Logger
}

// Pending is the future of one queued push.
type Pending struct {
	Delivery Delivery

	done chan struct{}
	err  error
}

// Done is closed once the backend accepted or refused the notification.
func (p *Pending) Done() <-chan struct{} { return p.done }

// Err returns the outcome. Only meaningful after Done is closed.
func (p *Pending) Err() error {
	select {
	case <-p.done:
		return p.err
	default:
		return nil
	}
}

// Wait blocks until the push resolved or ctx ends. A push abandoned through
// ctx stays queued and is still delivered.
func (p *Pending) Wait(ctx context.Context) error {
	select {
	case <-p.done:
		return p.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NotificationChannel serialises pushes from any number of callers onto one
// FIFO queue drained by a single delivery goroutine, so the backend sees
// pushes in issue order and one at a time.
type NotificationChannel struct {
	backend NotificationBackend
	opts    ChannelOptions
	logger  *slog.Logger

	mu      sync.Mutex
	queue   []*Pending
	seq     uint64
	closed  bool
	started bool

	wake    chan struct{}
	stopped chan struct{}
}

// NewNotificationChannel creates a channel delivering to backend. Call Start
// before pushing.
func NewNotificationChannel(backend NotificationBackend, opts ChannelOptions) *NotificationChannel {
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}
	if opts.DeliveryTimeout <= 0 {
		opts.DeliveryTimeout = DefaultDeliveryTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationChannel{
		backend: backend,
		opts:    opts,
		logger:  logger.With("component", "notifications", "backend", backend.Name()),
		wake:    make(chan struct{}, 1),
		stopped: make(chan struct{}),
	}
}

// Start launches the delivery goroutine. Extra calls are no-ops.
func (c *NotificationChannel) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return
	}
	c.started = true
	go c.run()
}

// Enqueue accepts a push into the queue and returns immediately.
func (c *NotificationChannel) Enqueue(data NotificationData, mode NotificationMode) (*Pending, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, &Error{Capability: CapNotifications, Op: "push", Kind: ErrBridgeClosed}
	}
	if len(c.queue) >= c.opts.QueueSize {
		c.mu.Unlock()
		return nil, &Error{
			Capability: CapNotifications,
			Op:         "push",
			Kind:       ErrNotificationRejected,
			Err:        fmt.Errorf("queue full (%d pending)", c.opts.QueueSize),
		}
	}
	c.seq++
	p := &Pending{
		Delivery: Delivery{
			ID:         uuid.NewString(),
			Seq:        c.seq,
			Data:       data,
			Mode:       mode,
			GroupKey:   c.opts.GroupKey,
			EnqueuedAt: time.Now(),
		},
		done: make(chan struct{}),
	}
	c.queue = append(c.queue, p)
	c.mu.Unlock()

	c.signal()
	return p, nil
}

// Push enqueues and waits for backend acceptance.
func (c *NotificationChannel) Push(ctx context.Context, data NotificationData, mode NotificationMode) error {
	p, err := c.Enqueue(data, mode)
	if err != nil {
		return err
	}
	return p.Wait(ctx)
}

// Len returns the number of pushes not yet handed to the backend.
func (c *NotificationChannel) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

// Close refuses new pushes, delivers what is already queued and waits for
// the delivery goroutine to finish or ctx to end.
func (c *NotificationChannel) Close(ctx context.Context) error {
	c.mu.Lock()
	c.closed = true
	started := c.started
	c.mu.Unlock()

	if !started {
		c.Start()
	}
	c.signal()

	select {
	case <-c.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *NotificationChannel) signal() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

func (c *NotificationChannel) run() {
	defer close(c.stopped)
	for {
		c.mu.Lock()
		if len(c.queue) == 0 {
			closed := c.closed
			c.mu.Unlock()
			if closed {
				return
			}
			<-c.wake
			continue
		}
		p := c.queue[0]
		c.queue[0] = nil
		c.queue = c.queue[1:]
		c.mu.Unlock()

		c.deliver(p)
	}
}

func (c *NotificationChannel) deliver(p *Pending) {
	d := p.Delivery
	_, finished, err := callTracked(context.Background(), c.opts.DeliveryTimeout, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, c.backend.Deliver(ctx, d)
	})
	if err != nil {
		p.err = wrap(CapNotifications, "push", ErrNotificationRejected, err)
		c.logger.Warn("notification not accepted",
			"id", d.ID, "seq", d.Seq, "mode", d.Mode, "err", err)
		close(p.done)
		// The next push reaches the backend only after this call returned.
		<-finished
		return
	}

	c.logger.Debug("notification accepted",
		"id", d.ID, "seq", d.Seq, "mode", d.Mode, "group", d.GroupKey,
		"queued_for", time.Since(d.EnqueuedAt))
	if c.opts.OnAccepted != nil {
		c.opts.OnAccepted(d)
	}
	close(p.done)
}
