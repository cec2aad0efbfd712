package bridge

import (
	"log/slog"
	"time"
)

// DefaultStatusBarColor is reported by GET before any SET.
const DefaultStatusBarColor = "#000000"

type options struct {
	callTimeout    time.Duration
	statusBarColor string
	channel        ChannelOptions
	logger         *slog.Logger
}

// Option configures a Bridge.
type Option func(*options)

// WithCallTimeout bounds every synchronous backend call.
func WithCallTimeout(d time.Duration) Option {
	return func(o *options) { o.callTimeout = d }
}

// WithStatusBarColor sets the colour reported before the first SET.
func WithStatusBarColor(hex string) Option {
	return func(o *options) { o.statusBarColor = hex }
}

// WithGroupKey sets the grouping scope of the notification channel.
func WithGroupKey(key string) Option {
	return func(o *options) { o.channel.GroupKey = key }
}

// WithQueueSize bounds the notification queue.
func WithQueueSize(n int) Option {
	return func(o *options) { o.channel.QueueSize = n }
}

// WithDeliveryTimeout bounds a single notification delivery.
func WithDeliveryTimeout(d time.Duration) Option {
	return func(o *options) { o.channel.DeliveryTimeout = d }
}

// WithOnAccepted registers a hook run after each accepted notification.
func WithOnAccepted(fn func(Delivery)) Option {
	return func(o *options) { o.channel.OnAccepted = fn }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

func buildOptions(opts []Option) options {
	o := options{
		callTimeout:    DefaultCallTimeout,
		statusBarColor: DefaultStatusBarColor,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.callTimeout <= 0 {
		o.callTimeout = DefaultCallTimeout
	}
	o.channel.Logger = o.logger
	return o
}
