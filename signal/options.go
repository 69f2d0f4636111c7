package signal

import (
	"log/slog"
	"time"

	"github.com/makalin/LiveWeave/metric"
	"github.com/makalin/LiveWeave/pkg/retry"
)

// Option configures a Bus.
type Option func(*Bus, **metric.MetricsRegistry)

// WithChannel shares the bus with other processes.
func WithChannel(ch Channel) Option {
	return func(b *Bus, _ **metric.MetricsRegistry) {
		b.channel = ch
	}
}

// WithOrigin overrides the generated origin id.
func WithOrigin(origin string) Option {
	return func(b *Bus, _ **metric.MetricsRegistry) {
		if origin != "" {
			b.origin = origin
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bus, _ **metric.MetricsRegistry) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithPublishTimeout bounds each channel publish.
func WithPublishTimeout(d time.Duration) Option {
	return func(b *Bus, _ **metric.MetricsRegistry) {
		if d > 0 {
			b.publishTimeout = d
		}
	}
}

// WithMetrics registers bus metrics with registry.
func WithMetrics(registry *metric.MetricsRegistry) Option {
	return func(_ *Bus, reg **metric.MetricsRegistry) {
		*reg = registry
	}
}

// WithPublishRetry sets the backoff for transient publish failures. The
// whole loop stays within the publish timeout.
func WithPublishRetry(cfg retry.Config) Option {
	return func(b *Bus, _ **metric.MetricsRegistry) {
		b.publishRetry = cfg
	}
}
