package notify

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"fitsched/internal/events"
	"fitsched/internal/metrics"
)

// Config tunes the dispatcher.
type Config struct {
	RatePerSecond float64
	Burst         int
	QueueSize     int
}

// Dispatcher buffers events off the bus and delivers them through the
// configured senders from a single worker, throttled by a token bucket.
type Dispatcher struct {
	queue   chan events.Event
	senders []Sender
	limiter *rate.Limiter
	logger  *zerolog.Logger
}

// NewDispatcher creates a dispatcher with the given senders.
func NewDispatcher(cfg Config, logger *zerolog.Logger, senders ...Sender) *Dispatcher {
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = 5
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 10
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	return &Dispatcher{
		queue:   make(chan events.Event, cfg.QueueSize),
		senders: senders,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.Burst),
		logger:  logger,
	}
}

// Attach subscribes the dispatcher to every event type on the bus.
func (d *Dispatcher) Attach(bus *events.Bus) {
	bus.SubscribeAll(d.Enqueue)
}

// Enqueue queues an event for delivery. Drops when the buffer is full so a
// slow channel cannot stall the engine.
func (d *Dispatcher) Enqueue(e events.Event) {
	select {
	case d.queue <- e:
	default:
		metrics.IncNotification("dropped")
		d.logger.Warn().Str("type", e.Type).Str("recipient_id", e.RecipientID).Msg("notification queue full, dropping event")
	}
}

// Run delivers queued events until the context is cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	d.logger.Info().Int("senders", len(d.senders)).Msg("notification dispatcher started")
	for {
		select {
		case <-ctx.Done():
			return
		case e := <-d.queue:
			if err := d.limiter.Wait(ctx); err != nil {
				return
			}
			d.deliver(ctx, e)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, e events.Event) {
	for _, sender := range d.senders {
		if err := sender.Send(ctx, e); err != nil {
			metrics.IncNotification("failed")
			d.logger.Error().Err(err).
				Str("sender", sender.Name()).
				Str("type", e.Type).
				Str("recipient_id", e.RecipientID).
				Msg("notification delivery failed")
			continue
		}
		metrics.IncNotification("sent")
	}
}
