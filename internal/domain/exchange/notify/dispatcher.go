// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package notify

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

var intentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "swapd_notify_intents_total",
	Help: "Notification intents by kind and result (queued, dropped, delivered, failed)",
}, []string{"kind", "result"})

// Sink delivers intents to the outside world.
type Sink interface {
	Deliver(ctx context.Context, in Intent) error
	Name() string
}

// Enqueuer accepts intents without blocking.
type Enqueuer interface {
	Enqueue(in Intent) bool
}

// Options tune the dispatcher.
type Options struct {
	Buffer       int        // queue capacity
	RatePerSec   rate.Limit // sustained deliveries per second; 0 = unlimited
	Burst        int
	DeliverLimit time.Duration // per-delivery timeout
}

// DefaultOptions returns conservative defaults.
func DefaultOptions() Options {
	return Options{Buffer: 1024, RatePerSec: 50, Burst: 10, DeliverLimit: 5 * time.Second}
}

// Dispatcher queues intents and delivers them from a single goroutine.
type Dispatcher struct {
	sink    Sink
	queue   chan Intent
	limiter *rate.Limiter
	timeout time.Duration
	logger  zerolog.Logger
}

// NewDispatcher returns a dispatcher; call Run to start delivering.
func NewDispatcher(sink Sink, opts Options, logger zerolog.Logger) *Dispatcher {
	if opts.Buffer <= 0 {
		opts.Buffer = DefaultOptions().Buffer
	}
	if opts.DeliverLimit <= 0 {
		opts.DeliverLimit = DefaultOptions().DeliverLimit
	}
	limit, burst := opts.RatePerSec, opts.Burst
	if limit <= 0 {
		limit = rate.Inf
	}
	if burst <= 0 {
		burst = 1
	}
	return &Dispatcher{
		sink:    sink,
		queue:   make(chan Intent, opts.Buffer),
		limiter: rate.NewLimiter(limit, burst),
		timeout: opts.DeliverLimit,
		logger:  logger.With().Str("sink", sink.Name()).Logger(),
	}
}

// Enqueue adds in to the queue. It never blocks; a full queue drops the
// intent and returns false.
func (d *Dispatcher) Enqueue(in Intent) bool {
	select {
	case d.queue <- in:
		intentsTotal.WithLabelValues(string(in.Kind), "queued").Inc()
		return true
	default:
		intentsTotal.WithLabelValues(string(in.Kind), "dropped").Inc()
		d.logger.Warn().Str("event", "notify.dropped").Str("kind", string(in.Kind)).Msg("notification queue full")
		return false
	}
}

// Pending reports how many intents wait for delivery.
func (d *Dispatcher) Pending() int { return len(d.queue) }

// Run delivers until ctx is canceled. Intents still queued at shutdown are
// dropped; delivery is best-effort.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case in := <-d.queue:
			if err := d.limiter.Wait(ctx); err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
					return nil
				}
				return err
			}
			d.deliver(ctx, in)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, in Intent) {
	dctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	if err := d.sink.Deliver(dctx, in); err != nil {
		intentsTotal.WithLabelValues(string(in.Kind), "failed").Inc()
		d.logger.Error().Err(err).
			Str("event", "notify.failed").
			Str("kind", string(in.Kind)).
			Str("recipient_id", in.RecipientID).
			Msg("notification delivery failed")
		return
	}
	intentsTotal.WithLabelValues(string(in.Kind), "delivered").Inc()
}
