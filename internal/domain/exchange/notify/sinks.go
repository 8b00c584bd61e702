// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/ManuGH/skillswap/internal/resilience"
)

// LogSink writes intents to the structured log. It is the default when no
// broker is configured.
type LogSink struct {
	Logger zerolog.Logger
}

func (s LogSink) Name() string { return "log" }

func (s LogSink) Deliver(_ context.Context, in Intent) error {
	s.Logger.Info().
		Str("event", "notify.delivered").
		Str("intent_id", in.ID).
		Str("kind", string(in.Kind)).
		Str("recipient_id", in.RecipientID).
		Str("session_id", in.SessionID).
		Str("subject", in.Subject).
		Msg("notification intent")
	return nil
}

// DefaultStream is the Redis stream notification workers consume.
const DefaultStream = "swapd:notifications"

// RedisSink appends intents to a Redis stream for an external mailer.
type RedisSink struct {
	client *redis.Client
	stream string
	maxLen int64
}

// NewRedisSink returns a sink writing to stream, trimmed to about maxLen entries.
func NewRedisSink(client *redis.Client, stream string, maxLen int64) *RedisSink {
	if stream == "" {
		stream = DefaultStream
	}
	return &RedisSink{client: client, stream: stream, maxLen: maxLen}
}

func (s *RedisSink) Name() string { return "redis" }

func (s *RedisSink) Deliver(ctx context.Context, in Intent) error {
	data, err := json.Marshal(in.Data)
	if err != nil {
		return fmt.Errorf("notify: encode data: %w", err)
	}
	args := &redis.XAddArgs{
		Stream: s.stream,
		Values: map[string]any{
			"id":        in.ID,
			"kind":      string(in.Kind),
			"recipient": in.RecipientID,
			"session":   in.SessionID,
			"subject":   in.Subject,
			"body":      in.Body,
			"data":      string(data),
			"createdAt": in.CreatedAt.UnixMilli(),
		},
	}
	if s.maxLen > 0 {
		args.MaxLen = s.maxLen
		args.Approx = true
	}
	return s.client.XAdd(ctx, args).Err()
}

// MultiSink fans an intent out to several sinks and reports the first error.
type MultiSink []Sink

func (m MultiSink) Name() string { return "multi" }

func (m MultiSink) Deliver(ctx context.Context, in Intent) error {
	var first error
	for _, s := range m {
		if err := s.Deliver(ctx, in); err != nil && first == nil {
			first = fmt.Errorf("%s: %w", s.Name(), err)
		}
	}
	return first
}

// BreakerSink fails fast while the wrapped sink keeps erroring, so a down
// broker does not hold every queued intent for the full delivery timeout.
type BreakerSink struct {
	Sink    Sink
	Breaker *resilience.CircuitBreaker
}

func (b BreakerSink) Name() string { return b.Sink.Name() }

func (b BreakerSink) Deliver(ctx context.Context, in Intent) error {
	return b.Breaker.Execute(func() error {
		return b.Sink.Deliver(ctx, in)
	})
}
