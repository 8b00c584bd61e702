// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package audit records WHO did WHAT to WHICH session, and WHEN. Entries go
// to the structured log under component "audit".
package audit

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/skillswap/internal/log"
)

// EventType classifies an audit entry.
type EventType string

const (
	// Session workflow
	EventSessionCreated        EventType = "session.created"
	EventSessionTransition     EventType = "session.transition"
	EventSessionTransitionDeny EventType = "session.transition.denied"
	EventReviewSubmitted       EventType = "review.submitted"
	EventBadgeGranted          EventType = "badge.granted"
	EventActivityRecorded      EventType = "activity.recorded"

	// Operations
	EventConfigReload      EventType = "config.reload"
	EventConfigReloadError EventType = "config.reload.error"

	// Access
	EventAuthFailure  EventType = "auth.failure"
	EventAPIRateLimit EventType = "api.ratelimit"
)

// Event is one audit entry.
type Event struct {
	Timestamp time.Time         `json:"timestamp"`
	Type      EventType         `json:"type"`
	Actor     string            `json:"actor"`    // WHO: user id or "system"
	Action    string            `json:"action"`   // WHAT
	Resource  string            `json:"resource"` // e.g. "session/<id>"
	Result    string            `json:"result"`   // success, failure, denied
	RequestID string            `json:"request_id"`
	Details   map[string]string `json:"details,omitempty"`
}

// Logger writes audit entries.
type Logger struct {
	logger zerolog.Logger
}

// NewLogger creates an audit logger on the global base logger.
func NewLogger() *Logger {
	return NewLoggerWith(log.WithComponent("audit"))
}

// NewLoggerWith creates an audit logger on base; tests use it to capture output.
func NewLoggerWith(base zerolog.Logger) *Logger {
	return &Logger{logger: base.With().Str("log_type", "audit").Logger()}
}

// Log writes event. A zero Timestamp is set to now.
func (l *Logger) Log(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	e := l.logger.Info().
		Time("timestamp", event.Timestamp).
		Str("event_type", string(event.Type)).
		Str("actor", event.Actor).
		Str("action", event.Action).
		Str("resource", event.Resource).
		Str("result", event.Result)
	if event.RequestID != "" {
		e.Str(log.FieldRequestID, event.RequestID)
	}
	for key, value := range event.Details {
		e.Str(key, value)
	}
	e.Msg("audit event")
}

// LogFromContext fills RequestID and Actor from ctx when unset.
func (l *Logger) LogFromContext(ctx context.Context, event Event) {
	if event.RequestID == "" {
		event.RequestID = log.RequestIDFromContext(ctx)
	}
	if event.Actor == "" {
		event.Actor = log.ActorIDFromContext(ctx)
	}
	l.Log(event)
}

// Transition records a session state change.
func (l *Logger) Transition(ctx context.Context, actor, sessionID, action, from, to string) {
	l.LogFromContext(ctx, Event{
		Type:     EventSessionTransition,
		Actor:    actor,
		Action:   action,
		Resource: "session/" + sessionID,
		Result:   "success",
		Details: map[string]string{
			log.FieldOldPhase: from,
			log.FieldNewPhase: to,
		},
	})
}

// Denied records a rejected workflow action with its machine code.
func (l *Logger) Denied(ctx context.Context, actor, sessionID, action, code string) {
	l.LogFromContext(ctx, Event{
		Type:     EventSessionTransitionDeny,
		Actor:    actor,
		Action:   action,
		Resource: "session/" + sessionID,
		Result:   "denied",
		Details:  map[string]string{"code": code},
	})
}

// ConfigReload records a configuration reload attempt.
func (l *Logger) ConfigReload(actor, result string, details map[string]string) {
	typ := EventConfigReload
	if result != "success" {
		typ = EventConfigReloadError
	}
	l.Log(Event{
		Type:     typ,
		Actor:    actor,
		Action:   "reloaded configuration",
		Resource: "config",
		Result:   result,
		Details:  details,
	})
}

// AuthFailure records a request whose credentials were rejected.
func (l *Logger) AuthFailure(remoteAddr, endpoint, reason string) {
	l.Log(Event{
		Type:     EventAuthFailure,
		Actor:    remoteAddr,
		Action:   "authentication failed",
		Resource: endpoint,
		Result:   "failure",
		Details:  map[string]string{"reason": reason},
	})
}

// RateLimitExceeded records a throttled client.
func (l *Logger) RateLimitExceeded(remoteAddr, endpoint string) {
	l.Log(Event{
		Type:     EventAPIRateLimit,
		Actor:    remoteAddr,
		Action:   "rate limit exceeded",
		Resource: endpoint,
		Result:   "denied",
	})
}
