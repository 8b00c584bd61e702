// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package workflow is the session lifecycle controller. Every client action
// is guarded against the transition table, applied by its coordinator as one
// conditional write, and followed by post-transition hooks (badge evaluation,
// notification intents, audit).
package workflow

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ManuGH/skillswap/internal/audit"
	"github.com/ManuGH/skillswap/internal/cache"
	"github.com/ManuGH/skillswap/internal/domain/exchange/badge"
	"github.com/ManuGH/skillswap/internal/domain/exchange/cancellation"
	"github.com/ManuGH/skillswap/internal/domain/exchange/completion"
	"github.com/ManuGH/skillswap/internal/domain/exchange/lifecycle"
	"github.com/ManuGH/skillswap/internal/domain/exchange/model"
	"github.com/ManuGH/skillswap/internal/domain/exchange/notify"
	"github.com/ManuGH/skillswap/internal/domain/exchange/review"
	"github.com/ManuGH/skillswap/internal/domain/exchange/store"
	"github.com/ManuGH/skillswap/internal/log"
	"github.com/ManuGH/skillswap/internal/telemetry"
)

const tracerName = "swapd.workflow"

// Options wires optional collaborators. Zero values fall back to no-ops.
type Options struct {
	Policy   model.Policy
	Cache    cache.Cache
	Activity badge.ActivitySource
	Notifier notify.Enqueuer
	Audit    *audit.Logger
	Logger   *zerolog.Logger

	// ServiceActors may ingest activity events on behalf of any user.
	ServiceActors []string
}

// Controller is the façade the transport layer talks to.
type Controller struct {
	store  store.Store
	policy atomic.Pointer[model.Policy]

	completion   *completion.Coordinator
	cancellation *cancellation.Coordinator
	reviews      *review.Gate
	badges       *badge.Evaluator

	notifier notify.Enqueuer
	audit    *audit.Logger
	logger   zerolog.Logger
	tracer   trace.Tracer
	services map[string]struct{}

	Now   func() time.Time
	NewID func() string
}

type discard struct{}

func (discard) Enqueue(notify.Intent) bool { return false }

// New builds a controller over st. opts.Policy must be valid; a zero policy
// selects model.DefaultPolicy.
func New(st store.Store, opts Options) (*Controller, error) {
	policy := opts.Policy
	if policy.MaxReviewComment == 0 && policy.MinCancelDescription == 0 {
		policy = model.DefaultPolicy()
	}
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("workflow policy: %w", err)
	}

	c := &Controller{
		store:    st,
		notifier: opts.Notifier,
		audit:    opts.Audit,
		tracer:   telemetry.Tracer(tracerName),
		services: make(map[string]struct{}, len(opts.ServiceActors)),
		Now:      func() time.Time { return time.Now().UTC() },
		NewID:    uuid.NewString,
	}
	c.policy.Store(&policy)
	if c.notifier == nil {
		c.notifier = discard{}
	}
	if c.audit == nil {
		c.audit = audit.NewLoggerWith(zerolog.Nop())
	}
	if opts.Logger != nil {
		c.logger = opts.Logger.With().Str(log.FieldComponent, "workflow").Logger()
	} else {
		c.logger = log.WithComponent("workflow")
	}
	for _, id := range opts.ServiceActors {
		c.services[id] = struct{}{}
	}

	c.completion = completion.New(st, c.Policy)
	c.cancellation = cancellation.New(st, c.Policy)
	c.reviews = review.New(st, c.Policy, opts.Cache)
	c.badges = badge.New(st, opts.Activity, c.Policy, opts.Cache)
	return c, nil
}

// Policy returns the policy in force.
func (c *Controller) Policy() model.Policy {
	return *c.policy.Load()
}

// ApplyPolicy validates p and makes it current for subsequent calls.
func (c *Controller) ApplyPolicy(p model.Policy) error {
	if err := p.Validate(); err != nil {
		return err
	}
	c.policy.Store(&p)
	return nil
}

// SetClock pins time for every collaborator. Tests only.
func (c *Controller) SetClock(now func() time.Time) {
	c.Now = now
	c.completion.Now = now
	c.cancellation.Now = now
	c.reviews.Now = now
	c.badges.Now = now
}

// load returns the session (nil when absent) and its open cancel request.
func (c *Controller) load(ctx context.Context, sessionID string) (*model.Session, *model.CancelRequest, error) {
	s, err := c.store.GetSession(ctx, sessionID)
	if err != nil || s == nil {
		return nil, nil, err
	}
	open, err := c.cancellation.Open(ctx, s)
	if err != nil {
		return nil, nil, err
	}
	return s, open, nil
}

// readable loads a session for a read operation by actorID.
func (c *Controller) readable(ctx context.Context, sessionID, actorID string) (*model.Session, error) {
	s, err := c.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, lifecycle.NotFound(lifecycle.CodeSessionNotFound, "session not found")
	}
	if !s.IsParticipant(actorID) {
		return nil, lifecycle.Unauthorized(lifecycle.CodeNotParticipant, "actor is not a participant of this session")
	}
	return s, nil
}

type applyFunc func(ctx context.Context, s *model.Session, open *model.CancelRequest, tr lifecycle.Transition) error

// transition runs the guarded write path shared by every mutating action.
// The session is updated in place by apply on success.
func (c *Controller) transition(ctx context.Context, sessionID, actorID string, act lifecycle.Action, apply applyFunc) (s *model.Session, err error) {
	ctx, span := c.tracer.Start(ctx, "workflow."+string(act),
		trace.WithAttributes(telemetry.WorkflowAttributes(sessionID, string(act), actorID, "")...))
	start := time.Now()
	defer func() {
		observe(act, start, err)
		if err != nil {
			span.SetAttributes(telemetry.ErrorAttributes(lifecycle.KindOf(err).String(), errorCode(err))...)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	s, open, err := c.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	tr, err := lifecycle.Guard(s, open, actorID, act)
	if err != nil {
		c.audit.Denied(ctx, actorID, sessionID, string(act), errorCode(err))
		return nil, err
	}
	from := lifecycle.PhaseOf(s)
	span.SetAttributes(telemetry.WorkflowAttributes("", "", "", string(from))...)

	if err := apply(ctx, s, open, tr); err != nil {
		if lifecycle.KindOf(err) != 0 {
			c.audit.Denied(ctx, actorID, sessionID, string(act), errorCode(err))
		}
		return nil, err
	}

	to := lifecycle.PhaseOf(s)
	c.audit.Transition(ctx, actorID, sessionID, string(act), string(from), string(to))
	logger := log.WithContext(ctx, c.logger)
	logger.Info().
		Str(log.FieldEvent, "session.transition").
		Str(log.FieldSessionID, sessionID).
		Str(log.FieldActorID, actorID).
		Str(log.FieldAction, string(act)).
		Str(log.FieldOldPhase, string(from)).
		Str(log.FieldNewPhase, string(to)).
		Msg("session transition applied")
	return s, nil
}

// emit enqueues one intent per recipient. Delivery never blocks the caller.
func (c *Controller) emit(kind notify.Kind, sessionID string, recipients ...string) {
	now := c.Now()
	for _, r := range recipients {
		if r == "" {
			continue
		}
		c.notifier.Enqueue(notify.NewIntent(kind, r, sessionID, now))
	}
}

func errorCode(err error) string {
	if werr, ok := lifecycle.As(err); ok {
		return werr.Code
	}
	return ""
}
