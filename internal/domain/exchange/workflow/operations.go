// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package workflow

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ManuGH/skillswap/internal/audit"
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

// Validation codes for session creation and activity ingest.
const (
	CodeParticipantRequired = "participant_required"
	CodeSameParticipant     = "participants_must_differ"
	CodeInvalidDates        = "invalid_dates"
	CodeSessionExists       = "session_exists"
	CodeInvalidActivity     = "invalid_activity"
	CodeRefRequired         = "ref_id_required"
	CodeNotActivityOwner    = "not_activity_owner"

	FieldParticipantA    = "participantA"
	FieldParticipantB    = "participantB"
	FieldExpectedEndDate = "expectedEndDate"
	FieldID              = "id"
	FieldUserID          = "userId"
	FieldKind            = "kind"
	FieldRefID           = "refId"
	FieldAction          = "action"
)

// CreateInput describes a session agreed by the matching subsystem.
type CreateInput struct {
	ID              string
	ParticipantA    string
	ParticipantB    string
	TermsA          model.Terms
	TermsB          model.Terms
	StartDate       time.Time
	ExpectedEndDate *time.Time
}

// CompletionResult is the outcome of a completion action.
type CompletionResult struct {
	Session *model.Session           `json:"session"`
	Request *model.CompletionRequest `json:"completionRequest,omitempty"`
}

// CancellationResult is the outcome of a cancellation action.
type CancellationResult struct {
	Session *model.Session       `json:"session"`
	Request *model.CancelRequest `json:"cancelRequest"`
}

// ActivityResult reports an ingested activity event.
type ActivityResult struct {
	Recorded bool               `json:"recorded"`
	Granted  []model.BadgeGrant `json:"granted"`
}

// CreateSession opens an active session. The actor must be one of the participants.
func (c *Controller) CreateSession(ctx context.Context, actorID string, in CreateInput) (*model.Session, error) {
	a, b := strings.TrimSpace(in.ParticipantA), strings.TrimSpace(in.ParticipantB)
	switch {
	case a == "":
		return nil, lifecycle.Validation(FieldParticipantA, CodeParticipantRequired, "participantA is required")
	case b == "":
		return nil, lifecycle.Validation(FieldParticipantB, CodeParticipantRequired, "participantB is required")
	case a == b:
		return nil, lifecycle.Validation(FieldParticipantB, CodeSameParticipant, "a session needs two different participants")
	}
	if actorID != a && actorID != b {
		return nil, lifecycle.Unauthorized(lifecycle.CodeNotParticipant, "only a participant may create the session")
	}

	now := c.Now()
	start := in.StartDate
	if start.IsZero() {
		start = now
	}
	if in.ExpectedEndDate != nil && in.ExpectedEndDate.Before(start) {
		return nil, lifecycle.Validation(FieldExpectedEndDate, CodeInvalidDates, "expected end date must not precede the start date")
	}
	id := strings.TrimSpace(in.ID)
	if id == "" {
		id = c.NewID()
	}

	s := &model.Session{
		ID:              id,
		ParticipantA:    a,
		ParticipantB:    b,
		TermsA:          in.TermsA,
		TermsB:          in.TermsB,
		StartDate:       start.UTC(),
		ExpectedEndDate: in.ExpectedEndDate,
		Status:          model.StatusActive,
		Completion:      model.CompletionNone,
		Cancellation:    model.CancellationNone,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := c.store.CreateSession(ctx, s); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, &lifecycle.Error{Kind: lifecycle.KindStateConflict, Field: FieldID, Code: CodeSessionExists,
				Detail: "a session with this id already exists", Err: err}
		}
		return nil, err
	}
	c.audit.LogFromContext(ctx, audit.Event{
		Type:     audit.EventSessionCreated,
		Actor:    actorID,
		Action:   "create_session",
		Resource: "session/" + s.ID,
		Result:   "success",
	})
	return s, nil
}

// GetSession returns the session if actorID takes part in it.
func (c *Controller) GetSession(ctx context.Context, sessionID, actorID string) (*model.Session, error) {
	return c.readable(ctx, sessionID, actorID)
}

// RequestCompletion proposes that the session is done.
func (c *Controller) RequestCompletion(ctx context.Context, sessionID, actorID string) (*CompletionResult, error) {
	var req *model.CompletionRequest
	s, err := c.transition(ctx, sessionID, actorID, lifecycle.ActRequestCompletion,
		func(ctx context.Context, s *model.Session, _ *model.CancelRequest, tr lifecycle.Transition) error {
			var err error
			req, err = c.completion.Request(ctx, s, tr, actorID)
			return err
		})
	if err != nil {
		return nil, err
	}
	other, _ := s.Counterparty(actorID)
	c.emit(notify.KindCompletionRequested, s.ID, other)
	return &CompletionResult{Session: s, Request: req}, nil
}

// RespondToCompletion approves or rejects the pending proposal.
func (c *Controller) RespondToCompletion(ctx context.Context, sessionID, actorID string, d completion.Decision, reason string) (*CompletionResult, error) {
	act, ok := d.Action()
	if !ok {
		return nil, c.invalidDecision(ctx, sessionID, actorID, FieldAction, `action must be "approve" or "reject"`)
	}
	var (
		req       *model.CompletionRequest
		requester string
	)
	s, err := c.transition(ctx, sessionID, actorID, act,
		func(ctx context.Context, s *model.Session, _ *model.CancelRequest, tr lifecycle.Transition) error {
			requester = s.CompletionRequestedBy
			var err error
			req, err = c.completion.Respond(ctx, s, tr, actorID, d, reason)
			return err
		})
	if err != nil {
		return nil, err
	}

	if d == completion.Reject {
		c.emit(notify.KindCompletionRejected, s.ID, requester)
		return &CompletionResult{Session: s, Request: req}, nil
	}
	c.emit(notify.KindCompletionApproved, s.ID, requester)
	c.afterCompleted(ctx, s)
	return &CompletionResult{Session: s, Request: req}, nil
}

// invalidDecision keeps the guard order for an answer that names no action:
// a missing session or an outsider is reported before the malformed input.
func (c *Controller) invalidDecision(ctx context.Context, sessionID, actorID, field, detail string) error {
	if _, err := c.readable(ctx, sessionID, actorID); err != nil {
		return err
	}
	return lifecycle.Validation(field, cancellation.CodeInvalidDecision, detail)
}

// afterCompleted runs the post-completion hooks: badge evaluation for both
// participants and review-eligible intents. Hook failures never fail the
// transition that already committed.
func (c *Controller) afterCompleted(ctx context.Context, s *model.Session) {
	for _, user := range s.Participants() {
		c.evaluateBadges(ctx, user, badge.SessionMetrics...)
	}
	c.emit(notify.KindReviewEligible, s.ID, s.Participants()...)
}

// evaluateBadges grants what userID now qualifies for. Errors are logged and
// swallowed; grants obtained before the error are still announced.
func (c *Controller) evaluateBadges(ctx context.Context, userID string, metrics ...model.Metric) []model.BadgeGrant {
	ctx, span := c.tracer.Start(ctx, "workflow.evaluate_badges")
	defer span.End()

	granted, err := c.badges.Evaluate(ctx, userID, metrics...)
	span.SetAttributes(telemetry.BadgeAttributes(userID, len(granted))...)
	if err != nil {
		hookFailuresTotal.WithLabelValues("badge_evaluation").Inc()
		logger := log.WithContext(ctx, c.logger)
		logger.Warn().Err(err).
			Str(log.FieldEvent, "badge.evaluation_failed").
			Str(log.FieldUserID, userID).
			Msg("badge evaluation failed")
	}
	now := c.Now()
	for _, g := range granted {
		in := notify.NewIntent(notify.KindBadgeGranted, userID, "", now)
		in.Data = map[string]string{"badgeId": string(g.BadgeID)}
		c.notifier.Enqueue(in)
		c.audit.LogFromContext(ctx, audit.Event{
			Type:     audit.EventBadgeGranted,
			Actor:    "system",
			Action:   "grant_badge",
			Resource: "user/" + userID,
			Result:   "success",
			Details:  map[string]string{log.FieldBadgeID: string(g.BadgeID)},
		})
	}
	return granted
}

// ListCompletionRequests returns the completion history of the session.
func (c *Controller) ListCompletionRequests(ctx context.Context, sessionID, actorID string) ([]*model.CompletionRequest, error) {
	if _, err := c.readable(ctx, sessionID, actorID); err != nil {
		return nil, err
	}
	list, err := c.completion.List(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []*model.CompletionRequest{}
	}
	return list, nil
}

// RequestCancellation files a cancel request.
func (c *Controller) RequestCancellation(ctx context.Context, sessionID, actorID string, in cancellation.RequestInput) (*CancellationResult, error) {
	var req *model.CancelRequest
	s, err := c.transition(ctx, sessionID, actorID, lifecycle.ActRequestCancellation,
		func(ctx context.Context, s *model.Session, _ *model.CancelRequest, tr lifecycle.Transition) error {
			var err error
			req, err = c.cancellation.Request(ctx, s, tr, actorID, in)
			return err
		})
	if err != nil {
		return nil, err
	}
	other, _ := s.Counterparty(actorID)
	c.emit(notify.KindCancellationRequested, s.ID, other)
	return &CancellationResult{Session: s, Request: req}, nil
}

// CurrentCancelRequest returns the open cancel request, or the latest resolved one.
func (c *Controller) CurrentCancelRequest(ctx context.Context, sessionID, actorID string) (*model.CancelRequest, error) {
	s, err := c.readable(ctx, sessionID, actorID)
	if err != nil {
		return nil, err
	}
	return c.cancellation.Current(ctx, s)
}

// RespondToCancellation agrees to or disputes the open cancel request.
func (c *Controller) RespondToCancellation(ctx context.Context, sessionID, actorID string, in cancellation.ResponseInput) (*CancellationResult, error) {
	act, ok := in.Decision.Action()
	if !ok {
		return nil, c.invalidDecision(ctx, sessionID, actorID, cancellation.FieldResponse, `response must be "agree" or "dispute"`)
	}
	var req *model.CancelRequest
	s, err := c.transition(ctx, sessionID, actorID, act,
		func(ctx context.Context, s *model.Session, open *model.CancelRequest, tr lifecycle.Transition) error {
			var err error
			req, err = c.cancellation.Respond(ctx, s, open, tr, actorID, in)
			return err
		})
	if err != nil {
		return nil, err
	}
	kind := notify.KindCancellationDisputed
	if in.Decision == cancellation.Agree {
		kind = notify.KindCancellationAgreed
	}
	c.emit(kind, s.ID, req.InitiatorID)
	return &CancellationResult{Session: s, Request: req}, nil
}

// FinalizeCancellation closes a disputed cancel request; the session is canceled.
func (c *Controller) FinalizeCancellation(ctx context.Context, sessionID, actorID, finalNote string) (*CancellationResult, error) {
	var req *model.CancelRequest
	s, err := c.transition(ctx, sessionID, actorID, lifecycle.ActFinalizeCancellation,
		func(ctx context.Context, s *model.Session, open *model.CancelRequest, tr lifecycle.Transition) error {
			var err error
			req, err = c.cancellation.Finalize(ctx, s, open, tr, finalNote)
			return err
		})
	if err != nil {
		return nil, err
	}
	c.emit(notify.KindCancellationFinalized, s.ID, req.ResponderID)
	return &CancellationResult{Session: s, Request: req}, nil
}

// SubmitReview records actorID's review of the other participant.
func (c *Controller) SubmitReview(ctx context.Context, sessionID, actorID string, in review.Input) (*model.Review, error) {
	var r *model.Review
	_, err := c.transition(ctx, sessionID, actorID, lifecycle.ActSubmitReview,
		func(ctx context.Context, s *model.Session, _ *model.CancelRequest, _ lifecycle.Transition) error {
			var err error
			r, err = c.reviews.Submit(ctx, s, actorID, in)
			return err
		})
	if err != nil {
		return nil, err
	}
	c.audit.LogFromContext(ctx, audit.Event{
		Type:     audit.EventReviewSubmitted,
		Actor:    actorID,
		Action:   "submit_review",
		Resource: "session/" + sessionID,
		Result:   "success",
		Details:  map[string]string{log.FieldReviewID: r.ID},
	})
	return r, nil
}

// ListReviews returns every review of the session; both participants see all.
func (c *Controller) ListReviews(ctx context.Context, sessionID, actorID string) ([]*model.Review, error) {
	if _, err := c.readable(ctx, sessionID, actorID); err != nil {
		return nil, err
	}
	return c.reviews.List(ctx, sessionID)
}

// ListBadges returns the badges userID holds. Badges are public.
func (c *Controller) ListBadges(ctx context.Context, userID string) ([]badge.Earned, error) {
	return c.badges.List(ctx, userID)
}

// RecordActivity ingests an out-of-band activity event and re-evaluates the
// badge it feeds. Users may only report their own activity; service actors
// may report for anyone. Replayed events are accepted and change nothing.
func (c *Controller) RecordActivity(ctx context.Context, actorID string, ev model.ActivityEvent) (*ActivityResult, error) {
	ev.UserID = strings.TrimSpace(ev.UserID)
	ev.RefID = strings.TrimSpace(ev.RefID)
	if ev.UserID == "" {
		return nil, lifecycle.Validation(FieldUserID, CodeParticipantRequired, "userId is required")
	}
	metric, ok := badge.MetricForActivity(ev.Kind)
	if !ok {
		return nil, lifecycle.Validation(FieldKind, CodeInvalidActivity, "kind must be skill_verified or post_created")
	}
	if ev.RefID == "" {
		return nil, lifecycle.Validation(FieldRefID, CodeRefRequired, "refId is required")
	}
	if _, service := c.services[actorID]; !service && actorID != ev.UserID {
		return nil, lifecycle.Unauthorized(CodeNotActivityOwner, "actor may only report their own activity")
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = c.Now()
	}

	recorded, err := c.store.RecordActivity(ctx, ev)
	if err != nil {
		return nil, err
	}
	if recorded {
		c.audit.LogFromContext(ctx, audit.Event{
			Type:     audit.EventActivityRecorded,
			Actor:    actorID,
			Action:   string(ev.Kind),
			Resource: "user/" + ev.UserID,
			Result:   "success",
			Details:  map[string]string{"ref_id": ev.RefID},
		})
	}
	granted := c.evaluateBadges(ctx, ev.UserID, metric)
	if granted == nil {
		granted = []model.BadgeGrant{}
	}
	return &ActivityResult{Recorded: recorded, Granted: granted}, nil
}
