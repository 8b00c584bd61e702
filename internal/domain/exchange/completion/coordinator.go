// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package completion runs the mutual-completion handshake of a session:
// one participant proposes, the other approves or rejects.
package completion

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ManuGH/skillswap/internal/domain/exchange/lifecycle"
	"github.com/ManuGH/skillswap/internal/domain/exchange/model"
	"github.com/ManuGH/skillswap/internal/domain/exchange/store"
)

// Codes specific to completion.
const (
	CodeCooldown            = "completion_cooldown"
	CodeRejectionReasonLong = "rejection_reason_too_long"
	FieldRejectedAt         = "completionRejectedAt"
	FieldRejectionReason    = "rejectionReason"
)

// Decision is the counterparty's answer.
type Decision string

const (
	Approve Decision = "approve"
	Reject  Decision = "reject"
)

// Action maps the answer onto the lifecycle action it performs.
func (d Decision) Action() (lifecycle.Action, bool) {
	switch d {
	case Approve:
		return lifecycle.ActApproveCompletion, true
	case Reject:
		return lifecycle.ActRejectCompletion, true
	}
	return "", false
}

// Coordinator applies completion transitions that the caller already guarded.
type Coordinator struct {
	store  store.Store
	policy func() model.Policy

	Now   func() time.Time
	NewID func() string
}

// New returns a coordinator writing through st. policy is consulted on every
// call so that reloaded limits apply immediately.
func New(st store.Store, policy func() model.Policy) *Coordinator {
	return &Coordinator{
		store:  st,
		policy: policy,
		Now:    func() time.Time { return time.Now().UTC() },
		NewID:  uuid.NewString,
	}
}

// Request opens a completion proposal by actorID. tr must come from
// lifecycle.Guard for ActRequestCompletion on s.
func (c *Coordinator) Request(ctx context.Context, s *model.Session, tr lifecycle.Transition, actorID string) (*model.CompletionRequest, error) {
	now := c.Now()
	until, blocked, err := c.cooldownUntil(ctx, s, actorID)
	if err != nil {
		return nil, err
	}
	if blocked && now.Before(until) {
		return nil, lifecycle.Conflict(FieldRejectedAt, CodeCooldown,
			fmt.Sprintf("your last completion request was rejected; you may request again after %s", until.Format(time.RFC3339)))
	}

	req := &model.CompletionRequest{
		ID:          c.NewID(),
		SessionID:   s.ID,
		RequesterID: actorID,
		RequestedAt: now,
		Status:      model.CompletionPending,
	}

	next := s.Clone()
	lifecycle.ApplyTransition(next, tr, now)
	next.CompletionRequestID = req.ID
	next.CompletionRequestedBy = actorID
	next.CompletionRequestedAt = model.TimePtr(now)

	if err := c.store.Apply(ctx, store.Mutation{Session: next, Completion: req}); err != nil {
		return nil, lifecycle.FromStore(err)
	}
	*s = *next
	return req, nil
}

// cooldownUntil reports whether actorID had a proposal of their own
// rejected, and when the resulting block ends. It reads the completion
// history, since the session only remembers the latest rejection. The
// rejecting participant is never blocked.
func (c *Coordinator) cooldownUntil(ctx context.Context, s *model.Session, actorID string) (time.Time, bool, error) {
	list, err := c.store.ListCompletionRequests(ctx, s.ID)
	if err != nil {
		return time.Time{}, false, err
	}
	if len(list) == 0 {
		// Sessions without history fall back to the last recorded rejection.
		if s.CompletionRejectedBy == "" || s.CompletionRejectedAt == nil {
			return time.Time{}, false, nil
		}
		rejectedRequester, ok := s.Counterparty(s.CompletionRejectedBy)
		if !ok || rejectedRequester != actorID {
			return time.Time{}, false, nil
		}
		return s.CompletionRejectedAt.Add(c.policy().CompletionCooldown), true, nil
	}

	var last *time.Time
	for _, r := range list {
		if r.RequesterID != actorID || r.Status != model.CompletionRejected || r.RespondedAt == nil {
			continue
		}
		if last == nil || r.RespondedAt.After(*last) {
			last = r.RespondedAt
		}
	}
	if last == nil {
		return time.Time{}, false, nil
	}
	return last.Add(c.policy().CompletionCooldown), true, nil
}

// Respond answers the pending proposal. tr must come from lifecycle.Guard for
// the decision's action. The returned request is nil when the session
// predates completion history.
func (c *Coordinator) Respond(ctx context.Context, s *model.Session, tr lifecycle.Transition, actorID string, d Decision, reason string) (*model.CompletionRequest, error) {
	reason = model.NormalizeText(reason)
	if d == Reject && model.TextLength(reason) > c.policy().MaxReviewComment {
		return nil, lifecycle.Validation(FieldRejectionReason, CodeRejectionReasonLong,
			fmt.Sprintf("rejection reason must be at most %d characters", c.policy().MaxReviewComment))
	}

	req, err := c.pendingRequest(ctx, s)
	if err != nil {
		return nil, err
	}

	now := c.Now()
	next := s.Clone()
	lifecycle.ApplyTransition(next, tr, now)

	switch d {
	case Approve:
		next.CompletionApprovedBy = actorID
		next.CompletionApprovedAt = model.TimePtr(now)
	case Reject:
		next.CompletionRejectedBy = actorID
		next.CompletionRejectedAt = model.TimePtr(now)
		next.CompletionRejectionReason = reason
		next.CompletionRequestedAt = nil
	}

	if req != nil {
		req.RespondedBy = actorID
		req.RespondedAt = model.TimePtr(now)
		if d == Approve {
			req.Status = model.CompletionApproved
		} else {
			req.Status = model.CompletionRejected
			req.RejectionReason = reason
		}
	}

	if err := c.store.Apply(ctx, store.Mutation{Session: next, Completion: req}); err != nil {
		return nil, lifecycle.FromStore(err)
	}
	*s = *next
	return req, nil
}

func (c *Coordinator) pendingRequest(ctx context.Context, s *model.Session) (*model.CompletionRequest, error) {
	if s.CompletionRequestID == "" {
		return nil, nil
	}
	list, err := c.store.ListCompletionRequests(ctx, s.ID)
	if err != nil {
		return nil, err
	}
	for _, r := range list {
		if r.ID == s.CompletionRequestID {
			return r, nil
		}
	}
	return nil, nil
}

// List returns the completion history of a session, oldest first.
func (c *Coordinator) List(ctx context.Context, sessionID string) ([]*model.CompletionRequest, error) {
	return c.store.ListCompletionRequests(ctx, sessionID)
}
