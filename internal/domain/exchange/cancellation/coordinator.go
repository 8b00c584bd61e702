// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package cancellation runs the early-termination protocol of a session:
// request, agree or dispute, and finalization of a dispute by the initiator.
package cancellation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ManuGH/skillswap/internal/domain/exchange/lifecycle"
	"github.com/ManuGH/skillswap/internal/domain/exchange/model"
	"github.com/ManuGH/skillswap/internal/domain/exchange/store"
)

// Validation codes and fields.
const (
	CodeInvalidReason        = "invalid_reason"
	CodeDescriptionTooShort  = "description_too_short"
	CodeTooManyEvidenceFiles = "too_many_evidence_files"
	CodeInvalidDecision      = "invalid_decision"
	CodeDescriptionRequired  = "response_description_required"
	CodePercentageRequired   = "work_completion_percentage_required"
	CodePercentageRange      = "work_completion_percentage_out_of_range"
	CodeFinalNoteRequired    = "final_note_required"
	CodeTextTooLong          = "text_too_long"

	FieldReason                = "reason"
	FieldDescription           = "description"
	FieldEvidenceFiles         = "evidenceFiles"
	FieldResponse              = "response"
	FieldResponseDescription   = "responseDescription"
	FieldWorkCompletion        = "workCompletionPercentage"
	FieldResponseEvidenceFiles = "responseEvidenceFiles"
	FieldFinalNote             = "finalNote"
)

// Decision is the counterparty's answer to a cancel request.
type Decision string

const (
	Agree   Decision = "agree"
	Dispute Decision = "dispute"
)

// Action maps the answer onto the lifecycle action it performs.
func (d Decision) Action() (lifecycle.Action, bool) {
	switch d {
	case Agree:
		return lifecycle.ActAgreeCancellation, true
	case Dispute:
		return lifecycle.ActDisputeCancellation, true
	}
	return "", false
}

// RequestInput is what the initiator files.
type RequestInput struct {
	Reason        model.CancelReason
	Description   string
	EvidenceFiles []string
}

// ResponseInput is the counterparty's answer.
type ResponseInput struct {
	Decision                 Decision
	Description              string
	WorkCompletionPercentage *int
	EvidenceFiles            []string
}

// Coordinator applies cancellation transitions that the caller already guarded.
type Coordinator struct {
	store  store.Store
	policy func() model.Policy

	Now   func() time.Time
	NewID func() string
}

// New returns a coordinator writing through st.
func New(st store.Store, policy func() model.Policy) *Coordinator {
	return &Coordinator{
		store:  st,
		policy: policy,
		Now:    func() time.Time { return time.Now().UTC() },
		NewID:  uuid.NewString,
	}
}

// Open loads the session's open cancel request, or nil when none is referenced.
func (c *Coordinator) Open(ctx context.Context, s *model.Session) (*model.CancelRequest, error) {
	if s == nil || s.CancelRequestID == "" {
		return nil, nil
	}
	return c.store.GetCancelRequest(ctx, s.CancelRequestID)
}

// Current returns the open cancel request of the session, or the most recent
// resolved one when nothing is open. It returns nil, nil when the session
// never had a cancel request.
func (c *Coordinator) Current(ctx context.Context, s *model.Session) (*model.CancelRequest, error) {
	open, err := c.Open(ctx, s)
	if err != nil {
		return nil, err
	}
	if open != nil {
		return open, nil
	}
	list, err := c.store.ListCancelRequests(ctx, s.ID)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[len(list)-1], nil
}

func (c *Coordinator) checkEvidence(field string, refs []string) ([]string, error) {
	refs = model.CleanFileRefs(refs)
	if limit := c.policy().MaxEvidenceFiles; len(refs) > limit {
		return nil, lifecycle.Validation(field, CodeTooManyEvidenceFiles,
			fmt.Sprintf("at most %d evidence files may be attached", limit))
	}
	return refs, nil
}

func (c *Coordinator) checkLength(field, text string) error {
	if limit := c.policy().MaxReviewComment; model.TextLength(text) > limit {
		return lifecycle.Validation(field, CodeTextTooLong, fmt.Sprintf("%s must be at most %d characters", field, limit))
	}
	return nil
}

// Request files a cancel request by actorID. tr must come from
// lifecycle.Guard for ActRequestCancellation on s.
func (c *Coordinator) Request(ctx context.Context, s *model.Session, tr lifecycle.Transition, actorID string, in RequestInput) (*model.CancelRequest, error) {
	if !in.Reason.Valid() {
		return nil, lifecycle.Validation(FieldReason, CodeInvalidReason, fmt.Sprintf("unknown cancellation reason %q", in.Reason))
	}
	desc := model.NormalizeText(in.Description)
	if limit := c.policy().MinCancelDescription; model.TextLength(desc) < limit {
		return nil, lifecycle.Validation(FieldDescription, CodeDescriptionTooShort,
			fmt.Sprintf("description must be at least %d characters", limit))
	}
	if err := c.checkLength(FieldDescription, desc); err != nil {
		return nil, err
	}
	evidence, err := c.checkEvidence(FieldEvidenceFiles, in.EvidenceFiles)
	if err != nil {
		return nil, err
	}

	now := c.Now()
	req := &model.CancelRequest{
		ID:                    c.NewID(),
		SessionID:             s.ID,
		InitiatorID:           actorID,
		Reason:                in.Reason,
		Description:           desc,
		EvidenceFiles:         evidence,
		ResponseStatus:        model.ResponsePending,
		ResponseEvidenceFiles: []string{},
		Resolution:            model.ResolutionPending,
		CreatedAt:             now,
	}

	next := s.Clone()
	lifecycle.ApplyTransition(next, tr, now)
	next.CancelRequestID = req.ID

	if err := c.store.Apply(ctx, store.Mutation{Session: next, Cancel: req}); err != nil {
		return nil, lifecycle.FromStore(err)
	}
	*s = *next
	return req, nil
}

// Respond records the counterparty's answer on open. Agreeing cancels the
// session in the same write; disputing leaves it active.
func (c *Coordinator) Respond(ctx context.Context, s *model.Session, open *model.CancelRequest, tr lifecycle.Transition, actorID string, in ResponseInput) (*model.CancelRequest, error) {
	desc := model.NormalizeText(in.Description)
	switch in.Decision {
	case Agree:
		if p := in.WorkCompletionPercentage; p != nil && (*p < model.MinWorkCompletion || *p > model.MaxWorkCompletion) {
			return nil, lifecycle.Validation(FieldWorkCompletion, CodePercentageRange, "work completion percentage must be between 0 and 100")
		}
	case Dispute:
		if desc == "" {
			return nil, lifecycle.Validation(FieldResponseDescription, CodeDescriptionRequired, "a dispute needs a response description")
		}
		p := in.WorkCompletionPercentage
		if p == nil {
			return nil, lifecycle.Validation(FieldWorkCompletion, CodePercentageRequired, "a dispute needs the work completion percentage")
		}
		if *p < model.MinWorkCompletion || *p > model.MaxWorkCompletion {
			return nil, lifecycle.Validation(FieldWorkCompletion, CodePercentageRange, "work completion percentage must be between 0 and 100")
		}
	default:
		return nil, lifecycle.Validation(FieldResponse, CodeInvalidDecision, fmt.Sprintf("response must be %q or %q", Agree, Dispute))
	}
	if err := c.checkLength(FieldResponseDescription, desc); err != nil {
		return nil, err
	}
	evidence, err := c.checkEvidence(FieldResponseEvidenceFiles, in.EvidenceFiles)
	if err != nil {
		return nil, err
	}

	now := c.Now()
	req := open.Clone()
	req.ResponderID = actorID
	req.ResponseDescription = desc
	req.ResponseEvidenceFiles = evidence
	req.RespondedAt = model.TimePtr(now)
	if in.WorkCompletionPercentage != nil {
		pct := *in.WorkCompletionPercentage
		req.WorkCompletionPercentage = &pct
	}

	next := s.Clone()
	lifecycle.ApplyTransition(next, tr, now)
	if in.Decision == Agree {
		req.ResponseStatus = model.ResponseAgreed
		req.Resolution = model.ResolutionCanceled
		req.ResolvedAt = model.TimePtr(now)
	} else {
		req.ResponseStatus = model.ResponseDisputed
	}

	if err := c.store.Apply(ctx, store.Mutation{Session: next, Cancel: req}); err != nil {
		return nil, lifecycle.FromStore(err)
	}
	*s = *next
	return req, nil
}

// Finalize closes a disputed request. The outcome is always cancellation of
// the session; finalNote records the initiator's closing statement.
func (c *Coordinator) Finalize(ctx context.Context, s *model.Session, open *model.CancelRequest, tr lifecycle.Transition, finalNote string) (*model.CancelRequest, error) {
	note := model.NormalizeText(finalNote)
	if note == "" {
		return nil, lifecycle.Validation(FieldFinalNote, CodeFinalNoteRequired, "a final note is required to finalize a dispute")
	}
	if err := c.checkLength(FieldFinalNote, note); err != nil {
		return nil, err
	}

	now := c.Now()
	req := open.Clone()
	req.Resolution = model.ResolutionCanceled
	req.FinalNote = note
	req.ResolvedAt = model.TimePtr(now)

	next := s.Clone()
	lifecycle.ApplyTransition(next, tr, now)

	if err := c.store.Apply(ctx, store.Mutation{Session: next, Cancel: req}); err != nil {
		return nil, lifecycle.FromStore(err)
	}
	*s = *next
	return req, nil
}

// List returns every cancel request of the session, oldest first.
func (c *Coordinator) List(ctx context.Context, sessionID string) ([]*model.CancelRequest, error) {
	return c.store.ListCancelRequests(ctx, sessionID)
}
