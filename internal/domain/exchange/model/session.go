// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package model defines the records owned by the exchange session workflow.
package model

import "time"

// Terms is what one participant brings to the exchange.
type Terms struct {
	SkillID string `json:"skillId,omitempty"`
	Service string `json:"service,omitempty"`
}

// Session is a bilateral skill exchange between two participants.
// Participant order is display-only and never used for authorization.
type Session struct {
	ID              string     `json:"id"`
	ParticipantA    string     `json:"participantA"`
	ParticipantB    string     `json:"participantB"`
	TermsA          Terms      `json:"termsA"`
	TermsB          Terms      `json:"termsB"`
	StartDate       time.Time  `json:"startDate"`
	ExpectedEndDate *time.Time `json:"expectedEndDate,omitempty"`

	Status SessionStatus `json:"status"`

	Completion                CompletionState `json:"completion"`
	CompletionRequestID       string          `json:"completionRequestId,omitempty"`
	CompletionRequestedBy     string          `json:"completionRequestedBy,omitempty"`
	CompletionRequestedAt     *time.Time      `json:"completionRequestedAt,omitempty"`
	CompletionApprovedBy      string          `json:"completionApprovedBy,omitempty"`
	CompletionApprovedAt      *time.Time      `json:"completionApprovedAt,omitempty"`
	CompletionRejectedBy      string          `json:"completionRejectedBy,omitempty"`
	CompletionRejectedAt      *time.Time      `json:"completionRejectedAt,omitempty"`
	CompletionRejectionReason string          `json:"completionRejectionReason,omitempty"`

	Cancellation    CancellationState `json:"cancellation"`
	CancelRequestID string            `json:"cancelRequestId,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Version is the optimistic concurrency token. Every successful write bumps it.
	Version int64 `json:"version"`
}

// IsParticipant reports whether userID is one of the two participants.
func (s *Session) IsParticipant(userID string) bool {
	if s == nil || userID == "" {
		return false
	}
	return userID == s.ParticipantA || userID == s.ParticipantB
}

// Counterparty returns the other participant.
func (s *Session) Counterparty(userID string) (string, bool) {
	switch userID {
	case "":
		return "", false
	case s.ParticipantA:
		return s.ParticipantB, true
	case s.ParticipantB:
		return s.ParticipantA, true
	}
	return "", false
}

// TermsFor returns what userID offered in this session.
func (s *Session) TermsFor(userID string) Terms {
	switch userID {
	case s.ParticipantA:
		return s.TermsA
	case s.ParticipantB:
		return s.TermsB
	}
	return Terms{}
}

// Participants returns both participant IDs in slot order.
func (s *Session) Participants() []string {
	return []string{s.ParticipantA, s.ParticipantB}
}

// Clone returns a deep copy safe for mutation.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.ExpectedEndDate = cloneTime(s.ExpectedEndDate)
	out.CompletionRequestedAt = cloneTime(s.CompletionRequestedAt)
	out.CompletionApprovedAt = cloneTime(s.CompletionApprovedAt)
	out.CompletionRejectedAt = cloneTime(s.CompletionRejectedAt)
	return &out
}

// CompletionRequest is the history record of one completion proposal.
type CompletionRequest struct {
	ID              string                  `json:"id"`
	SessionID       string                  `json:"sessionId"`
	RequesterID     string                  `json:"requesterId"`
	RequestedAt     time.Time               `json:"requestedAt"`
	Status          CompletionRequestStatus `json:"status"`
	RespondedBy     string                  `json:"respondedBy,omitempty"`
	RespondedAt     *time.Time              `json:"respondedAt,omitempty"`
	RejectionReason string                  `json:"rejectionReason,omitempty"`
	Version         int64                   `json:"version"`
}

// Clone returns a deep copy safe for mutation.
func (c *CompletionRequest) Clone() *CompletionRequest {
	if c == nil {
		return nil
	}
	out := *c
	out.RespondedAt = cloneTime(c.RespondedAt)
	return &out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// TimePtr returns a pointer to t.
func TimePtr(t time.Time) *time.Time {
	return &t
}
