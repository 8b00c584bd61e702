// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package model

import (
	"errors"
	"fmt"
)

// ErrInvariantViolation marks a record that must never be persisted.
var ErrInvariantViolation = errors.New("invariant violation")

func violation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvariantViolation, fmt.Sprintf(format, args...))
}

// CheckSession verifies the structural invariants of a session record.
func CheckSession(s *Session) error {
	if s == nil {
		return violation("nil session")
	}
	if s.ID == "" {
		return violation("session id is empty")
	}
	if s.ParticipantA == "" || s.ParticipantB == "" {
		return violation("session %s: participant missing", s.ID)
	}
	if s.ParticipantA == s.ParticipantB {
		return violation("session %s: participants must differ", s.ID)
	}
	if !s.Status.Valid() {
		return violation("session %s: unknown status %q", s.ID, s.Status)
	}

	switch s.Completion {
	case CompletionNone:
		// A completed session keeps its requester for the record.
		if s.CompletionRequestedBy != "" && s.Status != StatusCompleted {
			return violation("session %s: completionRequestedBy set without pending request", s.ID)
		}
		if s.CompletionRequestedBy != "" && !s.IsParticipant(s.CompletionRequestedBy) {
			return violation("session %s: completionRequestedBy %q is not a participant", s.ID, s.CompletionRequestedBy)
		}
	case CompletionRequested:
		if !s.IsParticipant(s.CompletionRequestedBy) {
			return violation("session %s: completionRequestedBy %q is not a participant", s.ID, s.CompletionRequestedBy)
		}
	default:
		return violation("session %s: unknown completion state %q", s.ID, s.Completion)
	}

	switch s.Cancellation {
	case CancellationNone:
		if s.CancelRequestID != "" {
			return violation("session %s: cancelRequestId set without open cancellation", s.ID)
		}
	case CancellationPending, CancellationDisputed:
		if s.CancelRequestID == "" {
			return violation("session %s: open cancellation without cancelRequestId", s.ID)
		}
	default:
		return violation("session %s: unknown cancellation state %q", s.ID, s.Cancellation)
	}

	if s.Completion == CompletionRequested && s.Cancellation != CancellationNone {
		return violation("session %s: pending completion and open cancellation at once", s.ID)
	}
	if s.Status.IsTerminal() && (s.Completion != CompletionNone || s.Cancellation != CancellationNone) {
		return violation("session %s: terminal status %s with open sub-state", s.ID, s.Status)
	}
	return nil
}

// CheckCancelRequest verifies a cancel request against its session.
func CheckCancelRequest(s *Session, c *CancelRequest) error {
	if c == nil {
		return nil
	}
	if s == nil || c.SessionID != s.ID {
		return violation("cancel request %s: session mismatch", c.ID)
	}
	if !s.IsParticipant(c.InitiatorID) {
		return violation("cancel request %s: initiator %q is not a participant", c.ID, c.InitiatorID)
	}
	if c.ResponderID != "" {
		if other, _ := s.Counterparty(c.InitiatorID); c.ResponderID != other {
			return violation("cancel request %s: responder must be the counterparty", c.ID)
		}
	}
	if c.WorkCompletionPercentage != nil {
		p := *c.WorkCompletionPercentage
		if p < MinWorkCompletion || p > MaxWorkCompletion {
			return violation("cancel request %s: work completion %d out of range", c.ID, p)
		}
	}
	if c.IsOpen() && s.CancelRequestID != c.ID {
		return violation("cancel request %s: open but not referenced by session", c.ID)
	}
	return nil
}
