// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package lifecycle

import (
	"fmt"

	"github.com/ManuGH/skillswap/internal/domain/exchange/model"
)

// Authorization codes.
const (
	CodeNotParticipant  = "not_participant"
	CodeNotCounterparty = "not_counterparty"
	CodeNotInitiator    = "not_initiator"
	CodeSessionNotFound = "session_not_found"
	CodeCancelNotFound  = "cancel_request_not_found"
)

// Guard is the cross-cutting check applied before every mutating action.
// Order: session exists, actor is a participant, (phase, action) is in the
// table, actor satisfies the transition's actor rule.
//
// open is the session's open cancel request; it is required only for
// cancellation responses and finalization.
func Guard(s *model.Session, open *model.CancelRequest, actorID string, act Action) (Transition, error) {
	if s == nil {
		return Transition{}, NotFound(CodeSessionNotFound, "session not found")
	}
	if !s.IsParticipant(actorID) {
		return Transition{}, Unauthorized(CodeNotParticipant, "actor is not a participant of this session")
	}

	phase := PhaseOf(s)
	decision, ok := DecisionFor(phase, act)
	if !ok {
		return Transition{}, Conflict(FieldStatus, "unknown_action", fmt.Sprintf("action %s is not defined for phase %s", act, phase))
	}
	if !decision.Allowed {
		return Transition{}, Conflict(decision.Field, decision.Reason, describeForbidden(decision.Reason))
	}
	tr, ok := TransitionFor(phase, act)
	if !ok {
		return Transition{}, Conflict(FieldStatus, "illegal_transition", fmt.Sprintf("no transition for %s in phase %s", act, phase))
	}

	owner, err := requestOwner(s, open, phase)
	if err != nil {
		return Transition{}, err
	}
	switch tr.Actor {
	case Counterparty:
		if actorID == owner {
			return Transition{}, Unauthorized(CodeNotCounterparty, "only the other participant may respond to this request")
		}
	case Initiator:
		if actorID != owner {
			return Transition{}, Unauthorized(CodeNotInitiator, "only the initiator may finalize this cancellation")
		}
	}
	return tr, nil
}

// requestOwner returns who opened the pending request of the phase, if any.
func requestOwner(s *model.Session, open *model.CancelRequest, phase Phase) (string, error) {
	switch phase {
	case PhaseCompletionRequested:
		return s.CompletionRequestedBy, nil
	case PhaseCancellationPending, PhaseCancellationDisputed:
		if open == nil || !open.IsOpen() || open.ID != s.CancelRequestID {
			return "", NotFound(CodeCancelNotFound, "open cancel request not found")
		}
		return open.InitiatorID, nil
	}
	return "", nil
}

func describeForbidden(reason string) string {
	switch reason {
	case ForbiddenTerminalAbsorbing:
		return "session is already closed"
	case ForbiddenCompletionPending:
		return "completion already requested"
	case ForbiddenCancellationOpen:
		return "a cancellation request is already open"
	case ForbiddenNoCompletionRequest:
		return "no completion request is pending"
	case ForbiddenNoCancelRequest:
		return "no cancellation request is open"
	case ForbiddenAlreadyResponded:
		return "cancellation request was already answered"
	case ForbiddenNotDisputed:
		return "only a disputed cancellation can be finalized"
	case ForbiddenSessionNotCompleted:
		return "session is not completed"
	}
	return reason
}
