// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package lifecycle

// Action is a participant-initiated workflow command.
type Action string

const (
	ActRequestCompletion    Action = "request_completion"
	ActApproveCompletion    Action = "approve_completion"
	ActRejectCompletion     Action = "reject_completion"
	ActRequestCancellation  Action = "request_cancellation"
	ActAgreeCancellation    Action = "agree_cancellation"
	ActDisputeCancellation  Action = "dispute_cancellation"
	ActFinalizeCancellation Action = "finalize_cancellation"
	ActSubmitReview         Action = "submit_review"
)

// Actions lists every action.
var Actions = []Action{
	ActRequestCompletion,
	ActApproveCompletion,
	ActRejectCompletion,
	ActRequestCancellation,
	ActAgreeCancellation,
	ActDisputeCancellation,
	ActFinalizeCancellation,
	ActSubmitReview,
}

// ActorRule restricts which participant may fire a transition.
type ActorRule int

const (
	// AnyParticipant lets either participant act.
	AnyParticipant ActorRule = iota
	// Counterparty requires the participant who did not open the pending request.
	Counterparty
	// Initiator requires the participant who opened the pending request.
	Initiator
)

func (r ActorRule) String() string {
	switch r {
	case AnyParticipant:
		return "any"
	case Counterparty:
		return "counterparty"
	case Initiator:
		return "initiator"
	}
	return "unknown"
}
