// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package lifecycle

// Transition is a single allowed edge in the workflow state machine.
type Transition struct {
	From   Phase
	Action Action
	To     Phase
	Actor  ActorRule
}

// Decision records whether an action is allowed in a phase and why not.
type Decision struct {
	Allowed bool
	Reason  string // forbidden code
	Field   string // field that makes the action illegal
}

var transitionsTable = []Transition{
	// Completion path
	{From: PhaseIdle, Action: ActRequestCompletion, To: PhaseCompletionRequested, Actor: AnyParticipant},
	{From: PhaseCompletionRequested, Action: ActApproveCompletion, To: PhaseCompleted, Actor: Counterparty},
	{From: PhaseCompletionRequested, Action: ActRejectCompletion, To: PhaseIdle, Actor: Counterparty},

	// Cancellation path
	{From: PhaseIdle, Action: ActRequestCancellation, To: PhaseCancellationPending, Actor: AnyParticipant},
	{From: PhaseCancellationPending, Action: ActAgreeCancellation, To: PhaseCanceled, Actor: Counterparty},
	{From: PhaseCancellationPending, Action: ActDisputeCancellation, To: PhaseCancellationDisputed, Actor: Counterparty},
	{From: PhaseCancellationDisputed, Action: ActFinalizeCancellation, To: PhaseCanceled, Actor: Initiator},

	// Reviews never leave the completed phase
	{From: PhaseCompleted, Action: ActSubmitReview, To: PhaseCompleted, Actor: AnyParticipant},
}

// TransitionFor returns the allowed transition for a given phase+action.
func TransitionFor(from Phase, act Action) (Transition, bool) {
	for _, tr := range transitionsTable {
		if tr.From == from && tr.Action == act {
			return tr, true
		}
	}
	return Transition{}, false
}

// Transitions returns a copy of the full table.
func Transitions() []Transition {
	out := make([]Transition, len(transitionsTable))
	copy(out, transitionsTable)
	return out
}
