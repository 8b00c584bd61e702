// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package lifecycle

// Forbidden reason codes. They double as the machine code of the resulting
// StateConflict error.
const (
	ForbiddenTerminalAbsorbing   = "terminal_absorbing"
	ForbiddenCompletionPending   = "completion_already_requested"
	ForbiddenCancellationOpen    = "cancellation_already_open"
	ForbiddenNoCompletionRequest = "no_pending_completion_request"
	ForbiddenNoCancelRequest     = "no_open_cancel_request"
	ForbiddenAlreadyResponded    = "cancellation_already_responded"
	ForbiddenNotDisputed         = "cancellation_not_disputed"
	ForbiddenSessionNotCompleted = "session_not_completed"
)

// Conflicting field names reported with a forbidden decision.
const (
	FieldStatus                = "status"
	FieldCompletionRequestedBy = "completionRequestedBy"
	FieldCancelRequest         = "cancelRequest"
	FieldResponseStatus        = "responseStatus"
)

func allowed() Decision { return Decision{Allowed: true} }
func forbid(reason, field string) Decision {
	return Decision{Allowed: false, Reason: reason, Field: field}
}

var (
	terminal         = forbid(ForbiddenTerminalAbsorbing, FieldStatus)
	notCompleted     = forbid(ForbiddenSessionNotCompleted, FieldStatus)
	completionOpen   = forbid(ForbiddenCompletionPending, FieldCompletionRequestedBy)
	cancelOpen       = forbid(ForbiddenCancellationOpen, FieldCancelRequest)
	noCompletion     = forbid(ForbiddenNoCompletionRequest, FieldCompletionRequestedBy)
	noCancel         = forbid(ForbiddenNoCancelRequest, FieldCancelRequest)
	alreadyResponded = forbid(ForbiddenAlreadyResponded, FieldResponseStatus)
	notDisputed      = forbid(ForbiddenNotDisputed, FieldResponseStatus)
)

// decisionTable defines an explicit decision for every Phase×Action combination.
var decisionTable = map[Phase]map[Action]Decision{
	PhaseIdle: {
		ActRequestCompletion:    allowed(),
		ActApproveCompletion:    noCompletion,
		ActRejectCompletion:     noCompletion,
		ActRequestCancellation:  allowed(),
		ActAgreeCancellation:    noCancel,
		ActDisputeCancellation:  noCancel,
		ActFinalizeCancellation: noCancel,
		ActSubmitReview:         notCompleted,
	},
	PhaseCompletionRequested: {
		ActRequestCompletion:    completionOpen,
		ActApproveCompletion:    allowed(),
		ActRejectCompletion:     allowed(),
		ActRequestCancellation:  completionOpen,
		ActAgreeCancellation:    noCancel,
		ActDisputeCancellation:  noCancel,
		ActFinalizeCancellation: noCancel,
		ActSubmitReview:         notCompleted,
	},
	PhaseCancellationPending: {
		ActRequestCompletion:    cancelOpen,
		ActApproveCompletion:    noCompletion,
		ActRejectCompletion:     noCompletion,
		ActRequestCancellation:  cancelOpen,
		ActAgreeCancellation:    allowed(),
		ActDisputeCancellation:  allowed(),
		ActFinalizeCancellation: notDisputed,
		ActSubmitReview:         notCompleted,
	},
	PhaseCancellationDisputed: {
		ActRequestCompletion:    cancelOpen,
		ActApproveCompletion:    noCompletion,
		ActRejectCompletion:     noCompletion,
		ActRequestCancellation:  cancelOpen,
		ActAgreeCancellation:    alreadyResponded,
		ActDisputeCancellation:  alreadyResponded,
		ActFinalizeCancellation: allowed(),
		ActSubmitReview:         notCompleted,
	},
	PhaseCompleted: {
		ActRequestCompletion:    terminal,
		ActApproveCompletion:    terminal,
		ActRejectCompletion:     terminal,
		ActRequestCancellation:  terminal,
		ActAgreeCancellation:    terminal,
		ActDisputeCancellation:  terminal,
		ActFinalizeCancellation: terminal,
		ActSubmitReview:         allowed(),
	},
	PhaseCanceled: {
		ActRequestCompletion:    terminal,
		ActApproveCompletion:    terminal,
		ActRejectCompletion:     terminal,
		ActRequestCancellation:  terminal,
		ActAgreeCancellation:    terminal,
		ActDisputeCancellation:  terminal,
		ActFinalizeCancellation: terminal,
		ActSubmitReview:         notCompleted,
	},
}

// DecisionFor returns the explicit decision for phase+action.
func DecisionFor(p Phase, act Action) (Decision, bool) {
	row, ok := decisionTable[p]
	if !ok {
		return Decision{}, false
	}
	d, ok := row[act]
	return d, ok
}
