// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package lifecycle

import (
	"time"

	"github.com/ManuGH/skillswap/internal/domain/exchange/model"
)

// ApplyTransition moves the session's explicit enums to tr.To. Coordinators
// fill in the operation-specific fields (who, when, why) afterwards.
func ApplyTransition(s *model.Session, tr Transition, now time.Time) {
	switch tr.To {
	case PhaseIdle:
		s.Status = model.StatusActive
		s.Completion = model.CompletionNone
		s.CompletionRequestID = ""
		s.CompletionRequestedBy = ""
		s.Cancellation = model.CancellationNone
		s.CancelRequestID = ""
	case PhaseCompletionRequested:
		s.Completion = model.CompletionRequested
	case PhaseCancellationPending:
		s.Cancellation = model.CancellationPending
	case PhaseCancellationDisputed:
		s.Cancellation = model.CancellationDisputed
	case PhaseCompleted:
		s.Status = model.StatusCompleted
		s.Completion = model.CompletionNone
		s.CompletionRequestID = ""
		s.Cancellation = model.CancellationNone
		s.CancelRequestID = ""
	case PhaseCanceled:
		s.Status = model.StatusCanceled
		s.Completion = model.CompletionNone
		s.CompletionRequestID = ""
		s.CompletionRequestedBy = ""
		s.Cancellation = model.CancellationNone
		s.CancelRequestID = ""
	}
	s.UpdatedAt = now
}
