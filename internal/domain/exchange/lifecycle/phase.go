// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package lifecycle

import "github.com/ManuGH/skillswap/internal/domain/exchange/model"

// Phase is the combined workflow position of a session: status plus the
// completion and cancellation sub-states folded into one explicit enum.
type Phase string

const (
	PhaseIdle                 Phase = "idle"
	PhaseCompletionRequested  Phase = "completion_requested"
	PhaseCancellationPending  Phase = "cancellation_pending"
	PhaseCancellationDisputed Phase = "cancellation_disputed"
	PhaseCompleted            Phase = "completed"
	PhaseCanceled             Phase = "canceled"
)

// Phases lists every phase.
var Phases = []Phase{
	PhaseIdle,
	PhaseCompletionRequested,
	PhaseCancellationPending,
	PhaseCancellationDisputed,
	PhaseCompleted,
	PhaseCanceled,
}

// IsTerminal returns true for absorbing phases.
func (p Phase) IsTerminal() bool {
	return p == PhaseCompleted || p == PhaseCanceled
}

// PhaseOf derives the phase from the explicit enums on the session record.
func PhaseOf(s *model.Session) Phase {
	switch s.Status {
	case model.StatusCompleted:
		return PhaseCompleted
	case model.StatusCanceled:
		return PhaseCanceled
	}
	switch s.Cancellation {
	case model.CancellationPending:
		return PhaseCancellationPending
	case model.CancellationDisputed:
		return PhaseCancellationDisputed
	}
	if s.Completion == model.CompletionRequested {
		return PhaseCompletionRequested
	}
	return PhaseIdle
}
