// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package model

// SessionStatus is the coarse, client-visible lifecycle of an exchange session.
type SessionStatus string

const (
	StatusActive    SessionStatus = "active"
	StatusCompleted SessionStatus = "completed"
	StatusCanceled  SessionStatus = "canceled"
)

// IsTerminal returns true if the status is absorbing.
func (s SessionStatus) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusCanceled:
		return true
	}
	return false
}

// Valid reports whether s is a known status.
func (s SessionStatus) Valid() bool {
	switch s {
	case StatusActive, StatusCompleted, StatusCanceled:
		return true
	}
	return false
}

// CompletionState is the completion sub-state overlaying an active session.
type CompletionState string

const (
	CompletionNone      CompletionState = "none"
	CompletionRequested CompletionState = "requested"
)

// CancellationState is the cancellation sub-state overlaying an active session.
type CancellationState string

const (
	CancellationNone     CancellationState = "none"
	CancellationPending  CancellationState = "pending"
	CancellationDisputed CancellationState = "disputed"
)

// ResponseStatus is the counterparty's answer to a cancel request.
type ResponseStatus string

const (
	ResponsePending  ResponseStatus = "pending"
	ResponseAgreed   ResponseStatus = "agreed"
	ResponseDisputed ResponseStatus = "disputed"
)

// Resolution is the final outcome of a cancel request.
type Resolution string

const (
	ResolutionPending  Resolution = "pending"
	ResolutionCanceled Resolution = "canceled"
)

// CompletionRequestStatus tracks one completion proposal.
type CompletionRequestStatus string

const (
	CompletionPending  CompletionRequestStatus = "pending"
	CompletionApproved CompletionRequestStatus = "approved"
	CompletionRejected CompletionRequestStatus = "rejected"
)

// CancelReason is the enumerated category a cancellation is filed under.
type CancelReason string

const (
	ReasonScheduleConflict    CancelReason = "schedule_conflict"
	ReasonPersonalEmergency   CancelReason = "personal_emergency"
	ReasonSkillMismatch       CancelReason = "skill_mismatch"
	ReasonUnresponsivePartner CancelReason = "unresponsive_partner"
	ReasonQualityConcerns     CancelReason = "quality_concerns"
	ReasonOther               CancelReason = "other"
)

// CancelReasons lists every accepted category in display order.
var CancelReasons = []CancelReason{
	ReasonScheduleConflict,
	ReasonPersonalEmergency,
	ReasonSkillMismatch,
	ReasonUnresponsivePartner,
	ReasonQualityConcerns,
	ReasonOther,
}

// Valid reports whether r is one of the enumerated categories.
func (r CancelReason) Valid() bool {
	for _, known := range CancelReasons {
		if r == known {
			return true
		}
	}
	return false
}

// ActivityKind is an out-of-band user activity that can trigger badge evaluation.
type ActivityKind string

const (
	ActivitySkillVerified ActivityKind = "skill_verified"
	ActivityPostCreated   ActivityKind = "post_created"
)

// Valid reports whether k is a known activity kind.
func (k ActivityKind) Valid() bool {
	return k == ActivitySkillVerified || k == ActivityPostCreated
}

// MentorRule selects how the "skill provider" role of a session is derived.
type MentorRule string

const (
	// MentorBySlot treats participant A as the provider.
	MentorBySlot MentorRule = "slot"
	// MentorByOfferedSkill treats every participant who offered a skill reference as a provider.
	MentorByOfferedSkill MentorRule = "offered_skill"
)

// Valid reports whether m is a known rule.
func (m MentorRule) Valid() bool {
	return m == MentorBySlot || m == MentorByOfferedSkill
}
