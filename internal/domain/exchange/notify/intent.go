// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package notify turns workflow outcomes into notification intents and hands
// them to a delivery sink without blocking the request that produced them.
package notify

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Kind names what happened.
type Kind string

const (
	KindCompletionRequested   Kind = "session.completion_requested"
	KindCompletionApproved    Kind = "session.completion_approved"
	KindCompletionRejected    Kind = "session.completion_rejected"
	KindCancellationRequested Kind = "session.cancellation_requested"
	KindCancellationAgreed    Kind = "session.cancellation_agreed"
	KindCancellationDisputed  Kind = "session.cancellation_disputed"
	KindCancellationFinalized Kind = "session.cancellation_finalized"
	KindReviewEligible        Kind = "session.review_eligible"
	KindBadgeGranted          Kind = "badge.granted"
	KindModeration            Kind = "moderation.flow"
)

// Intent is one message to one recipient. Delivery is at-most-once.
type Intent struct {
	ID          string            `json:"id"`
	Kind        Kind              `json:"kind"`
	RecipientID string            `json:"recipientId"`
	SessionID   string            `json:"sessionId,omitempty"`
	Subject     string            `json:"subject"`
	Body        string            `json:"body"`
	Data        map[string]string `json:"data,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
}

// NewIntent builds an intent with a fresh ID and the canonical subject for kind.
func NewIntent(kind Kind, recipientID, sessionID string, now time.Time) Intent {
	subject, body := render(kind, sessionID)
	return Intent{
		ID:          uuid.NewString(),
		Kind:        kind,
		RecipientID: recipientID,
		SessionID:   sessionID,
		Subject:     subject,
		Body:        body,
		CreatedAt:   now,
	}
}

func render(kind Kind, sessionID string) (string, string) {
	switch kind {
	case KindCompletionRequested:
		return "Completion requested", fmt.Sprintf("Your partner marked session %s as complete. Approve or reject it.", sessionID)
	case KindCompletionApproved:
		return "Session completed", fmt.Sprintf("Your completion request for session %s was approved.", sessionID)
	case KindCompletionRejected:
		return "Completion rejected", fmt.Sprintf("Your completion request for session %s was rejected.", sessionID)
	case KindCancellationRequested:
		return "Cancellation requested", fmt.Sprintf("Your partner asked to cancel session %s. Agree or dispute it.", sessionID)
	case KindCancellationAgreed:
		return "Session canceled", fmt.Sprintf("Your partner agreed to cancel session %s.", sessionID)
	case KindCancellationDisputed:
		return "Cancellation disputed", fmt.Sprintf("Your partner disputed the cancellation of session %s.", sessionID)
	case KindCancellationFinalized:
		return "Cancellation finalized", fmt.Sprintf("The disputed cancellation of session %s was finalized.", sessionID)
	case KindReviewEligible:
		return "Leave a review", fmt.Sprintf("Session %s is complete. You can now review your partner.", sessionID)
	case KindBadgeGranted:
		return "New badge", "You earned a new badge."
	}
	return string(kind), ""
}
