// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldSessionID       = "session_id"
	FieldCorrelationID   = "correlation_id"
	FieldRequestID       = "request_id"
	FieldActorID         = "actor_id"
	FieldUserID          = "user_id"
	FieldCancelRequestID = "cancel_request_id"
	FieldReviewID        = "review_id"
	FieldBadgeID         = "badge_id"

	// Tracing fields
	FieldTraceID = "trace_id"
	FieldSpanID  = "span_id"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"
	FieldAction    = "action"

	// State fields
	FieldOldPhase = "old_phase"
	FieldNewPhase = "new_phase"

	// HTTP fields
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatus     = "status"
	FieldDurationMS = "duration_ms"
)
