// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Span attribute keys.
const (
	HTTPMethodKey     = "http.method"
	HTTPStatusCodeKey = "http.status_code"
	HTTPRouteKey      = "http.route"
	HTTPURLKey        = "http.url"
	HTTPUserAgentKey  = "http.user_agent"

	SessionIDKey    = "swap.session_id"
	SessionPhaseKey = "swap.phase"
	ActionKey       = "swap.action"
	ActorIDKey      = "swap.actor_id"

	BadgeUserKey    = "badge.user_id"
	BadgeGrantedKey = "badge.granted"

	ErrorKey     = "error"
	ErrorTypeKey = "error.type"
	ErrorCodeKey = "error.code"
)

func HTTPAttributes(method, route, url string, statusCode int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(HTTPMethodKey, method),
		attribute.String(HTTPRouteKey, route),
		attribute.String(HTTPURLKey, url),
		attribute.Int(HTTPStatusCodeKey, statusCode),
	}
}

// WorkflowAttributes describes one workflow action. Empty values are omitted.
func WorkflowAttributes(sessionID, action, actorID, phase string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 4)
	if sessionID != "" {
		attrs = append(attrs, attribute.String(SessionIDKey, sessionID))
	}
	if action != "" {
		attrs = append(attrs, attribute.String(ActionKey, action))
	}
	if actorID != "" {
		attrs = append(attrs, attribute.String(ActorIDKey, actorID))
	}
	if phase != "" {
		attrs = append(attrs, attribute.String(SessionPhaseKey, phase))
	}
	return attrs
}

func BadgeAttributes(userID string, granted int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(BadgeUserKey, userID),
		attribute.Int(BadgeGrantedKey, granted),
	}
}

func ErrorAttributes(errorType, code string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.Bool(ErrorKey, true),
		attribute.String(ErrorTypeKey, errorType),
	}
	if code != "" {
		attrs = append(attrs, attribute.String(ErrorCodeKey, code))
	}
	return attrs
}
