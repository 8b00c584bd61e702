// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package telemetry

import (
	"testing"

	"go.opentelemetry.io/otel/attribute"
)

func TestHTTPAttributes(t *testing.T) {
	attrs := HTTPAttributes("POST", "/api/v1/sessions/{sessionID}/completion", "http://localhost:8080/api/v1/sessions/s1/completion", 201)

	if len(attrs) != 4 {
		t.Fatalf("Expected 4 attributes, got %d", len(attrs))
	}
	verifyAttribute(t, attrs, HTTPMethodKey, "POST")
	verifyAttribute(t, attrs, HTTPRouteKey, "/api/v1/sessions/{sessionID}/completion")
	verifyIntAttribute(t, attrs, HTTPStatusCodeKey, 201)
}

func TestWorkflowAttributes(t *testing.T) {
	tests := []struct {
		name    string
		session string
		action  string
		actor   string
		phase   string
		wantLen int
	}{
		{name: "all fields", session: "s1", action: "request_completion", actor: "u1", phase: "idle", wantLen: 4},
		{name: "session only", session: "s1", wantLen: 1},
		{name: "empty", wantLen: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attrs := WorkflowAttributes(tt.session, tt.action, tt.actor, tt.phase)
			if len(attrs) != tt.wantLen {
				t.Fatalf("Expected %d attributes, got %d", tt.wantLen, len(attrs))
			}
			if tt.session != "" {
				verifyAttribute(t, attrs, SessionIDKey, tt.session)
			}
			if tt.phase != "" {
				verifyAttribute(t, attrs, SessionPhaseKey, tt.phase)
			}
		})
	}
}

func TestBadgeAttributes(t *testing.T) {
	attrs := BadgeAttributes("u1", 2)
	verifyAttribute(t, attrs, BadgeUserKey, "u1")
	verifyIntAttribute(t, attrs, BadgeGrantedKey, 2)
}

func TestErrorAttributes(t *testing.T) {
	attrs := ErrorAttributes("state_conflict", "completion_pending")
	if len(attrs) != 3 {
		t.Fatalf("Expected 3 attributes, got %d", len(attrs))
	}
	verifyBoolAttribute(t, attrs, ErrorKey, true)
	verifyAttribute(t, attrs, ErrorTypeKey, "state_conflict")
	verifyAttribute(t, attrs, ErrorCodeKey, "completion_pending")

	if got := len(ErrorAttributes("internal", "")); got != 2 {
		t.Errorf("Expected code to be omitted, got %d attributes", got)
	}
}

func verifyAttribute(t *testing.T, attrs []attribute.KeyValue, key, expectedValue string) {
	t.Helper()
	for _, attr := range attrs {
		if string(attr.Key) == key {
			if attr.Value.AsString() != expectedValue {
				t.Errorf("Expected %s=%s, got %s", key, expectedValue, attr.Value.AsString())
			}
			return
		}
	}
	t.Errorf("Attribute %s not found", key)
}

func verifyIntAttribute(t *testing.T, attrs []attribute.KeyValue, key string, expectedValue int) {
	t.Helper()
	for _, attr := range attrs {
		if string(attr.Key) == key {
			if attr.Value.AsInt64() != int64(expectedValue) {
				t.Errorf("Expected %s=%d, got %d", key, expectedValue, attr.Value.AsInt64())
			}
			return
		}
	}
	t.Errorf("Attribute %s not found", key)
}

func verifyBoolAttribute(t *testing.T, attrs []attribute.KeyValue, key string, expectedValue bool) {
	t.Helper()
	for _, attr := range attrs {
		if string(attr.Key) == key {
			if attr.Value.AsBool() != expectedValue {
				t.Errorf("Expected %s=%t, got %t", key, expectedValue, attr.Value.AsBool())
			}
			return
		}
	}
	t.Errorf("Attribute %s not found", key)
}
