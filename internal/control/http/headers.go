// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package http holds names shared by the swapd HTTP surface.
package http

// Canonical Header Names
const (
	// HeaderRequestID is the canonical header for request correlation.
	// Middleware, problem writer and tests must agree on it.
	HeaderRequestID = "X-Request-ID"

	// HeaderActorID carries the authenticated actor in header auth mode.
	HeaderActorID = "X-Actor-ID"

	// HeaderRetryAfter is set on rate-limited responses.
	HeaderRetryAfter = "Retry-After"
)

// Canonical JSON Field Names
const (
	// JSONKeyRequestID is the canonical JSON key for request correlation in DTOs.
	JSONKeyRequestID = "requestId"
)

// ContentTypeProblem is the RFC 7807 media type.
const ContentTypeProblem = "application/problem+json"
