// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package auth

// Principal represents the authenticated identity of a caller.
type Principal struct {
	// ID is the stable user identifier every workflow check uses as actor.
	ID string

	// Method names the authenticator that produced the principal.
	Method string
}

// NewPrincipal creates a Principal for id.
func NewPrincipal(id, method string) *Principal {
	return &Principal{ID: id, Method: method}
}
