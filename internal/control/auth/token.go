// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package auth

import (
	"net/http"
	"strings"
)

// SessionCookie is accepted as a bearer token fallback for browser clients.
const SessionCookie = "swapd_session"

// ExtractToken retrieves the bearer token from the request.
// 1. Authorization: Bearer <token>
// 2. Cookie: swapd_session
// Query parameters are never consulted.
func ExtractToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); len(auth) > 7 && strings.EqualFold(auth[:7], "Bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	return ""
}
