// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package auth

import (
	"errors"
	"net/http"

	"github.com/ManuGH/skillswap/internal/audit"
	"github.com/ManuGH/skillswap/internal/control/http/problem"
	"github.com/ManuGH/skillswap/internal/log"
)

// CodeUnauthenticated is the problem code for rejected credentials.
const CodeUnauthenticated = "UNAUTHENTICATED"

// Middleware rejects requests without a valid principal with a 401 problem
// and stores the principal in the request context otherwise.
func Middleware(a Authenticator, auditLog *audit.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := a.Authenticate(r)
			if err != nil {
				reason := reasonOf(err)
				if auditLog != nil {
					auditLog.AuthFailure(r.RemoteAddr, r.URL.Path, reason)
				}
				if _, ok := a.(*JWTAuthenticator); ok {
					w.Header().Set("WWW-Authenticate", `Bearer realm="swapd"`)
				}
				problem.Write(w, r, http.StatusUnauthorized, "swap/unauthenticated", "Unauthorized",
					CodeUnauthenticated, reason, nil)
				return
			}

			ctx := WithPrincipal(r.Context(), p)
			ctx = log.ContextWithActorID(ctx, p.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func reasonOf(err error) string {
	switch {
	case errors.Is(err, ErrMissingCredentials):
		return "missing credentials"
	case errors.Is(err, ErrExpiredToken):
		return "token expired"
	default:
		return "invalid token"
	}
}
