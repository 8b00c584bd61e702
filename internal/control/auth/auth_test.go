// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/skillswap/internal/audit"
	"github.com/ManuGH/skillswap/internal/log"
)

var secret = []byte("0123456789abcdef0123456789abcdef")

func TestExtractToken_PriorityOrder(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "http://example.local/test?token=query-token", nil)
	r.Header.Set("Authorization", "Bearer bearer-token ")
	r.AddCookie(&http.Cookie{Name: SessionCookie, Value: "session-token"})
	assert.Equal(t, "bearer-token", ExtractToken(r))

	r.Header.Del("Authorization")
	assert.Equal(t, "session-token", ExtractToken(r))
}

func TestExtractToken_IgnoresQueryParams(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "http://example.local/test?token=abc", nil)
	assert.Empty(t, ExtractToken(r))
}

func TestHeaderAuthenticator(t *testing.T) {
	a := HeaderAuthenticator{Header: "X-Actor-ID"}

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := a.Authenticate(r)
	require.ErrorIs(t, err, ErrMissingCredentials)

	r.Header.Set("X-Actor-ID", " u1 ")
	p, err := a.Authenticate(r)
	require.NoError(t, err)
	assert.Equal(t, "u1", p.ID)
	assert.Equal(t, MethodHeader, p.Method)
}

func TestJWTAuthenticator(t *testing.T) {
	a := NewJWTAuthenticator(JWTConfig{Secret: secret, Issuer: "idp", Audience: "swapd"})

	bearer := func(tok string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer "+tok)
		return r
	}

	good, err := Sign(secret, "u1", "idp", "swapd", time.Minute)
	require.NoError(t, err)
	p, err := a.Authenticate(bearer(good))
	require.NoError(t, err)
	assert.Equal(t, "u1", p.ID)
	assert.Equal(t, MethodJWT, p.Method)

	expired, err := Sign(secret, "u1", "idp", "swapd", -time.Minute)
	require.NoError(t, err)
	_, err = a.Authenticate(bearer(expired))
	require.ErrorIs(t, err, ErrExpiredToken)

	wrongIssuer, err := Sign(secret, "u1", "other", "swapd", time.Minute)
	require.NoError(t, err)
	_, err = a.Authenticate(bearer(wrongIssuer))
	require.ErrorIs(t, err, ErrInvalidToken)

	wrongAudience, err := Sign(secret, "u1", "idp", "billing", time.Minute)
	require.NoError(t, err)
	_, err = a.Authenticate(bearer(wrongAudience))
	require.ErrorIs(t, err, ErrInvalidToken)

	wrongKey, err := Sign([]byte("another-secret-another-secret-xx"), "u1", "idp", "swapd", time.Minute)
	require.NoError(t, err)
	_, err = a.Authenticate(bearer(wrongKey))
	require.ErrorIs(t, err, ErrInvalidToken)

	noSubject, err := Sign(secret, "", "idp", "swapd", time.Minute)
	require.NoError(t, err)
	_, err = a.Authenticate(bearer(noSubject))
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = a.Authenticate(httptest.NewRequest(http.MethodGet, "/", nil))
	require.ErrorIs(t, err, ErrMissingCredentials)
}

func TestJWTAuthenticator_RejectsOtherAlgorithms(t *testing.T) {
	a := NewJWTAuthenticator(JWTConfig{Secret: secret})
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "u1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(secret)
	require.NoError(t, err)

	_, err = a.Validate(tok)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestMiddleware(t *testing.T) {
	var buf bytes.Buffer
	auditLog := audit.NewLoggerWith(zerolog.New(&buf))

	var seen, logged string
	h := Middleware(HeaderAuthenticator{Header: "X-Actor-ID"}, auditLog)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = ActorID(r.Context())
		logged = log.ActorIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	r := httptest.NewRequest(http.MethodGet, "/api/v1/sessions/s1", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, CodeUnauthenticated, body["code"])
	assert.Contains(t, buf.String(), "auth.failure")

	r.Header.Set("X-Actor-ID", "u2")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "u2", seen)
	assert.Equal(t, "u2", logged)
}

func TestMiddleware_JWTChallenge(t *testing.T) {
	h := Middleware(NewJWTAuthenticator(JWTConfig{Secret: secret}), nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Header().Get("WWW-Authenticate"), "Bearer")
}
