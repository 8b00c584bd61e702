// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package auth resolves the acting user of an HTTP request.
package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	MethodHeader = "header"
	MethodJWT    = "jwt"
)

var (
	ErrMissingCredentials = errors.New("missing credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("token expired")
)

// Authenticator resolves the principal of a request.
type Authenticator interface {
	Authenticate(r *http.Request) (*Principal, error)
}

// HeaderAuthenticator trusts an actor id header injected by an upstream
// gateway.
type HeaderAuthenticator struct {
	Header string
}

func (a HeaderAuthenticator) Authenticate(r *http.Request) (*Principal, error) {
	id := strings.TrimSpace(r.Header.Get(a.Header))
	if id == "" {
		return nil, ErrMissingCredentials
	}
	return NewPrincipal(id, MethodHeader), nil
}

// Claims are the token claims swapd reads. The subject is the actor id.
type Claims struct {
	jwt.RegisteredClaims
}

// JWTConfig configures HS256 bearer token verification.
type JWTConfig struct {
	Secret   []byte
	Issuer   string
	Audience string
	Leeway   time.Duration
}

// JWTAuthenticator verifies HS256 bearer tokens.
type JWTAuthenticator struct {
	secret []byte
	parser *jwt.Parser
}

// NewJWTAuthenticator builds a verifier. Issuer and audience are enforced
// only when set.
func NewJWTAuthenticator(cfg JWTConfig) *JWTAuthenticator {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(cfg.Leeway),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}
	return &JWTAuthenticator{secret: cfg.Secret, parser: jwt.NewParser(opts...)}
}

func (a *JWTAuthenticator) Authenticate(r *http.Request) (*Principal, error) {
	raw := ExtractToken(r)
	if raw == "" {
		return nil, ErrMissingCredentials
	}
	claims, err := a.Validate(raw)
	if err != nil {
		return nil, err
	}
	return NewPrincipal(claims.Subject, MethodJWT), nil
}

// Validate verifies a raw token and returns its claims.
func (a *JWTAuthenticator) Validate(raw string) (*Claims, error) {
	token, err := a.parser.ParseWithClaims(raw, &Claims{}, func(*jwt.Token) (any, error) {
		return a.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || strings.TrimSpace(claims.Subject) == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Sign issues an HS256 token for subject. Used by operators and tests.
func Sign(secret []byte, subject, issuer, audience string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}}
	if audience != "" {
		claims.Audience = jwt.ClaimStrings{audience}
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}
