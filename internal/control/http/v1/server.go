// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package v1 serves the session lifecycle API under /api/v1.
package v1

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ManuGH/skillswap/internal/audit"
	"github.com/ManuGH/skillswap/internal/control/auth"
	"github.com/ManuGH/skillswap/internal/control/middleware"
	"github.com/ManuGH/skillswap/internal/domain/exchange/badge"
	"github.com/ManuGH/skillswap/internal/domain/exchange/cancellation"
	"github.com/ManuGH/skillswap/internal/domain/exchange/completion"
	"github.com/ManuGH/skillswap/internal/domain/exchange/model"
	"github.com/ManuGH/skillswap/internal/domain/exchange/review"
	"github.com/ManuGH/skillswap/internal/domain/exchange/workflow"
)

// BasePath is where Handler is mounted.
const BasePath = "/api/v1"

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Workflow is the part of the lifecycle controller the API drives.
type Workflow interface {
	CreateSession(ctx context.Context, actorID string, in workflow.CreateInput) (*model.Session, error)
	GetSession(ctx context.Context, sessionID, actorID string) (*model.Session, error)

	RequestCompletion(ctx context.Context, sessionID, actorID string) (*workflow.CompletionResult, error)
	RespondToCompletion(ctx context.Context, sessionID, actorID string, d completion.Decision, reason string) (*workflow.CompletionResult, error)
	ListCompletionRequests(ctx context.Context, sessionID, actorID string) ([]*model.CompletionRequest, error)

	RequestCancellation(ctx context.Context, sessionID, actorID string, in cancellation.RequestInput) (*workflow.CancellationResult, error)
	CurrentCancelRequest(ctx context.Context, sessionID, actorID string) (*model.CancelRequest, error)
	RespondToCancellation(ctx context.Context, sessionID, actorID string, in cancellation.ResponseInput) (*workflow.CancellationResult, error)
	FinalizeCancellation(ctx context.Context, sessionID, actorID, finalNote string) (*workflow.CancellationResult, error)

	SubmitReview(ctx context.Context, sessionID, actorID string, in review.Input) (*model.Review, error)
	ListReviews(ctx context.Context, sessionID, actorID string) ([]*model.Review, error)

	ListBadges(ctx context.Context, userID string) ([]badge.Earned, error)
	RecordActivity(ctx context.Context, actorID string, ev model.ActivityEvent) (*workflow.ActivityResult, error)
}

// ActorRateLimit limits authenticated callers per actor id.
type ActorRateLimit struct {
	Requests int
	Window   time.Duration
}

// Deps wires the API.
type Deps struct {
	Workflow      Workflow
	Authenticator auth.Authenticator
	Audit         *audit.Logger
	// RateLimit is applied after authentication; nil disables it.
	RateLimit *ActorRateLimit
}

// Server holds the handlers of the v1 API.
type Server struct {
	wf Workflow
}

// NewServer returns the handler set over wf.
func NewServer(wf Workflow) *Server {
	return &Server{wf: wf}
}

// Handler returns the authenticated /api/v1 subtree, ready to be mounted at BasePath.
func Handler(d Deps) http.Handler {
	s := NewServer(d.Workflow)
	r := chi.NewRouter()
	r.Use(auth.Middleware(d.Authenticator, d.Audit))
	if d.RateLimit != nil && d.RateLimit.Requests > 0 {
		r.Use(middleware.RateLimit(middleware.RateLimitConfig{
			Scope:        "actor",
			RequestLimit: d.RateLimit.Requests,
			WindowSize:   d.RateLimit.Window,
			KeyFunc: func(r *http.Request) (string, error) {
				return auth.ActorID(r.Context()), nil
			},
			OnLimited: func(r *http.Request) {
				if d.Audit != nil {
					d.Audit.RateLimitExceeded(auth.ActorID(r.Context()), r.URL.Path)
				}
			},
		}))
	}
	s.Routes(r)
	return r
}

// Routes registers every v1 route on r. Callers must install authentication first.
func (s *Server) Routes(r chi.Router) {
	r.Post("/sessions", s.handleCreateSession)
	r.Route("/sessions/{sessionID}", func(r chi.Router) {
		r.Get("/", s.handleGetSession)

		r.Post("/completion", s.handleRequestCompletion)
		r.Patch("/completion", s.handleRespondCompletion)
		r.Get("/completion-requests", s.handleListCompletionRequests)

		r.Post("/cancellation", s.handleRequestCancellation)
		r.Get("/cancellation", s.handleGetCancellation)
		r.Patch("/cancellation", s.handleRespondCancellation)
		r.Post("/cancellation/finalize", s.handleFinalizeCancellation)

		r.Post("/reviews", s.handleSubmitReview)
		r.Get("/reviews", s.handleListReviews)
	})
	r.Get("/users/{userID}/badges", s.handleListBadges)
	r.Post("/events", s.handleRecordActivity)
}
