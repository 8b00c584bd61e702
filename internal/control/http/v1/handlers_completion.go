// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package v1

import (
	"net/http"

	"github.com/ManuGH/skillswap/internal/control/auth"
	"github.com/ManuGH/skillswap/internal/domain/exchange/completion"
)

type respondCompletionRequest struct {
	Decision        completion.Decision `json:"action"`
	RejectionReason string              `json:"rejectionReason"`
}

// handleRequestCompletion handles POST /sessions/{sessionID}/completion.
func (s *Server) handleRequestCompletion(w http.ResponseWriter, r *http.Request) {
	res, err := s.wf.RequestCompletion(r.Context(), sessionID(r), auth.ActorID(r.Context()))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, res)
}

// handleRespondCompletion handles PATCH /sessions/{sessionID}/completion.
func (s *Server) handleRespondCompletion(w http.ResponseWriter, r *http.Request) {
	var req respondCompletionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondInvalidBody(w, r, err)
		return
	}
	res, err := s.wf.RespondToCompletion(r.Context(), sessionID(r), auth.ActorID(r.Context()), req.Decision, req.RejectionReason)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, res)
}

// handleListCompletionRequests handles GET /sessions/{sessionID}/completion-requests.
func (s *Server) handleListCompletionRequests(w http.ResponseWriter, r *http.Request) {
	list, err := s.wf.ListCompletionRequests(r.Context(), sessionID(r), auth.ActorID(r.Context()))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, list)
}
