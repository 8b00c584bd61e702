// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package v1

import (
	"net/http"

	"github.com/ManuGH/skillswap/internal/control/auth"
	"github.com/ManuGH/skillswap/internal/domain/exchange/cancellation"
	"github.com/ManuGH/skillswap/internal/domain/exchange/model"
)

type requestCancellationRequest struct {
	Reason        model.CancelReason `json:"reason"`
	Description   string             `json:"description"`
	EvidenceFiles []string           `json:"evidenceFiles"`
}

type respondCancellationRequest struct {
	Decision                 cancellation.Decision `json:"response"`
	ResponseDescription      string                `json:"responseDescription"`
	WorkCompletionPercentage *int                  `json:"workCompletionPercentage"`
	ResponseEvidenceFiles    []string              `json:"responseEvidenceFiles"`
}

type finalizeCancellationRequest struct {
	FinalNote string `json:"finalNote"`
}

// handleRequestCancellation handles POST /sessions/{sessionID}/cancellation.
func (s *Server) handleRequestCancellation(w http.ResponseWriter, r *http.Request) {
	var req requestCancellationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondInvalidBody(w, r, err)
		return
	}
	res, err := s.wf.RequestCancellation(r.Context(), sessionID(r), auth.ActorID(r.Context()), cancellation.RequestInput{
		Reason:        req.Reason,
		Description:   req.Description,
		EvidenceFiles: req.EvidenceFiles,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, res)
}

// handleGetCancellation handles GET /sessions/{sessionID}/cancellation. The
// body is null when the session never had a cancel request.
func (s *Server) handleGetCancellation(w http.ResponseWriter, r *http.Request) {
	req, err := s.wf.CurrentCancelRequest(r.Context(), sessionID(r), auth.ActorID(r.Context()))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, req)
}

// handleRespondCancellation handles PATCH /sessions/{sessionID}/cancellation.
func (s *Server) handleRespondCancellation(w http.ResponseWriter, r *http.Request) {
	var req respondCancellationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondInvalidBody(w, r, err)
		return
	}
	res, err := s.wf.RespondToCancellation(r.Context(), sessionID(r), auth.ActorID(r.Context()), cancellation.ResponseInput{
		Decision:                 req.Decision,
		Description:              req.ResponseDescription,
		WorkCompletionPercentage: req.WorkCompletionPercentage,
		EvidenceFiles:            req.ResponseEvidenceFiles,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, res)
}

// handleFinalizeCancellation handles POST /sessions/{sessionID}/cancellation/finalize.
func (s *Server) handleFinalizeCancellation(w http.ResponseWriter, r *http.Request) {
	var req finalizeCancellationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondInvalidBody(w, r, err)
		return
	}
	res, err := s.wf.FinalizeCancellation(r.Context(), sessionID(r), auth.ActorID(r.Context()), req.FinalNote)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, res)
}
