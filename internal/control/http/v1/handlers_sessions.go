// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package v1

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ManuGH/skillswap/internal/control/auth"
	"github.com/ManuGH/skillswap/internal/domain/exchange/model"
	"github.com/ManuGH/skillswap/internal/domain/exchange/workflow"
)

type createSessionRequest struct {
	ID              string      `json:"id"`
	ParticipantA    string      `json:"participantA"`
	ParticipantB    string      `json:"participantB"`
	TermsA          model.Terms `json:"termsA"`
	TermsB          model.Terms `json:"termsB"`
	StartDate       *time.Time  `json:"startDate"`
	ExpectedEndDate *time.Time  `json:"expectedEndDate"`
}

func sessionID(r *http.Request) string {
	return chi.URLParam(r, "sessionID")
}

// handleCreateSession handles POST /sessions.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondInvalidBody(w, r, err)
		return
	}
	in := workflow.CreateInput{
		ID:              req.ID,
		ParticipantA:    req.ParticipantA,
		ParticipantB:    req.ParticipantB,
		TermsA:          req.TermsA,
		TermsB:          req.TermsB,
		ExpectedEndDate: req.ExpectedEndDate,
	}
	if req.StartDate != nil {
		in.StartDate = *req.StartDate
	}

	sess, err := s.wf.CreateSession(r.Context(), auth.ActorID(r.Context()), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	w.Header().Set("Location", BasePath+"/sessions/"+sess.ID)
	writeJSON(w, r, http.StatusCreated, sess)
}

// handleGetSession handles GET /sessions/{sessionID}.
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.wf.GetSession(r.Context(), sessionID(r), auth.ActorID(r.Context()))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, sess)
}
