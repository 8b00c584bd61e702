// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package v1

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ManuGH/skillswap/internal/control/auth"
	"github.com/ManuGH/skillswap/internal/domain/exchange/badge"
	"github.com/ManuGH/skillswap/internal/domain/exchange/model"
)

type activityEventRequest struct {
	UserID     string             `json:"userId"`
	Kind       model.ActivityKind `json:"kind"`
	RefID      string             `json:"refId"`
	OccurredAt *time.Time         `json:"occurredAt"`
}

// handleListBadges handles GET /users/{userID}/badges.
func (s *Server) handleListBadges(w http.ResponseWriter, r *http.Request) {
	list, err := s.wf.ListBadges(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	if list == nil {
		list = []badge.Earned{}
	}
	writeJSON(w, r, http.StatusOK, list)
}

// handleRecordActivity handles POST /events.
func (s *Server) handleRecordActivity(w http.ResponseWriter, r *http.Request) {
	var req activityEventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondInvalidBody(w, r, err)
		return
	}
	ev := model.ActivityEvent{UserID: req.UserID, Kind: req.Kind, RefID: req.RefID}
	if req.OccurredAt != nil {
		ev.OccurredAt = req.OccurredAt.UTC()
	}
	res, err := s.wf.RecordActivity(r.Context(), auth.ActorID(r.Context()), ev)
	if err != nil {
		respondError(w, r, err)
		return
	}
	status := http.StatusOK
	if res.Recorded {
		status = http.StatusCreated
	}
	writeJSON(w, r, status, res)
}
