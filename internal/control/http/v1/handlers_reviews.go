// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package v1

import (
	"net/http"

	"github.com/ManuGH/skillswap/internal/control/auth"
	"github.com/ManuGH/skillswap/internal/domain/exchange/model"
	"github.com/ManuGH/skillswap/internal/domain/exchange/review"
)

type submitReviewRequest struct {
	Rating     int    `json:"rating"`
	Comment    string `json:"comment"`
	RevieweeID string `json:"revieweeId"`
}

// handleSubmitReview handles POST /sessions/{sessionID}/reviews.
func (s *Server) handleSubmitReview(w http.ResponseWriter, r *http.Request) {
	var req submitReviewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondInvalidBody(w, r, err)
		return
	}
	rev, err := s.wf.SubmitReview(r.Context(), sessionID(r), auth.ActorID(r.Context()), review.Input{
		Rating:     req.Rating,
		Comment:    req.Comment,
		RevieweeID: req.RevieweeID,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, rev)
}

// handleListReviews handles GET /sessions/{sessionID}/reviews.
func (s *Server) handleListReviews(w http.ResponseWriter, r *http.Request) {
	list, err := s.wf.ListReviews(r.Context(), sessionID(r), auth.ActorID(r.Context()))
	if err != nil {
		respondError(w, r, err)
		return
	}
	if list == nil {
		list = []*model.Review{}
	}
	writeJSON(w, r, http.StatusOK, list)
}
