// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package review admits post-completion reviews: one per participant per
// session, append-only.
package review

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ManuGH/skillswap/internal/cache"
	"github.com/ManuGH/skillswap/internal/domain/exchange/lifecycle"
	"github.com/ManuGH/skillswap/internal/domain/exchange/model"
	"github.com/ManuGH/skillswap/internal/domain/exchange/store"
)

const (
	CodeRatingOutOfRange = "rating_out_of_range"
	CodeCommentRequired  = "comment_required"
	CodeCommentTooLong   = "comment_too_long"
	CodeWrongReviewee    = "reviewee_not_counterparty"
	CodeAlreadyReviewed  = "already_reviewed"

	FieldRating     = "rating"
	FieldComment    = "comment"
	FieldRevieweeID = "revieweeId"
	FieldReviewer   = "reviewerId"
)

// DefaultCacheTTL bounds how long a cached review list may be served.
const DefaultCacheTTL = 5 * time.Minute

// Input is a review as submitted. RevieweeID is optional; when set it must
// name the other participant.
type Input struct {
	Rating     int
	Comment    string
	RevieweeID string
}

// Gate validates and stores reviews.
type Gate struct {
	store  store.Store
	policy func() model.Policy
	cache  cache.Cache
	ttl    time.Duration

	Now   func() time.Time
	NewID func() string
}

// New returns a gate. c may be nil to disable caching.
func New(st store.Store, policy func() model.Policy, c cache.Cache) *Gate {
	if c == nil {
		c = cache.NoOp{}
	}
	return &Gate{
		store:  st,
		policy: policy,
		cache:  c,
		ttl:    DefaultCacheTTL,
		Now:    func() time.Time { return time.Now().UTC() },
		NewID:  uuid.NewString,
	}
}

func cacheKey(sessionID string) string { return "reviews:" + sessionID }

// Submit stores a review by actorID on the completed session s. The caller
// has already run lifecycle.Guard for ActSubmitReview.
func (g *Gate) Submit(ctx context.Context, s *model.Session, actorID string, in Input) (*model.Review, error) {
	if in.Rating < model.MinRating || in.Rating > model.MaxRating {
		return nil, lifecycle.Validation(FieldRating, CodeRatingOutOfRange,
			fmt.Sprintf("rating must be an integer between %d and %d", model.MinRating, model.MaxRating))
	}
	comment := model.NormalizeText(in.Comment)
	if comment == "" {
		return nil, lifecycle.Validation(FieldComment, CodeCommentRequired, "comment must not be empty")
	}
	if limit := g.policy().MaxReviewComment; model.TextLength(comment) > limit {
		return nil, lifecycle.Validation(FieldComment, CodeCommentTooLong,
			fmt.Sprintf("comment must be at most %d characters", limit))
	}
	reviewee, _ := s.Counterparty(actorID)
	if in.RevieweeID != "" && in.RevieweeID != reviewee {
		return nil, lifecycle.Validation(FieldRevieweeID, CodeWrongReviewee, "reviewee must be the other participant")
	}

	r := &model.Review{
		ID:         g.NewID(),
		SessionID:  s.ID,
		ReviewerID: actorID,
		RevieweeID: reviewee,
		Rating:     in.Rating,
		Comment:    comment,
		CreatedAt:  g.Now(),
	}
	if err := g.store.InsertReview(ctx, r); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, &lifecycle.Error{Kind: lifecycle.KindStateConflict, Field: FieldReviewer, Code: CodeAlreadyReviewed,
				Detail: "you already reviewed this session", Err: err}
		}
		return nil, err
	}
	g.cache.Delete(ctx, cacheKey(s.ID))
	return r, nil
}

// List returns the reviews of a session, oldest first.
func (g *Gate) List(ctx context.Context, sessionID string) ([]*model.Review, error) {
	if cached, ok := cache.GetJSON[[]*model.Review](ctx, g.cache, cacheKey(sessionID)); ok {
		return cached, nil
	}
	list, err := g.store.ListReviews(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []*model.Review{}
	}
	cache.SetJSON(ctx, g.cache, cacheKey(sessionID), list, g.ttl)
	return list, nil
}
