// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package store

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ManuGH/skillswap/internal/domain/exchange/model"
)

var (
	storeOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swapd_store_ops_total",
			Help: "Total store operations",
		},
		[]string{"backend", "op", "result"}, // result=success/conflict/duplicate/not_found/error
	)
	storeLat = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "swapd_store_op_seconds",
			Help:    "Store operation latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend", "op"},
	)
)

// instrumentedStore wraps any Store to capture metrics.
type instrumentedStore struct {
	inner   Store
	backend string
}

func NewInstrumentedStore(inner Store, backend string) Store {
	return &instrumentedStore{inner: inner, backend: backend}
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrDuplicate):
		return "duplicate"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}

func (i *instrumentedStore) observe(op string, start time.Time, err error) {
	storeOps.WithLabelValues(i.backend, op, resultLabel(err)).Inc()
	storeLat.WithLabelValues(i.backend, op).Observe(time.Since(start).Seconds())
}

func (i *instrumentedStore) CreateSession(ctx context.Context, s *model.Session) (err error) {
	start := time.Now()
	defer func() { i.observe("create_session", start, err) }()
	return i.inner.CreateSession(ctx, s)
}

func (i *instrumentedStore) GetSession(ctx context.Context, id string) (s *model.Session, err error) {
	start := time.Now()
	defer func() { i.observe("get_session", start, err) }()
	return i.inner.GetSession(ctx, id)
}

func (i *instrumentedStore) ListCompletedSessions(ctx context.Context, userID string) (out []*model.Session, err error) {
	start := time.Now()
	defer func() { i.observe("list_completed_sessions", start, err) }()
	return i.inner.ListCompletedSessions(ctx, userID)
}

func (i *instrumentedStore) Apply(ctx context.Context, m Mutation) (err error) {
	start := time.Now()
	defer func() { i.observe("apply", start, err) }()
	return i.inner.Apply(ctx, m)
}

func (i *instrumentedStore) GetCancelRequest(ctx context.Context, id string) (c *model.CancelRequest, err error) {
	start := time.Now()
	defer func() { i.observe("get_cancel_request", start, err) }()
	return i.inner.GetCancelRequest(ctx, id)
}

func (i *instrumentedStore) ListCancelRequests(ctx context.Context, sessionID string) (out []*model.CancelRequest, err error) {
	start := time.Now()
	defer func() { i.observe("list_cancel_requests", start, err) }()
	return i.inner.ListCancelRequests(ctx, sessionID)
}

func (i *instrumentedStore) ListCompletionRequests(ctx context.Context, sessionID string) (out []*model.CompletionRequest, err error) {
	start := time.Now()
	defer func() { i.observe("list_completion_requests", start, err) }()
	return i.inner.ListCompletionRequests(ctx, sessionID)
}

func (i *instrumentedStore) InsertReview(ctx context.Context, r *model.Review) (err error) {
	start := time.Now()
	defer func() { i.observe("insert_review", start, err) }()
	return i.inner.InsertReview(ctx, r)
}

func (i *instrumentedStore) ListReviews(ctx context.Context, sessionID string) (out []*model.Review, err error) {
	start := time.Now()
	defer func() { i.observe("list_reviews", start, err) }()
	return i.inner.ListReviews(ctx, sessionID)
}

func (i *instrumentedStore) GrantBadge(ctx context.Context, g model.BadgeGrant) (granted bool, err error) {
	start := time.Now()
	defer func() { i.observe("grant_badge", start, err) }()
	return i.inner.GrantBadge(ctx, g)
}

func (i *instrumentedStore) ListBadgeGrants(ctx context.Context, userID string) (out []model.BadgeGrant, err error) {
	start := time.Now()
	defer func() { i.observe("list_badge_grants", start, err) }()
	return i.inner.ListBadgeGrants(ctx, userID)
}

func (i *instrumentedStore) RecordActivity(ctx context.Context, ev model.ActivityEvent) (inserted bool, err error) {
	start := time.Now()
	defer func() { i.observe("record_activity", start, err) }()
	return i.inner.RecordActivity(ctx, ev)
}

func (i *instrumentedStore) CountActivity(ctx context.Context, userID string, kind model.ActivityKind) (n int, err error) {
	start := time.Now()
	defer func() { i.observe("count_activity", start, err) }()
	return i.inner.CountActivity(ctx, userID, kind)
}

func (i *instrumentedStore) Ping(ctx context.Context) error { return i.inner.Ping(ctx) }

func (i *instrumentedStore) Close() error { return i.inner.Close() }
