// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package badge derives achievement grants from authoritative counts. Every
// trigger re-counts from the store; grants are insert-if-absent and never
// revoked, so evaluation is idempotent and safe to repeat.
package badge

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ManuGH/skillswap/internal/cache"
	"github.com/ManuGH/skillswap/internal/domain/exchange/model"
	"github.com/ManuGH/skillswap/internal/domain/exchange/store"
)

var grantsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "swapd_badge_grants_total",
	Help: "Badges newly granted, by badge",
}, []string{"badge"})

// SessionMetrics are the metrics a completed session can move.
var SessionMetrics = []model.Metric{model.MetricCompletedSessions, model.MetricProvidedSessions}

// ActivitySource counts out-of-band activity (verified skills, forum posts).
type ActivitySource interface {
	CountActivity(ctx context.Context, userID string, kind model.ActivityKind) (int, error)
}

// MetricForActivity maps an activity kind to the metric it feeds.
func MetricForActivity(k model.ActivityKind) (model.Metric, bool) {
	switch k {
	case model.ActivitySkillVerified:
		return model.MetricVerifiedSkills, true
	case model.ActivityPostCreated:
		return model.MetricForumPosts, true
	}
	return "", false
}

// Earned is a held badge as shown to clients.
type Earned struct {
	model.Badge
	GrantedAt time.Time `json:"grantedAt"`
}

// Evaluator counts and grants.
type Evaluator struct {
	store    store.Store
	activity ActivitySource
	policy   func() model.Policy
	cache    cache.Cache
	ttl      time.Duration

	Now func() time.Time
}

// New returns an evaluator. activity may be nil to count activity stored in st.
// c may be nil to disable caching of badge lists.
func New(st store.Store, activity ActivitySource, policy func() model.Policy, c cache.Cache) *Evaluator {
	if activity == nil {
		activity = st
	}
	if c == nil {
		c = cache.NoOp{}
	}
	return &Evaluator{
		store:    st,
		activity: activity,
		policy:   policy,
		cache:    c,
		ttl:      time.Minute,
		Now:      func() time.Time { return time.Now().UTC() },
	}
}

func cacheKey(userID string) string { return "badges:" + userID }

// Count returns the current value of metric for userID.
func (e *Evaluator) Count(ctx context.Context, userID string, metric model.Metric) (int, error) {
	switch metric {
	case model.MetricCompletedSessions, model.MetricProvidedSessions:
		sessions, err := e.store.ListCompletedSessions(ctx, userID)
		if err != nil {
			return 0, err
		}
		if metric == model.MetricCompletedSessions {
			return len(sessions), nil
		}
		rule := e.policy().MentorRule
		n := 0
		for _, s := range sessions {
			if Provided(s, userID, rule) {
				n++
			}
		}
		return n, nil
	case model.MetricVerifiedSkills:
		return e.activity.CountActivity(ctx, userID, model.ActivitySkillVerified)
	case model.MetricForumPosts:
		return e.activity.CountActivity(ctx, userID, model.ActivityPostCreated)
	}
	return 0, fmt.Errorf("badge: unknown metric %q", metric)
}

// Provided reports whether userID counts as the skill provider of s.
func Provided(s *model.Session, userID string, rule model.MentorRule) bool {
	switch rule {
	case model.MentorByOfferedSkill:
		return s.IsParticipant(userID) && s.TermsFor(userID).SkillID != ""
	default:
		return s.ParticipantA == userID
	}
}

// Evaluate re-counts metrics for userID and grants every badge whose
// threshold is met. It returns only the grants that were new. Concurrent
// calls each count independently; GrantBadge keeps the grant unique.
func (e *Evaluator) Evaluate(ctx context.Context, userID string, metrics ...model.Metric) ([]model.BadgeGrant, error) {
	if len(metrics) == 0 {
		for _, b := range model.Catalog {
			metrics = append(metrics, b.Criteria.Metric)
		}
	}
	return e.evaluate(ctx, userID, metrics)
}

func (e *Evaluator) evaluate(ctx context.Context, userID string, metrics []model.Metric) ([]model.BadgeGrant, error) {
	policy := e.policy()
	var granted []model.BadgeGrant
	seen := make(map[model.Metric]bool, len(metrics))
	for _, m := range metrics {
		if seen[m] {
			continue
		}
		seen[m] = true

		count, err := e.Count(ctx, userID, m)
		if err != nil {
			return granted, err
		}
		for _, b := range model.BadgesForMetric(m) {
			threshold := policy.Threshold(b)
			if !(model.Criteria{Metric: m, Threshold: threshold}).Met(count) {
				continue
			}
			g := model.BadgeGrant{UserID: userID, BadgeID: b.ID, GrantedAt: e.Now()}
			isNew, err := e.store.GrantBadge(ctx, g)
			if err != nil {
				return granted, err
			}
			if isNew {
				grantsTotal.WithLabelValues(string(b.ID)).Inc()
				granted = append(granted, g)
			}
		}
	}
	if len(granted) > 0 {
		e.cache.Delete(ctx, cacheKey(userID))
	}
	return granted, nil
}

// List returns the badges userID holds, in grant order.
func (e *Evaluator) List(ctx context.Context, userID string) ([]Earned, error) {
	if cached, ok := cache.GetJSON[[]Earned](ctx, e.cache, cacheKey(userID)); ok {
		return cached, nil
	}
	grants, err := e.store.ListBadgeGrants(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]Earned, 0, len(grants))
	for _, g := range grants {
		b, ok := model.BadgeByID(g.BadgeID)
		if !ok {
			continue
		}
		out = append(out, Earned{Badge: b, GrantedAt: g.GrantedAt})
	}
	cache.SetJSON(ctx, e.cache, cacheKey(userID), out, e.ttl)
	return out, nil
}
