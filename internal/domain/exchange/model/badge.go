// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package model

import "time"

// BadgeID identifies a badge in the catalog.
type BadgeID string

const (
	BadgeFirstExchange   BadgeID = "first_exchange"
	BadgeMentor          BadgeID = "mentor"
	BadgeSkillMaster     BadgeID = "skill_master"
	BadgeCommunityHelper BadgeID = "community_helper"
)

// Metric is the count a badge criterion is evaluated against.
type Metric string

const (
	MetricCompletedSessions Metric = "completed_sessions"
	MetricProvidedSessions  Metric = "provided_sessions"
	MetricVerifiedSkills    Metric = "verified_skills"
	MetricForumPosts        Metric = "forum_posts"
)

// Criteria is the threshold rule of a badge.
type Criteria struct {
	Metric    Metric `json:"metric"`
	Threshold int    `json:"threshold"`
}

// Met reports whether count satisfies the threshold. Counts past the
// threshold still qualify so that replayed or late triggers converge.
func (c Criteria) Met(count int) bool {
	return c.Threshold > 0 && count >= c.Threshold
}

// Badge is a catalog entry.
type Badge struct {
	ID          BadgeID  `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Criteria    Criteria `json:"criteria"`
}

// BadgeGrant records that a user holds a badge. Grants are never revoked.
type BadgeGrant struct {
	UserID    string    `json:"userId"`
	BadgeID   BadgeID   `json:"badgeId"`
	GrantedAt time.Time `json:"grantedAt"`
}

// Catalog is the fixed badge set, in display order.
var Catalog = []Badge{
	{
		ID:          BadgeFirstExchange,
		Name:        "First Exchange",
		Description: "Completed a first skill exchange.",
		Criteria:    Criteria{Metric: MetricCompletedSessions, Threshold: 1},
	},
	{
		ID:          BadgeMentor,
		Name:        "Mentor",
		Description: "Completed five exchanges as the skill provider.",
		Criteria:    Criteria{Metric: MetricProvidedSessions, Threshold: 5},
	},
	{
		ID:          BadgeSkillMaster,
		Name:        "Skill Master",
		Description: "Holds ten verified skills.",
		Criteria:    Criteria{Metric: MetricVerifiedSkills, Threshold: 10},
	},
	{
		ID:          BadgeCommunityHelper,
		Name:        "Community Helper",
		Description: "Wrote five forum posts.",
		Criteria:    Criteria{Metric: MetricForumPosts, Threshold: 5},
	},
}

// BadgeByID looks up a catalog entry.
func BadgeByID(id BadgeID) (Badge, bool) {
	for _, b := range Catalog {
		if b.ID == id {
			return b, true
		}
	}
	return Badge{}, false
}

// BadgesForMetric returns the catalog entries evaluated against m.
func BadgesForMetric(m Metric) []Badge {
	var out []Badge
	for _, b := range Catalog {
		if b.Criteria.Metric == m {
			out = append(out, b)
		}
	}
	return out
}
