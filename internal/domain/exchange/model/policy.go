// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package model

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

const (
	DefaultCompletionCooldown   = 24 * time.Hour
	DefaultMinCancelDescription = 20
	DefaultMaxReviewComment     = 1000
	DefaultMaxEvidenceFiles     = 10

	MinRating = 1
	MaxRating = 5

	MinWorkCompletion = 0
	MaxWorkCompletion = 100
)

// Policy holds the tunable workflow limits. It is swapped atomically on config reload.
type Policy struct {
	CompletionCooldown   time.Duration
	MinCancelDescription int
	MaxReviewComment     int
	MaxEvidenceFiles     int
	MentorRule           MentorRule
	// Thresholds overrides catalog thresholds per badge; nil keeps the catalog.
	Thresholds           map[BadgeID]int
}

// Threshold returns the effective grant threshold of b.
func (p Policy) Threshold(b Badge) int {
	if n, ok := p.Thresholds[b.ID]; ok {
		return n
	}
	return b.Criteria.Threshold
}

// DefaultPolicy returns the production defaults.
func DefaultPolicy() Policy {
	return Policy{
		CompletionCooldown:   DefaultCompletionCooldown,
		MinCancelDescription: DefaultMinCancelDescription,
		MaxReviewComment:     DefaultMaxReviewComment,
		MaxEvidenceFiles:     DefaultMaxEvidenceFiles,
		MentorRule:           MentorBySlot,
	}
}

// Validate rejects nonsensical limits.
func (p Policy) Validate() error {
	if p.CompletionCooldown < 0 {
		return fmt.Errorf("completion cooldown must not be negative")
	}
	if p.MinCancelDescription < 1 {
		return fmt.Errorf("minimum cancel description must be at least 1")
	}
	if p.MaxReviewComment < 1 {
		return fmt.Errorf("maximum review comment must be at least 1")
	}
	if p.MaxEvidenceFiles < 0 {
		return fmt.Errorf("maximum evidence files must not be negative")
	}
	if !p.MentorRule.Valid() {
		return fmt.Errorf("unknown mentor rule %q", p.MentorRule)
	}
	for id, n := range p.Thresholds {
		if _, ok := BadgeByID(id); !ok {
			return fmt.Errorf("threshold for unknown badge %q", id)
		}
		if n < 1 {
			return fmt.Errorf("threshold for badge %q must be at least 1", id)
		}
	}
	return nil
}

// NormalizeText trims surrounding whitespace and applies NFC so that length
// limits count user-perceived characters consistently.
func NormalizeText(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// TextLength is the rune count of the normalized text.
func TextLength(s string) int {
	return utf8.RuneCountInString(NormalizeText(s))
}

// CleanFileRefs drops blank entries and duplicates while keeping order.
func CleanFileRefs(refs []string) []string {
	out := make([]string, 0, len(refs))
	seen := make(map[string]struct{}, len(refs))
	for _, ref := range refs {
		ref = strings.TrimSpace(ref)
		if ref == "" {
			continue
		}
		if _, dup := seen[ref]; dup {
			continue
		}
		seen[ref] = struct{}{}
		out = append(out, ref)
	}
	return out
}
