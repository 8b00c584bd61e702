// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package store persists exchange sessions and their satellite records.
// Every mutation of a session goes through Apply, a single atomic
// compare-and-set keyed on the session version.
package store

import (
	"context"
	"errors"

	"github.com/ManuGH/skillswap/internal/domain/exchange/model"
)

var (
	// ErrNotFound is returned when a record addressed by ID does not exist.
	ErrNotFound = errors.New("store: not found")
	// ErrConflict is returned when a conditional write lost against a concurrent writer.
	ErrConflict = errors.New("store: version conflict")
	// ErrDuplicate is returned when a uniqueness constraint rejects an insert.
	ErrDuplicate = errors.New("store: duplicate")
)

// Mutation is one atomic write. Session is required and is written only if the
// stored version still equals Session.Version. Cancel and Completion are
// optional satellite records written in the same transaction; a record with
// Version 0 is inserted, otherwise it is compare-and-set on its version.
// On success every written record has its Version bumped in place.
type Mutation struct {
	Session    *model.Session
	Cancel     *model.CancelRequest
	Completion *model.CompletionRequest
}

// Store is the persistence port of the workflow.
type Store interface {
	// CreateSession inserts a new session. ErrDuplicate if the ID exists.
	CreateSession(ctx context.Context, s *model.Session) error
	// GetSession returns (nil, nil) if the session does not exist.
	GetSession(ctx context.Context, id string) (*model.Session, error)
	// ListCompletedSessions returns completed sessions the user took part in.
	ListCompletedSessions(ctx context.Context, userID string) ([]*model.Session, error)

	// Apply performs the atomic conditional write described by m.
	Apply(ctx context.Context, m Mutation) error

	// GetCancelRequest returns (nil, nil) if the request does not exist.
	GetCancelRequest(ctx context.Context, id string) (*model.CancelRequest, error)
	// ListCancelRequests returns all requests of a session, oldest first.
	ListCancelRequests(ctx context.Context, sessionID string) ([]*model.CancelRequest, error)
	// ListCompletionRequests returns all completion proposals of a session, oldest first.
	ListCompletionRequests(ctx context.Context, sessionID string) ([]*model.CompletionRequest, error)

	// InsertReview adds a review. ErrDuplicate if (session, reviewer) already reviewed.
	InsertReview(ctx context.Context, r *model.Review) error
	// ListReviews returns the reviews of a session, oldest first.
	ListReviews(ctx context.Context, sessionID string) ([]*model.Review, error)

	// GrantBadge inserts the grant if absent and reports whether it was new.
	GrantBadge(ctx context.Context, g model.BadgeGrant) (bool, error)
	// ListBadgeGrants returns a user's grants, oldest first.
	ListBadgeGrants(ctx context.Context, userID string) ([]model.BadgeGrant, error)

	// RecordActivity inserts the event if absent and reports whether it was new.
	RecordActivity(ctx context.Context, ev model.ActivityEvent) (bool, error)
	// CountActivity counts distinct events of kind for the user.
	CountActivity(ctx context.Context, userID string, kind model.ActivityKind) (int, error)

	Ping(ctx context.Context) error
	Close() error
}

// validateMutation enforces the record invariants before anything is written.
func validateMutation(m Mutation) error {
	if m.Session == nil {
		return errors.New("store: mutation without session")
	}
	if err := model.CheckSession(m.Session); err != nil {
		return err
	}
	if m.Cancel != nil {
		if err := model.CheckCancelRequest(m.Session, m.Cancel); err != nil {
			return err
		}
	}
	if m.Completion != nil && m.Completion.SessionID != m.Session.ID {
		return errors.New("store: completion request belongs to another session")
	}
	return nil
}
