// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package store

import (
	"context"
	"sort"
	"sync"

	"github.com/ManuGH/skillswap/internal/domain/exchange/model"
)

type activityKey struct {
	user string
	kind model.ActivityKind
	ref  string
}

type reviewKey struct {
	session  string
	reviewer string
}

type grantKey struct {
	user  string
	badge model.BadgeID
}

// MemoryStore is an in-process Store used by tests and the "memory" backend.
type MemoryStore struct {
	mu          sync.RWMutex
	sessions    map[string]*model.Session
	cancels     map[string]*model.CancelRequest
	completions map[string]*model.CompletionRequest
	reviews     map[reviewKey]*model.Review
	grants      map[grantKey]model.BadgeGrant
	activity    map[activityKey]model.ActivityEvent
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions:    make(map[string]*model.Session),
		cancels:     make(map[string]*model.CancelRequest),
		completions: make(map[string]*model.CompletionRequest),
		reviews:     make(map[reviewKey]*model.Review),
		grants:      make(map[grantKey]model.BadgeGrant),
		activity:    make(map[activityKey]model.ActivityEvent),
	}
}

func (m *MemoryStore) CreateSession(_ context.Context, s *model.Session) error {
	if err := model.CheckSession(s); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.sessions[s.ID]; exists {
		return ErrDuplicate
	}
	s.Version = 1
	m.sessions[s.ID] = s.Clone()
	return nil
}

func (m *MemoryStore) GetSession(_ context.Context, id string) (*model.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, nil
	}
	return s.Clone(), nil
}

func (m *MemoryStore) ListCompletedSessions(_ context.Context, userID string) ([]*model.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Session
	for _, s := range m.sessions {
		if s.Status == model.StatusCompleted && s.IsParticipant(userID) {
			out = append(out, s.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryStore) Apply(_ context.Context, mut Mutation) error {
	if err := validateMutation(mut); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.sessions[mut.Session.ID]
	if !ok {
		return ErrNotFound
	}
	if cur.Version != mut.Session.Version {
		return ErrConflict
	}
	if c := mut.Cancel; c != nil {
		if c.Version == 0 {
			if _, exists := m.cancels[c.ID]; exists {
				return ErrDuplicate
			}
			for _, other := range m.cancels {
				if other.SessionID == c.SessionID && other.IsOpen() && c.IsOpen() {
					return ErrConflict
				}
			}
		} else if stored, exists := m.cancels[c.ID]; !exists {
			return ErrNotFound
		} else if stored.Version != c.Version {
			return ErrConflict
		}
	}
	if c := mut.Completion; c != nil {
		if c.Version == 0 {
			if _, exists := m.completions[c.ID]; exists {
				return ErrDuplicate
			}
		} else if stored, exists := m.completions[c.ID]; !exists {
			return ErrNotFound
		} else if stored.Version != c.Version {
			return ErrConflict
		}
	}

	mut.Session.Version++
	m.sessions[mut.Session.ID] = mut.Session.Clone()
	if c := mut.Cancel; c != nil {
		c.Version++
		m.cancels[c.ID] = c.Clone()
	}
	if c := mut.Completion; c != nil {
		c.Version++
		m.completions[c.ID] = c.Clone()
	}
	return nil
}

func (m *MemoryStore) GetCancelRequest(_ context.Context, id string) (*model.CancelRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.cancels[id]
	if !ok {
		return nil, nil
	}
	return c.Clone(), nil
}

func (m *MemoryStore) ListCancelRequests(_ context.Context, sessionID string) ([]*model.CancelRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.CancelRequest
	for _, c := range m.cancels {
		if c.SessionID == sessionID {
			out = append(out, c.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryStore) ListCompletionRequests(_ context.Context, sessionID string) ([]*model.CompletionRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.CompletionRequest
	for _, c := range m.completions {
		if c.SessionID == sessionID {
			out = append(out, c.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RequestedAt.Before(out[j].RequestedAt) })
	return out, nil
}

func (m *MemoryStore) InsertReview(_ context.Context, r *model.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := reviewKey{session: r.SessionID, reviewer: r.ReviewerID}
	if _, exists := m.reviews[key]; exists {
		return ErrDuplicate
	}
	cp := *r
	m.reviews[key] = &cp
	return nil
}

func (m *MemoryStore) ListReviews(_ context.Context, sessionID string) ([]*model.Review, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Review
	for key, r := range m.reviews {
		if key.session == sessionID {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryStore) GrantBadge(_ context.Context, g model.BadgeGrant) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := grantKey{user: g.UserID, badge: g.BadgeID}
	if _, exists := m.grants[key]; exists {
		return false, nil
	}
	m.grants[key] = g
	return true, nil
}

func (m *MemoryStore) ListBadgeGrants(_ context.Context, userID string) ([]model.BadgeGrant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.BadgeGrant
	for key, g := range m.grants {
		if key.user == userID {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GrantedAt.Before(out[j].GrantedAt) })
	return out, nil
}

func (m *MemoryStore) RecordActivity(_ context.Context, ev model.ActivityEvent) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := activityKey{user: ev.UserID, kind: ev.Kind, ref: ev.RefID}
	if _, exists := m.activity[key]; exists {
		return false, nil
	}
	m.activity[key] = ev
	return true, nil
}

func (m *MemoryStore) CountActivity(_ context.Context, userID string, kind model.ActivityKind) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for key := range m.activity {
		if key.user == userID && key.kind == kind {
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) Ping(context.Context) error { return nil }

func (m *MemoryStore) Close() error { return nil }
