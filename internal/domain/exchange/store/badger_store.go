// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package store

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strconv"

	"github.com/dgraph-io/badger/v4"

	"github.com/ManuGH/skillswap/internal/domain/exchange/model"
)

// BadgerStore implements Store on an embedded Badger database.
//
// Key layout, where {x} is x length-prefixed by seg so that no id is a key
// prefix of another:
//   - sess:<id>                         session JSON
//   - part:{user}<session>              participant index (empty value)
//   - cancel:<id>                       cancel request JSON
//   - sesscancel:{session}<id>          cancel requests per session (empty value)
//   - opencancel:<session>              id of the open cancel request
//   - completion:{session}<id>          completion request JSON
//   - review:{session}<reviewer>        review JSON
//   - badge:{user}<badge>               grant JSON
//   - activity:{user}{kind}<ref>        activity event JSON
//
// Badger transactions are serializable; a commit that lost a read-write race
// fails with badger.ErrConflict, which is reported as ErrConflict.
type BadgerStore struct {
	db *badger.DB
}

// seg encodes one variable key component as "<len>:<value>".
func seg(v string) string {
	return strconv.Itoa(len(v)) + ":" + v
}

// OpenBadgerStore opens the database directory at path.
func OpenBadgerStore(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &BadgerStore{db: db}, nil
}

func (s *BadgerStore) Close() error { return s.db.Close() }

func (s *BadgerStore) Ping(context.Context) error {
	if s.db.IsClosed() {
		return errors.New("badger: database closed")
	}
	return nil
}

func mapBadgerErr(err error) error {
	if errors.Is(err, badger.ErrConflict) {
		return ErrConflict
	}
	return err
}

func getJSON(txn *badger.Txn, key string, out any) (bool, error) {
	item, err := txn.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, item.Value(func(val []byte) error {
		return json.Unmarshal(val, out)
	})
}

func setJSON(txn *badger.Txn, key string, v any) error {
	buf, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return txn.Set([]byte(key), buf)
}

func exists(txn *badger.Txn, key string) (bool, error) {
	_, err := txn.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	return err == nil, err
}

// eachKey calls fn with every key under prefix, values not loaded.
func eachKey(txn *badger.Txn, prefix string, fn func(key string) error) error {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = []byte(prefix)
	it := txn.NewIterator(opts)
	defer it.Close()
	for it.Rewind(); it.Valid(); it.Next() {
		if err := fn(string(it.Item().KeyCopy(nil))); err != nil {
			return err
		}
	}
	return nil
}

// eachValue decodes every value under prefix into a fresh T.
func eachValue[T any](txn *badger.Txn, prefix string) ([]*T, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefix)
	it := txn.NewIterator(opts)
	defer it.Close()
	var out []*T
	for it.Rewind(); it.Valid(); it.Next() {
		var v T
		if err := it.Item().Value(func(val []byte) error {
			return json.Unmarshal(val, &v)
		}); err != nil {
			return nil, err
		}
		out = append(out, &v)
	}
	return out, nil
}

// --- Sessions ---

func (s *BadgerStore) CreateSession(_ context.Context, rec *model.Session) error {
	if err := model.CheckSession(rec); err != nil {
		return err
	}
	row := rec.Clone()
	row.Version = 1
	err := s.db.Update(func(txn *badger.Txn) error {
		key := "sess:" + row.ID
		ok, err := exists(txn, key)
		if err != nil {
			return err
		}
		if ok {
			return ErrDuplicate
		}
		if err := setJSON(txn, key, row); err != nil {
			return err
		}
		for _, p := range row.Participants() {
			if err := txn.Set([]byte("part:"+seg(p)+row.ID), nil); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return mapBadgerErr(err)
	}
	rec.Version = 1
	return nil
}

func (s *BadgerStore) GetSession(_ context.Context, id string) (*model.Session, error) {
	var out model.Session
	var found bool
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		found, err = getJSON(txn, "sess:"+id, &out)
		return err
	})
	if err != nil || !found {
		return nil, err
	}
	return &out, nil
}

func (s *BadgerStore) ListCompletedSessions(_ context.Context, userID string) ([]*model.Session, error) {
	var out []*model.Session
	prefix := "part:" + seg(userID)
	err := s.db.View(func(txn *badger.Txn) error {
		return eachKey(txn, prefix, func(key string) error {
			var sess model.Session
			found, err := getJSON(txn, "sess:"+key[len(prefix):], &sess)
			if err != nil {
				return err
			}
			if found && sess.Status == model.StatusCompleted {
				out = append(out, &sess)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// --- Apply ---

func (s *BadgerStore) Apply(_ context.Context, m Mutation) error {
	if err := validateMutation(m); err != nil {
		return err
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		var cur model.Session
		found, err := getJSON(txn, "sess:"+m.Session.ID, &cur)
		if err != nil {
			return err
		}
		if !found {
			return ErrNotFound
		}
		if cur.Version != m.Session.Version {
			return ErrConflict
		}
		next := m.Session.Clone()
		next.Version++
		if err := setJSON(txn, "sess:"+next.ID, next); err != nil {
			return err
		}
		if m.Cancel != nil {
			if err := s.writeCancel(txn, m.Cancel); err != nil {
				return err
			}
		}
		if m.Completion != nil {
			if err := s.writeCompletion(txn, m.Completion); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return mapBadgerErr(err)
	}
	m.Session.Version++
	if m.Cancel != nil {
		m.Cancel.Version++
	}
	if m.Completion != nil {
		m.Completion.Version++
	}
	return nil
}

func (s *BadgerStore) writeCancel(txn *badger.Txn, c *model.CancelRequest) error {
	key := "cancel:" + c.ID
	openKey := "opencancel:" + c.SessionID

	var stored model.CancelRequest
	found, err := getJSON(txn, key, &stored)
	if err != nil {
		return err
	}
	switch {
	case c.Version == 0 && found:
		return ErrDuplicate
	case c.Version != 0 && !found:
		return ErrNotFound
	case c.Version != 0 && stored.Version != c.Version:
		return ErrConflict
	}

	if c.Version == 0 && c.IsOpen() {
		taken, err := exists(txn, openKey)
		if err != nil {
			return err
		}
		if taken {
			return ErrConflict
		}
	}

	row := c.Clone()
	row.Version++
	if err := setJSON(txn, key, row); err != nil {
		return err
	}
	if err := txn.Set([]byte("sesscancel:"+seg(c.SessionID)+c.ID), nil); err != nil {
		return err
	}
	if row.IsOpen() {
		return txn.Set([]byte(openKey), []byte(row.ID))
	}
	return txn.Delete([]byte(openKey))
}

func (s *BadgerStore) writeCompletion(txn *badger.Txn, c *model.CompletionRequest) error {
	key := "completion:" + seg(c.SessionID) + c.ID
	var stored model.CompletionRequest
	found, err := getJSON(txn, key, &stored)
	if err != nil {
		return err
	}
	switch {
	case c.Version == 0 && found:
		return ErrDuplicate
	case c.Version != 0 && !found:
		return ErrNotFound
	case c.Version != 0 && stored.Version != c.Version:
		return ErrConflict
	}
	row := c.Clone()
	row.Version++
	return setJSON(txn, key, row)
}

// --- Cancel / completion requests ---

func (s *BadgerStore) GetCancelRequest(_ context.Context, id string) (*model.CancelRequest, error) {
	var out model.CancelRequest
	var found bool
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		found, err = getJSON(txn, "cancel:"+id, &out)
		return err
	})
	if err != nil || !found {
		return nil, err
	}
	return &out, nil
}

func (s *BadgerStore) ListCancelRequests(_ context.Context, sessionID string) ([]*model.CancelRequest, error) {
	var out []*model.CancelRequest
	prefix := "sesscancel:" + seg(sessionID)
	err := s.db.View(func(txn *badger.Txn) error {
		return eachKey(txn, prefix, func(key string) error {
			var c model.CancelRequest
			found, err := getJSON(txn, "cancel:"+key[len(prefix):], &c)
			if err != nil {
				return err
			}
			if found {
				out = append(out, &c)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *BadgerStore) ListCompletionRequests(_ context.Context, sessionID string) ([]*model.CompletionRequest, error) {
	var out []*model.CompletionRequest
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		out, err = eachValue[model.CompletionRequest](txn, "completion:"+seg(sessionID))
		return err
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RequestedAt.Before(out[j].RequestedAt) })
	return out, nil
}

// --- Reviews ---

func (s *BadgerStore) InsertReview(_ context.Context, r *model.Review) error {
	key := "review:" + seg(r.SessionID) + r.ReviewerID
	err := s.db.Update(func(txn *badger.Txn) error {
		ok, err := exists(txn, key)
		if err != nil {
			return err
		}
		if ok {
			return ErrDuplicate
		}
		return setJSON(txn, key, r)
	})
	return mapBadgerErr(err)
}

func (s *BadgerStore) ListReviews(_ context.Context, sessionID string) ([]*model.Review, error) {
	var out []*model.Review
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		out, err = eachValue[model.Review](txn, "review:"+seg(sessionID))
		return err
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// --- Badges and activity ---

// insertIfAbsent writes v under key unless the key exists. A concurrent
// insert of the same key surfaces as a commit conflict, which means the
// record is present either way.
func (s *BadgerStore) insertIfAbsent(key string, v any) (bool, error) {
	inserted := false
	err := s.db.Update(func(txn *badger.Txn) error {
		ok, err := exists(txn, key)
		if err != nil || ok {
			return err
		}
		inserted = true
		return setJSON(txn, key, v)
	})
	if errors.Is(err, badger.ErrConflict) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return inserted, nil
}

func (s *BadgerStore) GrantBadge(_ context.Context, g model.BadgeGrant) (bool, error) {
	return s.insertIfAbsent("badge:"+seg(g.UserID)+string(g.BadgeID), g)
}

func (s *BadgerStore) ListBadgeGrants(_ context.Context, userID string) ([]model.BadgeGrant, error) {
	var rows []*model.BadgeGrant
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		rows, err = eachValue[model.BadgeGrant](txn, "badge:"+seg(userID))
		return err
	})
	if err != nil {
		return nil, err
	}
	out := make([]model.BadgeGrant, 0, len(rows))
	for _, g := range rows {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GrantedAt.Before(out[j].GrantedAt) })
	return out, nil
}

func (s *BadgerStore) RecordActivity(_ context.Context, ev model.ActivityEvent) (bool, error) {
	return s.insertIfAbsent("activity:"+seg(ev.UserID)+seg(string(ev.Kind))+ev.RefID, ev)
}

func (s *BadgerStore) CountActivity(_ context.Context, userID string, kind model.ActivityKind) (int, error) {
	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		return eachKey(txn, "activity:"+seg(userID)+seg(string(kind)), func(string) error {
			n++
			return nil
		})
	})
	return n, err
}
