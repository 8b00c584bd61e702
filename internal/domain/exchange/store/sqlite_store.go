// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/ManuGH/skillswap/internal/domain/exchange/model"
	"github.com/ManuGH/skillswap/internal/persistence/sqlite"
)

var migrations = []sqlite.Migration{
	// v1: sessions and their satellite records.
	sqlite.ExecAll(
		`CREATE TABLE IF NOT EXISTS sessions (
			session_id TEXT PRIMARY KEY,
			participant_a TEXT NOT NULL,
			participant_b TEXT NOT NULL,
			status TEXT NOT NULL,
			version INTEGER NOT NULL,
			data_json TEXT NOT NULL,
			created_at_ms INTEGER NOT NULL,
			updated_at_ms INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_a_status ON sessions(participant_a, status)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_b_status ON sessions(participant_b, status)`,
		`CREATE TABLE IF NOT EXISTS cancel_requests (
			request_id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL REFERENCES sessions(session_id),
			resolution TEXT NOT NULL,
			version INTEGER NOT NULL,
			data_json TEXT NOT NULL,
			created_at_ms INTEGER NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_cancel_one_open ON cancel_requests(session_id) WHERE resolution = 'pending'`,
		`CREATE TABLE IF NOT EXISTS completion_requests (
			request_id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL REFERENCES sessions(session_id),
			status TEXT NOT NULL,
			version INTEGER NOT NULL,
			data_json TEXT NOT NULL,
			requested_at_ms INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_completion_session ON completion_requests(session_id, requested_at_ms)`,
		`CREATE TABLE IF NOT EXISTS reviews (
			review_id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL REFERENCES sessions(session_id),
			reviewer_id TEXT NOT NULL,
			data_json TEXT NOT NULL,
			created_at_ms INTEGER NOT NULL,
			UNIQUE(session_id, reviewer_id)
		)`,
	),
	// v2: badge grants and the activity ledger feeding them.
	sqlite.ExecAll(
		`CREATE TABLE IF NOT EXISTS badge_grants (
			user_id TEXT NOT NULL,
			badge_id TEXT NOT NULL,
			granted_at_ms INTEGER NOT NULL,
			PRIMARY KEY (user_id, badge_id)
		)`,
		`CREATE TABLE IF NOT EXISTS activity_events (
			user_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			ref_id TEXT NOT NULL,
			occurred_at_ms INTEGER NOT NULL,
			PRIMARY KEY (user_id, kind, ref_id)
		)`,
	),
}

// SchemaVersion is the user_version a fully migrated database carries.
var SchemaVersion = len(migrations)

// SqliteStore implements Store on SQLite. Key columns are projected for
// indexing and conditional writes; the full record lives in data_json.
type SqliteStore struct {
	DB *sql.DB
}

// NewSqliteStore opens (and migrates) the database at dbPath.
func NewSqliteStore(dbPath string) (*SqliteStore, error) {
	db, err := sqlite.Open(dbPath, sqlite.DefaultConfig())
	if err != nil {
		return nil, err
	}
	if err := sqlite.Migrate(context.Background(), db, migrations); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("exchange store: migration failed: %w", err)
	}
	return &SqliteStore{DB: db}, nil
}

func (s *SqliteStore) Close() error { return s.DB.Close() }

func (s *SqliteStore) Ping(ctx context.Context) error { return s.DB.PingContext(ctx) }

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

func ms(t time.Time) int64 { return t.UnixMilli() }

// --- Sessions ---

func (s *SqliteStore) CreateSession(ctx context.Context, rec *model.Session) error {
	if err := model.CheckSession(rec); err != nil {
		return err
	}
	row := rec.Clone()
	row.Version = 1
	data, err := json.Marshal(row)
	if err != nil {
		return err
	}
	_, err = s.DB.ExecContext(ctx, `
		INSERT INTO sessions (session_id, participant_a, participant_b, status, version, data_json, created_at_ms, updated_at_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		row.ID, row.ParticipantA, row.ParticipantB, string(row.Status), row.Version, string(data), ms(row.CreatedAt), ms(row.UpdatedAt))
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return err
	}
	rec.Version = 1
	return nil
}

func (s *SqliteStore) GetSession(ctx context.Context, id string) (*model.Session, error) {
	var data string
	err := s.DB.QueryRowContext(ctx, `SELECT data_json FROM sessions WHERE session_id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var out model.Session
	if err := json.Unmarshal([]byte(data), &out); err != nil {
		return nil, fmt.Errorf("exchange store: decode session %s: %w", id, err)
	}
	return &out, nil
}

func (s *SqliteStore) ListCompletedSessions(ctx context.Context, userID string) ([]*model.Session, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT data_json FROM sessions
		WHERE status = ? AND (participant_a = ? OR participant_b = ?)
		ORDER BY created_at_ms, rowid`,
		string(model.StatusCompleted), userID, userID)
	if err != nil {
		return nil, err
	}
	return scanJSON[model.Session](rows)
}

// --- Apply ---

func (s *SqliteStore) Apply(ctx context.Context, m Mutation) error {
	if err := validateMutation(m); err != nil {
		return err
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	sess := m.Session.Clone()
	sess.Version = m.Session.Version + 1
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `
		UPDATE sessions SET status = ?, version = ?, data_json = ?, updated_at_ms = ?
		WHERE session_id = ? AND version = ?`,
		string(sess.Status), sess.Version, string(data), ms(sess.UpdatedAt), sess.ID, m.Session.Version)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM sessions WHERE session_id = ?`, sess.ID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return ErrConflict
	}

	if c := m.Cancel; c != nil {
		if err := s.writeCancel(ctx, tx, c); err != nil {
			return err
		}
	}
	if c := m.Completion; c != nil {
		if err := s.writeCompletion(ctx, tx, c); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	m.Session.Version = sess.Version
	if m.Cancel != nil {
		m.Cancel.Version++
	}
	if m.Completion != nil {
		m.Completion.Version++
	}
	return nil
}

func (s *SqliteStore) writeCancel(ctx context.Context, tx *sql.Tx, c *model.CancelRequest) error {
	row := c.Clone()
	row.Version = c.Version + 1
	data, err := json.Marshal(row)
	if err != nil {
		return err
	}
	if c.Version == 0 {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO cancel_requests (request_id, session_id, resolution, version, data_json, created_at_ms)
			VALUES (?, ?, ?, ?, ?, ?)`,
			row.ID, row.SessionID, string(row.Resolution), row.Version, string(data), ms(row.CreatedAt))
		if isUniqueViolation(err) {
			// Either the ID is taken or another open request exists for the session.
			var exists int
			if qerr := tx.QueryRowContext(ctx, `SELECT 1 FROM cancel_requests WHERE request_id = ?`, row.ID).Scan(&exists); qerr == nil {
				return ErrDuplicate
			}
			return ErrConflict
		}
		return err
	}
	return casUpdate(ctx, tx,
		`UPDATE cancel_requests SET resolution = ?, version = ?, data_json = ? WHERE request_id = ? AND version = ?`,
		`SELECT 1 FROM cancel_requests WHERE request_id = ?`,
		row.ID, string(row.Resolution), row.Version, string(data), row.ID, c.Version)
}

func (s *SqliteStore) writeCompletion(ctx context.Context, tx *sql.Tx, c *model.CompletionRequest) error {
	row := c.Clone()
	row.Version = c.Version + 1
	data, err := json.Marshal(row)
	if err != nil {
		return err
	}
	if c.Version == 0 {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO completion_requests (request_id, session_id, status, version, data_json, requested_at_ms)
			VALUES (?, ?, ?, ?, ?, ?)`,
			row.ID, row.SessionID, string(row.Status), row.Version, string(data), ms(row.RequestedAt))
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return casUpdate(ctx, tx,
		`UPDATE completion_requests SET status = ?, version = ?, data_json = ? WHERE request_id = ? AND version = ?`,
		`SELECT 1 FROM completion_requests WHERE request_id = ?`,
		row.ID, string(row.Status), row.Version, string(data), row.ID, c.Version)
}

// casUpdate runs a versioned UPDATE and tells a missing row from a stale version.
func casUpdate(ctx context.Context, tx *sql.Tx, update, exists, id string, args ...any) error {
	res, err := tx.ExecContext(ctx, update, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	var one int
	err = tx.QueryRowContext(ctx, exists, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return ErrConflict
}

// --- Cancel / completion requests ---

func (s *SqliteStore) GetCancelRequest(ctx context.Context, id string) (*model.CancelRequest, error) {
	var data string
	err := s.DB.QueryRowContext(ctx, `SELECT data_json FROM cancel_requests WHERE request_id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var out model.CancelRequest
	if err := json.Unmarshal([]byte(data), &out); err != nil {
		return nil, fmt.Errorf("exchange store: decode cancel request %s: %w", id, err)
	}
	return &out, nil
}

func (s *SqliteStore) ListCancelRequests(ctx context.Context, sessionID string) ([]*model.CancelRequest, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT data_json FROM cancel_requests WHERE session_id = ? ORDER BY created_at_ms, rowid`, sessionID)
	if err != nil {
		return nil, err
	}
	return scanJSON[model.CancelRequest](rows)
}

func (s *SqliteStore) ListCompletionRequests(ctx context.Context, sessionID string) ([]*model.CompletionRequest, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT data_json FROM completion_requests WHERE session_id = ? ORDER BY requested_at_ms, rowid`, sessionID)
	if err != nil {
		return nil, err
	}
	return scanJSON[model.CompletionRequest](rows)
}

// --- Reviews ---

func (s *SqliteStore) InsertReview(ctx context.Context, r *model.Review) error {
	data, err := json.Marshal(r)
	if err != nil {
		return err
	}
	_, err = s.DB.ExecContext(ctx, `
		INSERT INTO reviews (review_id, session_id, reviewer_id, data_json, created_at_ms)
		VALUES (?, ?, ?, ?, ?)`,
		r.ID, r.SessionID, r.ReviewerID, string(data), ms(r.CreatedAt))
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (s *SqliteStore) ListReviews(ctx context.Context, sessionID string) ([]*model.Review, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT data_json FROM reviews WHERE session_id = ? ORDER BY created_at_ms, rowid`, sessionID)
	if err != nil {
		return nil, err
	}
	return scanJSON[model.Review](rows)
}

// --- Badges and activity ---

func (s *SqliteStore) GrantBadge(ctx context.Context, g model.BadgeGrant) (bool, error) {
	res, err := s.DB.ExecContext(ctx, `
		INSERT INTO badge_grants (user_id, badge_id, granted_at_ms) VALUES (?, ?, ?)
		ON CONFLICT(user_id, badge_id) DO NOTHING`,
		g.UserID, string(g.BadgeID), ms(g.GrantedAt))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *SqliteStore) ListBadgeGrants(ctx context.Context, userID string) ([]model.BadgeGrant, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT badge_id, granted_at_ms FROM badge_grants WHERE user_id = ? ORDER BY granted_at_ms, rowid`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.BadgeGrant
	for rows.Next() {
		var (
			badgeID string
			at      int64
		)
		if err := rows.Scan(&badgeID, &at); err != nil {
			return nil, err
		}
		out = append(out, model.BadgeGrant{UserID: userID, BadgeID: model.BadgeID(badgeID), GrantedAt: time.UnixMilli(at).UTC()})
	}
	return out, rows.Err()
}

func (s *SqliteStore) RecordActivity(ctx context.Context, ev model.ActivityEvent) (bool, error) {
	res, err := s.DB.ExecContext(ctx, `
		INSERT INTO activity_events (user_id, kind, ref_id, occurred_at_ms) VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id, kind, ref_id) DO NOTHING`,
		ev.UserID, string(ev.Kind), ev.RefID, ms(ev.OccurredAt))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *SqliteStore) CountActivity(ctx context.Context, userID string, kind model.ActivityKind) (int, error) {
	var n int
	err := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM activity_events WHERE user_id = ? AND kind = ?`, userID, string(kind)).Scan(&n)
	return n, err
}

func scanJSON[T any](rows *sql.Rows) ([]*T, error) {
	defer rows.Close()
	var out []*T
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var v T
		if err := json.Unmarshal([]byte(data), &v); err != nil {
			return nil, err
		}
		out = append(out, &v)
	}
	return out, rows.Err()
}
