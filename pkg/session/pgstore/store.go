package pgstore

import (
	"context"
	"embed"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/sessionguard/pkg/pg"
	"github.com/dmitrymomot/sessionguard/pkg/session"
)

//go:embed migrations/*.sql
var migrations embed.FS

// ErrSchemaMissing is returned by Load when the sessions table does not exist.
var ErrSchemaMissing = errors.New("pgstore: sessions table missing, run Migrate")

// DB is the subset of pgxpool.Pool the store uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Store keeps one row per session in the sessions table.
type Store struct {
	db DB
}

var _ session.Store = (*Store)(nil)

// New creates a Store. The schema must exist; see Migrate.
func New(db DB) *Store {
	return &Store{db: db}
}

// Migrate applies the embedded schema migrations.
func Migrate(ctx context.Context, pool *pgxpool.Pool, cfg pg.Config, log *slog.Logger) error {
	return pg.Migrate(ctx, pool, migrations, "migrations", cfg, log)
}

const selectSessions = `
SELECT session_id, user_id, fingerprint, user_agent, ip_address,
       is_active, last_activity, last_status_change, created_at
FROM sessions`

// Load reads every row. Rows failing validation are deleted.
func (s *Store) Load(ctx context.Context) ([]session.Record, error) {
	rows, err := s.db.Query(ctx, selectSessions)
	if err != nil {
		if pg.IsUndefinedTableError(err) {
			return nil, errors.Join(ErrSchemaMissing, err)
		}
		return nil, err
	}
	defer rows.Close()

	var (
		records []session.Record
		invalid []string
	)
	for rows.Next() {
		var (
			r         session.Record
			createdAt *time.Time
		)
		if err := rows.Scan(
			&r.SessionID, &r.UserID, &r.Fingerprint, &r.UserAgent, &r.IPAddress,
			&r.IsActive, &r.LastActivity, &r.LastStatusChange, &createdAt,
		); err != nil {
			return nil, err
		}
		if createdAt != nil {
			r.CreatedAt = *createdAt
		}
		if err := r.Validate(); err != nil {
			invalid = append(invalid, r.SessionID)
			continue
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(invalid) > 0 {
		if _, err := s.db.Exec(ctx, `DELETE FROM sessions WHERE session_id = ANY($1)`, invalid); err != nil {
			return nil, err
		}
	}
	return records, nil
}

const upsertSession = `
INSERT INTO sessions (
    session_id, user_id, fingerprint, user_agent, ip_address,
    is_active, last_activity, last_status_change, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (session_id) DO UPDATE SET
    user_id            = EXCLUDED.user_id,
    fingerprint        = EXCLUDED.fingerprint,
    user_agent         = EXCLUDED.user_agent,
    ip_address         = EXCLUDED.ip_address,
    is_active          = EXCLUDED.is_active,
    last_activity      = EXCLUDED.last_activity,
    last_status_change = EXCLUDED.last_status_change,
    created_at         = EXCLUDED.created_at`

// Save upserts the row for r.SessionID.
func (s *Store) Save(ctx context.Context, r session.Record) error {
	if r.SessionID == "" {
		return session.ErrInvalidRecord
	}
	var createdAt *time.Time
	if !r.CreatedAt.IsZero() {
		createdAt = &r.CreatedAt
	}
	_, err := s.db.Exec(ctx, upsertSession,
		r.SessionID, r.UserID, r.Fingerprint, r.UserAgent, r.IPAddress,
		r.IsActive, r.LastActivity, r.LastStatusChange, createdAt,
	)
	return err
}

// Delete removes the row for sessionID. Missing rows are not an error.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM sessions WHERE session_id = $1`, sessionID)
	return err
}
