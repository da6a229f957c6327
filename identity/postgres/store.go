// Package postgres implements identity.Store on PostgreSQL using pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/MrEthical07/authlayer/identity"
)

// Schema creates the tables used by Store. It is idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS users (
	id              TEXT PRIMARY KEY,
	email           TEXT NOT NULL UNIQUE,
	hashed_password TEXT NOT NULL,
	session_id      TEXT UNIQUE,
	reset_token     TEXT UNIQUE,
	created_at      TIMESTAMPTZ NOT NULL,
	updated_at      TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS user_sessions (
	session_id TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL REFERENCES users (id) ON DELETE CASCADE,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS user_sessions_user_id_idx ON user_sessions (user_id);
`

const selectPrincipal = `SELECT id, email, hashed_password, COALESCE(session_id, ''), COALESCE(reset_token, ''), created_at, updated_at FROM users`

// DB is the subset of *pgxpool.Pool used by Store. pgxmock.PgxPoolIface satisfies it.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store implements identity.Store using PostgreSQL.
type Store struct {
	db DB
}

// NewStore creates a Store over db.
func NewStore(db DB) *Store {
	return &Store{db: db}
}

// Migrate applies Schema.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, Schema); err != nil {
		return oops.Code("STORE_MIGRATE_FAILED").
			With("operation", "apply schema").
			Wrap(err)
	}
	return nil
}

// FindPrincipal returns the principal matching every non-empty criteria attribute.
func (s *Store) FindPrincipal(ctx context.Context, criteria identity.Criteria) (*identity.Principal, error) {
	if criteria.IsZero() {
		return nil, identity.ErrInvalidCriteria
	}

	var (
		clauses []string
		args    []any
	)
	add := func(column, value string) {
		if value == "" {
			return
		}
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	add("id", criteria.ID)
	add("email", criteria.Email)
	add("session_id", criteria.SessionID)
	add("reset_token", criteria.ResetToken)

	query := selectPrincipal + " WHERE " + strings.Join(clauses, " AND ") + " LIMIT 1"

	p, err := scanPrincipal(s.db.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("PRINCIPAL_NOT_FOUND").Wrap(identity.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("STORE_QUERY_FAILED").
			With("operation", "find principal").
			Wrap(err)
	}
	return p, nil
}

// FindSession returns the durable session record for sessionID.
func (s *Store) FindSession(ctx context.Context, sessionID string) (*identity.SessionRecord, error) {
	var rec identity.SessionRecord
	err := s.db.QueryRow(ctx, `
		SELECT session_id, user_id, created_at
		FROM user_sessions
		WHERE session_id = $1
	`, sessionID).Scan(&rec.SessionID, &rec.UserID, &rec.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("SESSION_NOT_FOUND").Wrap(identity.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("STORE_QUERY_FAILED").
			With("operation", "find session").
			Wrap(err)
	}
	return &rec, nil
}

// SavePrincipal inserts p, or replaces the stored row with the same id.
func (s *Store) SavePrincipal(ctx context.Context, p *identity.Principal) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO users (id, email, hashed_password, session_id, reset_token, created_at, updated_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			hashed_password = EXCLUDED.hashed_password,
			session_id = EXCLUDED.session_id,
			reset_token = EXCLUDED.reset_token,
			updated_at = EXCLUDED.updated_at
	`,
		p.ID,
		p.Email,
		p.PasswordHash,
		p.SessionID,
		p.ResetToken,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return oops.Code("PRINCIPAL_DUPLICATE").
			With("principal_id", p.ID).
			Wrap(identity.ErrDuplicate)
	}
	if err != nil {
		return oops.Code("STORE_EXEC_FAILED").
			With("operation", "save principal").
			With("principal_id", p.ID).
			Wrap(err)
	}
	return nil
}

// SaveSession stores rec.
func (s *Store) SaveSession(ctx context.Context, rec *identity.SessionRecord) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO user_sessions (session_id, user_id, created_at)
		VALUES ($1, $2, $3)
	`, rec.SessionID, rec.UserID, rec.CreatedAt)
	if err != nil {
		return oops.Code("STORE_EXEC_FAILED").
			With("operation", "save session").
			With("user_id", rec.UserID).
			Wrap(err)
	}
	return nil
}

// RemoveSession deletes the session record, returning ErrNotFound if there was none.
func (s *Store) RemoveSession(ctx context.Context, sessionID string) error {
	result, err := s.db.Exec(ctx, `DELETE FROM user_sessions WHERE session_id = $1`, sessionID)
	if err != nil {
		return oops.Code("STORE_EXEC_FAILED").
			With("operation", "remove session").
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("SESSION_NOT_FOUND").Wrap(identity.ErrNotFound)
	}
	return nil
}

// RemoveSessionsCreatedBefore deletes durable sessions older than cutoff and returns the
// count removed.
func (s *Store) RemoveSessionsCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.Exec(ctx, `DELETE FROM user_sessions WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, oops.Code("STORE_EXEC_FAILED").
			With("operation", "remove expired sessions").
			Wrap(err)
	}
	return result.RowsAffected(), nil
}

// UpdateFields writes all fields in one UPDATE statement.
func (s *Store) UpdateFields(ctx context.Context, id string, fields identity.Fields) error {
	return s.UpdateFieldsWhere(ctx, id, nil, fields)
}

// UpdateFieldsWhere adds one WHERE condition per attribute of where to the UPDATE, so the
// check and the write are a single statement.
func (s *Store) UpdateFieldsWhere(ctx context.Context, id string, where, fields identity.Fields) error {
	if err := errors.Join(fields.Validate(), where.Validate()); err != nil {
		return oops.Code("PRINCIPAL_UNKNOWN_FIELD").
			With("principal_id", id).
			Wrap(err)
	}
	if len(fields) == 0 {
		return nil
	}

	args := []any{id}
	sets := make([]string, 0, len(fields)+1)
	for _, name := range sortedNames(fields) {
		args = append(args, fields[name])
		sets = append(sets, string(name)+" = "+columnValue(name, len(args)))
	}
	sets = append(sets, "updated_at = NOW()")

	conds := []string{"id = $1"}
	for _, name := range sortedNames(where) {
		args = append(args, where[name])
		conds = append(conds, string(name)+" IS NOT DISTINCT FROM "+columnValue(name, len(args)))
	}

	query := "UPDATE users SET " + strings.Join(sets, ", ") + " WHERE " + strings.Join(conds, " AND ")
	result, err := s.db.Exec(ctx, query, args...)
	if isUniqueViolation(err) {
		return oops.Code("PRINCIPAL_DUPLICATE").
			With("principal_id", id).
			Wrap(identity.ErrDuplicate)
	}
	if err != nil {
		return oops.Code("STORE_EXEC_FAILED").
			With("operation", "update principal fields").
			With("principal_id", id).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("PRINCIPAL_NOT_FOUND").
			With("principal_id", id).
			Wrap(identity.ErrNotFound)
	}
	return nil
}

func sortedNames(fields identity.Fields) []identity.Field {
	names := make([]identity.Field, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// columnValue is the SQL for the n-th argument. Session and reset tokens are NULL when empty.
func columnValue(name identity.Field, n int) string {
	placeholder := fmt.Sprintf("$%d", n)
	switch name {
	case identity.FieldSessionID, identity.FieldResetToken:
		return "NULLIF(" + placeholder + ", '')"
	}
	return placeholder
}

func scanPrincipal(row pgx.Row) (*identity.Principal, error) {
	var p identity.Principal
	if err := row.Scan(
		&p.ID,
		&p.Email,
		&p.PasswordHash,
		&p.SessionID,
		&p.ResetToken,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &p, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

var _ identity.Store = (*Store)(nil)
var _ identity.SessionPruner = (*Store)(nil)
