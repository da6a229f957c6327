package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrEthical07/authlayer/identity"
)

var principalColumns = []string{"id", "email", "hashed_password", "session_id", "reset_token", "created_at", "updated_at"}

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err, "failed to create mock")
	t.Cleanup(mock.Close)
	return mock
}

func TestStore_FindPrincipal(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name      string
		criteria  identity.Criteria
		setupMock func(mock pgxmock.PgxPoolIface)
		wantID    string
		wantErr   error
	}{
		{
			name:     "by email",
			criteria: identity.Criteria{Email: "a@x.io"},
			setupMock: func(mock pgxmock.PgxPoolIface) {
				rows := pgxmock.NewRows(principalColumns).
					AddRow("01J0000000000000000000000A", "a@x.io", "$argon2id$hash", "", "", now, now)
				mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = $1 LIMIT 1")).
					WithArgs("a@x.io").
					WillReturnRows(rows)
			},
			wantID: "01J0000000000000000000000A",
		},
		{
			name:     "by id and session",
			criteria: identity.Criteria{ID: "u1", SessionID: "s1"},
			setupMock: func(mock pgxmock.PgxPoolIface) {
				rows := pgxmock.NewRows(principalColumns).
					AddRow("u1", "a@x.io", "$argon2id$hash", "s1", "", now, now)
				mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $1 AND session_id = $2 LIMIT 1")).
					WithArgs("u1", "s1").
					WillReturnRows(rows)
			},
			wantID: "u1",
		},
		{
			name:     "miss",
			criteria: identity.Criteria{ResetToken: "tok"},
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(regexp.QuoteMeta("WHERE reset_token = $1 LIMIT 1")).
					WithArgs("tok").
					WillReturnRows(pgxmock.NewRows(principalColumns))
			},
			wantErr: identity.ErrNotFound,
		},
		{
			name:      "empty criteria",
			criteria:  identity.Criteria{},
			setupMock: func(pgxmock.PgxPoolIface) {},
			wantErr:   identity.ErrInvalidCriteria,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMock(t)
			tt.setupMock(mock)

			got, err := NewStore(mock).FindPrincipal(context.Background(), tt.criteria)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantID, got.ID)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestStore_FindPrincipalInfrastructureError(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery("FROM users").
		WithArgs("a@x.io").
		WillReturnError(errors.New("connection refused"))

	_, err := NewStore(mock).FindPrincipal(context.Background(), identity.Criteria{Email: "a@x.io"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, identity.ErrNotFound)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestStore_SavePrincipal(t *testing.T) {
	p, err := identity.NewPrincipal("a@x.io", "$argon2id$hash")
	require.NoError(t, err)

	t.Run("inserts", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectExec("INSERT INTO users").
			WithArgs(p.ID, p.Email, p.PasswordHash, "", "", pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		require.NoError(t, NewStore(mock).SavePrincipal(context.Background(), p))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate email", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectExec("INSERT INTO users").
			WithArgs(p.ID, p.Email, p.PasswordHash, "", "", pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation})

		err := NewStore(mock).SavePrincipal(context.Background(), p)
		assert.ErrorIs(t, err, identity.ErrDuplicate)
	})
}

func TestStore_UpdateFields(t *testing.T) {
	t.Run("single statement in field order", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectExec(regexp.QuoteMeta(
			"UPDATE users SET hashed_password = $2, reset_token = NULLIF($3, ''), updated_at = NOW() WHERE id = $1",
		)).
			WithArgs("u1", "$argon2id$new", "").
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		err := NewStore(mock).UpdateFields(context.Background(), "u1", identity.Fields{
			identity.FieldResetToken:   "",
			identity.FieldPasswordHash: "$argon2id$new",
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown principal", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectExec("UPDATE users SET").
			WithArgs("missing", "s1").
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := NewStore(mock).UpdateFields(context.Background(), "missing", identity.Fields{identity.FieldSessionID: "s1"})
		assert.ErrorIs(t, err, identity.ErrNotFound)
	})

	t.Run("unknown field issues no statement", func(t *testing.T) {
		mock := newMock(t)

		err := NewStore(mock).UpdateFields(context.Background(), "u1", identity.Fields{"nickname": "x"})
		assert.ErrorIs(t, err, identity.ErrUnknownField)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestStore_UpdateFieldsWhere(t *testing.T) {
	t.Run("conditions follow the updates", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectExec(regexp.QuoteMeta(
			"UPDATE users SET hashed_password = $2, reset_token = NULLIF($3, ''), updated_at = NOW() "+
				"WHERE id = $1 AND reset_token IS NOT DISTINCT FROM NULLIF($4, '')",
		)).
			WithArgs("u1", "$argon2id$new", "", "tok").
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		err := NewStore(mock).UpdateFieldsWhere(context.Background(), "u1",
			identity.Fields{identity.FieldResetToken: "tok"},
			identity.Fields{identity.FieldPasswordHash: "$argon2id$new", identity.FieldResetToken: ""})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("condition no longer holds", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectExec("UPDATE users SET").
			WithArgs("u1", "$argon2id$new", "tok").
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := NewStore(mock).UpdateFieldsWhere(context.Background(), "u1",
			identity.Fields{identity.FieldResetToken: "tok"},
			identity.Fields{identity.FieldPasswordHash: "$argon2id$new"})
		assert.ErrorIs(t, err, identity.ErrNotFound)
	})

	t.Run("unknown condition field issues no statement", func(t *testing.T) {
		mock := newMock(t)

		err := NewStore(mock).UpdateFieldsWhere(context.Background(), "u1",
			identity.Fields{"role": "admin"},
			identity.Fields{identity.FieldPasswordHash: "$x"})
		assert.ErrorIs(t, err, identity.ErrUnknownField)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestStore_Sessions(t *testing.T) {
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("save and find", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectExec("INSERT INTO user_sessions").
			WithArgs("s1", "u1", created).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectQuery("FROM user_sessions").
			WithArgs("s1").
			WillReturnRows(pgxmock.NewRows([]string{"session_id", "user_id", "created_at"}).
				AddRow("s1", "u1", created))

		store := NewStore(mock)
		require.NoError(t, store.SaveSession(context.Background(), &identity.SessionRecord{
			SessionID: "s1",
			UserID:    "u1",
			CreatedAt: created,
		}))

		rec, err := store.FindSession(context.Background(), "s1")
		require.NoError(t, err)
		assert.Equal(t, "u1", rec.UserID)
		assert.True(t, created.Equal(rec.CreatedAt))
	})

	t.Run("remove missing", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectExec("DELETE FROM user_sessions").
			WithArgs("nope").
			WillReturnResult(pgxmock.NewResult("DELETE", 0))

		err := NewStore(mock).RemoveSession(context.Background(), "nope")
		assert.ErrorIs(t, err, identity.ErrNotFound)
	})

	t.Run("remove older than cutoff", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectExec("DELETE FROM user_sessions WHERE created_at").
			WithArgs(created).
			WillReturnResult(pgxmock.NewResult("DELETE", 3))

		n, err := NewStore(mock).RemoveSessionsCreatedBefore(context.Background(), created)
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)
	})
}

func TestStore_Migrate(t *testing.T) {
	mock := newMock(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS users").
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))

	require.NoError(t, NewStore(mock).Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
