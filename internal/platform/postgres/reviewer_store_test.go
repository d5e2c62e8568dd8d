package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsunayoshi21/Labeling-app/internal/domain"
	"github.com/tsunayoshi21/Labeling-app/internal/store"
)

func newMockDB(t *testing.T) (*PostgresReviewerStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresReviewerStore(db, nil), mock
}

func testReviewer(t *testing.T) *domain.Reviewer {
	t.Helper()
	reviewer, err := domain.NewReviewer("alice", "hashed-password", domain.RoleReviewer)
	require.NoError(t, err)
	return reviewer
}

func TestPostgresReviewerStore_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		s, mock := newMockDB(t)
		reviewer := testReviewer(t)

		mock.ExpectExec("INSERT INTO reviewers").
			WithArgs(reviewer.ID, reviewer.Name, reviewer.HashedPassword, reviewer.Role, reviewer.CreatedAt).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, s.Create(ctx, reviewer))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unique violation maps to name exists", func(t *testing.T) {
		s, mock := newMockDB(t)
		reviewer := testReviewer(t)

		mock.ExpectExec("INSERT INTO reviewers").
			WillReturnError(&pgconn.PgError{Code: "23505"})

		err := s.Create(ctx, reviewer)
		assert.ErrorIs(t, err, store.ErrReviewerNameExists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("driver failure carries entity and operation", func(t *testing.T) {
		s, mock := newMockDB(t)
		reviewer := testReviewer(t)
		driverErr := errors.New("connection reset by peer")

		mock.ExpectExec("INSERT INTO reviewers").
			WillReturnError(driverErr)

		err := s.Create(ctx, reviewer)
		var storeErr *store.StoreError
		require.ErrorAs(t, err, &storeErr)
		assert.Equal(t, "reviewer", storeErr.Entity)
		assert.Equal(t, "create", storeErr.Operation)
		assert.ErrorIs(t, err, driverErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("invalid reviewer never reaches the database", func(t *testing.T) {
		s, mock := newMockDB(t)
		reviewer := testReviewer(t)
		reviewer.Name = ""

		err := s.Create(ctx, reviewer)
		assert.ErrorIs(t, err, domain.ErrEmptyReviewerName)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresReviewerStore_GetByID(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		s, mock := newMockDB(t)
		id := uuid.New()
		created := time.Now().UTC()

		rows := sqlmock.NewRows([]string{"id", "name", "hashed_password", "role", "created_at"}).
			AddRow(id, "alice", "hashed-password", "reviewer", created)
		mock.ExpectQuery("SELECT (.+) FROM reviewers WHERE id").
			WithArgs(id).
			WillReturnRows(rows)

		reviewer, err := s.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, id, reviewer.ID)
		assert.Equal(t, domain.RoleReviewer, reviewer.Role)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		s, mock := newMockDB(t)
		id := uuid.New()

		mock.ExpectQuery("SELECT (.+) FROM reviewers WHERE id").
			WithArgs(id).
			WillReturnError(sql.ErrNoRows)

		_, err := s.GetByID(ctx, id)
		assert.ErrorIs(t, err, store.ErrReviewerNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresReviewerStore_GetReference(t *testing.T) {
	ctx := context.Background()

	t.Run("resolved by role", func(t *testing.T) {
		s, mock := newMockDB(t)
		id := uuid.New()

		rows := sqlmock.NewRows([]string{"id", "name", "hashed_password", "role", "created_at"}).
			AddRow(id, "admin", "hashed-password", "reference", time.Now().UTC())
		mock.ExpectQuery("SELECT (.+) FROM reviewers WHERE role").
			WithArgs(domain.RoleReference).
			WillReturnRows(rows)

		reviewer, err := s.GetReference(ctx)
		require.NoError(t, err)
		assert.True(t, reviewer.IsReference())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("none configured", func(t *testing.T) {
		s, mock := newMockDB(t)

		mock.ExpectQuery("SELECT (.+) FROM reviewers WHERE role").
			WithArgs(domain.RoleReference).
			WillReturnError(sql.ErrNoRows)

		_, err := s.GetReference(ctx)
		assert.ErrorIs(t, err, store.ErrReferenceReviewerNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresReviewerStore_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes", func(t *testing.T) {
		s, mock := newMockDB(t)
		id := uuid.New()

		mock.ExpectExec("DELETE FROM reviewers WHERE id").
			WithArgs(id).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, s.Delete(ctx, id))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("zero rows means not found", func(t *testing.T) {
		s, mock := newMockDB(t)
		id := uuid.New()

		mock.ExpectExec("DELETE FROM reviewers WHERE id").
			WithArgs(id).
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, s.Delete(ctx, id), store.ErrReviewerNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresReviewerStore_List(t *testing.T) {
	s, mock := newMockDB(t)

	rows := sqlmock.NewRows([]string{"id", "name", "hashed_password", "role", "created_at"}).
		AddRow(uuid.New(), "admin", "h", "reference", time.Now().UTC()).
		AddRow(uuid.New(), "alice", "h", "reviewer", time.Now().UTC())
	mock.ExpectQuery("SELECT (.+) FROM reviewers ORDER BY name").
		WillReturnRows(rows)

	reviewers, err := s.List(context.Background())
	require.NoError(t, err)
	require.Len(t, reviewers, 2)
	assert.Equal(t, "admin", reviewers[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}
