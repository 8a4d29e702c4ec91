package requestsvc

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"librarian/model"
)

var t0 = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

type mockRepo struct {
	bookCopiesFn func(ctx context.Context, bookID int64) (int64, error)
	hasPendingFn func(ctx context.Context, userID, bookID int64) (bool, error)
	insertFn     func(ctx context.Context, req *model.BorrowRequest) error
	approveFn    func(ctx context.Context, tx *sql.Tx, id, adminID int64, at time.Time) (int64, error)
	takeCopyFn   func(ctx context.Context, tx *sql.Tx, bookID int64) (bool, error)
	rejectFn     func(ctx context.Context, id, adminID int64, at time.Time) (bool, error)
	getFn        func(ctx context.Context, id int64) (*Row, error)
	listFn       func(ctx context.Context) ([]Row, error)
	listByUserFn func(ctx context.Context, userID int64) ([]Row, error)
}

var _ Repo = (*mockRepo)(nil)

func (m *mockRepo) BookCopies(ctx context.Context, bookID int64) (int64, error) {
	return m.bookCopiesFn(ctx, bookID)
}

func (m *mockRepo) HasPending(ctx context.Context, userID, bookID int64) (bool, error) {
	if m.hasPendingFn == nil {
		return false, nil
	}
	return m.hasPendingFn(ctx, userID, bookID)
}

func (m *mockRepo) Insert(ctx context.Context, req *model.BorrowRequest) error {
	if m.insertFn == nil {
		req.ID = 1
		return nil
	}
	return m.insertFn(ctx, req)
}

func (m *mockRepo) ApprovePending(ctx context.Context, tx *sql.Tx, id, adminID int64, at time.Time) (int64, error) {
	return m.approveFn(ctx, tx, id, adminID, at)
}

func (m *mockRepo) TakeCopy(ctx context.Context, tx *sql.Tx, bookID int64) (bool, error) {
	return m.takeCopyFn(ctx, tx, bookID)
}

func (m *mockRepo) RejectPending(ctx context.Context, id, adminID int64, at time.Time) (bool, error) {
	return m.rejectFn(ctx, id, adminID, at)
}

func (m *mockRepo) Get(ctx context.Context, id int64) (*Row, error) {
	if m.getFn == nil {
		return &Row{BorrowRequest: model.BorrowRequest{ID: id}}, nil
	}
	return m.getFn(ctx, id)
}

func (m *mockRepo) List(ctx context.Context) ([]Row, error) { return m.listFn(ctx) }

func (m *mockRepo) ListByUser(ctx context.Context, userID int64) ([]Row, error) {
	return m.listByUserFn(ctx, userID)
}

func newService(t *testing.T, m *mockRepo) (Service, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db, m, func() time.Time { return t0 }), mock
}

func TestCreate_Success(t *testing.T) {
	var inserted *model.BorrowRequest
	m := &mockRepo{
		bookCopiesFn: func(ctx context.Context, bookID int64) (int64, error) { return 2, nil },
		insertFn: func(ctx context.Context, req *model.BorrowRequest) error {
			req.ID = 5
			inserted = req
			return nil
		},
	}
	svc, _ := newService(t, m)

	row, err := svc.Create(context.Background(), 2, 3, "please")
	require.NoError(t, err)
	require.Equal(t, int64(5), row.ID)
	require.Equal(t, model.RequestPending, inserted.Status)
	require.Equal(t, t0, inserted.RequestedAt)
	require.NotNil(t, inserted.Notes)
}

func TestCreate_BookMissingOrOutOfStock(t *testing.T) {
	m := &mockRepo{
		bookCopiesFn: func(ctx context.Context, bookID int64) (int64, error) { return 0, sql.ErrNoRows },
	}
	svc, _ := newService(t, m)
	_, err := svc.Create(context.Background(), 2, 99, "")
	require.Equal(t, ErrUnavailable, Code(err))

	m.bookCopiesFn = func(ctx context.Context, bookID int64) (int64, error) { return 0, nil }
	_, err = svc.Create(context.Background(), 2, 3, "")
	require.Equal(t, ErrUnavailable, Code(err))
}

func TestCreate_DuplicatePending(t *testing.T) {
	m := &mockRepo{
		bookCopiesFn: func(ctx context.Context, bookID int64) (int64, error) { return 1, nil },
		hasPendingFn: func(ctx context.Context, userID, bookID int64) (bool, error) { return true, nil },
	}
	svc, _ := newService(t, m)

	_, err := svc.Create(context.Background(), 2, 3, "")
	require.Equal(t, ErrDuplicatePending, Code(err))
}

func TestApprove_Success(t *testing.T) {
	taken := false
	m := &mockRepo{
		approveFn: func(ctx context.Context, tx *sql.Tx, id, adminID int64, at time.Time) (int64, error) {
			require.Equal(t, int64(1), adminID)
			return 3, nil
		},
		takeCopyFn: func(ctx context.Context, tx *sql.Tx, bookID int64) (bool, error) {
			require.Equal(t, int64(3), bookID)
			taken = true
			return true, nil
		},
	}
	svc, mock := newService(t, m)
	mock.ExpectBegin()
	mock.ExpectCommit()

	_, err := svc.Approve(context.Background(), 5, 1)
	require.NoError(t, err)
	require.True(t, taken)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApprove_NotPending(t *testing.T) {
	m := &mockRepo{
		approveFn: func(ctx context.Context, tx *sql.Tx, id, adminID int64, at time.Time) (int64, error) {
			return 0, sql.ErrNoRows
		},
	}
	svc, mock := newService(t, m)
	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := svc.Approve(context.Background(), 5, 1)
	require.Equal(t, ErrNotFound, Code(err))
}

func TestApprove_NoCopiesRollsBack(t *testing.T) {
	// The approval update succeeds inside the tx, but the guarded
	// decrement finds no copy; the rollback leaves the request pending.
	m := &mockRepo{
		approveFn: func(ctx context.Context, tx *sql.Tx, id, adminID int64, at time.Time) (int64, error) {
			return 3, nil
		},
		takeCopyFn: func(ctx context.Context, tx *sql.Tx, bookID int64) (bool, error) {
			return false, nil
		},
	}
	svc, mock := newService(t, m)
	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := svc.Approve(context.Background(), 5, 1)
	require.Equal(t, ErrUnavailable, Code(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReject(t *testing.T) {
	m := &mockRepo{
		rejectFn: func(ctx context.Context, id, adminID int64, at time.Time) (bool, error) {
			return true, nil
		},
	}
	svc, _ := newService(t, m)
	_, err := svc.Reject(context.Background(), 5, 1)
	require.NoError(t, err)

	m.rejectFn = func(ctx context.Context, id, adminID int64, at time.Time) (bool, error) {
		return false, nil
	}
	_, err = svc.Reject(context.Background(), 5, 1)
	require.Equal(t, ErrNotFound, Code(err))
}
