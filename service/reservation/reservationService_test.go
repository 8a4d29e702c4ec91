package ressvc

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"librarian/model"
)

var t0 = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

type mockRepo struct {
	bookCopiesFn func(ctx context.Context, bookID int64) (int64, error)
	hasActiveFn  func(ctx context.Context, userID, bookID int64) (bool, error)
	insertFn     func(ctx context.Context, res *model.Reservation) error
	getFn        func(ctx context.Context, id int64) (*Row, error)
	fulfillFn    func(ctx context.Context, id int64, at time.Time) (bool, error)
	cancelFn     func(ctx context.Context, id int64, at time.Time) (bool, error)
	listFn       func(ctx context.Context) ([]Row, error)
	listByUserFn func(ctx context.Context, userID int64) ([]Row, error)
}

var _ Repo = (*mockRepo)(nil)

func (m *mockRepo) BookCopies(ctx context.Context, bookID int64) (int64, error) {
	return m.bookCopiesFn(ctx, bookID)
}

func (m *mockRepo) HasActive(ctx context.Context, userID, bookID int64) (bool, error) {
	if m.hasActiveFn == nil {
		return false, nil
	}
	return m.hasActiveFn(ctx, userID, bookID)
}

func (m *mockRepo) Insert(ctx context.Context, res *model.Reservation) error {
	if m.insertFn == nil {
		res.ID = 1
		return nil
	}
	return m.insertFn(ctx, res)
}

func (m *mockRepo) Get(ctx context.Context, id int64) (*Row, error) {
	if m.getFn == nil {
		return &Row{Reservation: model.Reservation{ID: id, Status: model.ReservationActive}}, nil
	}
	return m.getFn(ctx, id)
}

func (m *mockRepo) FulfillActive(ctx context.Context, id int64, at time.Time) (bool, error) {
	return m.fulfillFn(ctx, id, at)
}

func (m *mockRepo) CancelActive(ctx context.Context, id int64, at time.Time) (bool, error) {
	return m.cancelFn(ctx, id, at)
}

func (m *mockRepo) List(ctx context.Context) ([]Row, error) { return m.listFn(ctx) }

func (m *mockRepo) ListByUser(ctx context.Context, userID int64) ([]Row, error) {
	return m.listByUserFn(ctx, userID)
}

func clock() time.Time { return t0 }

func TestCreate_Success(t *testing.T) {
	var inserted *model.Reservation
	m := &mockRepo{
		bookCopiesFn: func(ctx context.Context, bookID int64) (int64, error) { return 0, nil },
		insertFn: func(ctx context.Context, res *model.Reservation) error {
			res.ID = 4
			inserted = res
			return nil
		},
	}
	svc := New(m, clock)

	row, err := svc.Create(context.Background(), 2, 3)
	require.NoError(t, err)
	require.Equal(t, int64(4), row.ID)
	require.Equal(t, model.ReservationActive, inserted.Status)
	require.Equal(t, t0, inserted.ReservedAt)
}

func TestCreate_BookNotFound(t *testing.T) {
	m := &mockRepo{
		bookCopiesFn: func(ctx context.Context, bookID int64) (int64, error) { return 0, sql.ErrNoRows },
	}
	svc := New(m, clock)

	_, err := svc.Create(context.Background(), 2, 99)
	require.Equal(t, ErrBookNotFound, Code(err))
}

func TestCreate_NotNeededWhenInStock(t *testing.T) {
	m := &mockRepo{
		bookCopiesFn: func(ctx context.Context, bookID int64) (int64, error) { return 2, nil },
	}
	svc := New(m, clock)

	_, err := svc.Create(context.Background(), 2, 3)
	require.Equal(t, ErrNotNeeded, Code(err))
}

func TestCreate_DuplicateActive(t *testing.T) {
	m := &mockRepo{
		bookCopiesFn: func(ctx context.Context, bookID int64) (int64, error) { return 0, nil },
		hasActiveFn:  func(ctx context.Context, userID, bookID int64) (bool, error) { return true, nil },
	}
	svc := New(m, clock)

	_, err := svc.Create(context.Background(), 2, 3)
	require.Equal(t, ErrDuplicateActive, Code(err))
}

func TestFulfill(t *testing.T) {
	m := &mockRepo{
		fulfillFn: func(ctx context.Context, id int64, at time.Time) (bool, error) { return true, nil },
	}
	svc := New(m, clock)
	_, err := svc.Fulfill(context.Background(), 4)
	require.NoError(t, err)

	m.fulfillFn = func(ctx context.Context, id int64, at time.Time) (bool, error) { return false, nil }
	_, err = svc.Fulfill(context.Background(), 4)
	require.Equal(t, ErrNotFound, Code(err))
}

func TestCancel_OwnerOnlyForUsers(t *testing.T) {
	m := &mockRepo{
		getFn: func(ctx context.Context, id int64) (*Row, error) {
			return &Row{Reservation: model.Reservation{ID: id, UserID: 2, Status: model.ReservationActive}}, nil
		},
		cancelFn: func(ctx context.Context, id int64, at time.Time) (bool, error) { return true, nil },
	}
	svc := New(m, clock)

	_, err := svc.Cancel(context.Background(), 4, 9, model.RoleUser)
	require.Equal(t, ErrNotOwner, Code(err))

	_, err = svc.Cancel(context.Background(), 4, 2, model.RoleUser)
	require.NoError(t, err)

	_, err = svc.Cancel(context.Background(), 4, 9, model.RoleAdmin)
	require.NoError(t, err)
}

func TestCancel_ThenFulfillFails(t *testing.T) {
	// A cancelled reservation is terminal: the guarded fulfill matches no row.
	cancelled := false
	m := &mockRepo{
		getFn: func(ctx context.Context, id int64) (*Row, error) {
			st := model.ReservationActive
			if cancelled {
				st = model.ReservationCancelled
			}
			return &Row{Reservation: model.Reservation{ID: id, UserID: 2, Status: st}}, nil
		},
		cancelFn: func(ctx context.Context, id int64, at time.Time) (bool, error) {
			cancelled = true
			return true, nil
		},
		fulfillFn: func(ctx context.Context, id int64, at time.Time) (bool, error) {
			return !cancelled, nil
		},
	}
	svc := New(m, clock)

	_, err := svc.Cancel(context.Background(), 4, 2, model.RoleUser)
	require.NoError(t, err)

	_, err = svc.Fulfill(context.Background(), 4)
	require.Equal(t, ErrNotFound, Code(err))
}
