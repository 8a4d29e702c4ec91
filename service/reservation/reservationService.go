package ressvc

import (
	"context"
	"database/sql"
	"errors"
	"time"

	resrepo "librarian/repository/reservation"

	"librarian/model"
)

// errors used by controllers

type ErrCode string

const (
	ErrBookNotFound    ErrCode = "BOOK_NOT_FOUND"
	ErrNotNeeded       ErrCode = "NOT_NEEDED"
	ErrDuplicateActive ErrCode = "DUPLICATE_ACTIVE"
	ErrNotFound        ErrCode = "RESERVATION_NOT_FOUND"
	ErrNotOwner        ErrCode = "NOT_OWNER"
)

type codedError struct{ code ErrCode }

func (e codedError) Error() string { return string(e.code) }
func (e codedError) Code() ErrCode { return e.code }
func makeErr(c ErrCode) error      { return codedError{code: c} }

// Code extracts error code
func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

type Row = resrepo.Row

type Repo interface {
	BookCopies(ctx context.Context, bookID int64) (int64, error)
	HasActive(ctx context.Context, userID, bookID int64) (bool, error)
	Insert(ctx context.Context, res *model.Reservation) error

	Get(ctx context.Context, id int64) (*Row, error)
	FulfillActive(ctx context.Context, id int64, at time.Time) (bool, error)
	CancelActive(ctx context.Context, id int64, at time.Time) (bool, error)

	List(ctx context.Context) ([]Row, error)
	ListByUser(ctx context.Context, userID int64) ([]Row, error)
}

type Service interface {
	// Create queues a user for a book that is out of stock.
	Create(ctx context.Context, userID, bookID int64) (*Row, error)

	// Fulfill marks the reservation consumed. Handing the copy over goes
	// through the borrow ledger's issue path, not here.
	Fulfill(ctx context.Context, reservationID int64) (*Row, error)

	// Cancel is owner-only for plain users; staff may cancel any.
	Cancel(ctx context.Context, reservationID, callerID int64, callerRole model.Role) (*Row, error)

	ListAll(ctx context.Context) ([]Row, error)
	ListMine(ctx context.Context, userID int64) ([]Row, error)
}

type service struct {
	r   Repo
	now func() time.Time
}

func New(r Repo, now func() time.Time) Service {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &service{r: r, now: now}
}

func (s *service) Create(ctx context.Context, userID, bookID int64) (*Row, error) {
	copies, err := s.r.BookCopies(ctx, bookID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, makeErr(ErrBookNotFound)
		}
		return nil, err
	}
	if copies > 0 {
		return nil, makeErr(ErrNotNeeded)
	}

	active, err := s.r.HasActive(ctx, userID, bookID)
	if err != nil {
		return nil, err
	}
	if active {
		return nil, makeErr(ErrDuplicateActive)
	}

	res := &model.Reservation{
		UserID:     userID,
		BookID:     bookID,
		Status:     model.ReservationActive,
		ReservedAt: s.now(),
	}
	if err := s.r.Insert(ctx, res); err != nil {
		return nil, err
	}
	return s.r.Get(ctx, res.ID)
}

func (s *service) Fulfill(ctx context.Context, reservationID int64) (*Row, error) {
	done, err := s.r.FulfillActive(ctx, reservationID, s.now())
	if err != nil {
		return nil, err
	}
	if !done {
		return nil, makeErr(ErrNotFound)
	}
	return s.r.Get(ctx, reservationID)
}

func (s *service) Cancel(ctx context.Context, reservationID, callerID int64, callerRole model.Role) (*Row, error) {
	row, err := s.r.Get(ctx, reservationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, makeErr(ErrNotFound)
		}
		return nil, err
	}
	if !callerRole.Staff() && row.UserID != callerID {
		return nil, makeErr(ErrNotOwner)
	}

	done, err := s.r.CancelActive(ctx, reservationID, s.now())
	if err != nil {
		return nil, err
	}
	if !done {
		return nil, makeErr(ErrNotFound)
	}
	return s.r.Get(ctx, reservationID)
}

func (s *service) ListAll(ctx context.Context) ([]Row, error) {
	return s.r.List(ctx)
}

func (s *service) ListMine(ctx context.Context, userID int64) ([]Row, error) {
	return s.r.ListByUser(ctx, userID)
}
