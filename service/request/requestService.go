package requestsvc

import (
	"context"
	"database/sql"
	"errors"
	"time"

	requestrepo "librarian/repository/request"

	"librarian/model"
)

// errors used by controllers

type ErrCode string

const (
	ErrUnavailable      ErrCode = "BOOK_UNAVAILABLE"
	ErrDuplicatePending ErrCode = "DUPLICATE_PENDING"
	ErrNotFound         ErrCode = "REQUEST_NOT_FOUND"
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

type Row = requestrepo.Row

type Repo interface {
	BookCopies(ctx context.Context, bookID int64) (int64, error)
	HasPending(ctx context.Context, userID, bookID int64) (bool, error)
	Insert(ctx context.Context, req *model.BorrowRequest) error

	ApprovePending(ctx context.Context, tx *sql.Tx, id, adminID int64, at time.Time) (int64, error)
	TakeCopy(ctx context.Context, tx *sql.Tx, bookID int64) (bool, error)
	RejectPending(ctx context.Context, id, adminID int64, at time.Time) (bool, error)

	Get(ctx context.Context, id int64) (*Row, error)
	List(ctx context.Context) ([]Row, error)
	ListByUser(ctx context.Context, userID int64) ([]Row, error)
}

type Service interface {
	// Create files a pending request; copies stay untouched until approval.
	Create(ctx context.Context, userID, bookID int64, notes string) (*Row, error)

	// Approve re-checks availability and takes the copy atomically.
	Approve(ctx context.Context, requestID, adminID int64) (*Row, error)

	Reject(ctx context.Context, requestID, adminID int64) (*Row, error)
	ListAll(ctx context.Context) ([]Row, error)
	ListMine(ctx context.Context, userID int64) ([]Row, error)
}

type service struct {
	db  *sql.DB
	r   Repo
	now func() time.Time
}

func New(db *sql.DB, r Repo, now func() time.Time) Service {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &service{db: db, r: r, now: now}
}

func (s *service) Create(ctx context.Context, userID, bookID int64, notes string) (*Row, error) {
	copies, err := s.r.BookCopies(ctx, bookID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, makeErr(ErrUnavailable)
		}
		return nil, err
	}
	if copies < 1 {
		return nil, makeErr(ErrUnavailable)
	}

	pending, err := s.r.HasPending(ctx, userID, bookID)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, makeErr(ErrDuplicatePending)
	}

	req := &model.BorrowRequest{
		UserID:      userID,
		BookID:      bookID,
		Status:      model.RequestPending,
		RequestedAt: s.now(),
	}
	if notes != "" {
		req.Notes = &notes
	}
	if err := s.r.Insert(ctx, req); err != nil {
		return nil, err
	}
	return s.r.Get(ctx, req.ID)
}

func (s *service) Approve(ctx context.Context, requestID, adminID int64) (row *Row, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	bookID, err := s.r.ApprovePending(ctx, tx, requestID, adminID, s.now())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, makeErr(ErrNotFound)
		}
		return nil, err
	}

	// Availability may have changed since the request was filed; a failed
	// take rolls the approval back and the request stays pending.
	taken, err := s.r.TakeCopy(ctx, tx, bookID)
	if err != nil {
		return nil, err
	}
	if !taken {
		err = makeErr(ErrUnavailable)
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return s.r.Get(ctx, requestID)
}

func (s *service) Reject(ctx context.Context, requestID, adminID int64) (*Row, error) {
	done, err := s.r.RejectPending(ctx, requestID, adminID, s.now())
	if err != nil {
		return nil, err
	}
	if !done {
		return nil, makeErr(ErrNotFound)
	}
	return s.r.Get(ctx, requestID)
}

func (s *service) ListAll(ctx context.Context) ([]Row, error) {
	return s.r.List(ctx)
}

func (s *service) ListMine(ctx context.Context, userID int64) ([]Row, error) {
	return s.r.ListByUser(ctx, userID)
}
