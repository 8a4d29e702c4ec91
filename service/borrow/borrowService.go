package borrowsvc

import (
	"context"
	"database/sql"
	"errors"
	"time"

	borrowrepo "librarian/repository/borrow"

	"librarian/model"
	"librarian/service/fine"
)

// errors used by controllers

type ErrCode string

const (
	ErrUserNotFound    ErrCode = "USER_NOT_FOUND"
	ErrBookNotFound    ErrCode = "BOOK_NOT_FOUND"
	ErrRecordNotFound  ErrCode = "RECORD_NOT_FOUND"
	ErrNoCopies        ErrCode = "NO_COPIES"
	ErrAlreadyBorrowed ErrCode = "ALREADY_BORROWED"
	ErrAlreadyReturned ErrCode = "ALREADY_RETURNED"
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

// dto

type Record = borrowrepo.Row
type Filter = borrowrepo.Filter

type IssueInput struct {
	UserID   int64
	BookID   int64
	DueDate  time.Time
	IssuedBy int64
	Notes    string
}

type Stats struct {
	TotalBorrowed int64 `json:"total_borrowed"`
	TotalOverdue  int64 `json:"total_overdue"`
	TotalReturned int64 `json:"total_returned"`
	TotalFines    int64 `json:"total_fines"`
}

type Repo interface {
	UserExists(ctx context.Context, userID int64) (bool, error)
	BookExists(ctx context.Context, bookID int64) (bool, error)

	HasActiveLoan(ctx context.Context, tx *sql.Tx, userID, bookID int64) (bool, error)
	TakeCopy(ctx context.Context, tx *sql.Tx, bookID int64) (bool, error)
	PutBackCopy(ctx context.Context, tx *sql.Tx, bookID int64) (bool, error)
	Insert(ctx context.Context, tx *sql.Tx, rec *model.BorrowRecord) error
	GetForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*model.BorrowRecord, error)
	MarkReturned(ctx context.Context, tx *sql.Tx, id int64, returnedAt time.Time, fineAmount int64) error

	GetRow(ctx context.Context, id int64) (*Record, error)
	UpdateStatusFine(ctx context.Context, id int64, status model.BorrowStatus, fineAmount int64) error

	ListByUser(ctx context.Context, userID int64) ([]Record, error)
	List(ctx context.Context, f Filter) ([]Record, error)
	ListOverdueCandidates(ctx context.Context, now time.Time) ([]Record, error)
	ListStatsCandidates(ctx context.Context, now time.Time) ([]model.BorrowRecord, error)

	CountByStatus(ctx context.Context, status model.BorrowStatus) (int64, error)
	CountEffectiveOverdue(ctx context.Context, now time.Time) (int64, error)
	SumFines(ctx context.Context) (int64, error)
}

type Service interface {
	// Issue hands one copy to a user: record created, copy count down by one.
	Issue(ctx context.Context, in IssueInput) (*Record, error)

	// Return closes a loan, freezes its fine and puts the copy back.
	Return(ctx context.Context, recordID int64) (*Record, error)

	MyHistory(ctx context.Context, userID int64) ([]Record, error)
	ListAll(ctx context.Context, f Filter) ([]Record, error)
	ListOverdue(ctx context.Context) ([]Record, error)
	Stats(ctx context.Context) (*Stats, error)
}

// ----- Service implementation -----

type service struct {
	db    *sql.DB
	r     Repo
	fines fine.Engine
	now   func() time.Time
}

// New wires the ledger. A nil clock means the wall clock; tests inject
// their own.
func New(db *sql.DB, r Repo, fines fine.Engine, now func() time.Time) Service {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &service{db: db, r: r, fines: fines, now: now}
}

func (s *service) Issue(ctx context.Context, in IssueInput) (rec *Record, err error) {
	ok, err := s.r.UserExists(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, makeErr(ErrUserNotFound)
	}
	ok, err = s.r.BookExists(ctx, in.BookID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, makeErr(ErrBookNotFound)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	active, err := s.r.HasActiveLoan(ctx, tx, in.UserID, in.BookID)
	if err != nil {
		return nil, err
	}
	if active {
		return nil, makeErr(ErrAlreadyBorrowed)
	}

	taken, err := s.r.TakeCopy(ctx, tx, in.BookID)
	if err != nil {
		return nil, err
	}
	if !taken {
		return nil, makeErr(ErrNoCopies)
	}

	record := &model.BorrowRecord{
		UserID:       in.UserID,
		BookID:       in.BookID,
		BorrowedDate: s.now(),
		DueDate:      in.DueDate,
		Status:       model.StatusBorrowed,
		Fine:         0,
		IssuedBy:     in.IssuedBy,
	}
	if in.Notes != "" {
		record.Notes = &in.Notes
	}
	if err = s.r.Insert(ctx, tx, record); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}

	return s.r.GetRow(ctx, record.ID)
}

func (s *service) Return(ctx context.Context, recordID int64) (rec *Record, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	record, err := s.r.GetForUpdate(ctx, tx, recordID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, makeErr(ErrRecordNotFound)
		}
		return nil, err
	}
	if record.Status == model.StatusReturned {
		return nil, makeErr(ErrAlreadyReturned)
	}

	now := s.now()
	fineAmount := s.fines.Compute(model.StatusReturned, record.DueDate, &now, now)
	if err = s.r.MarkReturned(ctx, tx, recordID, now, fineAmount); err != nil {
		return nil, err
	}

	// Best effort: a deleted book does not block the return.
	if _, err = s.r.PutBackCopy(ctx, tx, record.BookID); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}

	return s.r.GetRow(ctx, recordID)
}

// refresh recomputes status and fine against the clock and persists only
// when something changed. Overdue transitions become visible this way,
// without a background job.
func (s *service) refresh(ctx context.Context, rec *model.BorrowRecord) error {
	now := s.now()
	status := s.fines.DeriveStatus(rec.Status, now, rec.DueDate)
	fineAmount := s.fines.Compute(status, rec.DueDate, rec.ReturnedDate, now)
	if status == rec.Status && fineAmount == rec.Fine {
		return nil
	}
	rec.Status = status
	rec.Fine = fineAmount
	return s.r.UpdateStatusFine(ctx, rec.ID, status, fineAmount)
}

func (s *service) refreshRows(ctx context.Context, rows []Record) error {
	for i := range rows {
		if err := s.refresh(ctx, &rows[i].BorrowRecord); err != nil {
			return err
		}
	}
	return nil
}

func (s *service) MyHistory(ctx context.Context, userID int64) ([]Record, error) {
	rows, err := s.r.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.refreshRows(ctx, rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *service) ListAll(ctx context.Context, f Filter) ([]Record, error) {
	rows, err := s.r.List(ctx, f)
	if err != nil {
		return nil, err
	}
	if err := s.refreshRows(ctx, rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *service) ListOverdue(ctx context.Context) ([]Record, error) {
	rows, err := s.r.ListOverdueCandidates(ctx, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.refreshRows(ctx, rows); err != nil {
		return nil, err
	}
	out := rows[:0]
	for _, row := range rows {
		if row.Status == model.StatusOverdue {
			out = append(out, row)
		}
	}
	return out, nil
}

func (s *service) Stats(ctx context.Context) (*Stats, error) {
	// Settle every record whose stored status or fine could be stale,
	// then aggregate in SQL so the numbers are current as of now.
	candidates, err := s.r.ListStatsCandidates(ctx, s.now())
	if err != nil {
		return nil, err
	}
	for i := range candidates {
		if err := s.refresh(ctx, &candidates[i]); err != nil {
			return nil, err
		}
	}

	st := &Stats{}
	if st.TotalBorrowed, err = s.r.CountByStatus(ctx, model.StatusBorrowed); err != nil {
		return nil, err
	}
	if st.TotalOverdue, err = s.r.CountEffectiveOverdue(ctx, s.now()); err != nil {
		return nil, err
	}
	if st.TotalReturned, err = s.r.CountByStatus(ctx, model.StatusReturned); err != nil {
		return nil, err
	}
	if st.TotalFines, err = s.r.SumFines(ctx); err != nil {
		return nil, err
	}
	return st, nil
}
