package requestrepo

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"librarian/model"
)

// Row is a borrow request joined with book and requester display fields.
type Row struct {
	model.BorrowRequest
	BookTitle  string `json:"book_title" db:"book_title"`
	BookAuthor string `json:"book_author" db:"book_author"`
	Requester  string `json:"requester" db:"requester"`
}

type Repo interface {
	BookCopies(ctx context.Context, bookID int64) (int64, error)
	HasPending(ctx context.Context, userID, bookID int64) (bool, error)
	Insert(ctx context.Context, req *model.BorrowRequest) error

	ApprovePending(ctx context.Context, tx *sql.Tx, id, adminID int64, at time.Time) (bookID int64, err error)
	TakeCopy(ctx context.Context, tx *sql.Tx, bookID int64) (bool, error)
	RejectPending(ctx context.Context, id, adminID int64, at time.Time) (bool, error)

	Get(ctx context.Context, id int64) (*Row, error)
	List(ctx context.Context) ([]Row, error)
	ListByUser(ctx context.Context, userID int64) ([]Row, error)
}

type repo struct{ db *sqlx.DB }

func New(db *sqlx.DB) Repo { return &repo{db: db} }

const rowColumns = `
	q.id, q.user_id, q.book_id, q.status, q.requested_at, q.approved_at,
	q.rejected_at, q.admin_id, q.notes,
	b.title  AS book_title,
	b.author AS book_author,
	u.first_name || ' ' || u.last_name AS requester`

const rowJoins = `
	FROM borrow_requests q
	JOIN books b ON b.id = q.book_id
	JOIN users u ON u.id = q.user_id`

func (r *repo) BookCopies(ctx context.Context, bookID int64) (int64, error) {
	const q = `SELECT copies_available FROM books WHERE id = $1`
	var n int64
	err := r.db.GetContext(ctx, &n, q, bookID)
	return n, err
}

func (r *repo) HasPending(ctx context.Context, userID, bookID int64) (bool, error) {
	const q = `
		SELECT EXISTS (
			SELECT 1 FROM borrow_requests
			WHERE user_id = $1 AND book_id = $2 AND status = 'pending'
		)`
	var ok bool
	err := r.db.GetContext(ctx, &ok, q, userID, bookID)
	return ok, err
}

func (r *repo) Insert(ctx context.Context, req *model.BorrowRequest) error {
	const q = `
		INSERT INTO borrow_requests (user_id, book_id, status, requested_at, notes)
		VALUES ($1, $2, 'pending', $3, $4)
		RETURNING id`
	return r.db.QueryRowContext(ctx, q, req.UserID, req.BookID, req.RequestedAt, req.Notes).
		Scan(&req.ID)
}

// ApprovePending flips a pending request to approved in one guarded
// statement; sql.ErrNoRows means it was missing or already processed.
func (r *repo) ApprovePending(ctx context.Context, tx *sql.Tx, id, adminID int64, at time.Time) (int64, error) {
	const q = `
		UPDATE borrow_requests
		SET status = 'approved',
		    approved_at = $2,
		    admin_id = $3
		WHERE id = $1
		AND status = 'pending'
		RETURNING book_id`
	var bookID int64
	err := tx.QueryRowContext(ctx, q, id, at, adminID).Scan(&bookID)
	return bookID, err
}

func (r *repo) TakeCopy(ctx context.Context, tx *sql.Tx, bookID int64) (bool, error) {
	const q = `
		UPDATE books
		SET copies_available = copies_available - 1
		WHERE id = $1
		AND copies_available > 0`
	res, err := tx.ExecContext(ctx, q, bookID)
	if err != nil {
		return false, err
	}
	aff, _ := res.RowsAffected()
	return aff > 0, nil
}

func (r *repo) RejectPending(ctx context.Context, id, adminID int64, at time.Time) (bool, error) {
	const q = `
		UPDATE borrow_requests
		SET status = 'rejected',
		    rejected_at = $2,
		    admin_id = $3
		WHERE id = $1
		AND status = 'pending'`
	res, err := r.db.ExecContext(ctx, q, id, at, adminID)
	if err != nil {
		return false, err
	}
	aff, _ := res.RowsAffected()
	return aff > 0, nil
}

func (r *repo) Get(ctx context.Context, id int64) (*Row, error) {
	q := `SELECT` + rowColumns + rowJoins + ` WHERE q.id = $1`
	row := &Row{}
	if err := r.db.GetContext(ctx, row, q, id); err != nil {
		return nil, err
	}
	return row, nil
}

func (r *repo) List(ctx context.Context) ([]Row, error) {
	q := `SELECT` + rowColumns + rowJoins + ` ORDER BY q.requested_at DESC, q.id DESC`
	var out []Row
	err := r.db.SelectContext(ctx, &out, q)
	return out, err
}

func (r *repo) ListByUser(ctx context.Context, userID int64) ([]Row, error) {
	q := `SELECT` + rowColumns + rowJoins + `
	WHERE q.user_id = $1
	ORDER BY q.requested_at DESC, q.id DESC`
	var out []Row
	err := r.db.SelectContext(ctx, &out, q, userID)
	return out, err
}
