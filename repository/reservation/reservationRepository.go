package resrepo

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"librarian/model"
)

// Row is a reservation joined with book and holder display fields.
type Row struct {
	model.Reservation
	BookTitle  string `json:"book_title" db:"book_title"`
	BookAuthor string `json:"book_author" db:"book_author"`
	Holder     string `json:"holder" db:"holder"`
}

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

type repo struct{ db *sqlx.DB }

func New(db *sqlx.DB) Repo { return &repo{db: db} }

const rowColumns = `
	v.id, v.user_id, v.book_id, v.status, v.reserved_at, v.fulfilled_at, v.cancelled_at,
	b.title  AS book_title,
	b.author AS book_author,
	u.first_name || ' ' || u.last_name AS holder`

const rowJoins = `
	FROM reservations v
	JOIN books b ON b.id = v.book_id
	JOIN users u ON u.id = v.user_id`

func (r *repo) BookCopies(ctx context.Context, bookID int64) (int64, error) {
	const q = `SELECT copies_available FROM books WHERE id = $1`
	var n int64
	err := r.db.GetContext(ctx, &n, q, bookID)
	return n, err
}

func (r *repo) HasActive(ctx context.Context, userID, bookID int64) (bool, error) {
	const q = `
		SELECT EXISTS (
			SELECT 1 FROM reservations
			WHERE user_id = $1 AND book_id = $2 AND status = 'active'
		)`
	var ok bool
	err := r.db.GetContext(ctx, &ok, q, userID, bookID)
	return ok, err
}

func (r *repo) Insert(ctx context.Context, res *model.Reservation) error {
	const q = `
		INSERT INTO reservations (user_id, book_id, status, reserved_at)
		VALUES ($1, $2, 'active', $3)
		RETURNING id`
	return r.db.QueryRowContext(ctx, q, res.UserID, res.BookID, res.ReservedAt).Scan(&res.ID)
}

func (r *repo) Get(ctx context.Context, id int64) (*Row, error) {
	q := `SELECT` + rowColumns + rowJoins + ` WHERE v.id = $1`
	row := &Row{}
	if err := r.db.GetContext(ctx, row, q, id); err != nil {
		return nil, err
	}
	return row, nil
}

// FulfillActive and CancelActive guard on status in the WHERE clause so a
// terminal reservation can never transition twice.
func (r *repo) FulfillActive(ctx context.Context, id int64, at time.Time) (bool, error) {
	const q = `
		UPDATE reservations
		SET status = 'fulfilled',
		    fulfilled_at = $2
		WHERE id = $1
		AND status = 'active'`
	res, err := r.db.ExecContext(ctx, q, id, at)
	if err != nil {
		return false, err
	}
	aff, _ := res.RowsAffected()
	return aff > 0, nil
}

func (r *repo) CancelActive(ctx context.Context, id int64, at time.Time) (bool, error) {
	const q = `
		UPDATE reservations
		SET status = 'cancelled',
		    cancelled_at = $2
		WHERE id = $1
		AND status = 'active'`
	res, err := r.db.ExecContext(ctx, q, id, at)
	if err != nil {
		return false, err
	}
	aff, _ := res.RowsAffected()
	return aff > 0, nil
}

func (r *repo) List(ctx context.Context) ([]Row, error) {
	q := `SELECT` + rowColumns + rowJoins + ` ORDER BY v.reserved_at DESC, v.id DESC`
	var out []Row
	err := r.db.SelectContext(ctx, &out, q)
	return out, err
}

func (r *repo) ListByUser(ctx context.Context, userID int64) ([]Row, error) {
	q := `SELECT` + rowColumns + rowJoins + `
	WHERE v.user_id = $1
	ORDER BY v.reserved_at DESC, v.id DESC`
	var out []Row
	err := r.db.SelectContext(ctx, &out, q, userID)
	return out, err
}
