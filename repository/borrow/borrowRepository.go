package borrowrepo

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"librarian/model"
)

// Row is a borrow record joined with the display fields listings need.
type Row struct {
	model.BorrowRecord
	BookTitle  string `json:"book_title" db:"book_title"`
	BookAuthor string `json:"book_author" db:"book_author"`
	BookISBN   string `json:"book_isbn" db:"book_isbn"`
	Borrower   string `json:"borrower" db:"borrower"`
	Issuer     string `json:"issuer" db:"issuer"`
}

// Filter narrows ListAll; zero values mean "any".
type Filter struct {
	Status model.BorrowStatus
	UserID int64
}

type Repo interface {
	UserExists(ctx context.Context, userID int64) (bool, error)
	BookExists(ctx context.Context, bookID int64) (bool, error)

	HasActiveLoan(ctx context.Context, tx *sql.Tx, userID, bookID int64) (bool, error)
	TakeCopy(ctx context.Context, tx *sql.Tx, bookID int64) (bool, error)
	PutBackCopy(ctx context.Context, tx *sql.Tx, bookID int64) (bool, error)
	Insert(ctx context.Context, tx *sql.Tx, rec *model.BorrowRecord) error
	GetForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*model.BorrowRecord, error)
	MarkReturned(ctx context.Context, tx *sql.Tx, id int64, returnedAt time.Time, fine int64) error

	GetRow(ctx context.Context, id int64) (*Row, error)
	UpdateStatusFine(ctx context.Context, id int64, status model.BorrowStatus, fine int64) error

	ListByUser(ctx context.Context, userID int64) ([]Row, error)
	List(ctx context.Context, f Filter) ([]Row, error)
	ListOverdueCandidates(ctx context.Context, now time.Time) ([]Row, error)
	ListStatsCandidates(ctx context.Context, now time.Time) ([]model.BorrowRecord, error)

	CountByStatus(ctx context.Context, status model.BorrowStatus) (int64, error)
	CountEffectiveOverdue(ctx context.Context, now time.Time) (int64, error)
	SumFines(ctx context.Context) (int64, error)
}

type repo struct{ db *sqlx.DB }

func New(db *sqlx.DB) Repo { return &repo{db: db} }

const rowColumns = `
	r.id, r.user_id, r.book_id, r.borrowed_date, r.due_date, r.returned_date,
	r.status, r.fine, r.issued_by, r.notes, r.created_at,
	b.title  AS book_title,
	b.author AS book_author,
	b.isbn   AS book_isbn,
	u.first_name || ' ' || u.last_name AS borrower,
	s.first_name || ' ' || s.last_name AS issuer`

const rowJoins = `
	FROM borrow_records r
	JOIN books b ON b.id = r.book_id
	JOIN users u ON u.id = r.user_id
	JOIN users s ON s.id = r.issued_by`

func (r *repo) UserExists(ctx context.Context, userID int64) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`
	var ok bool
	err := r.db.GetContext(ctx, &ok, q, userID)
	return ok, err
}

func (r *repo) BookExists(ctx context.Context, bookID int64) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM books WHERE id = $1)`
	var ok bool
	err := r.db.GetContext(ctx, &ok, q, bookID)
	return ok, err
}

func (r *repo) HasActiveLoan(ctx context.Context, tx *sql.Tx, userID, bookID int64) (bool, error) {
	const q = `
		SELECT EXISTS (
			SELECT 1 FROM borrow_records
			WHERE user_id = $1 AND book_id = $2 AND status IN ('borrowed', 'overdue')
		)`
	var ok bool
	err := tx.QueryRowContext(ctx, q, userID, bookID).Scan(&ok)
	return ok, err
}

// TakeCopy is the only way a copy leaves the shelf: a guarded decrement,
// so concurrent issues of the last copy get exactly one winner.
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

func (r *repo) PutBackCopy(ctx context.Context, tx *sql.Tx, bookID int64) (bool, error) {
	const q = `
		UPDATE books
		SET copies_available = copies_available + 1
		WHERE id = $1`
	res, err := tx.ExecContext(ctx, q, bookID)
	if err != nil {
		return false, err
	}
	aff, _ := res.RowsAffected()
	return aff > 0, nil
}

func (r *repo) Insert(ctx context.Context, tx *sql.Tx, rec *model.BorrowRecord) error {
	const q = `
		INSERT INTO borrow_records (user_id, book_id, borrowed_date, due_date, status, fine, issued_by, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`
	return tx.QueryRowContext(ctx, q,
		rec.UserID, rec.BookID, rec.BorrowedDate, rec.DueDate,
		rec.Status, rec.Fine, rec.IssuedBy, rec.Notes,
	).Scan(&rec.ID, &rec.CreatedAt)
}

func (r *repo) GetForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*model.BorrowRecord, error) {
	const q = `
		SELECT id, user_id, book_id, borrowed_date, due_date, returned_date,
		       status, fine, issued_by, notes, created_at
		FROM borrow_records
		WHERE id = $1
		FOR UPDATE`
	rec := &model.BorrowRecord{}
	err := tx.QueryRowContext(ctx, q, id).Scan(
		&rec.ID, &rec.UserID, &rec.BookID, &rec.BorrowedDate, &rec.DueDate,
		&rec.ReturnedDate, &rec.Status, &rec.Fine, &rec.IssuedBy, &rec.Notes, &rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *repo) MarkReturned(ctx context.Context, tx *sql.Tx, id int64, returnedAt time.Time, fine int64) error {
	const q = `
		UPDATE borrow_records
		SET status = 'returned',
		    returned_date = $2,
		    fine = $3
		WHERE id = $1`
	_, err := tx.ExecContext(ctx, q, id, returnedAt, fine)
	return err
}

func (r *repo) GetRow(ctx context.Context, id int64) (*Row, error) {
	q := `SELECT` + rowColumns + rowJoins + ` WHERE r.id = $1`
	row := &Row{}
	if err := r.db.GetContext(ctx, row, q, id); err != nil {
		return nil, err
	}
	return row, nil
}

func (r *repo) UpdateStatusFine(ctx context.Context, id int64, status model.BorrowStatus, fine int64) error {
	const q = `
		UPDATE borrow_records
		SET status = $2,
		    fine = $3
		WHERE id = $1`
	_, err := r.db.ExecContext(ctx, q, id, status, fine)
	return err
}

func (r *repo) ListByUser(ctx context.Context, userID int64) ([]Row, error) {
	q := `SELECT` + rowColumns + rowJoins + `
	WHERE r.user_id = $1
	ORDER BY r.created_at DESC, r.id DESC`
	var out []Row
	err := r.db.SelectContext(ctx, &out, q, userID)
	return out, err
}

func (r *repo) List(ctx context.Context, f Filter) ([]Row, error) {
	q := `SELECT` + rowColumns + rowJoins + `
	WHERE ($1 = '' OR r.status = $1)
	AND ($2 = 0 OR r.user_id = $2)
	ORDER BY r.created_at DESC, r.id DESC`
	var out []Row
	err := r.db.SelectContext(ctx, &out, q, string(f.Status), f.UserID)
	return out, err
}

func (r *repo) ListOverdueCandidates(ctx context.Context, now time.Time) ([]Row, error) {
	q := `SELECT` + rowColumns + rowJoins + `
	WHERE r.status = 'overdue'
	OR (r.status = 'borrowed' AND r.due_date < $1)
	ORDER BY r.due_date ASC`
	var out []Row
	err := r.db.SelectContext(ctx, &out, q, now)
	return out, err
}

func (r *repo) ListStatsCandidates(ctx context.Context, now time.Time) ([]model.BorrowRecord, error) {
	const q = `
		SELECT id, user_id, book_id, borrowed_date, due_date, returned_date,
		       status, fine, issued_by, notes, created_at
		FROM borrow_records
		WHERE status IN ('overdue', 'returned')
		OR (status = 'borrowed' AND due_date < $1)`
	var out []model.BorrowRecord
	err := r.db.SelectContext(ctx, &out, q, now)
	return out, err
}

func (r *repo) CountByStatus(ctx context.Context, status model.BorrowStatus) (int64, error) {
	const q = `SELECT COUNT(*) FROM borrow_records WHERE status = $1`
	var n int64
	err := r.db.GetContext(ctx, &n, q, status)
	return n, err
}

func (r *repo) CountEffectiveOverdue(ctx context.Context, now time.Time) (int64, error) {
	const q = `
		SELECT COUNT(*)
		FROM borrow_records
		WHERE status = 'overdue'
		OR (status = 'borrowed' AND due_date < $1)`
	var n int64
	err := r.db.GetContext(ctx, &n, q, now)
	return n, err
}

func (r *repo) SumFines(ctx context.Context) (int64, error) {
	const q = `SELECT COALESCE(SUM(fine), 0) FROM borrow_records`
	var n int64
	err := r.db.GetContext(ctx, &n, q)
	return n, err
}
