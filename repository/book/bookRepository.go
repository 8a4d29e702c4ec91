package bookrepo

import (
	"context"

	"github.com/jmoiron/sqlx"

	"librarian/model"
)

type Repo interface {
	Create(ctx context.Context, b *model.Book) error
	Update(ctx context.Context, b *model.Book) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
	ByID(ctx context.Context, id int64) (*model.Book, error)
	List(ctx context.Context) ([]model.Book, error)
	Search(ctx context.Context, query, category string) ([]model.Book, error)
}

type repo struct{ db *sqlx.DB }

func New(db *sqlx.DB) Repo { return &repo{db: db} }

func (r *repo) Create(ctx context.Context, b *model.Book) error {
	const q = `
		INSERT INTO books (title, author, isbn, category, copies_available)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`
	return r.db.QueryRowContext(ctx, q,
		b.Title, b.Author, b.ISBN, b.Category, b.CopiesAvailable,
	).Scan(&b.ID, &b.CreatedAt)
}

func (r *repo) Update(ctx context.Context, b *model.Book) (bool, error) {
	const q = `
		UPDATE books
		SET title = $2,
		    author = $3,
		    isbn = $4,
		    category = $5,
		    copies_available = $6
		WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q,
		b.ID, b.Title, b.Author, b.ISBN, b.Category, b.CopiesAvailable)
	if err != nil {
		return false, err
	}
	aff, _ := res.RowsAffected()
	return aff > 0, nil
}

func (r *repo) Delete(ctx context.Context, id int64) (bool, error) {
	const q = `DELETE FROM books WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return false, err
	}
	aff, _ := res.RowsAffected()
	return aff > 0, nil
}

func (r *repo) ByID(ctx context.Context, id int64) (*model.Book, error) {
	const q = `
		SELECT id, title, author, isbn, category, copies_available, created_at
		FROM books
		WHERE id = $1`
	b := &model.Book{}
	if err := r.db.GetContext(ctx, b, q, id); err != nil {
		return nil, err
	}
	return b, nil
}

func (r *repo) List(ctx context.Context) ([]model.Book, error) {
	const q = `
		SELECT id, title, author, isbn, category, copies_available, created_at
		FROM books
		ORDER BY id DESC`
	var out []model.Book
	err := r.db.SelectContext(ctx, &out, q)
	return out, err
}

func (r *repo) Search(ctx context.Context, query, category string) ([]model.Book, error) {
	const q = `
		SELECT id, title, author, isbn, category, copies_available, created_at
		FROM books
		WHERE ($1 = '' OR title ILIKE '%' || $1 || '%' OR author ILIKE '%' || $1 || '%' OR isbn = $1)
		AND ($2 = '' OR category = $2)
		ORDER BY title ASC`
	var out []model.Book
	err := r.db.SelectContext(ctx, &out, q, query, category)
	return out, err
}
