package booksvc

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"librarian/model"
	repo "librarian/repository/book"
)

var (
	ErrNotFound  = errors.New("book not found")
	ErrISBNTaken = errors.New("ISBN already registered")
	ErrBadInput  = errors.New("invalid payload")
)

type Repo interface {
	Create(ctx context.Context, b *model.Book) error
	Update(ctx context.Context, b *model.Book) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
	ByID(ctx context.Context, id int64) (*model.Book, error)
	List(ctx context.Context) ([]model.Book, error)
	Search(ctx context.Context, query, category string) ([]model.Book, error)
}

var _ Repo = (repo.Repo)(nil)

type Service interface {
	Create(ctx context.Context, b *model.Book) error
	Update(ctx context.Context, b *model.Book) error
	Delete(ctx context.Context, id int64) error
	Detail(ctx context.Context, id int64) (*model.Book, error)
	List(ctx context.Context) ([]model.Book, error)
	Search(ctx context.Context, query, category string) ([]model.Book, error)
}

type service struct{ r Repo }

func New(r Repo) Service { return &service{r} }

func (s *service) Create(ctx context.Context, b *model.Book) error {
	if b.Title == "" || b.Author == "" || b.ISBN == "" || b.Category == "" || b.CopiesAvailable < 0 {
		return ErrBadInput
	}
	if err := s.r.Create(ctx, b); err != nil {
		return mapDuplicateISBN(err)
	}
	return nil
}

func (s *service) Update(ctx context.Context, b *model.Book) error {
	if b.Title == "" || b.Author == "" || b.ISBN == "" || b.Category == "" || b.CopiesAvailable < 0 {
		return ErrBadInput
	}
	ok, err := s.r.Update(ctx, b)
	if err != nil {
		return mapDuplicateISBN(err)
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (s *service) Delete(ctx context.Context, id int64) error {
	ok, err := s.r.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (s *service) Detail(ctx context.Context, id int64) (*model.Book, error) {
	b, err := s.r.ByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return b, nil
}

func (s *service) List(ctx context.Context) ([]model.Book, error) { return s.r.List(ctx) }

func (s *service) Search(ctx context.Context, query, category string) ([]model.Book, error) {
	return s.r.Search(ctx, query, category)
}

func mapDuplicateISBN(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return ErrISBNTaken
	}
	return err
}
