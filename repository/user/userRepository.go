package userrepo

import (
	"context"

	"github.com/jmoiron/sqlx"

	"librarian/model"
)

type Repo interface {
	Create(ctx context.Context, u *model.User) error
	ByEmail(ctx context.Context, email string) (*model.User, error)
	ByID(ctx context.Context, id int64) (*model.User, error)
	UpdateProfile(ctx context.Context, id int64, firstName, lastName string) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	List(ctx context.Context) ([]model.User, error)
}

type repo struct{ db *sqlx.DB }

func New(db *sqlx.DB) Repo { return &repo{db: db} }

func (r *repo) Create(ctx context.Context, u *model.User) error {
	const q = `
		INSERT INTO users (first_name, last_name, email, username, password_hash, role)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`
	return r.db.QueryRowContext(ctx, q,
		u.FirstName, u.LastName, u.Email, u.Username, u.PasswordHash, u.Role,
	).Scan(&u.ID, &u.CreatedAt)
}

func (r *repo) ByEmail(ctx context.Context, email string) (*model.User, error) {
	const q = `
		SELECT id, first_name, last_name, email, username, password_hash, role, created_at
		FROM users
		WHERE lower(email) = lower($1)`
	u := &model.User{}
	if err := r.db.GetContext(ctx, u, q, email); err != nil {
		return nil, err
	}
	return u, nil
}

func (r *repo) ByID(ctx context.Context, id int64) (*model.User, error) {
	const q = `
		SELECT id, first_name, last_name, email, username, password_hash, role, created_at
		FROM users
		WHERE id = $1`
	u := &model.User{}
	if err := r.db.GetContext(ctx, u, q, id); err != nil {
		return nil, err
	}
	return u, nil
}

func (r *repo) UpdateProfile(ctx context.Context, id int64, firstName, lastName string) error {
	const q = `
		UPDATE users
		SET first_name = COALESCE(NULLIF($2, ''), first_name),
		    last_name  = COALESCE(NULLIF($3, ''), last_name)
		WHERE id = $1`
	_, err := r.db.ExecContext(ctx, q, id, firstName, lastName)
	return err
}

func (r *repo) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	const q = `UPDATE users SET password_hash = $2 WHERE id = $1`
	_, err := r.db.ExecContext(ctx, q, id, passwordHash)
	return err
}

func (r *repo) List(ctx context.Context) ([]model.User, error) {
	const q = `
		SELECT id, first_name, last_name, email, username, password_hash, role, created_at
		FROM users
		ORDER BY id DESC`
	var out []model.User
	err := r.db.SelectContext(ctx, &out, q)
	return out, err
}
