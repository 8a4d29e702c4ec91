package authsvc

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"librarian/model"
	userrepo "librarian/repository/user"
	"librarian/util/hash"
	jwtutil "librarian/util/jwt"
)

type ErrCode string

const (
	ErrBadInput      ErrCode = "BAD_INPUT"
	ErrEmailTaken    ErrCode = "EMAIL_TAKEN"
	ErrUsernameTaken ErrCode = "USERNAME_TAKEN"
	ErrInvalidCreds  ErrCode = "INVALID_CREDENTIALS"
	ErrUserNotFound  ErrCode = "USER_NOT_FOUND"
)

type codedError struct {
	code ErrCode
	msg  string
}

func (e codedError) Error() string { return e.msg }
func (e codedError) Code() ErrCode { return e.code }

func wrap(c ErrCode, msg string) error { return codedError{code: c, msg: msg} }

// Code extracts error code
func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

type Service interface {
	Signup(ctx context.Context, req model.SignupReq) (*model.User, string, error)
	Login(ctx context.Context, req model.LoginReq) (*model.User, string, error)
	Profile(ctx context.Context, userID int64) (*model.User, error)
	UpdateProfile(ctx context.Context, userID int64, req model.UpdateProfileReq) (*model.User, error)
	ChangePassword(ctx context.Context, userID int64, req model.ChangePasswordReq) error
	ListUsers(ctx context.Context) ([]model.User, error)
}

type service struct {
	ur     userrepo.Repo
	secret string
}

func New(ur userrepo.Repo, secret string) Service { return &service{ur: ur, secret: secret} }

func (s *service) Signup(ctx context.Context, req model.SignupReq) (*model.User, string, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	username := strings.TrimSpace(req.Username)
	if email == "" || username == "" || len(req.Password) < 6 {
		return nil, "", wrap(ErrBadInput, "bad input")
	}

	role := model.Role(req.Role)
	if role == "" {
		role = model.RoleUser
	}

	hashed, err := hash.HashPassword(req.Password)
	if err != nil {
		return nil, "", err
	}

	u := &model.User{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        email,
		Username:     username,
		PasswordHash: hashed,
		Role:         role,
	}
	if err := s.ur.Create(ctx, u); err != nil {
		if derr := mapDuplicateErr(err); derr != nil {
			return nil, "", derr
		}
		return nil, "", err
	}

	token, err := jwtutil.Issue(s.secret, u.ID, string(u.Role), 24)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

func (s *service) Login(ctx context.Context, req model.LoginReq) (*model.User, string, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return nil, "", wrap(ErrBadInput, "bad input")
	}

	u, err := s.ur.ByEmail(ctx, email)
	if err != nil {
		return nil, "", wrap(ErrInvalidCreds, "invalid credentials")
	}
	if !hash.Check(u.PasswordHash, req.Password) {
		return nil, "", wrap(ErrInvalidCreds, "invalid credentials")
	}

	token, err := jwtutil.Issue(s.secret, u.ID, string(u.Role), 24)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

func (s *service) Profile(ctx context.Context, userID int64) (*model.User, error) {
	u, err := s.ur.ByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, wrap(ErrUserNotFound, "user not found")
		}
		return nil, err
	}
	return u, nil
}

func (s *service) UpdateProfile(ctx context.Context, userID int64, req model.UpdateProfileReq) (*model.User, error) {
	if err := s.ur.UpdateProfile(ctx, userID, strings.TrimSpace(req.FirstName), strings.TrimSpace(req.LastName)); err != nil {
		return nil, err
	}
	return s.Profile(ctx, userID)
}

func (s *service) ChangePassword(ctx context.Context, userID int64, req model.ChangePasswordReq) error {
	if len(req.NewPassword) < 6 {
		return wrap(ErrBadInput, "new password too short")
	}
	u, err := s.ur.ByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return wrap(ErrUserNotFound, "user not found")
		}
		return err
	}
	if !hash.Check(u.PasswordHash, req.CurrentPassword) {
		return wrap(ErrInvalidCreds, "current password is wrong")
	}
	hashed, err := hash.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	return s.ur.UpdatePassword(ctx, userID, hashed)
}

func (s *service) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.ur.List(ctx)
}

func mapDuplicateErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		cn := strings.ToLower(pgErr.ConstraintName)
		msg := strings.ToLower(pgErr.Message)

		if strings.Contains(cn, "users_email") || strings.Contains(msg, "email") {
			return wrap(ErrEmailTaken, "email already registered")
		}
		if strings.Contains(cn, "users_username") || strings.Contains(msg, "username") {
			return wrap(ErrUsernameTaken, "username already taken")
		}
		return wrap(ErrBadInput, "duplicate value")
	}
	return nil
}
