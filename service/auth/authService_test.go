package authsvc

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"librarian/model"
	userrepo "librarian/repository/user"
	"librarian/util/hash"
)

type mockRepo struct {
	byEmailFn    func(ctx context.Context, email string) (*model.User, error)
	byIDFn       func(ctx context.Context, id int64) (*model.User, error)
	createFn     func(ctx context.Context, u *model.User) error
	updPassFn    func(ctx context.Context, id int64, passwordHash string) error
	updProfileFn func(ctx context.Context, id int64, firstName, lastName string) error
	listFn       func(ctx context.Context) ([]model.User, error)
}

var _ userrepo.Repo = (*mockRepo)(nil)

func (m *mockRepo) ByEmail(ctx context.Context, email string) (*model.User, error) {
	if m.byEmailFn == nil {
		return nil, nil
	}
	return m.byEmailFn(ctx, email)
}

func (m *mockRepo) ByID(ctx context.Context, id int64) (*model.User, error) {
	return m.byIDFn(ctx, id)
}

func (m *mockRepo) Create(ctx context.Context, u *model.User) error {
	if m.createFn == nil {
		return nil
	}
	return m.createFn(ctx, u)
}

func (m *mockRepo) UpdateProfile(ctx context.Context, id int64, firstName, lastName string) error {
	return m.updProfileFn(ctx, id, firstName, lastName)
}

func (m *mockRepo) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	return m.updPassFn(ctx, id, passwordHash)
}

func (m *mockRepo) List(ctx context.Context) ([]model.User, error) { return m.listFn(ctx) }

func mustHash(t *testing.T, plain string) string {
	t.Helper()
	h, err := hash.HashPassword(plain)
	require.NoError(t, err)
	return h
}

// --- tests ---

func TestSignup_Success(t *testing.T) {
	ctx := context.Background()
	m := &mockRepo{
		createFn: func(ctx context.Context, u *model.User) error {
			u.ID = 42
			return nil
		},
	}
	svc := New(m, "test-secret")

	u, tok, err := svc.Signup(ctx, model.SignupReq{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "USER@Example.COM",
		Username:  "ada",
		Password:  "supersecret",
	})
	require.NoError(t, err)
	require.NotNil(t, u)
	require.NotEmpty(t, tok)
	require.Equal(t, int64(42), u.ID)
	require.Equal(t, "user@example.com", u.Email)
	require.Equal(t, model.RoleUser, u.Role)
	require.NotEmpty(t, u.PasswordHash)
}

func TestSignup_StaffRole(t *testing.T) {
	m := &mockRepo{
		createFn: func(ctx context.Context, u *model.User) error { u.ID = 7; return nil },
	}
	svc := New(m, "test-secret")

	u, _, err := svc.Signup(context.Background(), model.SignupReq{
		FirstName: "S", LastName: "T", Email: "s@example.com", Username: "staffer",
		Password: "123456", Role: "staff",
	})
	require.NoError(t, err)
	require.Equal(t, model.RoleStaff, u.Role)
}

func TestSignup_BadInput(t *testing.T) {
	svc := New(&mockRepo{}, "test-secret")

	_, _, err := svc.Signup(context.Background(), model.SignupReq{
		Email: " ", Username: "u", Password: "123",
	})
	require.Error(t, err)
	require.Equal(t, ErrBadInput, Code(err))
}

func TestSignup_CreateError(t *testing.T) {
	m := &mockRepo{
		createFn: func(ctx context.Context, u *model.User) error { return errors.New("db down") },
	}
	svc := New(m, "test-secret")

	_, _, err := svc.Signup(context.Background(), model.SignupReq{
		FirstName: "A", LastName: "B", Email: "ok@example.com", Username: "ok", Password: "123456",
	})
	require.Error(t, err)
	require.Equal(t, ErrCode(""), Code(err))
}

func TestLogin_Success(t *testing.T) {
	pw := "supersecret"
	hashed := mustHash(t, pw)

	m := &mockRepo{
		byEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			return &model.User{
				ID:           7,
				Email:        "user@example.com",
				Username:     "ada",
				PasswordHash: hashed,
				Role:         model.RoleUser,
			}, nil
		},
	}
	svc := New(m, "test-secret")

	u, tok, err := svc.Login(context.Background(), model.LoginReq{
		Email:    "User@Example.com",
		Password: pw,
	})
	require.NoError(t, err)
	require.NotNil(t, u)
	require.NotEmpty(t, tok)
	require.Equal(t, int64(7), u.ID)
}

func TestLogin_UserNotFound(t *testing.T) {
	m := &mockRepo{
		byEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			return nil, errors.New("no rows")
		},
	}
	svc := New(m, "test-secret")

	_, _, err := svc.Login(context.Background(), model.LoginReq{
		Email:    "missing@example.com",
		Password: "whatever",
	})
	require.Error(t, err)
	require.Equal(t, ErrInvalidCreds, Code(err))
}

func TestLogin_WrongPassword(t *testing.T) {
	hashed := mustHash(t, "correct-password")

	m := &mockRepo{
		byEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			return &model.User{ID: 101, Email: email, PasswordHash: hashed, Role: model.RoleUser}, nil
		},
	}
	svc := New(m, "test-secret")

	_, _, err := svc.Login(context.Background(), model.LoginReq{
		Email:    "user@example.com",
		Password: "wrong-password",
	})
	require.Error(t, err)
	require.Equal(t, ErrInvalidCreds, Code(err))
}

func TestChangePassword(t *testing.T) {
	hashed := mustHash(t, "old-password")
	var stored string
	m := &mockRepo{
		byIDFn: func(ctx context.Context, id int64) (*model.User, error) {
			return &model.User{ID: id, PasswordHash: hashed}, nil
		},
		updPassFn: func(ctx context.Context, id int64, passwordHash string) error {
			stored = passwordHash
			return nil
		},
	}
	svc := New(m, "test-secret")

	err := svc.ChangePassword(context.Background(), 7, model.ChangePasswordReq{
		CurrentPassword: "wrong", NewPassword: "new-password",
	})
	require.Equal(t, ErrInvalidCreds, Code(err))

	err = svc.ChangePassword(context.Background(), 7, model.ChangePasswordReq{
		CurrentPassword: "old-password", NewPassword: "new-password",
	})
	require.NoError(t, err)
	require.True(t, hash.Check(stored, "new-password"))
}

func TestCodeExtractor(t *testing.T) {
	require.Equal(t, ErrEmailTaken, Code(wrap(ErrEmailTaken, "x")))
	require.Equal(t, ErrCode(""), Code(errors.New("plain")))
}
