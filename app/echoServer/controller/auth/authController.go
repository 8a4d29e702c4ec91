package auth

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"librarian/model"
	authsvc "librarian/service/auth"
)

type Controller struct {
	Svc authsvc.Service
	V   *validator.Validate
	Log *slog.Logger
}

// Signup registers a new account
// @Summary      Sign up
// @Description  Register a new user; role defaults to "user"
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body  model.SignupReq  true  "Signup payload"
// @Success      201  {object}  map[string]any
// @Failure      400  {object}  map[string]any
// @Failure      409  {object}  map[string]any "email/username already taken"
// @Router       /auth/signup [post]
func (ct *Controller) Signup(c echo.Context) error {
	var req model.SignupReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := ct.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation failed",
			"errors":  err.Error(),
		})
	}

	u, token, err := ct.Svc.Signup(c.Request().Context(), req)
	if err != nil {
		switch authsvc.Code(err) {
		case authsvc.ErrEmailTaken:
			return c.JSON(http.StatusConflict, echo.Map{"message": "email already registered"})
		case authsvc.ErrUsernameTaken:
			return c.JSON(http.StatusConflict, echo.Map{"message": "username already taken"})
		case authsvc.ErrBadInput:
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "bad input"})
		default:
			ct.Log.Error("signup", "err", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "server error during registration"})
		}
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "user registered successfully",
		"token":   token,
		"user":    u,
	})
}

// Login
// @Summary      Log in
// @Description  Login with email + password, returns JWT with role claim
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body  model.LoginReq  true  "Login payload"
// @Success      200  {object}  map[string]any
// @Failure      401  {object}  map[string]any
// @Router       /auth/login [post]
func (ct *Controller) Login(c echo.Context) error {
	var req model.LoginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := ct.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation failed",
			"errors":  err.Error(),
		})
	}

	u, token, err := ct.Svc.Login(c.Request().Context(), req)
	if err != nil {
		switch authsvc.Code(err) {
		case authsvc.ErrInvalidCreds:
			return c.JSON(http.StatusUnauthorized, echo.Map{"message": "invalid credentials"})
		case authsvc.ErrBadInput:
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "bad input"})
		default:
			ct.Log.Error("login", "err", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "server error during login"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "login successful",
		"token":   token,
		"user":    u,
	})
}

// GET /auth/profile
func (ct *Controller) Profile(c echo.Context) error {
	uid, _ := c.Get("user_id").(int64)
	u, err := ct.Svc.Profile(c.Request().Context(), uid)
	if err != nil {
		if authsvc.Code(err) == authsvc.ErrUserNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "user not found"})
		}
		ct.Log.Error("profile", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"user": u})
}

// PUT /auth/profile
func (ct *Controller) UpdateProfile(c echo.Context) error {
	var req model.UpdateProfileReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := ct.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation failed",
			"errors":  err.Error(),
		})
	}
	uid, _ := c.Get("user_id").(int64)

	u, err := ct.Svc.UpdateProfile(c.Request().Context(), uid, req)
	if err != nil {
		ct.Log.Error("update profile", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "profile updated", "user": u})
}

// POST /auth/change-password
func (ct *Controller) ChangePassword(c echo.Context) error {
	var req model.ChangePasswordReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := ct.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation failed",
			"errors":  err.Error(),
		})
	}
	uid, _ := c.Get("user_id").(int64)

	if err := ct.Svc.ChangePassword(c.Request().Context(), uid, req); err != nil {
		switch authsvc.Code(err) {
		case authsvc.ErrInvalidCreds:
			return c.JSON(http.StatusUnauthorized, echo.Map{"message": "current password is wrong"})
		case authsvc.ErrBadInput:
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "bad input"})
		case authsvc.ErrUserNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "user not found"})
		default:
			ct.Log.Error("change password", "err", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "password changed"})
}

// GET /auth/users  (admin/staff)
func (ct *Controller) ListUsers(c echo.Context) error {
	users, err := ct.Svc.ListUsers(c.Request().Context())
	if err != nil {
		ct.Log.Error("list users", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"users": users})
}
