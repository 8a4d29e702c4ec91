package request

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	rs "librarian/service/request"
)

type Controller struct {
	Svc rs.Service
	V   *validator.Validate
	Log *slog.Logger
}

// POST /borrow-requests
func (h *Controller) Create(c echo.Context) error {
	var req CreateRequestReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  err.Error(),
		})
	}
	uid, _ := c.Get("user_id").(int64)

	row, err := h.Svc.Create(c.Request().Context(), uid, req.BookID, req.Notes)
	if err != nil {
		switch rs.Code(err) {
		case rs.ErrUnavailable:
			return c.JSON(http.StatusConflict, echo.Map{"message": "book not available"})
		case rs.ErrDuplicatePending:
			return c.JSON(http.StatusConflict, echo.Map{"message": "you already have a pending request for this book"})
		default:
			h.Log.Error("request create", "err", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "request submitted", "request": row})
}

// PUT /borrow-requests/:id/approve
func (h *Controller) Approve(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	admin, _ := c.Get("user_id").(int64)

	row, err := h.Svc.Approve(c.Request().Context(), id, admin)
	if err != nil {
		switch rs.Code(err) {
		case rs.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "request not found or already processed"})
		case rs.ErrUnavailable:
			return c.JSON(http.StatusConflict, echo.Map{"message": "book not available"})
		default:
			h.Log.Error("request approve", "err", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "request approved", "request": row})
}

// PUT /borrow-requests/:id/reject
func (h *Controller) Reject(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	admin, _ := c.Get("user_id").(int64)

	row, err := h.Svc.Reject(c.Request().Context(), id, admin)
	if err != nil {
		switch rs.Code(err) {
		case rs.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "request not found or already processed"})
		default:
			h.Log.Error("request reject", "err", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "request rejected", "request": row})
}

// GET /borrow-requests
func (h *Controller) ListAll(c echo.Context) error {
	rows, err := h.Svc.ListAll(c.Request().Context())
	if err != nil {
		h.Log.Error("request list", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"requests": rows})
}

// GET /borrow-requests/my
func (h *Controller) ListMine(c echo.Context) error {
	uid, _ := c.Get("user_id").(int64)
	rows, err := h.Svc.ListMine(c.Request().Context(), uid)
	if err != nil {
		h.Log.Error("request list mine", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"requests": rows})
}
