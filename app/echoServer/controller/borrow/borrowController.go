package borrow

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"librarian/model"
	bs "librarian/service/borrow"
)

type Controller struct {
	Svc bs.Service
	V   *validator.Validate
	Log *slog.Logger
}

// POST /borrow/issue
func (h *Controller) Issue(c echo.Context) error {
	var req IssueReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  err.Error(),
		})
	}
	due, err := time.Parse(time.RFC3339, req.DueDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "due_date must be RFC 3339"})
	}
	issuer, _ := c.Get("user_id").(int64)

	rec, err := h.Svc.Issue(c.Request().Context(), bs.IssueInput{
		UserID:   req.UserID,
		BookID:   req.BookID,
		DueDate:  due,
		IssuedBy: issuer,
		Notes:    req.Notes,
	})
	if err != nil {
		switch bs.Code(err) {
		case bs.ErrUserNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "user not found"})
		case bs.ErrBookNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "book not found"})
		case bs.ErrNoCopies:
			return c.JSON(http.StatusConflict, echo.Map{"message": "no copies available for this book"})
		case bs.ErrAlreadyBorrowed:
			return c.JSON(http.StatusConflict, echo.Map{"message": "user already has this book borrowed"})
		default:
			h.Log.Error("borrow issue", "err", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "book issued", "record": rec})
}

// PUT /borrow/return/:recordId
func (h *Controller) Return(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("recordId"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}

	rec, err := h.Svc.Return(c.Request().Context(), id)
	if err != nil {
		switch bs.Code(err) {
		case bs.ErrRecordNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "borrow record not found"})
		case bs.ErrAlreadyReturned:
			return c.JSON(http.StatusConflict, echo.Map{"message": "book is already returned"})
		default:
			h.Log.Error("borrow return", "err", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "book returned", "record": rec})
}

// GET /borrow/my-history
func (h *Controller) MyHistory(c echo.Context) error {
	uid, _ := c.Get("user_id").(int64)
	rows, err := h.Svc.MyHistory(c.Request().Context(), uid)
	if err != nil {
		h.Log.Error("borrow history", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"records": rows})
}

// GET /borrow/all?status=&userId=
func (h *Controller) ListAll(c echo.Context) error {
	var f bs.Filter
	f.Status = model.BorrowStatus(c.QueryParam("status"))
	if v := c.QueryParam("userId"); v != "" {
		uid, err := strconv.ParseInt(v, 10, 64)
		if err != nil || uid <= 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid userId"})
		}
		f.UserID = uid
	}

	rows, err := h.Svc.ListAll(c.Request().Context(), f)
	if err != nil {
		h.Log.Error("borrow list", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"records": rows})
}

// GET /borrow/overdue
func (h *Controller) ListOverdue(c echo.Context) error {
	rows, err := h.Svc.ListOverdue(c.Request().Context())
	if err != nil {
		h.Log.Error("borrow overdue", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"records": rows})
}

// GET /borrow/stats
func (h *Controller) Stats(c echo.Context) error {
	st, err := h.Svc.Stats(c.Request().Context())
	if err != nil {
		h.Log.Error("borrow stats", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"stats": st})
}
