package reservation

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"librarian/model"
	rs "librarian/service/reservation"
)

type Controller struct {
	Svc rs.Service
	V   *validator.Validate
	Log *slog.Logger
}

// POST /reservations
func (h *Controller) Create(c echo.Context) error {
	var req CreateReservationReq
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

	row, err := h.Svc.Create(c.Request().Context(), uid, req.BookID)
	if err != nil {
		switch rs.Code(err) {
		case rs.ErrBookNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "book not found"})
		case rs.ErrNotNeeded:
			return c.JSON(http.StatusConflict, echo.Map{"message": "book is available, no need to reserve"})
		case rs.ErrDuplicateActive:
			return c.JSON(http.StatusConflict, echo.Map{"message": "you already have an active reservation for this book"})
		default:
			h.Log.Error("reservation create", "err", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "reservation created", "reservation": row})
}

// PUT /reservations/:id/fulfill
func (h *Controller) Fulfill(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}

	row, err := h.Svc.Fulfill(c.Request().Context(), id)
	if err != nil {
		switch rs.Code(err) {
		case rs.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "reservation not found or already processed"})
		default:
			h.Log.Error("reservation fulfill", "err", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "reservation fulfilled", "reservation": row})
}

// PUT /reservations/:id/cancel
func (h *Controller) Cancel(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	uid, _ := c.Get("user_id").(int64)
	role, _ := c.Get("role").(model.Role)

	row, err := h.Svc.Cancel(c.Request().Context(), id, uid, role)
	if err != nil {
		switch rs.Code(err) {
		case rs.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "reservation not found or already processed"})
		case rs.ErrNotOwner:
			return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
		default:
			h.Log.Error("reservation cancel", "err", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "reservation cancelled", "reservation": row})
}

// GET /reservations
func (h *Controller) ListAll(c echo.Context) error {
	rows, err := h.Svc.ListAll(c.Request().Context())
	if err != nil {
		h.Log.Error("reservation list", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"reservations": rows})
}

// GET /reservations/my
func (h *Controller) ListMine(c echo.Context) error {
	uid, _ := c.Get("user_id").(int64)
	rows, err := h.Svc.ListMine(c.Request().Context(), uid)
	if err != nil {
		h.Log.Error("reservation list mine", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"reservations": rows})
}
