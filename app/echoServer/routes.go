package echoServer

import (
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	authctrl "librarian/app/echoServer/controller/auth"
	bookctrl "librarian/app/echoServer/controller/book"
	borrowctrl "librarian/app/echoServer/controller/borrow"
	requestctrl "librarian/app/echoServer/controller/request"
	resctrl "librarian/app/echoServer/controller/reservation"
	"librarian/app/echoServer/jwtx"
	"librarian/model"
)

type C struct {
	Auth        *authctrl.Controller
	Book        *bookctrl.Controller
	Borrow      *borrowctrl.Controller
	Request     *requestctrl.Controller
	Reservation *resctrl.Controller
	JWTSecret   string
}

func Register(e *echo.Echo, c C) {
	// Public
	e.POST("/auth/signup", c.Auth.Signup)
	e.POST("/auth/login", c.Auth.Login)
	e.GET("/books/search", c.Book.Search)

	authed := e.Group("")
	authed.Use(echojwt.WithConfig(echojwt.Config{
		SigningKey:    []byte(c.JWTSecret),
		TokenLookup:   "header:Authorization:Bearer ",
		NewClaimsFunc: func(c echo.Context) jwt.Claims { return jwt.MapClaims{} },
	}))
	authed.Use(identify)

	// Account
	authed.GET("/auth/profile", c.Auth.Profile)
	authed.PUT("/auth/profile", c.Auth.UpdateProfile)
	authed.POST("/auth/change-password", c.Auth.ChangePassword)
	authed.GET("/auth/users", c.Auth.ListUsers, requireRole(model.RoleStaff, model.RoleAdmin))

	// Catalog
	authed.GET("/books", c.Book.List, requireRole(model.RoleAdmin))
	authed.GET("/books/:id", c.Book.Detail)
	authed.POST("/books", c.Book.Create, requireRole(model.RoleAdmin))
	authed.PUT("/books/:id", c.Book.Update, requireRole(model.RoleAdmin))
	authed.DELETE("/books/:id", c.Book.Delete, requireRole(model.RoleAdmin))

	// Borrow ledger
	staff := requireRole(model.RoleStaff, model.RoleAdmin)
	authed.POST("/borrow/issue", c.Borrow.Issue, staff)
	authed.PUT("/borrow/return/:recordId", c.Borrow.Return, staff)
	authed.GET("/borrow/my-history", c.Borrow.MyHistory)
	authed.GET("/borrow/all", c.Borrow.ListAll, staff)
	authed.GET("/borrow/overdue", c.Borrow.ListOverdue, staff)
	authed.GET("/borrow/stats", c.Borrow.Stats, staff)

	// Borrow requests
	authed.POST("/borrow-requests", c.Request.Create)
	authed.GET("/borrow-requests/my", c.Request.ListMine)
	authed.GET("/borrow-requests", c.Request.ListAll, requireRole(model.RoleAdmin))
	authed.PUT("/borrow-requests/:id/approve", c.Request.Approve, requireRole(model.RoleAdmin))
	authed.PUT("/borrow-requests/:id/reject", c.Request.Reject, requireRole(model.RoleAdmin))

	// Reservations
	authed.POST("/reservations", c.Reservation.Create)
	authed.GET("/reservations/my", c.Reservation.ListMine)
	authed.GET("/reservations", c.Reservation.ListAll, requireRole(model.RoleAdmin))
	authed.PUT("/reservations/:id/fulfill", c.Reservation.Fulfill, requireRole(model.RoleAdmin))
	authed.PUT("/reservations/:id/cancel", c.Reservation.Cancel)
}

// identify copies the verified JWT identity into plain context keys so
// handlers never touch the token themselves.
func identify(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		uid, err := jwtx.UserIDFromContext(c)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
		}
		role, err := jwtx.RoleFromContext(c)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
		}
		c.Set("user_id", uid)
		c.Set("role", role)
		return next(c)
	}
}

func requireRole(roles ...model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get("role").(model.Role)
			for _, r := range roles {
				if role == r {
					return next(c)
				}
			}
			return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
		}
	}
}
