// Package main library circulation API.
//
// @title           Library Circulation API
// @version         1.0
// @description     Book catalog, borrow ledger, borrow requests and reservations.
// @BasePath        /
// @schemes         http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description  Use:  Bearer <JWT>
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"

	"librarian/app/echoServer"
	authctrl "librarian/app/echoServer/controller/auth"
	bookctrl "librarian/app/echoServer/controller/book"
	borrowctrl "librarian/app/echoServer/controller/borrow"
	requestctrl "librarian/app/echoServer/controller/request"
	resctrl "librarian/app/echoServer/controller/reservation"
	"librarian/app/echoServer/validation"
	"librarian/config"
	bookrepo "librarian/repository/book"
	borrowrepo "librarian/repository/borrow"
	requestrepo "librarian/repository/request"
	resrepo "librarian/repository/reservation"
	userrepo "librarian/repository/user"
	authsvc "librarian/service/auth"
	booksvc "librarian/service/book"
	borrowsvc "librarian/service/borrow"
	"librarian/service/fine"
	requestsvc "librarian/service/request"
	ressvc "librarian/service/reservation"
	"librarian/util/database"
)

func main() {

	cfg := config.Load()
	ctx := context.Background()

	// logger
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	// repos
	ur := userrepo.New(db)
	br := bookrepo.New(db)
	lr := borrowrepo.New(db)
	qr := requestrepo.New(db)
	vr := resrepo.New(db)

	// services
	fines := fine.New(cfg.FineRatePerDay)
	as := authsvc.New(ur, cfg.JWTSecret)
	bs := booksvc.New(br)
	ls := borrowsvc.New(db.DB, lr, fines, nil)
	qs := requestsvc.New(db.DB, qr, nil)
	vs := ressvc.New(vr, nil)

	// controllers
	v := validator.New()
	authC := &authctrl.Controller{Svc: as, V: v, Log: log}
	bookC := &bookctrl.Controller{Svc: bs, V: v, Log: log}
	borrowC := &borrowctrl.Controller{Svc: ls, V: v, Log: log}
	requestC := &requestctrl.Controller{Svc: qs, V: v, Log: log}
	resC := &resctrl.Controller{Svc: vs, V: v, Log: log}

	// echo
	e := echo.New()
	echoServer.RegisterMiddlewares(e)
	e.Validator = validation.New()

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]any{
			"status":  "ok",
			"message": "Service is healthy and connected",
		})
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	echoServer.Register(e, echoServer.C{
		Auth:        authC,
		Book:        bookC,
		Borrow:      borrowC,
		Request:     requestC,
		Reservation: resC,

		JWTSecret: cfg.JWTSecret,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Port
	}

	log.Info("starting server", "port", port, "env", cfg.Env)

	e.Logger.Fatal(e.Start(":" + port))
}
