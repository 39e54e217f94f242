package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(a.LoggingMiddleware)
	r.Use(a.TimeoutMiddleware(30 * time.Second))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/users", a.CreateUserHandler)
		r.Post("/login", a.LoginHandler)

		r.Group(func(r chi.Router) {
			r.Use(a.AuthMiddleware)

			r.Post("/accounts", a.CreateAccountHandler)
			r.Get("/accounts", a.GetAccountsHandler)
			r.Get("/accounts/{id}", a.GetAccountHandler)
			r.Delete("/accounts/{id}", a.DeactivateAccountHandler)
			r.Get("/accounts/{id}/statement", a.GetStatementHandler)

			r.Post("/transfers", a.CreateTransferHandler)
			r.Get("/transfers/{id}", a.GetTransferHandler)
		})
	})

	return r
}
