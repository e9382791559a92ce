package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RouteOptions carries the middleware the versioned API mounts.
type RouteOptions struct {
	RequireJWT     func(http.Handler) http.Handler
	LoginRateLimit func(http.Handler) http.Handler
	Idempotency    func(http.Handler) http.Handler
}

func passthrough(next http.Handler) http.Handler { return next }

// Routes mounts the /v1 API on r.
func (h *Handlers) Routes(r chi.Router, opts RouteOptions) {
	if opts.RequireJWT == nil {
		opts.RequireJWT = passthrough
	}
	if opts.LoginRateLimit == nil {
		opts.LoginRateLimit = passthrough
	}
	if opts.Idempotency == nil {
		opts.Idempotency = passthrough
	}

	r.Route("/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", h.SignUp)
			r.With(opts.LoginRateLimit).Post("/login", h.Login)
			r.With(opts.RequireJWT).Get("/me", h.Me)
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(opts.RequireJWT)
			r.Post("/", h.CreateUser)
			r.Get("/", h.FindUser)
			r.Get("/me", h.GetMe)
			r.Patch("/me", h.UpdateMe)
		})

		r.Route("/visitors", func(r chi.Router) {
			r.Use(opts.RequireJWT)
			r.With(opts.Idempotency).Post("/", h.CheckIn)
			r.Get("/", h.ListVisitors)
			r.Put("/", h.CheckOutByBody)
			r.Get("/board", h.Board)
			r.Get("/analytics", h.Analytics)
			r.Get("/{id}", h.GetVisitor)
			r.Patch("/{id}/checkout", h.CheckOut)
		})
	})
}
