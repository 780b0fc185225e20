package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"presenced/internal/handler/name"
	"presenced/internal/handler/ws"
	middlewarePkg "presenced/internal/middleware"
	"presenced/internal/model/identity"
	"presenced/internal/service/presence"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(store identity.Store, coord *presence.Service, wsHandler *ws.Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	nameHandler := name.New(store, coord)

	r.Route("/api", func(api chi.Router) {
		nameHandler.RegisterRoutes(api)
	})

	wsHandler.RegisterRoutes(r)

	return r
}
