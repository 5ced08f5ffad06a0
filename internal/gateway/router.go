package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/yourorg/testnet-trader/internal/auth"
)

// NewRouter wires the REST API, the live log socket and the metrics
// endpoint. A nil jwtSvc leaves /api open.
func NewRouter(h *Handlers, hub *Hub, jwtSvc *auth.JWTService, origins []string, metrics http.Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", Healthz)
	if metrics != nil {
		r.Method(http.MethodGet, "/metrics", metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(auth.Middleware(jwtSvc))
		r.Post("/orders", h.CreateOrder)
		r.Get("/logs", h.GetLogs)
		r.Get("/logs/archive", h.GetLogArchive)
		r.Get("/quotes/{symbol}", h.GetQuote)
		r.Put("/quotes/{symbol}", h.SetQuote)
	})

	r.Get("/ws", ServeWS(hub, h.logger))

	return r
}
