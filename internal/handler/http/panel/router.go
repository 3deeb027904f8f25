package panel_http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// NewRouter builds the panel HTTP API with its middleware stack.
func NewRouter(s PanelService, allowedOrigins []string, l *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	if len(allowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   allowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", AccountIDHeader},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	RegisterRoutes(r, s, l)
	return r
}

func RegisterRoutes(r chi.Router, s PanelService, l *zap.Logger) {
	logger := l.With(zap.String("component", "PanelHTTPHandler"))
	handler := NewPanelHandler(s, logger)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Panel service is healthy!"))
	})

	r.Post("/accounts", handler.RegisterHandler)

	r.Group(func(r chi.Router) {
		r.Use(RequireAccount(logger))

		r.Route("/account", func(r chi.Router) {
			r.Get("/", handler.GetAccountHandler)
			r.Patch("/", handler.PatchAccountHandler)
			r.Get("/settings", handler.GetSettingsHandler)
			r.Patch("/settings", handler.PatchSettingsHandler)
			r.Get("/balance", handler.GetBalancesHandler)
			r.Get("/overview", handler.GetOverviewHandler)
		})

		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", handler.ListTransactionsHandler)
			r.Get("/order/{orderID}", handler.GetTransactionByOrderHandler)
			r.Get("/{id}", handler.GetTransactionHandler)
		})
	})
}
