package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	chathandler "github.com/finpilot/loanflow/backend/internal/handler/chat"
	documenthandler "github.com/finpilot/loanflow/backend/internal/handler/document"
	producthandler "github.com/finpilot/loanflow/backend/internal/handler/product"
	wshandler "github.com/finpilot/loanflow/backend/internal/handler/ws"
	middlewarePkg "github.com/finpilot/loanflow/backend/internal/middleware"
	"github.com/finpilot/loanflow/backend/internal/model/loan"
	"github.com/finpilot/loanflow/backend/internal/orchestrator"
	documentservice "github.com/finpilot/loanflow/backend/internal/service/document"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(orch *orchestrator.Orchestrator, catalog loan.Catalog, docs *documentservice.Service, registry *prometheus.Registry, log *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	chatHandler := chathandler.New(orch)
	productHandler := producthandler.New(catalog)
	documentHandler := documenthandler.New(orch, docs)
	wsHandler := wshandler.New(orch, log)

	r.Route("/api", func(api chi.Router) {
		chatHandler.RegisterRoutes(api)
		productHandler.RegisterRoutes(api)
		documentHandler.RegisterRoutes(api)
		wsHandler.RegisterRoutes(api)
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	return r
}
