package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"eth_backoff_api/internal/handler"
	"eth_backoff_api/internal/usecase"
)

func NewRouter(brUC *usecase.BlockRewardUseCase, sdUC *usecase.SyncDutiesUseCase) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(map[string]string{"status": "ok"}); err != nil {
			zap.L().Error("failed to encode health check response", zap.Error(err))
		}
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	handler.NewHandler(brUC, sdUC).Register(r)

	return r
}
