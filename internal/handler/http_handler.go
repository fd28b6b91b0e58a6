package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"go.uber.org/zap"

	apierr "eth_backoff_api/internal/errors"
	"eth_backoff_api/internal/usecase"
)

type Handler struct {
	brUseCase *usecase.BlockRewardUseCase
	sdUseCase *usecase.SyncDutiesUseCase
}

func NewHandler(br *usecase.BlockRewardUseCase, sd *usecase.SyncDutiesUseCase) *Handler {
	return &Handler{brUseCase: br, sdUseCase: sd}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/blockreward/{slot}", slotHandler("block reward", h.brUseCase.Execute))
	r.Get("/syncduties/{slot}", slotHandler("sync duties", h.sdUseCase.Execute))
}

func slotHandler[T any](name string, execute func(context.Context, uint64) (T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slot, err := strconv.ParseUint(chi.URLParam(r, "slot"), 10, 64)
		if err != nil {
			zap.L().Error("invalid slot param", zap.Error(err))
			writeErrorJSON(w, http.StatusBadRequest, "invalid slot")
			return
		}

		result, err := execute(r.Context(), slot)
		if err != nil {
			if he, ok := apierr.AsHTTP(err); ok {
				writeErrorJSON(w, he.StatusCode(), he.Error())
				return
			}
			zap.L().Error("unexpected "+name+" error", zap.Uint64("slot", slot), zap.Error(err))
			writeErrorJSON(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("failed to write JSON response", zap.Error(err))
	}
}

func writeErrorJSON(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, struct {
		Error string `json:"error"`
	}{Error: msg})
}
