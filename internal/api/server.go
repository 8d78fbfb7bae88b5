package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type pricesResponse struct {
	Prices     []PriceView `json:"prices"`
	Timestamp  time.Time   `json:"timestamp"`
	TotalCoins int         `json:"total_coins"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewHandler wires the read-only HTTP routes.
func NewHandler(svc *Service, log *zap.Logger) http.Handler {
	h := &handler{svc: svc, log: log}

	api := http.NewServeMux()
	api.HandleFunc("GET /api/prices", h.listPrices)
	api.HandleFunc("GET /api/history/{symbol}", h.getHistory)
	api.HandleFunc("GET /health", h.health)

	root := http.NewServeMux()
	root.Handle("GET /metrics", promhttp.Handler())
	root.Handle("/", withJSONHeaders(api))

	return recoverPanic(log, instrument(log, root))
}

type handler struct {
	svc *Service
	log *zap.Logger
}

func (h *handler) listPrices(w http.ResponseWriter, r *http.Request) {
	prices, err := h.svc.ListCurrentPrices(r.Context())
	if err != nil {
		h.log.Error("list prices", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to read prices"})
		return
	}
	writeJSON(w, http.StatusOK, pricesResponse{
		Prices:     prices,
		Timestamp:  time.Now().UTC(),
		TotalCoins: len(prices),
	})
}

func (h *handler) getHistory(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.GetHistory(r.Context(), r.PathValue("symbol"))
	if err != nil {
		h.log.Error("get history", zap.String("symbol", r.PathValue("symbol")), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to read history"})
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	status := h.svc.HealthStatus(r.Context())
	code := http.StatusOK
	if status.Status != StatusHealthy {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, status)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}
