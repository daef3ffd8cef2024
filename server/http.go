package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/mux"
	"github.com/himakhaitan/redislens/gateway"
	"github.com/himakhaitan/redislens/monitor"
	"github.com/himakhaitan/redislens/pkg/config"
	"github.com/himakhaitan/redislens/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Handlers serves the JSON API over a Gateway. Every request carries its
// own connection parameters.
type Handlers struct {
	gw     gateway.Gateway
	logger *zap.Logger
}

func NewHandlers(gw gateway.Gateway, logger *zap.Logger) *Handlers {
	return &Handlers{gw: gw, logger: logger}
}

func (h *Handlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/health", h.handleHealth).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/ping", h.handlePing).Methods(http.MethodPost)
	api.HandleFunc("/info", h.handleInfo).Methods(http.MethodPost)
	api.HandleFunc("/stats", h.handleStats).Methods(http.MethodPost)
	api.HandleFunc("/keys", h.handleListKeys).Methods(http.MethodPost)
	api.HandleFunc("/keys/delete", h.handleDeleteKeys).Methods(http.MethodPost)
	api.HandleFunc("/key/{key}", h.handleGetKey).Methods(http.MethodPost)
	api.HandleFunc("/key/{key}", h.handleDeleteKey).Methods(http.MethodDelete)
	api.HandleFunc("/execute", h.handleExecute).Methods(http.MethodPost)
}

// NewRouter builds the router. Paths are matched in their encoded form so a
// key may contain '/'.
func NewRouter(h *Handlers, reg *prometheus.Registry, logger *zap.Logger) *mux.Router {
	router := mux.NewRouter().UseEncodedPath().SkipClean(true)
	router.Use(accessLog(logger))
	h.RegisterRoutes(router)
	router.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "API endpoint not found")
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	return router
}

// GET /health
func (h *Handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// POST /api/ping
func (h *Handlers) handlePing(w http.ResponseWriter, r *http.Request) {
	var req types.ConnRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.gw.Ping(r.Context(), req.ConnParams); err != nil {
		writeError(w, http.StatusInternalServerError, "Could not connect to Redis server")
		return
	}
	writeJSON(w, http.StatusOK, types.StatusResponse{
		Status:    "ok",
		Message:   "Connected to Redis server",
		Timestamp: time.Now().Unix(),
	})
}

// POST /api/info
func (h *Handlers) handleInfo(w http.ResponseWriter, r *http.Request) {
	var req types.ConnRequest
	if !h.decode(w, r, &req) {
		return
	}
	info, err := h.gw.ServerInfo(r.Context(), req.ConnParams)
	if err != nil {
		h.fail(w, "Error fetching Redis info", err)
		return
	}
	writeJSON(w, http.StatusOK, types.InfoResponse{Info: info})
}

// POST /api/stats
func (h *Handlers) handleStats(w http.ResponseWriter, r *http.Request) {
	var req types.ConnRequest
	if !h.decode(w, r, &req) {
		return
	}
	info, err := h.gw.ServerInfo(r.Context(), req.ConnParams)
	if err != nil {
		h.fail(w, "Error fetching Redis stats", err)
		return
	}
	writeJSON(w, http.StatusOK, monitor.Summarize(monitor.NewInfo(info), req.DB))
}

// POST /api/keys
func (h *Handlers) handleListKeys(w http.ResponseWriter, r *http.Request) {
	var req types.ListKeysRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Pattern == "" {
		req.Pattern = gateway.DefaultPattern
	}
	listing, err := h.gw.ListKeys(r.Context(), req.ConnParams, req.Pattern, req.Page, req.PerPage)
	if err != nil {
		h.fail(w, "Error fetching keys", err)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

// POST /api/key/{key}
func (h *Handlers) handleGetKey(w http.ResponseWriter, r *http.Request) {
	key, ok := keyVar(w, r)
	if !ok {
		return
	}
	var req types.ConnRequest
	if !h.decode(w, r, &req) {
		return
	}
	raw, err := h.gw.GetKey(r.Context(), req.ConnParams, key)
	if errors.Is(err, gateway.ErrNotFound) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Key '%s' not found", key))
		return
	}
	if err != nil {
		h.fail(w, "Error fetching key details", err)
		return
	}
	writeJSON(w, http.StatusOK, raw)
}

// DELETE /api/key/{key}
func (h *Handlers) handleDeleteKey(w http.ResponseWriter, r *http.Request) {
	key, ok := keyVar(w, r)
	if !ok {
		return
	}
	var req types.ConnRequest
	if !h.decode(w, r, &req) {
		return
	}
	err := h.gw.DeleteKey(r.Context(), req.ConnParams, key)
	if errors.Is(err, gateway.ErrNotFound) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Key '%s' not found", key))
		return
	}
	if err != nil {
		h.fail(w, "Error deleting key", err)
		return
	}
	h.logger.Info("Key deleted", zap.String("key", key), zap.String("conn", req.ConnParams.String()))
	writeJSON(w, http.StatusOK, types.StatusResponse{
		Status:    "ok",
		Message:   "Successfully deleted key: " + key,
		Timestamp: time.Now().Unix(),
	})
}

// POST /api/keys/delete
func (h *Handlers) handleDeleteKeys(w http.ResponseWriter, r *http.Request) {
	var req types.DeleteKeysRequest
	if !h.decode(w, r, &req) {
		return
	}
	if len(req.Keys) == 0 {
		writeError(w, http.StatusBadRequest, "No keys provided")
		return
	}
	res, err := h.gw.DeleteKeys(r.Context(), req.ConnParams, req.Keys)
	if err != nil {
		h.fail(w, "Error deleting keys", err)
		return
	}
	h.logger.Info("Bulk delete finished",
		zap.Int("deleted", res.DeletedCount),
		zap.Int("total", res.TotalCount),
		zap.String("status", res.Status),
	)
	writeJSON(w, http.StatusOK, res)
}

// POST /api/execute
func (h *Handlers) handleExecute(w http.ResponseWriter, r *http.Request) {
	var req types.ExecuteRequest
	if !h.decode(w, r, &req) {
		return
	}
	result, err := h.gw.Execute(r.Context(), req.ConnParams, req.Command, req.Args)
	if err != nil {
		h.fail(w, "Error executing command", err)
		return
	}
	writeJSON(w, http.StatusOK, types.ExecuteResponse{Result: result})
}

func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Body == nil || r.ContentLength == 0 {
		writeError(w, http.StatusBadRequest, "missing request body")
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return false
	}
	return true
}

// fail maps a gateway error to a status: bad input is 400, a missing key
// 404 and everything else 500.
func (h *Handlers) fail(w http.ResponseWriter, action string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, gateway.ErrEmptyCommand), errors.Is(err, gateway.ErrNoKeys), errors.Is(err, gateway.ErrUnsupported):
		status = http.StatusBadRequest
	case errors.Is(err, gateway.ErrNotFound):
		status = http.StatusNotFound
	}
	if status == http.StatusInternalServerError {
		h.logger.Error(action, zap.Error(err))
	}
	writeError(w, status, fmt.Sprintf("%s: %v", action, err))
}

func keyVar(w http.ResponseWriter, r *http.Request) (string, bool) {
	key, err := url.PathUnescape(mux.Vars(r)["key"])
	if err != nil || key == "" {
		writeError(w, http.StatusBadRequest, "invalid key")
		return "", false
	}
	return key, true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, types.ErrorResponse{Detail: detail})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func accessLog(logger *zap.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			logger.Debug("Request served",
				zap.String("method", r.Method),
				zap.String("path", r.URL.EscapedPath()),
				zap.Int("status", rec.status),
				zap.Duration("took", time.Since(start)),
			)
		})
	}
}

// NewHTTPServer constructs the http.Server on the configured listen address
func NewHTTPServer(cfg *config.Config, router *mux.Router) *http.Server {
	return &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// RegisterHooks starts and stops the server using fx Lifecycle
func RegisterHooks(lc fx.Lifecycle, server *http.Server, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("Starting RedisLens API server", zap.String("addr", server.Addr))
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Fatal("Server failed to start", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Stopping RedisLens API server")
			return server.Shutdown(ctx)
		},
	})
}
