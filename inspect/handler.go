package inspect

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/GoCodeAlone/modsim"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewHandler returns a router serving the snapshots of src:
//
//	GET /healthz
//	GET /snapshot
//	GET /snapshot/objects/{id}
func NewHandler(src Source, logger modsim.Logger) (chi.Router, error) {
	if src == nil {
		return nil, ErrNoSource
	}
	if logger == nil {
		return nil, modsim.ErrLoggerNil
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	r.Route("/snapshot", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, logger, http.StatusOK, src.Snapshot())
		})
		r.Get("/objects/{id}", func(w http.ResponseWriter, req *http.Request) {
			id := chi.URLParam(req, "id")
			obj, ok := src.Snapshot().Object(id)
			if !ok {
				writeJSON(w, logger, http.StatusNotFound, errorBody{Error: "object not found", ID: id})
				return
			}
			writeJSON(w, logger, http.StatusOK, obj)
		})
	})
	return r, nil
}

type errorBody struct {
	Error string `json:"error"`
	ID    string `json:"id,omitempty"`
}

func writeJSON(w http.ResponseWriter, logger modsim.Logger, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

func requestLogger(logger modsim.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("Served inspect request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start).String(),
				"requestId", middleware.GetReqID(r.Context()),
			)
		})
	}
}
