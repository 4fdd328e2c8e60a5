// Package handler wires the HTTP routes of the exporter.
package handler

import (
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Schera-ole/hostmetrics/internal/audit"
	internalerrors "github.com/Schera-ole/hostmetrics/internal/errors"
	middlewareinternal "github.com/Schera-ole/hostmetrics/internal/middleware"
	"github.com/Schera-ole/hostmetrics/internal/repository"
)

// Router builds the exporter routes. auditor may be nil.
func Router(
	storage repository.Repository,
	logger *zap.SugaredLogger,
	auditor audit.AuditLogger,
) chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RealIP)
	router.Use(middlewareinternal.LoggingMiddleware(logger))
	if auditor != nil {
		router.Use(middlewareinternal.AuditMiddleware(auditor))
	}
	router.Use(middlewareinternal.GzipMiddleware)
	router.Use(middleware.StripSlashes)
	router.Use(middleware.Timeout(15 * time.Second))

	router.Method(http.MethodGet, "/metrics", MetricsHandler(storage, logger))
	router.Get("/value/{name}", func(w http.ResponseWriter, r *http.Request) {
		GetHandler(w, r, storage)
	})
	router.Get("/value/{name}/{label}", func(w http.ResponseWriter, r *http.Request) {
		GetHandler(w, r, storage)
	})
	router.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		PingHandler(w, r, storage, logger)
	})
	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		GetListHandler(w, r, storage, logger)
	})
	return router
}

// MetricsHandler renders the text exposition format. Compression is left to
// the gzip middleware.
func MetricsHandler(storage repository.Repository, logger *zap.SugaredLogger) http.Handler {
	return promhttp.HandlerFor(storage, promhttp.HandlerOpts{
		ErrorLog:           zap.NewStdLog(logger.Desugar()),
		ErrorHandling:      promhttp.HTTPErrorOnError,
		DisableCompression: true,
	})
}

// GetHandler writes the current value of one series.
func GetHandler(w http.ResponseWriter, r *http.Request, storage repository.Repository) {
	name := chi.URLParam(r, "name")
	label := chi.URLParam(r, "label")

	value, err := storage.GetMetricByName(r.Context(), name, label)
	switch {
	case errors.Is(err, internalerrors.ErrMetricNotFound), errors.Is(err, internalerrors.ErrUnknownLabel):
		http.Error(w, "Metric not found", http.StatusNotFound)
		return
	case err != nil:
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, formatValue(value))
}

// PingHandler reports whether the registry is ready.
func PingHandler(w http.ResponseWriter, r *http.Request, storage repository.Repository, logger *zap.SugaredLogger) {
	if err := storage.Ping(r.Context()); err != nil {
		logger.Errorw("Registry is not ready", "error", err)
		http.Error(w, "Registry is not ready: "+err.Error(), http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// GetListHandler writes every series as "name value" or "name{label} value".
func GetListHandler(w http.ResponseWriter, r *http.Request, storage repository.Repository, logger *zap.SugaredLogger) {
	metrics, err := storage.ListMetrics(r.Context())
	if err != nil {
		logger.Errorw("Failed to list metrics", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var sb strings.Builder
	for _, m := range metrics {
		if m.Label != "" {
			fmt.Fprintf(&sb, "%s{%s} %s\n", m.Name, m.Label, formatValue(m.Value))
		} else {
			fmt.Fprintf(&sb, "%s %s\n", m.Name, formatValue(m.Value))
		}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, sb.String())
}

// formatValue renders a gauge value the way the exposition format does.
func formatValue(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
