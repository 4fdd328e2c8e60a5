// Package middlewareinternal provides HTTP middleware for the exporter.
//
// It includes middleware for logging and auditing requests, and for
// compressing response bodies using gzip compression.
package middlewareinternal

import (
	"compress/gzip"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Schera-ole/hostmetrics/internal/audit"
)

type (
	responseData struct {
		status int
		size   int
	}

	loggingResponseWriter struct {
		http.ResponseWriter
		responseData *responseData
	}
)

func (r *loggingResponseWriter) Write(b []byte) (int, error) {
	if r.responseData.status == 0 {
		r.responseData.status = http.StatusOK
	}
	size, err := r.ResponseWriter.Write(b)
	r.responseData.size += size
	return size, err
}

func (r *loggingResponseWriter) WriteHeader(statusCode int) {
	r.ResponseWriter.WriteHeader(statusCode)
	r.responseData.status = statusCode
}

func wrap(w http.ResponseWriter) (*loggingResponseWriter, *responseData) {
	data := &responseData{}
	return &loggingResponseWriter{ResponseWriter: w, responseData: data}, data
}

// LoggingMiddleware creates a middleware that logs HTTP requests and responses.
func LoggingMiddleware(logger *zap.SugaredLogger) func(http.Handler) http.Handler {

	return func(next http.Handler) http.Handler {
		logFn := func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			lw, data := wrap(w)

			next.ServeHTTP(lw, r)

			logger.Infow("Request served",
				"uri", r.RequestURI,
				"method", r.Method,
				"status", data.status,
				"duration", time.Since(start),
				"size", data.size,
			)
		}
		return http.HandlerFunc(logFn)
	}
}

// AuditMiddleware reports every served request to auditor.
func AuditMiddleware(auditor audit.AuditLogger) func(http.Handler) http.Handler {

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lw, data := wrap(w)
			next.ServeHTTP(lw, r)
			auditor.Log(r.URL.Path, clientIP(r), data.status)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

var gzipWriterPool = sync.Pool{
	New: func() interface{} {
		w, _ := gzip.NewWriterLevel(io.Discard, gzip.BestSpeed)
		return w
	},
}

type gzipWriter struct {
	http.ResponseWriter
	Writer io.Writer
}

func (w gzipWriter) Write(b []byte) (int, error) {
	return w.Writer.Write(b)
}

// GzipMiddleware creates a middleware that compresses response bodies using gzip.
func GzipMiddleware(next http.Handler) http.Handler {

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("Content-Encoding", "gzip")
		w.Header().Add("Vary", "Accept-Encoding")
		gzw := gzipWriterPool.Get().(*gzip.Writer)
		gzw.Reset(w)
		defer func() {
			gzw.Close()
			gzipWriterPool.Put(gzw)
		}()
		gw := &gzipWriter{ResponseWriter: w, Writer: gzw}
		next.ServeHTTP(gw, r)
	})
}
