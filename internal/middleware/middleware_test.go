package middlewareinternal

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func helloHandler(status int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		w.Write([]byte("Hello, World!"))
	})
}

func TestLoggingMiddleware(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	handler := LoggingMiddleware(zap.New(core).Sugar())(helloHandler(http.StatusTeapot))

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "Hello, World!", rec.Body.String())

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "/metrics", fields["uri"])
	assert.Equal(t, http.MethodGet, fields["method"])
	assert.EqualValues(t, http.StatusTeapot, fields["status"])
	assert.EqualValues(t, len("Hello, World!"), fields["size"])
}

type recordedAudit struct {
	path   string
	ip     string
	status int
}

type fakeAuditor struct {
	events []recordedAudit
}

func (f *fakeAuditor) Log(path string, ipAddress string, status int) {
	f.events = append(f.events, recordedAudit{path: path, ip: ipAddress, status: status})
}

func TestAuditMiddleware(t *testing.T) {
	auditor := &fakeAuditor{}
	implicitOK := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.RemoteAddr = "192.0.2.10:53124"
	AuditMiddleware(auditor)(implicitOK).ServeHTTP(httptest.NewRecorder(), req)

	req = httptest.NewRequest(http.MethodGet, "/value/unknown", nil)
	req.RemoteAddr = "192.0.2.11"
	AuditMiddleware(auditor)(helloHandler(http.StatusNotFound)).ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, []recordedAudit{
		{path: "/metrics", ip: "192.0.2.10", status: http.StatusOK},
		{path: "/value/unknown", ip: "192.0.2.11", status: http.StatusNotFound},
	}, auditor.events)
}

func TestGzipMiddleware_NoGzipSupport(t *testing.T) {
	handler := GzipMiddleware(helloHandler(http.StatusOK))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Hello, World!", rec.Body.String())
	assert.Equal(t, "", rec.Header().Get("Content-Encoding"))
}

func TestGzipMiddleware_WithGzipSupport(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "small", body: "Hello, World!"},
		{name: "large", body: strings.Repeat("Hello, World! ", 1000)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := GzipMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte(tt.body))
			}))

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			req.Header.Set("Accept-Encoding", "gzip")
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))

			reader, err := gzip.NewReader(rec.Body)
			require.NoError(t, err)
			defer reader.Close()

			var decompressed bytes.Buffer
			_, err = io.Copy(&decompressed, reader)
			require.NoError(t, err)
			assert.Equal(t, tt.body, decompressed.String())
		})
	}
}

func TestLoggingResponseWriter_Write(t *testing.T) {
	lw, data := wrap(httptest.NewRecorder())

	payload := []byte("Hello, World!")
	size, err := lw.Write(payload)

	assert.NoError(t, err)
	assert.Equal(t, len(payload), size)
	assert.Equal(t, len(payload), data.size)
	assert.Equal(t, http.StatusOK, data.status)
}

func TestLoggingResponseWriter_WriteHeader(t *testing.T) {
	rec := httptest.NewRecorder()
	lw, data := wrap(rec)

	lw.WriteHeader(http.StatusNotFound)

	assert.Equal(t, http.StatusNotFound, data.status)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
