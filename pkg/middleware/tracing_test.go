package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"onspace/pkg/middleware"

	"github.com/stretchr/testify/assert"
)

func TestTraceMiddleware_GeneratesID(t *testing.T) {
	var inner string
	handler := middleware.TraceMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inner = middleware.GetTraceID(r)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.NotEmpty(t, inner)
	assert.Equal(t, inner, rec.Header().Get("X-Trace-Id"))
}

func TestTraceMiddleware_PropagatesIncomingID(t *testing.T) {
	var inner string
	handler := middleware.TraceMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inner = middleware.GetTraceID(r)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Trace-Id", "trace-abc")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "trace-abc", inner)
	assert.Equal(t, "trace-abc", rec.Header().Get("X-Trace-Id"))
}
