package middleware_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yasinhessnawi1/Natours_Backend/internal/middleware"
	"github.com/yasinhessnawi1/Natours_Backend/internal/utils"
	"github.com/yasinhessnawi1/Natours_Backend/internal/utils/ratelimit"
)

type failingCounter struct{}

func (failingCounter) Incr(context.Context, string, time.Duration) (int64, time.Duration, error) {
	return 0, 0, errors.New("redis down")
}

func TestRateLimit(t *testing.T) {
	store := ratelimit.NewMemoryStore(time.Minute)
	defer store.Stop()
	limiter := ratelimit.NewLimiter(store, 2, time.Hour, "rl:")
	handler := middleware.RateLimit(limiter)(okHandler)

	call := func(path, ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.RemoteAddr = ip + ":4000"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr
	}

	first := call("/api/v1/tours", "192.0.2.1")
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "2", first.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "3600", first.Header().Get("X-RateLimit-Reset"))

	assert.Equal(t, http.StatusOK, call("/api/v1/tours", "192.0.2.1").Code)

	blocked := call("/api/v1/tours", "192.0.2.1")
	assert.Equal(t, http.StatusTooManyRequests, blocked.Code)
	assert.Equal(t, "0", blocked.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, blocked.Header().Get("Retry-After"))

	var resp utils.Response
	require.NoError(t, json.Unmarshal(blocked.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, "too_many_requests", resp.Error.Code)
	assert.Equal(t, "Too many requests from this IP, please try again in an hour!", resp.Error.Message)

	// Other clients and exempt paths are unaffected.
	assert.Equal(t, http.StatusOK, call("/api/v1/tours", "192.0.2.2").Code)
	health := call("/health", "192.0.2.1")
	assert.Equal(t, http.StatusOK, health.Code)
	assert.Empty(t, health.Header().Get("X-RateLimit-Limit"))
}

func TestRateLimit_IgnoresSpoofedForwardingHeaders(t *testing.T) {
	store := ratelimit.NewMemoryStore(time.Minute)
	defer store.Stop()
	limiter := ratelimit.NewLimiter(store, 2, time.Hour, "rl:")
	handler := middleware.RealIP(nil)(middleware.RateLimit(limiter)(okHandler))

	codes := make([]int, 0, 5)
	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/tours", nil)
		req.RemoteAddr = "192.0.2.1:4000"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("10.0.0.%d", i))
		req.Header.Set("X-Real-IP", fmt.Sprintf("10.1.0.%d", i))
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}

	assert.Equal(t, []int{200, 200, 429, 429, 429}, codes)
}

func TestRateLimit_KeysOnForwardedClientFromTrustedProxy(t *testing.T) {
	store := ratelimit.NewMemoryStore(time.Minute)
	defer store.Stop()
	limiter := ratelimit.NewLimiter(store, 1, time.Hour, "rl:")
	proxies, err := middleware.ParseTrustedProxies([]string{"10.0.0.0/8"})
	require.NoError(t, err)
	handler := middleware.RealIP(proxies)(middleware.RateLimit(limiter)(okHandler))

	call := func(client string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/tours", nil)
		req.RemoteAddr = "10.0.0.2:4000"
		req.Header.Set("X-Forwarded-For", client)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr.Code
	}

	assert.Equal(t, http.StatusOK, call("203.0.113.7"))
	assert.Equal(t, http.StatusTooManyRequests, call("203.0.113.7"))
	assert.Equal(t, http.StatusOK, call("203.0.113.8"))
}

func TestRateLimit_FailsOpen(t *testing.T) {
	limiter := ratelimit.NewLimiter(failingCounter{}, 1, time.Hour, "rl:")
	handler := middleware.RateLimit(limiter)(okHandler)

	for i := 0; i < 3; i++ {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/tours", nil))
		assert.Equal(t, http.StatusOK, rr.Code)
	}
}
