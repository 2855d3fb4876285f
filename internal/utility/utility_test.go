package utility

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckIPRateLimitConcurrent(t *testing.T) {
	const ip = "203.0.113.7"
	const goroutines = 100

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := CheckIPRateLimit(ip); err == nil {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	// Exactly the cap gets through, no matter how the goroutines interleave.
	assert.Equal(t, 30, allowed)
}

func TestCheckIPRateLimitPerIP(t *testing.T) {
	for i := 0; i < 30; i++ {
		require.NoError(t, CheckIPRateLimit("198.51.100.1"))
	}
	require.Error(t, CheckIPRateLimit("198.51.100.1"))

	// A different IP has its own window.
	assert.NoError(t, CheckIPRateLimit("198.51.100.2"))
}

func TestGetRealIP(t *testing.T) {
	e := echo.New()

	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{"x-forwarded-for single", map[string]string{"X-Forwarded-For": "10.0.0.1"}, "10.0.0.1"},
		{"x-forwarded-for list takes first", map[string]string{"X-Forwarded-For": "10.0.0.1, 10.0.0.2"}, "10.0.0.1"},
		{"x-real-ip fallback", map[string]string{"X-Real-IP": "10.0.0.3"}, "10.0.0.3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			c := e.NewContext(req, httptest.NewRecorder())
			assert.Equal(t, tt.want, GetRealIP(c))
		})
	}
}

func TestParseIntParam(t *testing.T) {
	e := echo.New()

	tests := []struct {
		raw      string
		fallback int
		want     int
	}{
		{"", 10, 10},
		{"3", 10, 3},
		{"not-a-number", 10, 10},
		{"-2", 10, 10},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/?limit=%s", tt.raw), nil)
		c := e.NewContext(req, httptest.NewRecorder())
		assert.Equal(t, tt.want, ParseIntParam(c, "limit", tt.fallback))
	}
}
