package utility

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
)

var (
	rateLimiterMu sync.Mutex
	ipAttempts    = make(map[string][]time.Time)
)

// GetRealIP is a helper function to get the user's real IP address
// It checks proxy headers (like from ngrok) first.
func GetRealIP(c echo.Context) string {
	// 1. Check X-Forwarded-For first
	// This header can be a list: "client, proxy1, proxy2"
	xForwardedFor := c.Request().Header.Get("X-Forwarded-For")
	if xForwardedFor != "" {
		// Take the first IP in the list
		ips := strings.Split(xForwardedFor, ",")
		firstIP := strings.TrimSpace(ips[0])
		return firstIP
	}

	// 2. Check X-Real-IP
	// This is often set by proxies like Nginx or ngrok
	xRealIP := c.Request().Header.Get("X-Real-IP")
	if xRealIP != "" {
		return xRealIP
	}

	// 3. If all else fails, get the direct IP
	return c.RealIP()
}

// CheckIPRateLimit enforces a sliding window of analysis requests per IP.
// The whole check-and-record step runs under one lock so concurrent requests
// from the same IP cannot slip past the cap or drop each other's attempts.
func CheckIPRateLimit(ip string) error {
	now := time.Now()
	window := 15 * time.Minute
	maxAttempts := 30

	rateLimiterMu.Lock()
	defer rateLimiterMu.Unlock()

	// Remove old attempts
	var recent []time.Time
	for _, t := range ipAttempts[ip] {
		if now.Sub(t) < window {
			recent = append(recent, t)
		}
	}

	if len(recent) >= maxAttempts {
		ipAttempts[ip] = recent
		return fmt.Errorf("too many attempts, please try again later")
	}

	ipAttempts[ip] = append(recent, now)
	return nil
}

// ParseIntParam reads an integer query parameter with a fallback.
func ParseIntParam(c echo.Context, name string, fallback int) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}

func Min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
