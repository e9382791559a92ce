package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/diagnosis/visitor-register/internal/http/response"
	"github.com/diagnosis/visitor-register/internal/utils"
	"github.com/diagnosis/visitor-register/pkg/logger"
)

// RateLimitStore counts hits per key within a sliding window.
type RateLimitStore interface {
	CheckRateLimit(ctx context.Context, key string, requests int, window time.Duration) (bool, error)
}

// RateLimitConfig defines rate limiting parameters
type RateLimitConfig struct {
	Requests int                            // Max requests per window
	Window   time.Duration                  // Time window duration
	KeyFunc  func(r *http.Request) []string // Function to generate rate limit keys
	SkipFunc func(r *http.Request) bool     // Function to skip rate limiting
}

// RateLimiter provides rate limiting functionality
type RateLimiter struct {
	store  RateLimitStore
	config RateLimitConfig
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(store RateLimitStore, config RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		store:  store,
		config: config,
	}
}

// Middleware returns the rate limiting middleware
func (rl *RateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if rl.config.SkipFunc != nil && rl.config.SkipFunc(r) {
				next.ServeHTTP(w, r)
				return
			}

			for _, key := range rl.config.KeyFunc(r) {
				allowed, err := rl.store.CheckRateLimit(r.Context(), key, rl.config.Requests, rl.config.Window)
				if err != nil {
					// fail open
					logger.WarnContext(r.Context(), "Rate limit check failed", "error", err)
					continue
				}
				if !allowed {
					response.RateLimit(w, "Too many requests. Try again later.")
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

const maxPeekBytes = 1 << 16

// LoginRateLimitKeyFunc limits login attempts per client IP and per e-mail.
// The body is read and restored so the handler can decode it again.
func LoginRateLimitKeyFunc(proxies TrustedProxies) func(r *http.Request) []string {
	return func(r *http.Request) []string {
		keys := []string{}

		if ip := proxies.ClientIP(r); ip != "" {
			keys = append(keys, "login:ip:"+ip)
		}

		if r.Body == nil {
			return keys
		}
		body, err := io.ReadAll(io.LimitReader(r.Body, maxPeekBytes))
		r.Body.Close()
		r.Body = io.NopCloser(bytes.NewReader(body))
		if err != nil {
			return keys
		}

		var payload struct {
			Email string `json:"email"`
		}
		if json.Unmarshal(body, &payload) == nil {
			if email := utils.NormalizeEmail(payload.Email); email != "" {
				keys = append(keys, "login:email:"+email)
			}
		}
		return keys
	}
}

// TrustedProxies holds the networks allowed to report the client address
// through X-Forwarded-For or X-Real-IP.
type TrustedProxies []netip.Prefix

// ParseTrustedProxies accepts bare IPs and CIDRs.
func ParseTrustedProxies(entries []string) (TrustedProxies, error) {
	out := make(TrustedProxies, 0, len(entries))
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if strings.Contains(e, "/") {
			p, err := netip.ParsePrefix(e)
			if err != nil {
				return nil, fmt.Errorf("trusted proxy %q: %w", e, err)
			}
			out = append(out, p.Masked())
			continue
		}
		a, err := netip.ParseAddr(e)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", e, err)
		}
		a = a.Unmap()
		out = append(out, netip.PrefixFrom(a, a.BitLen()))
	}
	return out, nil
}

func (t TrustedProxies) trusts(ip string) bool {
	a, err := netip.ParseAddr(strings.TrimSpace(ip))
	if err != nil {
		return false
	}
	a = a.Unmap()
	for _, p := range t {
		if p.Contains(a) {
			return true
		}
	}
	return false
}

// ClientIP returns the peer address unless the peer is a trusted proxy, in
// which case the forwarding chain is walked right to left and the first
// untrusted hop wins.
func (t TrustedProxies) ClientIP(r *http.Request) string {
	peer := remoteIP(r)
	if !t.trusts(peer) {
		return peer
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop := strings.TrimSpace(hops[i])
			if hop == "" {
				continue
			}
			if !t.trusts(hop) {
				return hop
			}
		}
		return peer
	}

	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	return peer
}

func remoteIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
