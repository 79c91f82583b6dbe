package http

import (
	"context"
	"log"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
)

// RateLimiter counts requests per key in a shared store.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, time.Duration, error)
}

// rateLimited throttles a route per caller. Limiter failures let the request through.
func rateLimited(limiter RateLimiter, scope string, next httprouter.Handle) httprouter.Handle {
	if limiter == nil {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		key := scope + ":" + callerKey(r)
		ok, retryAfter, err := limiter.Allow(r.Context(), key)
		if err != nil {
			log.Printf("[ratelimit] %s: %v", key, err)
			next(w, r, ps)
			return
		}
		if !ok {
			secs := int(math.Ceil(retryAfter.Seconds()))
			w.Header().Set("Retry-After", strconv.Itoa(max(secs, 1)))
			writeJSON(w, http.StatusTooManyRequests, envelope{Message: "too many requests"})
			return
		}
		next(w, r, ps)
	}
}

// callerKey prefers the gateway user id and falls back to the client address.
func callerKey(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get(headerUserID)); id != "" {
		return "user:" + id
	}
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return "ip:" + strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}
