package mw

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/MrSnakeDoc/ministry/internal/jsonx"
	"github.com/MrSnakeDoc/ministry/internal/logger"
	"github.com/MrSnakeDoc/ministry/internal/ratelimit"
	"github.com/MrSnakeDoc/ministry/internal/utils"
)

type rateLimitedResponse struct {
	Error      string `json:"error"`
	RetryAfter int    `json:"retryAfter"`
}

// RateLimit spends one attempt of the named profile per request. endpoint
// names the bucket, so routes sharing a profile keep separate counts.
// An unknown profile is a startup error.
func RateLimit(l *ratelimit.Limiter, profile, endpoint string, trustProxy bool, log logger.Logger) func(http.Handler) http.Handler {
	p, ok := l.Profile(profile)
	if !ok {
		panic(fmt.Sprintf("❌ FATAL: unknown rate limit profile %q", profile))
	}
	limitStr := strconv.Itoa(p.MaxAttempts)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := utils.ClientIP(r, trustProxy)

			dec, err := l.CheckAndRecord(r.Context(), utils.ClientKey(ip), endpoint, p)
			if err != nil {
				log.Error("rate limit check failed",
					logger.String("endpoint", endpoint),
					logger.Error(err))
				jsonx.WriteError(w, http.StatusInternalServerError, "internal error")
				return
			}

			w.Header().Set("X-RateLimit-Limit", limitStr)
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(dec.Remaining))
			if !dec.Allowed {
				retry := dec.RetryAfterSeconds()
				log.Warn("rate limited",
					logger.String("client_ip", ip),
					logger.String("endpoint", endpoint),
					logger.Int("retry_after", retry))
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				jsonx.WriteJSON(w, http.StatusTooManyRequests, rateLimitedResponse{
					Error:      "too many requests",
					RetryAfter: retry,
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
