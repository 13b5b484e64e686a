package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/yasinhessnawi1/Natours_Backend/internal/constants"
	"github.com/yasinhessnawi1/Natours_Backend/internal/utils"
	"github.com/yasinhessnawi1/Natours_Backend/internal/utils/ratelimit"
)

// Allower decides whether a client key is within its request budget.
type Allower interface {
	Allow(ctx context.Context, key string) (ratelimit.Result, bool, error)
}

// RateLimit is middleware that limits the rate of requests per client IP.
// When the counter store fails the request is let through.
func RateLimit(limiter Allower) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isExemptedPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			clientIP := ClientIP(r)
			res, ok, err := limiter.Allow(r.Context(), clientIP)
			if err != nil {
				log.Warn().Err(err).Str("client_ip", clientIP).Msg("Rate limit store unavailable")
				next.ServeHTTP(w, r)
				return
			}

			resetSeconds := strconv.Itoa(int(math.Ceil(res.ResetIn.Seconds())))
			w.Header().Set(constants.HeaderRateLimitLimit, strconv.Itoa(res.Limit))
			w.Header().Set(constants.HeaderRateLimitRemaining, strconv.Itoa(res.Remaining))
			w.Header().Set(constants.HeaderRateLimitReset, resetSeconds)

			if !ok {
				log.Warn().
					Str("client_ip", clientIP).
					Str("path", r.URL.Path).
					Str("method", r.Method).
					Msg("Rate limit exceeded")

				w.Header().Set(constants.HeaderRetryAfter, resetSeconds)
				utils.ErrorFromAppError(w, utils.NewTooManyRequestsError())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
