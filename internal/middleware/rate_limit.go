package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"SubletHubPlatform/pkg/errors"
	"SubletHubPlatform/pkg/logger"
	"SubletHubPlatform/pkg/ratelimit"
)

// RateLimitMiddleware ограничивает частоту запросов с одного IP.
// При недоступности хранилища лимитов запрос пропускается.
func RateLimitMiddleware(limiter ratelimit.RateLimiter, scope string, limit int, window time.Duration, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := scope + ":ip:" + clientIP(r)

			exceeded, err := limiter.CheckRateLimit(r.Context(), key, limit, window)
			if err != nil {
				log.Error("Rate limiter error, allowing request",
					logger.CtxField(r.Context()),
					logger.String("key", key),
					logger.Error(err),
				)
				next.ServeHTTP(w, r)
				return
			}

			if exceeded {
				log.Warn("Rate limit exceeded",
					logger.CtxField(r.Context()),
					logger.String("key", key),
					logger.Int("limit", limit),
					logger.Duration("window", window),
				)
				w.Header().Set("Retry-After", retryAfter(window))
				errors.WriteJSON(w, errors.New(errors.ErrTooManyRequests, "too many requests"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientIP берет первый адрес из X-Forwarded-For, затем X-Real-IP, затем RemoteAddr
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first := strings.TrimSpace(strings.Split(forwarded, ",")[0])
		if first != "" {
			return first
		}
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func retryAfter(window time.Duration) string {
	seconds := int(window.Seconds())
	if seconds < 1 {
		seconds = 1
	}
	return strconv.Itoa(seconds)
}
