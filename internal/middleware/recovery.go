package middleware

import (
	"net/http"
	"runtime/debug"

	"SubletHubPlatform/pkg/errors"
	"SubletHubPlatform/pkg/logger"
)

// RecoveryMiddleware превращает панику обработчика в ответ 500
func RecoveryMiddleware(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if recovered := recover(); recovered != nil {
					log.Error("Panic recovered in HTTP handler",
						logger.CtxField(r.Context()),
						logger.Any("panic", recovered),
						logger.String("stack_trace", string(debug.Stack())),
						logger.String("method", r.Method),
						logger.String("path", r.URL.Path),
					)
					errors.WriteJSON(w, errors.New(errors.ErrInternal, "internal server error"))
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
