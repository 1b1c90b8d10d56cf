package middleware

import (
	"net/http"
	"time"

	"SubletHubPlatform/pkg/logger"

	"github.com/google/uuid"
)

// TraceHeader заголовок с идентификатором запроса
const TraceHeader = "X-Trace-ID"

// LoggingMiddleware присваивает запросу trace_id и логирует начало и завершение
func LoggingMiddleware(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			traceID := r.Header.Get(TraceHeader)
			if _, err := uuid.Parse(traceID); err != nil {
				traceID = uuid.New().String()
			}

			ctx := logger.WithTraceID(r.Context(), traceID)
			r = r.WithContext(ctx)
			w.Header().Set(TraceHeader, traceID)

			logFields := []logger.Field{
				logger.CtxField(ctx),
				logger.String("method", r.Method),
				logger.String("path", r.URL.Path),
				logger.String("remote_addr", r.RemoteAddr),
			}

			log.Debug("Started request", logFields...)

			start := time.Now()
			wrapped := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			logFields = append(logFields,
				logger.Int("status_code", wrapped.statusCode),
				logger.Duration("duration", time.Since(start)),
			)

			switch {
			case wrapped.statusCode >= http.StatusInternalServerError:
				log.Error("Completed request", logFields...)
			case wrapped.statusCode >= http.StatusBadRequest:
				log.Warn("Completed request", logFields...)
			default:
				log.Info("Completed request", logFields...)
			}
		})
	}
}

// statusRecorder обертка для перехвата статуса ответа
type statusRecorder struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (rw *statusRecorder) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	return rw.ResponseWriter.Write(b)
}
