package grpc

import (
	"context"
	"fmt"
	"net"
	"time"

	"SubletHubPlatform/pkg/errors"
	"SubletHubPlatform/pkg/health"
	"SubletHubPlatform/pkg/logger"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

// DefaultProbeInterval период опроса зависимостей для статуса health сервиса
const DefaultProbeInterval = 15 * time.Second

// HealthServer gRPC сервер, отдающий grpc.health.v1 статус по результатам проверки зависимостей
type HealthServer struct {
	server   *grpc.Server
	health   *grpchealth.Server
	checker  health.HealthChecker
	interval time.Duration
	logger   logger.Logger
}

// NewHealthServer создает gRPC сервер health-проверок
func NewHealthServer(checker health.HealthChecker, interval time.Duration, log logger.Logger) *HealthServer {
	if interval <= 0 {
		interval = DefaultProbeInterval
	}
	log = log.With(logger.String("component", "grpc_health"))

	server := grpc.NewServer(grpc.UnaryInterceptor(LoggingInterceptor(log)))
	hs := grpchealth.NewServer()
	healthpb.RegisterHealthServer(server, hs)

	return &HealthServer{
		server:   server,
		health:   hs,
		checker:  checker,
		interval: interval,
		logger:   log,
	}
}

// Refresh проверяет зависимости и обновляет статус обслуживания
func (s *HealthServer) Refresh(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	result := healthpb.HealthCheckResponse_SERVING
	if s.checker.Check(ctx).Status != health.StatusHealthy {
		result = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus("", result)
	return result
}

// Serve принимает соединения на listener и обновляет статус до отмены контекста
func (s *HealthServer) Serve(ctx context.Context, listener net.Listener) error {
	s.Refresh(ctx)
	go s.watch(ctx)

	s.logger.Info("gRPC health server started", logger.String("addr", listener.Addr().String()))
	if err := s.server.Serve(listener); err != nil && err != grpc.ErrServerStopped {
		return fmt.Errorf("grpc health server failed: %w", err)
	}
	return nil
}

func (s *HealthServer) watch(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	previous := healthpb.HealthCheckResponse_SERVING
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			current := s.Refresh(ctx)
			if current != previous {
				s.logger.Warn("Serving status changed",
					logger.String("from", previous.String()),
					logger.String("to", current.String()),
				)
				previous = current
			}
		}
	}
}

// Stop переводит статус в NOT_SERVING и дожидается завершения активных вызовов
func (s *HealthServer) Stop() {
	s.health.Shutdown()
	s.server.GracefulStop()
}

// LoggingInterceptor логирует unary вызовы и переводит ошибки приложения в gRPC статусы
func LoggingInterceptor(log logger.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		fields := []logger.Field{
			logger.String("method", info.FullMethod),
			logger.Duration("duration", time.Since(start)),
		}
		if err != nil {
			err = ToStatus(err)
			log.Warn("gRPC call failed", append(fields, logger.Error(err))...)
			return resp, err
		}
		log.Debug("gRPC call handled", fields...)
		return resp, nil
	}
}

// ToStatus переводит ошибку приложения в gRPC статус; готовые статусы не меняются
func ToStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	var code codes.Code
	switch errors.Code(err) {
	case errors.ErrValidation:
		code = codes.InvalidArgument
	case errors.ErrUnauthorized, errors.ErrInvalidToken:
		code = codes.Unauthenticated
	case errors.ErrForbidden:
		code = codes.PermissionDenied
	case errors.ErrNotFound:
		code = codes.NotFound
	case errors.ErrInvalidOperation, errors.ErrConflict:
		code = codes.FailedPrecondition
	case errors.ErrUnavailable:
		code = codes.Unavailable
	case errors.ErrTooManyRequests:
		code = codes.ResourceExhausted
	default:
		code = codes.Internal
	}
	return status.Error(code, err.Error())
}
