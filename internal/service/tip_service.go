package service

import (
	"context"
	"strings"
	"time"

	"SubletHubPlatform/internal/domain"
	"SubletHubPlatform/internal/repository"
	"SubletHubPlatform/pkg/errors"
	"SubletHubPlatform/pkg/logger"
	"SubletHubPlatform/pkg/metrics"
	"SubletHubPlatform/pkg/validation"

	"github.com/google/uuid"
)

// MaxTipMessageLength предел длины сопроводительного сообщения
const MaxTipMessageLength = 500

// CreateTipRequest данные нового платежного обещания
type CreateTipRequest struct {
	ListingID string  `json:"listing_id"`
	Amount    float64 `json:"amount"`
	Message   string  `json:"message,omitempty"`
}

// TipEventPublisher публикует события журнала чаевых
type TipEventPublisher interface {
	PublishTipEvent(ctx context.Context, event *domain.TipEvent) error
}

// TipService интерфейс журнала чаевых
type TipService interface {
	CreateTip(ctx context.Context, identity domain.Identity, req CreateTipRequest) (*domain.Tip, error)
	CompleteTip(ctx context.Context, tipID, transactionID string) (*domain.Tip, error)
	FailTip(ctx context.Context, tipID, reason string) (*domain.Tip, error)
	GetTip(ctx context.Context, identity domain.Identity, tipID string) (*domain.Tip, error)
	TotalForListing(ctx context.Context, listingID string) (float64, error)
	TotalForUser(ctx context.Context, userID string) (float64, error)
}

// Tips реализация TipService
type Tips struct {
	tips      repository.TipRepository
	listings  repository.ListingRepository
	publisher TipEventPublisher
	metrics   *metrics.Metrics
	validator *validation.Validator
	now       func() time.Time
	logger    logger.Logger
}

// NewTipService создает журнал чаевых; publisher и m могут быть nil
func NewTipService(
	tips repository.TipRepository,
	listings repository.ListingRepository,
	publisher TipEventPublisher,
	m *metrics.Metrics,
	now func() time.Time,
	log logger.Logger,
) *Tips {
	return &Tips{
		tips:      tips,
		listings:  listings,
		publisher: publisher,
		metrics:   m,
		validator: validation.NewValidator(),
		now:       clock(now),
		logger:    log.With(logger.String("component", "tip_service")),
	}
}

// CreateTip создает чаевые в статусе pending.
// Проверки выполняются строго по порядку: объявление, владелец, сумма, сообщение.
func (s *Tips) CreateTip(ctx context.Context, identity domain.Identity, req CreateTipRequest) (*domain.Tip, error) {
	listing, err := s.listings.GetByID(ctx, req.ListingID)
	if err != nil {
		return nil, err
	}

	if listing.OwnerID == identity.UserID {
		return nil, errors.New(errors.ErrInvalidOperation, "cannot tip own listing")
	}

	if err := s.validator.ValidateAmount(req.Amount, "amount"); err != nil {
		return nil, err
	}

	message := strings.TrimSpace(req.Message)
	if err := s.validator.ValidateStringLength(message, "message", 0, MaxTipMessageLength); err != nil {
		return nil, err
	}

	now := s.now()
	tip := &domain.Tip{
		ID:         uuid.New().String(),
		ListingID:  listing.ID,
		FromUserID: identity.UserID,
		ToUserID:   listing.OwnerID,
		Amount:     req.Amount,
		Message:    message,
		Status:     domain.TipPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.tips.Create(ctx, tip); err != nil {
		return nil, err
	}

	s.logger.Info("Tip created",
		logger.CtxField(ctx),
		logger.String("tip_id", tip.ID),
		logger.String("listing_id", tip.ListingID),
		logger.Float64("amount", tip.Amount),
	)
	s.recorded(ctx, tip, now)
	return tip, nil
}

// CompleteTip переводит pending чаевые в completed с идентификатором транзакции
func (s *Tips) CompleteTip(ctx context.Context, tipID, transactionID string) (*domain.Tip, error) {
	transactionID = strings.TrimSpace(transactionID)
	if transactionID == "" {
		return nil, invalidInput("transaction_id is required")
	}
	return s.transition(ctx, tipID, domain.TipCompleted, domain.TipPatch{TransactionID: &transactionID})
}

// FailTip переводит pending чаевые в failed; reason необязателен
func (s *Tips) FailTip(ctx context.Context, tipID, reason string) (*domain.Tip, error) {
	patch := domain.TipPatch{}
	if reason = strings.TrimSpace(reason); reason != "" {
		patch.FailureReason = &reason
	}
	return s.transition(ctx, tipID, domain.TipFailed, patch)
}

func (s *Tips) transition(ctx context.Context, tipID string, to domain.TipStatus, patch domain.TipPatch) (*domain.Tip, error) {
	current, err := s.tips.GetByID(ctx, tipID)
	if err != nil {
		return nil, err
	}
	if current.Status != domain.TipPending {
		return nil, errors.New(errors.ErrInvalidOperation, "tip is not pending").
			WithDetails("current status: " + string(current.Status))
	}

	now := s.now()
	patch.UpdatedAt = now

	// Гонку между конкурентными переходами разрешает условие WHERE status = pending
	tip, err := s.tips.Transition(ctx, tipID, domain.TipPending, to, patch)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Tip transitioned",
		logger.CtxField(ctx),
		logger.String("tip_id", tip.ID),
		logger.String("status", string(tip.Status)),
	)
	s.recorded(ctx, tip, now)
	return tip, nil
}

// GetTip доступен плательщику, получателю и администратору
func (s *Tips) GetTip(ctx context.Context, identity domain.Identity, tipID string) (*domain.Tip, error) {
	tip, err := s.tips.GetByID(ctx, tipID)
	if err != nil {
		return nil, err
	}
	if identity.IsAdmin() || tip.FromUserID == identity.UserID || tip.ToUserID == identity.UserID {
		return tip, nil
	}
	return nil, errors.New(errors.ErrForbidden, "not a party to this tip")
}

// TotalForListing сумма завершенных чаевых по объявлению
func (s *Tips) TotalForListing(ctx context.Context, listingID string) (float64, error) {
	return s.tips.SumAmount(ctx, domain.TipFilter{ListingID: listingID, Status: domain.TipCompleted})
}

// TotalForUser сумма завершенных чаевых, отправленных пользователем
func (s *Tips) TotalForUser(ctx context.Context, userID string) (float64, error) {
	return s.tips.SumAmount(ctx, domain.TipFilter{FromUserID: userID, Status: domain.TipCompleted})
}

// recorded учитывает переход в метриках и публикует событие.
// Запись уже зафиксирована, поэтому сбой публикации только логируется.
func (s *Tips) recorded(ctx context.Context, tip *domain.Tip, at time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveTipTransition(string(tip.Status))
	}
	if s.publisher == nil {
		return
	}

	event := domain.NewTipEvent(uuid.New().String(), tip, at)
	if err := s.publisher.PublishTipEvent(ctx, event); err != nil {
		s.logger.Warn("Failed to publish tip event",
			logger.CtxField(ctx),
			logger.String("tip_id", tip.ID),
			logger.String("event_type", string(event.Type)),
			logger.Error(err),
		)
	}
}
