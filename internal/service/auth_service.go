package service

import (
	"context"
	"strings"
	"time"

	"SubletHubPlatform/internal/domain"
	"SubletHubPlatform/internal/pkg/jwt"
	"SubletHubPlatform/internal/pkg/password"
	"SubletHubPlatform/internal/repository"
	"SubletHubPlatform/pkg/errors"
	"SubletHubPlatform/pkg/logger"
	"SubletHubPlatform/pkg/validation"

	"github.com/google/uuid"
)

const invalidCredentials = "invalid credentials"

// RegisterRequest данные регистрации
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// LoginRequest данные входа; Identifier это email или username
type LoginRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

// AuthResult результат успешной аутентификации
type AuthResult struct {
	Token     string            `json:"token"`
	ExpiresAt time.Time         `json:"expires_at"`
	User      domain.PublicUser `json:"user"`
}

// AuthService интерфейс для сервиса аутентификации
type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*AuthResult, error)
	Login(ctx context.Context, req LoginRequest) (*AuthResult, error)
	Me(ctx context.Context, identity domain.Identity) (*domain.PublicUser, error)
}

// Auth реализация AuthService
type Auth struct {
	accounts  repository.AccountRepository
	tokens    jwt.TokenManager
	hasher    password.Hasher
	validator *validation.Validator
	tokenTTL  time.Duration
	now       func() time.Time
	logger    logger.Logger
}

// NewAuthService создает сервис аутентификации
func NewAuthService(
	accounts repository.AccountRepository,
	tokens jwt.TokenManager,
	hasher password.Hasher,
	tokenTTL time.Duration,
	now func() time.Time,
	log logger.Logger,
) *Auth {
	if tokenTTL <= 0 {
		tokenTTL = jwt.DefaultTokenTTL
	}
	return &Auth{
		accounts:  accounts,
		tokens:    tokens,
		hasher:    hasher,
		validator: validation.NewValidator(),
		tokenTTL:  tokenTTL,
		now:       clock(now),
		logger:    log.With(logger.String("component", "auth_service")),
	}
}

// Register создает учетную запись с ролью user и выдает токен
func (s *Auth) Register(ctx context.Context, req RegisterRequest) (*AuthResult, error) {
	req.Username = strings.ToLower(strings.TrimSpace(req.Username))
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	account := &domain.Account{
		ID:           uuid.New().String(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         domain.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, err
	}

	s.logger.Info("Account registered",
		logger.CtxField(ctx),
		logger.String("user_id", account.ID),
	)

	return s.issue(account, now)
}

// Login проверяет учетные данные. Неизвестный пользователь и неверный пароль неразличимы.
func (s *Auth) Login(ctx context.Context, req LoginRequest) (*AuthResult, error) {
	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}

	account, err := s.accounts.FindByIdentifier(ctx, req.Identifier)
	if errors.HasCode(err, errors.ErrNotFound) {
		return nil, errors.New(errors.ErrUnauthorized, invalidCredentials)
	}
	if err != nil {
		return nil, err
	}

	ok, err := s.hasher.Verify(req.Password, account.PasswordHash)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.logger.Warn("Login rejected", logger.CtxField(ctx), logger.String("user_id", account.ID))
		return nil, errors.New(errors.ErrUnauthorized, invalidCredentials)
	}

	now := s.now()
	if err := s.accounts.TouchLastLogin(ctx, account.ID, now); err != nil {
		return nil, err
	}
	account.LastLoginAt = &now

	return s.issue(account, now)
}

// Me возвращает профиль текущего пользователя
func (s *Auth) Me(ctx context.Context, identity domain.Identity) (*domain.PublicUser, error) {
	account, err := s.accounts.FindByID(ctx, identity.UserID)
	if err != nil {
		return nil, err
	}
	public := account.Public()
	return &public, nil
}

func (s *Auth) issue(account *domain.Account, now time.Time) (*AuthResult, error) {
	token, err := s.tokens.Issue(account.ID, account.Role)
	if err != nil {
		return nil, err
	}
	return &AuthResult{
		Token:     token,
		ExpiresAt: now.Add(s.tokenTTL),
		User:      account.Public(),
	}, nil
}

func clock(now func() time.Time) func() time.Time {
	if now != nil {
		return now
	}
	return func() time.Time { return time.Now().UTC() }
}
