package jwt

import (
	"time"

	"SubletHubPlatform/internal/domain"
	"SubletHubPlatform/pkg/errors"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL срок жизни токена, фиксируется при выпуске
const DefaultTokenTTL = 7 * 24 * time.Hour

// TokenClaims структура для хранения пользовательских данных в JWT токене
type TokenClaims struct {
	UserID string      `json:"user_id"`
	Role   domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// Identity возвращает субъекта запроса из claims
func (c *TokenClaims) Identity() domain.Identity {
	return domain.Identity{UserID: c.UserID, Role: c.Role}
}

// TokenManager интерфейс для выпуска и проверки токенов
type TokenManager interface {
	Issue(userID string, role domain.Role) (string, error)
	Verify(token string) (*TokenClaims, error)
}

// Manager реализация TokenManager на HS256
type Manager struct {
	secretKey []byte
	tokenTTL  time.Duration
	issuer    string
	now       func() time.Time
}

// NewManager создает новый экземпляр JWT менеджера.
// now задает источник времени; nil означает time.Now.
func NewManager(secretKey string, tokenTTL time.Duration, issuer string, now func() time.Time) *Manager {
	if tokenTTL <= 0 {
		tokenTTL = DefaultTokenTTL
	}
	if now == nil {
		now = time.Now
	}
	return &Manager{
		secretKey: []byte(secretKey),
		tokenTTL:  tokenTTL,
		issuer:    issuer,
		now:       now,
	}
}

// Issue выпускает токен для пользователя с указанной ролью
func (m *Manager) Issue(userID string, role domain.Role) (string, error) {
	if userID == "" || role == "" {
		return "", errors.New(errors.ErrValidation, "subject id and role are required")
	}

	issuedAt := m.now().UTC()
	claims := &TokenClaims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(m.tokenTTL)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secretKey)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrInternal, "failed to sign token")
	}
	return signed, nil
}

// Verify проверяет подпись, алгоритм и срок действия токена.
// Токен действителен, пока текущее время строго меньше expiresAt.
func (m *Manager) Verify(token string) (*TokenClaims, error) {
	if token == "" {
		return nil, errors.New(errors.ErrInvalidToken, "token is empty")
	}

	parsed, err := jwt.ParseWithClaims(token, &TokenClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New(errors.ErrInvalidToken, "unexpected signing method")
		}
		return m.secretKey, nil
	},
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInvalidToken, "failed to parse token")
	}

	claims, ok := parsed.Claims.(*TokenClaims)
	if !ok || !parsed.Valid {
		return nil, errors.New(errors.ErrInvalidToken, "invalid token")
	}
	if claims.UserID == "" || !claims.Role.Valid() {
		return nil, errors.New(errors.ErrInvalidToken, "token is missing subject or role")
	}

	return claims, nil
}
