package password

import (
	"SubletHubPlatform/pkg/errors"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost число раундов bcrypt по умолчанию
const DefaultCost = 12

// Hasher интерфейс для работы с паролями
type Hasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) (bool, error)
}

// BcryptHasher реализация Hasher с использованием bcrypt
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher создает новый BcryptHasher; недопустимая стоимость заменяется на DefaultCost
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

// Hash хеширует пароль с использованием bcrypt
func (h *BcryptHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", errors.New(errors.ErrValidation, "password is required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrInternal, "failed to hash password")
	}
	return string(hash), nil
}

// Verify проверяет пароль против хеша.
// Несовпадение возвращает false без ошибки.
func (h *BcryptHasher) Verify(password, hash string) (bool, error) {
	if password == "" || hash == "" {
		return false, errors.New(errors.ErrValidation, "password and hash are required")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		// Несовпадение и поврежденный хеш одинаково означают отказ
		return false, nil
	}
	return true, nil
}
