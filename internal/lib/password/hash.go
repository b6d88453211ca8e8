// Package password реализует одностороннее хеширование паролей и их проверку.
//
// Hasher оборачивает bcrypt с настраиваемой стоимостью. Несовпадение пароля
// возвращается как errs.ErrInvalidCredentials, пароль длиннее MaxBytes байт —
// как ошибка валидации, остальные сбои bcrypt — как есть.
package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/magabrotheeeer/task-tracker/internal/lib/errs"
)

// MaxBytes — предел bcrypt на длину пароля в байтах (не в символах).
const MaxBytes = 72

// MsgTooLong — текст ошибки валидации для слишком длинного пароля.
const MsgTooLong = "password must be at most 72 bytes"

// Hasher хэширует и сверяет пароли через bcrypt.
type Hasher struct {
	cost int
}

// NewHasher создаёт Hasher. Стоимость вне диапазона bcrypt заменяется на bcrypt.DefaultCost.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

// GetHash принимает пароль пользователя и возвращает его bcrypt‑хэш.
// Пароль длиннее MaxBytes байт возвращается как ошибка валидации.
func (h *Hasher) GetHash(password string) (string, error) {
	const op = "password.GetHash"
	if len(password) > MaxBytes {
		return "", fmt.Errorf("%s: %w", op, errs.Validation(MsgTooLong))
	}
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", fmt.Errorf("%s: %w", op, errs.Validation(MsgTooLong))
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return string(hashedPassword), nil
}

// CompareHash сравнивает bcrypt‑хэш с введённым паролем.
//
// Возвращает nil при совпадении и errs.ErrInvalidCredentials, если пароль не подошёл.
func (h *Hasher) CompareHash(originalHash, externalPassword string) error {
	const op = "password.CompareHash"
	err := bcrypt.CompareHashAndPassword([]byte(originalHash), []byte(externalPassword))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return fmt.Errorf("%s: %w", op, errs.ErrInvalidCredentials)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
