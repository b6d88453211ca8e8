// Package errs содержит таксономию ошибок предметной области.
//
// Сервисы и хранилища оборачивают эти ошибки через fmt.Errorf("%s: %w", op, err),
// а HTTP-обработчики сопоставляют их с кодами ответа через errors.Is.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation — некорректные или отсутствующие входные данные.
	ErrValidation = errors.New("validation error")
	// ErrDuplicateEmail — пользователь с таким email уже существует.
	ErrDuplicateEmail = errors.New("user already exists")
	// ErrUnauthenticated — токен отсутствует, испорчен или истёк.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrNotFound — запись не найдена или принадлежит другому пользователю.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials — пароль не совпал с хэшем.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInternal — непредвиденная ошибка.
	ErrInternal = errors.New("internal error")
)

// ValidationError несёт текст, который можно показать клиенту.
// errors.Is(err, ErrValidation) для него истинно.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrValidation, e.Msg)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Validation создаёт ошибку валидации с пояснением.
func Validation(msg string) error {
	return &ValidationError{Msg: msg}
}

// Message возвращает пояснение из ошибки валидации или пустую строку.
func Message(err error) string {
	var v *ValidationError
	if errors.As(err, &v) {
		return v.Msg
	}
	return ""
}
