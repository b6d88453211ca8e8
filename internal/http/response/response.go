// Package response содержит вспомогательные типы и функции для формирования
// унифицированных JSON‑ответов HTTP‑обработчиков: ошибок, сообщений валидации
// и сопоставления доменных ошибок с HTTP-статусами.
package response

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/task-tracker/internal/lib/errs"
)

// ErrorResponse — тело ответа с ошибкой.
// Используется в аннотациях @Failure как возвращаемый тип ошибки.
type ErrorResponse struct {
	Status string `json:"status" example:"Error"`
	Error  string `json:"error" example:"invalid request body"`
}

// MessageResponse — тело ответа с текстовым сообщением.
type MessageResponse struct {
	Message string `json:"message" example:"logged out"`
}

const (
	// StatusError — значение статуса для ответа с ошибкой.
	StatusError = "Error"

	internalMessage = "internal server error"
)

// Error возвращает ErrorResponse с переданным сообщением.
func Error(msg string) ErrorResponse {
	return ErrorResponse{
		Status: StatusError,
		Error:  msg,
	}
}

// ValidationError формирует ErrorResponse на основе ошибок валидатора.
// Каждое нарушение формируется в человеко‑читаемый текст, объединённый через запятую.
func ValidationError(errs validator.ValidationErrors) ErrorResponse {
	var errsMsgs []string

	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is a required field", err.Field()))
		case "max":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be at most %s characters", err.Field(), err.Param()))
		case "min":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be at least %s characters", err.Field(), err.Param()))
		case "oneof":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be one of: %s", err.Field(), err.Param()))
		default:
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is not valid", err.Field()))
		}
	}
	return Error(strings.Join(errsMsgs, ", "))
}

type ctxKey struct{}

// HideInternalErrors заменяет текст 500-х ответов общим сообщением.
// Подключается в окружении prod.
func HideInternalErrors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, true)))
	})
}

func internalHidden(ctx context.Context) bool {
	hide, _ := ctx.Value(ctxKey{}).(bool)
	return hide
}

// StatusFor сопоставляет доменную ошибку с HTTP-статусом и текстом для клиента.
func StatusFor(ctx context.Context, err error) (int, string) {
	switch {
	case errors.Is(err, errs.ErrValidation):
		if msg := errs.Message(err); msg != "" {
			return http.StatusBadRequest, msg
		}
		return http.StatusBadRequest, "invalid request"
	case errors.Is(err, errs.ErrDuplicateEmail):
		return http.StatusBadRequest, errs.ErrDuplicateEmail.Error()
	case errors.Is(err, errs.ErrUnauthenticated):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, errs.ErrInvalidCredentials):
		return http.StatusUnauthorized, errs.ErrInvalidCredentials.Error()
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound, "task not found"
	}
	if internalHidden(ctx) || err == nil || errors.Is(err, errs.ErrInternal) {
		return http.StatusInternalServerError, internalMessage
	}
	return http.StatusInternalServerError, err.Error()
}

// Fail пишет ответ с ошибкой, выбирая статус по типу ошибки.
func Fail(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := StatusFor(r.Context(), err)
	render.Status(r, status)
	render.JSON(w, r, Error(msg))
}
