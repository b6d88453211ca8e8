// Package login реализует HTTP-обработчик входа пользователя.
//
// При успешной проверке пароля выдаётся сессионный токен: он всегда
// кладётся в HttpOnly cookie, а клиентам, принимающим JSON, дополнительно
// возвращается в теле ответа. Остальные клиенты перенаправляются к списку задач.
package login

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/task-tracker/internal/http/response"
	"github.com/magabrotheeeer/task-tracker/internal/lib/errs"
	"github.com/magabrotheeeer/task-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/task-tracker/internal/models"
)

const (
	redirectTo = "/tasks"

	msgNoUser        = "no user found with this email"
	msgWrongPassword = "invalid password"
	msgGeneric       = "invalid email or password"
)

// Request — структура входных данных для авторизации.
type Request struct {
	Email    string `json:"email" validate:"max=254"`
	Password string `json:"password" validate:"max=72"`
}

// Response — тело успешного ответа для JSON-клиентов.
type Response struct {
	Token     string    `json:"token"`
	UserID    string    `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Service описывает интерфейс бизнес-логики аутентификации.
type Service interface {
	Login(ctx context.Context, email, password string) (string, *models.Identity, error)
}

// Options задаёт параметры сессионной cookie и политику сообщений об ошибках.
type Options struct {
	CookieName   string
	CookieSecure bool
	// GenericErrors скрывает, что именно не подошло: email или пароль.
	GenericErrors bool
}

// Handler обрабатывает HTTP-запросы для авторизации.
type Handler struct {
	log      *slog.Logger
	service  Service
	opts     Options
	validate *validator.Validate
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service, opts Options) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		opts:     opts,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Вход пользователя
// @Description Проверяет email и пароль и выдаёт сессию. Токен ставится в HttpOnly cookie;
// @Description при Accept: application/json возвращается также в теле, иначе выполняется редирект на /tasks.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body Request true "Учетные данные пользователя"
// @Success 200 {object} Response
// @Success 303 "Редирект на /tasks"
// @Failure 400 {object} response.ErrorResponse "Пустые поля или некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Неверные учетные данные"
// @Failure 429 {object} response.ErrorResponse "Слишком много запросов"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /login [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.login"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Info("validation failed", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	token, identity, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(w, r, log, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.opts.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  identity.ExpiresAt,
		HttpOnly: true,
		Secure:   h.opts.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	log.Info("login success", slog.String("user_id", identity.UserID))

	if !wantsJSON(r) {
		http.Redirect(w, r, redirectTo, http.StatusSeeOther)
		return
	}
	render.JSON(w, r, Response{
		Token:     token,
		UserID:    identity.UserID,
		ExpiresAt: identity.ExpiresAt,
	})
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	var msg string
	switch {
	case errors.Is(err, errs.ErrNotFound):
		msg = msgNoUser
	case errors.Is(err, errs.ErrInvalidCredentials):
		msg = msgWrongPassword
	default:
		log.Error("login failed", sl.Err(err))
		response.Fail(w, r, err)
		return
	}

	log.Info("login rejected", sl.Err(err))
	if h.opts.GenericErrors {
		msg = msgGeneric
	}
	render.Status(r, http.StatusUnauthorized)
	render.JSON(w, r, response.Error(msg))
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
