// Package logout реализует HTTP-обработчик выхода: удаляет сессионную cookie
// и отзывает токен, если подключён список отозванных сессий.
package logout

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/task-tracker/internal/http/middlewarectx"
	"github.com/magabrotheeeer/task-tracker/internal/http/response"
	"github.com/magabrotheeeer/task-tracker/internal/lib/errs"
	"github.com/magabrotheeeer/task-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/task-tracker/internal/models"
)

type Service interface {
	Logout(ctx context.Context, identity *models.Identity) error
}

type Handler struct {
	log          *slog.Logger
	service      Service
	cookieName   string
	cookieSecure bool
}

func New(log *slog.Logger, service Service, cookieName string, cookieSecure bool) *Handler {
	return &Handler{
		log:          log,
		service:      service,
		cookieName:   cookieName,
		cookieSecure: cookieSecure,
	}
}

// ServeHTTP godoc
// @Summary Выход пользователя
// @Description Удаляет сессионную cookie и отзывает токен, если сервер поддерживает отзыв.
// @Tags Auth
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.MessageResponse
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Не удалось отозвать сессию"
// @Router /logout [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.logout"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	identity, ok := middlewarectx.IdentityFrom(r.Context())
	if !ok {
		log.Error("identity not found in context")
		response.Fail(w, r, errs.ErrUnauthenticated)
		return
	}

	// cookie удаляется в любом случае, даже если отзыв на сервере не удался
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	if err := h.service.Logout(r.Context(), identity); err != nil {
		log.Error("failed to revoke session", sl.Err(err))
		response.Fail(w, r, err)
		return
	}

	log.Info("user logged out", slog.String("user_id", identity.UserID))
	render.JSON(w, r, response.MessageResponse{Message: "logged out"})
}
