// Package read реализует HTTP-обработчик получения задачи по ID.
package read

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/task-tracker/internal/http/middlewarectx"
	"github.com/magabrotheeeer/task-tracker/internal/http/response"
	"github.com/magabrotheeeer/task-tracker/internal/lib/errs"
	"github.com/magabrotheeeer/task-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/task-tracker/internal/models"
)

type Service interface {
	Get(ctx context.Context, ownerID, taskID string) (*models.Task, error)
}

type Handler struct {
	log     *slog.Logger
	service Service
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Получить задачу
// @Description Возвращает задачу текущего пользователя. Чужая задача неотличима от несуществующей.
// @Tags Tasks
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID задачи"
// @Success 200 {object} models.Task
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Задача не найдена"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /tasks/{id} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.task.read"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userID, ok := r.Context().Value(middlewarectx.UserID).(string)
	if !ok || userID == "" {
		log.Error("user id not found in context")
		response.Fail(w, r, errs.ErrUnauthenticated)
		return
	}
	taskID := chi.URLParam(r, "id")

	task, err := h.service.Get(r.Context(), userID, taskID)
	if err != nil {
		log.Info("failed to read task", slog.String("task_id", taskID), sl.Err(err))
		response.Fail(w, r, err)
		return
	}

	render.JSON(w, r, task)
}
