// Package list реализует HTTP-обработчик списка задач с пагинацией,
// фильтром по статусу и поиском по подстроке.
package list

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/task-tracker/internal/http/middlewarectx"
	"github.com/magabrotheeeer/task-tracker/internal/http/response"
	"github.com/magabrotheeeer/task-tracker/internal/lib/errs"
	"github.com/magabrotheeeer/task-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/task-tracker/internal/models"
)

// Response — страница задач и сведения о пагинации.
type Response struct {
	Tasks      []*models.Task    `json:"tasks"`
	Pagination models.Pagination `json:"pagination"`
}

// Service описывает интерфейс бизнес-логики для получения списка задач.
type Service interface {
	List(ctx context.Context, ownerID string, filter models.TaskFilter, page, limit int) ([]*models.Task, models.Pagination, error)
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
// @Summary Список задач
// @Description Возвращает задачи текущего пользователя от новых к старым. Некорректные page и limit заменяются значениями по умолчанию.
// @Tags Tasks
// @Produce  json
// @Security BearerAuth
// @Param page query int false "Номер страницы" default(1)
// @Param limit query int false "Размер страницы" default(10)
// @Param status query string false "Фильтр по статусу" Enums(pending, done, all)
// @Param search query string false "Подстрока в заголовке или описании"
// @Success 200 {object} Response
// @Failure 400 {object} response.ErrorResponse "Неизвестный статус"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /tasks [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.task.list"
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

	q := r.URL.Query()
	// нечисловые значения превращаются в 0, сервис подставит значения по умолчанию
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	filter := models.TaskFilter{Search: q.Get("search")}
	if s := q.Get("status"); s != "" {
		status := models.TaskStatus(s)
		filter.Status = &status
	}

	tasks, pagination, err := h.service.List(r.Context(), userID, filter, page, limit)
	if err != nil {
		log.Error("failed to list tasks", sl.Err(err))
		response.Fail(w, r, err)
		return
	}

	log.Debug("tasks listed", slog.Int("count", len(tasks)), slog.Int("total", pagination.Total))
	render.JSON(w, r, Response{
		Tasks:      tasks,
		Pagination: pagination,
	})
}
