// Package task содержит бизнес-логику работы с задачами пользователя.
//
// Все операции ограничены владельцем: задача другого пользователя
// неотличима от несуществующей и возвращается как errs.ErrNotFound.
package task

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/magabrotheeeer/task-tracker/internal/lib/errs"
	"github.com/magabrotheeeer/task-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/task-tracker/internal/models"
)

const (
	// DefaultLimit — размер страницы, если limit не задан.
	DefaultLimit = 10
	// MaxLimit — верхняя граница limit по умолчанию.
	MaxLimit = 100

	maxPage = math.MaxInt32
)

var taskOperations = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "task_tracker_task_operations_total",
	Help: "Number of task operations by type and result.",
}, []string{"operation", "result"})

// TaskRepository определяет методы для работы с задачами в хранилище.
type TaskRepository interface {
	// CreateTask сохраняет задачу с уже назначенными ID и временем создания.
	CreateTask(ctx context.Context, task models.Task) error
	// GetTask возвращает задачу владельца или errs.ErrNotFound.
	GetTask(ctx context.Context, ownerID, taskID string) (*models.Task, error)
	// UpdateTask применяет переданные поля и возвращает итоговую задачу.
	UpdateTask(ctx context.Context, ownerID, taskID string, upd models.TaskUpdate) (*models.Task, error)
	// DeleteTask удаляет задачу владельца.
	DeleteTask(ctx context.Context, ownerID, taskID string) error
	// ListTasks возвращает страницу задач и общее число отфильтрованных.
	ListTasks(ctx context.Context, ownerID string, filter models.TaskFilter, limit, offset int) ([]*models.Task, int, error)
}

// EventPublisher публикует события изменения задач.
type EventPublisher interface {
	Publish(ctx context.Context, event models.TaskEvent) error
}

// NopPublisher ничего не публикует. Используется, когда брокер не настроен.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, models.TaskEvent) error { return nil }

// TaskService реализует операции над задачами с валидацией и пагинацией.
type TaskService struct {
	repo         TaskRepository
	events       EventPublisher
	log          *slog.Logger
	defaultLimit int
	maxLimit     int
	now          func() time.Time
}

// NewTaskService создаёт TaskService. Неположительные лимиты заменяются
// значениями по умолчанию, nil-публикатор заменяется NopPublisher.
func NewTaskService(repo TaskRepository, events EventPublisher, log *slog.Logger, defaultLimit, maxLimit int) *TaskService {
	if events == nil {
		events = NopPublisher{}
	}
	if defaultLimit <= 0 {
		defaultLimit = DefaultLimit
	}
	if maxLimit <= 0 {
		maxLimit = MaxLimit
	}
	if maxLimit < defaultLimit {
		maxLimit = defaultLimit
	}
	return &TaskService{
		repo:         repo,
		events:       events,
		log:          log,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
		now:          time.Now,
	}
}

// List возвращает страницу задач владельца и сведения о пагинации.
//
// page < 1 становится 1, limit < 1 становится лимитом по умолчанию,
// limit больше максимального обрезается.
func (s *TaskService) List(ctx context.Context, ownerID string, filter models.TaskFilter,
	page, limit int) ([]*models.Task, models.Pagination, error) {
	const op = "task.List"
	if ownerID == "" {
		return nil, models.Pagination{}, fmt.Errorf("%s: %w", op, errs.ErrUnauthenticated)
	}
	if filter.Status != nil && *filter.Status != models.StatusAll && !filter.Status.Valid() {
		return nil, models.Pagination{}, fmt.Errorf("%s: %w", op,
			errs.Validation(fmt.Sprintf("unknown status %q", *filter.Status)))
	}
	filter.Search = strings.TrimSpace(filter.Search)

	page, limit = s.normalizePage(page, limit)
	p := models.NewPagination(page, limit, 0)

	items, total, err := s.repo.ListTasks(ctx, ownerID, filter, limit, p.Offset())
	if err != nil {
		taskOperations.WithLabelValues("list", "error").Inc()
		return nil, models.Pagination{}, fmt.Errorf("%s: %w", op, err)
	}
	taskOperations.WithLabelValues("list", "ok").Inc()
	return items, models.NewPagination(page, limit, total), nil
}

func (s *TaskService) normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if page > maxPage {
		page = maxPage
	}
	if limit < 1 {
		limit = s.defaultLimit
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}
	return page, limit
}

// Create создаёт задачу. Описание по умолчанию пустое, статус pending.
func (s *TaskService) Create(ctx context.Context, ownerID string, req models.CreateTask) (*models.Task, error) {
	const op = "task.Create"
	if ownerID == "" {
		return nil, fmt.Errorf("%s: %w", op, errs.ErrUnauthenticated)
	}

	task := models.Task{
		ID:        uuid.NewString(),
		Title:     strings.TrimSpace(req.Title),
		Status:    models.StatusPending,
		CreatedAt: s.now().UTC().Truncate(time.Microsecond),
		OwnerID:   ownerID,
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.Status != nil {
		task.Status = *req.Status
	}
	if task.Title == "" {
		return nil, fmt.Errorf("%s: %w", op, errs.Validation("title is required"))
	}
	if err := validateFields(task.Title, task.Description, task.Status); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.repo.CreateTask(ctx, task); err != nil {
		taskOperations.WithLabelValues("create", "error").Inc()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	taskOperations.WithLabelValues("create", "ok").Inc()

	s.log.Info("task created", slog.String("task_id", task.ID), slog.String("owner_id", ownerID))
	s.publish(ctx, models.TaskCreated, &task)
	return &task, nil
}

// Get возвращает задачу владельца.
func (s *TaskService) Get(ctx context.Context, ownerID, taskID string) (*models.Task, error) {
	const op = "task.Get"
	if err := checkScope(ownerID, taskID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	task, err := s.repo.GetTask(ctx, ownerID, taskID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return task, nil
}

// Update меняет только переданные поля. Пустое обновление возвращает текущую задачу.
func (s *TaskService) Update(ctx context.Context, ownerID, taskID string, upd models.TaskUpdate) (*models.Task, error) {
	const op = "task.Update"
	if err := checkScope(ownerID, taskID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if upd.Title != nil {
		title := strings.TrimSpace(*upd.Title)
		if title == "" {
			return nil, fmt.Errorf("%s: %w", op, errs.Validation("title must not be empty"))
		}
		upd.Title = &title
	}
	if err := validateUpdate(upd); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if upd.Empty() {
		return s.Get(ctx, ownerID, taskID)
	}

	task, err := s.repo.UpdateTask(ctx, ownerID, taskID, upd)
	if err != nil {
		taskOperations.WithLabelValues("update", "error").Inc()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	taskOperations.WithLabelValues("update", "ok").Inc()

	s.publish(ctx, models.TaskUpdated, task)
	return task, nil
}

// Delete безвозвратно удаляет задачу владельца.
func (s *TaskService) Delete(ctx context.Context, ownerID, taskID string) error {
	const op = "task.Delete"
	if err := checkScope(ownerID, taskID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.repo.DeleteTask(ctx, ownerID, taskID); err != nil {
		taskOperations.WithLabelValues("delete", "error").Inc()
		return fmt.Errorf("%s: %w", op, err)
	}
	taskOperations.WithLabelValues("delete", "ok").Inc()

	s.log.Info("task deleted", slog.String("task_id", taskID), slog.String("owner_id", ownerID))
	s.publish(ctx, models.TaskDeleted, &models.Task{ID: taskID, OwnerID: ownerID})
	return nil
}

// publish отправляет событие. Ошибка брокера только логируется.
func (s *TaskService) publish(ctx context.Context, eventType models.TaskEventType, task *models.Task) {
	event := models.TaskEvent{
		Type:       eventType,
		TaskID:     task.ID,
		OwnerID:    task.OwnerID,
		OccurredAt: s.now().UTC(),
	}
	if eventType != models.TaskDeleted {
		event.Task = task
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.log.Warn("failed to publish task event",
			slog.String("type", string(eventType)),
			slog.String("task_id", task.ID),
			sl.Err(err))
	}
}

// checkScope отсекает пустого владельца и ID, которые не могут существовать.
// Некорректный ID неотличим от отсутствующей задачи.
func checkScope(ownerID, taskID string) error {
	if ownerID == "" {
		return errs.ErrUnauthenticated
	}
	if _, err := uuid.Parse(taskID); err != nil {
		return errs.ErrNotFound
	}
	return nil
}

func validateFields(title, description string, status models.TaskStatus) error {
	if n := utf8.RuneCountInString(title); n > models.TitleMaxLen {
		return errs.Validation(fmt.Sprintf("title must be at most %d characters", models.TitleMaxLen))
	}
	if n := utf8.RuneCountInString(description); n > models.DescriptionMaxLen {
		return errs.Validation(fmt.Sprintf("description must be at most %d characters", models.DescriptionMaxLen))
	}
	if !status.Valid() {
		return errs.Validation(fmt.Sprintf("unknown status %q", status))
	}
	return nil
}

func validateUpdate(upd models.TaskUpdate) error {
	var msgs []string
	if upd.Title != nil && utf8.RuneCountInString(*upd.Title) > models.TitleMaxLen {
		msgs = append(msgs, fmt.Sprintf("title must be at most %d characters", models.TitleMaxLen))
	}
	if upd.Description != nil && utf8.RuneCountInString(*upd.Description) > models.DescriptionMaxLen {
		msgs = append(msgs, fmt.Sprintf("description must be at most %d characters", models.DescriptionMaxLen))
	}
	if upd.Status != nil && !upd.Status.Valid() {
		msgs = append(msgs, fmt.Sprintf("unknown status %q", *upd.Status))
	}
	if len(msgs) == 0 {
		return nil
	}
	return errs.Validation(strings.Join(msgs, ", "))
}
