// Package memory реализует хранилище пользователей и задач в памяти процесса.
// Используется в тестах и при storage_driver: memory.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/magabrotheeeer/task-tracker/internal/lib/errs"
	"github.com/magabrotheeeer/task-tracker/internal/models"
)

// Storage хранит пользователей и задачи в map под одним RWMutex.
type Storage struct {
	mu      sync.RWMutex
	users   map[string]models.User
	byEmail map[string]string
	tasks   map[string]models.Task
}

// New создаёт пустое хранилище.
func New() *Storage {
	return &Storage{
		users:   make(map[string]models.User),
		byEmail: make(map[string]string),
		tasks:   make(map[string]models.Task),
	}
}

// Ping возвращает только ошибку контекста: внешнего соединения нет.
func (s *Storage) Ping(ctx context.Context) error {
	return ctx.Err()
}

// CreateUser сохраняет пользователя. Уникальность email проверяется под блокировкой.
func (s *Storage) CreateUser(ctx context.Context, user models.User) (string, error) {
	const op = "memory.CreateUser"
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byEmail[user.Email]; ok {
		return "", fmt.Errorf("%s: %w", op, errs.ErrDuplicateEmail)
	}
	s.users[user.ID] = user
	s.byEmail[user.Email] = user.ID
	return user.ID, nil
}

// GetUserByEmail ищет пользователя по email, при отсутствии возвращает errs.ErrNotFound.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "memory.GetUserByEmail"
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, errs.ErrNotFound)
	}
	user := s.users[id]
	return &user, nil
}

// CreateTask сохраняет задачу под её ID. Повторный ID даёт ошибку.
func (s *Storage) CreateTask(ctx context.Context, task models.Task) error {
	const op = "memory.CreateTask"
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[task.ID]; ok {
		return fmt.Errorf("%s: task %s already exists", op, task.ID)
	}
	s.tasks[task.ID] = task
	return nil
}

// GetTask возвращает задачу владельца. Чужая задача неотличима от отсутствующей.
func (s *Storage) GetTask(ctx context.Context, ownerID, taskID string) (*models.Task, error) {
	const op = "memory.GetTask"
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.tasks[taskID]
	if !ok || task.OwnerID != ownerID {
		return nil, fmt.Errorf("%s: %w", op, errs.ErrNotFound)
	}
	return &task, nil
}

// UpdateTask применяет частичное обновление к задаче владельца и возвращает результат.
func (s *Storage) UpdateTask(ctx context.Context, ownerID, taskID string, upd models.TaskUpdate) (*models.Task, error) {
	const op = "memory.UpdateTask"
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[taskID]
	if !ok || task.OwnerID != ownerID {
		return nil, fmt.Errorf("%s: %w", op, errs.ErrNotFound)
	}
	upd.Apply(&task)
	s.tasks[taskID] = task
	return &task, nil
}

// DeleteTask удаляет задачу владельца.
func (s *Storage) DeleteTask(ctx context.Context, ownerID, taskID string) error {
	const op = "memory.DeleteTask"
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[taskID]
	if !ok || task.OwnerID != ownerID {
		return fmt.Errorf("%s: %w", op, errs.ErrNotFound)
	}
	delete(s.tasks, taskID)
	return nil
}

// ListTasks фильтрует задачи владельца, сортирует от новых к старым
// (при равном времени по убыванию ID) и возвращает запрошенный срез.
func (s *Storage) ListTasks(ctx context.Context, ownerID string, filter models.TaskFilter,
	limit, offset int) ([]*models.Task, int, error) {
	const op = "memory.ListTasks"
	if err := ctx.Err(); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.RLock()
	matched := make([]models.Task, 0)
	for _, task := range s.tasks {
		if task.OwnerID == ownerID && task.Matches(filter) {
			matched = append(matched, task)
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	total := len(matched)
	result := []*models.Task{}
	if offset < 0 {
		offset = 0
	}
	if offset >= total || limit <= 0 {
		return result, total, nil
	}
	end := min(offset+limit, total)
	for i := offset; i < end; i++ {
		task := matched[i]
		result = append(result, &task)
	}
	return result, total, nil
}
