package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/magabrotheeeer/task-tracker/internal/lib/errs"
	"github.com/magabrotheeeer/task-tracker/internal/models"
)

const taskColumns = `id, title, description, status, created_at, owner_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*models.Task, error) {
	var (
		t      models.Task
		status string
	)
	if err := row.Scan(&t.ID, &t.Title, &t.Description, &status, &t.CreatedAt, &t.OwnerID); err != nil {
		return nil, err
	}
	t.Status = models.TaskStatus(status)
	t.CreatedAt = t.CreatedAt.UTC()
	return &t, nil
}

// CreateTask вставляет новую задачу. ID и время создания назначает сервис.
func (s *Storage) CreateTask(ctx context.Context, task models.Task) error {
	const op = "storage.CreateTask"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO tasks (id, title, description, status, created_at, owner_id)
			  VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := s.DB.ExecContext(ctx, query,
		task.ID, task.Title, task.Description, string(task.Status), task.CreatedAt, task.OwnerID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetTask возвращает задачу владельца по её ID.
func (s *Storage) GetTask(ctx context.Context, ownerID, taskID string) (*models.Task, error) {
	const op = "storage.GetTask"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + taskColumns + `
			  FROM tasks
			  WHERE id = $1 AND owner_id = $2`
	task, err := scanTask(s.DB.QueryRowContext(ctx, query, taskID, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, errs.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return task, nil
}

// UpdateTask применяет к задаче владельца только переданные поля
// одним оператором UPDATE и возвращает итоговое состояние.
func (s *Storage) UpdateTask(ctx context.Context, ownerID, taskID string, upd models.TaskUpdate) (*models.Task, error) {
	const op = "storage.UpdateTask"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var status *string
	if upd.Status != nil {
		v := string(*upd.Status)
		status = &v
	}

	query := `UPDATE tasks
			  SET title = COALESCE($3, title),
			      description = COALESCE($4, description),
			      status = COALESCE($5, status)
			  WHERE id = $1 AND owner_id = $2
			  RETURNING ` + taskColumns
	task, err := scanTask(s.DB.QueryRowContext(ctx, query,
		taskID, ownerID, upd.Title, upd.Description, status))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, errs.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return task, nil
}

// DeleteTask безвозвратно удаляет задачу владельца.
func (s *Storage) DeleteTask(ctx context.Context, ownerID, taskID string) error {
	const op = "storage.DeleteTask"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `DELETE FROM tasks WHERE id = $1 AND owner_id = $2`
	result, err := s.DB.ExecContext(ctx, query, taskID, ownerID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, errs.ErrNotFound)
	}
	return nil
}

// ListTasks возвращает страницу задач владельца, отсортированных от новых к старым,
// и общее количество задач, прошедших фильтр.
func (s *Storage) ListTasks(ctx context.Context, ownerID string, filter models.TaskFilter,
	limit, offset int) ([]*models.Task, int, error) {
	const op = "storage.ListTasks"
	select {
	case <-ctx.Done():
		return nil, 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var status, pattern any
	if filter.Status != nil && *filter.Status != models.StatusAll {
		status = string(*filter.Status)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern = "%" + escapeLike(search) + "%"
	}

	where := `WHERE owner_id = $1
			    AND ($2::text IS NULL OR status = $2)
			    AND ($3::text IS NULL OR title ILIKE $3 ESCAPE '\' OR description ILIKE $3 ESCAPE '\')`

	var total int
	countQuery := `SELECT COUNT(*) FROM tasks ` + where
	if err := s.DB.QueryRowContext(ctx, countQuery, ownerID, status, pattern).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	query := `SELECT ` + taskColumns + `
			  FROM tasks ` + where + `
			  ORDER BY created_at DESC, id DESC
			  LIMIT $4 OFFSET $5`
	rows, err := s.DB.QueryContext(ctx, query, ownerID, status, pattern, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := []*models.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, task)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	return result, total, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike экранирует спецсимволы LIKE, чтобы поиск был буквальным.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
