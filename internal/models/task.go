package models

import (
	"strings"
	"time"
)

// TaskStatus — статус задачи.
type TaskStatus string

const (
	// StatusPending — задача ещё не выполнена (значение по умолчанию).
	StatusPending TaskStatus = "pending"
	// StatusDone — задача выполнена.
	StatusDone TaskStatus = "done"
	// StatusAll — подстановочное значение фильтра, означает "любой статус".
	StatusAll TaskStatus = "all"
)

const (
	// TitleMaxLen — максимальная длина заголовка в символах.
	TitleMaxLen = 100
	// DescriptionMaxLen — максимальная длина описания в символах.
	DescriptionMaxLen = 500
)

// Valid сообщает, является ли статус допустимым значением задачи.
func (s TaskStatus) Valid() bool {
	return s == StatusPending || s == StatusDone
}

// Task — единица работы, принадлежащая ровно одному пользователю.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      TaskStatus `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	OwnerID     string     `json:"ownerId"`
}

// Matches проверяет задачу на соответствие фильтру.
// Используется хранилищами, которые фильтруют в памяти.
func (t *Task) Matches(f TaskFilter) bool {
	if f.Status != nil && *f.Status != StatusAll && t.Status != *f.Status {
		return false
	}
	search := strings.ToLower(strings.TrimSpace(f.Search))
	if search == "" {
		return true
	}
	return strings.Contains(strings.ToLower(t.Title), search) ||
		strings.Contains(strings.ToLower(t.Description), search)
}

// TaskFilter — параметры фильтрации списка задач. Условия объединяются через AND.
type TaskFilter struct {
	Status *TaskStatus // nil или StatusAll — без фильтра по статусу
	Search string      // подстрока в заголовке или описании без учёта регистра; пустая — без фильтра
}

// CreateTask — данные для создания задачи. Необязательные поля — указатели.
type CreateTask struct {
	Title       string      `json:"title" validate:"required,max=100"`
	Description *string     `json:"description,omitempty" validate:"omitempty,max=500"`
	Status      *TaskStatus `json:"status,omitempty" validate:"omitempty,oneof=pending done"`
}

// TaskUpdate — частичное обновление задачи: меняются только переданные поля.
type TaskUpdate struct {
	Title       *string     `json:"title,omitempty" validate:"omitempty,min=1,max=100"`
	Description *string     `json:"description,omitempty" validate:"omitempty,max=500"`
	Status      *TaskStatus `json:"status,omitempty" validate:"omitempty,oneof=pending done"`
}

// Empty сообщает, что в обновлении нет ни одного поля.
func (u TaskUpdate) Empty() bool {
	return u.Title == nil && u.Description == nil && u.Status == nil
}

// Apply применяет переданные поля к задаче.
func (u TaskUpdate) Apply(t *Task) {
	if u.Title != nil {
		t.Title = *u.Title
	}
	if u.Description != nil {
		t.Description = *u.Description
	}
	if u.Status != nil {
		t.Status = *u.Status
	}
}
