package task

import "time"

// SetNow подменяет часы сервиса в тестах.
func SetNow(s *TaskService, now func() time.Time) {
	s.now = now
}
