// Package models содержит доменные структуры трекера задач: пользователя,
// задачу, параметры фильтрации и пагинации, а также события изменения задач.
package models

import "time"

// User представляет зарегистрированного пользователя системы.
type User struct {
	ID           string `json:"id"`    // Уникальный идентификатор пользователя
	Name         string `json:"name"`  // Отображаемое имя
	Email        string `json:"email"` // Электронная почта (уникальная)
	PasswordHash string `json:"-"`     // Хэш пароля, никогда не отдаётся клиенту
}

// Identity — личность вызывающего, извлечённая из сессионного токена.
type Identity struct {
	UserID    string    // ID владельца, которым ограничиваются все операции с задачами
	TokenID   string    // jti токена, ключ для списка отозванных сессий
	ExpiresAt time.Time // Момент истечения токена
}
