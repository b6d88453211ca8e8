// Package logger настраивает slog под окружение запуска.
package logger

import (
	"io"
	"log/slog"

	"github.com/magabrotheeeer/task-tracker/internal/config"
)

// New возвращает логгер для окружения env: текстовый с уровнем Debug
// для local и dev, JSON с уровнем Info для prod.
func New(env string, w io.Writer) *slog.Logger {
	switch env {
	case config.EnvProd:
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}
