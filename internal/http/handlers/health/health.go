// Package health реализует проверку живости сервиса.
package health

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/task-tracker/internal/lib/sl"
)

const pingTimeout = 2 * time.Second

// Pinger — зависимость, доступность которой проверяется при запросе.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Response — тело ответа проверки.
type Response struct {
	Status string            `json:"status" example:"ok"`
	Checks map[string]string `json:"checks,omitempty"`
}

type Handler struct {
	log     *slog.Logger
	pingers map[string]Pinger
}

// New создаёт Handler. Зависимости с nil-значением пропускаются.
func New(log *slog.Logger, pingers map[string]Pinger) *Handler {
	checked := make(map[string]Pinger, len(pingers))
	for name, p := range pingers {
		if p != nil {
			checked[name] = p
		}
	}
	return &Handler{
		log:     log,
		pingers: checked,
	}
}

// ServeHTTP godoc
// @Summary Проверка живости
// @Description Возвращает ok, если сервис и его зависимости доступны.
// @Tags Health
// @Produce  json
// @Success 200 {object} Response
// @Failure 503 {object} Response "Зависимость недоступна"
// @Router /health [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.health"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
	defer cancel()

	resp := Response{Status: "ok"}
	status := http.StatusOK
	if len(h.pingers) > 0 {
		resp.Checks = make(map[string]string, len(h.pingers))
	}
	for name, p := range h.pingers {
		if err := p.Ping(ctx); err != nil {
			log.Warn("dependency is unavailable", slog.String("dependency", name), sl.Err(err))
			resp.Checks[name] = "unavailable"
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}

	render.Status(r, status)
	render.JSON(w, r, resp)
}
