// Package middlewarectx содержит HTTP middleware трекера: проверку сессии,
// ограничение частоты запросов и метрики Prometheus.
//
// SessionMiddleware берёт токен из заголовка Authorization (схема Bearer)
// или из сессионной cookie, проверяет его и кладёт ID пользователя и Identity
// в контекст запроса. Без валидной сессии возвращается 401 Unauthorized.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/task-tracker/internal/http/response"
	"github.com/magabrotheeeer/task-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/task-tracker/internal/models"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

const (
	// UserID — ключ для ID пользователя в контексте
	UserID Key = "user_id"
	// Identity — ключ для *models.Identity в контексте
	Identity Key = "identity"
)

// SessionVerifier проверяет токен и список отозванных сессий.
type SessionVerifier interface {
	Verify(token string) (*models.Identity, error)
	IsRevoked(ctx context.Context, identity *models.Identity) (bool, error)
}

// SessionMiddleware возвращает middleware, который пропускает только запросы с валидной сессией.
func SessionMiddleware(verifier SessionVerifier, cookieName string, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.SessionMiddleware"
			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			identity, err := verifier.Verify(tokenFromRequest(r, cookieName))
			if err != nil {
				log.Info("rejected request without valid session", sl.Err(err))
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("unauthorized"))
				return
			}

			revoked, err := verifier.IsRevoked(r.Context(), identity)
			if err != nil {
				log.Error("failed to check session revocation", sl.Err(err))
				response.Fail(w, r, err)
				return
			}
			if revoked {
				log.Info("rejected revoked session", slog.String("user_id", identity.UserID))
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("unauthorized"))
				return
			}

			ctx := context.WithValue(r.Context(), UserID, identity.UserID)
			ctx = context.WithValue(ctx, Identity, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// tokenFromRequest отдаёт приоритет заголовку Authorization перед cookie.
func tokenFromRequest(r *http.Request, cookieName string) string {
	if authHeader := r.Header.Get("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	if cookieName == "" {
		return ""
	}
	if c, err := r.Cookie(cookieName); err == nil {
		return c.Value
	}
	return ""
}

// IdentityFrom достаёт Identity, положенную SessionMiddleware.
func IdentityFrom(ctx context.Context) (*models.Identity, bool) {
	identity, ok := ctx.Value(Identity).(*models.Identity)
	return identity, ok && identity != nil
}
