// Package session проверяет сессионные токены и ведёт список отозванных сессий.
package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/magabrotheeeer/task-tracker/internal/lib/errs"
	"github.com/magabrotheeeer/task-tracker/internal/lib/jwt"
	"github.com/magabrotheeeer/task-tracker/internal/models"
)

// TokenParser проверяет подпись и срок действия токена.
type TokenParser interface {
	ParseToken(tokenStr string) (*jwt.CustomClaims, error)
}

// Denylist хранит идентификаторы отозванных токенов.
type Denylist interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// Verifier превращает токен в Identity. Denylist необязателен: без него
// отзыв не поддерживается, и Revoke ничего не делает.
type Verifier struct {
	tokens   TokenParser
	denylist Denylist
	now      func() time.Time
}

// NewVerifier создаёт Verifier. denylist может быть nil.
func NewVerifier(tokens TokenParser, denylist Denylist) *Verifier {
	return &Verifier{
		tokens:   tokens,
		denylist: denylist,
		now:      time.Now,
	}
}

// Verify проверяет токен без обращения к хранилищу.
// Любая проблема с токеном возвращается как errs.ErrUnauthenticated.
func (v *Verifier) Verify(token string) (*models.Identity, error) {
	const op = "session.Verify"
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, fmt.Errorf("%s: missing token: %w", op, errs.ErrUnauthenticated)
	}
	claims, err := v.tokens.ParseToken(token)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %s", op, errs.ErrUnauthenticated, err.Error())
	}
	identity := &models.Identity{
		UserID:  claims.UserID,
		TokenID: claims.ID,
	}
	if claims.ExpiresAt != nil {
		identity.ExpiresAt = claims.ExpiresAt.Time
	}
	return identity, nil
}

// Enabled сообщает, подключён ли список отозванных сессий.
func (v *Verifier) Enabled() bool {
	return v.denylist != nil
}

// Revoke отзывает токен до момента его истечения.
func (v *Verifier) Revoke(ctx context.Context, identity *models.Identity) error {
	const op = "session.Revoke"
	if v.denylist == nil || identity == nil || identity.TokenID == "" {
		return nil
	}
	if err := v.denylist.Revoke(ctx, identity.TokenID, identity.ExpiresAt.Sub(v.now())); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// IsRevoked проверяет токен по списку отозванных.
func (v *Verifier) IsRevoked(ctx context.Context, identity *models.Identity) (bool, error) {
	const op = "session.IsRevoked"
	if v.denylist == nil || identity == nil || identity.TokenID == "" {
		return false, nil
	}
	revoked, err := v.denylist.IsRevoked(ctx, identity.TokenID)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return revoked, nil
}
