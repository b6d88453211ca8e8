// Package auth содержит логику регистрации, входа и выхода пользователей.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/task-tracker/internal/lib/errs"
	"github.com/magabrotheeeer/task-tracker/internal/lib/jwt"
	"github.com/magabrotheeeer/task-tracker/internal/lib/password"
	"github.com/magabrotheeeer/task-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/task-tracker/internal/models"
)

// UserRepository описывает контракт для работы с пользователями в хранилище.
type UserRepository interface {
	// CreateUser сохраняет нового пользователя и возвращает его ID.
	// Повтор email возвращает errs.ErrDuplicateEmail.
	CreateUser(ctx context.Context, user models.User) (string, error)
	// GetUserByEmail возвращает пользователя или errs.ErrNotFound.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// PasswordHasher хэширует пароли и сверяет их с хэшем.
type PasswordHasher interface {
	GetHash(password string) (string, error)
	CompareHash(hash, password string) error
}

// SessionRevoker отзывает выданные сессии.
type SessionRevoker interface {
	Revoke(ctx context.Context, identity *models.Identity) error
}

// AuthService отвечает за регистрацию, вход и выход.
type AuthService struct {
	users    UserRepository
	hasher   PasswordHasher
	jwtMaker jwt.Maker
	sessions SessionRevoker
	log      *slog.Logger
}

// NewAuthService создает новый экземпляр AuthService.
func NewAuthService(users UserRepository, hasher PasswordHasher, jwtMaker jwt.Maker,
	sessions SessionRevoker, log *slog.Logger) *AuthService {
	return &AuthService{
		users:    users,
		hasher:   hasher,
		jwtMaker: jwtMaker,
		sessions: sessions,
		log:      log,
	}
}

// Register создаёт пользователя и возвращает его ID.
//
// Сначала выполняется одна проверка существования email, затем одна вставка.
// Проигравший гонку параллельной регистрации получает errs.ErrDuplicateEmail
// от уникального индекса хранилища.
func (s *AuthService) Register(ctx context.Context, name, email, rawPassword string) (string, error) {
	const op = "auth.Register"
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" || rawPassword == "" {
		return "", fmt.Errorf("%s: %w", op, errs.Validation("name, email, and password are required"))
	}
	if len(rawPassword) > password.MaxBytes {
		return "", fmt.Errorf("%s: %w", op, errs.Validation(password.MsgTooLong))
	}

	_, err := s.users.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		return "", fmt.Errorf("%s: %w", op, errs.ErrDuplicateEmail)
	case !errors.Is(err, errs.ErrNotFound):
		return "", fmt.Errorf("%s: %w", op, err)
	}

	hashed, err := s.hasher.GetHash(rawPassword)
	if errors.Is(err, errs.ErrValidation) {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w: %w", op, errs.ErrInternal, err)
	}
	id, err := s.users.CreateUser(ctx, models.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: hashed,
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("user registered", slog.String("user_id", id))
	return id, nil
}

// Login проверяет пароль и выдаёт подписанный сессионный токен.
//
// Неизвестный email возвращается как errs.ErrNotFound, неверный пароль
// как errs.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, rawPassword string) (string, *models.Identity, error) {
	const op = "auth.Login"
	email = strings.TrimSpace(email)
	if email == "" || rawPassword == "" {
		return "", nil, fmt.Errorf("%s: %w", op, errs.Validation("email and password are required"))
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.hasher.CompareHash(user.PasswordHash, rawPassword); err != nil {
		if errors.Is(err, errs.ErrInvalidCredentials) {
			return "", nil, fmt.Errorf("%s: %w", op, errs.ErrInvalidCredentials)
		}
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}

	token, claims, err := s.jwtMaker.GenerateToken(user.ID)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w: %w", op, errs.ErrInternal, err)
	}
	identity := &models.Identity{
		UserID:  user.ID,
		TokenID: claims.ID,
	}
	if claims.ExpiresAt != nil {
		identity.ExpiresAt = claims.ExpiresAt.Time
	}
	return token, identity, nil
}

// Logout отзывает сессию, если подключён список отозванных токенов.
func (s *AuthService) Logout(ctx context.Context, identity *models.Identity) error {
	const op = "auth.Logout"
	if s.sessions == nil || identity == nil {
		return nil
	}
	if err := s.sessions.Revoke(ctx, identity); err != nil {
		s.log.Warn("failed to revoke session",
			sl.Op(op),
			slog.String("user_id", identity.UserID),
			slog.Time("expires_at", identity.ExpiresAt.Truncate(time.Second)),
			sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
