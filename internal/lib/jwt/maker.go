// Package jwt реализует генерацию и парсинг сессионных JWT токенов.
//
// Токен подписывается HS256 и содержит только ID пользователя, собственный
// идентификатор (jti) и окно действия. Хэш пароля в токен никогда не попадает.
package jwt

import (
	"time"
)

// Maker описывает интерфейс для генерации и парсинга JWT токенов.
type Maker interface {
	// GenerateToken создаёт подписанный токен для пользователя и возвращает его claims.
	GenerateToken(userID string) (string, *CustomClaims, error)
	// ParseToken проверяет подпись и срок действия и возвращает claims.
	ParseToken(tokenStr string) (*CustomClaims, error)
}

// MakerImpl реализует интерфейс Maker с использованием секретного ключа
// и времени жизни токена (TTL).
type MakerImpl struct {
	secretKey string        // Секретный ключ для подписи токенов.
	tokenTTL  time.Duration // Время жизни токена.
	now       func() time.Time
}

// NewJWTMaker создаёт новый экземпляр MakerImpl на основе секретного ключа и TTL.
func NewJWTMaker(secretKey string, ttl time.Duration) *MakerImpl {
	return &MakerImpl{
		secretKey: secretKey,
		tokenTTL:  ttl,
		now:       time.Now,
	}
}

// TTL возвращает время жизни выдаваемых токенов.
func (j *MakerImpl) TTL() time.Duration {
	return j.tokenTTL
}
