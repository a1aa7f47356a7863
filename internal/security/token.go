package security

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Scope ограничивает, какие эндпоинты принимают токен.
type Scope string

const (
	// ScopeSignup выдаётся после подтверждения кода/Telegram, когда
	// пользователя ещё нет: токен несёт email или telegram_id и разрешает
	// только завершение регистрации.
	ScopeSignup Scope = "signup"
	// ScopePrimaryUser — полная сессия, всегда несёт user_id.
	ScopePrimaryUser Scope = "primary_user"
)

var (
	ErrUnauthenticated = errors.New("security: not authenticated")
	ErrInvalidToken    = errors.New("security: invalid token")
	ErrTokenExpired    = errors.New("security: token is expired")
)

// Claims — проверенное содержимое cookie-токена. Сервер не хранит сессии,
// всё состояние живёт в подписанном токене на клиенте.
type Claims struct {
	UserID     int64  `json:"user_id,omitempty"`
	Email      string `json:"email,omitempty"`
	TelegramID int64  `json:"telegram_id,omitempty"`
	Scope      string `json:"scope"`
	jwt.RegisteredClaims
}

func (c *Claims) HasScope(s Scope) bool {
	for _, part := range strings.Fields(c.Scope) {
		if part == string(s) {
			return true
		}
	}
	return false
}

// TokenParams — идентичность, зашиваемая в токен при выдаче.
type TokenParams struct {
	Scopes     []Scope
	MaxAge     time.Duration
	UserID     int64
	Email      string
	TelegramID int64
}

// Manager выпускает и проверяет подписанные токены. Секрет и срок жизни
// приходят через конструктор, никаких глобальных конфигов.
type Manager struct {
	secret []byte
}

func NewManager(secret string) *Manager {
	return &Manager{secret: []byte(secret)}
}

// Issue подписывает токен с указанными scope и сроком. Инварианты:
// primary_user всегда с user_id, signup — никогда.
func (m *Manager) Issue(p TokenParams) (string, error) {
	scopes := make([]string, 0, len(p.Scopes))
	primary := false
	for _, s := range p.Scopes {
		scopes = append(scopes, string(s))
		if s == ScopePrimaryUser {
			primary = true
		}
	}
	if primary && p.UserID == 0 {
		return "", fmt.Errorf("security: primary_user scope requires user id")
	}
	if !primary && p.UserID != 0 {
		return "", fmt.Errorf("security: signup scope must not carry user id")
	}

	now := time.Now()
	claims := &Claims{
		UserID:     p.UserID,
		Email:      p.Email,
		TelegramID: p.TelegramID,
		Scope:      strings.Join(scopes, " "),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.MaxAge)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// Parse проверяет подпись и срок действия и возвращает claims как есть.
func (m *Manager) Parse(tokenStr string) (*Claims, error) {
	if tokenStr == "" {
		return nil, ErrUnauthenticated
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		// принимаем только HMAC
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
