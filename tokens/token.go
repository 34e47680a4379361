package tokens

import (
	"errors"
	"fmt"
	"time"
)

// ErrTokenExpired возвращается, когда сохранённый токен истёк или скоро истечёт.
var ErrTokenExpired = errors.New("chat token expired")

const expiryMargin = 5 * time.Minute

// Token описывает OAuth токен для входа в чат. Нулевой ExpiresAt — бессрочный токен.
type Token struct {
	Access    string
	ExpiresAt time.Time
}

// TokenStore описывает хранилище токена чата.
type TokenStore interface {
	LoadChatToken() (*Token, error)
	SaveChatToken(Token) error
}

// LoadChatToken загружает токен из хранилища и проверяет срок его действия.
func LoadChatToken(store TokenStore, now time.Time) (Token, error) {
	token, err := store.LoadChatToken()
	if err != nil {
		return Token{}, err
	}

	if isTokenExpiringSoon(token, now) {
		return Token{}, fmt.Errorf("load chat token: %w (expires_at %s)", ErrTokenExpired, token.ExpiresAt.Format(time.RFC3339))
	}

	return *token, nil
}

func isTokenExpiringSoon(token *Token, now time.Time) bool {
	if token.ExpiresAt.IsZero() {
		return false
	}
	return token.ExpiresAt.Before(now.Add(expiryMargin))
}
