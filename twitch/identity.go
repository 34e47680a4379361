package twitch

import (
	"strconv"

	"twitch-chat-client/config"
)

const (
	anonymousPrefix = "justinfan"
	anonymousMin    = 10000
	anonymousMax    = 1000000
)

// Identity — пара NICK/PASS, с которой сессия входит в чат.
type Identity struct {
	Nick      string
	Pass      string
	Anonymous bool
}

// resolveIdentity берёт учётные данные из конфигурации, а если логина
// или токена нет, генерирует анонимное имя justinfan<N>.
func resolveIdentity(cfg config.TwitchConfig, intn func(int) int) Identity {
	if cfg.Username == "" || cfg.OAuthToken == "" {
		return anonymousIdentity(intn)
	}
	return Identity{Nick: cfg.Username, Pass: cfg.OAuthToken}
}

func anonymousIdentity(intn func(int) int) Identity {
	n := strconv.Itoa(anonymousMin + intn(anonymousMax-anonymousMin))
	return Identity{
		Nick:      anonymousPrefix + n,
		Pass:      n,
		Anonymous: true,
	}
}

// resolveChannel возвращает канал для JOIN: настроенный или канал пользователя.
func resolveChannel(cfg config.TwitchConfig) string {
	if cfg.Channel != "" {
		return cfg.Channel
	}
	return cfg.Username
}
