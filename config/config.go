package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"twitch-chat-client/tokens"
)

// DefaultIRCURL — websocket-точка Twitch IRC.
const DefaultIRCURL = "wss://irc-ws.chat.twitch.tv:443"

// Config агрегирует значения конфигурации из переменных окружения.
type Config struct {
	Twitch   TwitchConfig
	Postgres PostgresConfig
	Batch    BatchConfig
	HTTPAddr string
}

// TwitchConfig содержит учётные данные и канал для сессии Twitch IRC.
// Все поля необязательны: без логина или токена сессия подключается анонимно,
// без канала заходит в канал пользователя.
type TwitchConfig struct {
	Username   string
	OAuthToken string
	Channel    string
	URL        string
}

// PostgresConfig хранит параметры подключения к пулу базы данных.
type PostgresConfig struct {
	Host     string
	Port     string
	DB       string
	User     string
	Password string
}

// DSN собирает строку подключения для pgx/pgxpool.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", p.User, p.Password, p.Host, p.Port, p.DB)
}

// Enabled сообщает, задана ли база данных.
func (p PostgresConfig) Enabled() bool {
	return p.Host != ""
}

func (p PostgresConfig) partial() bool {
	set := 0
	for _, v := range []string{p.Host, p.Port, p.DB, p.User, p.Password} {
		if v != "" {
			set++
		}
	}
	return set != 0 && set != 5
}

// BatchConfig задаёт параметры батчинга и флашей при записи чатов.
type BatchConfig struct {
	MaxBatch      int
	FlushEvery    time.Duration
	ChanBuffer    int
	StatsLogEvery time.Duration
	FlushTimeout  time.Duration
}

// Load читает переменные окружения и возвращает валидированную Config.
func Load() (Config, error) {
	cfg := Config{
		Twitch: TwitchConfig{
			Username:   strings.ToLower(strings.TrimSpace(os.Getenv("TWITCH_USERNAME"))),
			OAuthToken: strings.TrimSpace(os.Getenv("TWITCH_OAUTH_TOKEN")),
			Channel:    normalizeChannel(os.Getenv("TWITCH_CHANNEL")),
			URL:        envOr("TWITCH_IRC_URL", DefaultIRCURL),
		},
		Postgres: PostgresConfig{
			Host:     strings.TrimSpace(os.Getenv("POSTGRES_HOST")),
			Port:     strings.TrimSpace(os.Getenv("POSTGRES_PORT")),
			DB:       strings.TrimSpace(os.Getenv("POSTGRES_DB")),
			User:     strings.TrimSpace(os.Getenv("POSTGRES_USER")),
			Password: strings.TrimSpace(os.Getenv("POSTGRES_PASSWORD")),
		},
		Batch: BatchConfig{
			MaxBatch:      100,
			FlushEvery:    1500 * time.Millisecond,
			ChanBuffer:    4096,
			StatsLogEvery: 5 * time.Minute,
			FlushTimeout:  5 * time.Second,
		},
		HTTPAddr: envOr("HTTP_ADDR", ":8080"),
	}

	if cfg.Twitch.OAuthToken == "" {
		token, err := loadTokenFile(strings.TrimSpace(os.Getenv("TWITCH_TOKEN_FILE")))
		if err != nil {
			return Config{}, err
		}
		cfg.Twitch.OAuthToken = token
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) validate() error {
	if c.Twitch.URL == "" {
		return fmt.Errorf("требуется TWITCH_IRC_URL")
	}

	if c.Postgres.partial() {
		return fmt.Errorf("POSTGRES_HOST, POSTGRES_PORT, POSTGRES_DB, POSTGRES_USER и POSTGRES_PASSWORD задаются вместе")
	}

	if c.Batch.MaxBatch <= 0 {
		return fmt.Errorf("Batch.MaxBatch должен быть больше нуля")
	}
	if c.Batch.FlushEvery <= 0 {
		return fmt.Errorf("Batch.FlushEvery должен быть больше нуля")
	}
	if c.Batch.ChanBuffer <= 0 {
		return fmt.Errorf("Batch.ChanBuffer должен быть больше нуля")
	}
	if c.Batch.StatsLogEvery <= 0 {
		return fmt.Errorf("Batch.StatsLogEvery должен быть больше нуля")
	}
	if c.Batch.FlushTimeout <= 0 {
		return fmt.Errorf("Batch.FlushTimeout должен быть больше нуля")
	}

	return nil
}

// loadTokenFile читает токен из файла, если путь задан. Отсутствующий файл не ошибка.
func loadTokenFile(path string) (string, error) {
	if path == "" {
		return "", nil
	}

	token, err := tokens.LoadChatToken(tokens.FileTokenStore{Path: path}, time.Now())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("config: %w", err)
	}
	return token.Access, nil
}

func normalizeChannel(ch string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ch), "#"))
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(v)
	}
	return fallback
}
