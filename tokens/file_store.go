package tokens

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const TOKEN_FILE = ".secrets/twitch_chat_token.json"

// FileTokenStore сохраняет токен чата в JSON файле.
type FileTokenStore struct {
	Path string
}

type fileToken struct {
	Access    string `json:"access"`
	ExpiresAt string `json:"expires_at,omitempty"`
}

func (store FileTokenStore) tokenPath() string {
	if strings.TrimSpace(store.Path) == "" {
		return TOKEN_FILE
	}
	return store.Path
}

// LoadChatToken загружает токен чата из JSON файла.
func (store FileTokenStore) LoadChatToken() (*Token, error) {
	path := store.tokenPath()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load chat token: read file: %w", err)
	}

	var payload fileToken
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("load chat token: decode json: %w", err)
	}

	token := &Token{Access: payload.Access}
	if payload.ExpiresAt != "" {
		expiresAt, err := time.Parse(time.RFC3339, payload.ExpiresAt)
		if err != nil {
			return nil, fmt.Errorf("load chat token: parse expires_at: %w", err)
		}
		token.ExpiresAt = expiresAt
	}

	return token, nil
}

// SaveChatToken сохраняет токен чата в JSON файл с правами 0600.
func (store FileTokenStore) SaveChatToken(token Token) error {
	path := store.tokenPath()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("save chat token: create dir: %w", err)
	}

	payload := fileToken{Access: token.Access}
	if !token.ExpiresAt.IsZero() {
		payload.ExpiresAt = token.ExpiresAt.Format(time.RFC3339)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("save chat token: encode json: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("save chat token: write file: %w", err)
	}
	if err := os.Chmod(path, 0o600); err != nil {
		return fmt.Errorf("save chat token: chmod file: %w", err)
	}

	return nil
}
