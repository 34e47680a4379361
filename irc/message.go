// Package irc разбирает строки протокола Twitch IRC в структурированные сообщения.
package irc

import "strings"

// RawMessage — одна разобранная входящая строка протокола.
type RawMessage struct {
	Raw    string
	Tags   map[string]string
	Prefix string
	Type   string
	Params []string

	// Trailing заполнен, только если HasTrailing == true: пустой trailing
	// (строка оканчивается на голый ':') отличается от отсутствующего.
	Trailing    string
	HasTrailing bool
}

// Nick возвращает ник источника из префикса вида nick!user@host.
func (m RawMessage) Nick() string {
	if i := strings.IndexByte(m.Prefix, '!'); i >= 0 {
		return m.Prefix[:i]
	}
	return m.Prefix
}

// Param возвращает i-й средний параметр или пустую строку.
func (m RawMessage) Param(i int) string {
	if i < 0 || i >= len(m.Params) {
		return ""
	}
	return m.Params[i]
}

// Tag возвращает значение тега без раскодирования.
func (m RawMessage) Tag(key string) string {
	return m.Tags[key]
}
