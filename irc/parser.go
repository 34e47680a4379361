package irc

import "strings"

// IsValid быстро проверяет, что строка похожа на сообщение протокола:
// после необязательных тегов и префикса есть слово-команда.
// Никогда не паникует.
func IsValid(line string) bool {
	rest := strings.TrimRight(line, "\r\n")
	if strings.TrimSpace(rest) == "" {
		return false
	}

	if strings.HasPrefix(rest, "@") {
		i := strings.IndexByte(rest, ' ')
		if i < 0 {
			return false
		}
		rest = strings.TrimLeft(rest[i+1:], " ")
	}

	if strings.HasPrefix(rest, ":") {
		i := strings.IndexByte(rest, ' ')
		if i < 0 {
			return false
		}
		rest = strings.TrimLeft(rest[i+1:], " ")
	}

	command, _, _ := strings.Cut(rest, " ")
	return isCommand(command)
}

func isCommand(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		default:
			return false
		}
	}
	return true
}

// Parse разбирает строку слева направо: теги, префикс, команда, средние
// параметры и trailing. Вызывать только после IsValid: для невалидной строки
// результат может быть заполнен частично (например, с пустым Type).
func Parse(line string) RawMessage {
	msg := RawMessage{
		Raw:  line,
		Tags: map[string]string{},
	}
	rest := strings.TrimRight(line, "\r\n")

	if strings.HasPrefix(rest, "@") {
		block, remainder, _ := strings.Cut(rest[1:], " ")
		parseTags(block, msg.Tags)
		rest = strings.TrimLeft(remainder, " ")
	}

	if strings.HasPrefix(rest, ":") {
		prefix, remainder, _ := strings.Cut(rest[1:], " ")
		msg.Prefix = prefix
		rest = strings.TrimLeft(remainder, " ")
	}

	msg.Type, rest, _ = strings.Cut(rest, " ")

	for rest != "" {
		rest = strings.TrimLeft(rest, " ")
		if rest == "" {
			break
		}
		if rest[0] == ':' {
			msg.Trailing = rest[1:]
			msg.HasTrailing = true
			break
		}

		var param string
		param, rest, _ = strings.Cut(rest, " ")
		msg.Params = append(msg.Params, param)
	}

	return msg
}

func parseTags(block string, tags map[string]string) {
	block = strings.TrimSuffix(block, ";")
	if block == "" {
		return
	}
	for _, entry := range strings.Split(block, ";") {
		if entry == "" {
			continue
		}
		key, value, _ := strings.Cut(entry, "=")
		tags[key] = value
	}
}
