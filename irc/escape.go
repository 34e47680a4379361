package irc

import "strings"

// UnescapeTagValue раскодирует значение тега по таблице IRCv3:
// \: -> ';', \s -> ' ', \\ -> '\', \r -> CR, \n -> LF.
// Неизвестная пара \x превращается в x, одиночный '\' в конце отбрасывается.
func UnescapeTagValue(value string) string {
	if strings.IndexByte(value, '\\') < 0 {
		return value
	}

	var b strings.Builder
	b.Grow(len(value))
	for i := 0; i < len(value); i++ {
		c := value[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		if i+1 >= len(value) {
			break
		}
		i++
		switch value[i] {
		case ':':
			b.WriteByte(';')
		case 's':
			b.WriteByte(' ')
		case 'r':
			b.WriteByte('\r')
		case 'n':
			b.WriteByte('\n')
		default:
			b.WriteByte(value[i])
		}
	}
	return b.String()
}
