package twitch

import (
	"log"
	"strconv"
	"strings"
	"time"

	"twitch-chat-client/irc"
	"twitch-chat-client/model"
)

const (
	actionPrefix = "\x01ACTION "
	actionSuffix = "\x01"
)

func (s *Session) handlePrivmsg(raw irc.RawMessage) {
	msg, ok := toChatMessage(raw)
	if !ok {
		log.Printf("twitch[%s]: PRIVMSG без канала: %s", s.shortID(), raw.Raw)
		return
	}
	s.fireMessage(msg)
}

// handleRoomState обновляет состояние канала тегами сообщения; теги,
// которых нет в сообщении, сохраняют прежние значения.
func (s *Session) handleRoomState(raw irc.RawMessage) {
	channel := raw.Param(0)
	if channel == "" {
		log.Printf("twitch[%s]: ROOMSTATE без канала: %s", s.shortID(), raw.Raw)
		return
	}

	s.roomsMu.Lock()
	state, ok := s.rooms[channel]
	if !ok {
		state = model.NewRoomState(channel)
		s.rooms[channel] = state
	}
	state.Apply(raw.Tags, time.Now().UTC())
	updated := state.Clone()
	s.roomsMu.Unlock()

	s.fireRoomState(channel, updated)
}

func (s *Session) handleNotice(raw irc.RawMessage) {
	s.fireNotice(toNotice(raw))
}

func (s *Session) handleReconnect(_ irc.RawMessage) {
	log.Printf("twitch[%s]: сервер запросил RECONNECT", s.shortID())
	s.fireReconnect()
}

func toChatMessage(raw irc.RawMessage) (model.ChatMessage, bool) {
	channel := raw.Param(0)
	if channel == "" {
		return model.ChatMessage{}, false
	}

	badges := parseBadges(raw.Tag("badges"))
	text, action := stripAction(raw.Trailing)

	return model.ChatMessage{
		ID:           raw.Tag("id"),
		Channel:      normalizeChannel(channel),
		RoomID:       raw.Tag("room-id"),
		UserID:       raw.Tag("user-id"),
		Username:     raw.Nick(),
		DisplayName:  irc.UnescapeTagValue(raw.Tag("display-name")),
		Text:         text,
		Badges:       badges,
		Color:        raw.Tag("color"),
		IsMod:        badges["moderator"] > 0 || badges["broadcaster"] > 0 || raw.Tag("mod") == "1",
		IsSubscriber: badges["subscriber"] > 0 || raw.Tag("subscriber") == "1",
		FirstMessage: raw.Tag("first-msg") == "1",
		Action:       action,
		Bits:         atoi(raw.Tag("bits")),
		Tags:         unescapeTags(raw.Tags),
		SentAt:       tagTimestamp(raw.Tags),
	}, true
}

func toNotice(raw irc.RawMessage) model.Notice {
	return model.Notice{
		Channel:  normalizeChannel(raw.Param(0)),
		ID:       raw.Tag("msg-id"),
		Message:  raw.Trailing,
		Tags:     unescapeTags(raw.Tags),
		NoticeAt: tagTimestamp(raw.Tags),
	}
}

// parseBadges разбирает "moderator/1,subscriber/12" в map[имя]версия.
// Нечисловая версия считается за 1, чтобы бейдж оставался заметным.
func parseBadges(value string) map[string]int {
	badges := make(map[string]int)
	if value == "" {
		return badges
	}
	for _, entry := range strings.Split(value, ",") {
		name, version, _ := strings.Cut(entry, "/")
		if name == "" {
			continue
		}
		n, err := strconv.Atoi(version)
		if err != nil {
			n = 1
		}
		badges[name] = n
	}
	return badges
}

func stripAction(text string) (string, bool) {
	if strings.HasPrefix(text, actionPrefix) && strings.HasSuffix(text, actionSuffix) {
		return text[len(actionPrefix) : len(text)-len(actionSuffix)], true
	}
	return text, false
}

func unescapeTags(tags map[string]string) map[string]string {
	out := make(map[string]string, len(tags))
	for k, v := range tags {
		out[k] = irc.UnescapeTagValue(v)
	}
	return out
}

func tagTimestamp(tags map[string]string) time.Time {
	if ts := tags["tmi-sent-ts"]; ts != "" {
		if ms, err := strconv.ParseInt(ts, 10, 64); err == nil {
			return time.UnixMilli(ms).UTC()
		}
	}

	return time.Now().UTC()
}

func normalizeChannel(ch string) string {
	return strings.TrimPrefix(strings.TrimSpace(ch), "#")
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
