package model

import (
	"strconv"
	"time"
)

// RoomState — состояние канала, накапливаемое из ROOMSTATE-сообщений.
// Каждый тег обновляет одноимённый атрибут, остальные атрибуты сохраняются.
type RoomState struct {
	Channel    string
	Attributes map[string]string
	UpdatedAt  time.Time
}

// NewRoomState создаёт пустое состояние канала.
func NewRoomState(channel string) *RoomState {
	return &RoomState{
		Channel:    channel,
		Attributes: make(map[string]string),
	}
}

// Apply применяет пары тег/значение поверх текущих атрибутов.
func (r *RoomState) Apply(tags map[string]string, at time.Time) {
	if r.Attributes == nil {
		r.Attributes = make(map[string]string, len(tags))
	}
	for k, v := range tags {
		r.Attributes[k] = v
	}
	r.UpdatedAt = at
}

// Clone возвращает независимую копию.
func (r RoomState) Clone() RoomState {
	attrs := make(map[string]string, len(r.Attributes))
	for k, v := range r.Attributes {
		attrs[k] = v
	}
	r.Attributes = attrs
	return r
}

// RoomID возвращает тег room-id канала.
func (r RoomState) RoomID() string {
	return r.Attributes["room-id"]
}

// SlowDelay — задержка slow-режима; 0, если режим выключен или не известен.
func (r RoomState) SlowDelay() time.Duration {
	return time.Duration(r.intAttr("slow", 0)) * time.Second
}

// SubsOnly сообщает, включён ли режим только для подписчиков.
func (r RoomState) SubsOnly() bool {
	return r.Attributes["subs-only"] == "1"
}

// EmoteOnly сообщает, включён ли режим только смайлов.
func (r RoomState) EmoteOnly() bool {
	return r.Attributes["emote-only"] == "1"
}

// R9K сообщает, включён ли уникальный чат (r9k).
func (r RoomState) R9K() bool {
	return r.Attributes["r9k"] == "1"
}

// FollowersOnly возвращает минимальный стаж фолловера в минутах, -1 — режим выключен.
func (r RoomState) FollowersOnly() int {
	return r.intAttr("followers-only", -1)
}

func (r RoomState) intAttr(key string, fallback int) int {
	v, ok := r.Attributes[key]
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
