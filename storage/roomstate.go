package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"twitch-chat-client/model"
)

// SaveRoomState сохраняет последнее известное состояние канала (upsert по каналу).
func SaveRoomState(ctx context.Context, db Execer, state model.RoomState, timeout time.Duration) error {
	dbCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	attrsJSON, err := json.Marshal(state.Attributes)
	if err != nil {
		return fmt.Errorf("room state: encode attributes: %w", err)
	}

	updatedAt := state.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	_, err = db.Exec(dbCtx, `
insert into channel_room_states (
  channel, room_id, attributes, updated_at
) values ($1, $2, $3, $4)
on conflict (channel) do update set
  room_id = excluded.room_id,
  attributes = excluded.attributes,
  updated_at = excluded.updated_at;
`, strings.TrimPrefix(state.Channel, "#"), state.RoomID(), attrsJSON, updatedAt.UTC())

	return err
}
