// Package httpapi отдаёт диагностическое состояние сессии чата по HTTP.
package httpapi

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"twitch-chat-client/model"
	"twitch-chat-client/twitch"
)

// SessionView — часть twitch.Session, доступная только для чтения.
type SessionView interface {
	ID() string
	State() twitch.State
	HandledTypes() []string
	RoomState(channel string) (model.RoomState, bool)
	RoomStates() map[string]model.RoomState
}

type healthResponse struct {
	SessionID    string   `json:"session_id"`
	State        string   `json:"state"`
	HandledTypes []string `json:"handled_types"`
}

type roomStateResponse struct {
	Channel    string            `json:"channel"`
	Attributes map[string]string `json:"attributes"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// NewRouter собирает маршруты /healthz, /rooms и /rooms/{channel}.
func NewRouter(view SessionView) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, healthResponse{
			SessionID:    view.ID(),
			State:        view.State().String(),
			HandledTypes: view.HandledTypes(),
		})
	})

	r.Get("/rooms", func(w http.ResponseWriter, _ *http.Request) {
		states := view.RoomStates()
		out := make(map[string]roomStateResponse, len(states))
		for ch, state := range states {
			out[ch] = toResponse(state)
		}
		writeJSON(w, http.StatusOK, out)
	})

	r.Get("/rooms/{channel}", func(w http.ResponseWriter, r *http.Request) {
		channel := "#" + strings.ToLower(strings.TrimPrefix(chi.URLParam(r, "channel"), "#"))
		state, ok := view.RoomState(channel)
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown channel " + channel})
			return
		}
		writeJSON(w, http.StatusOK, toResponse(state))
	})

	return r
}

func toResponse(state model.RoomState) roomStateResponse {
	return roomStateResponse{
		Channel:    state.Channel,
		Attributes: state.Attributes,
		UpdatedAt:  state.UpdatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("httpapi: encode response: %v", err)
	}
}
