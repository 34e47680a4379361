package twitch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"twitch-chat-client/config"
	"twitch-chat-client/model"
)

// newIRCServer поднимает websocket-сервер, который ждёт рукопожатие,
// шлёт сценарий кадров, ждёт PONG и закрывает соединение с причиной.
func newIRCServer(t *testing.T, frames []string, received chan<- string) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		readLine := func() (string, bool) {
			conn.SetReadDeadline(time.Now().Add(2 * time.Second))
			_, data, err := conn.ReadMessage()
			if err != nil {
				return "", false
			}
			line := string(data)
			received <- line
			return line, true
		}

		for {
			line, ok := readLine()
			if !ok {
				return
			}
			if strings.HasPrefix(line, "JOIN") {
				break
			}
		}

		for _, f := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
				t.Errorf("write frame: %v", err)
				return
			}
		}

		for {
			line, ok := readLine()
			if !ok {
				return
			}
			if line == pongLine {
				break
			}
		}

		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "bye"),
			time.Now().Add(time.Second))
		conn.ReadMessage()
	}))
}

func TestWebsocketSessionEndToEnd(t *testing.T) {
	received := make(chan string, 32)
	srv := newIRCServer(t, []string{
		"@slow=30 :tmi.twitch.tv ROOMSTATE #chan\r\n:u!u@u.tmi.twitch.tv PRIVMSG #chan :hi there\r\n",
		"PING :tmi.twitch.tv\r\n",
	}, received)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	s := NewSession(config.TwitchConfig{Username: "bot", OAuthToken: "oauth:x", Channel: "chan"}, WithURL(url))

	var messages []model.ChatMessage
	s.OnMessage(func(m model.ChatMessage) { messages = append(messages, m) })
	var reason string
	s.OnClose(func(r string) { reason = r })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := s.Run(ctx)
	require.ErrorIs(t, err, ErrConnectionClosed)
	assert.Contains(t, reason, "bye")

	require.Len(t, messages, 1)
	assert.Equal(t, "hi there", messages[0].Text)
	assert.Equal(t, "chan", messages[0].Channel)

	state, ok := s.RoomState("#chan")
	require.True(t, ok)
	assert.Equal(t, 30*time.Second, state.SlowDelay())

	close(received)
	var lines []string
	for l := range received {
		lines = append(lines, l)
	}
	assert.Equal(t, []string{
		"CAP REQ :twitch.tv/tags twitch.tv/commands twitch.tv/membership",
		"NICK bot",
		"PASS oauth:x",
		"JOIN #chan",
		pongLine,
	}, lines)
}

func TestWebsocketDialFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := WebsocketDialer{}.Dial(context.Background(), "ws"+strings.TrimPrefix(srv.URL, "http"))
	assert.Error(t, err)
}

func TestCloseReason(t *testing.T) {
	assert.Equal(t, "1000: done", closeReason(&websocket.CloseError{Code: websocket.CloseNormalClosure, Text: "done"}))
	assert.Equal(t, "1006", closeReason(&websocket.CloseError{Code: websocket.CloseAbnormalClosure}))
	assert.Equal(t, "closed", closeReason(nil))
}
