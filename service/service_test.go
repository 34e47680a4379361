package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"twitch-chat-client/config"
	"twitch-chat-client/model"
	"twitch-chat-client/twitch"
)

type scriptedConn struct {
	mu     sync.Mutex
	frames []string
	sent   []string
}

func (c *scriptedConn) ReadFrame() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.frames) == 0 {
		return "", io.EOF
	}
	f := c.frames[0]
	c.frames = c.frames[1:]
	return f, nil
}

func (c *scriptedConn) WriteLine(line string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, line)
	return nil
}

func (c *scriptedConn) Close() error { return nil }

type scriptedDialer struct{ conn *scriptedConn }

func (d scriptedDialer) Dial(context.Context, string) (twitch.Conn, error) { return d.conn, nil }

type stubQueue struct{ messages []model.ChatMessage }

func (q *stubQueue) Enqueue(m model.ChatMessage) bool {
	q.messages = append(q.messages, m)
	return true
}

type stubDB struct{ sql []string }

func (d *stubDB) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	d.sql = append(d.sql, sql)
	return pgconn.CommandTag{}, nil
}

func TestServiceForwardsEventsToStorage(t *testing.T) {
	conn := &scriptedConn{frames: []string{
		"@id=m1;tmi-sent-ts=1700000000000 :u!u@u PRIVMSG #chan :hello",
		":u!u@u PRIVMSG #chan :no id",
		"@room-id=5;slow=3 :tmi.twitch.tv ROOMSTATE #chan",
		"@msg-id=slow_on :tmi.twitch.tv NOTICE #chan :slow mode",
	}}
	queue := &stubQueue{}
	db := &stubDB{}
	handler := &Handler{batcher: queue, db: db, flushTimeout: time.Second}

	client := twitch.NewClient(config.TwitchConfig{Channel: "chan"}, handler, twitch.WithDialer(scriptedDialer{conn: conn}))
	err := New(client).Run(context.Background())
	if !errors.Is(err, twitch.ErrConnectionClosed) {
		t.Fatalf("expected ErrConnectionClosed, got %v", err)
	}

	if len(queue.messages) != 1 || queue.messages[0].ID != "m1" {
		t.Fatalf("unexpected queued messages: %+v", queue.messages)
	}
	if len(db.sql) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(db.sql))
	}
	if !strings.Contains(db.sql[0], "channel_room_states") || !strings.Contains(db.sql[1], "channel_notices") {
		t.Fatalf("unexpected statements: %v", db.sql)
	}
	if client.Session().State() != twitch.StateClosed {
		t.Fatalf("unexpected state %s", client.Session().State())
	}
}

func TestHandlerWithoutStorageOnlyLogs(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	h := NewHandler(nil, nil, time.Second)
	if h.batcher != nil || h.db != nil {
		t.Fatalf("expected handler without storage, got %+v", h)
	}

	h.HandleChat(context.Background(), model.ChatMessage{Channel: "chan", Username: "u", Text: "hi"})
	h.HandleNotice(context.Background(), model.Notice{Channel: "chan", ID: "slow_on", Message: "slow mode"})
	h.HandleRoomState(context.Background(), model.RoomState{Channel: "#chan", Attributes: map[string]string{"slow": "3"}})

	out := buf.String()
	for _, want := range []string{
		"#chan <u> hi",
		"service: NOTICE #chan [slow_on] slow mode",
		"service: ROOMSTATE #chan map[slow:3]",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("log output %q does not contain %q", out, want)
		}
	}
}
