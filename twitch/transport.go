package twitch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeTimeout = 10 * time.Second

// Conn — упорядоченный надёжный канал текстовых кадров до сервера чата.
// Один кадр может содержать несколько строк, разделённых CRLF.
type Conn interface {
	ReadFrame() (string, error)
	WriteLine(line string) error
	Close() error
}

// Dialer открывает Conn по адресу.
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// WebsocketDialer открывает соединение через gorilla/websocket.
type WebsocketDialer struct {
	Dialer *websocket.Dialer
}

// Dial подключается к url и возвращает Conn с сериализованной записью.
func (d WebsocketDialer) Dial(ctx context.Context, url string) (Conn, error) {
	dialer := d.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}

	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}

	return &wsConn{conn: conn}, nil
}

type wsConn struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
	closed  bool
}

func (c *wsConn) ReadFrame() (string, error) {
	for {
		kind, data, err := c.conn.ReadMessage()
		if err != nil {
			return "", err
		}
		if kind != websocket.TextMessage {
			continue
		}
		return string(data), nil
	}
}

func (c *wsConn) WriteLine(line string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.closed {
		return ErrConnectionClosed
	}

	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, []byte(line))
}

func (c *wsConn) Close() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	message := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	c.conn.WriteControl(websocket.CloseMessage, message, time.Now().Add(time.Second))
	return c.conn.Close()
}

// closeReason превращает ошибку чтения в причину закрытия для логов и наблюдателей.
func closeReason(err error) string {
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		if closeErr.Text != "" {
			return fmt.Sprintf("%d: %s", closeErr.Code, closeErr.Text)
		}
		return fmt.Sprintf("%d", closeErr.Code)
	}
	if err == nil {
		return "closed"
	}
	return err.Error()
}
