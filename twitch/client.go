package twitch

import (
	"context"
	"log"

	"twitch-chat-client/config"
	"twitch-chat-client/model"
)

// Handler принимает события сессии, преобразованные в доменные модели.
type Handler interface {
	HandleChat(context.Context, model.ChatMessage)
	HandleNotice(context.Context, model.Notice)
	HandleRoomState(context.Context, model.RoomState)
}

// Client связывает Session с Handler и отдаёт события в контексте Run.
type Client struct {
	session *Session
	handler Handler
	baseCtx context.Context
}

// NewClient создаёт сессию и подписывает handler на её события.
func NewClient(cfg config.TwitchConfig, handler Handler, opts ...Option) *Client {
	c := &Client{
		session: NewSession(cfg, opts...),
		handler: handler,
	}

	c.session.OnConnected(func() {
		log.Printf("twitch: подключено, сессия %s", c.session.ID())
	})

	c.session.OnMessage(func(m model.ChatMessage) {
		c.handler.HandleChat(c.context(), m)
	})

	c.session.OnRoomStateChange(func(_ string, state model.RoomState) {
		c.handler.HandleRoomState(c.context(), state)
	})

	c.session.OnNotice(func(n model.Notice) {
		c.handler.HandleNotice(c.context(), n)
	})

	c.session.OnReconnect(func() {
		log.Printf("twitch: сервер запросил RECONNECT, сессия %s", c.session.ID())
	})

	return c
}

// Session возвращает сессию клиента.
func (c *Client) Session() *Session {
	return c.session
}

// Run подключает сессию и блокируется до отмены контекста или закрытия соединения.
func (c *Client) Run(ctx context.Context) error {
	c.baseCtx = ctx
	return c.session.Run(ctx)
}

func (c *Client) context() context.Context {
	if c.baseCtx != nil {
		return c.baseCtx
	}
	return context.Background()
}
