package service

import (
	"context"
	"log"
	"time"

	"twitch-chat-client/model"
	"twitch-chat-client/storage"
	"twitch-chat-client/twitch"
)

// Service управляет жизненным циклом Twitch клиента.
type Service struct {
	client *twitch.Client
}

// New создаёт Service с уже собранным Twitch клиентом.
func New(client *twitch.Client) *Service {
	return &Service{client: client}
}

// Run подключает Twitch клиент и блокируется до отмены контекста или закрытия соединения.
func (s *Service) Run(ctx context.Context) error {
	return s.client.Run(ctx)
}

// chatQueue — очередь сообщений на запись (storage.Batcher).
type chatQueue interface {
	Enqueue(model.ChatMessage) bool
}

// Handler реализует twitch.Handler и перенаправляет события в хранилище.
// Без базы данных события только логируются.
type Handler struct {
	batcher      chatQueue
	db           storage.Execer
	flushTimeout time.Duration
}

// NewHandler собирает Handler, используемый Twitch колбэками.
// batcher и db могут быть nil, если хранилище не настроено.
func NewHandler(batcher *storage.Batcher, db storage.Execer, flushTimeout time.Duration) *Handler {
	h := &Handler{db: db, flushTimeout: flushTimeout}
	if batcher != nil {
		h.batcher = batcher
	}
	return h
}

// HandleChat помещает сообщения чата в очередь батчера.
func (h *Handler) HandleChat(_ context.Context, msg model.ChatMessage) {
	if h.batcher == nil {
		log.Printf("#%s <%s> %s", msg.Channel, msg.Username, msg.Text)
		return
	}
	if msg.ID == "" {
		log.Printf("service: сообщение без id в канале %s пропущено", msg.Channel)
		return
	}
	if ok := h.batcher.Enqueue(msg); !ok {
		log.Printf("батчер: сообщение для канала %s отброшено", msg.Channel)
	}
}

// HandleNotice сохраняет notice-событие напрямую через пул БД.
func (h *Handler) HandleNotice(ctx context.Context, notice model.Notice) {
	if h.db == nil {
		log.Printf("service: NOTICE #%s [%s] %s", notice.Channel, notice.ID, notice.Message)
		return
	}
	if err := storage.SaveNotice(ctx, h.db, notice, h.flushTimeout); err != nil {
		log.Printf("ошибка сохранения NOTICE для #%s: %v", notice.Channel, err)
	}
}

// HandleRoomState сохраняет новое состояние канала.
func (h *Handler) HandleRoomState(ctx context.Context, state model.RoomState) {
	if h.db == nil {
		log.Printf("service: ROOMSTATE %s %v", state.Channel, state.Attributes)
		return
	}
	if err := storage.SaveRoomState(ctx, h.db, state, h.flushTimeout); err != nil {
		log.Printf("ошибка сохранения ROOMSTATE для %s: %v", state.Channel, err)
	}
}
