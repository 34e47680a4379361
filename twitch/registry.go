package twitch

import (
	"log"
	"sort"
	"sync"

	"twitch-chat-client/irc"
)

// HandlerFunc обрабатывает разобранное сообщение одного типа.
// Наружу результат отдаётся только через события и общее состояние.
type HandlerFunc func(irc.RawMessage)

// Registry сопоставляет тип сообщения (команду протокола) с обработчиком.
// Повторная регистрация того же типа заменяет прежний обработчик.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]HandlerFunc
}

// NewRegistry создаёт пустой реестр.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]HandlerFunc)}
}

// Register добавляет или заменяет обработчик для msgType.
func (r *Registry) Register(msgType string, handler HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[msgType] = handler
}

// Dispatch синхронно вызывает обработчик для msg.Type и сообщает, был ли он найден.
// Паника обработчика перехватывается и логируется, чтобы поток строк не прерывался.
func (r *Registry) Dispatch(msg irc.RawMessage) (handled bool) {
	r.mu.RLock()
	handler, ok := r.handlers[msg.Type]
	r.mu.RUnlock()

	if !ok || handler == nil {
		return false
	}

	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("twitch: обработчик %s упал: %v (строка: %q)", msg.Type, rec, msg.Raw)
			handled = true
		}
	}()

	handler(msg)
	return true
}

// Types возвращает отсортированный список зарегистрированных типов.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.handlers))
	for t := range r.handlers {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
