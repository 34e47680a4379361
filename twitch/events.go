package twitch

import (
	"sync"

	"twitch-chat-client/model"
)

// observers хранит подписчиков на события сессии. Подписчики вызываются
// синхронно, в порядке регистрации и в порядке поступления строк.
type observers struct {
	mu        sync.RWMutex
	connected []func()
	message   []func(model.ChatMessage)
	raw       []func(string)
	roomState []func(string, model.RoomState)
	notice    []func(model.Notice)
	reconnect []func()
	close     []func(string)
}

func snapshot[T any](mu *sync.RWMutex, fns *[]T) []T {
	mu.RLock()
	defer mu.RUnlock()
	return append([]T(nil), (*fns)...)
}

// OnConnected подписывает fn на успешную отправку рукопожатия.
func (s *Session) OnConnected(fn func()) {
	s.obs.mu.Lock()
	defer s.obs.mu.Unlock()
	s.obs.connected = append(s.obs.connected, fn)
}

// OnMessage подписывает fn на сообщения чата.
func (s *Session) OnMessage(fn func(model.ChatMessage)) {
	s.obs.mu.Lock()
	defer s.obs.mu.Unlock()
	s.obs.message = append(s.obs.message, fn)
}

// OnRawMessage подписывает fn на каждую входящую строку, кроме PING.
func (s *Session) OnRawMessage(fn func(string)) {
	s.obs.mu.Lock()
	defer s.obs.mu.Unlock()
	s.obs.raw = append(s.obs.raw, fn)
}

// OnRoomStateChange подписывает fn на обновления состояния канала.
func (s *Session) OnRoomStateChange(fn func(channel string, state model.RoomState)) {
	s.obs.mu.Lock()
	defer s.obs.mu.Unlock()
	s.obs.roomState = append(s.obs.roomState, fn)
}

// OnNotice подписывает fn на NOTICE-сообщения сервера.
func (s *Session) OnNotice(fn func(model.Notice)) {
	s.obs.mu.Lock()
	defer s.obs.mu.Unlock()
	s.obs.notice = append(s.obs.notice, fn)
}

// OnReconnect подписывает fn на RECONNECT от сервера. Переподключение — забота вызывающего.
func (s *Session) OnReconnect(fn func()) {
	s.obs.mu.Lock()
	defer s.obs.mu.Unlock()
	s.obs.reconnect = append(s.obs.reconnect, fn)
}

// OnClose подписывает fn на закрытие соединения; fn получает причину.
func (s *Session) OnClose(fn func(reason string)) {
	s.obs.mu.Lock()
	defer s.obs.mu.Unlock()
	s.obs.close = append(s.obs.close, fn)
}

func (s *Session) fireConnected() {
	for _, fn := range snapshot(&s.obs.mu, &s.obs.connected) {
		fn()
	}
}

func (s *Session) fireMessage(msg model.ChatMessage) {
	for _, fn := range snapshot(&s.obs.mu, &s.obs.message) {
		fn(msg)
	}
}

func (s *Session) fireRaw(line string) {
	for _, fn := range snapshot(&s.obs.mu, &s.obs.raw) {
		fn(line)
	}
}

func (s *Session) fireRoomState(channel string, state model.RoomState) {
	for _, fn := range snapshot(&s.obs.mu, &s.obs.roomState) {
		fn(channel, state)
	}
}

func (s *Session) fireNotice(notice model.Notice) {
	for _, fn := range snapshot(&s.obs.mu, &s.obs.notice) {
		fn(notice)
	}
}

func (s *Session) fireReconnect() {
	for _, fn := range snapshot(&s.obs.mu, &s.obs.reconnect) {
		fn()
	}
}

func (s *Session) fireClose(reason string) {
	for _, fn := range snapshot(&s.obs.mu, &s.obs.close) {
		fn(reason)
	}
}
