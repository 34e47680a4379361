package twitch

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"twitch-chat-client/config"
	"twitch-chat-client/irc"
	"twitch-chat-client/model"
)

const (
	CommandPrivmsg   = "PRIVMSG"
	CommandRoomState = "ROOMSTATE"
	CommandNotice    = "NOTICE"
	CommandReconnect = "RECONNECT"

	capabilities = "twitch.tv/tags twitch.tv/commands twitch.tv/membership"
	pongLine     = "PONG :tmi.twitch.tv"
)

var (
	// ErrConnectionClosed — соединение закрыто сервером или транспортом.
	ErrConnectionClosed = errors.New("twitch: connection closed")
	// ErrNotConnected — отправка без открытого соединения.
	ErrNotConnected = errors.New("twitch: not connected")
)

// State — стадия жизненного цикла сессии.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateAuthenticating
	StateJoined
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateAuthenticating:
		return "authenticating"
	case StateJoined:
		return "joined"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Option настраивает Session.
type Option func(*Session)

// WithDialer подменяет транспорт (по умолчанию gorilla/websocket).
func WithDialer(d Dialer) Option {
	return func(s *Session) { s.dialer = d }
}

// WithRandom задаёт источник случайных чисел [0, n) для анонимного имени.
func WithRandom(intn func(n int) int) Option {
	return func(s *Session) { s.intn = intn }
}

// WithURL переопределяет адрес сервера чата.
func WithURL(url string) Option {
	return func(s *Session) { s.url = url }
}

// Session владеет одним соединением с чатом: рукопожатием, keepalive
// и циклом разбора входящих строк. Строки обрабатываются строго по одной,
// обработчики и наблюдатели вызываются из этого же цикла.
type Session struct {
	id       string
	cfg      config.TwitchConfig
	url      string
	dialer   Dialer
	intn     func(int) int
	registry *Registry
	state    atomic.Int32
	obs      observers

	connMu sync.Mutex
	conn   Conn

	roomsMu sync.RWMutex
	rooms   map[string]*model.RoomState
}

// NewSession создаёт сессию и регистрирует встроенные обработчики
// PRIVMSG, ROOMSTATE, NOTICE и RECONNECT.
func NewSession(cfg config.TwitchConfig, opts ...Option) *Session {
	s := &Session{
		id:       uuid.NewString(),
		cfg:      cfg,
		url:      cfg.URL,
		dialer:   WebsocketDialer{},
		intn:     rand.Intn,
		registry: NewRegistry(),
		rooms:    make(map[string]*model.RoomState),
	}
	if s.url == "" {
		s.url = config.DefaultIRCURL
	}
	for _, opt := range opts {
		opt(s)
	}

	s.registry.Register(CommandPrivmsg, s.handlePrivmsg)
	s.registry.Register(CommandRoomState, s.handleRoomState)
	s.registry.Register(CommandNotice, s.handleNotice)
	s.registry.Register(CommandReconnect, s.handleReconnect)

	return s
}

// ID — уникальный идентификатор сессии.
func (s *Session) ID() string {
	return s.id
}

// State возвращает текущее состояние сессии.
func (s *Session) State() State {
	return State(s.state.Load())
}

// Register добавляет или заменяет обработчик типа сообщений.
func (s *Session) Register(msgType string, handler HandlerFunc) {
	s.registry.Register(msgType, handler)
}

// HandledTypes возвращает типы сообщений, для которых есть обработчик.
func (s *Session) HandledTypes() []string {
	return s.registry.Types()
}

// Run подключается, выполняет рукопожатие и читает строки до закрытия
// соединения или отмены контекста. Переподключение не выполняется.
func (s *Session) Run(ctx context.Context) error {
	s.setState(StateConnecting)

	conn, err := s.dialer.Dial(ctx, s.url)
	if err != nil {
		s.setState(StateDisconnected)
		return fmt.Errorf("twitch: dial %s: %w", s.url, err)
	}
	log.Printf("twitch[%s]: соединение открыто: %s", s.shortID(), s.url)

	s.resetRooms()
	s.connMu.Lock()
	s.conn = conn
	s.connMu.Unlock()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	if err := s.handshake(conn); err != nil {
		s.finish(conn, closeReason(err))
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("twitch: handshake: %w", err)
	}
	s.fireConnected()

	var readErr error
	for {
		frame, err := conn.ReadFrame()
		if err != nil {
			readErr = err
			break
		}
		s.handleFrame(frame)
	}

	if ctx.Err() != nil {
		s.finish(conn, ctx.Err().Error())
		return ctx.Err()
	}

	reason := closeReason(readErr)
	s.finish(conn, reason)
	return fmt.Errorf("%w: %s", ErrConnectionClosed, reason)
}

// Send отправляет произвольную строку протокола в открытое соединение.
func (s *Session) Send(line string) error {
	s.connMu.Lock()
	conn := s.conn
	s.connMu.Unlock()

	if conn == nil {
		return ErrNotConnected
	}
	return conn.WriteLine(line)
}

// RoomState возвращает копию состояния канала (ключ — имя канала с '#').
func (s *Session) RoomState(channel string) (model.RoomState, bool) {
	s.roomsMu.RLock()
	defer s.roomsMu.RUnlock()

	state, ok := s.rooms[channel]
	if !ok {
		return model.RoomState{}, false
	}
	return state.Clone(), true
}

// RoomStates возвращает копии состояний всех известных каналов.
func (s *Session) RoomStates() map[string]model.RoomState {
	s.roomsMu.RLock()
	defer s.roomsMu.RUnlock()

	out := make(map[string]model.RoomState, len(s.rooms))
	for ch, state := range s.rooms {
		out[ch] = state.Clone()
	}
	return out
}

func (s *Session) handshake(conn Conn) error {
	s.setState(StateAuthenticating)

	identity := resolveIdentity(s.cfg, s.intn)
	lines := []string{
		"CAP REQ :" + capabilities,
		"NICK " + identity.Nick,
		"PASS " + identity.Pass,
	}
	for _, line := range lines {
		if err := conn.WriteLine(line); err != nil {
			return err
		}
	}
	if identity.Anonymous {
		log.Printf("twitch[%s]: анонимный вход как %s", s.shortID(), identity.Nick)
	}

	channel := resolveChannel(s.cfg)
	if channel == "" {
		log.Printf("twitch[%s]: канал не задан, JOIN не отправляется", s.shortID())
		return nil
	}

	if err := conn.WriteLine("JOIN #" + channel); err != nil {
		return err
	}
	s.setState(StateJoined)
	log.Printf("twitch[%s]: подписка на канал #%s", s.shortID(), channel)
	return nil
}

func (s *Session) finish(conn Conn, reason string) {
	conn.Close()

	s.connMu.Lock()
	if s.conn == conn {
		s.conn = nil
	}
	s.connMu.Unlock()

	s.setState(StateClosed)
	log.Printf("twitch[%s]: соединение закрыто: %s", s.shortID(), reason)
	s.fireClose(reason)
}

func (s *Session) handleFrame(frame string) {
	for _, line := range strings.Split(frame, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		s.handleLine(line)
	}
}

// handleLine проводит одну строку через keepalive, наблюдателей, проверку,
// разбор и диспетчеризацию.
func (s *Session) handleLine(line string) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("twitch[%s]: ошибка обработки строки %q: %v", s.shortID(), line, rec)
		}
	}()

	if strings.HasPrefix(line, "PING") {
		if err := s.Send(pongLine); err != nil {
			log.Printf("twitch[%s]: не удалось отправить PONG: %v", s.shortID(), err)
		}
		return
	}

	s.fireRaw(line)

	if !irc.IsValid(line) {
		log.Printf("twitch[%s]: необработанное сообщение: %s", s.shortID(), line)
		return
	}

	msg := irc.Parse(line)
	if !s.registry.Dispatch(msg) {
		log.Printf("twitch[%s]: необработанное сообщение: %s", s.shortID(), line)
	}
}

func (s *Session) resetRooms() {
	s.roomsMu.Lock()
	defer s.roomsMu.Unlock()
	s.rooms = make(map[string]*model.RoomState)
}

func (s *Session) setState(state State) {
	s.state.Store(int32(state))
}

func (s *Session) shortID() string {
	return s.id[:8]
}
