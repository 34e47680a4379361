package storage

import (
	"context"
	"encoding/json"
	"log"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"twitch-chat-client/model"
)

const insertChatMessage = `
insert into chat_messages (
  message_id, channel, room_id, user_id, username, display_name, text, badges, color,
  is_mod, is_subscriber, is_first, is_action, bits, sent_at
) values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
on conflict (message_id) do nothing;`

// BatchConfig задаёт параметры батчинга для вставки сообщений.
type BatchConfig struct {
	MaxBatch      int
	FlushEvery    time.Duration
	ChanBuffer    int
	StatsLogEvery time.Duration
	FlushTimeout  time.Duration
}

// Batcher асинхронно вставляет сообщения чата через pgx.Batch.
// Принятые Enqueue сообщения записываются даже при остановке:
// перед выходом очередь вычитывается до конца.
type Batcher struct {
	input   chan model.ChatMessage
	config  BatchConfig
	sender  batchSender
	dropped atomic.Uint64

	stop context.CancelFunc
	done chan struct{}
}

type batchSender interface {
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// NewBatcher создаёт батчер и запускает фоновые флаши.
// Батчер останавливается отменой ctx или вызовом Close.
func NewBatcher(ctx context.Context, pool *pgxpool.Pool, cfg BatchConfig) *Batcher {
	return newBatcher(ctx, pool, cfg)
}

func newBatcher(ctx context.Context, sender batchSender, cfg BatchConfig) *Batcher {
	ctx, stop := context.WithCancel(ctx)
	b := &Batcher{
		input:  make(chan model.ChatMessage, cfg.ChanBuffer),
		config: cfg,
		sender: sender,
		stop:   stop,
		done:   make(chan struct{}),
	}

	go b.run(ctx)

	return b
}

// Enqueue пытается добавить сообщение в очередь.
// Возвращает false при переполнении или после остановки батчера.
func (b *Batcher) Enqueue(msg model.ChatMessage) bool {
	select {
	case <-b.done:
		return false
	default:
	}

	select {
	case b.input <- msg:
		return true
	default:
		dropped := b.dropped.Add(1)
		if dropped%100 == 0 {
			log.Printf("батчер: очередь заполнена, всего отброшено %d сообщений", dropped)
		}
		return false
	}
}

// Dropped возвращает число сообщений, отброшенных из-за переполнения.
func (b *Batcher) Dropped() uint64 {
	return b.dropped.Load()
}

// Close останавливает батчер и ждёт, пока остаток очереди будет записан.
// Пул БД можно закрывать только после возврата Close.
func (b *Batcher) Close() {
	b.stop()
	<-b.done
}

// chatBatch накапливает вставки до очередного флаша.
type chatBatch struct {
	batch   *pgx.Batch
	pending int

	total    uint64
	interval uint64
}

func (c *chatBatch) add(msg model.ChatMessage) {
	if c.batch == nil {
		c.batch = &pgx.Batch{}
	}
	badgesJSON, _ := json.Marshal(msg.Badges)
	c.batch.Queue(insertChatMessage,
		msg.ID, msg.Channel, nullable(msg.RoomID), nullable(msg.UserID), msg.Username,
		nullable(msg.DisplayName), msg.Text, badgesJSON, nullable(msg.Color),
		msg.IsMod, msg.IsSubscriber, msg.FirstMessage, msg.Action, msg.Bits, msg.SentAt.UTC(),
	)
	c.pending++
}

func (b *Batcher) flush(c *chatBatch) {
	if c.pending == 0 {
		return
	}

	dbCtx, cancel := context.WithTimeout(context.Background(), b.config.FlushTimeout)
	defer cancel()

	if err := b.sender.SendBatch(dbCtx, c.batch).Close(); err != nil {
		log.Printf("батчер: ошибка флаша %d строк: %v", c.pending, err)
	}

	c.total += uint64(c.pending)
	c.interval += uint64(c.pending)
	c.batch = nil
	c.pending = 0
}

// drain забирает из очереди всё, что уже принято, без блокировки.
func (b *Batcher) drain(c *chatBatch) {
	for {
		select {
		case msg := <-b.input:
			c.add(msg)
			if c.pending >= b.config.MaxBatch {
				b.flush(c)
			}
		default:
			b.flush(c)
			return
		}
	}
}

func (b *Batcher) run(ctx context.Context) {
	defer close(b.done)

	flushTicker := time.NewTicker(b.config.FlushEvery)
	statsTicker := time.NewTicker(b.config.StatsLogEvery)
	defer flushTicker.Stop()
	defer statsTicker.Stop()

	var c chatBatch
	for {
		select {
		case <-ctx.Done():
			b.drain(&c)
			log.Printf("батчер: остановлен, всего вставлено строк = %d", c.total)
			return
		case <-flushTicker.C:
			b.flush(&c)
		case <-statsTicker.C:
			log.Printf("батчер: вставлено %d строк за %s (всего %d)", c.interval, b.config.StatsLogEvery, c.total)
			c.interval = 0
		case msg := <-b.input:
			c.add(msg)
			if c.pending >= b.config.MaxBatch {
				b.flush(&c)
			}
		}
	}
}

// nullable превращает пустую строку в NULL.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
