package storage

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"twitch-chat-client/model"
)

// recordingSender запоминает аргументы каждой вставки по батчам.
type recordingSender struct {
	mu      sync.Mutex
	batches [][][]any
}

type noopResults struct{}

func (s *recordingSender) SendBatch(_ context.Context, b *pgx.Batch) pgx.BatchResults {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := make([][]any, 0, len(b.QueuedQueries))
	for _, q := range b.QueuedQueries {
		rows = append(rows, q.Arguments)
	}
	s.batches = append(s.batches, rows)
	return noopResults{}
}

func (s *recordingSender) rows() [][]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	var all [][]any
	for _, b := range s.batches {
		all = append(all, b...)
	}
	return all
}

func (s *recordingSender) batchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.batches)
}

func (noopResults) Exec() (pgconn.CommandTag, error) { return pgconn.CommandTag{}, nil }
func (noopResults) Query() (pgx.Rows, error)         { return nil, nil }
func (noopResults) QueryRow() pgx.Row                { return nil }
func (noopResults) Close() error                     { return nil }

func testBatchConfig(maxBatch int, flushEvery time.Duration) BatchConfig {
	return BatchConfig{
		MaxBatch:      maxBatch,
		FlushEvery:    flushEvery,
		ChanBuffer:    1000,
		StatsLogEvery: time.Hour,
		FlushTimeout:  time.Second,
	}
}

func chatMessage(id string) model.ChatMessage {
	return model.ChatMessage{ID: id, Channel: "ch", UserID: "u", Username: "name", Text: "hi", SentAt: time.Now()}
}

func waitForBatches(t *testing.T, sender *recordingSender, expected int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if sender.batchCount() >= expected {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected at least %d batches, got %d", expected, sender.batchCount())
}

func TestBatcherFlushesOnMaxBatch(t *testing.T) {
	sender := &recordingSender{}
	batcher := newBatcher(context.Background(), sender, testBatchConfig(2, time.Hour))
	defer batcher.Close()

	batcher.Enqueue(chatMessage("1"))
	batcher.Enqueue(chatMessage("2"))

	waitForBatches(t, sender, 1)
}

func TestBatcherFlushesOnTimer(t *testing.T) {
	sender := &recordingSender{}
	batcher := newBatcher(context.Background(), sender, testBatchConfig(10, 50*time.Millisecond))
	defer batcher.Close()

	batcher.Enqueue(chatMessage("1"))

	waitForBatches(t, sender, 1)
}

func TestBatcherCloseWritesEveryAcceptedMessage(t *testing.T) {
	sender := &recordingSender{}
	batcher := newBatcher(context.Background(), sender, testBatchConfig(1000, time.Hour))

	accepted := 0
	for i := 0; i < 500; i++ {
		if batcher.Enqueue(chatMessage(fmt.Sprint(i))) {
			accepted++
		}
	}
	batcher.Close()

	if accepted != 500 {
		t.Fatalf("expected 500 accepted messages, got %d", accepted)
	}
	if got := len(sender.rows()); got != accepted {
		t.Fatalf("expected %d rows after Close, got %d", accepted, got)
	}
}

func TestBatcherContextCancelDrainsQueue(t *testing.T) {
	sender := &recordingSender{}
	ctx, cancel := context.WithCancel(context.Background())
	batcher := newBatcher(ctx, sender, testBatchConfig(7, time.Hour))

	for i := 0; i < 50; i++ {
		batcher.Enqueue(chatMessage(fmt.Sprint(i)))
	}
	cancel()
	batcher.Close()

	if got := len(sender.rows()); got != 50 {
		t.Fatalf("expected 50 rows, got %d", got)
	}
	if batcher.Enqueue(chatMessage("late")) {
		t.Fatal("Enqueue after Close must be rejected")
	}
}

func TestBatcherQueuesNullableColumns(t *testing.T) {
	sender := &recordingSender{}
	batcher := newBatcher(context.Background(), sender, testBatchConfig(1, time.Hour))
	defer batcher.Close()

	batcher.Enqueue(model.ChatMessage{ID: "3", Channel: "ch", Username: "name", Text: "waves", Action: true, Bits: 50, SentAt: time.Now()})
	waitForBatches(t, sender, 1)

	args := sender.rows()[0]
	if len(args) != 15 {
		t.Fatalf("expected 15 arguments, got %d", len(args))
	}
	if args[0] != "3" || args[1] != "ch" {
		t.Fatalf("unexpected id/channel: %v %v", args[0], args[1])
	}
	if p, ok := args[2].(*string); !ok || p != nil {
		t.Fatalf("expected NULL room_id, got %#v", args[2])
	}
	if args[12] != true || args[13] != 50 {
		t.Fatalf("unexpected action/bits: %v %v", args[12], args[13])
	}
}
