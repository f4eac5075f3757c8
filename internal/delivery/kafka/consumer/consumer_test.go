package consumer

import (
	"context"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/vogiaan1904/ticketbottle-booking/config"
	"github.com/vogiaan1904/ticketbottle-booking/internal/clock"
	"github.com/vogiaan1904/ticketbottle-booking/internal/delivery/kafka"
	"github.com/vogiaan1904/ticketbottle-booking/internal/repository/memory"
	"github.com/vogiaan1904/ticketbottle-booking/internal/service"
	"github.com/vogiaan1904/ticketbottle-booking/pkg/logger"
)

func newQueue() service.QueueService {
	clk := clock.NewManual(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	cfg := config.QueueConfig{
		Pool:           "test",
		MaxActive:      1,
		ProcessingRate: 20,
		SessionTTL:     15 * time.Minute,
		TokenTTL:       2 * time.Hour,
	}
	return service.NewQueueService(memory.NewQueueRepository(clk), memory.NewNotifier(), nil, nil, clk, cfg, logger.InitializeTestZapLogger())
}

func TestHandleSessionAbandonedFreesSlot(t *testing.T) {
	ctx := context.Background()
	q := newQueue()
	c := NewConsumer(nil, q, logger.InitializeTestZapLogger())

	if _, err := q.Join(ctx, "alice"); err != nil {
		t.Fatalf("join: %v", err)
	}

	msg := &sarama.ConsumerMessage{
		Topic: kafka.TopicSessionAbandoned,
		Value: []byte(`{"user_id":"alice","reason":"tab closed"}`),
	}
	if err := c.processMessage(ctx, msg); err != nil {
		t.Fatalf("process: %v", err)
	}

	stats, _ := q.Stats(ctx)
	if stats.ActiveCount != 0 {
		t.Fatalf("alice's slot should be freed, stats=%+v", stats)
	}

	// redelivery is harmless
	if err := c.processMessage(ctx, msg); err != nil {
		t.Fatalf("redelivery should be acknowledged, got %v", err)
	}
}

func TestHandleSessionAbandonedRejectsBadPayload(t *testing.T) {
	ctx := context.Background()
	c := NewConsumer(nil, newQueue(), logger.InitializeTestZapLogger())

	for _, body := range []string{`not json`, `{"reason":"no user"}`} {
		msg := &sarama.ConsumerMessage{Topic: kafka.TopicSessionAbandoned, Value: []byte(body)}
		if err := c.processMessage(ctx, msg); err == nil {
			t.Fatalf("expected error for payload %q", body)
		}
	}

	unknown := &sarama.ConsumerMessage{Topic: "something.else", Value: []byte(`{}`)}
	if err := c.processMessage(ctx, unknown); err != nil {
		t.Fatalf("unknown topics are skipped, got %v", err)
	}
}
