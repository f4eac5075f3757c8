package producer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	kafka "github.com/vogiaan1904/ticketbottle-booking/internal/delivery/kafka"
	"github.com/vogiaan1904/ticketbottle-booking/pkg/logger"
)

func TestPublishBookingConfirmed(t *testing.T) {
	sp := mocks.NewSyncProducer(t, nil)
	sp.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		if msg.Topic != kafka.TopicBookingConfirmed {
			t.Errorf("unexpected topic %s", msg.Topic)
		}
		key, _ := msg.Key.Encode()
		if string(key) != "A1" {
			t.Errorf("expected key A1, got %s", key)
		}
		raw, _ := msg.Value.Encode()
		var ev kafka.BookingConfirmedEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			return err
		}
		if ev.BookingID != 42 || ev.UserID != "alice" || ev.Timestamp.IsZero() {
			t.Errorf("unexpected event %+v", ev)
		}
		return nil
	})

	p := NewProducer(sp, logger.InitializeTestZapLogger())
	err := p.PublishBookingConfirmed(context.Background(), kafka.BookingConfirmedEvent{
		BookingID:  42,
		SeatNumber: "A1",
		UserID:     "alice",
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestPublishSurfacesBrokerErrors(t *testing.T) {
	sp := mocks.NewSyncProducer(t, nil)
	sp.ExpectSendMessageAndFail(errors.New("broker down"))

	p := NewProducer(sp, logger.InitializeTestZapLogger())
	err := p.PublishQueueLeft(context.Background(), kafka.QueueLeftEvent{UserID: "bob", Reason: kafka.LeftReasonExpired})
	if err == nil {
		t.Fatal("expected error")
	}
	p.Close()
}
