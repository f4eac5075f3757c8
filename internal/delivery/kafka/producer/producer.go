package producer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/IBM/sarama"
	kafka "github.com/vogiaan1904/ticketbottle-booking/internal/delivery/kafka"
	"github.com/vogiaan1904/ticketbottle-booking/pkg/logger"
)

type Producer interface {
	PublishQueueJoined(ctx context.Context, event kafka.QueueJoinedEvent) error
	PublishQueueAdmitted(ctx context.Context, event kafka.QueueAdmittedEvent) error
	PublishQueueLeft(ctx context.Context, event kafka.QueueLeftEvent) error
	PublishBookingConfirmed(ctx context.Context, event kafka.BookingConfirmedEvent) error
	PublishBookingFailed(ctx context.Context, event kafka.BookingFailedEvent) error
	Close() error
}

type implProducer struct {
	l    logger.Logger
	prod sarama.SyncProducer
}

func NewProducer(prod sarama.SyncProducer, l logger.Logger) Producer {
	return &implProducer{
		l:    l,
		prod: prod,
	}
}

func (p *implProducer) PublishQueueJoined(ctx context.Context, event kafka.QueueJoinedEvent) error {
	event.Timestamp = time.Now()
	return p.send(ctx, "PublishQueueJoined", kafka.TopicQueueJoined, event.UserID, event)
}

func (p *implProducer) PublishQueueAdmitted(ctx context.Context, event kafka.QueueAdmittedEvent) error {
	event.Timestamp = time.Now()
	return p.send(ctx, "PublishQueueAdmitted", kafka.TopicQueueAdmitted, event.UserID, event)
}

func (p *implProducer) PublishQueueLeft(ctx context.Context, event kafka.QueueLeftEvent) error {
	event.Timestamp = time.Now()
	return p.send(ctx, "PublishQueueLeft", kafka.TopicQueueLeft, event.UserID, event)
}

func (p *implProducer) PublishBookingConfirmed(ctx context.Context, event kafka.BookingConfirmedEvent) error {
	event.Timestamp = time.Now()
	// Partition by seat so every outcome for one seat stays ordered
	return p.send(ctx, "PublishBookingConfirmed", kafka.TopicBookingConfirmed, event.SeatNumber, event)
}

func (p *implProducer) PublishBookingFailed(ctx context.Context, event kafka.BookingFailedEvent) error {
	event.Timestamp = time.Now()
	return p.send(ctx, "PublishBookingFailed", kafka.TopicBookingFailed, event.SeatNumber, event)
}

func (p *implProducer) send(ctx context.Context, op, topic, key string, event any) error {
	val, err := json.Marshal(event)
	if err != nil {
		p.l.Errorf(ctx, "delivery.kafka.producer.%s: %v", op, err)
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(val),
		Headers: []sarama.RecordHeader{
			{
				Key:   []byte("timestamp"),
				Value: []byte(time.Now().Format(time.RFC3339)),
			},
		},
	}

	if _, _, err = p.prod.SendMessage(msg); err != nil {
		p.l.Errorf(ctx, "delivery.kafka.producer.%s: %v", op, err)
		return err
	}

	return nil
}

func (p *implProducer) Close() error {
	if err := p.prod.Close(); err != nil {
		return err
	}

	return nil
}
