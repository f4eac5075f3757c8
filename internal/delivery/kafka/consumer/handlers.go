package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/IBM/sarama"
	"github.com/vogiaan1904/ticketbottle-booking/internal/delivery/kafka"
	"github.com/vogiaan1904/ticketbottle-booking/internal/service"
)

// HandleSessionAbandoned frees the queue slot of a user whose client went
// away. Users no longer in the queue are acknowledged silently.
func (c *Consumer) HandleSessionAbandoned(ctx context.Context, message *sarama.ConsumerMessage) error {
	var e kafka.SessionAbandonedEvent
	if err := json.Unmarshal(message.Value, &e); err != nil {
		c.l.Errorf(ctx, "delivery.kafka.consumer.HandleSessionAbandoned: %v", err)
		return err
	}
	if e.UserID == "" {
		return fmt.Errorf("session abandoned event without user id at offset %d", message.Offset)
	}

	ctx = c.l.WithFields(ctx, "user_id", e.UserID)
	c.l.Info(ctx, "HandleSessionAbandoned consumed", "reason", e.Reason)

	err := c.queueSvc.Remove(ctx, e.UserID, kafka.LeftReasonAbandoned)
	if err != nil && !errors.Is(err, service.ErrUserNotInQueue) {
		c.l.Errorf(ctx, "delivery.kafka.consumer.HandleSessionAbandoned: %v", err)
		return err
	}

	return nil
}
