package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/noah-isme/rotation-portal-api/internal/dto"
	"github.com/noah-isme/rotation-portal-api/pkg/middleware/requestid"
)

type amqpPublisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// DecisionNotifier publishes request decisions to the training center mail queue.
type DecisionNotifier struct {
	channel amqpPublisher
	queue   string
	logger  *zap.Logger
}

// NewDecisionNotifier constructs a notifier publishing to queue through the default exchange.
func NewDecisionNotifier(channel amqpPublisher, queue string, logger *zap.Logger) *DecisionNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DecisionNotifier{channel: channel, queue: queue, logger: logger}
}

// Publish sends the event as a persistent JSON message. The HTTP request id, when present, is
// forwarded as the correlation id.
func (n *DecisionNotifier) Publish(ctx context.Context, event dto.DecisionEvent) error {
	if n == nil || n.channel == nil {
		return nil
	}
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode decision event: %w", err)
	}
	msg := amqp.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp.Persistent,
		MessageId:     uuid.NewString(),
		CorrelationId: requestid.FromContext(ctx),
		Timestamp:     event.DecidedAt,
		Type:          "rotation_request." + string(event.Decision),
		Body:          body,
	}
	if err := n.channel.PublishWithContext(ctx, "", n.queue, false, false, msg); err != nil {
		return fmt.Errorf("publish decision event: %w", err)
	}
	n.logger.Debug("decision event published",
		zap.String("request_id", event.RequestID),
		zap.String("decision", string(event.Decision)),
	)
	return nil
}
