package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/aarons2222/letlog/internal/platform/timeouts"
)

// Queue is the durable queue notifications are published to. A single
// queue with a type field keeps the consumer topology flat.
const Queue = "letlog.notifications"

type envelope struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// AMQPNotifier publishes engine events to a RabbitMQ queue.
type AMQPNotifier struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

// DialAMQP connects to a broker and declares the notification queue.
func DialAMQP(url string) (*AMQPNotifier, error) {
	if strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("amqp url is required")
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}
	if _, err := channel.QueueDeclare(
		Queue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	); err != nil {
		_ = channel.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}
	return &AMQPNotifier{conn: conn, channel: channel}, nil
}

// Close releases the channel and connection.
func (n *AMQPNotifier) Close() error {
	if n == nil {
		return nil
	}
	if n.channel != nil {
		if err := n.channel.Close(); err != nil {
			return err
		}
	}
	if n.conn != nil {
		return n.conn.Close()
	}
	return nil
}

// InvitationIssued publishes an invitation event.
func (n *AMQPNotifier) InvitationIssued(ctx context.Context, event InvitationIssued) error {
	return n.publish(ctx, "invitation.issued", event)
}

// TenancyEnded publishes a tenancy-ended event.
func (n *AMQPNotifier) TenancyEnded(ctx context.Context, event TenancyEnded) error {
	return n.publish(ctx, "tenancy.ended", event)
}

func (n *AMQPNotifier) publish(ctx context.Context, eventType string, payload any) error {
	if n == nil || n.channel == nil {
		return fmt.Errorf("notifier is not connected")
	}
	body, err := json.Marshal(envelope{Type: eventType, Payload: payload})
	if err != nil {
		return fmt.Errorf("encode %s event: %w", eventType, err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeouts.NotifyPublish)
	defer cancel()

	err = n.channel.PublishWithContext(
		ctx,
		"",    // default exchange
		Queue, // routing key
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish %s event: %w", eventType, err)
	}
	return nil
}

var _ Notifier = (*AMQPNotifier)(nil)
