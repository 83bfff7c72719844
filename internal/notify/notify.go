// Package notify delivers library events (new memberships, fulfilled
// reservations, password resets) to the messaging fabric. Events are queued
// in Redis first so a broker outage never fails the originating request.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"sarasavi/pkg/domain"
)

// Event routing keys on the topic exchange.
const (
	KindMemberCreated       = "member.created"
	KindReservationReceived = "reservation.received"
	KindPasswordReset       = "user.password_reset"

	defaultExchange = "sarasavi.events"
)

// MemberCreatedEvent is mailed to new members with their member ID.
type MemberCreatedEvent struct {
	MemberID       string                `json:"memberId"`
	Email          string                `json:"email"`
	FirstName      string                `json:"firstName"`
	MembershipType domain.MembershipType `json:"membershipType"`
	ExpiryDate     time.Time             `json:"expiryDate"`
}

// ReservationReceivedEvent tells a member their reserved copy is ready.
type ReservationReceivedEvent struct {
	ReservationID string `json:"reservationId"`
	MemberID      string `json:"memberId"`
	BookID        string `json:"bookId"`
}

// PasswordResetEvent carries the reset token for the mailer.
type PasswordResetEvent struct {
	Email string `json:"email"`
	Token string `json:"token"`
}

// Publisher delivers one serialized event under a routing key.
type Publisher interface {
	Publish(ctx context.Context, kind string, payload []byte) error
}

// AMQPPublisher publishes events to a RabbitMQ topic exchange.
type AMQPPublisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

// NewAMQPPublisher dials the broker and declares the exchange.
func NewAMQPPublisher(url, exchange string) (*AMQPPublisher, error) {
	if exchange == "" {
		exchange = defaultExchange
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &AMQPPublisher{conn: conn, ch: ch, exchange: exchange}, nil
}

// Publish sends one persistent JSON message under the given routing key.
func (p *AMQPPublisher) Publish(ctx context.Context, kind string, payload []byte) error {
	return p.ch.PublishWithContext(ctx, p.exchange, kind, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         payload,
	})
}

// Close releases the channel and connection.
func (p *AMQPPublisher) Close() error {
	if err := p.ch.Close(); err != nil {
		_ = p.conn.Close()
		return err
	}
	return p.conn.Close()
}

// LogPublisher writes events to the log. Used when no broker is configured.
type LogPublisher struct{}

func (LogPublisher) Publish(_ context.Context, kind string, payload []byte) error {
	slog.Info("notify_event", "kind", kind, "payload", string(payload))
	return nil
}

// Encode marshals an event payload for publishing.
func Encode(event any) ([]byte, error) {
	return json.Marshal(event)
}
