package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/diagnosis/visitor-register/pkg/logger"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
}

type Subscriber interface {
	QueueSubscribe(subject, queue string, handler func(msg *Message)) (Subscription, error)
}

type EventBus interface {
	Publisher
	Subscriber
	Close() error
}

type Subscription interface {
	Unsubscribe() error
}

type Message struct {
	Subject   string
	Data      []byte
	Timestamp time.Time
	ID        string
}

// Decode unmarshals the message payload into v.
func (m *Message) Decode(v any) error {
	if err := json.Unmarshal(m.Data, v); err != nil {
		return fmt.Errorf("decode %s event: %w", m.Subject, err)
	}
	return nil
}

type NATSEventBus struct {
	conn *nats.Conn
}

func NewNATSEventBus(url string) (*NATSEventBus, error) {
	conn, err := nats.Connect(url,
		nats.Name("visitor-register"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("NATS reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSEventBus{conn: conn}, nil
}

func (n *NATSEventBus) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	logger.DebugContext(ctx, "Publishing event", "subject", subject, "bytes", len(payload))

	return n.conn.Publish(subject, payload)
}

func (n *NATSEventBus) QueueSubscribe(subject, queue string, handler func(msg *Message)) (Subscription, error) {
	sub, err := n.conn.QueueSubscribe(subject, queue, func(msg *nats.Msg) {
		handler(&Message{
			Subject:   msg.Subject,
			Data:      msg.Data,
			Timestamp: time.Now(),
			ID:        uuid.NewString(),
		})
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// Close drains pending messages before closing the connection.
func (n *NATSEventBus) Close() error {
	if err := n.conn.Drain(); err != nil {
		n.conn.Close()
		return err
	}
	return nil
}

// Event subjects
const (
	VisitorCheckedIn  = "visitor.checked_in"
	VisitorCheckedOut = "visitor.checked_out"
	UserCreated       = "user.created"
)

// Event payloads
type VisitorCheckedInEvent struct {
	VisitorID      string    `json:"visitor_id"`
	Name           string    `json:"name"`
	IDNumber       string    `json:"id_number"`
	Organisation   string    `json:"organisation,omitempty"`
	PurposeOfVisit string    `json:"purpose_of_visit"`
	PersonForVisit string    `json:"person_for_visit"`
	HostID         *string   `json:"host_id,omitempty"`
	CheckInTime    time.Time `json:"check_in_time"`
}

type VisitorCheckedOutEvent struct {
	VisitorID    string    `json:"visitor_id"`
	IDNumber     string    `json:"id_number"`
	HostID       *string   `json:"host_id,omitempty"`
	CheckInTime  time.Time `json:"check_in_time"`
	CheckOutTime time.Time `json:"check_out_time"`
}

type UserCreatedEvent struct {
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	Organisation string    `json:"organisation"`
	CreatedAt    time.Time `json:"created_at"`
}
