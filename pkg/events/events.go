package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ItIsRain/OneToOne-sub009/pkg/logger"
	"github.com/nats-io/nats.go"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Close() error
}

type Subscriber interface {
	Subscribe(subject string, handler func(msg *Message)) error
	QueueSubscribe(subject, queue string, handler func(msg *Message)) error
	Close() error
}

type EventBus interface {
	Publisher
	Subscriber
}

type Message struct {
	Subject   string
	Data      []byte
	Timestamp time.Time
	ID        string
}

type NATSEventBus struct {
	conn *nats.Conn
}

func NewNATSEventBus(url string) (*NATSEventBus, error) {
	conn, err := nats.Connect(url)
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

	logger.DebugContext(ctx, "Publishing event", "subject", subject, "data", string(payload))

	return n.conn.Publish(subject, payload)
}

func (n *NATSEventBus) Subscribe(subject string, handler func(msg *Message)) error {
	_, err := n.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(&Message{
			Subject:   msg.Subject,
			Data:      msg.Data,
			Timestamp: time.Now(),
			ID:        fmt.Sprintf("%d", time.Now().UnixNano()),
		})
	})
	return err
}

func (n *NATSEventBus) QueueSubscribe(subject, queue string, handler func(msg *Message)) error {
	_, err := n.conn.QueueSubscribe(subject, queue, func(msg *nats.Msg) {
		handler(&Message{
			Subject:   msg.Subject,
			Data:      msg.Data,
			Timestamp: time.Now(),
			ID:        fmt.Sprintf("%d", time.Now().UnixNano()),
		})
	})
	return err
}

func (n *NATSEventBus) Close() error {
	n.conn.Close()
	return nil
}

// Trigger subjects. Delivery is best-effort, at-most-once: the appointment is
// already committed by the time these fire, so publish failures are logged and
// never propagated to the caller.
const (
	BookingCreated  = "booking.created"
	BookingCanceled = "booking.canceled"

	PageCreated = "booking_page.created"
	PageUpdated = "booking_page.updated"

	AvailabilityChanged = "availability.changed"
)

// Event payloads. One struct per subject so field names cannot drift between
// producer and consumers.
type BookingCreatedEvent struct {
	AppointmentID int64     `json:"appointment_id"`
	TenantID      int64     `json:"tenant_id"`
	BookingPageID int64     `json:"booking_page_id"`
	MemberID      *int64    `json:"member_id,omitempty"`
	ClientName    string    `json:"client_name"`
	ClientEmail   string    `json:"client_email"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	Source        string    `json:"source"`
	CreatedAt     time.Time `json:"created_at"`
}

type BookingCanceledEvent struct {
	AppointmentID int64     `json:"appointment_id"`
	TenantID      int64     `json:"tenant_id"`
	ClientEmail   string    `json:"client_email"`
	Reason        string    `json:"reason"`
	CanceledAt    time.Time `json:"canceled_at"`
}

type PageChangedEvent struct {
	PageID   int64  `json:"page_id"`
	TenantID int64  `json:"tenant_id"`
	Slug     string `json:"slug"`
}

type AvailabilityChangedEvent struct {
	TenantID int64 `json:"tenant_id"`
	MemberID int64 `json:"member_id"`
}
