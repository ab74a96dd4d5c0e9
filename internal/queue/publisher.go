package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Auditor records audit events.  Implementations must not block the
// request path for long and never panic.
type Auditor interface {
	Record(ctx context.Context, ev AuditEvent)
}

// Nop discards every event.
type Nop struct{}

func (Nop) Record(context.Context, AuditEvent) {}

// Publisher sends events to a durable RabbitMQ queue.  The connection is
// opened on first use and reopened after a failure.
type Publisher struct {
	url    string
	queue  string
	logger *slog.Logger

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewPublisher returns a publisher for queue on the broker at url.
func NewPublisher(url, queue string, logger *slog.Logger) *Publisher {
	return &Publisher{url: url, queue: queue, logger: logger.With(slog.String("component", "audit-publisher"))}
}

// Record fills the event id and time when missing and publishes it.
// Failures are logged, not returned.
func (p *Publisher) Record(ctx context.Context, ev AuditEvent) {
	if err := p.Publish(ctx, ev); err != nil {
		p.logger.Warn("audit publish failed", slog.String("action", ev.Action), slog.Any("error", err))
	}
}

// Publish marshals ev and sends it as a persistent message.
func (p *Publisher) Publish(ctx context.Context, ev AuditEvent) error {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ensure(); err != nil {
		return err
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.ID,
		Timestamp:    ev.At,
		Body:         body,
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := p.ch.PublishWithContext(ctx, "", p.queue, false, false, pub); err != nil {
		p.reset()
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// ensure opens the connection and channel and declares the queue.
// Callers hold mu.
func (p *Publisher) ensure() error {
	if p.ch != nil && !p.ch.IsClosed() {
		return nil
	}
	p.reset()
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("channel open: %w", err)
	}
	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("queue declare: %w", err)
	}
	p.conn, p.ch = conn, ch
	return nil
}

func (p *Publisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.conn, p.ch = nil, nil
}

// Close releases the broker connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reset()
	return nil
}

// LogAuditor writes events to a logger instead of a broker; it stands in
// when no broker is configured.
type LogAuditor struct{ Logger *slog.Logger }

func (a LogAuditor) Record(_ context.Context, ev AuditEvent) {
	a.Logger.Info("audit", eventAttrs(ev)...)
}

func eventAttrs(ev AuditEvent) []any {
	return []any{
		slog.String("action", ev.Action),
		slog.String("resource", ev.Resource),
		slog.String("resource_id", ev.ResourceID),
		slog.String("actor_id", ev.ActorID),
		slog.String("actor_email", ev.ActorEmail),
		slog.String("remote_ip", ev.RemoteIP),
	}
}
