// Package service holds outbound integrations used by the dispatch engine.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/careguardian/careguardian-api/internal/model"
	"github.com/careguardian/careguardian-api/internal/queue"
)

// Publishing abstracts the broker side so the publisher can be tested
// without RabbitMQ.
type Publishing interface {
	Publish(ctx context.Context, queueName string, body []byte) error
}

// DispatchPublisher implements dispatch.Notifier by publishing DispatchEvents.
type DispatchPublisher struct {
	broker Publishing
	log    zerolog.Logger
	now    func() time.Time
}

func NewDispatchPublisher(broker Publishing, log zerolog.Logger) *DispatchPublisher {
	return &DispatchPublisher{broker: broker, log: log.With().Str("component", "dispatch-publisher").Logger(), now: time.Now}
}

func (p *DispatchPublisher) IncidentDispatched(ctx context.Context, inc model.Incident, amb model.Ambulance) error {
	return p.publish(ctx, queue.NewDispatchedEvent(inc, amb, p.now()))
}

func (p *DispatchPublisher) IncidentStatusChanged(ctx context.Context, inc model.Incident) error {
	return p.publish(ctx, queue.NewStatusEvent(inc, p.now()))
}

func (p *DispatchPublisher) publish(ctx context.Context, ev queue.DispatchEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", ev.Type, err)
	}
	if err := p.broker.Publish(ctx, queue.DispatchQueue, body); err != nil {
		p.log.Warn().Err(err).Str("event", ev.Type).Uint64("incident_id", ev.IncidentID).Msg("publish failed")
		return err
	}
	return nil
}

// RabbitBroker publishes persistent messages to a durable queue on the
// default exchange. Each call dials its own connection, declares the queue
// and publishes once, so there is no connection state to recover after a
// broker restart.
//
// Timeout bounds the whole call: TCP connect, AMQP handshake and publish.
// It defaults to 5s, and a sooner caller deadline wins. A broker that
// accepts the socket but never speaks AMQP fails within that budget.
type RabbitBroker struct {
	URL     string
	Timeout time.Duration
}

const defaultPublishTimeout = 5 * time.Second

// budget is the time left for one publish.
func (b RabbitBroker) budget(ctx context.Context) time.Duration {
	d := b.Timeout
	if d <= 0 {
		d = defaultPublishTimeout
	}
	if dl, ok := ctx.Deadline(); ok {
		if left := time.Until(dl); left < d {
			d = left
		}
	}
	return d
}

func (b RabbitBroker) Publish(ctx context.Context, queueName string, body []byte) error {
	d := b.budget(ctx)
	if d <= 0 {
		return fmt.Errorf("rabbitmq publish: %w", context.DeadlineExceeded)
	}
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	conn, err := amqp.DialConfig(b.URL, amqp.Config{Locale: "en_US", Dial: amqp.DefaultDial(d)})
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("rabbitmq queue declare: %w", err)
	}
	return ch.PublishWithContext(ctx, "", queueName, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
}
