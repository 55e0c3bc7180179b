// Package queue_publisher publishes storefront activity to RabbitMQ.
// Errors are logged and returned so callers can ignore failures without
// interrupting the main request flow.
package queue_publisher

import (
    "context"
    "encoding/json"
    "log"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"

    q "github.com/iliyamo/event-ticket-storefront/internal/queue"
)

// Publisher dials the broker for each message.  Activity volume is a few
// messages per sale or check-in, so a pooled connection is not needed.
type Publisher struct {
    URL string
}

// New returns a Publisher for the AMQP url.
func New(url string) *Publisher { return &Publisher{URL: url} }

// Publish sends event to the storefront.activity queue as a persistent
// JSON message.  OccurredAt defaults to now.
func (p *Publisher) Publish(ctx context.Context, event q.ActivityEvent) error {
    if event.OccurredAt.IsZero() {
        event.OccurredAt = time.Now().UTC()
    }
    conn, err := amqp.Dial(p.URL)
    if err != nil {
        log.Printf("rabbitmq: dial failed: %v", err)
        return err
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        log.Printf("rabbitmq: channel open failed: %v", err)
        return err
    }
    defer func() { _ = ch.Close() }()

    // Durable so messages survive broker restarts.
    if _, err := ch.QueueDeclare(q.ActivityQueue, true, false, false, false, nil); err != nil {
        log.Printf("rabbitmq: queue declare failed: %v", err)
        return err
    }

    body, err := json.Marshal(event)
    if err != nil {
        log.Printf("rabbitmq: marshal event failed: %v", err)
        return err
    }

    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        Timestamp:    event.OccurredAt,
        Type:         string(event.Type),
        Body:         body,
    }
    if err := ch.PublishWithContext(ctx, "", q.ActivityQueue, false, false, pub); err != nil {
        log.Printf("rabbitmq: publish failed: %v", err)
        return err
    }
    return nil
}

// Discard drops every event.  It is used when no broker is configured.
type Discard struct{}

// Publish implements the activity publisher contract.
func (Discard) Publish(context.Context, q.ActivityEvent) error { return nil }
