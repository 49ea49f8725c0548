// Package notify bridges the local update-stream hub to RabbitMQ so that
// every orderd instance sees mutations performed by its peers.
//
// Events are published to a durable fanout exchange; each instance consumes
// through its own exclusive queue and feeds foreign events back into its
// local hub. Self-published events are skipped via an instance-id header.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/seatserve/seatserve/internal/model"
	"github.com/seatserve/seatserve/internal/stream"
)

const instanceHeader = "x-instance-id"

// Bridge connects one hub to the shared fanout exchange.
type Bridge struct {
	conn       *amqp.Connection
	ch         *amqp.Channel
	exchange   string
	queue      string
	instanceID string
	hub        *stream.Hub
	logger     *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Dial connects to RabbitMQ and declares the exchange and this instance's
// exclusive queue.
func Dial(url, exchange string, hub *stream.Hub, logger *slog.Logger) (*Bridge, error) {
	if logger == nil {
		logger = slog.Default()
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchange, "fanout", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}
	if err := ch.QueueBind(q.Name, "", exchange, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("bind queue: %w", err)
	}

	return &Bridge{
		conn:       conn,
		ch:         ch,
		exchange:   exchange,
		queue:      q.Name,
		instanceID: uuid.NewString(),
		hub:        hub,
		logger:     logger,
	}, nil
}

// Start begins consuming peer events into the local hub.
func (b *Bridge) Start(ctx context.Context) error {
	b.ctx, b.cancel = context.WithCancel(ctx)

	deliveries, err := b.ch.Consume(b.queue, b.instanceID, true, true, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}

	b.wg.Add(1)
	go b.consumeLoop(deliveries)

	b.logger.Info("notify bridge started",
		"exchange", b.exchange,
		"queue", b.queue,
		"instance_id", b.instanceID,
	)
	return nil
}

// Stop shuts the bridge down and closes the connection.
func (b *Bridge) Stop(ctx context.Context) error {
	if b.cancel != nil {
		b.cancel()
	}

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		b.logger.Warn("notify bridge shutdown timeout")
	}

	if b.ch != nil {
		_ = b.ch.Close()
	}
	if b.conn != nil {
		_ = b.conn.Close()
	}
	return nil
}

// Publish sends an event to the exchange for peer instances.
func (b *Bridge) Publish(ev model.UpdateEvent) {
	body, err := json.Marshal(ev)
	if err != nil {
		b.logger.Error("marshal event", "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = b.ch.PublishWithContext(ctx, b.exchange, "", false, false, amqp.Publishing{
		ContentType: "application/json",
		Timestamp:   time.Now().UTC(),
		Body:        body,
		Headers:     amqp.Table{instanceHeader: b.instanceID},
	})
	if err != nil {
		// Loss here only affects peers' push clients; their polling path
		// still observes the mutation.
		b.logger.Warn("publish event", "type", ev.Type, "error", err)
	}
}

func (b *Bridge) consumeLoop(deliveries <-chan amqp.Delivery) {
	defer b.wg.Done()

	for {
		select {
		case <-b.ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				return
			}
			if origin, _ := d.Headers[instanceHeader].(string); origin == b.instanceID {
				continue
			}
			var ev model.UpdateEvent
			if err := json.Unmarshal(d.Body, &ev); err != nil {
				b.logger.Warn("drop unparseable peer event", "error", err)
				continue
			}
			b.hub.Publish(ev)
		}
	}
}
