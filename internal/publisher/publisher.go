package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fjod/go_storefront/internal/circuitbreaker"
	"github.com/fjod/go_storefront/internal/domain"
	"github.com/fjod/go_storefront/internal/logger"
	"github.com/segmentio/kafka-go"
	"github.com/sony/gobreaker/v2"
)

const (
	DefaultTopic = "checkout-completed"
	// EventCheckoutCompleted is sent in the event_type header.
	EventCheckoutCompleted = "CheckoutCompleted"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes checkout events keyed by user id, so one user's
// events stay ordered within a partition.
type KafkaPublisher struct {
	writer  messageWriter
	breaker *gobreaker.CircuitBreaker[struct{}]
	timeout time.Duration
}

func NewKafkaPublisher(topic string, log *logger.Logger, brokers ...string) *KafkaPublisher {
	if topic == "" {
		topic = DefaultTopic
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		WriteTimeout:           10 * time.Second,
	}
	return newKafkaPublisher(w, log)
}

func newKafkaPublisher(w messageWriter, log *logger.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		writer:  w,
		breaker: circuitbreaker.New[struct{}]("kafka-publisher", log),
		timeout: 5 * time.Second,
	}
}

func (p *KafkaPublisher) PublishCheckoutCompleted(ctx context.Context, event domain.CheckoutCompletedEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal checkout event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(event.UserID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(EventCheckoutCompleted)},
			{Key: "order_id", Value: []byte(event.OrderID)},
		},
	}

	_, err = p.breaker.Execute(func() (struct{}, error) {
		writeCtx, cancel := context.WithTimeout(ctx, p.timeout)
		defer cancel()
		return struct{}{}, p.writer.WriteMessages(writeCtx, msg)
	})
	if err != nil {
		return fmt.Errorf("failed to publish checkout event: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// CartDeleter removes every stored copy of a user's cart.
type CartDeleter interface {
	DeleteCart(ctx context.Context, userID string) error
}

// LocalPublisher handles checkout events in-process when no broker is
// configured: the buyer's cart is cleared right away.
type LocalPublisher struct {
	carts CartDeleter
}

func NewLocalPublisher(carts CartDeleter) *LocalPublisher {
	return &LocalPublisher{carts: carts}
}

func (p *LocalPublisher) PublishCheckoutCompleted(ctx context.Context, event domain.CheckoutCompletedEvent) error {
	if err := p.carts.DeleteCart(ctx, event.UserID); err != nil {
		return fmt.Errorf("failed to clear cart after checkout: %w", err)
	}
	return nil
}
