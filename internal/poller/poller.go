package poller

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/fjod/go_storefront/internal/domain"
	"github.com/fjod/go_storefront/internal/logger"
	"github.com/segmentio/kafka-go"
)

const (
	DefaultGroupID = "storefront-cart-cleaner"
	retryDelay     = time.Second
)

// CartDeleter removes every stored copy of a user's cart.
type CartDeleter interface {
	DeleteCart(ctx context.Context, userID string) error
}

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Poller consumes checkout completed events and clears the buyer's cart.
type Poller struct {
	carts  CartDeleter
	reader messageReader
	log    *logger.Logger
}

func NewPoller(carts CartDeleter, topic, groupID string, log *logger.Logger, brokers ...string) *Poller {
	if groupID == "" {
		groupID = DefaultGroupID
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MaxBytes: 10e6, // 10MB
	})
	return &Poller{carts: carts, reader: reader, log: log}
}

func (p *Poller) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		p.getMessageAndEmptyCart(ctx)
	}
}

func (p *Poller) Close() {
	if err := p.reader.Close(); err != nil {
		p.log.Warn("error closing reader", "error", err)
	}
}

func (p *Poller) getMessageAndEmptyCart(ctx context.Context) {
	m, err := p.reader.ReadMessage(ctx)
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, context.Canceled) {
			return
		}
		p.log.Warn("error reading message", "error", err)
		select {
		case <-ctx.Done():
		case <-time.After(retryDelay):
		}
		return
	}

	var event domain.CheckoutCompletedEvent
	if err := json.Unmarshal(m.Value, &event); err != nil {
		p.log.Warn("error parsing message", "offset", m.Offset, "error", err)
		return
	}
	if event.UserID == "" {
		p.log.Warn("missing or invalid user_id", "offset", m.Offset)
		return
	}

	if err := p.carts.DeleteCart(ctx, event.UserID); err != nil {
		p.log.Error("failed to clear cart", "user_id", event.UserID, "order_id", event.OrderID, "error", err)
		return
	}
	p.log.Debug("cart cleared after checkout", "user_id", event.UserID, "order_id", event.OrderID)
}
