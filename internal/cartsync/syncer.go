// Package cartsync replicates cart snapshots to durable storage in the
// background. Only the latest snapshot per user is kept while a write is
// pending.
package cartsync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fjod/go_storefront/internal/circuitbreaker"
	"github.com/fjod/go_storefront/internal/domain"
	"github.com/fjod/go_storefront/internal/logger"
	"github.com/sony/gobreaker/v2"
)

const (
	defaultWriteTimeout  = 5 * time.Second
	defaultRetryInterval = 5 * time.Second
)

// Store is the durable side of the cart.
type Store interface {
	UpsertCart(ctx context.Context, cart *domain.Cart) error
	DeleteCart(ctx context.Context, userID string) error
}

type snapshot struct {
	cart *domain.Cart
	seq  uint64
}

type Syncer struct {
	store         Store
	breaker       *gobreaker.CircuitBreaker[struct{}]
	log           *logger.Logger
	writeTimeout  time.Duration
	retryInterval time.Duration

	mu      sync.Mutex
	seq     uint64
	pending map[string]snapshot
	// deleted holds the sequence number of deletes issued while a batch may
	// still be in flight. Snapshots enqueued before that number are stale.
	deleted map[string]uint64
	notify  chan struct{}

	// writeMu orders store writes against deletes.
	writeMu sync.Mutex
	flushMu sync.Mutex
}

func New(store Store, log *logger.Logger) *Syncer {
	return &Syncer{
		store:         store,
		breaker:       circuitbreaker.New[struct{}]("cart-sync", log),
		log:           log,
		writeTimeout:  defaultWriteTimeout,
		retryInterval: defaultRetryInterval,
		pending:       make(map[string]snapshot),
		deleted:       make(map[string]uint64),
		notify:        make(chan struct{}, 1),
	}
}

// Enqueue schedules a copy of cart for replication, replacing any snapshot
// still pending for the same user. It never blocks.
func (s *Syncer) Enqueue(cart *domain.Cart) {
	cp := cart.Clone()

	s.mu.Lock()
	s.seq++
	s.pending[cp.UserID] = snapshot{cart: cp, seq: s.seq}
	s.mu.Unlock()

	s.wake()
}

// Delete removes the user's stored cart. A pending snapshot is dropped and a
// write already in flight finishes before the delete runs, so an older
// snapshot can never recreate the cart.
func (s *Syncer) Delete(ctx context.Context, userID string) error {
	s.mu.Lock()
	s.seq++
	s.deleted[userID] = s.seq
	delete(s.pending, userID)
	s.mu.Unlock()

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.store.DeleteCart(ctx, userID)
}

func (s *Syncer) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Run replicates snapshots until ctx is cancelled, then flushes what is left.
// Snapshots that failed to write are retried every retry interval.
func (s *Syncer) Run(ctx context.Context) {
	ticker := time.NewTicker(s.retryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), s.writeTimeout)
			if err := s.Flush(flushCtx); err != nil {
				s.log.Warn("cart sync final flush incomplete", "pending", s.Pending(), "error", err)
			}
			cancel()
			return
		case <-s.notify:
			_ = s.Flush(ctx)
		case <-ticker.C:
			if s.Pending() > 0 {
				_ = s.Flush(ctx)
			}
		}
	}
}

// Flush writes every pending snapshot. Writes outlive cancellation of ctx up
// to the write timeout. A failed snapshot goes back to pending unless a newer
// one or a delete replaced it; the joined error is returned.
func (s *Syncer) Flush(ctx context.Context) error {
	s.flushMu.Lock()
	defer s.flushMu.Unlock()

	s.mu.Lock()
	batch := s.pending
	s.pending = make(map[string]snapshot)
	s.mu.Unlock()

	var errs []error
	for userID, snap := range batch {
		written, err := s.write(ctx, userID, snap)
		if err != nil {
			s.log.WithContext(ctx).Warn("cart sync failed", "user_id", userID, "error", err)
			errs = append(errs, fmt.Errorf("sync cart %s: %w", userID, err))
			s.requeue(userID, snap)
			continue
		}
		if !written {
			s.log.WithContext(ctx).Debug("stale cart snapshot skipped", "user_id", userID)
		}
	}

	// Every snapshot older than a recorded delete has now been handled.
	s.mu.Lock()
	s.deleted = make(map[string]uint64)
	s.mu.Unlock()

	return errors.Join(errs...)
}

func (s *Syncer) write(ctx context.Context, userID string, snap snapshot) (bool, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.isStale(userID, snap) {
		return false, nil
	}

	_, err := s.breaker.Execute(func() (struct{}, error) {
		writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.writeTimeout)
		defer cancel()
		return struct{}{}, s.store.UpsertCart(writeCtx, snap.cart)
	})
	return err == nil, err
}

func (s *Syncer) isStale(userID string, snap snapshot) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	seq, ok := s.deleted[userID]
	return ok && snap.seq < seq
}

func (s *Syncer) requeue(userID string, snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq, ok := s.deleted[userID]; ok && snap.seq < seq {
		return
	}
	if newer, ok := s.pending[userID]; ok && newer.seq > snap.seq {
		return
	}
	s.pending[userID] = snap
}

func (s *Syncer) wake() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}
