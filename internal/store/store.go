// Package store talks to the backing document store: a single config
// document plus one record per booking, with change notification over
// pub/sub. All mutations are round trips; nothing is cached here.
package store

import (
	"context"
	"errors"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	// ErrNotConnected is returned by every mutation when there is no
	// backing connection. Readers fall back to last-known state instead.
	ErrNotConnected = errors.New("store: not connected")

	// ErrNotFound marks a stale-state conflict: the targeted record was
	// deleted or never existed upstream.
	ErrNotFound = errors.New("store: record not found")
)

const (
	configKey      = "waylins:config"
	bookingsKey    = "waylins:bookings"
	changesChannel = "waylins:changes"
)

// Scope identifies which collection a change notification is about.
type Scope string

const (
	ScopeConfig   Scope = "config"
	ScopeBookings Scope = "bookings"
)

// Change is one upstream change notification.
type Change struct {
	Scope Scope
}

// Store wraps the redis connection shared by both collections.
type Store struct {
	rdb *redis.Client
	log zerolog.Logger
}

// New creates a store around an optional redis client. A nil client is
// allowed and yields ErrNotConnected on every operation, so callers
// can run in read-only offline mode.
func New(rdb *redis.Client, logger *zerolog.Logger) *Store {
	return &Store{
		rdb: rdb,
		log: logger.With().Str("component", "store").Logger(),
	}
}

// Ping verifies the backing connection.
func (s *Store) Ping(ctx context.Context) error {
	if s.rdb == nil {
		return ErrNotConnected
	}
	return s.rdb.Ping(ctx).Err()
}

// Watch subscribes to the shared change channel. The returned channel
// is closed when ctx is cancelled. A single Watch call serves any
// number of downstream observers.
func (s *Store) Watch(ctx context.Context) (<-chan Change, error) {
	if s.rdb == nil {
		return nil, ErrNotConnected
	}

	sub := s.rdb.Subscribe(ctx, changesChannel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, err
	}

	out := make(chan Change, 16)
	go func() {
		defer close(out)
		defer sub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-sub.Channel():
				if !ok {
					return
				}
				scope := Scope(msg.Payload)
				if scope != ScopeConfig && scope != ScopeBookings {
					continue
				}
				select {
				case out <- Change{Scope: scope}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// notify publishes a change marker. Failures are logged, not
// propagated: the mutation itself already succeeded.
func (s *Store) notify(ctx context.Context, scope Scope) {
	if err := s.rdb.Publish(ctx, changesChannel, string(scope)).Err(); err != nil {
		s.log.Warn().Err(err).Str("scope", string(scope)).Msg("change notification failed")
	}
}
