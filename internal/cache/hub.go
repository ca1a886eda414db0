// Package cache keeps the latest known config and bookings snapshot
// in process and fans upstream changes out to registered observers.
// The snapshot is mutated only by the upstream change path; mutation
// callers wait for the round trip.
package cache

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/Quaviousthe3rd/waylins-app/internal/models"
	"github.com/Quaviousthe3rd/waylins-app/internal/store"
)

// Source is the read side of the backing stores plus their shared
// change stream.
type Source interface {
	LoadConfig(ctx context.Context) (models.StoreConfig, error)
	ListBookings(ctx context.Context) ([]models.Booking, error)
	Watch(ctx context.Context) (<-chan store.Change, error)
}

// Observer receives a snapshot on registration and after every
// upstream change. Snapshots must be treated as read-only.
type Observer func(Snapshot)

// Hub is the process-wide cache and subscription fan-out. Construct it
// once and pass it by reference to whatever needs read access.
type Hub struct {
	ctx    context.Context
	source Source
	log    zerolog.Logger

	mu        sync.RWMutex
	snap      Snapshot
	observers map[int]Observer
	nextID    int
	attached  bool
}

// New creates a hub. ctx bounds the lifetime of the upstream
// attachment that the first subscription starts.
func New(ctx context.Context, source Source, logger *zerolog.Logger) *Hub {
	return &Hub{
		ctx:       ctx,
		source:    source,
		log:       logger.With().Str("component", "cache").Logger(),
		snap:      Snapshot{Config: models.DefaultConfig()},
		observers: make(map[int]Observer),
	}
}

// Subscribe registers an observer and synchronously delivers the
// current snapshot, so a fresh observer never waits for the next
// upstream change. The very first subscription attaches the single
// shared upstream connection; later ones reuse it. The returned
// function unregisters the observer.
func (h *Hub) Subscribe(fn Observer) func() {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.observers[id] = fn

	attach := !h.attached
	h.attached = true
	h.mu.Unlock()

	if attach {
		h.attachUpstream()
	}

	fn(h.Snapshot())

	return func() {
		h.mu.Lock()
		delete(h.observers, id)
		h.mu.Unlock()
	}
}

// Refresh replays the current snapshot to every observer without
// contacting upstream. Callers use it to recover observer state after
// a failed mutation.
func (h *Hub) Refresh() {
	h.fanOut()
}

// Snapshot returns the latest known state.
func (h *Hub) Snapshot() Snapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.snap
}

func (h *Hub) attachUpstream() {
	h.reload(store.ScopeConfig)
	h.reload(store.ScopeBookings)

	changes, err := h.source.Watch(h.ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("change stream unavailable; serving last-known state")
		return
	}
	h.log.Info().Msg("attached to store change streams")

	go func() {
		for change := range changes {
			h.reload(change.Scope)
			h.fanOut()
		}
	}()
}

// reload refetches one collection. On failure the previous snapshot
// (or the seeded defaults) stays in place.
func (h *Hub) reload(scope store.Scope) {
	switch scope {
	case store.ScopeConfig:
		cfg, err := h.source.LoadConfig(h.ctx)
		if err != nil {
			h.log.Warn().Err(err).Msg("config reload failed; keeping last-known config")
			return
		}
		h.mu.Lock()
		h.snap.Config = cfg
		h.mu.Unlock()
	case store.ScopeBookings:
		bookings, err := h.source.ListBookings(h.ctx)
		if err != nil {
			h.log.Warn().Err(err).Msg("bookings reload failed; keeping last-known bookings")
			return
		}
		h.mu.Lock()
		h.snap.Bookings = bookings
		h.mu.Unlock()
	}
}

func (h *Hub) fanOut() {
	h.mu.RLock()
	snap := h.snap
	handlers := make([]Observer, 0, len(h.observers))
	for _, fn := range h.observers {
		handlers = append(handlers, fn)
	}
	h.mu.RUnlock()

	for _, fn := range handlers {
		fn(snap)
	}
}
