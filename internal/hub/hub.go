// Package hub is the in-process fan-out registry for operator stream
// connections. It is the only shared mutable state in the realtime core:
// one Hub is constructed per process and injected into the HTTP layer.
// Best-effort delivery only: a slow connection drops frames, a dead one is
// detached, and there is no buffering or replay for reconnecting clients.
package hub

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"crm-console/internal/metrics"
)

// Frame is one unit written to a stream connection. Comment frames carry
// no payload and exist to keep half-open transports detectable.
type Frame struct {
	Comment bool
	Data    []byte
}

// Sink is the write side of one attached connection. WriteFrame is only
// ever called from the connection's own pump goroutine, so implementations
// need no internal locking.
type Sink interface {
	WriteFrame(f Frame) error
}

// Subscription is the handle returned by Attach. Done is closed when the
// hub has detached the connection; Finished is closed when the pump
// goroutine has exited and will never touch the sink again.
type Subscription struct {
	id       uint64
	sink     Sink
	frames   chan Frame
	done     chan struct{}
	finished chan struct{}
}

// Done reports hub-side teardown of this subscription.
func (s *Subscription) Done() <-chan struct{} { return s.done }

// Finished reports pump exit. The sink owner must wait on this after
// Detach before releasing the underlying transport: until it closes, a
// write may still be in flight.
func (s *Subscription) Finished() <-chan struct{} { return s.finished }

type Hub struct {
	mu        sync.RWMutex
	subs      map[uint64]*Subscription
	nextID    uint64
	bufSize   int
	heartbeat time.Duration
}

// New builds a hub with the given per-connection buffer size and heartbeat
// interval. Zero values fall back to 32 frames and 15 seconds.
func New(bufSize int, heartbeat time.Duration) *Hub {
	if bufSize <= 0 {
		bufSize = 32
	}
	if heartbeat <= 0 {
		heartbeat = 15 * time.Second
	}
	return &Hub{
		subs:      make(map[uint64]*Subscription),
		bufSize:   bufSize,
		heartbeat: heartbeat,
	}
}

// Attach registers a connection and starts its pump goroutine. Safe to call
// concurrently with Publish and other Attach/Detach calls.
func (h *Hub) Attach(sink Sink) *Subscription {
	h.mu.Lock()
	h.nextID++
	sub := &Subscription{
		id:       h.nextID,
		sink:     sink,
		frames:   make(chan Frame, h.bufSize),
		done:     make(chan struct{}),
		finished: make(chan struct{}),
	}
	h.subs[sub.id] = sub
	h.mu.Unlock()

	metrics.ConnectedStreams.Inc()
	go h.pump(sub)
	return sub
}

// Detach removes a connection from the registry. Idempotent: detaching an
// already removed subscription is a no-op.
func (h *Hub) Detach(sub *Subscription) {
	if sub == nil {
		return
	}
	h.mu.Lock()
	_, ok := h.subs[sub.id]
	if ok {
		delete(h.subs, sub.id)
		close(sub.done)
	}
	h.mu.Unlock()

	if ok {
		metrics.ConnectedStreams.Dec()
	}
}

// Publish serializes v once and queues it on every attached connection.
// A full buffer drops the frame for that connection only; delivery to the
// others is unaffected. With no connections attached this is a no-op that
// skips serialization entirely.
func (h *Hub) Publish(v any) {
	h.mu.RLock()
	n := len(h.subs)
	h.mu.RUnlock()
	if n == 0 {
		return
	}

	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("marshal broadcast event", "error", err)
		return
	}
	frame := Frame{Data: data}

	h.mu.RLock()
	for _, sub := range h.subs {
		select {
		case sub.frames <- frame:
			metrics.FramesDelivered.Inc()
		default:
			metrics.FramesDropped.Inc()
		}
	}
	h.mu.RUnlock()
}

// SubscriberCount reports the number of attached connections.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close detaches every connection. Used on graceful shutdown.
func (h *Hub) Close() {
	h.mu.Lock()
	for id, sub := range h.subs {
		delete(h.subs, id)
		close(sub.done)
		metrics.ConnectedStreams.Dec()
	}
	h.mu.Unlock()
}

var heartbeatFrame = Frame{Comment: true, Data: []byte("heartbeat")}

// pump is the single writer for one connection: it drains queued frames and
// emits the keepalive on the heartbeat interval. Any write failure detaches
// the connection; the publisher never observes it.
func (h *Hub) pump(sub *Subscription) {
	defer close(sub.finished)

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-sub.done:
			return
		case frame := <-sub.frames:
			if err := sub.sink.WriteFrame(frame); err != nil {
				slog.Debug("stream write failed, detaching", "subscription", sub.id, "error", err)
				h.Detach(sub)
				return
			}
		case <-ticker.C:
			if err := sub.sink.WriteFrame(heartbeatFrame); err != nil {
				slog.Debug("stream heartbeat failed, detaching", "subscription", sub.id, "error", err)
				h.Detach(sub)
				return
			}
		}
	}
}
