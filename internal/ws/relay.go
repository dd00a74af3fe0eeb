package ws

import (
	"log/slog"
	"sync"

	"github.com/varshaislur/MindLink/internal/room"
	"github.com/varshaislur/MindLink/pkg/metrics"
)

// Relay fans payloads out to room members. It holds no room state of its
// own: delivery targets come from a registry membership snapshot, and the
// payload is opaque. A slow or gone recipient is dropped and logged;
// delivery to the others proceeds.
type Relay struct {
	reg *room.Registry
	log *slog.Logger

	mu    sync.RWMutex
	conns map[string]Outbox // connID -> write side
}

func NewRelay(reg *room.Registry, log *slog.Logger) *Relay {
	return &Relay{reg: reg, log: log, conns: make(map[string]Outbox)}
}

// Register makes a connection addressable for delivery
func (r *Relay) Register(o Outbox) {
	r.mu.Lock()
	r.conns[o.ID()] = o
	r.mu.Unlock()
}

// Unregister removes a connection; later deliveries to it are dropped
func (r *Relay) Unregister(connID string) {
	r.mu.Lock()
	delete(r.conns, connID)
	r.mu.Unlock()
}

// Broadcast delivers payload to every member of the room except senderID.
// Pass an empty senderID to include everyone. Best effort per recipient.
func (r *Relay) Broadcast(roomID, senderID string, payload []byte) {
	for _, m := range r.reg.Members(roomID) {
		if m.ConnID == senderID {
			continue
		}
		r.deliver(m.ConnID, payload)
	}
}

// Send delivers payload to exactly one connection. A recipient that has
// already disconnected is silently dropped, matching the transport's
// at-most-once guarantee.
func (r *Relay) Send(targetID string, payload []byte) {
	metrics.DirectedSends.Inc()
	r.deliver(targetID, payload)
}

func (r *Relay) deliver(connID string, payload []byte) {
	r.mu.RLock()
	o := r.conns[connID]
	r.mu.RUnlock()
	if o == nil {
		return
	}
	if !o.Enqueue(payload) {
		metrics.DroppedDeliveries.Inc()
		r.log.Warn("relay.drop", "conn", connID, "bytes", len(payload))
	}
}
