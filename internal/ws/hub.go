package ws

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/varshaislur/MindLink/internal/room"
	"github.com/varshaislur/MindLink/pkg/metrics"
	"github.com/varshaislur/MindLink/pkg/ratelimit"
)

// Options bounds per-connection resource use.
type Options struct {
	MaxFrameBytes int64
	MsgsPerSecond int
	MsgBurst      int
}

func (o Options) withDefaults() Options {
	if o.MaxFrameBytes == 0 {
		o.MaxFrameBytes = 1 << 20
	}
	if o.MsgsPerSecond == 0 {
		o.MsgsPerSecond = 100
	}
	if o.MsgBurst == 0 {
		o.MsgBurst = 200
	}
	return o
}

type sessionState int

const (
	stateInit   sessionState = iota // connected, not yet joined
	stateJoined                     // member of a room
)

// session is the per-connection state machine. Events from one
// connection are handled sequentially by its read loop, which is what
// keeps a sender's messages ordered at every recipient.
type session struct {
	out     Outbox
	state   sessionState
	roomID  string
	name    string
	limiter *ratelimit.Bucket
}

// Hub coordinates connection sessions over the shared registry and relay.
type Hub struct {
	log      *slog.Logger
	reg      *room.Registry
	relay    *Relay
	bus      *RedisBus // nil when cross-instance fanout is disabled
	opts     Options
	instance string // suppresses our own bus publications on receipt
}

func NewHub(log *slog.Logger, reg *room.Registry, relay *Relay, bus *RedisBus, opts Options) *Hub {
	return &Hub{
		log:      log,
		reg:      reg,
		relay:    relay,
		bus:      bus,
		opts:     opts.withDefaults(),
		instance: uuid.NewString(),
	}
}

// Run forwards bus traffic from other instances into the local relay.
func (h *Hub) Run(ctx context.Context) {
	if h.bus != nil {
		go h.bus.Subscribe(ctx, h.dispatch)
	}
	<-ctx.Done()
}

// ServeWS handles one /ws connection for its whole lifetime.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	wsc, err := Accept(w, r)
	if err != nil {
		h.log.Error("ws.accept", "err", err)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	c := NewConn(wsc, uuid.NewString())
	c.SetReadLimit(h.opts.MaxFrameBytes)
	h.relay.Register(c)
	go c.WriteLoop(ctx)

	s := &session{
		out:     c,
		limiter: ratelimit.NewBucket(h.opts.MsgsPerSecond, h.opts.MsgBurst),
	}
	h.log.Debug("ws.connect", "conn", c.ID())

	for {
		data, ok := c.Read(ctx)
		if !ok {
			break
		}
		if !s.limiter.Allow() {
			continue
		}
		ev, err := Decode(data)
		if err != nil {
			// Single bad frame is not session-ending
			h.log.Debug("ws.malformed", "conn", c.ID())
			continue
		}
		h.handleEvent(s, ev)
	}

	h.drop(s)
	_ = c.Close()
}

func (h *Hub) handleEvent(s *session, ev Event) {
	switch ev.Action {
	case ActionJoin:
		h.handleJoin(s, ev)

	case ActionCodeChange:
		if s.state != stateJoined {
			return
		}
		// Re-encode with just the document so room routing details
		// never reach recipients
		payload := Encode(Event{Action: ActionCodeChange, Code: ev.Code})
		metrics.BroadcastsRelayed.WithLabelValues(ActionCodeChange).Inc()
		h.relay.Broadcast(s.roomID, s.out.ID(), payload)
		h.publish(BusMessage{RoomID: s.roomID, SenderID: s.out.ID(), Payload: payload})

	case ActionSyncCode:
		if s.state != stateJoined {
			return
		}
		// Directed snapshot reply for a late joiner. Forwarded as a
		// code-change so the receiving client applies it like any edit;
		// concurrent replies resolve by arrival order, last write wins.
		payload := Encode(Event{Action: ActionCodeChange, Code: ev.Code})
		h.relay.Send(ev.SocketID, payload)
		h.publish(BusMessage{RoomID: s.roomID, TargetID: ev.SocketID, Payload: payload})
	}
}

func (h *Hub) handleJoin(s *session, ev Event) {
	id := s.out.ID()
	members, rejoined, err := h.reg.Join(ev.RoomID, id, ev.Username)
	if err != nil {
		// Second room without leaving the first; session state unchanged
		h.log.Warn("ws.join.rejected", "conn", id, "room", ev.RoomID, "err", err)
		return
	}
	s.state = stateJoined
	s.roomID = ev.RoomID
	s.name = ev.Username

	clients := lo.Map(members, func(p room.Participant, _ int) Client {
		return Client{SocketID: p.ConnID, Username: p.Name}
	})
	payload := Encode(Event{
		Action:   ActionJoined,
		RoomID:   ev.RoomID,
		Username: ev.Username,
		SocketID: id,
		Clients:  clients,
	})

	if rejoined {
		// Registry was a no-op; just refresh the joiner's snapshot
		h.relay.Send(id, payload)
		return
	}

	// Everyone gets the announcement, the joiner included: the joiner
	// needs the member snapshot, existing members need the joiner's
	// identity to target their sync reply at.
	metrics.BroadcastsRelayed.WithLabelValues(ActionJoined).Inc()
	h.relay.Broadcast(ev.RoomID, "", payload)
	h.publish(BusMessage{RoomID: ev.RoomID, SenderID: id, Payload: payload})
	h.syncGauges()

	h.log.Info("ws.join", "conn", id, "room", ev.RoomID, "username", ev.Username, "members", len(members))
}

// drop tears the session down: unregister from the relay, leave the room,
// announce the departure to whoever remains. Safe to call for sessions
// that never joined.
func (h *Hub) drop(s *session) {
	id := s.out.ID()
	h.relay.Unregister(id)
	if s.state != stateJoined {
		return
	}

	left, remaining, ok := h.reg.Leave(s.roomID, id)
	s.state = stateInit
	if !ok {
		return
	}

	payload := Encode(Event{Action: ActionDisconnected, SocketID: id, Username: left.Name})
	if len(remaining) > 0 {
		metrics.BroadcastsRelayed.WithLabelValues(ActionDisconnected).Inc()
		h.relay.Broadcast(s.roomID, id, payload)
	}
	h.publish(BusMessage{RoomID: s.roomID, SenderID: id, Payload: payload})
	h.syncGauges()

	h.log.Info("ws.leave", "conn", id, "room", s.roomID, "remaining", len(remaining))
}

// dispatch applies a bus message from another instance locally.
func (h *Hub) dispatch(m BusMessage) {
	if m.Instance == h.instance {
		return
	}
	if m.TargetID != "" {
		h.relay.Send(m.TargetID, m.Payload)
		return
	}
	h.relay.Broadcast(m.RoomID, m.SenderID, m.Payload)
}

func (h *Hub) publish(m BusMessage) {
	if h.bus == nil {
		return
	}
	m.Instance = h.instance
	if err := h.bus.Publish(context.Background(), m); err != nil {
		h.log.Warn("bus.publish", "room", m.RoomID, "err", err)
	}
}

func (h *Hub) syncGauges() {
	rooms, participants := h.reg.Counts()
	metrics.RoomsActive.Set(float64(rooms))
	metrics.ParticipantsActive.Set(float64(participants))
}
