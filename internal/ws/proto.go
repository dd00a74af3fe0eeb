package ws

import (
	"encoding/json"
	"errors"
)

// ErrMalformed marks frames that cannot be parsed or violate the schema.
// The session discards such frames without changing state.
var ErrMalformed = errors.New("malformed event")

// Wire actions. Names match the editor client's socket actions.
const (
	ActionJoin         = "join"
	ActionJoined       = "joined"
	ActionCodeChange   = "code-change"
	ActionSyncCode     = "sync-code"
	ActionDisconnected = "disconnected"
)

// Client is one room member as seen on the wire.
type Client struct {
	SocketID string `json:"socketId"`
	Username string `json:"username"`
}

// Event is the single wire frame. Action selects which fields are
// meaningful; the rest stay empty. Code is a pointer so an empty
// document survives the round trip.
type Event struct {
	Action   string   `json:"action"`
	RoomID   string   `json:"roomId,omitempty"`
	Username string   `json:"username,omitempty"`
	Code     *string  `json:"code,omitempty"`
	SocketID string   `json:"socketId,omitempty"`
	Clients  []Client `json:"clients,omitempty"`
}

// Encode marshals an event. The event types here always marshal.
func Encode(ev Event) []byte {
	b, _ := json.Marshal(ev)
	return b
}

// Decode parses and validates an inbound frame. Only client-originated
// actions are accepted; relay-originated actions arriving inbound are
// malformed.
func Decode(data []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return Event{}, ErrMalformed
	}

	switch ev.Action {
	case ActionJoin:
		if ev.RoomID == "" || ev.Username == "" {
			return Event{}, ErrMalformed
		}
	case ActionCodeChange:
		if ev.Code == nil {
			return Event{}, ErrMalformed
		}
	case ActionSyncCode:
		if ev.Code == nil || ev.SocketID == "" {
			return Event{}, ErrMalformed
		}
	default:
		return Event{}, ErrMalformed
	}
	return ev, nil
}
