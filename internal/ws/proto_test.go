package ws

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strptr(s string) *string { return &s }

func TestDecodeJoin(t *testing.T) {
	ev, err := Decode([]byte(`{"action":"join","roomId":"r1","username":"alice"}`))
	require.NoError(t, err)
	assert.Equal(t, ActionJoin, ev.Action)
	assert.Equal(t, "r1", ev.RoomID)
	assert.Equal(t, "alice", ev.Username)
}

func TestDecodeCodeChangeEmptyDocument(t *testing.T) {
	ev, err := Decode([]byte(`{"action":"code-change","code":""}`))
	require.NoError(t, err)
	require.NotNil(t, ev.Code)
	assert.Equal(t, "", *ev.Code)
}

func TestDecodeSyncCode(t *testing.T) {
	ev, err := Decode([]byte(`{"action":"sync-code","code":"print(1)","socketId":"c9"}`))
	require.NoError(t, err)
	assert.Equal(t, "c9", ev.SocketID)
	assert.Equal(t, "print(1)", *ev.Code)
}

func TestDecodeMalformed(t *testing.T) {
	cases := map[string]string{
		"bad json":             `{"action":`,
		"unknown action":       `{"action":"shout","roomId":"r1"}`,
		"join without room":    `{"action":"join","username":"alice"}`,
		"join without name":    `{"action":"join","roomId":"r1"}`,
		"code-change no code":  `{"action":"code-change"}`,
		"sync-code no target":  `{"action":"sync-code","code":"x"}`,
		"relay-only action in": `{"action":"joined","roomId":"r1"}`,
		"empty frame":          ``,
	}
	for name, raw := range cases {
		_, err := Decode([]byte(raw))
		assert.ErrorIs(t, err, ErrMalformed, name)
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	in := Event{
		Action:   ActionJoined,
		RoomID:   "r1",
		Username: "bob",
		SocketID: "c2",
		Clients:  []Client{{SocketID: "c1", Username: "alice"}, {SocketID: "c2", Username: "bob"}},
	}

	var out Event
	require.NoError(t, json.Unmarshal(Encode(in), &out))
	assert.Equal(t, in, out)
}

func TestEncodeKeepsEmptyCode(t *testing.T) {
	b := Encode(Event{Action: ActionCodeChange, Code: strptr("")})
	assert.JSONEq(t, `{"action":"code-change","code":""}`, string(b))
}
