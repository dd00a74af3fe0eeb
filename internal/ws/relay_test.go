package ws

import (
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/varshaislur/MindLink/internal/room"
)

// Simulates the write side of a connection for testing
type fakeOutbox struct {
	id   string
	full bool // reject every enqueue, like a stalled recipient

	mu  sync.Mutex
	got [][]byte
}

func newFakeOutbox(id string) *fakeOutbox { return &fakeOutbox{id: id} }

func (f *fakeOutbox) ID() string { return f.id }

func (f *fakeOutbox) Enqueue(p []byte) bool {
	if f.full {
		return false
	}
	f.mu.Lock()
	f.got = append(f.got, p)
	f.mu.Unlock()
	return true
}

func (f *fakeOutbox) payloads() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]byte, len(f.got))
	copy(out, f.got)
	return out
}

func (f *fakeOutbox) events(t *testing.T) []Event {
	t.Helper()
	var evs []Event
	for _, p := range f.payloads() {
		var ev Event
		require.NoError(t, json.Unmarshal(p, &ev))
		evs = append(evs, ev)
	}
	return evs
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBroadcastExcludesSender(t *testing.T) {
	reg := room.NewRegistry()
	relay := NewRelay(reg, testLogger())

	x, y, z := newFakeOutbox("x"), newFakeOutbox("y"), newFakeOutbox("z")
	for _, o := range []*fakeOutbox{x, y, z} {
		relay.Register(o)
		reg.Join("r1", o.ID(), "u-"+o.ID())
	}

	relay.Broadcast("r1", "x", []byte("m"))

	assert.Empty(t, x.payloads())
	assert.Len(t, y.payloads(), 1)
	assert.Len(t, z.payloads(), 1)
}

func TestBroadcastEmptySenderReachesAll(t *testing.T) {
	reg := room.NewRegistry()
	relay := NewRelay(reg, testLogger())

	x, y := newFakeOutbox("x"), newFakeOutbox("y")
	for _, o := range []*fakeOutbox{x, y} {
		relay.Register(o)
		reg.Join("r1", o.ID(), "u")
	}

	relay.Broadcast("r1", "", []byte("m"))

	assert.Len(t, x.payloads(), 1)
	assert.Len(t, y.payloads(), 1)
}

func TestBroadcastStaysInRoom(t *testing.T) {
	reg := room.NewRegistry()
	relay := NewRelay(reg, testLogger())

	x, y, out := newFakeOutbox("x"), newFakeOutbox("y"), newFakeOutbox("out")
	relay.Register(x)
	relay.Register(y)
	relay.Register(out)
	reg.Join("r1", "x", "alice")
	reg.Join("r1", "y", "bob")
	reg.Join("r2", "out", "eve")

	relay.Broadcast("r1", "x", []byte("m"))

	assert.Empty(t, out.payloads())
	assert.Len(t, y.payloads(), 1)
}

func TestSlowRecipientDoesNotBlockOthers(t *testing.T) {
	reg := room.NewRegistry()
	relay := NewRelay(reg, testLogger())

	stalled := newFakeOutbox("stalled")
	stalled.full = true
	ok := newFakeOutbox("ok")
	relay.Register(stalled)
	relay.Register(ok)
	reg.Join("r1", "stalled", "s")
	reg.Join("r1", "ok", "o")

	relay.Broadcast("r1", "", []byte("m"))

	assert.Empty(t, stalled.payloads())
	assert.Len(t, ok.payloads(), 1)
}

func TestDirectedSend(t *testing.T) {
	reg := room.NewRegistry()
	relay := NewRelay(reg, testLogger())

	x, y := newFakeOutbox("x"), newFakeOutbox("y")
	relay.Register(x)
	relay.Register(y)

	relay.Send("y", []byte("m"))

	assert.Empty(t, x.payloads())
	assert.Equal(t, [][]byte{[]byte("m")}, y.payloads())
}

func TestSendToGoneConnectionDropsSilently(t *testing.T) {
	reg := room.NewRegistry()
	relay := NewRelay(reg, testLogger())

	x := newFakeOutbox("x")
	relay.Register(x)
	relay.Unregister("x")

	relay.Send("x", []byte("m")) // must not panic
	assert.Empty(t, x.payloads())
}

func TestPerRecipientOrderPreserved(t *testing.T) {
	reg := room.NewRegistry()
	relay := NewRelay(reg, testLogger())

	x, y := newFakeOutbox("x"), newFakeOutbox("y")
	relay.Register(x)
	relay.Register(y)
	reg.Join("r1", "x", "alice")
	reg.Join("r1", "y", "bob")

	relay.Broadcast("r1", "x", []byte("m1"))
	relay.Broadcast("r1", "x", []byte("m2"))

	assert.Equal(t, [][]byte{[]byte("m1"), []byte("m2")}, y.payloads())
}
