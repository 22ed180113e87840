package websocket

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

var errBrokenPipe = errors.New("broken pipe")

// brokenWriter fails every write, like a socket whose peer vanished.
type brokenWriter struct{}

func (brokenWriter) Write([]byte) (int, error) {
	return 0, errBrokenPipe
}

func newBufferConn(buf *bytes.Buffer) *Conn {
	return NewConn(bufio.NewReadWriter(bufio.NewReader(strings.NewReader("")), bufio.NewWriter(buf)))
}

func newBrokenConn() *Conn {
	return NewConn(bufio.NewReadWriter(bufio.NewReader(strings.NewReader("")), bufio.NewWriter(brokenWriter{})))
}

func TestRegistry(t *testing.T) {
	t.Run("Tracks sockets per room", func(t *testing.T) {
		// Given: two sockets in one room and one in another
		registry := NewRegistry()
		first := newBufferConn(&bytes.Buffer{})
		second := newBufferConn(&bytes.Buffer{})
		other := newBufferConn(&bytes.Buffer{})

		registry.Add("room-a", first)
		registry.Add("room-a", second)
		registry.Add("room-b", other)

		// Then: each room sees only its own sockets
		assert.Len(t, registry.Connections("room-a"), 2)
		assert.Len(t, registry.Connections("room-b"), 1)
	})

	t.Run("Prunes a room when its last socket leaves", func(t *testing.T) {
		// Given: a room with one socket
		registry := NewRegistry()
		conn := newBufferConn(&bytes.Buffer{})
		registry.Add("room-a", conn)

		// When: the socket disconnects
		registry.Remove("room-a", conn)

		// Then: the room entry is gone, not just empty
		assert.Empty(t, registry.Connections("room-a"))
		registry.mutex.RLock()
		_, exists := registry.rooms["room-a"]
		registry.mutex.RUnlock()
		assert.False(t, exists)
	})

	t.Run("Removing from an unknown room is a no-op", func(t *testing.T) {
		registry := NewRegistry()

		registry.Remove("missing1", newBufferConn(&bytes.Buffer{}))

		assert.Empty(t, registry.Connections("missing1"))
	})
}

func TestServer_Broadcast(t *testing.T) {
	t.Run("A failed send never interrupts delivery to the rest", func(t *testing.T) {
		// Given: a room with a broken socket between two healthy ones
		server := newTestServer(t, nil)

		var firstBuf, lastBuf bytes.Buffer
		first := newBufferConn(&firstBuf)
		broken := newBrokenConn()
		last := newBufferConn(&lastBuf)

		server.registry.Add("room-a", first)
		server.registry.Add("room-a", broken)
		server.registry.Add("room-a", last)

		// When: an event is broadcast
		server.broadcast("room-a", Event{Type: eventPlayerJoined, Player: "alice"})

		// Then: both healthy sockets got the frame
		assert.NotEmpty(t, firstBuf.Bytes())
		assert.NotEmpty(t, lastBuf.Bytes())

		// And: the broken socket was dropped from the room
		assert.Len(t, server.registry.Connections("room-a"), 2)
	})
}
