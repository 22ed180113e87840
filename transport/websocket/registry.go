package websocket

import "sync"

// Registry maps a room id to the set of sockets currently subscribed to it.
// It is process-lifetime, in-memory state; nothing here is persisted.
type Registry struct {
	mutex sync.RWMutex
	rooms map[string]map[*Conn]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[string]map[*Conn]struct{}),
	}
}

func (that *Registry) Add(roomID string, conn *Conn) {
	that.mutex.Lock()
	defer that.mutex.Unlock()

	conns, ok := that.rooms[roomID]
	if !ok {
		conns = make(map[*Conn]struct{})
		that.rooms[roomID] = conns
	}

	conns[conn] = struct{}{}
}

// Remove - unregisters the socket; a room whose last socket leaves is
// dropped from the registry immediately.
func (that *Registry) Remove(roomID string, conn *Conn) {
	that.mutex.Lock()
	defer that.mutex.Unlock()

	conns, ok := that.rooms[roomID]
	if !ok {
		return
	}

	delete(conns, conn)

	if len(conns) == 0 {
		delete(that.rooms, roomID)
	}
}

// Connections - snapshots the room's sockets for iteration outside the lock.
func (that *Registry) Connections(roomID string) []*Conn {
	that.mutex.RLock()
	defer that.mutex.RUnlock()

	conns := make([]*Conn, 0, len(that.rooms[roomID]))
	for conn := range that.rooms[roomID] {
		conns = append(conns, conn)
	}

	return conns
}
