// Package cmap provides a sharded concurrent map.
//
// Keys are spread over a power-of-two number of shards with murmur3; each
// shard has its own RWMutex. The Redis client uses it as the process-wide
// registry of parked persistent connections, where Pop and SetIfAbsent give
// the hand-over its atomicity:
//
//	m := cmap.New[string, net.Conn]()
//	if !m.SetIfAbsent(id, conn) {
//		conn.Close()
//	}
//	conn, ok := m.Pop(id)
package cmap
