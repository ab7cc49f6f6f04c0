package session

import (
	"hash/fnv"
	"sync"
)

// Locks serialises load-modify-save cycles on a session's state within
// this process. Keys share a fixed set of stripes.
type Locks struct {
	stripes [64]sync.Mutex
}

// Lock locks the stripe for sessionID and returns its unlock func.
func (l *Locks) Lock(sessionID string) func() {
	h := fnv.New32a()
	h.Write([]byte(sessionID))
	mu := &l.stripes[h.Sum32()%uint32(len(l.stripes))]
	mu.Lock()
	return mu.Unlock
}
