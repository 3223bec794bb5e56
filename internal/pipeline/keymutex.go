package pipeline

import (
	"sync"

	"infohub/pkg/fingerprint"
)

// keyMutex provides one mutex per key so commits for different keys proceed
// fully in parallel. Entries live for the run; the map is bounded by the
// number of distinct keys admitted.
type keyMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyMutex() *keyMutex {
	return &keyMutex{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for key and returns its unlock function.
func (k *keyMutex) Lock(key fingerprint.Key) func() {
	k.mu.Lock()
	m, ok := k.locks[key.String()]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key.String()] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}
