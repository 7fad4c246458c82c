package scheduling

import (
	"slices"
	"sync"
)

// KeyedMutex hands out one mutex per key. Keys are locked in ascending order
// and deduplicated, so two callers locking overlapping key sets cannot
// deadlock.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*sync.Mutex)}
}

func (k *KeyedMutex) get(key string) *sync.Mutex {
	k.mu.Lock()
	defer k.mu.Unlock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	return m
}

// Lock acquires every key and returns the matching unlock func.
func (k *KeyedMutex) Lock(keys ...string) (unlock func()) {
	sorted := slices.Clone(keys)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	held := make([]*sync.Mutex, 0, len(sorted))
	for _, key := range sorted {
		m := k.get(key)
		m.Lock()
		held = append(held, m)
	}
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}

// With runs fn while holding every key.
func (k *KeyedMutex) With(fn func() error, keys ...string) error {
	unlock := k.Lock(keys...)
	defer unlock()
	return fn()
}
