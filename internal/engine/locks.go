package engine

import "sync"

// KeyLocks serializes work on one employee.
//
// Operations on the same employee must never run concurrently: an absence
// delete racing a create for the same dates, or a job update racing a new
// line, leaves the destination in an order the plan never intended. The
// engine takes the employee's lock for the whole of that employee's
// operations.
//
// Locks are created on first use and dropped when the last holder
// releases them, so the map stays as small as the set of busy employees.
type KeyLocks struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

// NewKeyLocks creates an empty lock set.
func NewKeyLocks() *KeyLocks {
	return &KeyLocks{
		locks: make(map[string]*keyLock),
	}
}

// Lock blocks until key is free, then returns the function that releases it.
//
// Thread-safe: Can be called concurrently.
func (k *KeyLocks) Lock(key string) (unlock func()) {
	k.mu.Lock()
	l := k.locks[key]
	if l == nil {
		l = &keyLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

// Size returns the number of keys currently held or awaited.
//
// Used for testing and introspection.
// Thread-safe: Can be called concurrently.
func (k *KeyLocks) Size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
