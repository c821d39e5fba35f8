// Package concurrency guards work that must not run twice at once for the
// same pull request.
package concurrency

import (
	"fmt"
	"sync"
)

// Manager hands out non-blocking per-key locks.
type Manager struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewManager creates a new concurrency manager
func NewManager() *Manager {
	return &Manager{held: make(map[string]struct{})}
}

// PRKey returns the lock key for a pull request, e.g. "octo/repo#12".
func PRKey(repoFullName string, number int) string {
	return fmt.Sprintf("%s#%d", repoFullName, number)
}

// TryAcquire takes the lock for key, returning false if it is already held.
func (m *Manager) TryAcquire(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.held[key]; ok {
		return false
	}
	m.held[key] = struct{}{}
	return true
}

// Release frees key. Releasing a key that is not held is a no-op.
func (m *Manager) Release(key string) {
	m.mu.Lock()
	delete(m.held, key)
	m.mu.Unlock()
}

// Do runs fn while holding key. It returns false without calling fn when
// another caller holds the key.
func (m *Manager) Do(key string, fn func()) bool {
	if !m.TryAcquire(key) {
		return false
	}
	defer m.Release(key)
	fn()
	return true
}

// Held reports how many keys are currently locked.
func (m *Manager) Held() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.held)
}
