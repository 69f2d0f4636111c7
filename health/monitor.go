package health

import (
	"sort"
	"sync"
	"time"
)

// Monitor is a thread-safe set of component statuses.
type Monitor struct {
	mu       sync.RWMutex
	statuses map[string]Status
}

// NewMonitor creates an empty monitor.
func NewMonitor() *Monitor {
	return &Monitor{statuses: make(map[string]Status)}
}

// Update stores status under name.
func (m *Monitor) Update(name string, status Status) {
	m.mu.Lock()
	defer m.mu.Unlock()

	status.Component = name
	if status.Timestamp.IsZero() {
		status.Timestamp = time.Now()
	}
	m.statuses[name] = status
}

// UpdateFromBool records name as healthy, or unhealthy with failMessage.
func (m *Monitor) UpdateFromBool(name string, healthy bool, failMessage string) {
	if healthy {
		m.Update(name, NewHealthy(name, "ok"))
		return
	}
	m.Update(name, NewUnhealthy(name, failMessage))
}

// Get returns the status stored under name.
func (m *Monitor) Get(name string) (Status, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	status, ok := m.statuses[name]
	return status, ok
}

// Remove forgets name.
func (m *Monitor) Remove(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.statuses, name)
}

// List returns every status ordered by component name.
func (m *Monitor) List() []Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Status, 0, len(m.statuses))
	for _, status := range m.statuses {
		out = append(out, status)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Component < out[j].Component })
	return out
}

// AggregateHealth aggregates every stored status.
func (m *Monitor) AggregateHealth(systemName string) Status {
	return Aggregate(systemName, m.List())
}
