package worker

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Worker is a background loop owned by the server process
type Worker interface {
	Start(ctx context.Context) error
	Stop()
	Name() string
}

// Manager starts and stops the registered workers together
type Manager struct {
	mu      sync.RWMutex
	workers []Worker
	started int
	logger  *zap.Logger
}

// NewManager creates a new worker manager
func NewManager(logger *zap.Logger) *Manager {
	return &Manager{logger: logger}
}

// Register adds a worker; workers start in registration order
func (m *Manager) Register(w Worker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.workers = append(m.workers, w)
}

// StartAll starts every worker. If one fails, the ones already running are
// stopped before the error is returned.
func (m *Manager) StartAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, w := range m.workers {
		if err := w.Start(ctx); err != nil {
			m.logger.Error("Failed to start worker", zap.String("worker", w.Name()), zap.Error(err))
			m.stopFirst(i)
			return fmt.Errorf("failed to start %s: %w", w.Name(), err)
		}
		m.started = i + 1
		m.logger.Info("Worker started", zap.String("worker", w.Name()))
	}
	return nil
}

// StopAll stops the running workers in reverse start order
func (m *Manager) StopAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopFirst(m.started)
}

func (m *Manager) stopFirst(n int) {
	for i := n - 1; i >= 0; i-- {
		w := m.workers[i]
		w.Stop()
		m.logger.Info("Worker stopped", zap.String("worker", w.Name()))
	}
	m.started = 0
}

// Count returns the number of registered workers
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.workers)
}
