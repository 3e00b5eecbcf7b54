package core

import (
	"context"
	"fmt"
	"log"
	"sync"
)

// Module is a long-running part of the bot (chat session, sweeper, poller, API).
type Module interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context)
}

// Manager coordinates lifecycle of all registered modules.
type Manager struct {
	modules []Module
	started []Module
	mu      sync.Mutex
}

// NewManager creates a new manager with the provided modules.
func NewManager(mods ...Module) *Manager {
	m := &Manager{}
	for _, mod := range mods {
		if mod != nil {
			m.modules = append(m.modules, mod)
		}
	}
	return m
}

// Add registers additional modules before Start is invoked.
func (m *Manager) Add(mod Module) error {
	if mod == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started != nil {
		return fmt.Errorf("actions.Manager: cannot add module %s after start", mod.Name())
	}
	m.modules = append(m.modules, mod)
	return nil
}

// Start starts modules in registration order. If any module fails, the ones
// already started are stopped in reverse order.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started != nil {
		return fmt.Errorf("actions.Manager already started")
	}

	started := make([]Module, 0, len(m.modules))
	for _, mod := range m.modules {
		if err := mod.Start(ctx); err != nil {
			for i := len(started) - 1; i >= 0; i-- {
				started[i].Stop(ctx)
			}
			return fmt.Errorf("module %s failed: %w", mod.Name(), err)
		}
		log.Printf("actions: module %s started", mod.Name())
		started = append(started, mod)
	}

	m.started = started
	return nil
}

// Stop shuts down started modules in reverse order.
func (m *Manager) Stop(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.started) - 1; i >= 0; i-- {
		m.started[i].Stop(ctx)
		log.Printf("actions: module %s stopped", m.started[i].Name())
	}
	m.started = nil
}
