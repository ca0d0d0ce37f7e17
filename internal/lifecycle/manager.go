package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/moolen/researchlab/internal/logging"
)

// Manager starts components in dependency order and stops them in reverse
// start order, giving each one its own shutdown deadline.
type Manager struct {
	components      []Component
	dependencies    map[Component][]Component
	running         map[Component]bool
	started         []Component
	shutdownTimeout time.Duration
	mu              sync.RWMutex
	opMu            sync.Mutex // serializes Register, Start and Stop
	logger          *logging.Logger
}

// NewManager creates a manager with a 10 second per-component shutdown timeout.
func NewManager() *Manager {
	return &Manager{
		dependencies:    make(map[Component][]Component),
		running:         make(map[Component]bool),
		shutdownTimeout: 10 * time.Second,
		logger:          logging.GetLogger("lifecycle"),
	}
}

// Register adds a component. Dependencies must already be registered; a
// component starts only after all of them and stops before any of them.
func (m *Manager) Register(component Component, dependsOn ...Component) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	if component == nil {
		return fmt.Errorf("cannot register nil component")
	}
	if component.Name() == "" {
		return fmt.Errorf("component must have a non-empty name")
	}
	if m.isRegistered(component) {
		return fmt.Errorf("component %s is already registered", component.Name())
	}
	for _, dep := range dependsOn {
		if dep == component {
			return fmt.Errorf("component %s cannot depend on itself", component.Name())
		}
		if !m.isRegistered(dep) {
			return fmt.Errorf("dependency %s is not registered", dep.Name())
		}
	}

	m.components = append(m.components, component)
	m.dependencies[component] = dependsOn
	m.mu.Lock()
	m.running[component] = false
	m.mu.Unlock()

	m.logger.Debug("Registered component %s with %d dependencies", component.Name(), len(dependsOn))
	return nil
}

func (m *Manager) isRegistered(c Component) bool {
	for _, registered := range m.components {
		if registered == c {
			return true
		}
	}
	return false
}

// Start starts every registered component in dependency order. If one fails,
// the ones already started are stopped in reverse order and the error is
// returned.
func (m *Manager) Start(ctx context.Context) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.started = nil
	for _, component := range m.startOrder() {
		begin := time.Now()
		if err := component.Start(ctx); err != nil {
			m.logger.Error("Failed to start %s: %v", component.Name(), err)
			m.rollback()
			return fmt.Errorf("initialization failed for %s: %w", component.Name(), err)
		}

		m.mu.Lock()
		m.running[component] = true
		m.mu.Unlock()
		m.started = append(m.started, component)

		m.logger.Debug("%s started (took %dms)", component.Name(), time.Since(begin).Milliseconds())
	}
	return nil
}

// startOrder is a depth-first topological sort over the registration order.
// Register rejects unknown dependencies, so the graph is acyclic.
func (m *Manager) startOrder() []Component {
	visited := make(map[Component]bool)
	var sorted []Component

	var visit func(c Component)
	visit = func(c Component) {
		visited[c] = true
		for _, dep := range m.dependencies[c] {
			if !visited[dep] {
				visit(dep)
			}
		}
		sorted = append(sorted, c)
	}

	for _, c := range m.components {
		if !visited[c] {
			visit(c)
		}
	}
	return sorted
}

func (m *Manager) rollback() {
	m.mu.RLock()
	timeout := m.shutdownTimeout
	m.mu.RUnlock()

	for i := len(m.started) - 1; i >= 0; i-- {
		component := m.started[i]
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		if err := component.Stop(ctx); err != nil {
			m.logger.Warn("Error stopping %s during rollback: %v", component.Name(), err)
		}
		cancel()

		m.mu.Lock()
		m.running[component] = false
		m.mu.Unlock()
	}
	m.started = nil
}

// Stop stops every running component in reverse start order. Errors are
// logged and joined; every component gets a chance to stop.
func (m *Manager) Stop(ctx context.Context) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	var errs []error
	for i := len(m.started) - 1; i >= 0; i-- {
		component := m.started[i]
		if !m.IsRunning(component) {
			continue
		}

		m.mu.RLock()
		timeout := m.shutdownTimeout
		m.mu.RUnlock()

		componentCtx, cancel := context.WithTimeout(ctx, timeout)
		err := component.Stop(componentCtx)
		cancel()

		switch {
		case errors.Is(err, context.DeadlineExceeded):
			m.logger.Warn("Component %s exceeded grace period (%dms timeout)", component.Name(), timeout.Milliseconds())
			errs = append(errs, fmt.Errorf("stop %s: %w", component.Name(), err))
		case err != nil:
			m.logger.Error("Error stopping %s: %v", component.Name(), err)
			errs = append(errs, fmt.Errorf("stop %s: %w", component.Name(), err))
		default:
			m.logger.Debug("%s stopped", component.Name())
		}

		m.mu.Lock()
		m.running[component] = false
		m.mu.Unlock()
	}
	m.started = nil
	return errors.Join(errs...)
}

// IsRunning reports whether the component started and has not been stopped.
func (m *Manager) IsRunning(component Component) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.running[component]
}

// SetShutdownTimeout sets the per-component grace period used by Stop.
func (m *Manager) SetShutdownTimeout(timeout time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shutdownTimeout = timeout
}
