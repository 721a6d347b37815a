package plugin

import (
	"context"
	"errors"
	"slices"

	"github.com/sceneforge/sceneforge/internal/core/events/bus"
	"github.com/sceneforge/sceneforge/internal/core/observability/log"
	"github.com/sceneforge/sceneforge/pkg/sequence"
)

// Manager owns subsystem registration and lifecycle ordering.
//
// Initialization is dependency-ordered: a dependency's Initialize fully
// completes before any dependent begins. Disposal runs in the exact reverse of
// the initialization order actually achieved. A failed InitializeAll leaves
// already-initialized plugins initialized; rollback is the caller's business.
type Manager struct {
	appCtx *Context
	logger log.Log

	descriptors map[string]*Descriptor
	// registration order; also the tie-breaker among equally-ready plugins
	order []string
	// achieved initialization order
	initOrder []string
}

// NewManager creates a manager that hands appCtx to every plugin it
// initializes and announces lifecycle transitions on appCtx.Bus.
func NewManager(appCtx *Context) *Manager {
	logger := appCtx.Logger
	if logger == nil {
		logger = log.Nop()
	}
	return &Manager{
		appCtx:      appCtx,
		logger:      logger,
		descriptors: make(map[string]*Descriptor),
	}
}

// Register adds a plugin under its id. Emits EventPluginRegistered.
func (m *Manager) Register(p Plugin) error {
	id := p.ID()
	if _, exists := m.descriptors[id]; exists {
		return DuplicateRegistrationError{ID: id}
	}
	m.descriptors[id] = &Descriptor{plugin: p, state: StateRegistered}
	m.order = append(m.order, id)
	m.logger.Debug("plugin registered", log.String("plugin", id))
	m.publish(EventPluginRegistered, Registered{ID: id, Name: p.Name(), Version: p.Version()})
	return nil
}

// Unregister removes the descriptor for id, disposing the plugin first if it
// is initialized. Returns false if the id is absent. After Unregister the id
// is free for a fresh Register.
func (m *Manager) Unregister(ctx context.Context, id string) (bool, error) {
	d, ok := m.descriptors[id]
	if !ok {
		return false, nil
	}
	if d.state == StateInitialized {
		if err := m.Dispose(ctx, id); err != nil {
			return false, err
		}
	}
	delete(m.descriptors, id)
	m.order = slices.DeleteFunc(m.order, func(s string) bool { return s == id })
	return true, nil
}

// Initialize brings up the plugin with the given id, initializing every
// not-yet-initialized dependency first (depth-first, dependencies before
// dependents). Idempotent: an already-initialized id is a no-op.
func (m *Manager) Initialize(ctx context.Context, id string) error {
	if _, ok := m.descriptors[id]; !ok {
		return NotFoundError{ID: id}
	}
	return m.initialize(ctx, id, nil)
}

// InitializeAll initializes the full registered set in a stable topological
// order: dependencies before dependents, registration order among
// equally-ready plugins. Aborts on the first failure; plugins initialized
// before the failure stay initialized.
func (m *Manager) InitializeAll(ctx context.Context) error {
	for _, id := range slices.Clone(m.order) {
		if err := m.initialize(ctx, id, nil); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) initialize(ctx context.Context, id string, stack []string) error {
	if i := slices.Index(stack, id); i >= 0 {
		return CircularDependencyError{Path: append(slices.Clone(stack[i:]), id)}
	}
	d, ok := m.descriptors[id]
	if !ok {
		return PluginDependencyError{PluginID: stack[len(stack)-1], Missing: id}
	}
	switch d.state {
	case StateInitialized:
		return nil
	case StateDisposed:
		return ErrDescriptorDisposed
	}

	stack = append(stack, id)
	for _, dep := range d.plugin.Dependencies() {
		if err := m.initialize(ctx, dep, stack); err != nil {
			return err
		}
	}

	if err := d.plugin.Initialize(ctx, m.appCtx); err != nil {
		m.logger.Error("plugin initialize failed", log.String("plugin", id), log.Error(err))
		return err
	}
	d.state = StateInitialized
	m.initOrder = append(m.initOrder, id)
	m.logger.Info("plugin initialized", log.String("plugin", id))
	m.publish(EventPluginInitialized, Initialized{ID: id, Name: d.plugin.Name()})
	return nil
}

// Dispose tears down the plugin with the given id. Disposing a plugin that is
// not initialized is a no-op.
func (m *Manager) Dispose(ctx context.Context, id string) error {
	d, ok := m.descriptors[id]
	if !ok {
		return NotFoundError{ID: id}
	}
	if d.state != StateInitialized {
		return nil
	}
	if err := d.plugin.Dispose(ctx); err != nil {
		return err
	}
	d.state = StateDisposed
	m.initOrder = slices.DeleteFunc(m.initOrder, func(s string) bool { return s == id })
	m.logger.Info("plugin disposed", log.String("plugin", id))
	m.publish(EventPluginDisposed, Disposed{ID: id})
	return nil
}

// DisposeAll disposes every initialized plugin in exact reverse of the
// initialization order actually achieved. Errors do not stop the teardown;
// they are joined and returned at the end.
func (m *Manager) DisposeAll(ctx context.Context) error {
	var all error
	for i := len(m.initOrder) - 1; i >= 0; i-- {
		if err := m.Dispose(ctx, m.initOrder[i]); err != nil {
			all = errors.Join(all, err)
		}
	}
	return all
}

// Get returns the registered plugin instance for id.
func (m *Manager) Get(id string) (Plugin, bool) {
	d, ok := m.descriptors[id]
	if !ok {
		return nil, false
	}
	return d.plugin, true
}

// Has reports whether id is registered.
func (m *Manager) Has(id string) bool {
	_, ok := m.descriptors[id]
	return ok
}

// IsInitialized reports whether id is registered and initialized.
func (m *Manager) IsInitialized(id string) bool {
	d, ok := m.descriptors[id]
	return ok && d.state == StateInitialized
}

// PluginIDs returns all registered ids in registration order.
func (m *Manager) PluginIDs() []string {
	return slices.Clone(m.order)
}

// PluginsWhere returns the registered plugins satisfying the predicate, in
// registration order.
func (m *Manager) PluginsWhere(pred func(Plugin) bool) []Plugin {
	return sequence.ToArray(
		sequence.From(m.order).Filter(func(id string) bool {
			return pred(m.descriptors[id].plugin)
		}),
		func(id string) Plugin { return m.descriptors[id].plugin },
	)
}

// Count returns the number of registered plugins.
func (m *Manager) Count() int {
	return len(m.descriptors)
}

// InitializedCount returns the number of initialized plugins.
func (m *Manager) InitializedCount() int {
	return len(m.initOrder)
}

// InitOrder returns the achieved initialization order.
func (m *Manager) InitOrder() []string {
	return slices.Clone(m.initOrder)
}

func (m *Manager) publish(eventType string, payload any) {
	if m.appCtx == nil || m.appCtx.Bus == nil {
		return
	}
	_ = m.appCtx.Bus.Publish(bus.NewEvent(eventType, "plugin", payload))
}
