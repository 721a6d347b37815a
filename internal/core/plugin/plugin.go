package plugin

import (
	"context"

	"github.com/sceneforge/sceneforge/internal/core/events/bus"
	"github.com/sceneforge/sceneforge/internal/core/history"
	"github.com/sceneforge/sceneforge/internal/core/observability/log"
	"github.com/sceneforge/sceneforge/internal/core/scene"
)

// Plugin is the capability set a subsystem exposes to the manager. There is no
// deeper hierarchy; renderers, caches, and bridges are all just ids with
// dependencies and a lifecycle.
//
// Initialize may perform asynchronous setup (GPU, file, network resources);
// the manager awaits it before any dependent starts, and dependents may rely
// on state it establishes. The manager imposes no deadline: a plugin that
// wants one should derive it from ctx.
type Plugin interface {
	// Identity

	ID() string
	Name() string
	Version() string

	// Lifecycle

	Dependencies() []string
	Initialize(ctx context.Context, pctx *Context) error
	Dispose(ctx context.Context) error
}

// Context is the shared application context handed to every plugin at
// initialization.
type Context struct {
	Bus     bus.EventBus
	Scene   *scene.Graph
	History *history.History
	Logger  log.Log
}

// State tracks a descriptor through its lifecycle. A descriptor is never
// reused after StateDisposed; re-registering the same id creates a fresh one.
type State uint8

const (
	StateRegistered State = iota
	StateInitialized
	StateDisposed
)

func (s State) String() string {
	switch s {
	case StateRegistered:
		return "registered"
	case StateInitialized:
		return "initialized"
	case StateDisposed:
		return "disposed"
	default:
		return "unknown"
	}
}

// Descriptor pairs a live plugin instance with its lifecycle state.
type Descriptor struct {
	plugin Plugin
	state  State
}

// Plugin returns the wrapped subsystem instance.
func (d *Descriptor) Plugin() Plugin { return d.plugin }

// State returns the descriptor's current lifecycle state.
func (d *Descriptor) State() State { return d.state }

// Event types emitted by the manager.
const (
	EventPluginRegistered  = "plugin:registered"
	EventPluginInitialized = "plugin:initialized"
	EventPluginDisposed    = "plugin:disposed"
)

// Registered is the payload of EventPluginRegistered.
type Registered struct {
	ID      string
	Name    string
	Version string
}

// Initialized is the payload of EventPluginInitialized.
type Initialized struct {
	ID   string
	Name string
}

// Disposed is the payload of EventPluginDisposed.
type Disposed struct {
	ID string
}
