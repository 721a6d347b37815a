// Package editor wires the orchestration core together: one bus, one scene
// graph, one command history, one plugin manager, all owned by a single
// Editor value with an explicit start/stop lifecycle.
package editor

import (
	"context"
	"time"

	"github.com/sceneforge/sceneforge/internal/core/events/bus"
	"github.com/sceneforge/sceneforge/internal/core/history"
	"github.com/sceneforge/sceneforge/internal/core/observability/log"
	"github.com/sceneforge/sceneforge/internal/core/plugin"
	"github.com/sceneforge/sceneforge/internal/core/scene"
	"github.com/sceneforge/sceneforge/internal/plugins/diagnostics"
	"github.com/sceneforge/sceneforge/internal/plugins/inspector"
	"github.com/sceneforge/sceneforge/internal/plugins/lightcache"
)

// EventObjectPropertyChanged is the ingress event the UI layer publishes when
// the user edits a property. The adapter turns it into a Command; nothing
// outside the adapter mutates the scene directly.
const EventObjectPropertyChanged = "object:propertyChanged"

// PropertyChanged is the payload of EventObjectPropertyChanged.
type PropertyChanged struct {
	ID       string
	Property string
	Value    any
}

// Editor owns the orchestration core for one open scene.
type Editor struct {
	config  Config
	logger  log.Log
	bus     bus.EventBus
	scene   *scene.Graph
	history *history.History
	plugins *plugin.Manager

	ingress bus.Subscription
	started bool
}

// New assembles an editor from config. Construction is cheap and infallible;
// subsystem bring-up happens in Start.
func New(cfg Config, logger log.Log) *Editor {
	if logger == nil {
		logger = log.Nop()
	}
	b := bus.New()
	g := scene.NewGraph(b)
	h := history.New(b, history.NewPropertyApplier(g, b),
		history.WithMaxStackSize(cfg.MaxUndoDepth),
		history.WithMergeWindow(time.Duration(cfg.MergeWindow)),
		history.WithLogger(logger),
	)
	m := plugin.NewManager(&plugin.Context{
		Bus:     b,
		Scene:   g,
		History: h,
		Logger:  logger,
	})
	return &Editor{
		config:  cfg,
		logger:  logger,
		bus:     b,
		scene:   g,
		history: h,
		plugins: m,
	}
}

// Bus returns the editor's event bus.
func (e *Editor) Bus() bus.EventBus { return e.bus }

// Scene returns the editor's scene graph.
func (e *Editor) Scene() *scene.Graph { return e.scene }

// History returns the editor's command history.
func (e *Editor) History() *history.History { return e.history }

// Plugins returns the editor's plugin manager.
func (e *Editor) Plugins() *plugin.Manager { return e.plugins }

// Start registers the built-in plugins, brings them up in dependency order,
// and attaches the UI ingress adapter. The render/input loop may only run
// after Start returns: dependents read state their dependencies establish
// during bring-up.
func (e *Editor) Start(ctx context.Context) error {
	if e.started {
		return ErrAlreadyStarted
	}

	if err := e.plugins.Register(diagnostics.New()); err != nil {
		return err
	}
	if err := e.plugins.Register(lightcache.New()); err != nil {
		return err
	}
	if e.config.Inspector.Enabled {
		if err := e.plugins.Register(inspector.New(e.config.Inspector.Addr)); err != nil {
			return err
		}
	}

	if err := e.plugins.InitializeAll(ctx); err != nil {
		return err
	}

	sub, err := e.bus.Subscribe(EventObjectPropertyChanged, e.onPropertyChanged)
	if err != nil {
		return err
	}
	e.ingress = sub
	e.started = true
	e.logger.Info("editor started", log.Int("plugins", e.plugins.InitializedCount()))
	return nil
}

// Stop disposes all plugins in reverse initialization order and tears down
// the bus.
func (e *Editor) Stop(ctx context.Context) error {
	if !e.started {
		return ErrNotStarted
	}
	e.started = false
	_ = e.bus.Unsubscribe(e.ingress)
	err := e.plugins.DisposeAll(ctx)
	if cerr := e.bus.Close(); cerr != nil && err == nil {
		err = cerr
	}
	e.logger.Info("editor stopped")
	return err
}

// onPropertyChanged is the ingress adapter: it reads the property's current
// value as the command's old value, so undo restores exactly what the user
// saw before the edit.
func (e *Editor) onPropertyChanged(ev bus.Event) error {
	change, ok := ev.Data().(PropertyChanged)
	if !ok {
		e.logger.Warn("ignoring malformed property change", log.Any("payload", ev.Data()))
		return nil
	}
	node := e.scene.Find(change.ID)
	if node == nil {
		e.logger.Warn("property change for detached entity", log.String("entity", change.ID))
		return nil
	}
	old, err := node.Property(change.Property)
	if err != nil {
		// first write to a previously unset component field
		old = nil
	}
	cmd := history.NewCommand(change.ID, change.Property, old, change.Value)
	if err := e.history.Execute(cmd); err != nil {
		e.logger.Error("property change rejected",
			log.String("entity", change.ID), log.String("path", change.Property), log.Error(err))
		return err
	}
	return nil
}
