// Package diagnostics surfaces core activity to the log: plugin lifecycle
// transitions, command traffic, and bus delivery stats. It is deliberately a
// consumer only; nothing else depends on its output.
package diagnostics

import (
	"context"

	"github.com/sceneforge/sceneforge/internal/core/events/bus"
	"github.com/sceneforge/sceneforge/internal/core/history"
	"github.com/sceneforge/sceneforge/internal/core/observability/log"
	"github.com/sceneforge/sceneforge/internal/core/plugin"
)

// PluginID is the id the diagnostics plugin registers under.
const PluginID = "diagnostics"

// Diagnostics is the plugin instance. It also acts as a bus observer while
// initialized, so delivery metrics are only collected when someone cares.
type Diagnostics struct {
	logger log.Log
	bus    bus.EventBus
	subs   []bus.Subscription
}

var _ plugin.Plugin = (*Diagnostics)(nil)
var _ bus.EventBusObserver = (*Diagnostics)(nil)

func New() *Diagnostics {
	return &Diagnostics{}
}

func (d *Diagnostics) ID() string             { return PluginID }
func (d *Diagnostics) Name() string           { return "Diagnostics" }
func (d *Diagnostics) Version() string        { return "1.0.0" }
func (d *Diagnostics) Dependencies() []string { return nil }

func (d *Diagnostics) Initialize(_ context.Context, pctx *plugin.Context) error {
	d.logger = pctx.Logger
	if d.logger == nil {
		d.logger = log.Nop()
	}
	d.bus = pctx.Bus
	d.bus.AddObserver(d)

	for _, et := range []string{
		plugin.EventPluginRegistered,
		plugin.EventPluginInitialized,
		plugin.EventPluginDisposed,
		history.EventCommandExecuted,
		history.EventCommandUndone,
		history.EventCommandRedone,
	} {
		sub, err := pctx.Bus.Subscribe(et, d.logEvent)
		if err != nil {
			return err
		}
		d.subs = append(d.subs, sub)
	}
	return nil
}

func (d *Diagnostics) Dispose(_ context.Context) error {
	for _, sub := range d.subs {
		_ = sub.Cancel()
	}
	d.subs = nil
	if d.bus != nil {
		d.bus.RemoveObserver(d)
	}
	return nil
}

func (d *Diagnostics) logEvent(e bus.Event) error {
	switch data := e.Data().(type) {
	case plugin.Registered:
		d.logger.Debug("plugin registered",
			log.String("plugin", data.ID), log.String("version", data.Version))
	case plugin.Initialized:
		d.logger.Debug("plugin initialized", log.String("plugin", data.ID))
	case plugin.Disposed:
		d.logger.Debug("plugin disposed", log.String("plugin", data.ID))
	case history.Summary:
		d.logger.Debug("command",
			log.String("type", e.Type()),
			log.String("entity", data.EntityID),
			log.String("path", data.Path),
			log.Bool("merged", data.Merged))
	}
	return nil
}

// OnPublish implements bus.EventBusObserver.
func (d *Diagnostics) OnPublish(string, bus.Event) {}

// OnDelivered implements bus.EventBusObserver.
func (d *Diagnostics) OnDelivered(eventType string, handlers int, err error, durationMicros int64) {
	if err != nil {
		d.logger.Warn("event handler failed",
			log.String("event", eventType), log.Int("handlers", handlers), log.Error(err))
	}
}
