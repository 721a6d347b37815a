// Package lightcache keeps a flattened view of light-affecting parameters so
// render passes don't re-walk the scene graph per frame. It rebuilds entries
// from property-update events and drops them when the owning node leaves the
// scene.
package lightcache

import (
	"context"
	"strings"

	"github.com/sceneforge/sceneforge/internal/core/events/bus"
	"github.com/sceneforge/sceneforge/internal/core/history"
	"github.com/sceneforge/sceneforge/internal/core/observability/log"
	"github.com/sceneforge/sceneforge/internal/core/plugin"
	"github.com/sceneforge/sceneforge/internal/core/scene"
)

// PluginID is the id the cache registers under.
const PluginID = "light-cache"

// lightPrefix selects the property paths the cache tracks.
const lightPrefix = "light."

// Cache is the plugin instance.
type Cache struct {
	logger log.Log

	// entity id -> property path -> value
	entries map[string]map[string]any
	subs    []bus.Subscription
}

var _ plugin.Plugin = (*Cache)(nil)

// New creates an empty cache.
func New() *Cache {
	return &Cache{entries: make(map[string]map[string]any)}
}

func (c *Cache) ID() string             { return PluginID }
func (c *Cache) Name() string           { return "Light Cache" }
func (c *Cache) Version() string        { return "1.0.0" }
func (c *Cache) Dependencies() []string { return nil }

func (c *Cache) Initialize(_ context.Context, pctx *plugin.Context) error {
	c.logger = pctx.Logger
	if c.logger == nil {
		c.logger = log.Nop()
	}

	sub, err := pctx.Bus.Subscribe(history.EventPropertyUpdated, func(e bus.Event) error {
		upd, ok := e.Data().(history.PropertyUpdated)
		if !ok || !strings.HasPrefix(upd.Property, lightPrefix) {
			return nil
		}
		c.put(upd.EntityID, upd.Property, upd.NewValue)
		return nil
	})
	if err != nil {
		return err
	}
	c.subs = append(c.subs, sub)

	sub, err = pctx.Bus.Subscribe(scene.EventObjectRemoved, func(e bus.Event) error {
		rem, ok := e.Data().(scene.ObjectRemoved)
		if !ok {
			return nil
		}
		c.Invalidate(rem.Object.ID)
		return nil
	})
	if err != nil {
		return err
	}
	c.subs = append(c.subs, sub)
	return nil
}

func (c *Cache) Dispose(_ context.Context) error {
	for _, sub := range c.subs {
		_ = sub.Cancel()
	}
	c.subs = nil
	c.entries = make(map[string]map[string]any)
	return nil
}

// Lookup returns the cached light parameters for an entity.
func (c *Cache) Lookup(entityID string) (map[string]any, bool) {
	params, ok := c.entries[entityID]
	return params, ok
}

// Invalidate drops the cached parameters for an entity.
func (c *Cache) Invalidate(entityID string) {
	if _, ok := c.entries[entityID]; ok {
		delete(c.entries, entityID)
		c.logger.Debug("light cache invalidated", log.String("entity", entityID))
	}
}

// Len returns the number of cached entities.
func (c *Cache) Len() int { return len(c.entries) }

func (c *Cache) put(entityID, path string, value any) {
	params, ok := c.entries[entityID]
	if !ok {
		params = make(map[string]any)
		c.entries[entityID] = params
	}
	params[path] = value
}
