package history

import (
	"github.com/sceneforge/sceneforge/internal/core/events/bus"
	"github.com/sceneforge/sceneforge/internal/core/scene"
)

// EventPropertyUpdated is emitted after a command transition lands on a node.
const EventPropertyUpdated = "entity:propertyUpdated"

// PropertyUpdated is the payload of EventPropertyUpdated. On undo the value
// pair is reversed, so OldValue is always what the property held before this
// particular application.
type PropertyUpdated struct {
	EntityID string
	Property string
	OldValue any
	NewValue any
}

// PropertyApplier applies command transitions to scene-resident nodes through
// their dotted property paths and announces each landed mutation.
type PropertyApplier struct {
	graph *scene.Graph
	bus   bus.EventBus
}

var _ Applier = (*PropertyApplier)(nil)

// NewPropertyApplier builds the standard applier over the given graph.
func NewPropertyApplier(g *scene.Graph, b bus.EventBus) *PropertyApplier {
	return &PropertyApplier{graph: g, bus: b}
}

func (a *PropertyApplier) Apply(entityID, path string, from, to any) error {
	node := a.graph.Find(entityID)
	if node == nil {
		return scene.NotFoundError{Kind: "node", ID: entityID}
	}
	if err := node.SetProperty(path, to); err != nil {
		return err
	}
	if a.bus != nil {
		_ = a.bus.Publish(bus.NewEvent(EventPropertyUpdated, "history", PropertyUpdated{
			EntityID: entityID,
			Property: path,
			OldValue: from,
			NewValue: to,
		}))
	}
	return nil
}
