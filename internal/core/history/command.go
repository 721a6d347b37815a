package history

import "time"

// Command is a reversible description of a single property mutation.
//
// Old and New are opaque payloads: the history compares and swaps them but
// never interprets them. A command is created by the edge that observed the
// user edit (UI adapter, gizmo drag) and owns no entity; the target is a weak
// reference by id, resolved through the scene graph at apply time.
type Command struct {
	EntityID  string
	Path      string
	Old       any
	New       any
	Timestamp time.Time
}

// NewCommand builds a command stamped with the current time.
func NewCommand(entityID, path string, old, new any) Command {
	return Command{
		EntityID:  entityID,
		Path:      path,
		Old:       old,
		New:       new,
		Timestamp: time.Now(),
	}
}

// CanMergeWith reports whether c, arriving after prev, coalesces into prev.
// Commands merge only when they target the same entity and property and land
// within the coalescing window of each other. Only the most recent undo entry
// is ever offered as prev.
func (c Command) CanMergeWith(prev Command, window time.Duration) bool {
	if c.EntityID != prev.EntityID || c.Path != prev.Path {
		return false
	}
	delta := c.Timestamp.Sub(prev.Timestamp)
	return delta >= 0 && delta < window
}

// MergeWith folds c into prev: the merged command keeps prev's Old (the
// earliest) and c's New (the latest), so undoing a rapid edit run restores the
// pre-run value in one step.
func (c Command) MergeWith(prev Command) Command {
	return Command{
		EntityID:  c.EntityID,
		Path:      c.Path,
		Old:       prev.Old,
		New:       c.New,
		Timestamp: c.Timestamp,
	}
}

// Summary is the payload of the command lifecycle events.
type Summary struct {
	EntityID string
	Path     string
	Merged   bool
}

func (c Command) summary(merged bool) Summary {
	return Summary{EntityID: c.EntityID, Path: c.Path, Merged: merged}
}
