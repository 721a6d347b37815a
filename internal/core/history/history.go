package history

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/sceneforge/sceneforge/internal/core/events/bus"
	"github.com/sceneforge/sceneforge/internal/core/observability/log"
)

// Event types emitted by the history.
const (
	EventCommandExecuted = "command:executed"
	EventCommandUndone   = "command:undone"
	EventCommandRedone   = "command:redone"
)

const (
	// DefaultMaxStackSize bounds the undo stack unless overridden.
	DefaultMaxStackSize = 100
	// DefaultMergeWindow is the coalescing window for rapid successive edits.
	DefaultMergeWindow = 300 * time.Millisecond
)

// Applier performs the actual mutation a command describes. The history stays
// value-opaque: it only tells the applier which transition to make.
// Implementations resolve the entity by id and must not call back into the
// history.
type Applier interface {
	Apply(entityID, path string, from, to any) error
}

// History owns the bounded undo stack and the redo stack.
//
// All mutation flows through Execute. The re-entrancy guard makes a command's
// apply calling Execute again a hard error instead of silent stack corruption.
// Undo and Redo never fail on empty stacks; they report false, which is what
// an editor's disabled undo button wants.
type History struct {
	bus     bus.EventBus
	applier Applier
	logger  log.Log

	undo []Command
	redo []Command

	maxStackSize int
	mergeWindow  time.Duration

	applying atomic.Bool
}

// Option configures a History.
type Option func(*History)

// WithMaxStackSize bounds the undo stack; the oldest entry is evicted first.
func WithMaxStackSize(n int) Option {
	return func(h *History) {
		if n > 0 {
			h.maxStackSize = n
		}
	}
}

// WithMergeWindow sets the coalescing window for CanMergeWith.
func WithMergeWindow(d time.Duration) Option {
	return func(h *History) {
		if d > 0 {
			h.mergeWindow = d
		}
	}
}

// WithLogger routes diagnostics for failed inverse applications.
func WithLogger(l log.Log) Option {
	return func(h *History) {
		h.logger = l
	}
}

// New creates a history that applies commands through applier and announces
// lifecycle on b.
func New(b bus.EventBus, applier Applier, opts ...Option) *History {
	h := &History{
		bus:          b,
		applier:      applier,
		logger:       log.Nop(),
		maxStackSize: DefaultMaxStackSize,
		mergeWindow:  DefaultMergeWindow,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Execute applies the command's forward effect and records it for undo.
//
// The command is first offered to the top of the undo stack for a merge; on a
// merge the stack gains no entry but the forward effect still runs. Any
// successful Execute invalidates the redo stack. Once the undo stack exceeds
// its bound the oldest entry is dropped.
func (h *History) Execute(c Command) error {
	if c.EntityID == "" || c.Path == "" {
		return fmt.Errorf("%w: empty entity id or path", ErrInvalidCommand)
	}
	if !h.applying.CompareAndSwap(false, true) {
		return ErrReentrantExecution
	}
	defer h.applying.Store(false)

	if err := h.applier.Apply(c.EntityID, c.Path, c.Old, c.New); err != nil {
		return err
	}

	merged := false
	if n := len(h.undo); n > 0 && c.CanMergeWith(h.undo[n-1], h.mergeWindow) {
		h.undo[n-1] = c.MergeWith(h.undo[n-1])
		merged = true
	} else {
		h.undo = append(h.undo, c)
		if len(h.undo) > h.maxStackSize {
			// shift in place so the evicted command's payloads don't stay
			// reachable through the backing array
			n := copy(h.undo, h.undo[1:])
			h.undo[n] = Command{}
			h.undo = h.undo[:n]
		}
	}
	h.redo = h.redo[:0]

	h.publish(EventCommandExecuted, c.summary(merged))
	return nil
}

// Undo reverts the most recent command. Reports false when there is nothing
// to undo or the inverse could not be applied.
func (h *History) Undo() bool {
	if len(h.undo) == 0 {
		return false
	}
	if !h.applying.CompareAndSwap(false, true) {
		return false
	}
	defer h.applying.Store(false)

	c := h.undo[len(h.undo)-1]
	if err := h.applier.Apply(c.EntityID, c.Path, c.New, c.Old); err != nil {
		h.logger.Warn("undo failed, entry kept",
			log.String("entity", c.EntityID), log.String("path", c.Path), log.Error(err))
		return false
	}
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append(h.redo, c)

	h.publish(EventCommandUndone, c.summary(false))
	return true
}

// Redo reapplies the most recently undone command. Reports false when there
// is nothing to redo or the forward effect could not be applied.
func (h *History) Redo() bool {
	if len(h.redo) == 0 {
		return false
	}
	if !h.applying.CompareAndSwap(false, true) {
		return false
	}
	defer h.applying.Store(false)

	c := h.redo[len(h.redo)-1]
	if err := h.applier.Apply(c.EntityID, c.Path, c.Old, c.New); err != nil {
		h.logger.Warn("redo failed, entry kept",
			log.String("entity", c.EntityID), log.String("path", c.Path), log.Error(err))
		return false
	}
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = append(h.undo, c)

	h.publish(EventCommandRedone, c.summary(false))
	return true
}

// CanUndo reports whether an Undo would do anything.
func (h *History) CanUndo() bool { return len(h.undo) > 0 }

// CanRedo reports whether a Redo would do anything.
func (h *History) CanRedo() bool { return len(h.redo) > 0 }

// Len returns the undo stack depth.
func (h *History) Len() int { return len(h.undo) }

// RedoLen returns the redo stack depth.
func (h *History) RedoLen() int { return len(h.redo) }

// MaxStackSize returns the configured undo bound.
func (h *History) MaxStackSize() int { return h.maxStackSize }

// Clear empties both stacks without emitting mutation events.
func (h *History) Clear() {
	h.undo = h.undo[:0]
	h.redo = h.redo[:0]
}

func (h *History) publish(eventType string, payload Summary) {
	if h.bus == nil {
		return
	}
	_ = h.bus.Publish(bus.NewEvent(eventType, "history", payload))
}
