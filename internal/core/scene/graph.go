package scene

import (
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/sceneforge/sceneforge/internal/core/events/bus"
	"github.com/sceneforge/sceneforge/pkg/sequence"
)

// Event types emitted by the graph.
const (
	EventObjectAdded   = "scene:objectAdded"
	EventObjectRemoved = "scene:objectRemoved"
)

// RootID is the id of the synthetic root node.
const RootID = "scene:root"

// ObjectAdded is the payload of EventObjectAdded.
type ObjectAdded struct {
	Object *Node
	Parent *Node
}

// ObjectRemoved is the payload of EventObjectRemoved.
type ObjectRemoved struct {
	Object *Node
}

// Graph is the hierarchical store of scene nodes.
//
// The graph exclusively owns every node reachable from its root. Structure is
// a strict tree: ids are unique, no node is its own ancestor, and each child's
// ParentID matches the node holding it. An id index keeps Find O(1) under the
// frequent lookups coming from command application and picking.
//
// Graph is not safe for concurrent mutation; the editor drives it from a
// single logical thread (see the application layer).
type Graph struct {
	bus   bus.EventBus
	root  *Node
	index map[string]*Node
}

// NewGraph creates a graph with a synthetic root node, announcing structural
// changes on b.
func NewGraph(b bus.EventBus) *Graph {
	root := NewNodeWithID(RootID, "Scene")
	g := &Graph{
		bus:   b,
		root:  root,
		index: map[string]*Node{RootID: root},
	}
	return g
}

// Root returns the synthetic root node. It is never removable and has no parent.
func (g *Graph) Root() *Node {
	return g.root
}

// Len returns the number of attached nodes, including the root.
func (g *Graph) Len() int {
	return len(g.index)
}

// Add attaches node as a child of parentID. An empty parentID means the root.
// Emits EventObjectAdded on success.
func (g *Graph) Add(node *Node, parentID string) error {
	if node == nil {
		return ErrNilNode
	}
	// The node may carry a pre-built subtree; every id in it must be fresh.
	var dup string
	g.walk(node, func(n *Node) bool {
		if _, exists := g.index[n.ID]; exists {
			dup = n.ID
			return false
		}
		return true
	})
	if dup != "" {
		return DuplicateIDError{ID: dup}
	}
	if parentID == "" {
		parentID = RootID
	}
	parent, ok := g.index[parentID]
	if !ok {
		return NotFoundError{Kind: "node", ID: parentID}
	}
	parent.attachChild(node)
	g.indexSubtree(node)
	g.publish(EventObjectAdded, ObjectAdded{Object: node, Parent: parent})
	return nil
}

// Remove detaches the node with the given id from its parent. Children are not
// recursively removed: they become unparented and leave the graph along with
// the node, keeping their own subtrees intact so the caller can re-attach
// them. Returns false if the id is absent. The root cannot be removed.
//
// EventObjectRemoved fires once, for the removed node only. Descendants leave
// the id index without an event of their own, so a consumer that releases
// per-node resources on removal must traverse the subtree before calling
// Remove.
func (g *Graph) Remove(id string) bool {
	node, ok := g.index[id]
	if !ok || id == RootID {
		return false
	}
	if parent, ok := g.index[node.ParentID]; ok {
		parent.detachChild(id)
	}
	g.unindexSubtree(node)
	for _, c := range node.children {
		c.ParentID = ""
	}
	node.children = nil
	g.publish(EventObjectRemoved, ObjectRemoved{Object: node})
	return true
}

// Find returns the attached node with the given id, or nil.
func (g *Graph) Find(id string) *Node {
	return g.index[id]
}

// Traverse returns a lazy depth-first pre-order iterator over all attached
// nodes, starting at the root. Siblings are visited in insertion order. Each
// call starts a fresh traversal.
func (g *Graph) Traverse() *sequence.Iterator[*Node] {
	return sequence.FromSeq(func(yield func(*Node) bool) {
		g.walk(g.root, yield)
	})
}

// Reparent moves the node with the given id under newParentID, preserving its
// subtree. Moving the root, or moving a node under its own descendant, fails.
// Emits EventObjectRemoved for the detach and EventObjectAdded for the attach.
func (g *Graph) Reparent(id, newParentID string) error {
	if id == RootID {
		return ErrRootImmutable
	}
	node, ok := g.index[id]
	if !ok {
		return NotFoundError{Kind: "node", ID: id}
	}
	if newParentID == "" {
		newParentID = RootID
	}
	newParent, ok := g.index[newParentID]
	if !ok {
		return NotFoundError{Kind: "node", ID: newParentID}
	}
	for p := newParent; p != nil; p = g.index[p.ParentID] {
		if p.ID == id {
			return ErrReparentCycle
		}
	}
	if oldParent, ok := g.index[node.ParentID]; ok {
		oldParent.detachChild(id)
	}
	g.publish(EventObjectRemoved, ObjectRemoved{Object: node})
	newParent.attachChild(node)
	g.publish(EventObjectAdded, ObjectAdded{Object: node, Parent: newParent})
	return nil
}

// Digest returns an xxhash digest over the graph structure (ids, names, and
// parent links in traversal order). Consumers use it for cheap change
// detection; it does not cover component payloads.
func (g *Graph) Digest() uint64 {
	d := xxhash.New()
	var buf [8]byte
	g.walk(g.root, func(n *Node) bool {
		_, _ = d.WriteString(n.ID)
		_, _ = d.WriteString(n.Name)
		_, _ = d.WriteString(n.ParentID)
		binary.LittleEndian.PutUint64(buf[:], uint64(len(n.children)))
		_, _ = d.Write(buf[:])
		return true
	})
	return d.Sum64()
}

func (g *Graph) walk(n *Node, yield func(*Node) bool) bool {
	if !yield(n) {
		return false
	}
	for _, c := range n.children {
		if !g.walk(c, yield) {
			return false
		}
	}
	return true
}

func (g *Graph) indexSubtree(n *Node) {
	g.index[n.ID] = n
	for _, c := range n.children {
		g.indexSubtree(c)
	}
}

func (g *Graph) unindexSubtree(n *Node) {
	delete(g.index, n.ID)
	for _, c := range n.children {
		g.unindexSubtree(c)
	}
}

func (g *Graph) publish(eventType string, payload any) {
	if g.bus == nil {
		return
	}
	_ = g.bus.Publish(bus.NewEvent(eventType, "scene", payload))
}

// String implements fmt.Stringer for debug output.
func (g *Graph) String() string {
	return fmt.Sprintf("scene.Graph{nodes: %d}", len(g.index))
}
