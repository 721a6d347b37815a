package scene

import "github.com/google/uuid"

// Vec3 is a three-component vector.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Transform holds the local transform of a node.
type Transform struct {
	Position Vec3 `json:"position"`
	Rotation Vec3 `json:"rotation"`
	Scale    Vec3 `json:"scale"`
}

// IdentityTransform returns a transform with unit scale.
func IdentityTransform() Transform {
	return Transform{Scale: Vec3{X: 1, Y: 1, Z: 1}}
}

// Node is a single entity in the scene graph.
//
// A node owns its children. The parent link is an id back-reference resolved
// through the graph's index, never a pointer, so there is no ownership cycle
// between parent and child. ParentID is maintained by the graph; it is empty
// for the root and for detached nodes.
type Node struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Transform  Transform      `json:"transform"`
	Components map[string]any `json:"components,omitempty"`
	ParentID   string         `json:"parentId,omitempty"`

	children []*Node
}

// NewNode creates a detached node with a generated id and identity transform.
func NewNode(name string) *Node {
	return NewNodeWithID(uuid.NewString(), name)
}

// NewNodeWithID creates a detached node with an explicit id.
func NewNodeWithID(id, name string) *Node {
	return &Node{
		ID:         id,
		Name:       name,
		Transform:  IdentityTransform(),
		Components: make(map[string]any),
	}
}

// Children returns the node's children in insertion order.
// The returned slice is shared; callers must not mutate it.
func (n *Node) Children() []*Node {
	return n.children
}

// ChildCount returns the number of direct children.
func (n *Node) ChildCount() int {
	return len(n.children)
}

func (n *Node) attachChild(child *Node) {
	child.ParentID = n.ID
	n.children = append(n.children, child)
}

func (n *Node) detachChild(id string) *Node {
	for i, c := range n.children {
		if c.ID == id {
			n.children = append(n.children[:i:i], n.children[i+1:]...)
			c.ParentID = ""
			return c
		}
	}
	return nil
}
