package scene

import (
	"fmt"
	"strings"
)

// Property resolves a dotted property path on the node and returns its value.
//
// Supported paths:
//   - "name"
//   - "transform", "transform.position", "transform.position.x" (and rotation/scale)
//   - "<component>.<field>..." into the component map, e.g. "material.shaderName"
//
// Missing paths fail with NotFoundError{Kind: "property"}.
func (n *Node) Property(path string) (any, error) {
	segs := strings.Split(path, ".")
	switch segs[0] {
	case "name":
		if len(segs) != 1 {
			return nil, NotFoundError{Kind: "property", ID: path}
		}
		return n.Name, nil
	case "transform":
		return n.transformProperty(path, segs[1:])
	default:
		return n.componentProperty(path, segs)
	}
}

// SetProperty assigns the value at a dotted property path. Intermediate
// component maps are created as needed, so a command may introduce a field
// that did not exist before. Transform fields require numeric values.
func (n *Node) SetProperty(path string, value any) error {
	segs := strings.Split(path, ".")
	switch segs[0] {
	case "name":
		if len(segs) != 1 {
			return NotFoundError{Kind: "property", ID: path}
		}
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("%w: path %q wants string, got %T", ErrInvalidValue, path, value)
		}
		n.Name = s
		return nil
	case "transform":
		return n.setTransformProperty(path, segs[1:], value)
	default:
		return n.setComponentProperty(path, segs, value)
	}
}

func (n *Node) transformProperty(path string, rest []string) (any, error) {
	if len(rest) == 0 {
		return n.Transform, nil
	}
	vec, err := n.vecByName(path, rest[0])
	if err != nil {
		return nil, err
	}
	if len(rest) == 1 {
		return *vec, nil
	}
	if len(rest) > 2 {
		return nil, NotFoundError{Kind: "property", ID: path}
	}
	switch rest[1] {
	case "x":
		return vec.X, nil
	case "y":
		return vec.Y, nil
	case "z":
		return vec.Z, nil
	default:
		return nil, NotFoundError{Kind: "property", ID: path}
	}
}

func (n *Node) setTransformProperty(path string, rest []string, value any) error {
	if len(rest) == 0 {
		t, ok := value.(Transform)
		if !ok {
			return fmt.Errorf("%w: path %q wants Transform, got %T", ErrInvalidValue, path, value)
		}
		n.Transform = t
		return nil
	}
	vec, err := n.vecByName(path, rest[0])
	if err != nil {
		return err
	}
	if len(rest) == 1 {
		v, ok := value.(Vec3)
		if !ok {
			return fmt.Errorf("%w: path %q wants Vec3, got %T", ErrInvalidValue, path, value)
		}
		*vec = v
		return nil
	}
	if len(rest) > 2 {
		return NotFoundError{Kind: "property", ID: path}
	}
	f, ok := toFloat64(value)
	if !ok {
		return fmt.Errorf("%w: path %q wants number, got %T", ErrInvalidValue, path, value)
	}
	switch rest[1] {
	case "x":
		vec.X = f
	case "y":
		vec.Y = f
	case "z":
		vec.Z = f
	default:
		return NotFoundError{Kind: "property", ID: path}
	}
	return nil
}

func (n *Node) vecByName(path, name string) (*Vec3, error) {
	switch name {
	case "position":
		return &n.Transform.Position, nil
	case "rotation":
		return &n.Transform.Rotation, nil
	case "scale":
		return &n.Transform.Scale, nil
	default:
		return nil, NotFoundError{Kind: "property", ID: path}
	}
}

func (n *Node) componentProperty(path string, segs []string) (any, error) {
	cur, ok := n.Components[segs[0]]
	if !ok {
		return nil, NotFoundError{Kind: "property", ID: path}
	}
	for _, seg := range segs[1:] {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, NotFoundError{Kind: "property", ID: path}
		}
		if cur, ok = m[seg]; !ok {
			return nil, NotFoundError{Kind: "property", ID: path}
		}
	}
	return cur, nil
}

func (n *Node) setComponentProperty(path string, segs []string, value any) error {
	if n.Components == nil {
		n.Components = make(map[string]any)
	}
	if len(segs) == 1 {
		n.Components[segs[0]] = value
		return nil
	}
	m, ok := n.Components[segs[0]].(map[string]any)
	if !ok {
		if _, exists := n.Components[segs[0]]; exists {
			return NotFoundError{Kind: "property", ID: path}
		}
		m = make(map[string]any)
		n.Components[segs[0]] = m
	}
	for _, seg := range segs[1 : len(segs)-1] {
		next, ok := m[seg].(map[string]any)
		if !ok {
			if _, exists := m[seg]; exists {
				return NotFoundError{Kind: "property", ID: path}
			}
			next = make(map[string]any)
			m[seg] = next
		}
		m = next
	}
	m[segs[len(segs)-1]] = value
	return nil
}

func toFloat64(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	default:
		return 0, false
	}
}
