package interoptest

import (
	"fmt"

	"github.com/wippyai/interop-runtime/value"
)

// Property is one named setting of a scene object.
type Property struct {
	Value value.Value
	// Active reports whether the property applies under the object's
	// current settings. Nil means always active.
	Active func(n *Node) bool
	Name   string
	Kind   value.Kind
}

// Node is one object in the scene graph.
type Node struct {
	Type     string
	Parent   *Node
	Children []*Node
	Results  []value.Pair
	props    []*Property
}

// Name returns the node's "name" property.
func (n *Node) Name() string {
	if p := n.Property("name"); p != nil {
		if s, ok := p.Value.(value.String); ok {
			return string(s)
		}
	}
	return ""
}

// Path returns the scope-qualified name, e.g. "::model::group::rect".
func (n *Node) Path() string {
	if n.Parent == nil {
		return "::" + n.Name()
	}
	return n.Parent.Path() + "::" + n.Name()
}

// Property returns the named property or nil.
func (n *Node) Property(name string) *Property {
	for _, p := range n.props {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// PropertyNames lists property names in definition order.
func (n *Node) PropertyNames() []string {
	names := make([]string, len(n.props))
	for i, p := range n.props {
		names[i] = p.Name
	}
	return names
}

// AddProperty defines a new property. Redefining a name replaces it.
func (n *Node) AddProperty(p *Property) {
	for i, old := range n.props {
		if old.Name == p.Name {
			n.props[i] = p
			return
		}
	}
	n.props = append(n.props, p)
}

// Result returns the named result.
func (n *Node) Result(name string) (value.Value, bool) {
	for _, r := range n.Results {
		if r.Name == name {
			return r.Value, true
		}
	}
	return nil, false
}

// ResultNames lists result names in definition order.
func (n *Node) ResultNames() []string {
	names := make([]string, len(n.Results))
	for i, r := range n.Results {
		names[i] = r.Name
	}
	return names
}

// Get reads a property the way getnamed does.
func (n *Node) Get(fn, name string) (value.Value, error) {
	p := n.Property(name)
	if p == nil {
		return nil, fmt.Errorf("in %s, the requested property '%s' was not found", fn, name)
	}
	return p.Value, nil
}

// Set writes a property the way set and setnamed do, checking that it
// exists, is active, and receives a value of the right kind.
func (n *Node) Set(fn, name string, v value.Value) error {
	p := n.Property(name)
	if p == nil {
		return fmt.Errorf("in %s, the requested property '%s' was not found", fn, name)
	}
	if p.Active != nil && !p.Active(n) {
		return fmt.Errorf("in %s, the requested property '%s' is inactive", fn, name)
	}
	coerced, ok := coerce(v, p.Kind)
	if !ok {
		return fmt.Errorf("in %s, wrong type for property '%s': expected %s, got %s",
			fn, name, p.Kind, value.KindOf(v))
	}
	p.Value = coerced
	return nil
}

// coerce converts between a scalar double and a 1x1 real matrix.
func coerce(v value.Value, kind value.Kind) (value.Value, bool) {
	switch kind {
	case value.KindDouble:
		switch x := v.(type) {
		case value.Double:
			return x, true
		case *value.Matrix:
			if x.Len() == 1 && !x.IsComplex() {
				return value.Double(x.Real[0]), true
			}
		}
		return nil, false
	case value.KindMatrix:
		switch x := v.(type) {
		case value.Double:
			return value.Scalar(float64(x)), true
		case *value.Matrix:
			return x, true
		}
		return nil, false
	}
	return v, value.KindOf(v) == kind
}

func (n *Node) walk(fn func(*Node)) {
	fn(n)
	for _, c := range n.Children {
		c.walk(fn)
	}
}

func (n *Node) detach() {
	if n.Parent == nil {
		return
	}
	kids := n.Parent.Children
	for i, c := range kids {
		if c == n {
			n.Parent.Children = append(kids[:i:i], kids[i+1:]...)
			break
		}
	}
	n.Parent = nil
}

func (n *Node) attach(parent *Node) {
	n.detach()
	n.Parent = parent
	parent.Children = append(parent.Children, n)
}

// Template describes an object type created by an add function.
type Template struct {
	// Setup defines properties and results on a fresh node.
	Setup func(n *Node)
	Type  string
	Name  string
}

func double(name string, v float64) *Property {
	return &Property{Name: name, Value: value.Double(v), Kind: value.KindDouble}
}

func str(name, v string) *Property {
	return &Property{Name: name, Value: value.String(v), Kind: value.KindString}
}

func geometry(n *Node, spans bool) {
	for _, axis := range []string{"x", "y", "z"} {
		n.AddProperty(double(axis, 0))
	}
	if spans {
		for _, axis := range []string{"x", "y", "z"} {
			n.AddProperty(double(axis+" span", 2e-6))
		}
	}
}

func flag(n *Node, name string) bool {
	p := n.Property(name)
	if p == nil {
		return false
	}
	d, ok := p.Value.(value.Double)
	return ok && d != 0
}

func axisResult(points int, start, step float64) *value.Matrix {
	m := value.NewMatrix(points, 1)
	for i := range m.Real {
		m.Real[i] = start + float64(i)*step
	}
	return m
}

// Templates are the object types the fake application can create, keyed by
// add function name.
var Templates = map[string]Template{
	"addrect": {Type: "Rectangle", Name: "rectangle", Setup: func(n *Node) {
		geometry(n, true)
		n.AddProperty(str("material", "<Object defined dielectric>"))
		n.AddProperty(double("index", 1.4))
	}},
	"addtriangle": {Type: "Triangle", Name: "triangle", Setup: func(n *Node) {
		geometry(n, false)
		n.AddProperty(&Property{Name: "vertices", Value: value.NewMatrix(3, 2), Kind: value.KindMatrix})
		n.AddProperty(double("z span", 2e-6))
	}},
	"addstructuregroup": {Type: "Structure Group", Name: "structure group", Setup: func(n *Node) {
		geometry(n, false)
	}},
	"addfdtd": {Type: "FDTD", Name: "FDTD", Setup: func(n *Node) {
		geometry(n, true)
		n.AddProperty(double("simulation time", 1e-12))
		n.AddProperty(double("same settings on all boundaries", 1))
		n.AddProperty(str("x min bc", "PML"))
		n.AddProperty(str("x max bc", "PML"))
		n.Results = []value.Pair{
			{Name: "x", Value: axisResult(5, -1e-6, 0.5e-6)},
			{Name: "y", Value: axisResult(5, -1e-6, 0.5e-6)},
			{Name: "z", Value: axisResult(1, 0, 0)},
			{Name: "status", Value: value.Double(0)},
		}
	}},
	"adddftmonitor": {Type: "DFT", Name: "DFT", Setup: func(n *Node) {
		geometry(n, true)
		n.AddProperty(str("monitor type", "2D Z-normal"))
		n.AddProperty(double("override global monitor settings", 0))
		n.AddProperty(&Property{
			Name:   "frequency points",
			Value:  value.Double(5),
			Kind:   value.KindDouble,
			Active: func(n *Node) bool { return flag(n, "override global monitor settings") },
		})
		n.Results = []value.Pair{
			{Name: "f", Value: axisResult(5, 1.9e14, 1e13)},
		}
	}},
	"addelement": {Type: "Element", Name: "ELEMENT", Setup: func(n *Node) {
		n.AddProperty(double("x position", 0))
		n.AddProperty(double("y position", 0))
	}},
}

func rootNode(product string) *Node {
	name := "model"
	if product == "icc" {
		name = "Root Element"
	}
	n := &Node{Type: "Model"}
	n.AddProperty(str("name", name))
	return n
}
