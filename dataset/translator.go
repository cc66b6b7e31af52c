package dataset

import (
	"github.com/wippyai/interop-runtime/value"
)

// Kind says whether an attribute holds one or three components per sample.
type Kind int

const (
	KindScalar Kind = iota
	KindVector
)

func (k Kind) String() string {
	if k == KindVector {
		return "vector"
	}
	return "scalar"
}

// Location is where an attribute's samples live.
type Location int

const (
	LocationGrid Location = iota
	LocationPoint
	LocationCell
)

func (l Location) String() string {
	switch l {
	case LocationPoint:
		return "point"
	case LocationCell:
		return "cell"
	default:
		return "grid"
	}
}

// PreTranslator describes one attribute: everything needed to convert its
// payload without looking at the rest of the dataset.
type PreTranslator struct {
	Name       string
	Kind       Kind
	Location   Location
	Components int
	// Shape is the sample shape: geometry extents followed by parameter
	// extents. Vector attributes carry Components in addition.
	Shape []int
	Value *value.Matrix
}

// Members is an insertion-ordered set of PreTranslators keyed by name.
type Members struct {
	index map[string]int
	list  []PreTranslator
}

func newMembers(n int) *Members {
	return &Members{index: make(map[string]int, n), list: make([]PreTranslator, 0, n)}
}

func (m *Members) add(p PreTranslator) {
	m.index[p.Name] = len(m.list)
	m.list = append(m.list, p)
}

// Keys returns attribute names in insertion order.
func (m *Members) Keys() []string {
	out := make([]string, len(m.list))
	for i, p := range m.list {
		out[i] = p.Name
	}
	return out
}

// Get looks up a member by name.
func (m *Members) Get(name string) (PreTranslator, bool) {
	i, ok := m.index[name]
	if !ok {
		return PreTranslator{}, false
	}
	return m.list[i], true
}

// Len returns the number of members.
func (m *Members) Len() int { return len(m.list) }

// Each visits members in order until fn returns false.
func (m *Members) Each(fn func(PreTranslator) bool) {
	for _, p := range m.list {
		if !fn(p) {
			return
		}
	}
}

// Translator handles one dataset shape.
type Translator interface {
	Type() Type
	CreateStructMemberPreTranslators(v value.Value) (*Members, error)
}

// MatrixTranslator handles datasets with attributes and parameters only.
type MatrixTranslator struct{}

// RectilinearTranslator handles datasets on an x, y, z grid.
type RectilinearTranslator struct{}

// UnstructuredTranslator handles point and connectivity meshes.
type UnstructuredTranslator struct{}

func (MatrixTranslator) Type() Type       { return TypeMatrix }
func (RectilinearTranslator) Type() Type  { return TypeRectilinear }
func (UnstructuredTranslator) Type() Type { return TypeUnstructured }

func (t MatrixTranslator) CreateStructMemberPreTranslators(v value.Value) (*Members, error) {
	return createFor(t, v)
}

func (t RectilinearTranslator) CreateStructMemberPreTranslators(v value.Value) (*Members, error) {
	return createFor(t, v)
}

func (t UnstructuredTranslator) CreateStructMemberPreTranslators(v value.Value) (*Members, error) {
	return createFor(t, v)
}

// For picks the translator matching the dataset's declared type.
func For(v value.Value) (Translator, error) {
	t, err := TypeOf(v)
	if err != nil {
		return nil, err
	}
	return translatorFor(t), nil
}

type shapeTranslator interface {
	Translator
	preTranslate(h *header) (*Members, error)
}

func translatorFor(t Type) shapeTranslator {
	switch t {
	case TypeRectilinear:
		return RectilinearTranslator{}
	case TypeUnstructured:
		return UnstructuredTranslator{}
	default:
		return MatrixTranslator{}
	}
}

func createFor(t shapeTranslator, v value.Value) (*Members, error) {
	h, err := parseHeader(v)
	if err != nil {
		return nil, err
	}
	if h.typ != t.Type() {
		return nil, invalid(nil, "%s translator given a %s dataset", t.Type(), h.typ)
	}
	return t.preTranslate(h)
}

func (MatrixTranslator) preTranslate(h *header) (*Members, error) {
	m := newMembers(len(h.attrs))
	for _, name := range h.attrs {
		p, err := attribute(h, name, LocationGrid, nil)
		if err != nil {
			return nil, err
		}
		m.add(p)
	}
	return m, nil
}

func (RectilinearTranslator) preTranslate(h *header) (*Members, error) {
	var geom []int
	for _, axis := range []string{"x", "y", "z"} {
		a, err := matrixMember(h.body, axis)
		if err != nil {
			return nil, err
		}
		geom = append(geom, a.Len())
	}

	m := newMembers(len(h.attrs))
	for _, name := range h.attrs {
		p, err := attribute(h, name, LocationGrid, geom)
		if err != nil {
			return nil, err
		}
		m.add(p)
	}
	return m, nil
}

func (UnstructuredTranslator) preTranslate(h *header) (*Members, error) {
	x, err := matrixMember(h.body, "x")
	if err != nil {
		return nil, err
	}
	for _, axis := range []string{"y", "z"} {
		a, err := matrixMember(h.body, axis)
		if err != nil {
			return nil, err
		}
		if a.Len() != x.Len() {
			return nil, invalid([]string{axis}, "'%s' has %d points, 'x' has %d", axis, a.Len(), x.Len())
		}
	}
	conn, err := matrixMember(h.body, "connectivity")
	if err != nil {
		return nil, err
	}

	m := newMembers(len(h.attrs) + len(h.cellAttrs))
	for _, name := range h.attrs {
		p, err := attribute(h, name, LocationPoint, []int{x.Len()})
		if err != nil {
			return nil, err
		}
		m.add(p)
	}
	for _, name := range h.cellAttrs {
		p, err := attribute(h, name, LocationCell, []int{conn.Dims[0]})
		if err != nil {
			return nil, err
		}
		m.add(p)
	}
	return m, nil
}

// attribute derives the component count: len / (geometry size x parameter
// size). Only 1 and 3 are valid.
func attribute(h *header, name string, loc Location, geom []int) (PreTranslator, error) {
	data, err := matrixMember(h.body, name)
	if err != nil {
		return PreTranslator{}, err
	}

	paramSize, paramDims := h.parameterSize()
	samples := paramSize
	for _, g := range geom {
		samples *= g
	}
	shape := append(append([]int(nil), geom...), paramDims...)

	if samples == 0 || data.Len()%samples != 0 {
		return PreTranslator{}, invalid([]string{name},
			"attribute '%s' has %d values, not a multiple of %d samples", name, data.Len(), samples)
	}

	p := PreTranslator{Name: name, Location: loc, Components: data.Len() / samples, Shape: shape, Value: data}
	switch p.Components {
	case 1:
		p.Kind = KindScalar
	case 3:
		p.Kind = KindVector
		p.Shape = append(p.Shape, 3)
	default:
		return PreTranslator{}, invalid([]string{name},
			"attribute '%s' has %d components per sample, expected 1 (scalar) or 3 (vector)", name, p.Components)
	}
	return p, nil
}
