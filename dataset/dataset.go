package dataset

import (
	"fmt"

	"github.com/wippyai/interop-runtime/errors"
	"github.com/wippyai/interop-runtime/transcoder"
	"github.com/wippyai/interop-runtime/value"
)

// HeaderMember names the struct member carrying the dataset description.
const HeaderMember = "Lumerical_dataset"

// Type is the dataset shape.
type Type string

const (
	TypeMatrix       Type = "matrix"
	TypeRectilinear  Type = "rectilinear"
	TypeUnstructured Type = "unstructured"
)

// Parameter is one parameter group. Interdependent parameters share a group
// and have the same number of values.
type Parameter struct {
	Names  []string
	Values []*value.Matrix
}

// Len returns the number of values in the group.
func (p Parameter) Len() int {
	if len(p.Values) == 0 || p.Values[0] == nil {
		return 1
	}
	return p.Values[0].Len()
}

// Attribute is one named data array.
type Attribute struct {
	Name       string
	Location   Location
	Components int
	Value      *value.Matrix
}

// Array returns the attribute in row-major order.
func (a Attribute) Array() (*transcoder.Array, error) {
	return transcoder.ArrayFromMatrix(a.Value)
}

// Dataset is the decoded form of a dataset value. It implements
// transcoder.Marshaler and can be put back into a session unchanged.
type Dataset struct {
	Type Type

	// Axes for rectilinear datasets, point coordinates for unstructured.
	X, Y, Z *value.Matrix

	// Connectivity is ncell x k, one row per cell, 1-based point indices.
	Connectivity *value.Matrix

	Parameters []Parameter
	Attributes []Attribute

	// Extra holds members that are not part of the dataset description.
	Extra []value.Pair
}

// Attribute looks up an attribute by name.
func (d *Dataset) Attribute(name string) (Attribute, bool) {
	for _, a := range d.Attributes {
		if a.Name == name {
			return a, true
		}
	}
	return Attribute{}, false
}

// AttributeNames lists attribute names in insertion order.
func (d *Dataset) AttributeNames() []string {
	names := make([]string, len(d.Attributes))
	for i, a := range d.Attributes {
		names[i] = a.Name
	}
	return names
}

// Decode parses a dataset value.
func Decode(v value.Value) (*Dataset, error) {
	h, err := parseHeader(v)
	if err != nil {
		return nil, err
	}
	members, err := translatorFor(h.typ).preTranslate(h)
	if err != nil {
		return nil, err
	}

	d := &Dataset{Type: h.typ, Parameters: h.params}
	d.X, _ = matrixMember(h.body, "x")
	d.Y, _ = matrixMember(h.body, "y")
	d.Z, _ = matrixMember(h.body, "z")
	d.Connectivity, _ = matrixMember(h.body, "connectivity")

	members.Each(func(p PreTranslator) bool {
		d.Attributes = append(d.Attributes, Attribute{
			Name:       p.Name,
			Location:   p.Location,
			Components: p.Components,
			Value:      p.Value,
		})
		return true
	})

	known := h.memberNames()
	for _, f := range h.body.Fields {
		if !known[f.Name] {
			d.Extra = append(d.Extra, f)
		}
	}
	return d, nil
}

// MarshalInterop rebuilds the dataset struct.
func (d *Dataset) MarshalInterop() (value.Value, error) {
	header := &value.Struct{}
	var attrs, cellAttrs value.List
	for _, a := range d.Attributes {
		if a.Location == LocationCell {
			cellAttrs = append(cellAttrs, value.String(a.Name))
		} else {
			attrs = append(attrs, value.String(a.Name))
		}
	}
	params := make(value.List, len(d.Parameters))
	for i, p := range d.Parameters {
		names := make(value.List, len(p.Names))
		for j, n := range p.Names {
			names[j] = value.String(n)
		}
		params[i] = names
	}

	if err := header.Add("type", value.String(d.Type)); err != nil {
		return nil, err
	}
	_ = header.Add("attributes", attrs)
	if d.Type == TypeUnstructured {
		_ = header.Add("cell_attributes", cellAttrs)
	}
	_ = header.Add("parameters", params)

	out := &value.Struct{}
	add := func(name string, v value.Value) error {
		if err := out.Add(name, v); err != nil {
			return errors.Wrap(errors.PhaseDataset, errors.KindInvalidData, err, "dataset member clash")
		}
		return nil
	}
	if err := add(HeaderMember, header); err != nil {
		return nil, err
	}
	for _, g := range []struct {
		name string
		m    *value.Matrix
	}{{"x", d.X}, {"y", d.Y}, {"z", d.Z}, {"connectivity", d.Connectivity}} {
		if g.m == nil {
			continue
		}
		if err := add(g.name, g.m); err != nil {
			return nil, err
		}
	}
	for _, p := range d.Parameters {
		for j, n := range p.Names {
			if j >= len(p.Values) || p.Values[j] == nil {
				return nil, errors.InvalidData(errors.PhaseDataset, []string{n}, "parameter has no values")
			}
			if err := add(n, p.Values[j]); err != nil {
				return nil, err
			}
		}
	}
	for _, a := range d.Attributes {
		if a.Value == nil {
			return nil, errors.InvalidData(errors.PhaseDataset, []string{a.Name}, "attribute has no data")
		}
		if err := add(a.Name, a.Value); err != nil {
			return nil, err
		}
	}
	for _, f := range d.Extra {
		if err := add(f.Name, f.Value); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// header is the parsed dataset description plus the enclosing struct.
type header struct {
	typ       Type
	body      *value.Struct
	attrs     []string
	cellAttrs []string
	params    []Parameter
}

func (h *header) memberNames() map[string]bool {
	known := map[string]bool{HeaderMember: true, "x": true, "y": true, "z": true, "connectivity": true}
	for _, n := range h.attrs {
		known[n] = true
	}
	for _, n := range h.cellAttrs {
		known[n] = true
	}
	for _, p := range h.params {
		for _, n := range p.Names {
			known[n] = true
		}
	}
	return known
}

// parameterSize is the product of every group's value count.
func (h *header) parameterSize() (n int, dims []int) {
	n = 1
	for _, p := range h.params {
		l := p.Len()
		n *= l
		dims = append(dims, l)
	}
	return n, dims
}

// TypeOf reports the dataset shape of v without parsing the attributes.
func TypeOf(v value.Value) (Type, error) {
	h, err := headerStruct(v)
	if err != nil {
		return "", err
	}
	t, ok := h.Get("type")
	if !ok {
		return "", invalid(nil, "dataset header has no 'type' member")
	}
	s, ok := t.(value.String)
	if !ok {
		return "", invalid(nil, "dataset 'type' is a %s, not a string", value.KindOf(t))
	}
	switch Type(s) {
	case TypeMatrix, TypeRectilinear, TypeUnstructured:
		return Type(s), nil
	}
	return "", invalid(nil, "unknown dataset type '%s'", string(s))
}

func headerStruct(v value.Value) (*value.Struct, error) {
	body, ok := v.(*value.Struct)
	if !ok || body == nil {
		return nil, invalid(nil, "value is a %s, not a dataset", value.KindOf(v))
	}
	raw, ok := body.Get(HeaderMember)
	if !ok {
		return nil, invalid(nil, "struct has no '%s' member", HeaderMember)
	}
	h, ok := raw.(*value.Struct)
	if !ok || h == nil {
		return nil, invalid([]string{HeaderMember}, "dataset header is a %s, not a struct", value.KindOf(raw))
	}
	return h, nil
}

func parseHeader(v value.Value) (*header, error) {
	typ, err := TypeOf(v)
	if err != nil {
		return nil, err
	}
	hs, _ := headerStruct(v)
	h := &header{typ: typ, body: v.(*value.Struct)}

	if h.attrs, err = stringList(hs, "attributes"); err != nil {
		return nil, err
	}
	if typ == TypeUnstructured {
		if h.cellAttrs, err = stringList(hs, "cell_attributes"); err != nil {
			return nil, err
		}
	}

	raw, ok := hs.Get("parameters")
	if ok {
		groups, ok := raw.(value.List)
		if !ok {
			return nil, invalid([]string{HeaderMember, "parameters"}, "parameters is a %s, not a cell array", value.KindOf(raw))
		}
		for i, g := range groups {
			groupNames, err := nameList(g, []string{HeaderMember, "parameters", fmt.Sprintf("[%d]", i)})
			if err != nil {
				return nil, err
			}
			p := Parameter{Names: groupNames}
			for _, n := range groupNames {
				m, err := matrixMember(h.body, n)
				if err != nil {
					return nil, err
				}
				p.Values = append(p.Values, m)
			}
			if len(p.Values) > 1 {
				for j, m := range p.Values[1:] {
					if m.Len() != p.Values[0].Len() {
						return nil, invalid([]string{groupNames[j+1]}, "parameter '%s' has %d values, '%s' has %d",
							groupNames[j+1], m.Len(), groupNames[0], p.Values[0].Len())
					}
				}
			}
			h.params = append(h.params, p)
		}
	}
	return h, nil
}

func stringList(hs *value.Struct, member string) ([]string, error) {
	raw, ok := hs.Get(member)
	if !ok {
		return nil, nil
	}
	return nameList(raw, []string{HeaderMember, member})
}

func nameList(raw value.Value, path []string) ([]string, error) {
	switch x := raw.(type) {
	case value.String:
		return []string{string(x)}, nil
	case value.List:
		out := make([]string, len(x))
		for i, e := range x {
			s, ok := e.(value.String)
			if !ok {
				return nil, invalid(path, "entry %d is a %s, not a string", i, value.KindOf(e))
			}
			out[i] = string(s)
		}
		return out, nil
	}
	return nil, invalid(path, "expected a cell array of names, got %s", value.KindOf(raw))
}

// matrixMember fetches a numeric member, promoting doubles to 1x1 matrices.
func matrixMember(body *value.Struct, name string) (*value.Matrix, error) {
	raw, ok := body.Get(name)
	if !ok {
		return nil, invalid([]string{name}, "dataset member '%s' is missing", name)
	}
	switch x := raw.(type) {
	case *value.Matrix:
		if err := x.Validate(); err != nil {
			return nil, invalid([]string{name}, "%v", err)
		}
		return x, nil
	case value.Double:
		return value.Scalar(float64(x)), nil
	}
	return nil, invalid([]string{name}, "dataset member '%s' is a %s, not a matrix", name, value.KindOf(raw))
}

func invalid(path []string, format string, args ...any) error {
	return errors.New(errors.PhaseDataset, errors.KindInvalidData).
		Path(path...).
		Detail(format, args...).
		Build()
}
