package dataset

import (
	"github.com/wippyai/interop-runtime/errors"
	"github.com/wippyai/interop-runtime/value"
)

// NewMatrix returns an empty matrix dataset.
func NewMatrix() *Dataset {
	return &Dataset{Type: TypeMatrix}
}

// NewRectilinear returns a dataset on the grid spanned by the three axes.
func NewRectilinear(x, y, z []float64) *Dataset {
	return &Dataset{Type: TypeRectilinear, X: column(x), Y: column(y), Z: column(z)}
}

// NewUnstructured returns a mesh over the given points. Each connectivity
// row lists the 1-based point indices of one cell.
func NewUnstructured(x, y, z []float64, connectivity [][]int) (*Dataset, error) {
	if len(y) != len(x) || len(z) != len(x) {
		return nil, errors.InvalidInput(errors.PhaseDataset, "point coordinate lists differ in length")
	}
	k := 0
	if len(connectivity) > 0 {
		k = len(connectivity[0])
	}
	conn := value.NewMatrix(len(connectivity), k)
	for i, row := range connectivity {
		if len(row) != k {
			return nil, errors.InvalidInput(errors.PhaseDataset, "connectivity rows differ in length")
		}
		for j, p := range row {
			if p < 1 || p > len(x) {
				return nil, errors.InvalidInput(errors.PhaseDataset, "connectivity refers to a missing point")
			}
			conn.Real[j*len(connectivity)+i] = float64(p)
		}
	}
	return &Dataset{Type: TypeUnstructured, X: column(x), Y: column(y), Z: column(z), Connectivity: conn}, nil
}

// AddParameter adds a parameter group. All names in the group must have the
// same number of values.
func (d *Dataset) AddParameter(names []string, values ...[]float64) error {
	if len(names) == 0 || len(names) != len(values) {
		return errors.InvalidInput(errors.PhaseDataset, "each parameter name needs one value list")
	}
	p := Parameter{Names: append([]string(nil), names...)}
	for _, v := range values {
		if len(v) != len(values[0]) {
			return errors.InvalidInput(errors.PhaseDataset, "interdependent parameters must have the same length")
		}
		p.Values = append(p.Values, column(v))
	}
	d.Parameters = append(d.Parameters, p)
	return nil
}

// AddAttribute appends a grid or point attribute. The component count is
// checked against the geometry.
func (d *Dataset) AddAttribute(name string, data *value.Matrix) error {
	loc := LocationGrid
	if d.Type == TypeUnstructured {
		loc = LocationPoint
	}
	return d.addAttribute(name, loc, data)
}

// AddCellAttribute appends a per-cell attribute to an unstructured dataset.
func (d *Dataset) AddCellAttribute(name string, data *value.Matrix) error {
	if d.Type != TypeUnstructured {
		return errors.InvalidInput(errors.PhaseDataset, "cell attributes need an unstructured dataset")
	}
	return d.addAttribute(name, LocationCell, data)
}

func (d *Dataset) addAttribute(name string, loc Location, data *value.Matrix) error {
	if _, ok := d.Attribute(name); ok {
		return errors.InvalidInput(errors.PhaseDataset, "attribute '"+name+"' already exists")
	}
	d.Attributes = append(d.Attributes, Attribute{Name: name, Location: loc, Value: data})

	// Validate by translating the would-be value.
	v, err := d.MarshalInterop()
	if err == nil {
		var members *Members
		members, err = translatorFor(d.Type).CreateStructMemberPreTranslators(v)
		if err == nil {
			p, _ := members.Get(name)
			d.Attributes[len(d.Attributes)-1].Components = p.Components
			return nil
		}
	}
	d.Attributes = d.Attributes[:len(d.Attributes)-1]
	return err
}

func column(v []float64) *value.Matrix {
	m := value.NewMatrix(len(v), 1)
	copy(m.Real, v)
	return m
}
