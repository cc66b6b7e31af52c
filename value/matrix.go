package value

import (
	"fmt"

	"github.com/wippyai/interop-runtime/errors"
)

// Matrix is an N-D numeric array stored column-major: the first index
// varies fastest. Imag is nil for real matrices.
type Matrix struct {
	Dims []int
	Real []float64
	Imag []float64
}

// NewMatrix allocates a zeroed real matrix. Fewer than two dimensions are
// padded with trailing 1s, matching the application's convention.
func NewMatrix(dims ...int) *Matrix {
	d := normalizeDims(dims)
	return &Matrix{Dims: d, Real: make([]float64, product(d))}
}

// NewComplexMatrix allocates a zeroed complex matrix.
func NewComplexMatrix(dims ...int) *Matrix {
	d := normalizeDims(dims)
	n := product(d)
	return &Matrix{Dims: d, Real: make([]float64, n), Imag: make([]float64, n)}
}

// Scalar returns a 1x1 real matrix.
func Scalar(v float64) *Matrix {
	return &Matrix{Dims: []int{1, 1}, Real: []float64{v}}
}

func normalizeDims(dims []int) []int {
	d := make([]int, 0, max(len(dims), 2))
	d = append(d, dims...)
	for len(d) < 2 {
		d = append(d, 1)
	}
	return d
}

func product(dims []int) int {
	n := 1
	for _, d := range dims {
		n *= d
	}
	return n
}

// IsComplex reports whether the matrix carries an imaginary part.
func (m *Matrix) IsComplex() bool { return m.Imag != nil }

// Len returns the number of elements.
func (m *Matrix) Len() int { return product(m.Dims) }

// Validate checks the dimension list against the buffers.
func (m *Matrix) Validate() error {
	if len(m.Dims) < 2 {
		return errors.InvalidData(errors.PhaseEncode, nil, fmt.Sprintf("matrix needs at least 2 dimensions, got %d", len(m.Dims)))
	}
	for i, d := range m.Dims {
		if d < 0 {
			return errors.InvalidData(errors.PhaseEncode, nil, fmt.Sprintf("matrix dimension %d is negative (%d)", i, d))
		}
	}
	n := product(m.Dims)
	if len(m.Real) != n {
		return errors.InvalidData(errors.PhaseEncode, nil, fmt.Sprintf("matrix dims %v need %d elements, real buffer has %d", m.Dims, n, len(m.Real)))
	}
	if m.Imag != nil && len(m.Imag) != n {
		return errors.InvalidData(errors.PhaseEncode, nil, fmt.Sprintf("matrix dims %v need %d elements, imaginary buffer has %d", m.Dims, n, len(m.Imag)))
	}
	return nil
}

// Offset converts a subscript to the column-major buffer offset.
func (m *Matrix) Offset(idx ...int) (int, error) {
	if len(idx) != len(m.Dims) {
		return 0, errors.InvalidInput(errors.PhaseLookup, fmt.Sprintf("matrix has %d dimensions, got %d indices", len(m.Dims), len(idx)))
	}
	off, stride := 0, 1
	for i, ix := range idx {
		if ix < 0 || ix >= m.Dims[i] {
			return 0, errors.InvalidInput(errors.PhaseLookup, fmt.Sprintf("index %d out of range for dimension %d (size %d)", ix, i, m.Dims[i]))
		}
		off += ix * stride
		stride *= m.Dims[i]
	}
	return off, nil
}

// At returns the element at idx. The imaginary part is 0 for real matrices.
func (m *Matrix) At(idx ...int) (complex128, error) {
	off, err := m.Offset(idx...)
	if err != nil {
		return 0, err
	}
	var im float64
	if m.Imag != nil {
		im = m.Imag[off]
	}
	return complex(m.Real[off], im), nil
}

func (m *Matrix) equal(o *Matrix) bool {
	if m == nil || o == nil {
		return m == o
	}
	if len(m.Dims) != len(o.Dims) || m.IsComplex() != o.IsComplex() {
		return false
	}
	for i := range m.Dims {
		if m.Dims[i] != o.Dims[i] {
			return false
		}
	}
	if !floatsEqual(m.Real, o.Real) {
		return false
	}
	return floatsEqual(m.Imag, o.Imag)
}

func floatsEqual(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !floatEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}
