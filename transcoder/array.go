package transcoder

import (
	"fmt"

	"github.com/wippyai/interop-runtime/value"
)

// Array is an N-D numeric array in Go (row-major) order: the last index
// varies fastest. Imag is nil for real arrays.
type Array struct {
	Shape []int
	Data  []float64
	Imag  []float64
}

// NewArray allocates a zeroed real array.
func NewArray(shape ...int) *Array {
	return &Array{Shape: append([]int(nil), shape...), Data: make([]float64, product(shape))}
}

// NewComplexArray allocates a zeroed complex array.
func NewComplexArray(shape ...int) *Array {
	n := product(shape)
	return &Array{Shape: append([]int(nil), shape...), Data: make([]float64, n), Imag: make([]float64, n)}
}

// IsComplex reports whether the array carries an imaginary part.
func (a *Array) IsComplex() bool { return a.Imag != nil }

// Len returns the number of elements.
func (a *Array) Len() int { return product(a.Shape) }

func (a *Array) offset(idx []int) (int, error) {
	if len(idx) != len(a.Shape) {
		return 0, fmt.Errorf("array has %d dimensions, got %d indices", len(a.Shape), len(idx))
	}
	off := 0
	for i, ix := range idx {
		if ix < 0 || ix >= a.Shape[i] {
			return 0, fmt.Errorf("index %d out of range for dimension %d (size %d)", ix, i, a.Shape[i])
		}
		off = off*a.Shape[i] + ix
	}
	return off, nil
}

// At returns the element at idx.
func (a *Array) At(idx ...int) (complex128, error) {
	off, err := a.offset(idx)
	if err != nil {
		return 0, err
	}
	var im float64
	if a.Imag != nil {
		im = a.Imag[off]
	}
	return complex(a.Data[off], im), nil
}

// SetAt stores v at idx. The imaginary part is dropped for real arrays.
func (a *Array) SetAt(v complex128, idx ...int) error {
	off, err := a.offset(idx)
	if err != nil {
		return err
	}
	a.Data[off] = real(v)
	if a.Imag != nil {
		a.Imag[off] = imag(v)
	}
	return nil
}

// Matrix converts to the column-major wire form. Arrays with fewer than two
// dimensions become column vectors.
func (a *Array) Matrix() (*value.Matrix, error) {
	if len(a.Data) != a.Len() || (a.Imag != nil && len(a.Imag) != a.Len()) {
		return nil, fmt.Errorf("array shape %v does not match %d elements", a.Shape, len(a.Data))
	}
	dims := append([]int(nil), a.Shape...)
	for len(dims) < 2 {
		dims = append(dims, 1)
	}
	m := &value.Matrix{Dims: dims, Real: reorder(a.Data, dims, false)}
	if a.Imag != nil {
		m.Imag = reorder(a.Imag, dims, false)
	}
	return m, nil
}

// ArrayFromMatrix converts a wire matrix to Go order, keeping every
// dimension.
func ArrayFromMatrix(m *value.Matrix) (*Array, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	a := &Array{Shape: append([]int(nil), m.Dims...), Data: reorder(m.Real, m.Dims, true)}
	if m.Imag != nil {
		a.Imag = reorder(m.Imag, m.Dims, true)
	}
	return a, nil
}

// reorder converts between column-major and row-major layouts of the same
// shape. fromColumnMajor selects the direction.
func reorder(src []float64, dims []int, fromColumnMajor bool) []float64 {
	n := len(src)
	dst := make([]float64, n)
	if n == 0 {
		return dst
	}
	if isVectorShape(dims) {
		copy(dst, src)
		return dst
	}

	nd := len(dims)
	rowStride := make([]int, nd)
	s := 1
	for i := nd - 1; i >= 0; i-- {
		rowStride[i] = s
		s *= dims[i]
	}

	idx := make([]int, nd)
	for colOff := 0; colOff < n; colOff++ {
		rowOff := 0
		for i := 0; i < nd; i++ {
			rowOff += idx[i] * rowStride[i]
		}
		if fromColumnMajor {
			dst[rowOff] = src[colOff]
		} else {
			dst[colOff] = src[rowOff]
		}
		// advance the column-major subscript, first index fastest
		for i := 0; i < nd; i++ {
			idx[i]++
			if idx[i] < dims[i] {
				break
			}
			idx[i] = 0
		}
	}
	return dst
}

// isVectorShape is true when at most one dimension exceeds 1; both layouts
// are then identical.
func isVectorShape(dims []int) bool {
	big := 0
	for _, d := range dims {
		if d > 1 {
			big++
		}
	}
	return big <= 1
}

func product(dims []int) int {
	n := 1
	for _, d := range dims {
		n *= d
	}
	return n
}
