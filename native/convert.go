package native

import (
	"fmt"
	"runtime"
	"unsafe"

	"github.com/wippyai/interop-runtime/errors"
	"github.com/wippyai/interop-runtime/value"
)

// readAny copies a native value tree into a tagged value.
func readAny(a *anyValue) (value.Value, error) {
	if a == nil {
		return value.Null{}, nil
	}
	switch a.typ {
	case tagDouble:
		return value.Double(*a.double()), nil
	case tagString:
		s := a.str()
		if s.len == 0 {
			return value.String(""), nil
		}
		return value.String(s.bytes()), nil
	case tagMatrix:
		return readMatrix(a.matrix())
	case tagList:
		items := a.seq().items()
		out := make(value.List, len(items))
		for i, item := range items {
			v, err := readAny(item)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case tagStruct:
		items := a.seq().items()
		s := &value.Struct{Fields: make([]value.Pair, 0, len(items))}
		for _, item := range items {
			if item == nil || item.typ != tagPair {
				return nil, errors.InvalidData(errors.PhaseDecode, nil, "struct member is not a name value pair")
			}
			p, err := readPair(item.pair())
			if err != nil {
				return nil, err
			}
			s.Fields = append(s.Fields, p)
		}
		return s, nil
	case tagPair:
		return readPair(a.pair())
	}
	return nil, errors.New(errors.PhaseDecode, errors.KindUnsupported).
		WireType(fmt.Sprintf("tag %d", a.typ)).
		Detail("Unsupported data type").
		Build()
}

func readPair(p *lumPair) (value.Pair, error) {
	name := ""
	if p.name.len > 0 {
		name = string(p.name.bytes())
	}
	v, err := readAny(p.value)
	if err != nil {
		return value.Pair{}, err
	}
	return value.Pair{Name: name, Value: v}, nil
}

func readMatrix(m *lumMat) (*value.Matrix, error) {
	dims := make([]int, m.dim)
	n := 1
	for i, d := range m.dims() {
		dims[i] = int(d)
		n *= int(d)
	}
	out := &value.Matrix{Dims: dims, Real: make([]float64, n)}
	if n == 0 {
		if m.mode == modeComplex {
			out.Imag = []float64{}
		}
		return out, nil
	}
	switch m.mode {
	case modeReal:
		copy(out.Real, m.buffer(n))
	case modeComplex:
		buf := m.buffer(2 * n)
		copy(out.Real, buf[:n])
		out.Imag = make([]float64, n)
		copy(out.Imag, buf[n:])
	default:
		return nil, errors.InvalidData(errors.PhaseDecode, nil, fmt.Sprintf("unknown matrix mode %d", m.mode))
	}
	return out, nil
}

// alloc builds a native value tree with the library's allocators. On
// failure every node allocated so far is freed.
func (l *Library) alloc(v value.Value) (unsafe.Pointer, error) {
	switch x := v.(type) {
	case value.Double:
		return l.check(l.allocateLumDouble(float64(x)), "double")
	case value.String:
		buf := append([]byte(x), 0)
		p := l.allocateLumString(uint64(len(x)), &buf[0])
		runtime.KeepAlive(buf)
		return l.check(p, "string")
	case *value.Matrix:
		return l.allocMatrix(x)
	case value.Pair:
		child, err := l.alloc(x.Value)
		if err != nil {
			return nil, err
		}
		return l.allocPair(x.Name, child)
	case value.List:
		elems := make([]unsafe.Pointer, 0, len(x))
		for _, item := range x {
			p, err := l.alloc(item)
			if err != nil {
				l.freeAll(elems)
				return nil, err
			}
			elems = append(elems, p)
		}
		return l.allocSeq(l.allocateLumList, elems, "list")
	case *value.Struct:
		elems := make([]unsafe.Pointer, 0, x.Len())
		if x != nil {
			for _, f := range x.Fields {
				child, err := l.alloc(f.Value)
				if err != nil {
					l.freeAll(elems)
					return nil, err
				}
				p, err := l.allocPair(f.Name, child)
				if err != nil {
					l.freeAll(elems)
					return nil, err
				}
				elems = append(elems, p)
			}
		}
		return l.allocSeq(l.allocateLumStruct, elems, "struct")
	}
	return nil, errors.Unsupported(errors.PhaseEncode, nil, fmt.Sprintf("%T", v))
}

func (l *Library) allocMatrix(m *value.Matrix) (unsafe.Pointer, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	dims := make([]uint64, len(m.Dims))
	for i, d := range m.Dims {
		dims[i] = uint64(d)
	}

	alloc := l.allocateLumMatrix
	if m.IsComplex() {
		alloc = l.allocateComplexLumMatrix
	}
	p := alloc(uint64(len(dims)), &dims[0])
	runtime.KeepAlive(dims)
	if _, err := l.check(p, "matrix"); err != nil {
		return nil, err
	}

	n := m.Len()
	if n > 0 {
		mat := (*anyValue)(p).matrix()
		if m.IsComplex() {
			buf := mat.buffer(2 * n)
			copy(buf[:n], m.Real)
			copy(buf[n:], m.Imag)
		} else {
			copy(mat.buffer(n), m.Real)
		}
	}
	return p, nil
}

// allocPair takes ownership of child.
func (l *Library) allocPair(name string, child unsafe.Pointer) (unsafe.Pointer, error) {
	buf := append([]byte(name), 0)
	p := l.allocateLumNameValuePair(uint64(len(name)), &buf[0], child)
	runtime.KeepAlive(buf)
	if p == nil {
		l.freeAny(child)
	}
	return l.check(p, "name value pair")
}

// allocSeq takes ownership of elems.
func (l *Library) allocSeq(fn func(uint64, *unsafe.Pointer) unsafe.Pointer, elems []unsafe.Pointer, what string) (unsafe.Pointer, error) {
	var first *unsafe.Pointer
	if len(elems) > 0 {
		first = &elems[0]
	}
	p := fn(uint64(len(elems)), first)
	runtime.KeepAlive(elems)
	if p == nil {
		l.freeAll(elems)
	}
	return l.check(p, what)
}

func (l *Library) freeAll(ps []unsafe.Pointer) {
	for _, p := range ps {
		l.freeAny(p)
	}
}

func (l *Library) check(p unsafe.Pointer, what string) (unsafe.Pointer, error) {
	if p == nil {
		return nil, errors.New(errors.PhaseEncode, errors.KindInvalidData).
			WireType(what).
			Detail("native allocation failed").
			Build()
	}
	return p, nil
}
