package transcoder

import (
	"math"
	"reflect"
	"strconv"

	"github.com/wippyai/interop-runtime/errors"
	"github.com/wippyai/interop-runtime/value"
)

var (
	valueType      = reflect.TypeOf((*value.Value)(nil)).Elem()
	arrayPtrType   = reflect.TypeOf((*Array)(nil))
	orderedPtrType = reflect.TypeOf((*OrderedMap)(nil))
	pairType       = reflect.TypeOf(Pair{})
)

// DecodeInto stores v into the value pointed to by target.
//
// Numeric targets accept doubles and single-element matrices. Slices of
// numbers accept matrices whose shape fits the slice depth once trailing
// singleton dimensions are dropped; a []float64 accepts any vector. Structs
// are filled by member name using the `interop` tag; members without a
// matching field are ignored.
func DecodeInto(v value.Value, target any) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return errors.NilPointer(errors.PhaseDecode, nil, typeName(target))
	}
	return assign(v, rv.Elem(), nil)
}

func assign(v value.Value, dst reflect.Value, path []string) error {
	t := dst.Type()

	switch {
	case t == valueType:
		if v == nil {
			v = value.Null{}
		}
		dst.Set(reflect.ValueOf(v))
		return nil
	case t == arrayPtrType:
		a, err := arrayOf(v, path)
		if err != nil {
			return err
		}
		dst.Set(reflect.ValueOf(a))
		return nil
	case t == orderedPtrType, t == pairType, t.Kind() == reflect.Interface && t.NumMethod() == 0:
		d, err := decode(v, path)
		if err != nil {
			return err
		}
		if d == nil {
			dst.Set(reflect.Zero(t))
			return nil
		}
		dv := reflect.ValueOf(d)
		if !dv.Type().AssignableTo(t) {
			return mismatch(v, t, path)
		}
		dst.Set(dv)
		return nil
	}

	if _, ok := v.(value.Null); ok || v == nil {
		dst.Set(reflect.Zero(t))
		return nil
	}

	switch t.Kind() {
	case reflect.Pointer:
		if dst.IsNil() {
			dst.Set(reflect.New(t.Elem()))
		}
		return assign(v, dst.Elem(), path)

	case reflect.Bool:
		c, ok := scalarOf(v)
		if !ok {
			return mismatch(v, t, path)
		}
		dst.SetBool(real(c) != 0)
		return nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		c, ok := scalarOf(v)
		if !ok {
			return mismatch(v, t, path)
		}
		f := real(c)
		if f != math.Trunc(f) || f < math.MinInt64 || f >= 1<<63 || dst.OverflowInt(int64(f)) {
			return errors.Overflow(errors.PhaseDecode, path, f, t.String())
		}
		dst.SetInt(int64(f))
		return nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		c, ok := scalarOf(v)
		if !ok {
			return mismatch(v, t, path)
		}
		f := real(c)
		if f != math.Trunc(f) || f < 0 || f >= 1<<64 || dst.OverflowUint(uint64(f)) {
			return errors.Overflow(errors.PhaseDecode, path, f, t.String())
		}
		dst.SetUint(uint64(f))
		return nil

	case reflect.Float32, reflect.Float64:
		c, ok := scalarOf(v)
		if !ok {
			return mismatch(v, t, path)
		}
		dst.SetFloat(real(c))
		return nil

	case reflect.Complex64, reflect.Complex128:
		c, ok := scalarOf(v)
		if !ok {
			return mismatch(v, t, path)
		}
		dst.SetComplex(c)
		return nil

	case reflect.String:
		s, ok := v.(value.String)
		if !ok {
			return mismatch(v, t, path)
		}
		dst.SetString(string(s))
		return nil

	case reflect.Slice:
		if isNumericLeaf(t) {
			return assignNumeric(v, dst, path)
		}
		list, ok := v.(value.List)
		if !ok {
			return mismatch(v, t, path)
		}
		out := reflect.MakeSlice(t, len(list), len(list))
		for i, elem := range list {
			if err := assign(elem, out.Index(i), appendPath(path, "["+strconv.Itoa(i)+"]")); err != nil {
				return err
			}
		}
		dst.Set(out)
		return nil

	case reflect.Map:
		s, ok := v.(*value.Struct)
		if !ok || t.Key().Kind() != reflect.String {
			return mismatch(v, t, path)
		}
		out := reflect.MakeMapWithSize(t, s.Len())
		for _, f := range s.Fields {
			elem := reflect.New(t.Elem()).Elem()
			if err := assign(f.Value, elem, appendPath(path, f.Name)); err != nil {
				return err
			}
			out.SetMapIndex(reflect.ValueOf(f.Name).Convert(t.Key()), elem)
		}
		dst.Set(out)
		return nil

	case reflect.Struct:
		s, ok := v.(*value.Struct)
		if !ok {
			return mismatch(v, t, path)
		}
		for _, f := range structFields(t) {
			member, ok := s.Get(f.name)
			if !ok {
				continue
			}
			if err := assign(member, dst.FieldByIndex(f.index), appendPath(path, f.name)); err != nil {
				return err
			}
		}
		return nil
	}

	return errors.Unsupported(errors.PhaseDecode, path, t.String())
}

// assignNumeric fills a nest of numeric slices from a matrix.
func assignNumeric(v value.Value, dst reflect.Value, path []string) error {
	a, err := arrayOf(v, path)
	if err != nil {
		return err
	}

	depth := 0
	for t := dst.Type(); t.Kind() == reflect.Slice; t = t.Elem() {
		depth++
	}

	shape := fitShape(a.Shape, depth)
	if shape == nil {
		return errors.New(errors.PhaseDecode, errors.KindTypeMismatch).
			Path(path...).
			GoType(dst.Type().String()).
			WireType("matrix").
			Detail("matrix of shape %v does not fit %d nested slices", a.Shape, depth).
			Build()
	}

	off := 0
	dst.Set(buildNumeric(dst.Type(), shape, a, &off))
	return nil
}

func buildNumeric(t reflect.Type, shape []int, a *Array, off *int) reflect.Value {
	out := reflect.MakeSlice(t, shape[0], shape[0])
	for i := 0; i < shape[0]; i++ {
		elem := out.Index(i)
		if len(shape) > 1 {
			elem.Set(buildNumeric(t.Elem(), shape[1:], a, off))
			continue
		}
		var im float64
		if a.Imag != nil {
			im = a.Imag[*off]
		}
		setNumber(elem, complex(a.Data[*off], im))
		*off++
	}
	return out
}

func setNumber(dst reflect.Value, c complex128) {
	switch dst.Kind() {
	case reflect.Bool:
		dst.SetBool(real(c) != 0)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		dst.SetInt(int64(real(c)))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		dst.SetUint(uint64(real(c)))
	case reflect.Complex64, reflect.Complex128:
		dst.SetComplex(c)
	default:
		dst.SetFloat(real(c))
	}
}

// fitShape maps a matrix shape onto depth nested slices. Vectors always fit
// a single slice; otherwise trailing 1s are dropped until the rank matches.
func fitShape(shape []int, depth int) []int {
	n := product(shape)
	if depth == 1 && isVectorShape(shape) {
		return []int{n}
	}
	s := append([]int(nil), shape...)
	for len(s) > depth && s[len(s)-1] == 1 {
		s = s[:len(s)-1]
	}
	for len(s) < depth {
		s = append(s, 1)
	}
	if len(s) != depth {
		return nil
	}
	return s
}

func arrayOf(v value.Value, path []string) (*Array, error) {
	switch x := v.(type) {
	case *value.Matrix:
		a, err := ArrayFromMatrix(x)
		if err != nil {
			return nil, errors.InvalidData(errors.PhaseDecode, path, err.Error())
		}
		return a, nil
	case value.Double:
		return &Array{Shape: []int{1, 1}, Data: []float64{float64(x)}}, nil
	}
	return nil, mismatch(v, arrayPtrType, path)
}

// scalarOf extracts a number from a double or a single-element matrix.
func scalarOf(v value.Value) (complex128, bool) {
	switch x := v.(type) {
	case value.Double:
		return complex(float64(x), 0), true
	case *value.Matrix:
		if x == nil || x.Len() != 1 || len(x.Real) != 1 {
			return 0, false
		}
		var im float64
		if x.Imag != nil {
			im = x.Imag[0]
		}
		return complex(x.Real[0], im), true
	}
	return 0, false
}

func mismatch(v value.Value, t reflect.Type, path []string) error {
	return errors.TypeMismatch(errors.PhaseDecode, path, t.String(), value.KindOf(v).String())
}
