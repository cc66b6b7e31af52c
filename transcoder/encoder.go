package transcoder

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"

	"go.uber.org/zap"

	"github.com/wippyai/interop-runtime/errors"
	"github.com/wippyai/interop-runtime/value"
)

// NoneString is what nil encodes to. The application has no null variant,
// so nil does not round-trip.
const NoneString = "None"

// Encoder converts Go values to tagged values. The zero value is ready to
// use and logs warnings through Logger().
type Encoder struct {
	// Warn receives non-fatal diagnostics such as an unordered map being
	// encoded. Nil logs them at warn level instead.
	Warn func(msg string)
}

var defaultEncoder Encoder

// Encode converts v using the default encoder.
func Encode(v any) (value.Value, error) {
	return defaultEncoder.Encode(v)
}

// Encode converts v to a tagged value. It either returns a complete value
// or an error; nothing is partially produced.
func (e *Encoder) Encode(v any) (value.Value, error) {
	return e.encode(v, nil)
}

func (e *Encoder) warn(path []string, msg string) {
	if e.Warn != nil {
		e.Warn(msg)
		return
	}
	Logger().Warn(msg, zap.String("path", joinPath(path)))
}

func (e *Encoder) encode(v any, path []string) (value.Value, error) {
	switch x := v.(type) {
	case nil:
		return value.String(NoneString), nil
	case Proxy:
		return nil, errors.New(errors.PhaseEncode, errors.KindTypeMismatch).
			Path(path...).
			GoType(typeName(v)).
			Detail("'%s' object has no attribute 'MarshalInterop': object proxies cannot be sent as values", x.ProxyType()).
			Build()
	case value.Value:
		if isNilValue(x) {
			return value.String(NoneString), nil
		}
		if m, ok := x.(*value.Matrix); ok {
			if err := m.Validate(); err != nil {
				if e, ok := err.(*errors.Error); ok {
					e.Path = path
				}
				return nil, err
			}
		}
		return x, nil
	case Marshaler:
		if isNilPointer(v) {
			return value.String(NoneString), nil
		}
		out, err := x.MarshalInterop()
		if err != nil {
			return nil, errors.New(errors.PhaseEncode, errors.KindInvalidData).
				Path(path...).
				GoType(typeName(v)).
				Cause(err).
				Detail("MarshalInterop failed").
				Build()
		}
		return out, nil
	case *OrderedMap:
		if x == nil {
			return value.String(NoneString), nil
		}
		return e.encodeOrdered(x, path)
	case *Array:
		if x == nil {
			return value.String(NoneString), nil
		}
		m, err := x.Matrix()
		if err != nil {
			return nil, errors.InvalidData(errors.PhaseEncode, path, err.Error())
		}
		return m, nil
	case float64:
		return value.Double(x), nil
	case string:
		return value.String(x), nil
	case int:
		return value.Double(float64(x)), nil
	case bool:
		return boolDouble(x), nil
	case complex128:
		return complexScalar(x), nil
	case []any:
		return e.encodeList(reflect.ValueOf(x), path)
	}

	return e.encodeReflect(reflect.ValueOf(v), path)
}

func (e *Encoder) encodeReflect(rv reflect.Value, path []string) (value.Value, error) {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return value.String(NoneString), nil
		}
		return e.encode(rv.Elem().Interface(), path)

	case reflect.Bool:
		return boolDouble(rv.Bool()), nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return value.Double(float64(rv.Int())), nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return value.Double(float64(rv.Uint())), nil

	case reflect.Float32, reflect.Float64:
		return value.Double(rv.Float()), nil

	case reflect.Complex64, reflect.Complex128:
		return complexScalar(rv.Complex()), nil

	case reflect.String:
		return value.String(rv.String()), nil

	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() && !isNumericLeaf(rv.Type()) {
			return value.List{}, nil
		}
		if isNumericLeaf(rv.Type()) {
			return encodeNumeric(rv, path)
		}
		return e.encodeList(rv, path)

	case reflect.Map:
		return e.encodeMap(rv, path)

	case reflect.Struct:
		return e.encodeStruct(rv, path)
	}

	return nil, errors.Unsupported(errors.PhaseEncode, path, rv.Type().String())
}

func (e *Encoder) encodeList(rv reflect.Value, path []string) (value.Value, error) {
	out := make(value.List, rv.Len())
	for i := range out {
		elem, err := e.encode(rv.Index(i).Interface(), appendPath(path, "["+strconv.Itoa(i)+"]"))
		if err != nil {
			return nil, err
		}
		out[i] = elem
	}
	return out, nil
}

func (e *Encoder) encodeOrdered(m *OrderedMap, path []string) (value.Value, error) {
	s := &value.Struct{Fields: make([]value.Pair, 0, m.Len())}
	var err error
	m.Each(func(k string, v any) bool {
		var member value.Value
		member, err = e.encode(v, appendPath(path, k))
		if err != nil {
			return false
		}
		s.Fields = append(s.Fields, value.Pair{Name: k, Value: member})
		return true
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (e *Encoder) encodeMap(rv reflect.Value, path []string) (value.Value, error) {
	t := rv.Type()
	if t.Key().Kind() != reflect.String || isSetType(t) {
		return nil, errors.Unsupported(errors.PhaseEncode, path, t.String())
	}

	keys := make([]string, 0, rv.Len())
	for _, k := range rv.MapKeys() {
		keys = append(keys, k.String())
	}
	sort.Strings(keys)
	if len(keys) > 1 {
		e.warn(path, fmt.Sprintf("%s has no member order; encoding keys sorted. Use *transcoder.OrderedMap when order matters", t))
	}

	s := &value.Struct{Fields: make([]value.Pair, 0, len(keys))}
	for _, k := range keys {
		member, err := e.encode(rv.MapIndex(reflect.ValueOf(k).Convert(t.Key())).Interface(), appendPath(path, k))
		if err != nil {
			return nil, err
		}
		s.Fields = append(s.Fields, value.Pair{Name: k, Value: member})
	}
	return s, nil
}

func (e *Encoder) encodeStruct(rv reflect.Value, path []string) (value.Value, error) {
	fields := structFields(rv.Type())
	s := &value.Struct{Fields: make([]value.Pair, 0, len(fields))}
	for _, f := range fields {
		member, err := e.encode(rv.FieldByIndex(f.index).Interface(), appendPath(path, f.name))
		if err != nil {
			return nil, err
		}
		s.Fields = append(s.Fields, value.Pair{Name: f.name, Value: member})
	}
	return s, nil
}

// encodeNumeric flattens a rectangular nest of numeric slices/arrays into a
// matrix. A single level of nesting becomes an n x 1 column.
func encodeNumeric(rv reflect.Value, path []string) (value.Value, error) {
	shape, err := numericShape(rv, path)
	if err != nil {
		return nil, err
	}

	complexLeaf := isComplexKind(leafType(rv.Type()).Kind())
	n := product(shape)
	arr := &Array{Shape: shape, Data: make([]float64, 0, n)}
	if complexLeaf {
		arr.Imag = make([]float64, 0, n)
	}
	flattenNumeric(rv, arr)

	if len(shape) == 1 {
		arr.Shape = []int{shape[0], 1}
	}
	if n == 0 {
		arr.Shape = make([]int, len(arr.Shape))
	}
	m, err := arr.Matrix()
	if err != nil {
		return nil, errors.InvalidData(errors.PhaseEncode, path, err.Error())
	}
	return m, nil
}

func numericShape(rv reflect.Value, path []string) ([]int, error) {
	var shape []int
	cur := rv
	for cur.Kind() == reflect.Slice || cur.Kind() == reflect.Array {
		shape = append(shape, cur.Len())
		if cur.Len() == 0 {
			break
		}
		cur = cur.Index(0)
	}
	if err := checkRectangular(rv, shape, 0, path); err != nil {
		return nil, err
	}
	return shape, nil
}

func checkRectangular(rv reflect.Value, shape []int, depth int, path []string) error {
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil
	}
	if depth >= len(shape) || rv.Len() != shape[depth] {
		want := 0
		if depth < len(shape) {
			want = shape[depth]
		}
		return errors.InvalidData(errors.PhaseEncode, path,
			fmt.Sprintf("ragged numeric sequence at depth %d: length %d, expected %d", depth, rv.Len(), want))
	}
	for i := 0; i < rv.Len(); i++ {
		if err := checkRectangular(rv.Index(i), shape, depth+1, path); err != nil {
			return err
		}
	}
	return nil
}

func flattenNumeric(rv reflect.Value, arr *Array) {
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			flattenNumeric(rv.Index(i), arr)
		}
	case reflect.Complex64, reflect.Complex128:
		c := rv.Complex()
		arr.Data = append(arr.Data, real(c))
		arr.Imag = append(arr.Imag, imag(c))
	default:
		f := numericFloat(rv)
		arr.Data = append(arr.Data, f)
		if arr.Imag != nil {
			arr.Imag = append(arr.Imag, 0)
		}
	}
}

func numericFloat(rv reflect.Value) float64 {
	switch rv.Kind() {
	case reflect.Bool:
		if rv.Bool() {
			return 1
		}
		return 0
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint())
	default:
		return rv.Float()
	}
}

func boolDouble(b bool) value.Double {
	if b {
		return 1
	}
	return 0
}

func complexScalar(c complex128) *value.Matrix {
	return &value.Matrix{Dims: []int{1, 1}, Real: []float64{real(c)}, Imag: []float64{imag(c)}}
}

func isNilValue(v value.Value) bool {
	switch x := v.(type) {
	case *value.Matrix:
		return x == nil
	case *value.Struct:
		return x == nil
	}
	return false
}

func isNilPointer(v any) bool {
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

func appendPath(path []string, elem string) []string {
	out := make([]string, len(path), len(path)+1)
	copy(out, path)
	return append(out, elem)
}

func joinPath(path []string) string {
	s := ""
	for i, p := range path {
		if i > 0 && p[0] != '[' {
			s += "."
		}
		s += p
	}
	return s
}
