package transcoder

import (
	"strconv"

	"github.com/wippyai/interop-runtime/errors"
	"github.com/wippyai/interop-runtime/value"
)

// Decode converts a tagged value to its natural Go form.
//
// Strings always decode to string. The application reports categorical
// properties as text and no attempt is made to map them to Go enums.
func Decode(v value.Value) (any, error) {
	return decode(v, nil)
}

func decode(v value.Value, path []string) (any, error) {
	switch x := v.(type) {
	case nil, value.Null:
		return nil, nil
	case value.Double:
		return float64(x), nil
	case value.String:
		return string(x), nil
	case *value.Matrix:
		if x == nil {
			return nil, nil
		}
		a, err := ArrayFromMatrix(x)
		if err != nil {
			return nil, errors.InvalidData(errors.PhaseDecode, path, err.Error())
		}
		return a, nil
	case value.List:
		out := make([]any, len(x))
		for i, elem := range x {
			d, err := decode(elem, appendPath(path, "["+strconv.Itoa(i)+"]"))
			if err != nil {
				return nil, err
			}
			out[i] = d
		}
		return out, nil
	case *value.Struct:
		m := NewOrderedMap()
		if x == nil {
			return m, nil
		}
		for _, f := range x.Fields {
			d, err := decode(f.Value, appendPath(path, f.Name))
			if err != nil {
				return nil, err
			}
			m.Set(f.Name, d)
		}
		return m, nil
	case value.Pair:
		d, err := decode(x.Value, appendPath(path, x.Name))
		if err != nil {
			return nil, err
		}
		return Pair{Name: x.Name, Value: d}, nil
	}
	return nil, errors.New(errors.PhaseDecode, errors.KindUnsupported).
		Path(path...).
		WireType(typeName(v)).
		Detail("Unsupported data type").
		Build()
}
