package transcoder

import (
	"reflect"
	"sort"

	"github.com/wippyai/interop-runtime/errors"
)

// Field is one named member of a property set.
type Field struct {
	Name  string
	Value any
}

// Fields lists the members of a property set in application order.
// ordered is false when v carries no order of its own (a Go map), in which
// case the names are sorted.
func Fields(v any) (fields []Field, ordered bool, err error) {
	switch x := v.(type) {
	case nil:
		return nil, true, nil
	case *OrderedMap:
		x.Each(func(k string, val any) bool {
			fields = append(fields, Field{Name: k, Value: val})
			return true
		})
		return fields, true, nil
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, true, nil
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String || isSetType(rv.Type()) {
			return nil, false, errors.Unsupported(errors.PhaseEncode, nil, rv.Type().String())
		}
		keys := make([]string, 0, rv.Len())
		for _, k := range rv.MapKeys() {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		for _, k := range keys {
			fields = append(fields, Field{Name: k, Value: rv.MapIndex(reflect.ValueOf(k).Convert(rv.Type().Key())).Interface()})
		}
		return fields, len(keys) < 2, nil

	case reflect.Struct:
		for _, f := range structFields(rv.Type()) {
			fields = append(fields, Field{Name: f.name, Value: rv.FieldByIndex(f.index).Interface()})
		}
		return fields, true, nil
	}

	return nil, false, errors.Unsupported(errors.PhaseEncode, nil, rv.Type().String())
}
