package transcoder

import (
	"reflect"

	"github.com/wippyai/interop-runtime/value"
)

// Marshaler is implemented by types that produce their own tagged value.
type Marshaler interface {
	MarshalInterop() (value.Value, error)
}

// Proxy is implemented by stand-ins for objects that live inside the
// application. Proxies are references, not payloads, and never encode.
type Proxy interface {
	ProxyType() string
}

// Pair is the decoded form of a standalone name/value pair.
type Pair struct {
	Value any
	Name  string
}

// typeName returns "nil" for nil values, avoiding reflect.TypeOf(nil) panic.
func typeName(v any) string {
	if v == nil {
		return "nil"
	}
	return reflect.TypeOf(v).String()
}

// TypeName reports the wire type v would be sent as, or "" if v cannot be
// encoded.
func TypeName(v any) string {
	enc, err := (&Encoder{Warn: func(string) {}}).Encode(v)
	if err != nil {
		return ""
	}
	return value.KindOf(enc).String()
}

// TypeNames reports the wire type of each element of a sequence that would
// be sent as a cell array. It returns nil for anything else.
func TypeNames(v any) []string {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return nil
	}
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil
	}
	if isNumericLeaf(rv.Type()) {
		return nil
	}
	names := make([]string, rv.Len())
	for i := range names {
		names[i] = TypeName(rv.Index(i).Interface())
	}
	return names
}
