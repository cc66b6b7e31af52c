// Package transcoder converts between Go values and tagged values.
//
// This is the Put/Get translator layer: every value handed to a session is
// encoded here before anything crosses the native boundary, and every value
// read back is decoded here.
//
//	┌──────────────────────────────────────────────────────────┐
//	│ Go value ←→ [Transcoder] ←→ value.Value ←→ native library │
//	└──────────────────────────────────────────────────────────┘
//
// # Encoding
//
//	Go                                   Wire
//	──────────────────────────────────────────────────────────
//	float*, int*, uint*, bool            double
//	string                               string
//	nil                                  string "None" (lossy)
//	complex64/complex128                 1x1 complex matrix
//	rectangular numeric slices/arrays    matrix ([]T of n → n x 1)
//	*Array                               matrix (row-major → column-major)
//	*OrderedMap, struct{...}             struct, order preserved
//	map[string]T                         struct, keys sorted, warning logged
//	[]any, []string, ...                 cell array
//	value.Value, Marshaler               as produced
//
// Sets (map[K]struct{}), maps with non-string keys, channels, functions and
// object proxies are rejected with an "Unsupported data type" or type
// mismatch error.
//
// # Decoding
//
//	Wire          Go
//	─────────────────────────
//	double        float64
//	string        string
//	matrix        *Array
//	cell array    []any
//	struct        *OrderedMap
//	pair          Pair
//	null          nil
//
// DecodeInto fills typed targets such as *[][]float64 or a tagged struct.
package transcoder
