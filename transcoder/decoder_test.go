package transcoder

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wippyai/interop-runtime/errors"
	"github.com/wippyai/interop-runtime/value"
)

func TestDecode_Variants(t *testing.T) {
	got, err := Decode(value.Double(2))
	if err != nil || got != 2.0 {
		t.Errorf("Decode(double) = %v, %v", got, err)
	}
	got, err = Decode(value.String("FDTD"))
	if err != nil || got != "FDTD" {
		t.Errorf("Decode(string) = %v, %v", got, err)
	}
	got, err = Decode(value.Null{})
	if err != nil || got != nil {
		t.Errorf("Decode(null) = %v, %v", got, err)
	}
	got, err = Decode(value.Pair{Name: "n", Value: value.Double(1)})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(Pair{Name: "n", Value: 1.0}, got); diff != "" {
		t.Errorf("Decode(pair) mismatch (-want +got):\n%s", diff)
	}
}

func TestDecode_MatrixToArray(t *testing.T) {
	m := &value.Matrix{Dims: []int{2, 3}, Real: []float64{1, 4, 2, 5, 3, 6}}
	got, err := Decode(m)
	if err != nil {
		t.Fatal(err)
	}
	a, ok := got.(*Array)
	if !ok {
		t.Fatalf("Decode(matrix) returned %T", got)
	}
	want := &Array{Shape: []int{2, 3}, Data: []float64{1, 2, 3, 4, 5, 6}}
	if diff := cmp.Diff(want, a); diff != "" {
		t.Errorf("array mismatch (-want +got):\n%s", diff)
	}
}

func TestDecode_InvalidMatrix(t *testing.T) {
	_, err := Decode(&value.Matrix{Dims: []int{2, 2}, Real: []float64{1}})
	if !errors.IsKind(err, errors.KindInvalidData) {
		t.Fatalf("Decode error = %v, want invalid data", err)
	}
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want any
	}{
		{"double", 3.141592653589, 3.141592653589},
		{"string", "hello", "hello"},
		{"nil is lossy", nil, "None"},
		{"2-D", [][]float64{{1, 2, 3}, {4, 5, 6}}, &Array{Shape: []int{2, 3}, Data: []float64{1, 2, 3, 4, 5, 6}}},
		{"complex 2-D", [][]complex128{{1 + 2i, 3}, {4i, 5}}, &Array{
			Shape: []int{2, 2},
			Data:  []float64{1, 3, 0, 5},
			Imag:  []float64{2, 0, 4, 0},
		}},
		{"list", []any{1.0, "a"}, []any{1.0, "a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc, err := Encode(tt.in)
			if err != nil {
				t.Fatalf("Encode error: %v", err)
			}
			got, err := Decode(enc)
			if err != nil {
				t.Fatalf("Decode error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRoundTrip_Array3D(t *testing.T) {
	a := NewArray(2, 3, 4)
	for i := range a.Data {
		a.Data[i] = float64(i)
	}
	enc, err := Encode(a)
	if err != nil {
		t.Fatal(err)
	}
	m := enc.(*value.Matrix)
	wantAt, _ := a.At(1, 2, 3)
	gotAt, err := m.At(1, 2, 3)
	if err != nil {
		t.Fatal(err)
	}
	if gotAt != wantAt {
		t.Errorf("matrix At(1,2,3) = %v, want %v", gotAt, wantAt)
	}

	back, err := Decode(enc)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(a, back); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestRoundTrip_OrderPreserved(t *testing.T) {
	in := OrderedMapOf("a", 1.0, "b", "x", "c", OrderedMapOf("z", 1.0, "y", 2.0))
	enc, err := Encode(in)
	if err != nil {
		t.Fatal(err)
	}
	got, err := Decode(enc)
	if err != nil {
		t.Fatal(err)
	}
	om := got.(*OrderedMap)
	if diff := cmp.Diff([]string{"a", "b", "c"}, om.Keys()); diff != "" {
		t.Errorf("key order mismatch (-want +got):\n%s", diff)
	}
	inner, _ := om.Get("c")
	if diff := cmp.Diff([]string{"z", "y"}, inner.(*OrderedMap).Keys()); diff != "" {
		t.Errorf("nested key order mismatch (-want +got):\n%s", diff)
	}
}

func TestRoundTrip_NaN(t *testing.T) {
	enc, _ := Encode([]float64{math.NaN(), 1})
	got, err := Decode(enc)
	if err != nil {
		t.Fatal(err)
	}
	a := got.(*Array)
	if !math.IsNaN(a.Data[0]) || a.Data[1] != 1 {
		t.Errorf("Decode = %v", a.Data)
	}
}

func TestDecodeInto(t *testing.T) {
	m23 := &value.Matrix{Dims: []int{2, 3}, Real: []float64{1, 4, 2, 5, 3, 6}}

	t.Run("matrix to [][]float64", func(t *testing.T) {
		var got [][]float64
		if err := DecodeInto(m23, &got); err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff([][]float64{{1, 2, 3}, {4, 5, 6}}, got); diff != "" {
			t.Errorf("mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("column to []float64", func(t *testing.T) {
		var got []float64
		col := &value.Matrix{Dims: []int{3, 1}, Real: []float64{1, 2, 3}}
		if err := DecodeInto(col, &got); err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff([]float64{1, 2, 3}, got); diff != "" {
			t.Errorf("mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("row to []float64", func(t *testing.T) {
		var got []float64
		row := &value.Matrix{Dims: []int{1, 3}, Real: []float64{1, 2, 3}}
		if err := DecodeInto(row, &got); err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff([]float64{1, 2, 3}, got); diff != "" {
			t.Errorf("mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("2-D into []float64 fails", func(t *testing.T) {
		var got []float64
		err := DecodeInto(m23, &got)
		if !errors.IsKind(err, errors.KindTypeMismatch) {
			t.Fatalf("error = %v, want type mismatch", err)
		}
	})

	t.Run("complex vector", func(t *testing.T) {
		var got []complex128
		m := &value.Matrix{Dims: []int{2, 1}, Real: []float64{1, 2}, Imag: []float64{3, 4}}
		if err := DecodeInto(m, &got); err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff([]complex128{1 + 3i, 2 + 4i}, got); diff != "" {
			t.Errorf("mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("scalars", func(t *testing.T) {
		var f float64
		var n int
		var b bool
		var s string
		if err := DecodeInto(value.Double(10.1e-6), &f); err != nil || f != 10.1e-6 {
			t.Errorf("float64 = %v, %v", f, err)
		}
		if err := DecodeInto(value.Scalar(4), &n); err != nil || n != 4 {
			t.Errorf("int = %v, %v", n, err)
		}
		if err := DecodeInto(value.Double(1), &b); err != nil || !b {
			t.Errorf("bool = %v, %v", b, err)
		}
		if err := DecodeInto(value.String("x"), &s); err != nil || s != "x" {
			t.Errorf("string = %v, %v", s, err)
		}
	})

	t.Run("fractional into int", func(t *testing.T) {
		var n int8
		if err := DecodeInto(value.Double(2.5), &n); !errors.IsKind(err, errors.KindOverflow) {
			t.Errorf("error = %v, want overflow", err)
		}
		if err := DecodeInto(value.Double(300), &n); !errors.IsKind(err, errors.KindOverflow) {
			t.Errorf("error = %v, want overflow", err)
		}
	})

	t.Run("unsigned range", func(t *testing.T) {
		tests := []struct {
			name string
			in   float64
			dst  any
			want uint64
			ok   bool
		}{
			{"uint8 max", 255, new(uint8), 255, true},
			{"uint8 overflow", 256, new(uint8), 0, false},
			{"fraction", 1.5, new(uint), 0, false},
			{"negative", -1, new(uint32), 0, false},
			{"beyond uint64", 1e30, new(uint64), 0, false},
			{"2^64", 1 << 64, new(uint64), 0, false},
			{"NaN", math.NaN(), new(uint16), 0, false},
			{"large exact", 1 << 53, new(uint64), 1 << 53, true},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				err := DecodeInto(value.Double(tt.in), tt.dst)
				if !tt.ok {
					if !errors.IsKind(err, errors.KindOverflow) {
						t.Errorf("error = %v, want overflow", err)
					}
					return
				}
				if err != nil {
					t.Fatal(err)
				}
				var got uint64
				switch p := tt.dst.(type) {
				case *uint8:
					got = uint64(*p)
				case *uint64:
					got = *p
				}
				if got != tt.want {
					t.Errorf("got %d, want %d", got, tt.want)
				}
			})
		}
	})

	t.Run("signed range", func(t *testing.T) {
		var n int64
		for _, f := range []float64{1e19, -1e19, math.Inf(1), math.NaN()} {
			if err := DecodeInto(value.Double(f), &n); !errors.IsKind(err, errors.KindOverflow) {
				t.Errorf("DecodeInto(%v) error = %v, want overflow", f, err)
			}
		}
		if err := DecodeInto(value.Double(-(1 << 62)), &n); err != nil || n != -(1<<62) {
			t.Errorf("int64 = %d, %v", n, err)
		}
	})

	t.Run("string into float", func(t *testing.T) {
		var f float64
		if err := DecodeInto(value.String("x"), &f); !errors.IsKind(err, errors.KindTypeMismatch) {
			t.Errorf("error = %v, want type mismatch", err)
		}
	})

	t.Run("struct", func(t *testing.T) {
		var got rect
		s := &value.Struct{Fields: []value.Pair{
			{Name: "x span", Value: value.Double(2e-6)},
			{Name: "name", Value: value.String("r1")},
			{Name: "extra", Value: value.Double(1)},
		}}
		if err := DecodeInto(s, &got); err != nil {
			t.Fatal(err)
		}
		if got.Name != "r1" || got.XSpan != 2e-6 {
			t.Errorf("got %+v", got)
		}
	})

	t.Run("map and ordered map", func(t *testing.T) {
		s := &value.Struct{Fields: []value.Pair{
			{Name: "b", Value: value.Double(1)},
			{Name: "a", Value: value.String("x")},
		}}
		var m map[string]any
		if err := DecodeInto(s, &m); err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(map[string]any{"a": "x", "b": 1.0}, m); diff != "" {
			t.Errorf("map mismatch (-want +got):\n%s", diff)
		}
		var om *OrderedMap
		if err := DecodeInto(s, &om); err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff([]string{"b", "a"}, om.Keys()); diff != "" {
			t.Errorf("keys mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("list into []string", func(t *testing.T) {
		var got []string
		if err := DecodeInto(value.List{value.String("a"), value.String("b")}, &got); err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff([]string{"a", "b"}, got); diff != "" {
			t.Errorf("mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("nil target", func(t *testing.T) {
		if err := DecodeInto(value.Double(1), nil); !errors.IsKind(err, errors.KindNilPointer) {
			t.Errorf("error = %v, want nil pointer", err)
		}
	})
}

func TestFields(t *testing.T) {
	fields, ordered, err := Fields(OrderedMapOf("z", 1, "a", 2))
	if err != nil || !ordered {
		t.Fatalf("Fields(ordered) = %v, %v", ordered, err)
	}
	if fields[0].Name != "z" || fields[1].Name != "a" {
		t.Errorf("fields = %+v", fields)
	}

	fields, ordered, err = Fields(map[string]any{"z": 1, "a": 2})
	if err != nil || ordered {
		t.Fatalf("Fields(map) ordered = %v, err = %v", ordered, err)
	}
	if fields[0].Name != "a" {
		t.Errorf("map fields not sorted: %+v", fields)
	}

	fields, ordered, err = Fields(rect{Name: "n"})
	if err != nil || !ordered || len(fields) != 2 {
		t.Fatalf("Fields(struct) = %+v, %v, %v", fields, ordered, err)
	}

	if _, _, err := Fields(42); !errors.IsKind(err, errors.KindUnsupported) {
		t.Errorf("Fields(int) error = %v", err)
	}
}

func TestOrderedMap(t *testing.T) {
	m := NewOrderedMap().Set("a", 1).Set("b", 2).Set("c", 3)
	m.Set("a", 10)
	m.Delete("b")
	if diff := cmp.Diff([]string{"a", "c"}, m.Keys()); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}
	if v, _ := m.Get("a"); v != 10 {
		t.Errorf("Get(a) = %v", v)
	}
	if m.String() != `{"a": 10, "c": 3}` {
		t.Errorf("String() = %s", m.String())
	}
	var nilMap *OrderedMap
	if nilMap.Len() != 0 || nilMap.Keys() != nil {
		t.Error("nil map should be empty")
	}
}

func TestArray_AtAndSet(t *testing.T) {
	a := NewComplexArray(2, 2)
	if err := a.SetAt(1+2i, 1, 0); err != nil {
		t.Fatal(err)
	}
	got, err := a.At(1, 0)
	if err != nil || got != 1+2i {
		t.Errorf("At(1,0) = %v, %v", got, err)
	}
	if _, err := a.At(2, 0); err == nil {
		t.Error("expected out of range error")
	}
	if _, err := a.At(0); err == nil {
		t.Error("expected rank error")
	}
}
