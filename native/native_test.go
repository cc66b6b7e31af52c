package native

import (
	"path/filepath"
	"strings"
	"testing"
	"unsafe"

	interop "github.com/wippyai/interop-runtime"
	"github.com/wippyai/interop-runtime/errors"
	"github.com/wippyai/interop-runtime/resource"
	"github.com/wippyai/interop-runtime/value"
)

// fakeHeap backs the allocator entry points with Go memory. Pointers stored
// inside anyValue unions are invisible to the GC, so keep holds them.
type fakeHeap struct {
	keep  []any
	frees int
}

func (h *fakeHeap) node(tag int32) *anyValue {
	a := &anyValue{typ: tag}
	h.keep = append(h.keep, a)
	return a
}

func (h *fakeHeap) bytes(n uint64, s *byte) lumString {
	buf := make([]byte, n+1)
	copy(buf, unsafe.Slice(s, n))
	h.keep = append(h.keep, buf)
	return lumString{len: n, str: &buf[0]}
}

func (h *fakeHeap) matrix(complexData bool) func(uint64, *uint64) unsafe.Pointer {
	return func(ndim uint64, dims *uint64) unsafe.Pointer {
		d := append([]uint64(nil), unsafe.Slice(dims, ndim)...)
		n := uint64(1)
		for _, x := range d {
			n *= x
		}
		mode := modeReal
		if complexData {
			mode = modeComplex
			n *= 2
		}
		data := make([]float64, n+1)
		h.keep = append(h.keep, d, data)
		a := h.node(tagMatrix)
		*a.matrix() = lumMat{mode: mode, dim: ndim, dimlst: &d[0], data: &data[0]}
		return unsafe.Pointer(a)
	}
}

func (h *fakeHeap) seq(tag int32) func(uint64, *unsafe.Pointer) unsafe.Pointer {
	return func(n uint64, elems *unsafe.Pointer) unsafe.Pointer {
		items := make([]*anyValue, n+1)
		if n > 0 {
			for i, p := range unsafe.Slice(elems, n) {
				items[i] = (*anyValue)(p)
			}
		}
		h.keep = append(h.keep, items)
		a := h.node(tag)
		*a.seq() = lumSeq{size: n, elements: &items[0]}
		return unsafe.Pointer(a)
	}
}

func newFakeLibrary() (*Library, *fakeHeap) {
	h := &fakeHeap{}
	l := &Library{path: "fake"}
	l.allocateLumDouble = func(v float64) unsafe.Pointer {
		a := h.node(tagDouble)
		*a.double() = v
		return unsafe.Pointer(a)
	}
	l.allocateLumString = func(n uint64, s *byte) unsafe.Pointer {
		a := h.node(tagString)
		*a.str() = h.bytes(n, s)
		return unsafe.Pointer(a)
	}
	l.allocateLumMatrix = h.matrix(false)
	l.allocateComplexLumMatrix = h.matrix(true)
	l.allocateLumNameValuePair = func(n uint64, name *byte, v unsafe.Pointer) unsafe.Pointer {
		a := h.node(tagPair)
		*a.pair() = lumPair{name: h.bytes(n, name), value: (*anyValue)(v)}
		return unsafe.Pointer(a)
	}
	l.allocateLumStruct = h.seq(tagStruct)
	l.allocateLumList = h.seq(tagList)
	l.freeAny = func(unsafe.Pointer) { h.frees++ }
	return l, h
}

func TestLayout(t *testing.T) {
	if unsafe.Sizeof(uintptr(0)) != 8 {
		t.Skip("layout is defined for 64-bit targets")
	}
	if got := unsafe.Sizeof(anyValue{}); got != 40 {
		t.Errorf("sizeof(Any) = %d, want 40", got)
	}
	if got := unsafe.Offsetof(anyValue{}.val); got != 8 {
		t.Errorf("offsetof(Any.val) = %d, want 8", got)
	}
	if got := unsafe.Sizeof(lumMat{}); got != 32 {
		t.Errorf("sizeof(LumMat) = %d, want 32", got)
	}
	if got := unsafe.Offsetof(lumMat{}.dim); got != 8 {
		t.Errorf("offsetof(LumMat.dim) = %d, want 8", got)
	}
	if got := unsafe.Sizeof(lumPair{}); got != 24 {
		t.Errorf("sizeof(LumNameValuePair) = %d, want 24", got)
	}
	if got := unsafe.Sizeof(lumString{}); got != 16 {
		t.Errorf("sizeof(LumString) = %d, want 16", got)
	}
}

func TestAllocRead_RoundTrip(t *testing.T) {
	s, _ := value.NewStruct(
		value.Pair{Name: "x span", Value: value.Double(10.1e-6)},
		value.Pair{Name: "name", Value: value.String("rect\x00angle")},
		value.Pair{Name: "grid", Value: &value.Matrix{Dims: []int{2, 3}, Real: []float64{1, 2, 3, 4, 5, 6}}},
		value.Pair{Name: "field", Value: &value.Matrix{Dims: []int{2, 1}, Real: []float64{1, 2}, Imag: []float64{-1, -2}}},
		value.Pair{Name: "cells", Value: value.List{value.String(""), value.Double(3), value.List{}}},
		value.Pair{Name: "empty", Value: &value.Struct{}},
	)
	tests := []struct {
		name string
		in   value.Value
	}{
		{"double", value.Double(3.141592653589)},
		{"string", value.String("hello")},
		{"empty string", value.String("")},
		{"pair", value.Pair{Name: "n", Value: value.Double(1)}},
		{"empty matrix", &value.Matrix{Dims: []int{0, 0}, Real: []float64{}}},
		{"struct", s},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, heap := newFakeLibrary()
			p, err := l.alloc(tt.in)
			if err != nil {
				t.Fatalf("alloc: %v", err)
			}
			got, err := readAny((*anyValue)(p))
			if err != nil {
				t.Fatalf("readAny: %v", err)
			}
			if !value.Equal(got, tt.in) {
				t.Errorf("round trip = %#v, want %#v", got, tt.in)
			}
			if heap.frees != 0 {
				t.Errorf("successful alloc freed %d nodes", heap.frees)
			}
		})
	}
}

func TestAlloc_ComplexLayout(t *testing.T) {
	l, _ := newFakeLibrary()
	m := &value.Matrix{Dims: []int{2, 1}, Real: []float64{1, 2}, Imag: []float64{3, 4}}
	p, err := l.alloc(m)
	if err != nil {
		t.Fatal(err)
	}
	mat := (*anyValue)(p).matrix()
	if mat.mode != modeComplex {
		t.Fatalf("mode = %d", mat.mode)
	}
	buf := mat.buffer(4)
	for i, want := range []float64{1, 2, 3, 4} {
		if buf[i] != want {
			t.Errorf("data[%d] = %v, want %v (real block then imaginary block)", i, buf[i], want)
		}
	}
}

func TestAlloc_FailureFreesChildren(t *testing.T) {
	l, heap := newFakeLibrary()
	l.allocateLumList = func(uint64, *unsafe.Pointer) unsafe.Pointer { return nil }

	_, err := l.alloc(value.List{value.Double(1), value.String("a")})
	if !errors.IsKind(err, errors.KindInvalidData) {
		t.Fatalf("error = %v, want invalid data", err)
	}
	if heap.frees != 2 {
		t.Errorf("freed %d children, want 2", heap.frees)
	}
}

func TestAlloc_Unsupported(t *testing.T) {
	l, _ := newFakeLibrary()
	if _, err := l.alloc(value.Null{}); !errors.IsKind(err, errors.KindUnsupported) {
		t.Errorf("alloc(null) error = %v", err)
	}
}

func TestReadAny_BadStruct(t *testing.T) {
	l, _ := newFakeLibrary()
	child, _ := l.alloc(value.Double(1))
	p := l.allocateLumStruct(1, &child)
	if _, err := readAny((*anyValue)(p)); !errors.IsKind(err, errors.KindInvalidData) {
		t.Errorf("readAny error = %v, want invalid data", err)
	}
}

func TestLibrary_BackendCalls(t *testing.T) {
	l, heap := newFakeLibrary()
	msg := []byte("Interop-client: Unable to open the SSL key file")
	last := &lumString{len: uint64(len(msg)), str: &msg[0]}
	l.appGetLastError = func() unsafe.Pointer { return unsafe.Pointer(last) }

	vars := map[string]unsafe.Pointer{}
	l.appOpen = func(url string, key *uint64) uintptr {
		if strings.Contains(url, "remote-host") {
			return 0
		}
		return 7
	}
	l.appClose = func(uintptr) {}
	l.appEvalScript = func(_ uintptr, code string) int32 {
		if code == "bad;" {
			return -1
		}
		return 0
	}
	l.appPutVar = func(_ uintptr, name string, v unsafe.Pointer) int32 {
		got, err := readAny((*anyValue)(v))
		if err != nil {
			return -1
		}
		p, _ := l.alloc(got)
		vars[name] = p
		return 0
	}
	l.appGetVar = func(_ uintptr, name string, out *unsafe.Pointer) int32 {
		p, ok := vars[name]
		if !ok {
			return -1
		}
		*out = p
		return 0
	}

	h, err := l.Open("fdtd://localhost?server=true", interop.Key{1, 2})
	if err != nil || h != 7 {
		t.Fatalf("Open = %v, %v", h, err)
	}
	if _, err := l.Open("fdtd://localhost?remote-host=1.2.3.4", interop.Key{}); err == nil ||
		!strings.Contains(err.Error(), "SSL key file") {
		t.Errorf("remote Open error = %v", err)
	}
	if !l.Opened(h) {
		t.Error("Opened without appOpened should report true")
	}
	if l.Opened(0) {
		t.Error("Opened(0) should be false")
	}

	if err := l.EvalScript(h, "ok;"); err != nil {
		t.Errorf("EvalScript = %v", err)
	}
	if err := l.EvalScript(h, "bad;"); interop.DiagnosticOf(err) != string(msg) {
		t.Errorf("EvalScript error = %v", err)
	}

	if err := l.PutVar(h, "I", value.Double(3.141592653589)); err != nil {
		t.Fatal(err)
	}
	got, err := l.GetVar(h, "I")
	if err != nil {
		t.Fatal(err)
	}
	if got != value.Double(3.141592653589) {
		t.Errorf("GetVar = %#v", got)
	}
	if heap.frees != 2 {
		t.Errorf("frees = %d, want 2 (put temp and get result)", heap.frees)
	}
	if _, err := l.GetVar(h, "missing"); err == nil {
		t.Error("GetVar(missing) should fail")
	}
	if err := l.Close(h); err != nil {
		t.Error(err)
	}
}

func TestLoad_MissingLibrary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "libinterop-api.so.1")
	_, err := Load(path, map[string]string{"INTEROP_TEST_LOAD": "1"})
	if err == nil {
		t.Fatal("Load of a missing file should fail")
	}
	e, ok := err.(*errors.Error)
	if !ok || e.Phase != errors.PhaseLoad {
		t.Errorf("error = %v, want load phase", err)
	}
}

func TestShutdown(t *testing.T) {
	lib := &Library{path: "cached"}
	loadMu.Lock()
	old := libraries
	h, err := libraries.Insert(resource.KindLibrary, 0, lib)
	if err != nil {
		loadMu.Unlock()
		t.Fatal(err)
	}
	loaded[lib.path] = h
	loadMu.Unlock()

	if err := Shutdown(); err != nil {
		t.Fatal(err)
	}
	if old.Live(h) {
		t.Error("library still registered after Shutdown")
	}
	if _, err := old.Insert(resource.KindLibrary, 0, lib); err != resource.ErrClosed {
		t.Errorf("closed table accepted an insert: %v", err)
	}
	if _, ok := loaded[lib.path]; ok {
		t.Error("cache entry survived Shutdown")
	}

	// Unload of a dropped path is a no-op, and the fresh table accepts loads.
	Unload(lib.path)
	if libraries.Len() != 0 {
		t.Errorf("fresh table has %d entries", libraries.Len())
	}
	if _, err := libraries.Insert(resource.KindLibrary, 0, lib); err != nil {
		t.Errorf("insert after Shutdown: %v", err)
	}
	Shutdown()
}
