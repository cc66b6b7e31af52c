package native

import (
	"fmt"
	"runtime"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
	"go.uber.org/zap"

	interop "github.com/wippyai/interop-runtime"
	"github.com/wippyai/interop-runtime/config"
	"github.com/wippyai/interop-runtime/errors"
	"github.com/wippyai/interop-runtime/resource"
	"github.com/wippyai/interop-runtime/value"
)

// api holds the library's entry points.
type api struct {
	appOpen       func(url string, key *uint64) uintptr
	appClose      func(h uintptr)
	appOpened     func(h uintptr) int32
	appEvalScript func(h uintptr, code string) int32
	appGetVar     func(h uintptr, name string, out *unsafe.Pointer) int32
	appPutVar     func(h uintptr, name string, v unsafe.Pointer) int32

	allocateLumDouble        func(v float64) unsafe.Pointer
	allocateLumString        func(n uint64, s *byte) unsafe.Pointer
	allocateLumMatrix        func(ndim uint64, dims *uint64) unsafe.Pointer
	allocateComplexLumMatrix func(ndim uint64, dims *uint64) unsafe.Pointer
	allocateLumNameValuePair func(n uint64, name *byte, v unsafe.Pointer) unsafe.Pointer
	allocateLumStruct        func(n uint64, elems *unsafe.Pointer) unsafe.Pointer
	allocateLumList          func(n uint64, elems *unsafe.Pointer) unsafe.Pointer
	freeAny                  func(v unsafe.Pointer)
	appGetLastError          func() unsafe.Pointer
}

// Library is a loaded interop library. It implements interop.Backend.
// Calls are serialized; the library is not documented as reentrant.
type Library struct {
	api
	path   string
	handle uintptr
	mu     sync.Mutex
}

var (
	_ interop.Backend   = (*Library)(nil)
	_ resource.Releaser = (*Library)(nil)
)

var (
	loadMu sync.Mutex
	loaded = map[string]resource.Handle{}
	// libraries holds every loaded library, keyed by the handle in loaded.
	libraries = newLibraryTable()
)

func newLibraryTable() *resource.Table {
	t := resource.NewTable()
	t.Subscribe(resource.ObserverFunc(func(e resource.Event) {
		lib, _ := e.Value.(*Library)
		if lib == nil {
			return
		}
		Logger().Debug("interop library "+e.Type.String(),
			zap.String("path", lib.path),
			zap.Uint32("ref", uint32(e.Handle)))
	}))
	return t
}

// Load opens the library at path with env applied to the process
// environment for the duration of the load. Libraries are cached per path.
func Load(path string, env map[string]string) (*Library, error) {
	loadMu.Lock()
	defer loadMu.Unlock()

	if h, ok := loaded[path]; ok {
		if v, ok := libraries.GetKind(h, resource.KindLibrary); ok {
			return v.(*Library), nil
		}
	}

	lib := &Library{path: path}
	err := config.WithEnv(env, func() error {
		h, err := openLibrary(path)
		if err != nil {
			return err
		}
		lib.handle = h
		return lib.bind()
	})
	if err != nil {
		if lib.handle != 0 {
			closeLibrary(lib.handle)
		}
		return nil, errors.Load("failed to load interop library "+path, err)
	}

	h, err := libraries.Insert(resource.KindLibrary, lib.handle, lib)
	if err != nil {
		closeLibrary(lib.handle)
		return nil, errors.Load("failed to register interop library "+path, err)
	}
	loaded[path] = h
	return lib, nil
}

// LoadPaths loads the library described by p.
func LoadPaths(p config.Paths) (*Library, error) {
	if err := p.Check(); err != nil {
		return nil, err
	}
	return Load(p.Library, map[string]string{"PATH": p.EnvPath})
}

// Unload drops a library from the cache and closes it. Sessions opened on
// it must be closed first.
func Unload(path string) {
	loadMu.Lock()
	defer loadMu.Unlock()

	h, ok := loaded[path]
	if !ok {
		return
	}
	delete(loaded, path)
	if v, ok := libraries.Remove(h); ok {
		v.(*Library).Release()
	}
}

// Shutdown closes every cached library. Sessions opened on them must be
// closed first. Later loads start from an empty cache.
func Shutdown() error {
	loadMu.Lock()
	defer loadMu.Unlock()

	n := libraries.Len()
	err := libraries.Close()
	libraries = newLibraryTable()
	loaded = map[string]resource.Handle{}
	if n > 0 {
		Logger().Debug("interop libraries closed", zap.Int("count", n))
	}
	return err
}

// Release closes the underlying library handle.
func (l *Library) Release() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.handle != 0 {
		closeLibrary(l.handle)
		l.handle = 0
	}
}

// Path returns the file the library was loaded from.
func (l *Library) Path() string { return l.path }

func (l *Library) bind() error {
	required := []struct {
		fptr any
		name string
	}{
		{&l.appOpen, "appOpen"},
		{&l.appClose, "appClose"},
		{&l.appEvalScript, "appEvalScript"},
		{&l.appGetVar, "appGetVar"},
		{&l.appPutVar, "appPutVar"},
		{&l.allocateLumDouble, "allocateLumDouble"},
		{&l.allocateLumString, "allocateLumString"},
		{&l.allocateLumMatrix, "allocateLumMatrix"},
		{&l.allocateComplexLumMatrix, "allocateComplexLumMatrix"},
		{&l.allocateLumNameValuePair, "allocateLumNameValuePair"},
		{&l.allocateLumStruct, "allocateLumStruct"},
		{&l.allocateLumList, "allocateLumList"},
		{&l.freeAny, "freeAny"},
		{&l.appGetLastError, "appGetLastError"},
	}
	for _, fn := range required {
		sym, err := lookupSymbol(l.handle, fn.name)
		if err != nil || sym == 0 {
			return fmt.Errorf("missing entry point %s: %v", fn.name, err)
		}
		purego.RegisterFunc(fn.fptr, sym)
	}

	// appOpened is missing from older releases.
	if sym, err := lookupSymbol(l.handle, "appOpened"); err == nil && sym != 0 {
		purego.RegisterFunc(&l.appOpened, sym)
	}
	return nil
}

// lastError reads the library's most recent diagnostic.
func (l *Library) lastError() interop.Diagnostic {
	p := l.appGetLastError()
	if p == nil {
		return ""
	}
	s := (*lumString)(p)
	if s.str == nil || s.len == 0 {
		return ""
	}
	return interop.Diagnostic(string(s.bytes()))
}

func (l *Library) Open(url string, key interop.Key) (interop.Handle, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	k := [2]uint64(key)
	h := l.appOpen(url, &k[0])
	runtime.KeepAlive(&k)
	if h == 0 {
		return 0, l.lastError()
	}
	Logger().Debug("application opened", zap.String("url", url))
	return interop.Handle(h), nil
}

func (l *Library) Close(h interop.Handle) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.appClose(uintptr(h))
	return nil
}

func (l *Library) Opened(h interop.Handle) bool {
	if h == 0 {
		return false
	}
	if l.appOpened == nil {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.appOpened(uintptr(h)) != 0
}

func (l *Library) EvalScript(h interop.Handle, code string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.appEvalScript(uintptr(h), code) < 0 {
		return l.lastError()
	}
	return nil
}

func (l *Library) GetVar(h interop.Handle, name string) (value.Value, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out unsafe.Pointer
	status := l.appGetVar(uintptr(h), name, &out)
	if status < 0 || out == nil {
		return nil, l.lastError()
	}
	defer l.freeAny(out)
	return readAny((*anyValue)(out))
}

func (l *Library) PutVar(h interop.Handle, name string, v value.Value) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	a, err := l.alloc(v)
	if err != nil {
		return err
	}
	defer l.freeAny(a)
	if l.appPutVar(uintptr(h), name, a) < 0 {
		return l.lastError()
	}
	return nil
}
