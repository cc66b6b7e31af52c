package session

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	interop "github.com/wippyai/interop-runtime"
	"github.com/wippyai/interop-runtime/config"
	"github.com/wippyai/interop-runtime/errors"
	"github.com/wippyai/interop-runtime/native"
	"github.com/wippyai/interop-runtime/resource"
	"github.com/wippyai/interop-runtime/transcoder"
)

// State is a session's position in its lifecycle. Sessions only move
// forward: Unopened, Open, Closed.
type State uint8

const (
	StateUnopened State = iota
	StateOpen
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUnopened:
		return "unopened"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Warning is a non-fatal condition reported while an operation completes.
type Warning struct {
	// Op is the operation or application function that raised it.
	Op      string
	Message string
}

func (w Warning) String() string { return w.Message }

// sessions tracks every open session so raw handles can be validated.
var sessions = resource.NewTable()

func init() {
	sessions.Subscribe(resource.ObserverFunc(func(e resource.Event) {
		Logger().Debug("session registry",
			zap.Stringer("event", e.Type),
			zap.Uint32("ref", uint32(e.Handle)),
			zap.Uintptr("app", e.Native))
	}))
}

// Session is one running application instance.
//
// A Session serializes its own calls, but the application's selection and
// scene are shared state: results of one call may be invalidated by the
// next.
type Session struct {
	backend interop.Backend
	logger  *zap.Logger
	warnFn  func(Warning)
	enc     transcoder.Encoder
	product interop.Product
	handle  interop.Handle
	ref     resource.Handle
	// userFuncs is the tracked set of script-defined functions.
	userFuncs map[string]struct{}
	state     State
	mu        sync.Mutex
}

// Open starts product on backend. product is matched without regard to
// case against interop.Products.
func Open(ctx context.Context, backend interop.Backend, product string, opts Options) (*Session, error) {
	p, err := interop.ParseProduct(product)
	if err != nil {
		return nil, err
	}
	load, script, err := opts.startup()
	if err != nil {
		return nil, err
	}
	u, err := openURL(p, opts)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(errors.PhaseOpen, errors.KindConnection, err, "open cancelled")
	}

	s := &Session{
		backend: backend,
		product: p,
		logger:  opts.Logger,
		warnFn:  opts.Warn,
	}
	if s.logger == nil {
		s.logger = Logger()
	}
	s.enc.Warn = func(msg string) { s.warn("encode", msg) }

	var key interop.Key
	if opts.Key != nil {
		key = *opts.Key
	}
	h, err := backend.Open(u, key)
	if err != nil {
		return nil, errors.New(errors.PhaseOpen, errors.KindConnection).
			Value(string(p)).
			Detail("appOpen error: %s", interop.DiagnosticOf(err)).
			Build()
	}
	if h == 0 {
		return nil, errors.New(errors.PhaseOpen, errors.KindConnection).
			Value(string(p)).
			Detail("appOpen error: no session handle returned").
			Build()
	}
	s.handle = h

	ref, err := sessions.Insert(resource.KindSession, uintptr(h), s)
	if err != nil {
		_ = backend.Close(h)
		return nil, errors.Wrap(errors.PhaseOpen, errors.KindConnection, err, "register session")
	}
	s.ref = ref
	s.state = StateOpen
	s.logger.Debug("session opened",
		zap.String("product", string(p)),
		zap.Uint32("ref", uint32(ref)),
		zap.Bool("remote", opts.RemoteArgs != nil))

	if err := s.startup(ctx, load, script); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Session) startup(ctx context.Context, load, script string) error {
	if load != "" {
		if err := s.Eval(ctx, fmt.Sprintf("load(%s);", quote(load))); err != nil {
			return err
		}
	}
	if script != "" {
		if err := s.Eval(ctx, fmt.Sprintf("feval(%s);", quote(script))); err != nil {
			return err
		}
	}
	return nil
}

// OpenNative loads the interop library from opts.InstallDir (or the
// INTEROP_INSTALL_DIR environment variable) and opens product on it.
// Remote sessions use the library's remote variant.
func OpenNative(ctx context.Context, product string, opts Options) (*Session, error) {
	if _, err := interop.ParseProduct(product); err != nil {
		return nil, err
	}
	paths, err := config.Resolve(opts.InstallDir, opts.RemoteArgs != nil, "")
	if err != nil {
		return nil, err
	}
	lib, err := native.LoadPaths(paths)
	if err != nil {
		return nil, err
	}
	return Open(ctx, lib, product, opts)
}

// With opens a session, passes it to fn and closes it on every exit path,
// including a panic in fn, which is re-raised after the close.
func With(ctx context.Context, backend interop.Backend, product string, opts Options, fn func(*Session) error) (err error) {
	s, err := Open(ctx, backend, product, opts)
	if err != nil {
		return err
	}
	defer func() {
		cerr := s.Close()
		if r := recover(); r != nil {
			panic(r)
		}
		if err == nil {
			err = cerr
		}
	}()
	return fn(s)
}

// Close ends the session. Closing twice is a no-op.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateOpen {
		s.state = StateClosed
		return nil
	}
	s.state = StateClosed
	sessions.Remove(s.ref)

	if err := s.backend.Close(s.handle); err != nil {
		s.logger.Warn("session close failed", zap.Error(err))
		return errors.Wrap(errors.PhaseClose, errors.KindConnection, err, "appClose error")
	}
	s.logger.Debug("session closed", zap.String("product", string(s.product)))
	return nil
}

// CloseAll closes every session still open and returns the first close
// error.
func CloseAll() error {
	var open []*Session
	sessions.Each(func(_ resource.Handle, _ resource.Kind, v any) bool {
		open = append(open, v.(*Session))
		return true
	})
	var first error
	for _, s := range open {
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
	}
	if len(open) > 0 {
		Logger().Debug("closed open sessions", zap.Int("count", len(open)))
	}
	return first
}

// Check fails with a connection error unless the session is open and the
// application still answers to its handle.
func (s *Session) Check() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.check(errors.PhaseLookup)
}

// check must be called with s.mu held.
func (s *Session) check(phase errors.Phase) error {
	if s.state != StateOpen || !sessions.Live(s.ref) {
		return errors.Connection(phase, nil)
	}
	if !s.backend.Opened(s.handle) {
		return errors.Connection(phase, interop.Diagnostic("application is no longer running"))
	}
	return nil
}

// enter locks the session and validates it for a boundary crossing. The
// returned function unlocks.
func (s *Session) enter(ctx context.Context, phase errors.Phase) (func(), error) {
	s.mu.Lock()
	if err := s.check(phase); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		s.mu.Unlock()
		return nil, errors.Wrap(phase, errors.KindConnection, err, "operation cancelled")
	}
	return s.mu.Unlock, nil
}

// VerifyConnection validates a handle obtained from Session.Handle.
func VerifyConnection(h resource.Handle) error {
	v, ok := sessions.GetKind(h, resource.KindSession)
	if !ok {
		return errors.Connection(errors.PhaseLookup, nil)
	}
	return v.(*Session).Check()
}

// Handle returns the session's registry handle for VerifyConnection.
func (s *Session) Handle() resource.Handle { return s.ref }

// Product returns the application the session runs.
func (s *Session) Product() interop.Product { return s.product }

// State returns the lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) warn(op, msg string) {
	s.logger.Warn(msg, zap.String("op", op))
	if s.warnFn != nil {
		s.warnFn(Warning{Op: op, Message: msg})
	}
}
