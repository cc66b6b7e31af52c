package interoptest

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"

	interop "github.com/wippyai/interop-runtime"
	"github.com/wippyai/interop-runtime/value"
)

// Func is a script function. Returning nil yields an empty matrix.
type Func func(in *Instance, args []value.Value) (value.Value, error)

// App is an in-memory application implementing interop.Backend. Each Open
// creates an independent Instance with its own scene graph and workspace.
type App struct {
	funcs     map[string]Func
	instances map[interop.Handle]*Instance
	// OpenError, if set, makes Open fail with this diagnostic.
	OpenError string
	urls      []string
	next      interop.Handle
	mu        sync.Mutex
}

var _ interop.Backend = (*App)(nil)

// New creates an application with the builtin script functions.
func New() *App {
	a := &App{
		funcs:     make(map[string]Func),
		instances: make(map[interop.Handle]*Instance),
		next:      0x1000,
	}
	for name, fn := range builtins() {
		a.funcs[name] = fn
	}
	for name, tpl := range Templates {
		a.funcs[name] = adder(name, tpl)
	}
	return a
}

// RegisterFunc adds or replaces a script function.
func (a *App) RegisterFunc(name string, fn Func) error {
	if name == "" {
		return errors.New("function name cannot be empty")
	}
	if fn == nil {
		return fmt.Errorf("function %q: handler cannot be nil", name)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.funcs[name] = fn
	return nil
}

func (a *App) lookupFunc(name string) (Func, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	fn, ok := a.funcs[name]
	return fn, ok
}

// URLs returns every URL passed to Open, in order.
func (a *App) URLs() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.urls...)
}

// Instance returns the live instance behind h.
func (a *App) Instance(h interop.Handle) (*Instance, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	in, ok := a.instances[h]
	return in, ok
}

// Kill drops an instance without a Close, as if the process had exited.
func (a *App) Kill(h interop.Handle) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.instances, h)
}

// Open accepts fdtd://, mode://, device:// and icc:// URLs.
func (a *App) Open(rawURL string, key interop.Key) (interop.Handle, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.urls = append(a.urls, rawURL)

	if a.OpenError != "" {
		return 0, interop.Diagnostic(a.OpenError)
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return 0, interop.Diagnostic("malformed url: " + err.Error())
	}
	switch u.Scheme {
	case "fdtd", "mode", "device", "icc":
	default:
		return 0, interop.Diagnostic(fmt.Sprintf("unknown product '%s'", u.Scheme))
	}
	if u.Query().Has("remote-host") && key == (interop.Key{}) {
		return 0, interop.Diagnostic("remote session requires a license key")
	}

	a.next++
	h := a.next
	a.instances[h] = &Instance{
		app:     a,
		Product: u.Scheme,
		Root:    rootNode(u.Scheme),
		vars:    make(map[string]value.Value),
		funcs:   make(map[string]*funcStmt),
	}
	return h, nil
}

// Close ends the instance behind h.
func (a *App) Close(h interop.Handle) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.instances[h]; !ok {
		return interop.Diagnostic("invalid session handle")
	}
	delete(a.instances, h)
	return nil
}

// Opened reports whether h is live.
func (a *App) Opened(h interop.Handle) bool {
	_, ok := a.Instance(h)
	return ok
}

// EvalScript parses and runs code. An uncaught failure is reported as
// "Error: prompt line N: <message>".
func (a *App) EvalScript(h interop.Handle, code string) error {
	in, ok := a.Instance(h)
	if !ok {
		return interop.Diagnostic("invalid session handle")
	}
	stmts, err := parse(code)
	if err != nil {
		return promptError(err)
	}
	if err := in.run(stmts); err != nil {
		return promptError(err)
	}
	return nil
}

func promptError(err error) error {
	var se *scriptError
	if errors.As(err, &se) {
		return interop.Diagnostic(fmt.Sprintf("Error: prompt line %d: %s", se.line, se.msg))
	}
	return interop.Diagnostic(err.Error())
}

// GetVar reads a workspace variable.
func (a *App) GetVar(h interop.Handle, name string) (value.Value, error) {
	in, ok := a.Instance(h)
	if !ok {
		return nil, interop.Diagnostic("invalid session handle")
	}
	v, ok := in.Var(name)
	if !ok {
		return nil, interop.Diagnostic(fmt.Sprintf("there is nothing named '%s' defined", name))
	}
	return v, nil
}

// PutVar writes a workspace variable.
func (a *App) PutVar(h interop.Handle, name string, v value.Value) error {
	in, ok := a.Instance(h)
	if !ok {
		return interop.Diagnostic("invalid session handle")
	}
	if v == nil {
		return interop.Diagnostic("cannot store a null value")
	}
	in.SetVar(name, v)
	return nil
}

// Instance is one running application: a scene graph, a selection and a
// workspace of variables.
type Instance struct {
	app       *App
	Root      *Node
	vars      map[string]value.Value
	funcs     map[string]*funcStmt
	Product   string
	selection []*Node
	depth     int
	mu        sync.Mutex
}

// Var reads a workspace variable.
func (in *Instance) Var(name string) (value.Value, bool) {
	in.mu.Lock()
	defer in.mu.Unlock()
	v, ok := in.vars[name]
	return v, ok
}

// SetVar writes a workspace variable.
func (in *Instance) SetVar(name string, v value.Value) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.vars[name] = v
}

// VarNames lists workspace variables in sorted order.
func (in *Instance) VarNames() []string {
	in.mu.Lock()
	defer in.mu.Unlock()
	names := make([]string, 0, len(in.vars))
	for n := range in.vars {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// FuncNames lists user-defined script functions in sorted order.
func (in *Instance) FuncNames() []string {
	in.mu.Lock()
	defer in.mu.Unlock()
	names := make([]string, 0, len(in.funcs))
	for n := range in.funcs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (in *Instance) userFunc(name string) (*funcStmt, bool) {
	in.mu.Lock()
	defer in.mu.Unlock()
	f, ok := in.funcs[name]
	return f, ok
}

func (in *Instance) clearFuncs(names []string) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if len(names) == 0 {
		in.funcs = make(map[string]*funcStmt)
		return
	}
	for _, n := range names {
		delete(in.funcs, n)
	}
}

func (in *Instance) clearVars(names []string) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if len(names) == 0 {
		in.vars = make(map[string]value.Value)
		return
	}
	for _, n := range names {
		delete(in.vars, n)
	}
}

// Nodes returns every node in discovery order, root first.
func (in *Instance) Nodes() []*Node {
	var out []*Node
	in.Root.walk(func(n *Node) { out = append(out, n) })
	return out
}

// Find returns nodes matching name in discovery order. A name starting
// with "::" matches the full path; anything else matches the object name.
func (in *Instance) Find(name string) []*Node {
	var out []*Node
	for _, n := range in.Nodes() {
		if strings.HasPrefix(name, "::") {
			if n.Path() == name {
				out = append(out, n)
			}
		} else if n.Name() == name {
			out = append(out, n)
		}
	}
	return out
}

// ID returns the identifier a client uses to reach n: its path, with a
// "#k" suffix when other nodes share the path.
func (in *Instance) ID(n *Node) string {
	same := in.Find(n.Path())
	if len(same) < 2 {
		return n.Path()
	}
	for i, s := range same {
		if s == n {
			return fmt.Sprintf("%s#%d", n.Path(), i+1)
		}
	}
	return n.Path()
}

// Selected returns the current selection.
func (in *Instance) Selected() []*Node {
	return append([]*Node(nil), in.selection...)
}

// Select replaces the selection.
func (in *Instance) Select(nodes ...*Node) {
	in.selection = append([]*Node(nil), nodes...)
}

// Add creates a node from tpl under the root and selects it.
func (in *Instance) Add(tpl Template) *Node {
	n := &Node{Type: tpl.Type}
	n.AddProperty(str("name", tpl.Name))
	n.AddProperty(str("type", tpl.Type))
	if tpl.Setup != nil {
		tpl.Setup(n)
	}
	n.attach(in.Root)
	in.Select(n)
	return n
}

// Remove deletes n and its subtree.
func (in *Instance) Remove(n *Node) {
	n.detach()
	kept := in.selection[:0]
	for _, s := range in.selection {
		if s != n {
			kept = append(kept, s)
		}
	}
	in.selection = kept
}

func (in *Instance) run(stmts []stmt) error {
	for _, s := range stmts {
		if err := in.exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (in *Instance) exec(s stmt) error {
	switch s := s.(type) {
	case *exprStmt:
		_, err := in.eval(s.X, s.Line)
		return err

	case *assignStmt:
		v, err := in.eval(s.Value, s.Line)
		if err != nil {
			return err
		}
		if s.Index == nil {
			in.SetVar(s.Name, v)
			return nil
		}
		return in.assignIndex(s, v)

	case *tryStmt:
		msg := ""
		if err := in.run(s.Body); err != nil {
			var ret *returnSignal
			if errors.As(err, &ret) {
				return err
			}
			msg = err.Error()
		}
		in.SetVar(s.CatchVar, value.String(msg))
		return nil

	case *funcStmt:
		if _, ok := in.app.lookupFunc(s.Name); ok || specialForms[s.Name] {
			return errorf(s.Line, "'%s' is a built-in function and cannot be redefined", s.Name)
		}
		in.mu.Lock()
		in.funcs[s.Name] = s
		in.mu.Unlock()
		return nil

	case *returnStmt:
		if in.depth == 0 {
			return errorf(s.Line, "return statement outside of a function")
		}
		var v value.Value = value.NewMatrix(0, 0)
		if s.Value != nil {
			var err error
			if v, err = in.eval(s.Value, s.Line); err != nil {
				return err
			}
		}
		return &returnSignal{v: v}
	}
	return errorf(s.line(), "unsupported statement")
}

// returnSignal unwinds a user function body to its call.
type returnSignal struct {
	v value.Value
}

func (r *returnSignal) Error() string { return "return" }

// specialForms take names rather than values as arguments.
var specialForms = map[string]bool{"clear": true, "clearfunctions": true}

// callUser runs f with its parameters bound in a fresh variable scope.
func (in *Instance) callUser(f *funcStmt, args []value.Value, line int) (value.Value, error) {
	if len(args) != len(f.Params) {
		return nil, errorf(line, "in %s, expected %d arguments but got %d", f.Name, len(f.Params), len(args))
	}
	if in.depth >= maxCallDepth {
		return nil, errorf(line, "in %s, maximum recursion depth exceeded", f.Name)
	}
	local := make(map[string]value.Value, len(args))
	for i, p := range f.Params {
		local[p] = args[i]
	}

	in.mu.Lock()
	caller := in.vars
	in.vars = local
	in.mu.Unlock()
	in.depth++
	defer func() {
		in.depth--
		in.mu.Lock()
		in.vars = caller
		in.mu.Unlock()
	}()

	err := in.run(f.Body)
	var ret *returnSignal
	switch {
	case errors.As(err, &ret):
		return ret.v, nil
	case err != nil:
		return nil, err
	}
	return value.NewMatrix(0, 0), nil
}

const maxCallDepth = 64

func (in *Instance) assignIndex(s *assignStmt, v value.Value) error {
	idx, err := in.eval(s.Index, s.Line)
	if err != nil {
		return err
	}
	cur, ok := in.Var(s.Name)
	if !ok {
		return errorf(s.Line, "there is nothing named '%s' defined", s.Name)
	}
	list, ok := cur.(value.List)
	if !ok {
		return errorf(s.Line, "'%s' is not a cell array", s.Name)
	}
	i, err := position(idx, len(list), s.Line)
	if err != nil {
		return err
	}
	out := append(value.List(nil), list...)
	out[i] = v
	in.SetVar(s.Name, out)
	return nil
}

func position(idx value.Value, n, line int) (int, error) {
	d, ok := idx.(value.Double)
	if !ok || float64(int(d)) != float64(d) {
		return 0, errorf(line, "cell index must be an integer")
	}
	i := int(d)
	if i < 1 || i > n {
		return 0, errorf(line, "index %d is out of bounds for a cell array of size %d", i, n)
	}
	return i - 1, nil
}

func (in *Instance) eval(x expr, line int) (value.Value, error) {
	switch x := x.(type) {
	case *literal:
		return x.V, nil

	case *ident:
		if v, ok := in.Var(x.Name); ok {
			return v, nil
		}
		if _, ok := in.userFunc(x.Name); ok {
			return in.call(x.Name, nil, line)
		}
		if _, ok := in.app.lookupFunc(x.Name); ok || specialForms[x.Name] {
			return in.call(x.Name, nil, line)
		}
		return nil, errorf(line, "there is nothing named '%s' defined", x.Name)

	case *callExpr:
		return in.call(x.Name, x.Args, line)

	case *indexExpr:
		idx, err := in.eval(x.Index, line)
		if err != nil {
			return nil, err
		}
		cur, ok := in.Var(x.Name)
		if !ok {
			return nil, errorf(line, "there is nothing named '%s' defined", x.Name)
		}
		list, ok := cur.(value.List)
		if !ok {
			return nil, errorf(line, "'%s' is not a cell array", x.Name)
		}
		i, err := position(idx, len(list), line)
		if err != nil {
			return nil, err
		}
		return list[i], nil

	case *cellExpr:
		out := make(value.List, len(x.Elems))
		for i, e := range x.Elems {
			v, err := in.eval(e, line)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil

	case *matrixExpr:
		return in.evalMatrix(x, line)

	case *binaryExpr:
		l, err := in.eval(x.L, line)
		if err != nil {
			return nil, err
		}
		r, err := in.eval(x.R, line)
		if err != nil {
			return nil, err
		}
		return arith(x.Op, l, r, line)
	}
	return nil, errorf(line, "unsupported expression")
}

// arith applies op to two numbers, or joins two strings with +.
func arith(op string, l, r value.Value, line int) (value.Value, error) {
	if ls, ok := l.(value.String); ok {
		if rs, ok := r.(value.String); ok && op == "+" {
			return ls + rs, nil
		}
		return nil, errorf(line, "operator '%s' is not defined for strings", op)
	}
	a, aok := coerce(l, value.KindDouble)
	b, bok := coerce(r, value.KindDouble)
	if !aok || !bok {
		return nil, errorf(line, "operator '%s' requires numbers", op)
	}
	x, y := a.(value.Double), b.(value.Double)
	switch op {
	case "+":
		return x + y, nil
	case "-":
		return x - y, nil
	case "*":
		return x * y, nil
	case "/":
		return x / y, nil
	}
	return nil, errorf(line, "unknown operator '%s'", op)
}

func (in *Instance) evalMatrix(x *matrixExpr, line int) (value.Value, error) {
	rows := len(x.Rows)
	if rows == 0 {
		return value.NewMatrix(0, 0), nil
	}
	cols := len(x.Rows[0])
	m := value.NewMatrix(rows, cols)
	for r, row := range x.Rows {
		if len(row) != cols {
			return nil, errorf(line, "matrix rows must have the same length")
		}
		for c, e := range row {
			v, err := in.eval(e, line)
			if err != nil {
				return nil, err
			}
			d, ok := v.(value.Double)
			if !ok {
				return nil, errorf(line, "matrix elements must be numbers")
			}
			m.Real[c*rows+r] = float64(d)
		}
	}
	return m, nil
}

func (in *Instance) call(name string, args []expr, line int) (value.Value, error) {
	if specialForms[name] {
		return in.clear(name, args, line)
	}
	user, isUser := in.userFunc(name)
	fn, ok := in.app.lookupFunc(name)
	if !ok && !isUser {
		return nil, errorf(line, "there is nothing named '%s' defined", name)
	}
	vals := make([]value.Value, len(args))
	for i, a := range args {
		v, err := in.eval(a, line)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	if isUser {
		return in.callUser(user, vals, line)
	}
	out, err := fn(in, vals)
	if err != nil {
		var se *scriptError
		if errors.As(err, &se) {
			return nil, se
		}
		return nil, errorf(line, "%s", err.Error())
	}
	if out == nil {
		return value.NewMatrix(0, 0), nil
	}
	return out, nil
}

// clear and clearfunctions take names rather than values: clear(a, b)
// removes variables a and b, clear() removes every variable, and
// clearfunctions does the same for user functions.
func (in *Instance) clear(form string, args []expr, line int) (value.Value, error) {
	names := make([]string, 0, len(args))
	for _, a := range args {
		id, ok := a.(*ident)
		if !ok {
			return nil, errorf(line, "in %s, arguments must be names", form)
		}
		names = append(names, id.Name)
	}
	if form == "clearfunctions" {
		in.clearFuncs(names)
	} else {
		in.clearVars(names)
	}
	return value.NewMatrix(0, 0), nil
}
