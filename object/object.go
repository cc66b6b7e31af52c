package object

import (
	"context"
	"fmt"
	"strings"

	"github.com/wippyai/interop-runtime/errors"
	"github.com/wippyai/interop-runtime/transcoder"
)

// Caller is the part of a session the proxies depend on.
type Caller interface {
	// Call runs an application function and returns its decoded result.
	Call(ctx context.Context, fn string, args ...any) (any, error)
	// Check fails with a connection error once the session is closed.
	Check() error
}

// Accessor is the dynamic property surface shared by objects, compound
// properties and results.
type Accessor interface {
	Get(ctx context.Context, name string) (any, error)
	Set(ctx context.Context, name string, v any) error
	Names(ctx context.Context) ([]string, error)
}

var (
	_ Accessor         = (*Object)(nil)
	_ Accessor         = (*Compound)(nil)
	_ Accessor         = (*Results)(nil)
	_ transcoder.Proxy = (*Object)(nil)
	_ transcoder.Proxy = (*Compound)(nil)
	_ transcoder.Proxy = (*Results)(nil)
)

// Separator divides the levels of a compound property name.
const Separator = "."

// Object is a live reference to one node of the application's scene
// graph. Property values are never cached: every Get and Set is a call
// into the session. The property name list is captured once, at
// construction.
type Object struct {
	caller Caller
	known  map[string]struct{}
	id     ID
	names  []string
}

// New resolves the property list of id and returns its proxy.
func New(ctx context.Context, c Caller, id ID) (*Object, error) {
	v, err := c.Call(ctx, FnPropertyList, id.Name, id.index())
	if err != nil {
		return nil, err
	}
	names, err := stringList(v)
	if err != nil {
		return nil, errors.New(errors.PhaseLookup, errors.KindInvalidData).
			Cause(err).
			Detail("property list of %s", id).
			Build()
	}

	o := &Object{
		caller: c,
		id:     id,
		names:  names,
		known:  make(map[string]struct{}, len(names)),
	}
	for _, n := range names {
		o.known[n] = struct{}{}
	}
	return o, nil
}

// ID returns the object's address.
func (o *Object) ID() ID { return o.id }

func (o *Object) String() string { return o.id.String() }

// ProxyType implements transcoder.Proxy.
func (o *Object) ProxyType() string { return "object" }

func (o *Object) has(name string) bool {
	_, ok := o.known[name]
	return ok
}

// isGroup reports whether name is a strict prefix of a compound property.
func (o *Object) isGroup(name string) bool {
	prefix := name + Separator
	for _, n := range o.names {
		if strings.HasPrefix(n, prefix) {
			return true
		}
	}
	return false
}

// canonical maps an attribute-style name to a property name. Names the
// object knows are kept; otherwise each underscore stands for a space.
func (o *Object) canonical(attr string) string {
	if o.has(attr) || o.isGroup(attr) {
		return attr
	}
	return strings.ReplaceAll(attr, "_", " ")
}

// Get reads a property by its canonical name. A name that only prefixes
// compound properties returns a *Compound.
func (o *Object) Get(ctx context.Context, name string) (any, error) {
	if !o.has(name) && o.isGroup(name) {
		if err := o.caller.Check(); err != nil {
			return nil, err
		}
		return &Compound{obj: o, prefix: name}, nil
	}
	return o.caller.Call(ctx, FnGetNamed, o.id.Name, name, o.id.index())
}

// Set writes a property by its canonical name.
func (o *Object) Set(ctx context.Context, name string, v any) error {
	_, err := o.caller.Call(ctx, FnSetNamed, o.id.Name, name, v, o.id.index())
	return err
}

// Attr reads a property by attribute-style name, where "x_span" reaches
// "x span".
func (o *Object) Attr(ctx context.Context, attr string) (any, error) {
	return o.Get(ctx, o.canonical(attr))
}

// SetAttr writes a property by attribute-style name.
func (o *Object) SetAttr(ctx context.Context, attr string, v any) error {
	return o.Set(ctx, o.canonical(attr), v)
}

// Names lists canonical property names in application order. Mangled
// forms never appear.
func (o *Object) Names(context.Context) ([]string, error) {
	if err := o.caller.Check(); err != nil {
		return nil, err
	}
	return append([]string(nil), o.names...), nil
}

// Parent queries the enclosing group.
func (o *Object) Parent(ctx context.Context) (*Object, error) {
	v, err := o.caller.Call(ctx, FnParentID, o.id.Name, o.id.index())
	if err != nil {
		return nil, err
	}
	s, ok := v.(string)
	if !ok {
		return nil, errors.InvalidData(errors.PhaseLookup, nil, fmt.Sprintf("parent of %s: expected a string id, got %T", o.id, v))
	}
	return New(ctx, o.caller, ParseID(s))
}

// Children queries the objects directly inside this one.
func (o *Object) Children(ctx context.Context) ([]*Object, error) {
	v, err := o.caller.Call(ctx, FnChildIDs, o.id.Name, o.id.index())
	if err != nil {
		return nil, err
	}
	ids, err := stringList(v)
	if err != nil {
		return nil, errors.New(errors.PhaseLookup, errors.KindInvalidData).
			Cause(err).
			Detail("children of %s", o.id).
			Build()
	}
	out := make([]*Object, 0, len(ids))
	for _, id := range ids {
		child, err := New(ctx, o.caller, ParseID(id))
		if err != nil {
			return nil, err
		}
		out = append(out, child)
	}
	return out, nil
}

// Results returns the read-only view of the object's computed outputs.
func (o *Object) Results() *Results {
	return &Results{obj: o}
}

// typeName reads the object's type, falling back to its id.
func (o *Object) typeName(ctx context.Context) string {
	if o.has(PropertyType) {
		if v, err := o.Get(ctx, PropertyType); err == nil {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return o.id.String()
}

// stringList converts a decoded cell array of strings. A lone string is
// accepted as a one-element list.
func stringList(v any) ([]string, error) {
	switch x := v.(type) {
	case string:
		return []string{x}, nil
	case []any:
		out := make([]string, len(x))
		for i, e := range x {
			s, ok := e.(string)
			if !ok {
				return nil, fmt.Errorf("element %d is %T, not a string", i+1, e)
			}
			out[i] = s
		}
		return out, nil
	case *transcoder.Array:
		if x.Len() == 0 {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected a cell array of strings, got %T", v)
}
