package object

import (
	"context"
	"strings"

	"github.com/wippyai/interop-runtime/errors"
)

// Compound is one level of a compound property such as "C 1" in
// "C 1.details". It resolves sub-properties against the owning object's
// property list and chains for deeper levels.
type Compound struct {
	obj    *Object
	prefix string
}

// Name returns the canonical property prefix this level stands for.
func (c *Compound) Name() string { return c.prefix }

// ProxyType implements transcoder.Proxy.
func (c *Compound) ProxyType() string { return "compound property" }

func (c *Compound) full(sub string) string {
	return c.prefix + Separator + sub
}

func (c *Compound) missing(sub string) error {
	return errors.New(errors.PhaseProperty, errors.KindNotFound).
		Value(sub).
		Detail("'%s' property has no '%s' sub-property", c.prefix, sub).
		Build()
}

// Get reads sub by its canonical name.
func (c *Compound) Get(ctx context.Context, sub string) (any, error) {
	if err := c.obj.caller.Check(); err != nil {
		return nil, err
	}
	full := c.full(sub)
	switch {
	case c.obj.has(full):
		return c.obj.Get(ctx, full)
	case c.obj.isGroup(full):
		return &Compound{obj: c.obj, prefix: full}, nil
	}
	return nil, c.missing(sub)
}

// Set writes sub by its canonical name.
func (c *Compound) Set(ctx context.Context, sub string, v any) error {
	if err := c.obj.caller.Check(); err != nil {
		return err
	}
	full := c.full(sub)
	if !c.obj.has(full) {
		return c.missing(sub)
	}
	return c.obj.Set(ctx, full, v)
}

func (c *Compound) canonical(attr string) string {
	full := c.full(attr)
	if c.obj.has(full) || c.obj.isGroup(full) {
		return attr
	}
	return strings.ReplaceAll(attr, "_", " ")
}

// Attr reads sub by attribute-style name.
func (c *Compound) Attr(ctx context.Context, attr string) (any, error) {
	return c.Get(ctx, c.canonical(attr))
}

// SetAttr writes sub by attribute-style name.
func (c *Compound) SetAttr(ctx context.Context, attr string, v any) error {
	return c.Set(ctx, c.canonical(attr), v)
}

// Names lists the sub-property names directly below this level.
func (c *Compound) Names(context.Context) ([]string, error) {
	if err := c.obj.caller.Check(); err != nil {
		return nil, err
	}
	prefix := c.prefix + Separator
	seen := make(map[string]struct{})
	var out []string
	for _, n := range c.obj.names {
		rest, ok := strings.CutPrefix(n, prefix)
		if !ok {
			continue
		}
		head, _, _ := strings.Cut(rest, Separator)
		if _, dup := seen[head]; dup {
			continue
		}
		seen[head] = struct{}{}
		out = append(out, head)
	}
	return out, nil
}
