package object

import (
	"context"
	"slices"

	"github.com/wippyai/interop-runtime/errors"
)

// Results is the read-only view of an object's computed outputs. Names are
// re-queried on every access since a run can add results at any time.
type Results struct {
	obj *Object
}

// ProxyType implements transcoder.Proxy.
func (r *Results) ProxyType() string { return "results" }

// Object returns the object the results belong to.
func (r *Results) Object() *Object { return r.obj }

// Names lists the results the object currently has.
func (r *Results) Names(ctx context.Context) ([]string, error) {
	v, err := r.obj.caller.Call(ctx, FnResultList, r.obj.id.Name, r.obj.id.index())
	if err != nil {
		return nil, err
	}
	names, err := stringList(v)
	if err != nil {
		return nil, errors.New(errors.PhaseLookup, errors.KindInvalidData).
			Cause(err).
			Detail("result list of %s", r.obj.id).
			Build()
	}
	return names, nil
}

// Get reads a result. Names the object does not have fail with
// KindNoAttribute.
func (r *Results) Get(ctx context.Context, name string) (any, error) {
	names, err := r.Names(ctx)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(names, name) {
		return nil, errors.New(errors.PhaseProperty, errors.KindNoAttribute).
			Value(name).
			Detail("'Results' object of '%s' has no attribute '%s'", r.obj.typeName(ctx), name).
			Build()
	}
	return r.obj.caller.Call(ctx, FnGetResult, r.obj.id.Name, name, r.obj.id.index())
}

// Set fails on a live session with KindReadOnly: results are produced by
// the application.
func (r *Results) Set(_ context.Context, name string, _ any) error {
	if err := r.obj.caller.Check(); err != nil {
		return err
	}
	return errors.New(errors.PhaseProperty, errors.KindReadOnly).
		Value(name).
		Detail("Attribute '%s' can not be set", name).
		Build()
}
