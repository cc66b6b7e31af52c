package session

import (
	"context"
	"fmt"

	"github.com/wippyai/interop-runtime/dataset"
	"github.com/wippyai/interop-runtime/errors"
	"github.com/wippyai/interop-runtime/object"
)

var _ object.Caller = (*Session)(nil)

// ObjectByID resolves a scene object by path. When several objects share
// the path, a "#n" suffix picks the nth in discovery order; without one the
// first is used and a warning is issued.
func (s *Session) ObjectByID(ctx context.Context, id string) (*object.Object, error) {
	oid := object.ParseID(id)

	v, err := s.Call(ctx, object.FnNamedNumber, oid.Name)
	if err != nil {
		return nil, err
	}
	n, ok := v.(float64)
	if !ok {
		return nil, errors.InvalidData(errors.PhaseLookup, []string{object.FnNamedNumber},
			fmt.Sprintf("expected a count, got %T", v))
	}

	switch {
	case n == 0:
		return nil, errors.New(errors.PhaseLookup, errors.KindNotFound).
			Value(oid.Name).
			Detail("Object %s not found", oid.Name).
			Build()
	case float64(oid.Index) > n:
		return nil, errors.New(errors.PhaseLookup, errors.KindNotFound).
			Value(oid.String()).
			Detail("Object %s not found", oid).
			Build()
	case n > 1 && oid.Index == 0:
		s.warn("ObjectByID", fmt.Sprintf("Multiple objects named '%s'. Use of this object may give unexpected results.", oid.Name))
	}
	return object.New(ctx, s, oid)
}

// ObjectBySelection returns the first currently selected object. The
// selection belongs to the application: another call may change it at
// any time.
func (s *Session) ObjectBySelection(ctx context.Context) (*object.Object, error) {
	ids, err := s.selectedIDs(ctx)
	if err != nil {
		return nil, err
	}
	return object.New(ctx, s, object.ParseID(ids[0]))
}

// AllSelectedObjects returns every currently selected object.
func (s *Session) AllSelectedObjects(ctx context.Context) ([]*object.Object, error) {
	ids, err := s.selectedIDs(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*object.Object, 0, len(ids))
	for _, id := range ids {
		o, err := object.New(ctx, s, object.ParseID(id))
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

func (s *Session) selectedIDs(ctx context.Context) ([]string, error) {
	v, err := s.Call(ctx, object.FnSelectedIDs)
	if err != nil {
		return nil, err
	}
	var ids []string
	switch x := v.(type) {
	case string:
		ids = []string{x}
	case []any:
		for _, e := range x {
			id, ok := e.(string)
			if !ok {
				return nil, errors.InvalidData(errors.PhaseLookup, []string{object.FnSelectedIDs},
					fmt.Sprintf("expected string ids, got %T", e))
			}
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, errors.NotFound(errors.PhaseLookup, "in getid, no items are currently selected")
	}
	return ids, nil
}

// GetDataset reads a workspace variable holding a dataset.
func (s *Session) GetDataset(ctx context.Context, name string) (*dataset.Dataset, error) {
	v, err := s.GetValue(ctx, name)
	if err != nil {
		return nil, err
	}
	return dataset.Decode(v)
}
