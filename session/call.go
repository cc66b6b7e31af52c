package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wippyai/interop-runtime/errors"
	"github.com/wippyai/interop-runtime/object"
	"github.com/wippyai/interop-runtime/transcoder"
	"github.com/wippyai/interop-runtime/value"
)

// callTemplate wraps one application function call so that its failure is
// captured instead of aborting the script. The result cell holds
// {value, status, message}; status 0 means success.
const callTemplate = `%[1]s = cell(3);
%[1]s{2} = 1;
try{
%[1]s{1} = %[2]s(%[3]s);
%[1]s{2} = 0;
} catch(%[4]s);
%[1]s{3} = %[4]s;
`

// OrderedPropertiesWarning is issued when construction properties come
// from a Go map, whose key order carries no meaning.
const OrderedPropertiesWarning = "It is recommended to use an ordered map for properties, as regular map elements can be re-ordered"

// tempName returns a workspace variable name no script will collide with.
func tempName() string {
	return "interop_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Call invokes application function fn with args and decodes the result.
// Arguments travel through a temporary cell array variable, so any
// encodable value may be passed. Application failures are classified by
// kind and keep the application's message.
func (s *Session) Call(ctx context.Context, fn string, args ...any) (any, error) {
	v, err := s.CallValue(ctx, fn, args...)
	if err != nil {
		return nil, err
	}
	return transcoder.Decode(v)
}

// CallValue is Call without decoding.
func (s *Session) CallValue(ctx context.Context, fn string, args ...any) (value.Value, error) {
	unlock, err := s.enter(ctx, errors.PhaseEval)
	if err != nil {
		return nil, err
	}
	defer unlock()

	list := make(value.List, len(args))
	for i, a := range args {
		v, err := s.enc.Encode(a)
		if err != nil {
			return nil, err
		}
		list[i] = v
	}

	base := tempName()
	in, out, msg := base+"_in", base+"_out", base+"_msg"
	temps := []string{out, msg}

	refs := make([]string, len(args))
	for i := range args {
		refs[i] = fmt.Sprintf("%s{%d}", in, i+1)
	}
	if len(args) > 0 {
		if err := s.putValue(in, list); err != nil {
			return nil, err
		}
		temps = append(temps, in)
	}
	defer s.clear(temps)

	if err := s.eval(fmt.Sprintf(callTemplate, out, fn, strings.Join(refs, ", "), msg)); err != nil {
		return nil, err
	}
	res, err := s.getValue(out)
	if err != nil {
		return nil, err
	}
	return unpackResult(fn, res)
}

// clear removes temporaries. Failures are logged, not returned.
func (s *Session) clear(names []string) {
	if err := s.backend.EvalScript(s.handle, "clear("+strings.Join(names, ", ")+");"); err != nil {
		s.logger.Debug("clear temporaries failed", zap.Strings("vars", names), zap.Error(err))
	}
}

func unpackResult(fn string, res value.Value) (value.Value, error) {
	cell, ok := res.(value.List)
	if !ok || len(cell) != 3 {
		return nil, errors.New(errors.PhaseDecode, errors.KindInvalidData).
			WireType(value.KindOf(res).String()).
			Detail("result of '%s' is not a 3-element cell array", fn).
			Build()
	}
	status, ok := cell[1].(value.Double)
	if !ok {
		return nil, errors.InvalidData(errors.PhaseDecode, []string{fn}, "call status is not a number")
	}
	if status != 0 {
		msg, _ := cell[2].(value.String)
		return nil, classify(fn, string(msg))
	}
	return cell[0], nil
}

// classify maps an application message to an error kind. The message is
// kept verbatim as the detail.
func classify(fn, msg string) error {
	lower := strings.ToLower(msg)
	kind := errors.KindEvaluation
	switch {
	case strings.Contains(lower, "cannot be created"):
	case strings.Contains(lower, "inactive"):
		kind = errors.KindDisabled
	case strings.Contains(lower, "wrong type"), strings.Contains(lower, "type mismatch"):
		kind = errors.KindTypeMismatch
	case strings.Contains(lower, "not found"),
		strings.Contains(lower, "no items are currently selected"),
		strings.Contains(lower, "nothing named"),
		strings.Contains(lower, "has no parent"):
		kind = errors.KindNotFound
	}
	return errors.New(errors.PhaseEval, kind).
		Value(fn).
		Detail("%s", msg).
		Build()
}

// CallWithConstructor calls a constructor function such as addrect, then
// applies props to the new object one at a time with set, in order. The
// first failing property aborts the rest. props may be a
// *transcoder.OrderedMap, a Go struct, a map with string keys (warned
// about, applied in sorted key order) or nil. The new object, taken from
// the selection the constructor leaves behind, is returned.
func (s *Session) CallWithConstructor(ctx context.Context, fn string, args []any, props any) (*object.Object, error) {
	if _, err := s.Call(ctx, fn, args...); err != nil {
		return nil, err
	}

	fields, ordered, err := transcoder.Fields(props)
	if err != nil {
		return nil, err
	}
	if !ordered {
		s.warn(fn, OrderedPropertiesWarning)
	}

	for _, f := range fields {
		_, err := s.Call(ctx, object.FnSet, f.Name, f.Value)
		switch {
		case err == nil:
			continue
		case errors.IsKind(err, errors.KindDisabled):
			return nil, errors.New(errors.PhaseProperty, errors.KindDisabled).
				Value(f.Name).
				Cause(err).
				Detail("in '%s', '%s' property is inactive", fn, f.Name).
				Build()
		case errors.IsKind(err, errors.KindNotFound):
			return nil, errors.New(errors.PhaseProperty, errors.KindNotFound).
				Value(f.Name).
				Cause(err).
				Detail("Type added by '%s' doesn't have '%s' property", fn, f.Name).
				Build()
		default:
			return nil, err
		}
	}
	return s.ObjectBySelection(ctx)
}
