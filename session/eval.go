package session

import (
	"context"
	"strings"

	"go.uber.org/zap"

	interop "github.com/wippyai/interop-runtime"
	"github.com/wippyai/interop-runtime/errors"
	"github.com/wippyai/interop-runtime/transcoder"
	"github.com/wippyai/interop-runtime/value"
)

// Eval runs code in the application's interpreter.
func (s *Session) Eval(ctx context.Context, code string) error {
	unlock, err := s.enter(ctx, errors.PhaseEval)
	if err != nil {
		return err
	}
	defer unlock()
	return s.eval(code)
}

// eval must be called inside enter.
func (s *Session) eval(code string) error {
	if err := s.backend.EvalScript(s.handle, code); err != nil {
		diag := RemovePromptLineNo(interop.DiagnosticOf(err))
		s.logger.Debug("evaluation failed", zap.String("diagnostic", diag))
		return errors.Evaluation("Failed to evaluate code", diag)
	}
	return nil
}

// RemovePromptLineNo drops the interpreter's "prompt line N" position from
// a diagnostic: "Error: prompt line 3: bad" becomes "Error: bad". Only a
// segment between the first two colons that mentions "prompt line" is
// removed.
func RemovePromptLineNo(msg string) string {
	first := strings.IndexByte(msg, ':')
	if first < 0 || first+1 >= len(msg)-1 {
		return msg
	}
	rel := strings.IndexByte(msg[first+1:len(msg)-1], ':')
	if rel < 0 {
		return msg
	}
	second := first + 1 + rel
	if !strings.Contains(msg[first:second], "prompt line") {
		return msg
	}
	return msg[:first] + msg[second:]
}

// GetValue reads a workspace variable as a tagged value.
func (s *Session) GetValue(ctx context.Context, name string) (value.Value, error) {
	unlock, err := s.enter(ctx, errors.PhaseLookup)
	if err != nil {
		return nil, err
	}
	defer unlock()
	return s.getValue(name)
}

func (s *Session) getValue(name string) (value.Value, error) {
	v, err := s.backend.GetVar(s.handle, name)
	if err != nil {
		return nil, errors.New(errors.PhaseLookup, errors.KindNotFound).
			Value(name).
			Detail("Failed to get variable '%s': %s", name, RemovePromptLineNo(interop.DiagnosticOf(err))).
			Build()
	}
	return v, nil
}

// GetVar reads a workspace variable and decodes it, see transcoder.Decode.
func (s *Session) GetVar(ctx context.Context, name string) (any, error) {
	v, err := s.GetValue(ctx, name)
	if err != nil {
		return nil, err
	}
	return transcoder.Decode(v)
}

// GetVarInto reads a workspace variable into target, see
// transcoder.DecodeInto.
func (s *Session) GetVarInto(ctx context.Context, name string, target any) error {
	v, err := s.GetValue(ctx, name)
	if err != nil {
		return err
	}
	return transcoder.DecodeInto(v, target)
}

// PutVar encodes v and stores it as a workspace variable. Encoding errors
// are returned unchanged and nothing is sent.
func (s *Session) PutVar(ctx context.Context, name string, v any) error {
	unlock, err := s.enter(ctx, errors.PhaseEval)
	if err != nil {
		return err
	}
	defer unlock()

	enc, err := s.enc.Encode(v)
	if err != nil {
		return err
	}
	return s.putValue(name, enc)
}

func (s *Session) putValue(name string, v value.Value) error {
	if err := s.backend.PutVar(s.handle, name, v); err != nil {
		return errors.Evaluation("Failed to put variable '"+name+"'", RemovePromptLineNo(interop.DiagnosticOf(err)))
	}
	return nil
}
