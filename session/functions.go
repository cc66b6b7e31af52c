package session

import (
	"context"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/wippyai/interop-runtime/errors"
	"github.com/wippyai/interop-runtime/value"
)

// functionsHeader opens the user function section of the application's
// workspace listing. Names follow one per line until the next header.
const functionsHeader = "Functions:"

// UserFunctions returns the user-defined script functions the session
// tracks, sorted. Eval does not update the set; AddUserFunctions and
// SyncUserFunctions do.
func (s *Session) UserFunctions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.userFuncs))
	for n := range s.userFuncs {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// AddUserFunctions adds every function the application currently defines
// to the tracked set.
func (s *Session) AddUserFunctions(ctx context.Context) error {
	return s.trackUserFunctions(ctx, false)
}

// SyncUserFunctions replaces the tracked set with the functions the
// application currently defines.
func (s *Session) SyncUserFunctions(ctx context.Context) error {
	return s.trackUserFunctions(ctx, true)
}

func (s *Session) trackUserFunctions(ctx context.Context, replace bool) error {
	unlock, err := s.enter(ctx, errors.PhaseLookup)
	if err != nil {
		return err
	}
	defer unlock()

	names, err := s.listUserFunctions()
	if err != nil {
		return err
	}
	if replace || s.userFuncs == nil {
		s.userFuncs = make(map[string]struct{}, len(names))
	}
	for _, n := range names {
		s.userFuncs[n] = struct{}{}
	}
	s.logger.Debug("user functions tracked", zap.Strings("functions", names), zap.Bool("replace", replace))
	return nil
}

// DeleteUserFunctions removes the tracked functions from the application
// and empties the tracked set. Functions defined since the last add or
// sync are left alone.
func (s *Session) DeleteUserFunctions(ctx context.Context) error {
	unlock, err := s.enter(ctx, errors.PhaseEval)
	if err != nil {
		return err
	}
	defer unlock()

	if len(s.userFuncs) == 0 {
		return nil
	}
	names := make([]string, 0, len(s.userFuncs))
	for n := range s.userFuncs {
		names = append(names, n)
	}
	slices.Sort(names)
	if err := s.eval("clearfunctions(" + strings.Join(names, ", ") + ");"); err != nil {
		return err
	}
	s.userFuncs = nil
	s.logger.Debug("user functions deleted", zap.Strings("functions", names))
	return nil
}

// listUserFunctions must be called inside enter.
func (s *Session) listUserFunctions() ([]string, error) {
	tmp := tempName()
	defer s.clear([]string{tmp})
	if err := s.eval(tmp + " = workspace;"); err != nil {
		return nil, err
	}
	v, err := s.getValue(tmp)
	if err != nil {
		return nil, err
	}
	text, ok := v.(value.String)
	if !ok {
		return nil, errors.New(errors.PhaseLookup, errors.KindInvalidData).
			WireType(value.KindOf(v).String()).
			Detail("workspace listing is not a string").
			Build()
	}
	return parseFunctionList(string(text)), nil
}

// parseFunctionList extracts the names in the functions section of a
// workspace listing.
func parseFunctionList(text string) []string {
	var names []string
	in := false
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == "":
		case strings.HasSuffix(line, ":"):
			in = strings.EqualFold(line, functionsHeader)
		case in:
			names = append(names, line)
		}
	}
	return names
}
