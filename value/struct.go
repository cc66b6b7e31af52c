package value

import (
	"fmt"

	"github.com/wippyai/interop-runtime/errors"
)

// Struct is an ordered set of named members. Order is significant: the
// application applies members in sequence.
type Struct struct {
	Fields []Pair
}

// NewStruct builds a struct, rejecting duplicate names.
func NewStruct(fields ...Pair) (*Struct, error) {
	s := &Struct{Fields: make([]Pair, 0, len(fields))}
	for _, f := range fields {
		if err := s.Add(f.Name, f.Value); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Add appends a member.
func (s *Struct) Add(name string, v Value) error {
	if s.index(name) >= 0 {
		return errors.InvalidInput(errors.PhaseEncode, fmt.Sprintf("duplicate struct member %q", name))
	}
	s.Fields = append(s.Fields, Pair{Name: name, Value: v})
	return nil
}

// Get returns the member value by name.
func (s *Struct) Get(name string) (Value, bool) {
	i := s.index(name)
	if i < 0 {
		return nil, false
	}
	return s.Fields[i].Value, true
}

// Names returns member names in order.
func (s *Struct) Names() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// Len returns the number of members.
func (s *Struct) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Fields)
}

func (s *Struct) index(name string) int {
	for i, f := range s.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}
