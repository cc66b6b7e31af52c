package object

import (
	"strconv"
	"strings"
)

// ID addresses one object in the application's scene graph.
type ID struct {
	// Name is a scope-qualified path such as "::model::rectangle", or a
	// bare object name.
	Name string
	// Index picks among objects sharing Name, 1-based in discovery order.
	// Zero means unsuffixed and resolves to the first.
	Index int
}

// ParseID splits an optional "#n" suffix from s. A suffix that is not a
// positive integer is part of the name.
func ParseID(s string) ID {
	i := strings.LastIndexByte(s, '#')
	if i < 0 {
		return ID{Name: s}
	}
	n, err := strconv.Atoi(s[i+1:])
	if err != nil || n < 1 || strings.ContainsAny(s[i+1:], "+-") {
		return ID{Name: s}
	}
	return ID{Name: s[:i], Index: n}
}

// String renders the ID in the form ParseID accepts.
func (id ID) String() string {
	if id.Index == 0 {
		return id.Name
	}
	return id.Name + "#" + strconv.Itoa(id.Index)
}

// Base returns the last path element, e.g. "rectangle" for
// "::model::rectangle".
func (id ID) Base() string {
	if i := strings.LastIndex(id.Name, "::"); i >= 0 {
		return id.Name[i+2:]
	}
	return id.Name
}

func (id ID) index() float64 {
	if id.Index == 0 {
		return 1
	}
	return float64(id.Index)
}
