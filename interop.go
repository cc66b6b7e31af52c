package interop

import (
	"strings"

	"github.com/wippyai/interop-runtime/errors"
	"github.com/wippyai/interop-runtime/value"
)

// Handle is the native library's opaque session reference. Zero means the
// open failed.
type Handle uintptr

// Key is the two-word license key passed to appOpen.
type Key [2]uint64

// Backend is the boundary to one application library. The native package
// implements it with purego; interoptest implements it in memory.
//
// Implementations need not be safe for concurrent use. Sessions serialize
// calls per handle.
type Backend interface {
	// Open starts or attaches to an application instance.
	Open(url string, key Key) (Handle, error)
	// Close terminates the instance behind h.
	Close(h Handle) error
	// Opened reports whether h still refers to a running instance.
	Opened(h Handle) bool
	// EvalScript runs code in the application's interpreter. The error
	// text is the interpreter's own diagnostic.
	EvalScript(h Handle, code string) error
	// GetVar reads a workspace variable.
	GetVar(h Handle, name string) (value.Value, error)
	// PutVar writes a workspace variable.
	PutVar(h Handle, name string, v value.Value) error
}

// Product identifies one application in the suite.
type Product string

const (
	ProductFDTD         Product = "fdtd"
	ProductMode         Product = "mode"
	ProductDevice       Product = "device"
	ProductInterconnect Product = "interconnect"
)

// Products lists every supported product in display order.
var Products = []Product{ProductFDTD, ProductMode, ProductDevice, ProductInterconnect}

// ParseProduct accepts a product name in any letter case.
func ParseProduct(name string) (Product, error) {
	p := Product(strings.ToLower(strings.TrimSpace(name)))
	if p.Valid() {
		return p, nil
	}
	return "", errors.New(errors.PhaseOpen, errors.KindConnection).
		Value(name).
		Detail("Invalid product name '%s': product is not available (expected one of %s)", name, productList()).
		Build()
}

// Valid reports whether p is a supported product.
func (p Product) Valid() bool {
	switch p {
	case ProductFDTD, ProductMode, ProductDevice, ProductInterconnect:
		return true
	}
	return false
}

// Scheme returns the URL scheme appOpen expects for p.
func (p Product) Scheme() string {
	if p == ProductInterconnect {
		return "icc"
	}
	return string(p)
}

func productList() string {
	names := make([]string, len(Products))
	for i, p := range Products {
		names[i] = string(p)
	}
	return strings.Join(names, ", ")
}

// Diagnostic is an error whose text is the application's own message,
// unmodified. Backends return it so sessions can quote it verbatim.
type Diagnostic string

func (d Diagnostic) Error() string { return string(d) }

// DiagnosticOf returns the application's message carried by err, or
// err.Error() if err carries none.
func DiagnosticOf(err error) string {
	for e := err; e != nil; {
		if d, ok := e.(Diagnostic); ok {
			return string(d)
		}
		u, ok := e.(interface{ Unwrap() error })
		if !ok {
			break
		}
		e = u.Unwrap()
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
