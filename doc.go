// Package interop drives an external simulation application through its
// native interop library.
//
// The application exchanges tagged values (doubles, strings, N-D matrices,
// structs, cell arrays, name/value pairs) across a C ABI. This module
// converts Go values to and from that representation and exposes the
// application's scene graph as proxies.
//
// # Architecture Overview
//
//	interop/             Backend interface, Handle, Product
//	├── value/           Tagged value sum type (the wire form)
//	├── transcoder/      Go value <-> tagged value conversion
//	├── dataset/         Matrix, rectilinear and unstructured datasets
//	├── session/         Session lifecycle, eval, variables, app calls
//	├── object/          Scene object and results proxies
//	├── native/          purego binding to the vendor library
//	├── config/          Install paths, library names, YAML profiles
//	├── resource/        Live native handle table
//	├── errors/          Structured error types
//	├── interoptest/     In-memory application for tests
//	└── cmd/interop/     Command line and interactive shell
//
// # Quick Start
//
//	sess, err := session.OpenNative(ctx, "fdtd", session.Options{Hide: true})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer sess.Close()
//
//	if err := sess.Eval(ctx, `addrect; set("name", "rectangle");`); err != nil {
//	    log.Fatal(err)
//	}
//
//	rect, err := sess.ObjectByID(ctx, "::model::rectangle")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := rect.Set(ctx, "x span", 10.1e-6); err != nil {
//	    log.Fatal(err)
//	}
//
// # Values
//
// Property and variable values are converted by the transcoder package.
// Numeric slices become matrices, ordered maps and tagged structs become
// structs, other slices become cell arrays. nil is sent as the string
// "None"; the application has no null.
//
// # Thread Safety
//
// A Session serializes its own calls, but the application is a single
// process-wide interpreter. Selection state in particular belongs to the
// application: ObjectBySelection returns whatever is selected at the moment
// of the call.
package interop
