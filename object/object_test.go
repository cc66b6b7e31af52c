package object_test

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wippyai/interop-runtime/errors"
	"github.com/wippyai/interop-runtime/interoptest"
	"github.com/wippyai/interop-runtime/object"
	"github.com/wippyai/interop-runtime/session"
	"github.com/wippyai/interop-runtime/transcoder"
)

func openSession(t *testing.T, setup string) *session.Session {
	t.Helper()
	s, err := session.Open(context.Background(), interoptest.New(), "fdtd", session.Options{})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	if setup != "" {
		if err := s.Eval(context.Background(), setup); err != nil {
			t.Fatalf("setup: %v", err)
		}
	}
	return s
}

func lookup(t *testing.T, s *session.Session, id string) *object.Object {
	t.Helper()
	o, err := s.ObjectByID(context.Background(), id)
	if err != nil {
		t.Fatalf("ObjectByID(%q): %v", id, err)
	}
	return o
}

func checkErr(t *testing.T, err error, kind errors.Kind, contains string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", kind)
	}
	if !errors.IsKind(err, kind) {
		t.Errorf("kind: want %s, got %v", kind, err)
	}
	if !strings.Contains(err.Error(), contains) {
		t.Errorf("error %q does not contain %q", err.Error(), contains)
	}
}

func TestParseID(t *testing.T) {
	tests := []struct {
		in   string
		want object.ID
		str  string
	}{
		{"::model::rectangle", object.ID{Name: "::model::rectangle"}, "::model::rectangle"},
		{"::model::rectangle#2", object.ID{Name: "::model::rectangle", Index: 2}, "::model::rectangle#2"},
		{"rect#1", object.ID{Name: "rect", Index: 1}, "rect#1"},
		{"a#b", object.ID{Name: "a#b"}, "a#b"},
		{"a#0", object.ID{Name: "a#0"}, "a#0"},
		{"a#+3", object.ID{Name: "a#+3"}, "a#+3"},
		{"a#2#3", object.ID{Name: "a#2", Index: 3}, "a#2#3"},
		{"", object.ID{}, ""},
	}
	for _, tt := range tests {
		got := object.ParseID(tt.in)
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("ParseID(%q) (-want +got):\n%s", tt.in, diff)
		}
		if got.String() != tt.str {
			t.Errorf("ParseID(%q).String() = %q", tt.in, got.String())
		}
	}
	if base := object.ParseID("::model::group::rect#2").Base(); base != "rect" {
		t.Errorf("Base = %q", base)
	}
}

func TestObject_GetSetByName(t *testing.T) {
	s := openSession(t, "addrect;")
	ctx := context.Background()
	o := lookup(t, s, "::model::rectangle")

	if err := o.Set(ctx, "index", 2.5); err != nil {
		t.Fatal(err)
	}
	got, err := o.Get(ctx, "index")
	if err != nil {
		t.Fatal(err)
	}
	if got != 2.5 {
		t.Errorf("index = %v", got)
	}

	if err := o.SetAttr(ctx, "y_span", 3e-6); err != nil {
		t.Fatal(err)
	}
	got, err = o.Get(ctx, "y span")
	if err != nil {
		t.Fatal(err)
	}
	if got != 3e-6 {
		t.Errorf("y span = %v", got)
	}

	_, err = o.Get(ctx, "nosuch")
	checkErr(t, err, errors.KindNotFound, "the requested property 'nosuch' was not found")
	err = o.Set(ctx, "material", 1.0)
	checkErr(t, err, errors.KindTypeMismatch, "wrong type for property 'material'")
}

func TestObject_ParentAndChildren(t *testing.T) {
	s := openSession(t, `
addstructuregroup;
set("name", "group1");
addrect;
set("name", "rect1");
addtogroup("group1");
`)
	ctx := context.Background()

	rect := lookup(t, s, "::model::group1::rect1")
	parent, err := rect.Parent(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got := parent.ID().String(); got != "::model::group1" {
		t.Errorf("parent = %q", got)
	}
	name, err := parent.Get(ctx, "name")
	if err != nil {
		t.Fatal(err)
	}
	if name != "group1" {
		t.Errorf("parent name = %v", name)
	}

	root, err := parent.Parent(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if name, _ := root.Get(ctx, "name"); name != "model" {
		t.Errorf("root name = %v", name)
	}
	_, err = root.Parent(ctx)
	checkErr(t, err, errors.KindNotFound, "has no parent")

	kids, err := parent.Children(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(kids) != 1 {
		t.Fatalf("children = %d", len(kids))
	}
	if name, _ := kids[0].Get(ctx, "name"); name != "rect1" {
		t.Errorf("child name = %v", name)
	}

	leaf, err := rect.Children(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(leaf) != 0 {
		t.Errorf("rectangle has children: %v", leaf)
	}
}

func TestCompound(t *testing.T) {
	s := openSession(t, `
addrect;
addproperty("::model::rectangle", "C 1.details", "User", "String");
addproperty("::model::rectangle", "C 1.count", "User", "Number");
addproperty("::model::rectangle", "C 1.inner.depth", "User", "Number");
`)
	ctx := context.Background()
	o := lookup(t, s, "::model::rectangle")

	v, err := o.Attr(ctx, "C_1")
	if err != nil {
		t.Fatal(err)
	}
	c, ok := v.(*object.Compound)
	if !ok {
		t.Fatalf("C_1 is %T, want *object.Compound", v)
	}
	if c.Name() != "C 1" {
		t.Errorf("compound name = %q", c.Name())
	}

	if err := c.Set(ctx, "details", "hello"); err != nil {
		t.Fatal(err)
	}
	got, err := c.Get(ctx, "details")
	if err != nil {
		t.Fatal(err)
	}
	if got != "hello" {
		t.Errorf("details = %v", got)
	}
	direct, err := o.Get(ctx, "C 1.details")
	if err != nil {
		t.Fatal(err)
	}
	if direct != "hello" {
		t.Errorf("C 1.details = %v", direct)
	}

	if err := c.SetAttr(ctx, "count", 3.0); err != nil {
		t.Fatal(err)
	}
	if got, _ := c.Attr(ctx, "count"); got != 3.0 {
		t.Errorf("count = %v", got)
	}

	inner, err := c.Get(ctx, "inner")
	if err != nil {
		t.Fatal(err)
	}
	deep, ok := inner.(*object.Compound)
	if !ok || deep.Name() != "C 1.inner" {
		t.Fatalf("inner = %#v", inner)
	}
	if err := deep.Set(ctx, "depth", 7.0); err != nil {
		t.Fatal(err)
	}

	names, err := c.Names(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"details", "count", "inner"}, names); diff != "" {
		t.Errorf("names (-want +got):\n%s", diff)
	}

	_, err = c.Get(ctx, "xx")
	checkErr(t, err, errors.KindNotFound, "'C 1' property has no 'xx' sub-property")
	err = c.Set(ctx, "xx", 1.0)
	checkErr(t, err, errors.KindNotFound, "'C 1' property has no 'xx' sub-property")
}

func TestResults(t *testing.T) {
	s := openSession(t, "addfdtd;")
	ctx := context.Background()
	r := lookup(t, s, "::model::FDTD").Results()

	names, err := r.Names(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"x", "y", "z", "status"}, names); diff != "" {
		t.Errorf("names (-want +got):\n%s", diff)
	}

	x, err := r.Get(ctx, "x")
	if err != nil {
		t.Fatal(err)
	}
	arr, ok := x.(*transcoder.Array)
	if !ok {
		t.Fatalf("x is %T", x)
	}
	if diff := cmp.Diff([]int{5, 1}, arr.Shape); diff != "" {
		t.Errorf("shape (-want +got):\n%s", diff)
	}
	first, err := arr.At(0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if first != complex(-1e-6, 0) {
		t.Errorf("x[0] = %v", first)
	}

	status, err := r.Get(ctx, "status")
	if err != nil {
		t.Fatal(err)
	}
	if status != 0.0 {
		t.Errorf("status = %v", status)
	}

	_, err = r.Get(ctx, "xx")
	checkErr(t, err, errors.KindNoAttribute, "'Results' object of 'FDTD' has no attribute 'xx'")

	err = r.Set(ctx, "y", 1.0)
	checkErr(t, err, errors.KindReadOnly, "Attribute 'y' can not be set")
}

func TestProxyCannotBeSent(t *testing.T) {
	s := openSession(t, "addrect;")
	ctx := context.Background()
	o := lookup(t, s, "::model::rectangle")

	err := s.PutVar(ctx, "obj", o)
	checkErr(t, err, errors.KindTypeMismatch, "object proxies cannot be sent as values")
	err = s.PutVar(ctx, "res", o.Results())
	checkErr(t, err, errors.KindTypeMismatch, "'results' object")
}

func TestStaleProxy(t *testing.T) {
	s := openSession(t, `
addrect;
addproperty("::model::rectangle", "C 1.details", "User", "String");
`)
	ctx := context.Background()
	o := lookup(t, s, "::model::rectangle")
	v, err := o.Get(ctx, "C 1")
	if err != nil {
		t.Fatal(err)
	}
	c := v.(*object.Compound)

	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	ops := map[string]func() error{
		"Get":                  func() error { _, err := o.Get(ctx, "x"); return err },
		"Get group":            func() error { _, err := o.Get(ctx, "C 1"); return err },
		"Names":                func() error { _, err := o.Names(ctx); return err },
		"Children":             func() error { _, err := o.Children(ctx); return err },
		"compound Get":         func() error { _, err := c.Get(ctx, "details"); return err },
		"compound Names":       func() error { _, err := c.Names(ctx); return err },
		"compound Get missing": func() error { _, err := c.Get(ctx, "nosuch"); return err },
		"compound Set":         func() error { return c.Set(ctx, "details", "d") },
		"compound Set missing": func() error { return c.Set(ctx, "nosuch", "d") },
		"results Get":          func() error { _, err := o.Results().Get(ctx, "x"); return err },
		"results Set":          func() error { return o.Results().Set(ctx, "x", 1.0) },
	}
	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			checkErr(t, op(), errors.KindConnection, "Error validating the connection")
		})
	}
}
