package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wippyai/interop-runtime/interoptest"
	"github.com/wippyai/interop-runtime/session"
	"github.com/wippyai/interop-runtime/transcoder"
)

func TestParseValue(t *testing.T) {
	tests := []struct {
		src  string
		want any
	}{
		{"3.5", 3.5},
		{"42", 42.0},
		{"hello", "hello"},
		{"~", nil},
		{"true", true},
		{"[1, 2, 3]", []float64{1, 2, 3}},
		{"[[1, 2], [3, 4]]", [][]float64{{1, 2}, {3, 4}}},
		{"[[1, 2], [3]]", []any{[]float64{1, 2}, []float64{3}}},
		{"[1, a]", []any{1.0, "a"}},
	}
	for _, tt := range tests {
		got, err := parseValue(tt.src)
		if err != nil {
			t.Errorf("parseValue(%q): %v", tt.src, err)
			continue
		}
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("parseValue(%q) (-want +got):\n%s", tt.src, diff)
		}
	}
}

func TestParseValue_MappingOrder(t *testing.T) {
	got, err := parseValue("name: monitor\nx: 1\nmonitor type: linear x\n")
	if err != nil {
		t.Fatal(err)
	}
	m, ok := got.(*transcoder.OrderedMap)
	if !ok {
		t.Fatalf("got %T", got)
	}
	if diff := cmp.Diff([]string{"name", "x", "monitor type"}, m.Keys()); diff != "" {
		t.Errorf("keys (-want +got):\n%s", diff)
	}
}

func TestRenderValue(t *testing.T) {
	arr := transcoder.NewArray(2, 2)
	copy(arr.Data, []float64{1, 2, 3, 4})

	tests := []struct {
		name string
		v    any
		want string
	}{
		{"scalar", 1.5, "1.5\n"},
		{"string", "abc", "abc\n"},
		{"vector", &transcoder.Array{Shape: []int{3, 1}, Data: []float64{1, 2, 3}}, "[1, 2, 3]\n"},
		{"matrix", arr, "- [1, 2]\n- [3, 4]\n"},
		{"ordered", transcoder.OrderedMapOf("b", 1.0, "a", "x"), "b: 1\na: x\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := renderValue(tt.v)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRunLines(t *testing.T) {
	ctx := context.Background()
	s, err := session.Open(ctx, interoptest.New(), "fdtd", session.Options{})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	in := strings.NewReader(`addrect;
set("name", "box");
a = 2.5;
:get a
function twice(x){ return 2 * x; }
:functions
:objects
nosuch;
:bogus
:quit
b = 1;
`)
	var out bytes.Buffer
	if err := runLines(ctx, s, in, &out); err != nil {
		t.Fatal(err)
	}

	got := out.String()
	for _, want := range []string{
		"2.5\n",
		"::model::box\n",
		"twice()\n",
		"Failed to evaluate code: Error: there is nothing named 'nosuch' defined",
		"unknown command :bogus",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if _, err := s.GetVar(ctx, "b"); err == nil {
		t.Error("lines after :quit were run")
	}
}
