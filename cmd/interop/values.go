package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wippyai/interop-runtime/errors"
	"github.com/wippyai/interop-runtime/object"
	"github.com/wippyai/interop-runtime/transcoder"
)

// parseValue reads a YAML document into encodable Go values. Mappings
// become ordered maps; sequences of numbers become []float64 and
// rectangular nests of those become [][]float64.
func parseValue(src string) (any, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(src), &doc); err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "invalid YAML value")
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return nil, nil
	}
	return fromNode(doc.Content[0])
}

func fromNode(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.AliasNode:
		return fromNode(n.Alias)

	case yaml.ScalarNode:
		switch n.Tag {
		case "!!null":
			return nil, nil
		case "!!bool":
			var b bool
			err := n.Decode(&b)
			return b, err
		case "!!int", "!!float":
			var f float64
			err := n.Decode(&f)
			return f, err
		}
		return n.Value, nil

	case yaml.MappingNode:
		m := transcoder.NewOrderedMap()
		for i := 0; i+1 < len(n.Content); i += 2 {
			v, err := fromNode(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			m.Set(n.Content[i].Value, v)
		}
		return m, nil

	case yaml.SequenceNode:
		items := make([]any, len(n.Content))
		for i, c := range n.Content {
			v, err := fromNode(c)
			if err != nil {
				return nil, err
			}
			items[i] = v
		}
		return numeric(items), nil
	}
	return nil, errors.InvalidInput(errors.PhaseConfig, fmt.Sprintf("unsupported YAML node at line %d", n.Line))
}

// numeric narrows a list to []float64 or [][]float64 when every element
// allows it.
func numeric(items []any) any {
	if len(items) == 0 {
		return items
	}
	row := make([]float64, 0, len(items))
	for _, it := range items {
		f, ok := it.(float64)
		if !ok {
			break
		}
		row = append(row, f)
	}
	if len(row) == len(items) {
		return row
	}

	rows := make([][]float64, 0, len(items))
	for _, it := range items {
		r, ok := it.([]float64)
		if !ok || len(r) != len(items[0].([]float64)) {
			return items
		}
		rows = append(rows, r)
	}
	return rows
}

// renderValue formats a decoded value as YAML, keeping struct member
// order.
func renderValue(v any) (string, error) {
	n, err := toNode(v)
	if err != nil {
		return "", err
	}
	out, err := yaml.Marshal(n)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func scalar(tag, v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: v}
}

func number(f float64) *yaml.Node {
	return scalar("", strconv.FormatFloat(f, 'g', -1, 64))
}

func complexNumber(re, im float64) *yaml.Node {
	return scalar("!!str", strconv.FormatComplex(complex(re, im), 'g', -1, 128))
}

func toNode(v any) (*yaml.Node, error) {
	switch x := v.(type) {
	case nil:
		return scalar("!!null", "null"), nil
	case float64:
		return number(x), nil
	case string:
		return scalar("!!str", x), nil
	case []any:
		seq := &yaml.Node{Kind: yaml.SequenceNode}
		for _, e := range x {
			c, err := toNode(e)
			if err != nil {
				return nil, err
			}
			seq.Content = append(seq.Content, c)
		}
		return seq, nil
	case *transcoder.OrderedMap:
		m := &yaml.Node{Kind: yaml.MappingNode}
		var err error
		x.Each(func(k string, e any) bool {
			var c *yaml.Node
			if c, err = toNode(e); err != nil {
				return false
			}
			m.Content = append(m.Content, scalar("!!str", k), c)
			return true
		})
		return m, err
	case transcoder.Pair:
		c, err := toNode(x.Value)
		if err != nil {
			return nil, err
		}
		return &yaml.Node{Kind: yaml.MappingNode, Content: []*yaml.Node{scalar("!!str", x.Name), c}}, nil
	case *transcoder.Array:
		return arrayNode(x), nil
	}
	return scalar("!!str", fmt.Sprint(v)), nil
}

// arrayNode renders vectors as one flow sequence and matrices as rows.
// Higher ranks are written as shape plus flat row-major data.
func arrayNode(a *transcoder.Array) *yaml.Node {
	elem := func(i int) *yaml.Node {
		if a.IsComplex() {
			return complexNumber(a.Data[i], a.Imag[i])
		}
		return number(a.Data[i])
	}
	flow := func(from, to int) *yaml.Node {
		seq := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
		for i := from; i < to; i++ {
			seq.Content = append(seq.Content, elem(i))
		}
		return seq
	}

	big := 0
	for _, d := range a.Shape {
		if d > 1 {
			big++
		}
	}
	switch {
	case big <= 1:
		return flow(0, a.Len())
	case len(a.Shape) == 2:
		rows := &yaml.Node{Kind: yaml.SequenceNode}
		cols := a.Shape[1]
		for r := 0; r < a.Shape[0]; r++ {
			rows.Content = append(rows.Content, flow(r*cols, (r+1)*cols))
		}
		return rows
	}

	shape := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
	for _, d := range a.Shape {
		shape.Content = append(shape.Content, scalar("", strconv.Itoa(d)))
	}
	return &yaml.Node{Kind: yaml.MappingNode, Content: []*yaml.Node{
		scalar("!!str", "shape"), shape,
		scalar("!!str", "data"), flow(0, a.Len()),
	}}
}

func indent(s, prefix string) string {
	lines := strings.SplitAfter(s, "\n")
	var b strings.Builder
	for _, l := range lines {
		if l == "" {
			continue
		}
		b.WriteString(prefix)
		b.WriteString(l)
	}
	return b.String()
}

// describeObject reads every property of o into an ordered YAML mapping.
// Properties the application refuses to read are shown as their error.
func describeObject(ctx context.Context, o *object.Object) (string, error) {
	names, err := o.Names(ctx)
	if err != nil {
		return "", err
	}
	props := transcoder.NewOrderedMap()
	for _, name := range names {
		v, err := o.Get(ctx, name)
		if err != nil {
			if errors.IsKind(err, errors.KindConnection) {
				return "", err
			}
			v = "<" + err.Error() + ">"
		}
		props.Set(name, v)
	}
	out, err := renderValue(props)
	if err != nil {
		return "", err
	}
	return o.ID().String() + ":\n" + indent(out, "  "), nil
}
