package interoptest

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/wippyai/interop-runtime/value"
)

func builtins() map[string]Func {
	return map[string]Func{
		"cell":            cellFn,
		"select":          selectFn,
		"selectall":       selectAllFn,
		"unselectall":     unselectAllFn,
		"delete":          deleteFn,
		"addtogroup":      addToGroupFn,
		"addproperty":     addPropertyFn,
		"set":             setFn,
		"get":             getFn,
		"getnamednumber":  getNamedNumberFn,
		"getnamed":        getNamedFn,
		"setnamed":        setNamedFn,
		"getpropertylist": getPropertyListFn,
		"getparentid":     getParentIDFn,
		"getchildids":     getChildIDsFn,
		"getid":           getIDFn,
		"getresultlist":   getResultListFn,
		"getresult":       getResultFn,
		"workspace":       workspaceFn,
	}
}

func arity(fn string, args []value.Value, min, max int) error {
	if len(args) < min || len(args) > max {
		if min == max {
			return fmt.Errorf("in %s, expected %d arguments but got %d", fn, min, len(args))
		}
		return fmt.Errorf("in %s, expected %d to %d arguments but got %d", fn, min, max, len(args))
	}
	return nil
}

func stringArg(fn string, args []value.Value, i int) (string, error) {
	s, ok := args[i].(value.String)
	if !ok {
		return "", fmt.Errorf("in %s, argument %d must be a string", fn, i+1)
	}
	return string(s), nil
}

func indexArg(fn string, args []value.Value, i int) (int, error) {
	if i >= len(args) {
		return 1, nil
	}
	v, ok := coerce(args[i], value.KindDouble)
	if !ok {
		return 0, fmt.Errorf("in %s, argument %d must be a number", fn, i+1)
	}
	d := float64(v.(value.Double))
	if d < 1 || float64(int(d)) != d {
		return 0, fmt.Errorf("in %s, argument %d must be a positive integer", fn, i+1)
	}
	return int(d), nil
}

// named resolves the index-th node called name.
func (in *Instance) named(fn, name string, index int) (*Node, error) {
	nodes := in.Find(name)
	if len(nodes) == 0 {
		return nil, fmt.Errorf("in %s, no object named '%s' was found", fn, name)
	}
	if index > len(nodes) {
		return nil, fmt.Errorf("in %s, no object named '%s' was found with index %d", fn, name, index)
	}
	return nodes[index-1], nil
}

func (in *Instance) namedArgs(fn string, args []value.Value, min, max, indexAt int) (*Node, error) {
	if err := arity(fn, args, min, max); err != nil {
		return nil, err
	}
	name, err := stringArg(fn, args, 0)
	if err != nil {
		return nil, err
	}
	index, err := indexArg(fn, args, indexAt)
	if err != nil {
		return nil, err
	}
	return in.named(fn, name, index)
}

func (in *Instance) selected(fn string) ([]*Node, error) {
	if len(in.selection) == 0 {
		return nil, fmt.Errorf("in %s, no items are currently selected", fn)
	}
	return in.Selected(), nil
}

func stringList(ss []string) value.List {
	out := make(value.List, len(ss))
	for i, s := range ss {
		out[i] = value.String(s)
	}
	return out
}

// workspaceFn lists the workspace as text: a "Variables:" section and a
// "Functions:" section of user-defined functions, one indented name per
// line.
func workspaceFn(in *Instance, args []value.Value) (value.Value, error) {
	if err := arity("workspace", args, 0, 0); err != nil {
		return nil, err
	}
	var b strings.Builder
	b.WriteString("Variables:\n")
	for _, n := range in.VarNames() {
		b.WriteString("  " + n + "\n")
	}
	b.WriteString("Functions:\n")
	for _, n := range in.FuncNames() {
		b.WriteString("  " + n + "\n")
	}
	return value.String(b.String()), nil
}

func cellFn(_ *Instance, args []value.Value) (value.Value, error) {
	if err := arity("cell", args, 1, 1); err != nil {
		return nil, err
	}
	n, err := indexArg("cell", args, 0)
	if err != nil {
		return nil, err
	}
	out := make(value.List, n)
	for i := range out {
		out[i] = value.NewMatrix(0, 0)
	}
	return out, nil
}

func selectFn(in *Instance, args []value.Value) (value.Value, error) {
	if err := arity("select", args, 1, 1); err != nil {
		return nil, err
	}
	name, err := stringArg("select", args, 0)
	if err != nil {
		return nil, err
	}
	if name == "" {
		in.Select()
		return nil, nil
	}
	in.Select(in.Find(name)...)
	return nil, nil
}

func selectAllFn(in *Instance, _ []value.Value) (value.Value, error) {
	in.Select(in.Root.Children...)
	return nil, nil
}

func unselectAllFn(in *Instance, _ []value.Value) (value.Value, error) {
	in.Select()
	return nil, nil
}

func deleteFn(in *Instance, _ []value.Value) (value.Value, error) {
	nodes, err := in.selected("delete")
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		in.Remove(n)
	}
	return nil, nil
}

func addToGroupFn(in *Instance, args []value.Value) (value.Value, error) {
	if err := arity("addtogroup", args, 1, 1); err != nil {
		return nil, err
	}
	name, err := stringArg("addtogroup", args, 0)
	if err != nil {
		return nil, err
	}
	nodes, err := in.selected("addtogroup")
	if err != nil {
		return nil, err
	}
	group, err := in.named("addtogroup", name, 1)
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		if n == group {
			continue
		}
		n.attach(group)
	}
	return nil, nil
}

// addPropertyFn defines a user property: addproperty(object, name,
// category, "Number"|"String"|"Matrix").
func addPropertyFn(in *Instance, args []value.Value) (value.Value, error) {
	n, err := in.namedArgs("addproperty", args, 4, 4, 4)
	if err != nil {
		return nil, err
	}
	prop, err := stringArg("addproperty", args, 1)
	if err != nil {
		return nil, err
	}
	kind, err := stringArg("addproperty", args, 3)
	if err != nil {
		return nil, err
	}
	switch kind {
	case "Number":
		n.AddProperty(double(prop, 0))
	case "String":
		n.AddProperty(str(prop, ""))
	case "Matrix":
		n.AddProperty(&Property{Name: prop, Value: value.NewMatrix(0, 0), Kind: value.KindMatrix})
	default:
		return nil, fmt.Errorf("in addproperty, unknown property type '%s'", kind)
	}
	return nil, nil
}

func setFn(in *Instance, args []value.Value) (value.Value, error) {
	if err := arity("set", args, 1, 2); err != nil {
		return nil, err
	}
	nodes, err := in.selected("set")
	if err != nil {
		return nil, err
	}
	if len(args) == 1 {
		s, ok := args[0].(*value.Struct)
		if !ok {
			return nil, fmt.Errorf("in set, a single argument must be a struct of properties")
		}
		for _, n := range nodes {
			for _, f := range s.Fields {
				if err := n.Set("set", f.Name, f.Value); err != nil {
					return nil, err
				}
			}
		}
		return nil, nil
	}
	prop, err := stringArg("set", args, 0)
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		if err := n.Set("set", prop, args[1]); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

func getFn(in *Instance, args []value.Value) (value.Value, error) {
	if err := arity("get", args, 1, 1); err != nil {
		return nil, err
	}
	prop, err := stringArg("get", args, 0)
	if err != nil {
		return nil, err
	}
	nodes, err := in.selected("get")
	if err != nil {
		return nil, err
	}
	return nodes[0].Get("get", prop)
}

func getNamedNumberFn(in *Instance, args []value.Value) (value.Value, error) {
	if err := arity("getnamednumber", args, 1, 1); err != nil {
		return nil, err
	}
	name, err := stringArg("getnamednumber", args, 0)
	if err != nil {
		return nil, err
	}
	return value.Double(len(in.Find(name))), nil
}

// getNamedFn: getnamed(name, property[, index]).
func getNamedFn(in *Instance, args []value.Value) (value.Value, error) {
	n, err := in.namedArgs("getnamed", args, 2, 3, 2)
	if err != nil {
		return nil, err
	}
	prop, err := stringArg("getnamed", args, 1)
	if err != nil {
		return nil, err
	}
	return n.Get("getnamed", prop)
}

// setNamedFn: setnamed(name, property, value[, index]).
func setNamedFn(in *Instance, args []value.Value) (value.Value, error) {
	n, err := in.namedArgs("setnamed", args, 3, 4, 3)
	if err != nil {
		return nil, err
	}
	prop, err := stringArg("setnamed", args, 1)
	if err != nil {
		return nil, err
	}
	return nil, n.Set("setnamed", prop, args[2])
}

func getPropertyListFn(in *Instance, args []value.Value) (value.Value, error) {
	n, err := in.namedArgs("getpropertylist", args, 1, 2, 1)
	if err != nil {
		return nil, err
	}
	return stringList(n.PropertyNames()), nil
}

func getParentIDFn(in *Instance, args []value.Value) (value.Value, error) {
	n, err := in.namedArgs("getparentid", args, 1, 2, 1)
	if err != nil {
		return nil, err
	}
	if n.Parent == nil {
		return nil, fmt.Errorf("in getparentid, '%s' has no parent", n.Path())
	}
	return value.String(in.ID(n.Parent)), nil
}

func getChildIDsFn(in *Instance, args []value.Value) (value.Value, error) {
	n, err := in.namedArgs("getchildids", args, 1, 2, 1)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(n.Children))
	for i, c := range n.Children {
		ids[i] = in.ID(c)
	}
	return stringList(ids), nil
}

func getIDFn(in *Instance, _ []value.Value) (value.Value, error) {
	nodes, err := in.selected("getid")
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = in.ID(n)
	}
	return stringList(ids), nil
}

func getResultListFn(in *Instance, args []value.Value) (value.Value, error) {
	n, err := in.namedArgs("getresultlist", args, 1, 2, 1)
	if err != nil {
		return nil, err
	}
	return stringList(n.ResultNames()), nil
}

// getResultFn: getresult(name, result[, index]).
func getResultFn(in *Instance, args []value.Value) (value.Value, error) {
	n, err := in.namedArgs("getresult", args, 2, 3, 2)
	if err != nil {
		return nil, err
	}
	name, err := stringArg("getresult", args, 1)
	if err != nil {
		return nil, err
	}
	r, ok := n.Result(name)
	if !ok {
		return nil, fmt.Errorf("in getresult, the requested result '%s' was not found", name)
	}
	return r, nil
}

// adder builds an add function for tpl. An optional struct argument is
// applied in field order; any failure removes the new object.
func adder(fn string, tpl Template) Func {
	return func(in *Instance, args []value.Value) (value.Value, error) {
		if err := arity(fn, args, 0, 1); err != nil {
			return nil, err
		}
		var props *value.Struct
		if len(args) == 1 {
			s, ok := args[0].(*value.Struct)
			if !ok {
				return nil, fmt.Errorf("in %s, the argument must be a struct of properties", fn)
			}
			props = s
		}
		n := in.Add(tpl)
		if props == nil {
			return nil, nil
		}
		for _, f := range props.Fields {
			if err := n.Set(fn, f.Name, f.Value); err != nil {
				in.Remove(n)
				Logger().Debug("property initialization failed", zap.String("func", fn), zap.Error(err))
				return nil, fmt.Errorf("in %s, error during property initialization, the requested object cannot be created", fn)
			}
		}
		return nil, nil
	}
}
