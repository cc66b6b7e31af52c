package value

import (
	"fmt"
	"math"
)

// Kind is the wire discriminant of a Value.
type Kind int32

const (
	KindNull   Kind = -1
	KindString Kind = 0
	KindDouble Kind = 1
	KindMatrix Kind = 2
	KindList   Kind = 3
	KindStruct Kind = 4
	KindPair   Kind = 5
)

// String returns the application's name for the kind.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindDouble:
		return "double"
	case KindMatrix:
		return "matrix"
	case KindList:
		return "cell array"
	case KindStruct:
		return "struct"
	case KindPair:
		return "name value pair"
	default:
		return fmt.Sprintf("kind(%d)", int32(k))
	}
}

// Value is the closed set of tagged variants.
type Value interface {
	Kind() Kind
	isValue()
}

type (
	Double float64
	String string
	List   []Value
	Null   struct{}
)

// Pair is a single named member.
type Pair struct {
	Value Value
	Name  string
}

func (Double) Kind() Kind  { return KindDouble }
func (String) Kind() Kind  { return KindString }
func (List) Kind() Kind    { return KindList }
func (Null) Kind() Kind    { return KindNull }
func (Pair) Kind() Kind    { return KindPair }
func (*Matrix) Kind() Kind { return KindMatrix }
func (*Struct) Kind() Kind { return KindStruct }

func (Double) isValue()  {}
func (String) isValue()  {}
func (List) isValue()    {}
func (Null) isValue()    {}
func (Pair) isValue()    {}
func (*Matrix) isValue() {}
func (*Struct) isValue() {}

// KindOf returns KindNull for a nil Value.
func KindOf(v Value) Kind {
	if v == nil {
		return KindNull
	}
	return v.Kind()
}

// Equal reports deep equality. NaN compares equal to NaN so that values
// survive a round trip check.
func Equal(a, b Value) bool {
	if KindOf(a) != KindOf(b) {
		return false
	}
	switch av := a.(type) {
	case nil, Null:
		return true
	case Double:
		return floatEqual(float64(av), float64(b.(Double)))
	case String:
		return av == b.(String)
	case Pair:
		bv := b.(Pair)
		return av.Name == bv.Name && Equal(av.Value, bv.Value)
	case List:
		bv := b.(List)
		if len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case *Struct:
		bv := b.(*Struct)
		if av.Len() != bv.Len() {
			return false
		}
		if av.Len() == 0 {
			return true
		}
		for i := range av.Fields {
			if av.Fields[i].Name != bv.Fields[i].Name || !Equal(av.Fields[i].Value, bv.Fields[i].Value) {
				return false
			}
		}
		return true
	case *Matrix:
		return av.equal(b.(*Matrix))
	}
	return false
}

func floatEqual(a, b float64) bool {
	if math.IsNaN(a) && math.IsNaN(b) {
		return true
	}
	return a == b
}
