// Package value defines the tagged value exchanged with the external application.
//
// A Value is exactly one of:
//
//	Double    float64
//	String    length-prefixed text, embedded NUL allowed
//	*Matrix   N-D numeric array, column-major, optionally complex
//	List      ordered heterogeneous values ("cell array")
//	*Struct   ordered name/value members, unique names
//	Pair      one name/value member
//	Null      absence of a value; never sent across the boundary
//
// Values are transient: they are built for one boundary crossing and
// converted to or from Go values by the transcoder package.
package value
