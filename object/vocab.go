package object

// Application functions the proxies call. Every object-addressed function
// takes the object name followed by its 1-based index among objects that
// share the name.
const (
	// getnamednumber(name) -> count of objects called name
	FnNamedNumber = "getnamednumber"
	// getnamed(name, property, index) -> property value
	FnGetNamed = "getnamed"
	// setnamed(name, property, value, index)
	FnSetNamed = "setnamed"
	// getpropertylist(name, index) -> cell array of property names
	FnPropertyList = "getpropertylist"
	// getparentid(name, index) -> id of the enclosing group
	FnParentID = "getparentid"
	// getchildids(name, index) -> cell array of child ids
	FnChildIDs = "getchildids"
	// getid() -> cell array of selected object ids
	FnSelectedIDs = "getid"
	// getresultlist(name, index) -> cell array of result names
	FnResultList = "getresultlist"
	// getresult(name, result, index) -> result value
	FnGetResult = "getresult"
	// set(property, value) on the current selection
	FnSet = "set"
)

// PropertyType is the property holding an object's type name.
const PropertyType = "type"
