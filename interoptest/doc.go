// Package interoptest provides an in-memory application for tests.
//
// App implements interop.Backend without a native library. Each opened
// instance holds a scene graph rooted at "::model" ("::Root Element" for
// interconnect), a current selection and a variable workspace, and runs a
// small script dialect:
//
//	name = expr;             assignment
//	name{i} = expr;          cell element assignment (1-based)
//	fn(args); fn;            function call
//	try { ... } catch(msg);  msg receives the failure text, or ""
//	{a, b}  [1, 2; 3, 4]     cell and matrix literals
//	a + b * c                arithmetic; + also joins strings
//	function f(a, b){ ... }  user function with its own variable scope
//	return expr;             leave a user function
//	workspace                text listing of variables and functions
//	clearfunctions(f);       drop user functions, all of them without names
//
// Uncaught failures are reported as "Error: prompt line N: <message>",
// matching the application's own diagnostics. Object types come from
// Templates; RegisterFunc adds custom functions.
package interoptest
