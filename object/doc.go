// Package object provides dynamic proxies for objects living inside the
// application.
//
// Property names are only known at runtime, so instead of generated
// members every proxy implements Accessor:
//
//	Get(ctx, name)       read through getnamed
//	Set(ctx, name, v)    write through setnamed
//	Names(ctx)           canonical names
//
// Object additionally offers Attr and SetAttr, which accept identifier-like
// names with underscores standing in for spaces ("x_span" for "x span").
// The mapping is one-way: Names only ever reports the canonical form, and
// other punctuation is not translated.
//
// Properties whose names contain "." are compound. Getting a prefix such
// as "C 1" yields a *Compound for the next level, and asking a Compound for
// a sub-property it does not have fails with KindNotFound naming both
// parts.
//
// Results wraps an object's computed outputs. It is read-only: Set fails
// for every name with KindReadOnly, and reading a name the object does not
// have fails with KindNoAttribute.
//
// Proxies hold no state beyond the object's address and, for Object, the
// property names seen at construction. Parent, Children and Results.Names
// query the application on every call and may observe a different scene
// than an earlier call did. Proxies are references, not values: encoding
// one for a variable or call argument fails.
package object
