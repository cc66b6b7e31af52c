// Package native binds the vendor's interop library without cgo.
//
// The library is opened with purego and its entry points are registered as
// Go function values. Library implements interop.Backend: tagged values are
// copied into the library's own Any structures through its allocators,
// and results are copied back out and freed before returning, so no native
// memory outlives a call.
//
// # Layout
//
//	Any        { int32 type; union val }          40 bytes
//	LumString  { uint64 len; char *str }
//	LumMat     { uint32 mode; uint64 dim; uint64 *dimlst; double *data }
//	LumStruct  { uint64 size; Any **elements }    elements are name/value pairs
//	LumList    { uint64 size; Any **elements }
//	LumNVP     { LumString name; Any *value }
//
// Complex matrices store the real block followed by the imaginary block in
// one data buffer. The allocators take ownership of child values, and
// freeAny releases a whole tree.
package native
