// Package dataset reads and writes the application's dataset containers.
//
// A dataset arrives as a struct whose "Lumerical_dataset" member describes
// its shape:
//
//	matrix        attributes only, sized by the parameters
//	rectilinear   x, y, z axes plus grid attributes
//	unstructured  x, y, z points, connectivity, point and cell attributes
//
// Each shape has a Translator. CreateStructMemberPreTranslators returns one
// PreTranslator per attribute, in the order the attributes were added, so
// callers can convert payloads without re-deriving the geometry.
package dataset
