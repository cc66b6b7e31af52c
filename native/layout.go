package native

import (
	"unsafe"

	"github.com/wippyai/interop-runtime/value"
)

// Type tags of the Any union.
const (
	tagString = int32(value.KindString)
	tagDouble = int32(value.KindDouble)
	tagMatrix = int32(value.KindMatrix)
	tagList   = int32(value.KindList)
	tagStruct = int32(value.KindStruct)
	tagPair   = int32(value.KindPair)
)

// Matrix storage modes.
const (
	modeReal    uint32 = 1
	modeComplex uint32 = 2
)

type lumString struct {
	len uint64
	str *byte
}

type lumMat struct {
	mode   uint32
	_      uint32
	dim    uint64
	dimlst *uint64
	data   *float64
}

// lumSeq is the shared layout of LumStruct and LumList.
type lumSeq struct {
	size     uint64
	elements **anyValue
}

type lumPair struct {
	name  lumString
	value *anyValue
}

// anyValue mirrors the C Any: a tag and a 32-byte union aligned to 8.
type anyValue struct {
	typ int32
	_   int32
	val [4]uint64
}

func (a *anyValue) double() *float64 { return (*float64)(unsafe.Pointer(&a.val)) }
func (a *anyValue) str() *lumString { return (*lumString)(unsafe.Pointer(&a.val)) }
func (a *anyValue) matrix() *lumMat { return (*lumMat)(unsafe.Pointer(&a.val)) }
func (a *anyValue) seq() *lumSeq { return (*lumSeq)(unsafe.Pointer(&a.val)) }
func (a *anyValue) pair() *lumPair { return (*lumPair)(unsafe.Pointer(&a.val)) }
func (s *lumSeq) items() []*anyValue { return unsafe.Slice(s.elements, s.size) }
func (s lumString) bytes() []byte { return unsafe.Slice(s.str, s.len) }
func (m *lumMat) dims() []uint64 { return unsafe.Slice(m.dimlst, m.dim) }
func (m *lumMat) buffer(n int) []float64 { return unsafe.Slice(m.data, n) }
