package resource

import (
	"errors"
	"sync"
)

var (
	// ErrClosed is returned when inserting into a closed table.
	ErrClosed = errors.New("resource table closed")
	// ErrFull is returned when every slot index is in use.
	ErrFull = errors.New("resource table full")
)

// A handle packs a slot index (plus one, so 0 stays invalid) in the low
// bits and the slot's generation in the high bits. Removing an entry bumps
// its slot's generation, so a handle to the old entry does not match the
// next 255 occupants of the same slot.
const (
	indexBits = 24
	indexMask = 1<<indexBits - 1
	maxSlots  = indexMask
)

func makeHandle(idx int, gen uint8) Handle {
	return Handle(uint32(gen)<<indexBits | uint32(idx+1))
}

func (h Handle) index() int { return int(uint32(h)&indexMask) - 1 }
func (h Handle) gen() uint8 { return uint8(uint32(h) >> indexBits) }

type entry struct {
	value  any
	native uintptr
	kind   Kind
	gen    uint8
	valid  bool
}

// Table maps handles to live native references. It is safe for concurrent
// use.
type Table struct {
	entries   []entry
	freeList  []int
	observers []Observer
	mu        sync.RWMutex
	obsMu     sync.RWMutex
	closed    bool
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{
		entries:  make([]entry, 0, 8),
		freeList: make([]int, 0, 4),
	}
}

// Insert records a live native reference and returns its handle.
func (t *Table) Insert(kind Kind, native uintptr, value any) (Handle, error) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return 0, ErrClosed
	}

	var idx int
	if n := len(t.freeList); n > 0 {
		idx = t.freeList[n-1]
		t.freeList = t.freeList[:n-1]
	} else {
		if len(t.entries) >= maxSlots {
			t.mu.Unlock()
			return 0, ErrFull
		}
		t.entries = append(t.entries, entry{})
		idx = len(t.entries) - 1
	}
	e := &t.entries[idx]
	e.kind, e.native, e.value, e.valid = kind, native, value, true
	h := makeHandle(idx, e.gen)
	t.mu.Unlock()

	t.notify(Event{Type: EventCreated, Handle: h, Kind: kind, Native: native, Value: value})
	return h, nil
}

// slot returns the index of h's entry if h is its current handle. Callers
// hold t.mu.
func (t *Table) slot(h Handle) (int, bool) {
	idx := h.index()
	if idx < 0 || idx >= len(t.entries) {
		return 0, false
	}
	e := &t.entries[idx]
	if !e.valid || e.gen != h.gen() {
		return 0, false
	}
	return idx, true
}

func (t *Table) lookup(h Handle) (entry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	idx, ok := t.slot(h)
	if !ok {
		return entry{}, false
	}
	return t.entries[idx], true
}

// Live reports whether h refers to an entry that has not been removed.
func (t *Table) Live(h Handle) bool {
	_, ok := t.lookup(h)
	return ok
}

// Get returns the value stored with h.
func (t *Table) Get(h Handle) (any, bool) {
	e, ok := t.lookup(h)
	return e.value, ok
}

// GetKind returns the value only if h has the expected kind.
func (t *Table) GetKind(h Handle, kind Kind) (any, bool) {
	e, ok := t.lookup(h)
	if !ok || e.kind != kind {
		return nil, false
	}
	return e.value, true
}

// Remove drops h and returns its value. Removing a stale handle is a no-op.
func (t *Table) Remove(h Handle) (any, bool) {
	t.mu.Lock()
	idx, ok := t.slot(h)
	if !ok {
		t.mu.Unlock()
		return nil, false
	}
	e := t.entries[idx]
	t.entries[idx] = entry{gen: e.gen + 1}
	t.freeList = append(t.freeList, idx)
	t.mu.Unlock()

	t.notify(Event{Type: EventDropped, Handle: h, Kind: e.kind, Native: e.native, Value: e.value})
	return e.value, true
}

// Len returns the number of live entries.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n := 0
	for _, e := range t.entries {
		if e.valid {
			n++
		}
	}
	return n
}

// Each visits live entries in slot order until fn returns false. fn must
// not modify the table.
func (t *Table) Each(fn func(h Handle, kind Kind, value any) bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for i, e := range t.entries {
		if e.valid && !fn(makeHandle(i, e.gen), e.kind, e.value) {
			return
		}
	}
}

// Subscribe adds an observer.
func (t *Table) Subscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	t.observers = append(t.observers, o)
}

// Close releases live entries and rejects further inserts. Observers get
// an EventDropped for each released entry.
func (t *Table) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	var dropped []Event
	for i, e := range t.entries {
		if e.valid {
			dropped = append(dropped, Event{Type: EventDropped, Handle: makeHandle(i, e.gen), Kind: e.kind, Native: e.native, Value: e.value})
		}
	}
	t.entries = nil
	t.freeList = nil
	t.mu.Unlock()

	for _, ev := range dropped {
		if r, ok := ev.Value.(Releaser); ok {
			r.Release()
		}
		t.notify(ev)
	}
	return nil
}

func (t *Table) notify(e Event) {
	t.obsMu.RLock()
	defer t.obsMu.RUnlock()
	for _, o := range t.observers {
		o.OnResourceEvent(e)
	}
}
