package resource

import (
	"sync"
	"testing"
)

type testObserver struct {
	events []Event
}

func (o *testObserver) OnResourceEvent(e Event) {
	o.events = append(o.events, e)
}

type releaser struct{ released bool }

func (r *releaser) Release() { r.released = true }

func TestTable_Basic(t *testing.T) {
	table := NewTable()

	h, err := table.Insert(KindSession, 0xbeef, "session")
	if err != nil {
		t.Fatal(err)
	}
	if h == 0 {
		t.Fatal("Expected non-zero handle")
	}
	if !table.Live(h) {
		t.Fatal("handle should be live")
	}

	val, ok := table.Get(h)
	if !ok || val != "session" {
		t.Fatalf("Get = %v, %v", val, ok)
	}
	if _, ok := table.GetKind(h, KindSession); !ok {
		t.Fatal("GetKind with correct kind failed")
	}
	if _, ok := table.GetKind(h, KindLibrary); ok {
		t.Fatal("GetKind with wrong kind should fail")
	}
	val, ok = table.Remove(h)
	if !ok || val != "session" {
		t.Fatalf("Remove = %v, %v", val, ok)
	}
	if table.Live(h) {
		t.Fatal("removed handle should be stale")
	}
	if _, ok := table.Remove(h); ok {
		t.Fatal("double Remove should fail")
	}
	if table.Len() != 0 {
		t.Fatalf("Len = %d, want 0", table.Len())
	}
}

func TestTable_ZeroHandle(t *testing.T) {
	table := NewTable()
	if table.Live(0) {
		t.Error("handle 0 must never be live")
	}
	if _, ok := table.Get(0); ok {
		t.Error("Get(0) should fail")
	}
	if table.Live(42) {
		t.Error("unknown handle should be stale")
	}
}

func TestTable_StaleHandleAfterReuse(t *testing.T) {
	table := NewTable()
	a, _ := table.Insert(KindSession, 1, "a")
	table.Remove(a)
	b, _ := table.Insert(KindSession, 2, "b")

	if a == b {
		t.Fatalf("slot reuse returned the stale handle %#x", a)
	}
	if a.index() != b.index() {
		t.Errorf("freed slot not reused: %d then %d", a.index(), b.index())
	}
	if table.Live(a) {
		t.Error("stale handle resolves after its slot was reused")
	}
	if v, ok := table.Get(a); ok {
		t.Errorf("Get(stale) = %v", v)
	}
	if _, ok := table.Remove(a); ok {
		t.Error("Remove(stale) dropped the new occupant")
	}
	if v, ok := table.Get(b); !ok || v != "b" {
		t.Errorf("Get(new) = %v, %v", v, ok)
	}
}

func TestTable_GenerationWraps(t *testing.T) {
	table := NewTable()
	first, _ := table.Insert(KindSession, 0, nil)
	table.Remove(first)

	h := first
	for i := 0; i < 255; i++ {
		h, _ = table.Insert(KindSession, 0, nil)
		if h == first {
			t.Fatalf("handle repeated after %d reuses", i+1)
		}
		if h == 0 {
			t.Fatal("zero handle issued")
		}
		table.Remove(h)
	}
	h, _ = table.Insert(KindSession, 0, nil)
	if h != first {
		t.Errorf("generation did not wrap: got %#x, want %#x", h, first)
	}
}

func TestTable_Observer(t *testing.T) {
	table := NewTable()
	obs := &testObserver{}
	table.Subscribe(obs)

	h, _ := table.Insert(KindLibrary, 7, "lib")
	table.Remove(h)

	if len(obs.events) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(obs.events))
	}
	if obs.events[0].Type != EventCreated || obs.events[0].Handle != h || obs.events[0].Native != 7 {
		t.Errorf("unexpected create event %+v", obs.events[0])
	}
	if obs.events[1].Type != EventDropped || obs.events[1].Kind != KindLibrary {
		t.Errorf("unexpected drop event %+v", obs.events[1])
	}
}

func TestTable_ObserverFunc(t *testing.T) {
	table := NewTable()
	var got []EventType
	table.Subscribe(ObserverFunc(func(e Event) { got = append(got, e.Type) }))
	h, _ := table.Insert(KindSession, 1, nil)
	table.Remove(h)
	if len(got) != 2 {
		t.Fatalf("got %d events", len(got))
	}
	if got[0].String() != "created" || got[1].String() != "dropped" {
		t.Errorf("event types %v", got)
	}
}

func TestTable_Close(t *testing.T) {
	table := NewTable()
	obs := &testObserver{}
	table.Subscribe(obs)
	r := &releaser{}
	h, _ := table.Insert(KindSession, 1, r)

	if err := table.Close(); err != nil {
		t.Fatal(err)
	}
	if !r.released {
		t.Error("live entry not released on Close")
	}
	if len(obs.events) != 2 || obs.events[1].Type != EventDropped || obs.events[1].Handle != h {
		t.Errorf("events = %+v", obs.events)
	}
	if table.Live(h) {
		t.Error("handle live after Close")
	}
	if _, err := table.Insert(KindSession, 2, nil); err != ErrClosed {
		t.Errorf("Insert after Close = %v, want ErrClosed", err)
	}
	if err := table.Close(); err != nil {
		t.Errorf("second Close = %v", err)
	}
}

func TestTable_Each(t *testing.T) {
	table := NewTable()
	a, _ := table.Insert(KindSession, 1, "a")
	b, _ := table.Insert(KindSession, 2, "b")
	c, _ := table.Insert(KindLibrary, 3, "c")
	table.Remove(b)
	d, _ := table.Insert(KindSession, 4, "d")

	var seen []any
	var handles []Handle
	table.Each(func(h Handle, _ Kind, v any) bool {
		seen = append(seen, v)
		handles = append(handles, h)
		return true
	})
	if len(seen) != 3 || seen[0] != "a" || seen[1] != "d" || seen[2] != "c" {
		t.Errorf("Each saw %v", seen)
	}
	if len(handles) == 3 && (handles[0] != a || handles[1] != d || handles[2] != c) {
		t.Errorf("Each handles %#x, want [%#x %#x %#x]", handles, a, d, c)
	}

	n := 0
	table.Each(func(Handle, Kind, any) bool {
		n++
		return false
	})
	if n != 1 {
		t.Errorf("Each visited %d entries after returning false", n)
	}
}

func TestTable_Concurrent(t *testing.T) {
	table := NewTable()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			h, err := table.Insert(KindSession, uintptr(i), i)
			if err != nil {
				t.Error(err)
				return
			}
			if !table.Live(h) {
				t.Error("inserted handle not live")
			}
			table.Remove(h)
		}(i)
	}
	wg.Wait()
	if table.Len() != 0 {
		t.Errorf("Len = %d after concurrent insert/remove", table.Len())
	}
}
