package resource

// Handle is an opaque reference to a table entry.
// Handle 0 is reserved and always invalid.
type Handle uint32

// Kind tags what a handle refers to.
type Kind uint8

const (
	KindSession Kind = iota + 1
	KindLibrary
)

func (k Kind) String() string {
	switch k {
	case KindSession:
		return "session"
	case KindLibrary:
		return "library"
	default:
		return "unknown"
	}
}

// EventType identifies a lifecycle notification.
type EventType uint8

const (
	EventCreated EventType = iota
	EventDropped
)

func (t EventType) String() string {
	switch t {
	case EventCreated:
		return "created"
	case EventDropped:
		return "dropped"
	default:
		return "unknown"
	}
}

// Event is delivered to observers when an entry is added or removed.
type Event struct {
	Value  any
	Native uintptr
	Handle Handle
	Kind   Kind
	Type   EventType
}

// Observer receives lifecycle events.
type Observer interface {
	OnResourceEvent(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) OnResourceEvent(e Event) { f(e) }

// Releaser is implemented by values that hold native state. Table.Close
// calls Release on entries still live at shutdown.
type Releaser interface {
	Release()
}
