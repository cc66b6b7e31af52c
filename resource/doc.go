// Package resource tracks live native handles.
//
// Every session registers the handle returned by the native library in a
// Table and removes it on close. A handle that is not in the table is stale:
// it was closed, never opened, or belongs to another process. Checking the
// table before each boundary crossing turns use-after-close into an error
// instead of a crash inside the library.
//
//	table := resource.NewTable()
//
//	h, _ := table.Insert(resource.KindSession, uintptr(native), sess)
//	...
//	if !table.Live(h) {
//	    // "Error validating the connection"
//	}
//	table.Remove(h)
//
// Freed slots are reused, but each handle carries its slot's generation:
// after a close, the old handle stays stale even when a new session lands
// in the same slot.
//
// Observers receive EventCreated and EventDropped notifications, which the
// session and native packages use for debug logging. Close releases what is
// still live at shutdown.
package resource
