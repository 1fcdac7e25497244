// Package event provides the synchronous, typed notification emitter used
// by every change source in layersync: layers, layer collections, record
// stores and their entry storage.
//
// # Main Types
//
//   - [Emitter]: Typed listener registry; Emit calls handlers in
//     registration order in the caller's goroutine
//   - [Key]: Process-unique listener key returned by On, passed to Off
//
// # Dispatch Semantics
//
// Emit takes a snapshot of the registered handlers before dispatching, so a
// handler may register or remove listeners (including itself) while the
// notification is being delivered. Listeners added during an Emit are not
// called for that notification.
//
// A panicking handler is recovered and logged with its stack; remaining
// handlers still run.
//
// # Basic Usage
//
//	var adds event.Emitter[Added]
//
//	key := adds.On(func(e Added) {
//	    fmt.Println("added", e.Index)
//	})
//	adds.Emit(Added{Index: 0})
//	adds.Off(key)
package event
