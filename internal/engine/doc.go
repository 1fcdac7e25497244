// Package engine keeps a model collection (a store of layer records) and a
// target collection (the layers of a map) in lockstep.
//
// An Engine is created for one model and bound to at most one target at a
// time. While bound, every mutation made directly on either side is
// replayed onto the other side exactly once:
//
//   - target add/remove/property change -> record insert/remove/title
//   - model load/clear/add/remove/replace/edit -> layer extend/clear/
//     insert/remove/title
//
// Feedback is suppressed by two guard flags, adding and removing. A handler
// that is about to mutate the opposite collection sets the flag matching the
// effect; the handler on the opposite side checks the flag on entry and
// returns without doing anything. Flags are restored on every exit path.
//
// Identity is by reference. The engine keeps a bidirectional index between
// records and layers, rebuilt on bind and reload and updated incrementally
// by the propagators.
//
// Everything runs synchronously in the caller's goroutine. An Engine and
// the collections it binds are not safe for concurrent use.
package engine
