// Package ir provides the foundational value types shared by layersync
// packages.
//
// This package contains type definitions and serialization only. All other
// internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Layer property values are IRValue (string, int, bool, array, object
//     or null). NO float types: a property compared after a round trip
//     through YAML or CUE must compare equal.
//   - SyncStep records use a logical seq counter, never wall-clock time,
//     so traces are reproducible and can be compared as golden files.
//   - All JSON tags use snake_case.
package ir
