// Package testutil holds deterministic stand-ins for the clock and ID
// generators, so that scenario runs and golden traces are reproducible.
package testutil
