package store

import "errors"

// ErrRunNotFound is returned when no run has the requested ID.
var ErrRunNotFound = errors.New("run not found")

// Run is one journaled engine session.
type Run struct {
	ID            string `json:"id"`
	Seq           int64  `json:"seq"`
	Scenario      string `json:"scenario"`
	TraceHash     string `json:"trace_hash"`
	StepCount     int    `json:"step_count"`
	Passed        bool   `json:"passed"`
	EngineVersion string `json:"engine_version"`
	IRVersion     string `json:"ir_version"`
}
