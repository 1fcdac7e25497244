package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/layersync/internal/ir"
)

// TraceSnapshot is what a golden file records for one scenario: the sync
// steps and the final order of both collections.
type TraceSnapshot struct {
	ScenarioName string        `json:"scenario_name"`
	Trace        []ir.SyncStep `json:"trace"`
	ModelOrder   []string      `json:"model_order"`
	TargetOrder  []string      `json:"target_order"`
}

// Canonical returns the snapshot as an IRObject for MarshalCanonical.
func (s *TraceSnapshot) Canonical() ir.IRObject {
	trace := make(ir.IRArray, len(s.Trace))
	for i, step := range s.Trace {
		trace[i] = step.Canonical()
	}
	return ir.IRObject{
		"scenario_name": ir.IRString(s.ScenarioName),
		"trace":         trace,
		"model_order":   stringArray(s.ModelOrder),
		"target_order":  stringArray(s.TargetOrder),
	}
}

func stringArray(ids []string) ir.IRArray {
	arr := make(ir.IRArray, len(ids))
	for i, id := range ids {
		arr[i] = ir.IRString(id)
	}
	return arr
}

// Snapshot builds the golden snapshot of a result.
func Snapshot(name string, result *Result) *TraceSnapshot {
	return &TraceSnapshot{
		ScenarioName: name,
		Trace:        result.Trace,
		ModelOrder:   result.ModelOrder,
		TargetOrder:  result.TargetOrder,
	}
}

// RunWithGolden runs a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against its golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := ir.MarshalCanonical(Snapshot(scenarioName, result).Canonical())
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
