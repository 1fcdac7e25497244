package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/layersync/internal/ir"
	"github.com/roach88/layersync/internal/layer"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []ir.SyncStep // full trace for context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, s := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %s layer=%s record=%s index=%d\n",
				s.Seq, s.Direction, s.Op, s.LayerID, s.RecordID, s.Index)
		}
	}
	return buf.String()
}

func assertOrder(kind string, got, want []string, trace []ir.SyncStep) error {
	if want == nil {
		want = []string{}
	}
	if slices.Equal(got, want) {
		return nil
	}
	return &AssertionError{
		Type:     kind,
		Expected: fmt.Sprintf("%v", want),
		Actual:   fmt.Sprintf("%v", got),
		Trace:    trace,
	}
}

// assertInSync checks that both collections hold the same layers in the same
// order and that the engine pairs every position's layer with its record.
func assertInSync(h *Harness) error {
	fail := func(actual string) error {
		return &AssertionError{
			Type:     AssertInSync,
			Expected: "model and target paired position by position",
			Actual:   actual,
			Trace:    h.trace,
		}
	}

	if h.target.Len() != h.store.Len() {
		return fail(fmt.Sprintf("target has %d layers, model has %d records", h.target.Len(), h.store.Len()))
	}
	for i := 0; i < h.target.Len(); i++ {
		el := h.target.Item(i)
		rec := h.store.At(i)
		if rec.Layer != el {
			return fail(fmt.Sprintf("position %d: target holds %s, record %s backs %s",
				i, layer.IDOf(el), rec.ID, rec.LayerID()))
		}
		paired, ok := h.engine.ByLayer(el)
		if !ok || paired != rec {
			return fail(fmt.Sprintf("position %d: layer %s is not paired with record %s",
				i, layer.IDOf(el), rec.ID))
		}
		back, ok := h.engine.Layer(rec)
		if !ok || back != el {
			return fail(fmt.Sprintf("position %d: record %s is not paired with layer %s",
				i, rec.ID, layer.IDOf(el)))
		}
	}
	return nil
}

// assertTitle checks the layer's title and, when the layer has a record,
// the record's title.
func assertTitle(h *Harness, a Assertion) error {
	want, _ := a.Value.(string)
	l, err := h.layer(a.Layer)
	if err != nil {
		return err
	}

	if got := l.Title(); got != want {
		return &AssertionError{
			Type:     AssertTitle,
			Expected: fmt.Sprintf("layer %s titled %q", a.Layer, want),
			Actual:   fmt.Sprintf("%q", got),
			Trace:    h.trace,
		}
	}
	if rec, err := h.record(a.Layer); err == nil && rec.Title != want {
		return &AssertionError{
			Type:     AssertTitle,
			Expected: fmt.Sprintf("record %s titled %q", rec.ID, want),
			Actual:   fmt.Sprintf("%q", rec.Title),
			Trace:    h.trace,
		}
	}
	return nil
}

func assertCount(kind, subject string, got, want int, trace []ir.SyncStep) error {
	if got == want {
		return nil
	}
	return &AssertionError{
		Type:     kind,
		Expected: fmt.Sprintf("%s = %d", subject, want),
		Actual:   fmt.Sprintf("%d", got),
		Trace:    trace,
	}
}

// countSteps counts trace steps matching the optional op and direction.
func countSteps(trace []ir.SyncStep, op, direction string) int {
	n := 0
	for _, s := range trace {
		if op != "" && string(s.Op) != op {
			continue
		}
		if direction != "" && string(s.Direction) != direction {
			continue
		}
		n++
	}
	return n
}

// listenerCount returns the listeners held on the subject, excluding the
// harness's own counters.
func listenerCount(h *Harness, a Assertion) (int, string, error) {
	switch a.Of {
	case "target":
		return h.target.ListenerCount() - h.ownTarget, "target listeners", nil
	case "model":
		return h.store.ListenerCount() - h.ownModel, "model listeners", nil
	case "layer":
		l, err := h.layer(a.Layer)
		if err != nil {
			return 0, "", err
		}
		return l.ListenerCount(), fmt.Sprintf("listeners on layer %s", a.Layer), nil
	default:
		return h.engine.ListenerCount(), "engine listeners", nil
	}
}

// EvaluateAssertions runs every assertion against the harness state and
// returns one message per failure.
func EvaluateAssertions(h *Harness, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluate(h, a); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func evaluate(h *Harness, a Assertion) error {
	switch a.Type {
	case AssertModelOrder:
		return assertOrder(a.Type, h.modelOrder(), a.Layers, h.trace)
	case AssertTargetOrder:
		return assertOrder(a.Type, h.targetOrder(), a.Layers, h.trace)
	case AssertInSync:
		return assertInSync(h)
	case AssertTitle:
		return assertTitle(h, a)
	case AssertEventCount:
		return assertCount(a.Type, a.Event, h.events[a.Event], a.Count, h.trace)
	case AssertStepCount:
		subject := strings.Join(strings.Fields("steps "+a.Direction+" "+a.Op), " ")
		return assertCount(a.Type, subject, countSteps(h.trace, a.Op, a.Direction), a.Count, h.trace)
	case AssertListenerCount:
		got, subject, err := listenerCount(h, a)
		if err != nil {
			return err
		}
		return assertCount(a.Type, subject, got, a.Count, nil)
	case AssertBound:
		want, _ := a.Value.(bool)
		if h.engine.Bound() == want {
			return nil
		}
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("bound = %t", want),
			Actual:   fmt.Sprintf("bound = %t", h.engine.Bound()),
		}
	case AssertRecordCount:
		return assertCount(a.Type, "records", h.store.Len(), a.Count, h.trace)
	}
	return fmt.Errorf("unknown assertion type %q", a.Type)
}
