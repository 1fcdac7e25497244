package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario is a scripted sequence of mutations against a bound engine,
// followed by assertions on the resulting collections and trace.
type Scenario struct {
	// Name identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what the scenario checks.
	Description string `yaml:"description"`

	// Layers is the pool of layers the scenario may refer to by id.
	Layers []LayerDef `yaml:"layers,omitempty"`

	// Manifest is an optional CUE file whose layers are added to the pool.
	// Relative paths resolve against the scenario file's directory.
	Manifest string `yaml:"manifest,omitempty"`

	// ManifestName picks one manifest when the file declares several.
	ManifestName string `yaml:"manifest_name,omitempty"`

	// Target lists the layers the target holds before binding.
	// When both Target and Model are omitted the target holds the whole pool.
	Target []string `yaml:"target,omitempty"`

	// Model lists the layers loaded into the model before binding.
	Model []string `yaml:"model,omitempty"`

	// Bind binds the engine to the target before the steps run. Default: true.
	Bind *bool `yaml:"bind,omitempty"`

	// Steps are applied in order.
	Steps []Step `yaml:"steps"`

	// Assertions are evaluated after the last step.
	Assertions []Assertion `yaml:"assertions"`
}

// LayerDef declares one layer of the pool.
type LayerDef struct {
	ID    string         `yaml:"id"`
	Title string         `yaml:"title"`
	Props map[string]any `yaml:"props,omitempty"`
}

// Step is one mutation applied to either collection, or a lifecycle call.
type Step struct {
	// Op names the mutation, e.g. "target.insert" or "model.set".
	Op string `yaml:"op"`

	// Layer is the layer the step acts on.
	Layer string `yaml:"layer,omitempty"`

	// With is the replacement layer for model.replace.
	With string `yaml:"with,omitempty"`

	// Layers is the layer list for model.load.
	Layers []string `yaml:"layers,omitempty"`

	// Index is the insert position. Omitted means append.
	Index *int `yaml:"index,omitempty"`

	// From and To are the positions for move.
	From int `yaml:"from,omitempty"`
	To   int `yaml:"to,omitempty"`

	// Key and Value are the property or field edited by set.
	Key   string `yaml:"key,omitempty"`
	Value any    `yaml:"value,omitempty"`

	// Additive makes model.load keep the current records.
	Additive bool `yaml:"additive,omitempty"`

	// ExpectError marks a step that must fail.
	ExpectError bool `yaml:"expect_error,omitempty"`
}

// Step operations.
const (
	OpTargetInsert = "target.insert"
	OpTargetRemove = "target.remove"
	OpTargetMove   = "target.move"
	OpTargetSet    = "target.set"
	OpTargetClear  = "target.clear"
	OpModelInsert  = "model.insert"
	OpModelRemove  = "model.remove"
	OpModelMove    = "model.move"
	OpModelSet     = "model.set"
	OpModelReplace = "model.replace"
	OpModelLoad    = "model.load"
	OpModelClear   = "model.clear"
	OpModelDestroy = "model.destroy"
	OpBind         = "bind"
	OpUnbind       = "unbind"
)

// Assertion checks the state left behind by the steps.
type Assertion struct {
	// Type selects the check; see the Assert* constants.
	Type string `yaml:"type"`

	// Layers is the expected layer order (model_order, target_order).
	Layers []string `yaml:"layers,omitempty"`

	// Layer and Value are used by title; Value alone by bound.
	Layer string `yaml:"layer,omitempty"`
	Value any    `yaml:"value,omitempty"`

	// Event names a raw notification for event_count, e.g. "model.add".
	Event string `yaml:"event,omitempty"`

	// Op and Direction filter the sync steps counted by step_count.
	Op        string `yaml:"op,omitempty"`
	Direction string `yaml:"direction,omitempty"`

	// Of selects what listener_count inspects: engine (default), target,
	// model or layer.
	Of string `yaml:"of,omitempty"`

	// Count is the expected number for the counting assertions.
	Count int `yaml:"count"`
}

// Assertion types.
const (
	AssertModelOrder    = "model_order"
	AssertTargetOrder   = "target_order"
	AssertInSync        = "in_sync"
	AssertTitle         = "title"
	AssertEventCount    = "event_count"
	AssertStepCount     = "step_count"
	AssertListenerCount = "listener_count"
	AssertBound         = "bound"
	AssertRecordCount   = "record_count"
)

// Raw notifications counted by event_count.
var knownEvents = map[string]bool{
	"target.add":    true,
	"target.remove": true,
	"model.load":    true,
	"model.clear":   true,
	"model.add":     true,
	"model.remove":  true,
	"model.update":  true,
	"model.replace": true,
}

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected and a relative manifest path is resolved against the file's
// directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	s, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	if s.Manifest != "" && !filepath.IsAbs(s.Manifest) {
		s.Manifest = filepath.Join(filepath.Dir(path), s.Manifest)
	}
	if s.Manifest != "" {
		if _, err := os.Stat(s.Manifest); err != nil {
			return nil, fmt.Errorf("invalid scenario: manifest file not found: %s", s.Manifest)
		}
	}
	return s, nil
}

// ParseScenario decodes and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var s Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&s); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &s, nil
}

// ShouldBind reports whether the engine is bound before the steps run.
func (s *Scenario) ShouldBind() bool {
	return s.Bind == nil || *s.Bind
}

// validateScenario checks required fields and layer references. Layers
// coming from a manifest are only known at run time, so references are
// checked here only when no manifest is used.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Layers) == 0 && s.Manifest == "" {
		return fmt.Errorf("layers or manifest is required")
	}
	if s.ManifestName != "" && s.Manifest == "" {
		return fmt.Errorf("manifest_name requires manifest")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	pool := make(map[string]bool, len(s.Layers))
	for i, l := range s.Layers {
		if l.ID == "" {
			return fmt.Errorf("layers[%d]: id is required", i)
		}
		if pool[l.ID] {
			return fmt.Errorf("layers[%d]: duplicate id %q", i, l.ID)
		}
		pool[l.ID] = true
	}
	known := func(id string) bool {
		return s.Manifest != "" || pool[id]
	}

	for i, id := range s.Target {
		if !known(id) {
			return fmt.Errorf("target[%d]: unknown layer %q", i, id)
		}
	}
	for i, id := range s.Model {
		if !known(id) {
			return fmt.Errorf("model[%d]: unknown layer %q", i, id)
		}
	}

	for i, step := range s.Steps {
		if err := validateStep(step, known); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(a, known); err != nil {
			return fmt.Errorf("assertions[%d]: %w", i, err)
		}
	}
	return nil
}

func validateStep(step Step, known func(string) bool) error {
	needLayer := func() error {
		if step.Layer == "" {
			return fmt.Errorf("layer is required for %s", step.Op)
		}
		if !known(step.Layer) {
			return fmt.Errorf("unknown layer %q", step.Layer)
		}
		return nil
	}

	switch step.Op {
	case OpTargetInsert, OpTargetRemove, OpModelInsert, OpModelRemove:
		return needLayer()
	case OpTargetSet, OpModelSet:
		if err := needLayer(); err != nil {
			return err
		}
		if step.Key == "" {
			return fmt.Errorf("key is required for %s", step.Op)
		}
	case OpModelReplace:
		if err := needLayer(); err != nil {
			return err
		}
		if step.With == "" {
			return fmt.Errorf("with is required for %s", step.Op)
		}
		if !known(step.With) {
			return fmt.Errorf("unknown layer %q", step.With)
		}
	case OpModelLoad:
		for _, id := range step.Layers {
			if !known(id) {
				return fmt.Errorf("unknown layer %q", id)
			}
		}
	case OpTargetMove, OpModelMove:
		if step.From < 0 || step.To < 0 {
			return fmt.Errorf("from and to must be non-negative for %s", step.Op)
		}
	case OpTargetClear, OpModelClear, OpModelDestroy, OpBind, OpUnbind:
	case "":
		return fmt.Errorf("op is required")
	default:
		return fmt.Errorf("unknown op %q", step.Op)
	}
	return nil
}

func validateAssertion(a Assertion, known func(string) bool) error {
	switch a.Type {
	case AssertModelOrder, AssertTargetOrder:
		for _, id := range a.Layers {
			if !known(id) {
				return fmt.Errorf("unknown layer %q", id)
			}
		}
	case AssertInSync:
	case AssertBound:
		if _, ok := a.Value.(bool); !ok {
			return fmt.Errorf("value must be a boolean for bound")
		}
	case AssertTitle:
		if a.Layer == "" {
			return fmt.Errorf("layer is required for title")
		}
		if !known(a.Layer) {
			return fmt.Errorf("unknown layer %q", a.Layer)
		}
		if _, ok := a.Value.(string); !ok {
			return fmt.Errorf("value must be a string for title")
		}
	case AssertEventCount:
		if !knownEvents[a.Event] {
			return fmt.Errorf("unknown event %q for event_count", a.Event)
		}
		if a.Count < 0 {
			return fmt.Errorf("count must be non-negative for event_count")
		}
	case AssertStepCount, AssertRecordCount:
		if a.Count < 0 {
			return fmt.Errorf("count must be non-negative for %s", a.Type)
		}
	case AssertListenerCount:
		switch a.Of {
		case "", "engine", "target", "model":
		case "layer":
			if a.Layer == "" || !known(a.Layer) {
				return fmt.Errorf("a known layer is required for listener_count of layer")
			}
		default:
			return fmt.Errorf("unknown listener_count subject %q", a.Of)
		}
		if a.Count < 0 {
			return fmt.Errorf("count must be non-negative for listener_count")
		}
	case "":
		return fmt.Errorf("type is required")
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}
