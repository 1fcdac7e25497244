package harness

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/roach88/layersync/internal/compiler"
	"github.com/roach88/layersync/internal/engine"
	"github.com/roach88/layersync/internal/ir"
	"github.com/roach88/layersync/internal/layer"
	"github.com/roach88/layersync/internal/model"
	"github.com/roach88/layersync/internal/testutil"
)

// Harness holds the collections, engine and counters of one scenario run.
type Harness struct {
	store  *model.Store
	target *layer.Collection
	engine *engine.Engine
	clock  *testutil.DeterministicClock
	logger *slog.Logger

	layers map[string]*layer.Layer
	trace  []ir.SyncStep
	events map[string]int

	// listeners the harness itself holds on the collections
	ownTarget int
	ownModel  int
}

// Option configures a scenario run.
type Option func(*Harness)

// WithLogger sets the logger handed to the store and the engine.
// Default: a logger that discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) {
		h.logger = l
	}
}

// Run executes a scenario and returns its result.
//
// Every run uses fresh collections, a deterministic step clock and
// sequential record IDs, so the same scenario always yields the same trace.
// Setup problems (bad manifest, unknown layers) are returned as errors;
// failing steps and assertions are reported in the result.
func Run(s *Scenario, opts ...Option) (*Result, error) {
	h := &Harness{
		clock:  testutil.NewDeterministicClock(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		layers: make(map[string]*layer.Layer),
		events: make(map[string]int),
	}
	for _, opt := range opts {
		opt(h)
	}

	if err := h.setup(s); err != nil {
		return nil, err
	}

	result := NewResult()
	h.attachCounters()
	for i, step := range s.Steps {
		err := h.apply(step)
		switch {
		case step.ExpectError && err == nil:
			result.AddError(fmt.Sprintf("steps[%d] %s: expected an error", i, step.Op))
		case !step.ExpectError && err != nil:
			result.AddError(fmt.Sprintf("steps[%d] %s: %v", i, step.Op, err))
		}
		h.logger.Debug("scenario step applied",
			"scenario", s.Name,
			"step", i,
			"op", step.Op,
			"error", err,
		)
	}

	for _, msg := range EvaluateAssertions(h, s.Assertions) {
		result.AddError(msg)
	}

	result.Trace = append(result.Trace, h.trace...)
	hash, err := ir.TraceDigest(result.Trace)
	if err != nil {
		return nil, fmt.Errorf("failed to hash trace: %w", err)
	}
	result.TraceHash = hash
	result.ModelOrder = h.modelOrder()
	result.TargetOrder = h.targetOrder()
	return result, nil
}

// setup builds the layer pool, both collections and the engine, and binds
// unless the scenario says otherwise.
func (h *Harness) setup(s *Scenario) error {
	specs, err := layerPool(s)
	if err != nil {
		return err
	}
	order := make([]string, 0, len(specs))
	for _, spec := range specs {
		if _, dup := h.layers[spec.ID]; dup {
			return fmt.Errorf("duplicate layer %q", spec.ID)
		}
		h.layers[spec.ID] = layer.FromSpec(spec)
		order = append(order, spec.ID)
	}

	targetIDs := s.Target
	if s.Target == nil && s.Model == nil {
		targetIDs = order
	}
	targetElems, err := h.elements(targetIDs)
	if err != nil {
		return fmt.Errorf("target: %w", err)
	}
	if h.target, err = layer.NewCollection(targetElems...); err != nil {
		return fmt.Errorf("target: %w", err)
	}

	h.store = model.NewStore(
		model.WithIDGenerator(model.NewSequentialGenerator("rec")),
		model.WithLogger(h.logger),
	)
	if len(s.Model) > 0 {
		modelElems, err := h.elements(s.Model)
		if err != nil {
			return fmt.Errorf("model: %w", err)
		}
		if err := h.store.LoadLayers(modelElems, false); err != nil {
			return fmt.Errorf("model: %w", err)
		}
	}

	h.engine = engine.New(h.store,
		engine.WithLogger(h.logger),
		engine.WithClock(h.clock),
		engine.WithObserver(func(step ir.SyncStep) {
			h.trace = append(h.trace, step)
		}),
	)
	if s.ShouldBind() {
		if err := h.engine.Bind(h.target); err != nil {
			return fmt.Errorf("bind: %w", err)
		}
	}
	return nil
}

// layerPool returns the scenario's inline layers followed by the layers of
// its manifest.
func layerPool(s *Scenario) ([]ir.LayerSpec, error) {
	specs := make([]ir.LayerSpec, 0, len(s.Layers))
	for i, def := range s.Layers {
		props, err := ir.ObjectFromMap(def.Props)
		if err != nil {
			return nil, fmt.Errorf("layers[%d]: %w", i, err)
		}
		specs = append(specs, ir.LayerSpec{ID: def.ID, Title: def.Title, Props: props})
	}
	if s.Manifest == "" {
		return specs, nil
	}

	m, err := loadManifest(s.Manifest, s.ManifestName)
	if err != nil {
		return nil, err
	}
	return append(specs, m.Layers...), nil
}

func loadManifest(path, name string) (*compiler.Manifest, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	manifests, err := compiler.CompileSource(src, path)
	if err != nil {
		return nil, fmt.Errorf("failed to compile manifest: %w", err)
	}

	var m *compiler.Manifest
	switch {
	case name != "":
		for i := range manifests {
			if manifests[i].Name == name {
				m = &manifests[i]
				break
			}
		}
		if m == nil {
			return nil, fmt.Errorf("manifest %q not found in %s", name, path)
		}
	case len(manifests) == 1:
		m = &manifests[0]
	default:
		return nil, fmt.Errorf("%s declares %d manifests; set manifest_name", path, len(manifests))
	}

	if verrs := compiler.Validate(m); len(verrs) > 0 {
		errs := make([]error, len(verrs))
		for i, ve := range verrs {
			errs[i] = ve
		}
		return nil, fmt.Errorf("invalid manifest: %w", errors.Join(errs...))
	}
	return m, nil
}

// attachCounters counts the raw notifications both collections raise while
// the steps run.
func (h *Harness) attachCounters() {
	h.target.OnAdd(func(layer.CollectionEvent) { h.events["target.add"]++ })
	h.target.OnRemove(func(layer.CollectionEvent) { h.events["target.remove"]++ })
	h.ownTarget = 2

	h.store.OnLoad(func(model.LoadEvent) { h.events["model.load"]++ })
	h.store.OnClear(func(model.ClearEvent) { h.events["model.clear"]++ })
	h.store.OnAdd(func(model.AddEvent) { h.events["model.add"]++ })
	h.store.OnRemove(func(model.RemoveEvent) { h.events["model.remove"]++ })
	h.store.OnUpdate(func(model.UpdateEvent) { h.events["model.update"]++ })
	h.store.Storage().OnReplace(func(model.ReplaceEvent) { h.events["model.replace"]++ })
	h.ownModel = 5
}

// apply performs one step.
func (h *Harness) apply(step Step) error {
	switch step.Op {
	case OpTargetInsert:
		l, err := h.layer(step.Layer)
		if err != nil {
			return err
		}
		if step.Index == nil {
			return h.target.Push(l)
		}
		return h.target.InsertAt(*step.Index, l)

	case OpTargetRemove:
		l, err := h.layer(step.Layer)
		if err != nil {
			return err
		}
		if !h.target.Remove(l) {
			return fmt.Errorf("layer %q is not in the target", step.Layer)
		}
		return nil

	case OpTargetMove:
		return h.target.Move(step.From, step.To)

	case OpTargetSet:
		l, err := h.layer(step.Layer)
		if err != nil {
			return err
		}
		v, err := ir.FromAny(step.Value)
		if err != nil {
			return err
		}
		l.Set(step.Key, v)
		return nil

	case OpTargetClear:
		h.target.Clear()
		return nil

	case OpModelInsert:
		rec, err := h.readRecord(step.Layer)
		if err != nil {
			return err
		}
		index := h.store.Len()
		if step.Index != nil {
			index = *step.Index
		}
		return h.store.Insert(index, rec)

	case OpModelRemove:
		rec, err := h.record(step.Layer)
		if err != nil {
			return err
		}
		h.store.Remove(rec)
		return nil

	case OpModelMove:
		return h.store.Move(step.From, step.To)

	case OpModelSet:
		rec, err := h.record(step.Layer)
		if err != nil {
			return err
		}
		v, err := ir.FromAny(step.Value)
		if err != nil {
			return err
		}
		return h.store.Set(rec, step.Key, v)

	case OpModelReplace:
		old, err := h.record(step.Layer)
		if err != nil {
			return err
		}
		next, err := h.readRecord(step.With)
		if err != nil {
			return err
		}
		return h.store.Replace(old, next)

	case OpModelLoad:
		elems, err := h.elements(step.Layers)
		if err != nil {
			return err
		}
		return h.store.LoadLayers(elems, step.Additive)

	case OpModelClear:
		h.store.RemoveAll()
		return nil

	case OpModelDestroy:
		h.store.Destroy()
		h.ownModel = 0
		return nil

	case OpBind:
		return h.engine.Bind(h.target)

	case OpUnbind:
		h.engine.Unbind()
		return nil
	}
	return fmt.Errorf("unknown op %q", step.Op)
}

func (h *Harness) layer(id string) (*layer.Layer, error) {
	l, ok := h.layers[id]
	if !ok {
		return nil, fmt.Errorf("unknown layer %q", id)
	}
	return l, nil
}

func (h *Harness) elements(ids []string) ([]layer.Element, error) {
	elems := make([]layer.Element, 0, len(ids))
	for _, id := range ids {
		l, err := h.layer(id)
		if err != nil {
			return nil, err
		}
		elems = append(elems, l)
	}
	return elems, nil
}

// record returns the model record backed by the layer with the given id.
func (h *Harness) record(id string) (*model.Record, error) {
	l, err := h.layer(id)
	if err != nil {
		return nil, err
	}
	i := h.store.FindIndexBy(func(r *model.Record) bool { return r.Layer == layer.Element(l) })
	if i < 0 {
		return nil, fmt.Errorf("layer %q has no record", id)
	}
	return h.store.At(i), nil
}

// readRecord builds a fresh record for the layer with the given id.
func (h *Harness) readRecord(id string) (*model.Record, error) {
	l, err := h.layer(id)
	if err != nil {
		return nil, err
	}
	res := h.store.Read(l)
	if !res.Success {
		return nil, res.Err
	}
	return res.Records[0], nil
}

func (h *Harness) modelOrder() []string {
	out := make([]string, 0, h.store.Len())
	for _, rec := range h.store.Records() {
		out = append(out, rec.LayerID())
	}
	return out
}

func (h *Harness) targetOrder() []string {
	out := make([]string, 0, h.target.Len())
	h.target.ForEach(func(e layer.Element, _ int) {
		out = append(out, layer.IDOf(e))
	})
	return out
}
