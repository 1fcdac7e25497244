package engine

import (
	"log/slog"

	"github.com/roach88/layersync/internal/event"
	"github.com/roach88/layersync/internal/ir"
	"github.com/roach88/layersync/internal/layer"
	"github.com/roach88/layersync/internal/model"
)

// BindEvent is emitted after an engine was bound to or unbound from Target.
type BindEvent struct {
	Target Target
}

// Engine synchronizes one model with at most one bound target.
type Engine struct {
	model    Model
	target   Target
	logger   *slog.Logger
	clock    StepClock
	observer func(ir.SyncStep)

	guards guard
	pairs  *pairs
	subs   *subscriptions
	reuse  reuse

	destroyKey event.Key
	destroyed  bool

	bound   event.Emitter[BindEvent]
	unbound event.Emitter[BindEvent]
}

// reuse remembers the pair dissolved by the latest target removal, so an
// immediately following re-insert of the same layer (a reorder) keeps the
// record instead of importing a new one.
type reuse struct {
	element layer.Element
	record  *model.Record
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithClock sets the clock stamping sync steps. Default: NewClock().
func WithClock(c StepClock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithObserver registers fn to receive every sync step the engine performs.
func WithObserver(fn func(ir.SyncStep)) Option {
	return func(e *Engine) {
		e.observer = fn
	}
}

// New creates an unbound engine for m. The engine unbinds itself when m is
// destroyed.
func New(m Model, opts ...Option) *Engine {
	e := &Engine{
		model:   m,
		logger:  slog.Default(),
		clock:   NewClock(),
		pairs:   newPairs(),
		subs:    newSubscriptions(),
		bound:   event.Emitter[BindEvent]{Name: "engine.bound"},
		unbound: event.Emitter[BindEvent]{Name: "engine.unbound"},
	}
	for _, opt := range opts {
		opt(e)
	}
	e.destroyKey = m.OnDestroy(func(model.DestroyEvent) {
		e.Unbind()
		e.destroyed = true
	})
	return e
}

// Bind attaches the engine to t.
//
// Every element of t without a record is imported into the model (appended,
// nothing is cleared), then listeners are attached to both collections and
// a bound notification is emitted. Binding the target that is already bound
// is a no-op; binding a different one leaves the stored target unchanged
// and returns ErrAlreadyBound. Once the engine or its model was destroyed,
// Bind returns ErrDestroyed. If the import fails, nothing is mutated and a
// SyncError is returned.
func (e *Engine) Bind(t Target) error {
	if t == nil {
		return ErrNilTarget
	}
	if e.destroyed {
		return ErrDestroyed
	}
	if e.target != nil {
		if e.target == t {
			return nil
		}
		return ErrAlreadyBound
	}

	if err := e.importMissing(t); err != nil {
		return err
	}

	e.target = t
	e.pairs.rebuild(e.model)
	t.ForEach(func(el layer.Element, _ int) {
		e.subs.listen(el, e.onPropertyChange)
	})

	e.subs.track("target.add", t.Unlisten, t.OnAdd(e.onTargetAdd))
	e.subs.track("target.remove", t.Unlisten, t.OnRemove(e.onTargetRemove))
	e.subs.track("model.load", e.model.Unlisten, e.model.OnLoad(e.onModelLoad))
	e.subs.track("model.clear", e.model.Unlisten, e.model.OnClear(e.onModelClear))
	e.subs.track("model.add", e.model.Unlisten, e.model.OnAdd(e.onModelAdd))
	e.subs.track("model.remove", e.model.Unlisten, e.model.OnRemove(e.onModelRemove))
	e.subs.track("model.update", e.model.Unlisten, e.model.OnUpdate(e.onModelUpdate))
	storage := e.model.Storage()
	e.subs.track("storage.replace", storage.Unlisten, storage.OnReplace(e.onModelReplace))

	e.step(ir.DirLifecycle, ir.OpBind, "", "", -1, t.Len())
	e.logger.Info("bound",
		"layers", t.Len(),
		"records", e.model.Len(),
	)
	e.bound.Emit(BindEvent{Target: t})
	return nil
}

// importMissing appends a record for every element of t that has none.
func (e *Engine) importMissing(t Target) error {
	have := make(map[layer.Element]bool, e.model.Len())
	for i := 0; i < e.model.Len(); i++ {
		have[e.model.At(i).Layer] = true
	}

	var missing []layer.Element
	t.ForEach(func(el layer.Element, _ int) {
		if !have[el] {
			missing = append(missing, el)
		}
	})
	if len(missing) == 0 {
		return nil
	}

	res := e.model.Read(missing...)
	if !res.Success {
		e.logger.Warn("layer import failed",
			"total", res.Total,
			"error", res.Err,
		)
		return NewImportError(res.Total, res.Err)
	}
	if err := e.model.Load(res.Records, true); err != nil {
		e.logger.Warn("layer import rejected by model",
			"total", len(res.Records),
			"error", err,
		)
		return NewImportError(len(res.Records), err)
	}

	e.step(ir.DirLifecycle, ir.OpImport, "", "", -1, len(res.Records))
	return nil
}

// Unbind detaches every listener attached by Bind, in reverse order, and
// forgets the target. Unbinding an unbound engine is a no-op.
func (e *Engine) Unbind() {
	if e.target == nil {
		return
	}
	t := e.target

	e.subs.release()
	e.subs.unlistenAll()
	e.pairs.reset()
	e.reuse = reuse{}
	e.target = nil

	e.step(ir.DirLifecycle, ir.OpUnbind, "", "", -1, 0)
	e.logger.Info("unbound")
	e.unbound.Emit(BindEvent{Target: t})
}

// Destroy unbinds the engine and detaches it from the model for good.
func (e *Engine) Destroy() {
	if e.destroyed {
		return
	}
	e.Unbind()
	e.model.Unlisten(e.destroyKey)
	e.destroyed = true
}

// ByLayer returns the record bound to el.
func (e *Engine) ByLayer(el layer.Element) (*model.Record, bool) {
	return e.pairs.record(el)
}

// Layer returns the element bound to rec.
func (e *Engine) Layer(rec *model.Record) (layer.Element, bool) {
	return e.pairs.layer(rec)
}

// Target returns the bound target, or nil.
func (e *Engine) Target() Target {
	return e.target
}

// Bound reports whether a target is bound.
func (e *Engine) Bound() bool {
	return e.target != nil
}

// Model returns the model the engine was created for.
func (e *Engine) Model() Model {
	return e.model
}

// OnBound registers a listener for bound notifications.
func (e *Engine) OnBound(h event.Handler[BindEvent]) event.Key {
	return e.bound.On(h)
}

// OnUnbound registers a listener for unbound notifications.
func (e *Engine) OnUnbound(h event.Handler[BindEvent]) event.Key {
	return e.unbound.On(h)
}

// Unlisten removes a listener registered with OnBound or OnUnbound.
func (e *Engine) Unlisten(key event.Key) bool {
	return e.bound.Off(key) || e.unbound.Off(key)
}

// ListenerCount returns the number of listeners the engine holds on the
// two collections and their elements.
func (e *Engine) ListenerCount() int {
	return e.subs.count()
}

func (e *Engine) step(dir ir.Direction, op ir.Op, layerID, recordID string, index, count int) {
	s := ir.SyncStep{
		Seq:       e.clock.Next(),
		Direction: dir,
		Op:        op,
		LayerID:   layerID,
		RecordID:  recordID,
		Index:     index,
		Count:     count,
	}
	e.logger.Debug("sync step",
		"seq", s.Seq,
		"direction", s.Direction,
		"op", s.Op,
		"layer", s.LayerID,
		"record", s.RecordID,
		"index", s.Index,
	)
	if e.observer != nil {
		e.observer(s)
	}
}
