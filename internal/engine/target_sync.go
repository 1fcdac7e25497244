package engine

import (
	"github.com/roach88/layersync/internal/ir"
	"github.com/roach88/layersync/internal/layer"
)

// onTargetAdd mirrors a layer added to the target into the model.
func (e *Engine) onTargetAdd(ev layer.CollectionEvent) {
	if e.guarded(guardAdding) {
		return
	}
	el := ev.Element
	prev := e.reuse
	e.reuse = reuse{}

	if rec, ok := e.pairs.record(el); ok {
		e.logger.Debug("layer already has a record",
			"layer", layer.IDOf(el),
			"record", rec.ID,
		)
		return
	}

	rec := prev.record
	if prev.element != el || rec == nil {
		res := e.model.Read(el)
		if !res.Success || len(res.Records) == 0 {
			e.logger.Warn("layer import failed",
				"layer", layer.IDOf(el),
				"error", res.Err,
			)
			return
		}
		rec = res.Records[0]
	} else {
		// The layer may have been retitled while detached.
		rec.Title = layer.TitleOf(el)
	}

	index := min(ev.Index, e.model.Len())
	var err error
	e.withGuard(guardAdding, func() {
		err = e.model.Insert(index, rec)
	})
	if err != nil {
		e.logger.Warn("record insert failed",
			"layer", layer.IDOf(el),
			"record", rec.ID,
			"error", err,
		)
		return
	}

	e.pairs.put(rec)
	e.subs.listen(el, e.onPropertyChange)
	e.step(ir.DirTargetToModel, ir.OpInsert, layer.IDOf(el), rec.ID, index, 0)
}

// onTargetRemove mirrors a layer removed from the target into the model.
func (e *Engine) onTargetRemove(ev layer.CollectionEvent) {
	if e.guarded(guardRemoving) {
		return
	}
	el := ev.Element
	e.reuse = reuse{}

	rec, ok := e.pairs.record(el)
	if !ok {
		e.logger.Debug("removed layer has no record", "layer", layer.IDOf(el))
		return
	}
	e.subs.unlisten(el)
	e.pairs.deleteRecord(rec)

	index := e.model.IndexOf(rec)
	e.withGuard(guardRemoving, func() {
		e.model.Remove(rec)
	})

	e.reuse = reuse{element: el, record: rec}
	e.step(ir.DirTargetToModel, ir.OpRemove, layer.IDOf(el), rec.ID, index, 0)
}

// onPropertyChange mirrors a layer property change into the model. The
// title is written straight into the record; any other key fires the
// generic changed notification.
func (e *Engine) onPropertyChange(pc layer.PropertyChange) {
	rec, ok := e.pairs.record(pc.Target)
	if !ok {
		e.logger.Debug("changed layer has no record",
			"layer", layer.IDOf(pc.Target),
			"key", pc.Key,
		)
		return
	}

	if pc.Key == ir.PropTitle {
		title := layer.TitleOf(pc.Target)
		if rec.Title == title {
			return
		}
		rec.Title = title
		e.step(ir.DirTargetToModel, ir.OpTitle, layer.IDOf(pc.Target), rec.ID, -1, 0)
		return
	}

	e.model.FireChanged(rec, pc.Key)
	e.step(ir.DirTargetToModel, ir.OpChanged, layer.IDOf(pc.Target), rec.ID, -1, 0)
}

// stopListeningAll detaches every property listener and returns the number
// of elements that were being watched.
func (e *Engine) stopListeningAll() int {
	n := len(e.subs.props)
	e.subs.unlistenAll()
	return n
}

