package engine

import (
	"github.com/roach88/layersync/internal/ir"
	"github.com/roach88/layersync/internal/layer"
	"github.com/roach88/layersync/internal/model"
)

// onModelLoad rebuilds the target after a successful load. A replacing load
// clears the target first; an additive one only appends.
func (e *Engine) onModelLoad(ev model.LoadEvent) {
	if !ev.Success {
		e.logger.Debug("ignoring failed load", "error", ev.Err)
		return
	}
	e.reuse = reuse{}

	if !ev.Additive {
		e.stopListeningAll()
		e.withGuard(guardRemoving, e.target.Clear)
	}

	elems := make([]layer.Element, 0, len(ev.Records))
	seen := make(map[layer.Element]bool, len(ev.Records))
	for _, rec := range ev.Records {
		if seen[rec.Layer] || e.target.IndexOf(rec.Layer) >= 0 {
			e.logger.Debug("loaded layer already in target", "layer", rec.LayerID())
			continue
		}
		seen[rec.Layer] = true
		elems = append(elems, rec.Layer)
	}

	var err error
	e.withGuard(guardAdding, func() {
		err = e.target.Extend(elems...)
	})
	if err != nil {
		e.logger.Warn("target extend failed", "error", err)
	}

	e.pairs.rebuild(e.model)
	e.target.ForEach(func(el layer.Element, _ int) {
		if _, ok := e.pairs.record(el); ok {
			e.subs.listen(el, e.onPropertyChange)
		}
	})
	e.step(ir.DirModelToTarget, ir.OpReload, "", "", -1, len(elems))
}

// onModelClear empties the target after the model was cleared.
func (e *Engine) onModelClear(model.ClearEvent) {
	e.reuse = reuse{}
	e.stopListeningAll()
	n := e.target.Len()
	e.withGuard(guardRemoving, e.target.Clear)
	e.pairs.reset()
	e.step(ir.DirModelToTarget, ir.OpClear, "", "", -1, n)
}

// onModelAdd inserts the layers of added records into the target. The k-th
// record of the batch lands at Index+k.
func (e *Engine) onModelAdd(ev model.AddEvent) {
	if e.guarded(guardAdding) {
		return
	}
	e.reuse = reuse{}

	e.withGuard(guardAdding, func() {
		for k, rec := range ev.Records {
			e.insertLayer(rec, ev.Index+k, ir.OpInsert)
		}
	})
}

// insertLayer puts rec's layer at index (appending past the end), pairs
// them and records a step with op.
func (e *Engine) insertLayer(rec *model.Record, index int, op ir.Op) {
	el := rec.Layer
	var err error
	if index >= e.target.Len() {
		index = e.target.Len()
		err = e.target.Push(el)
	} else {
		err = e.target.InsertAt(max(index, 0), el)
	}
	if err != nil {
		e.logger.Warn("layer insert failed",
			"layer", rec.LayerID(),
			"record", rec.ID,
			"error", err,
		)
		return
	}
	e.pairs.put(rec)
	e.subs.listen(el, e.onPropertyChange)
	e.step(ir.DirModelToTarget, op, rec.LayerID(), rec.ID, index, 0)
}

// onModelRemove removes the layer of a removed record from the target.
func (e *Engine) onModelRemove(ev model.RemoveEvent) {
	if e.guarded(guardRemoving) {
		return
	}
	e.reuse = reuse{}

	if index := e.removeLayer(ev.Record); index >= 0 {
		e.step(ir.DirModelToTarget, ir.OpRemove, ev.Record.LayerID(), ev.Record.ID, index, 0)
	}
}

// removeLayer stops listening to rec's layer, dissolves the pair and removes
// the layer from the target when still present. Returns the position the
// layer occupied, or -1.
func (e *Engine) removeLayer(rec *model.Record) int {
	el, ok := e.pairs.layer(rec)
	if !ok {
		el = rec.Layer
	}
	e.subs.unlisten(el)
	e.pairs.deleteRecord(rec)

	index := e.target.IndexOf(el)
	if index < 0 {
		e.logger.Debug("removed record's layer not in target",
			"layer", layer.IDOf(el),
			"record", rec.ID,
		)
		return -1
	}
	e.withGuard(guardRemoving, func() {
		e.target.Remove(el)
	})
	return index
}

// onModelReplace handles a record swapped into an occupied slot. The old
// record's layer leaves the target; a different layer carried by the new
// record takes its position.
func (e *Engine) onModelReplace(ev model.ReplaceEvent) {
	e.reuse = reuse{}

	if ev.New != nil && ev.Old != nil && ev.New.Layer == ev.Old.Layer {
		e.pairs.deleteRecord(ev.Old)
		e.pairs.put(ev.New)
		e.step(ir.DirModelToTarget, ir.OpReplace, ev.New.LayerID(), ev.New.ID, e.target.IndexOf(ev.New.Layer), 0)
		return
	}

	index := -1
	if ev.Old != nil {
		index = e.removeLayer(ev.Old)
	}
	if ev.New == nil || ev.New.Layer == nil {
		return
	}
	if e.target.IndexOf(ev.New.Layer) >= 0 {
		e.logger.Debug("replacement layer already in target", "layer", ev.New.LayerID())
		e.pairs.put(ev.New)
		return
	}
	if index < 0 {
		index = ev.Index
	}
	e.withGuard(guardAdding, func() {
		e.insertLayer(ev.New, index, ir.OpReplace)
	})
}

// onModelUpdate pushes an edited record title onto its layer. Other fields
// and other operations are not mirrored.
func (e *Engine) onModelUpdate(ev model.UpdateEvent) {
	if ev.Op != model.OpEdit {
		return
	}
	el, ok := e.pairs.layer(ev.Record)
	if !ok {
		e.logger.Debug("updated record has no layer", "record", ev.Record.ID)
		return
	}
	title := ir.IRString(ev.Record.Title)
	if ir.Equal(el.Get(ir.PropTitle), title) {
		return
	}
	el.Set(ir.PropTitle, title)
	e.step(ir.DirModelToTarget, ir.OpTitle, layer.IDOf(el), ev.Record.ID, -1, 0)
}
