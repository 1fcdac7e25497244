package engine

import (
	"github.com/roach88/layersync/internal/layer"
	"github.com/roach88/layersync/internal/model"
)

// pairs is the bidirectional record <-> layer index. Keys are compared by
// identity; two layers with equal properties are different keys.
type pairs struct {
	byLayer  map[layer.Element]*model.Record
	byRecord map[*model.Record]layer.Element
}

func newPairs() *pairs {
	return &pairs{
		byLayer:  make(map[layer.Element]*model.Record),
		byRecord: make(map[*model.Record]layer.Element),
	}
}

// record returns the record bound to el.
func (p *pairs) record(el layer.Element) (*model.Record, bool) {
	rec, ok := p.byLayer[el]
	return rec, ok
}

// layer returns the element bound to rec.
func (p *pairs) layer(rec *model.Record) (layer.Element, bool) {
	el, ok := p.byRecord[rec]
	return el, ok
}

// put binds rec to its backing layer, dropping any pair either side was
// part of before.
func (p *pairs) put(rec *model.Record) {
	if rec == nil || rec.Layer == nil {
		return
	}
	if old, ok := p.byLayer[rec.Layer]; ok && old != rec {
		delete(p.byRecord, old)
	}
	if old, ok := p.byRecord[rec]; ok && old != rec.Layer {
		delete(p.byLayer, old)
	}
	p.byLayer[rec.Layer] = rec
	p.byRecord[rec] = rec.Layer
}

// deleteRecord dissolves the pair rec is part of.
func (p *pairs) deleteRecord(rec *model.Record) {
	if el, ok := p.byRecord[rec]; ok {
		delete(p.byLayer, el)
		delete(p.byRecord, rec)
	}
}

// rebuild replaces the index with one pair per record of m.
func (p *pairs) rebuild(m Model) {
	p.reset()
	for i := 0; i < m.Len(); i++ {
		p.put(m.At(i))
	}
}

func (p *pairs) reset() {
	clear(p.byLayer)
	clear(p.byRecord)
}

func (p *pairs) len() int {
	return len(p.byRecord)
}
