package model

import (
	"github.com/roach88/layersync/internal/ir"
	"github.com/roach88/layersync/internal/layer"
)

// Record is one entry of the model collection.
type Record struct {
	// ID is unique within a Store.
	ID string

	// Title mirrors the "title" property of Layer.
	Title string

	// Layer is the backing element. Never nil for a record in a Store.
	Layer layer.Element

	// Fields holds descriptive data the sync engine does not interpret.
	Fields ir.IRObject
}

// Get returns the value of a record field. "id" and "title" read the
// dedicated attributes.
func (r *Record) Get(key string) ir.IRValue {
	switch key {
	case ir.PropID:
		return ir.IRString(r.ID)
	case ir.PropTitle:
		return ir.IRString(r.Title)
	}
	if v, ok := r.Fields[key]; ok && v != nil {
		return v
	}
	return ir.IRNull{}
}

// LayerID returns the "id" property of the backing layer.
func (r *Record) LayerID() string {
	return layer.IDOf(r.Layer)
}
