package model

import (
	"errors"
	"fmt"

	"github.com/roach88/layersync/internal/ir"
	"github.com/roach88/layersync/internal/layer"
)

var (
	// ErrNilLayer is returned when a record or read has no backing element.
	ErrNilLayer = errors.New("nil layer")

	// ErrInvalidTitle is returned when a title is not a string.
	ErrInvalidTitle = errors.New("title must be a string")
)

// ReadResult is the outcome of converting raw elements into records.
// A failed read carries no records.
type ReadResult struct {
	Success bool
	Total   int
	Records []*Record
	Err     error
}

// Reader converts layer elements into records.
type Reader interface {
	Read(elems ...layer.Element) ReadResult
}

// propertySource is implemented by elements that can list their properties.
type propertySource interface {
	Properties() ir.IRObject
}

// LayerReader derives one record per element. The record ID comes from IDs;
// the title is copied from the element. Reads are all-or-nothing.
type LayerReader struct {
	IDs IDGenerator
}

// NewLayerReader creates a reader using ids for record identifiers.
func NewLayerReader(ids IDGenerator) *LayerReader {
	return &LayerReader{IDs: ids}
}

// Read implements Reader.
func (r *LayerReader) Read(elems ...layer.Element) ReadResult {
	records := make([]*Record, 0, len(elems))
	for i, e := range elems {
		rec, err := r.read(e)
		if err != nil {
			return ReadResult{Total: len(elems), Err: fmt.Errorf("read element %d: %w", i, err)}
		}
		records = append(records, rec)
	}
	return ReadResult{Success: true, Total: len(elems), Records: records}
}

func (r *LayerReader) read(e layer.Element) (*Record, error) {
	if e == nil {
		return nil, ErrNilLayer
	}

	var title string
	switch v := e.Get(ir.PropTitle).(type) {
	case ir.IRNull:
	case ir.IRString:
		title = string(v)
	default:
		return nil, fmt.Errorf("layer %q has title of type %T: %w", layer.IDOf(e), v, ErrInvalidTitle)
	}

	fields := ir.IRObject{}
	if src, ok := e.(propertySource); ok {
		fields = src.Properties()
		delete(fields, ir.PropID)
		delete(fields, ir.PropTitle)
	}

	return &Record{
		ID:     r.IDs.Generate(),
		Title:  title,
		Layer:  e,
		Fields: fields,
	}, nil
}
