package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/layersync/internal/ir"
)

// Manifest is a named, ordered list of layers.
type Manifest struct {
	Name   string         `json:"name"`
	Layers []ir.LayerSpec `json:"layers"`
}

// CompileManifest parses a CUE value into a Manifest.
//
// The value should be the manifest struct itself, e.g.:
//
//	v := ctx.CompileString(`manifest: base: { layers: [...] }`)
//	m, err := CompileManifest(v.LookupPath(cue.ParsePath("manifest.base")))
func CompileManifest(v cue.Value) (*Manifest, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	m := &Manifest{}
	if sels := v.Path().Selectors(); len(sels) > 0 {
		m.Name = sels[len(sels)-1].String()
	}

	layersVal := v.LookupPath(cue.ParsePath("layers"))
	if !layersVal.Exists() {
		return nil, &CompileError{
			Field:   "layers",
			Message: "layers is required",
			Pos:     v.Pos(),
		}
	}
	iter, err := layersVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	for i := 0; iter.Next(); i++ {
		spec, err := compileLayer(iter.Value(), i)
		if err != nil {
			return nil, err
		}
		m.Layers = append(m.Layers, spec)
	}
	return m, nil
}

// CompileManifests compiles every field under "manifest" of v, in
// declaration order.
func CompileManifests(v cue.Value) ([]Manifest, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	root := v.LookupPath(cue.ParsePath("manifest"))
	if !root.Exists() {
		return nil, nil
	}
	iter, err := root.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var out []Manifest
	for iter.Next() {
		m, err := CompileManifest(iter.Value())
		if err != nil {
			return nil, fmt.Errorf("manifest.%s: %w", iter.Selector(), err)
		}
		out = append(out, *m)
	}
	return out, nil
}

// CompileSource compiles CUE source text. filename is used for positions.
func CompileSource(src []byte, filename string) ([]Manifest, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(src, cue.Filename(filename))
	return CompileManifests(v)
}

func compileLayer(v cue.Value, index int) (ir.LayerSpec, error) {
	field := fmt.Sprintf("layers[%d]", index)
	var spec ir.LayerSpec

	idVal := v.LookupPath(cue.ParsePath("id"))
	if !idVal.Exists() {
		return spec, &CompileError{Field: field + ".id", Message: "id is required", Pos: v.Pos()}
	}
	id, err := idVal.String()
	if err != nil {
		return spec, formatCUEError(err)
	}
	spec.ID = id

	if titleVal := v.LookupPath(cue.ParsePath("title")); titleVal.Exists() {
		if d, ok := titleVal.Default(); ok {
			titleVal = d
		}
		title, err := titleVal.String()
		if err != nil {
			return spec, formatCUEError(err)
		}
		spec.Title = title
	}

	if propsVal := v.LookupPath(cue.ParsePath("props")); propsVal.Exists() {
		props, err := valueToIR(propsVal, field+".props")
		if err != nil {
			return spec, err
		}
		obj, ok := props.(ir.IRObject)
		if !ok {
			return spec, &CompileError{Field: field + ".props", Message: "props must be a struct", Pos: propsVal.Pos()}
		}
		spec.Props = obj
	}
	return spec, nil
}

// valueToIR converts a concrete CUE value into an IRValue.
// Floats are forbidden.
func valueToIR(v cue.Value, field string) (ir.IRValue, error) {
	if d, ok := v.Default(); ok {
		v = d
	}
	switch v.IncompleteKind() {
	case cue.NullKind:
		return ir.IRNull{}, nil
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.IRString(s), nil
	case cue.IntKind:
		n, err := v.Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.IRInt(n), nil
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.IRBool(b), nil
	case cue.ListKind:
		iter, err := v.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		arr := ir.IRArray{}
		for i := 0; iter.Next(); i++ {
			elem, err := valueToIR(iter.Value(), fmt.Sprintf("%s[%d]", field, i))
			if err != nil {
				return nil, err
			}
			arr = append(arr, elem)
		}
		return arr, nil
	case cue.StructKind:
		iter, err := v.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		obj := ir.IRObject{}
		for iter.Next() {
			key := iter.Selector().Unquoted()
			elem, err := valueToIR(iter.Value(), field+"."+key)
			if err != nil {
				return nil, err
			}
			obj[key] = elem
		}
		return obj, nil
	case cue.FloatKind, cue.NumberKind:
		return nil, &CompileError{
			Field:   field,
			Message: "floats are not allowed in layer properties, use int instead",
			Pos:     v.Pos(),
		}
	default:
		return nil, &CompileError{
			Field:   field,
			Message: fmt.Sprintf("unsupported value kind: %v", v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	}
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
