package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/layersync/internal/ir"
)

// Validation error codes (E100-E199)
const (
	ErrManifestNameEmpty = "E101" // manifest needs a name
	ErrLayerIDEmpty      = "E102" // layer id is required
	ErrDuplicateLayerID  = "E103" // layer id used twice in one manifest
	ErrReservedProp      = "E104" // props must not redefine id or title
	ErrLayerIDWhitespace = "E105" // layer id has surrounding whitespace
)

// ValidationError represents a manifest validation error.
type ValidationError struct {
	Manifest string `json:"manifest,omitempty"`
	Field    string `json:"field"`
	Message  string `json:"message"`
	Code     string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Manifest != "" {
		return fmt.Sprintf("[%s] manifest %s: %s: %s", e.Code, e.Manifest, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a compiled manifest. Returns all errors found (does not
// fail fast).
func Validate(m *Manifest) []ValidationError {
	var errs []ValidationError
	add := func(field, code, format string, args ...any) {
		errs = append(errs, ValidationError{
			Manifest: m.Name,
			Field:    field,
			Message:  fmt.Sprintf(format, args...),
			Code:     code,
		})
	}

	if strings.TrimSpace(m.Name) == "" {
		add("name", ErrManifestNameEmpty, "manifest name is required")
	}

	seen := make(map[string]int, len(m.Layers))
	for i, l := range m.Layers {
		field := fmt.Sprintf("layers[%d]", i)

		switch {
		case l.ID == "":
			add(field+".id", ErrLayerIDEmpty, "layer id is required")
		case strings.TrimSpace(l.ID) != l.ID:
			add(field+".id", ErrLayerIDWhitespace, "layer id %q has surrounding whitespace", l.ID)
		}

		if l.ID != "" {
			if first, ok := seen[l.ID]; ok {
				add(field+".id", ErrDuplicateLayerID, "layer id %q already used by layers[%d]", l.ID, first)
			} else {
				seen[l.ID] = i
			}
		}

		for _, key := range []string{ir.PropID, ir.PropTitle} {
			if _, ok := l.Props[key]; ok {
				add(field+".props."+key, ErrReservedProp, "%q is set on the layer itself, not in props", key)
			}
		}
	}
	return errs
}
