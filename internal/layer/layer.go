package layer

import (
	"github.com/roach88/layersync/internal/event"
	"github.com/roach88/layersync/internal/ir"
)

// Element is one member of a target collection. Implementations must be
// pointer types: elements are compared and indexed by identity.
type Element interface {
	// Get returns the value stored under key, or ir.IRNull when unset.
	Get(key string) ir.IRValue

	// Set stores value under key and notifies property-change listeners
	// when the value actually changed.
	Set(key string, value ir.IRValue)

	// OnPropertyChange registers h and returns a key for Unlisten.
	OnPropertyChange(h event.Handler[PropertyChange]) event.Key

	// Unlisten removes a listener registered with OnPropertyChange.
	Unlisten(key event.Key) bool
}

// PropertyChange is emitted by an Element after one of its properties changed.
type PropertyChange struct {
	Target Element
	Key    string
	Old    ir.IRValue
}

// Layer is the concrete Element used by the CLI, the harness and tests.
type Layer struct {
	props   ir.IRObject
	changes event.Emitter[PropertyChange]
}

// New creates a layer holding a copy of props.
func New(props ir.IRObject) *Layer {
	return &Layer{
		props:   props.Clone(),
		changes: event.Emitter[PropertyChange]{Name: "layer.propertychange"},
	}
}

// FromSpec creates a layer from a declarative spec.
func FromSpec(spec ir.LayerSpec) *Layer {
	return New(spec.Properties())
}

// ID returns the "id" property as a string.
func (l *Layer) ID() string {
	return ir.AsString(l.Get(ir.PropID))
}

// Title returns the "title" property as a string.
func (l *Layer) Title() string {
	return ir.AsString(l.Get(ir.PropTitle))
}

// Get implements Element.
func (l *Layer) Get(key string) ir.IRValue {
	v, ok := l.props[key]
	if !ok || v == nil {
		return ir.IRNull{}
	}
	return v
}

// Set implements Element. Setting a key to a value equal to the current one
// does not notify.
func (l *Layer) Set(key string, value ir.IRValue) {
	if value == nil {
		value = ir.IRNull{}
	}
	old := l.Get(key)
	if ir.Equal(old, value) {
		return
	}
	l.props[key] = value
	l.changes.Emit(PropertyChange{Target: l, Key: key, Old: old})
}

// Properties returns a copy of every property of the layer.
func (l *Layer) Properties() ir.IRObject {
	return l.props.Clone()
}

// OnPropertyChange implements Element.
func (l *Layer) OnPropertyChange(h event.Handler[PropertyChange]) event.Key {
	return l.changes.On(h)
}

// Unlisten implements Element.
func (l *Layer) Unlisten(key event.Key) bool {
	return l.changes.Off(key)
}

// ListenerCount returns the number of property-change listeners attached.
func (l *Layer) ListenerCount() int {
	return l.changes.Len()
}

// IDOf returns the "id" property of any element, or "" when unset.
func IDOf(e Element) string {
	if e == nil {
		return ""
	}
	return ir.AsString(e.Get(ir.PropID))
}

// TitleOf returns the "title" property of any element, or "" when unset.
func TitleOf(e Element) string {
	if e == nil {
		return ""
	}
	return ir.AsString(e.Get(ir.PropTitle))
}
