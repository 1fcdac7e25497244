package engine

import (
	"github.com/roach88/layersync/internal/event"
	"github.com/roach88/layersync/internal/layer"
)

// attachment is one collection-level listener registered by Bind.
type attachment struct {
	name string
	off  func(event.Key) bool
	key  event.Key
}

// subscriptions tracks every listener the engine attached, so that exactly
// those listeners are detached again.
type subscriptions struct {
	props    map[layer.Element]event.Key
	attached []attachment
}

func newSubscriptions() *subscriptions {
	return &subscriptions{props: make(map[layer.Element]event.Key)}
}

// listen attaches h to el's property changes. Attaching twice is a no-op.
func (s *subscriptions) listen(el layer.Element, h event.Handler[layer.PropertyChange]) bool {
	if el == nil {
		return false
	}
	if _, ok := s.props[el]; ok {
		return false
	}
	s.props[el] = el.OnPropertyChange(h)
	return true
}

// unlisten detaches the property listener attached to el, if any.
func (s *subscriptions) unlisten(el layer.Element) bool {
	key, ok := s.props[el]
	if !ok {
		return false
	}
	el.Unlisten(key)
	delete(s.props, el)
	return true
}

// unlistenAll detaches every property listener.
func (s *subscriptions) unlistenAll() {
	for el, key := range s.props {
		el.Unlisten(key)
	}
	clear(s.props)
}

func (s *subscriptions) listening(el layer.Element) bool {
	_, ok := s.props[el]
	return ok
}

// track records a collection-level listener for release.
func (s *subscriptions) track(name string, off func(event.Key) bool, key event.Key) {
	s.attached = append(s.attached, attachment{name: name, off: off, key: key})
}

// release detaches tracked listeners in reverse order of attachment.
func (s *subscriptions) release() {
	for i := len(s.attached) - 1; i >= 0; i-- {
		a := s.attached[i]
		a.off(a.key)
	}
	s.attached = nil
}

func (s *subscriptions) count() int {
	return len(s.props) + len(s.attached)
}
