package layer

import (
	"errors"
	"fmt"
	"slices"

	"github.com/roach88/layersync/internal/event"
)

var (
	// ErrNilElement is returned when a nil element is added.
	ErrNilElement = errors.New("nil element")

	// ErrDuplicate is returned when an element is already in the collection.
	ErrDuplicate = errors.New("element already in collection")

	// ErrIndexOutOfRange is returned for positions outside the collection.
	ErrIndexOutOfRange = errors.New("index out of range")
)

// CollectionEvent is emitted after an element was added to or removed from
// a Collection. Index is the position the element occupies (add) or
// occupied (remove).
type CollectionEvent struct {
	Element Element
	Index   int
}

// Collection is an ordered set of elements, the layer list of a map.
//
// Not safe for concurrent use.
type Collection struct {
	items   []Element
	added   event.Emitter[CollectionEvent]
	removed event.Emitter[CollectionEvent]
}

// NewCollection creates a collection holding elems in order. No
// notifications are emitted for the initial elements.
func NewCollection(elems ...Element) (*Collection, error) {
	c := &Collection{
		added:   event.Emitter[CollectionEvent]{Name: "collection.add"},
		removed: event.Emitter[CollectionEvent]{Name: "collection.remove"},
	}
	for _, e := range elems {
		if err := c.check(e); err != nil {
			return nil, err
		}
		c.items = append(c.items, e)
	}
	return c, nil
}

// Len returns the number of elements.
func (c *Collection) Len() int {
	return len(c.items)
}

// Item returns the element at i, or nil when i is out of range.
func (c *Collection) Item(i int) Element {
	if i < 0 || i >= len(c.items) {
		return nil
	}
	return c.items[i]
}

// IndexOf returns the position of e, or -1.
func (c *Collection) IndexOf(e Element) int {
	for i, item := range c.items {
		if item == e {
			return i
		}
	}
	return -1
}

// ForEach calls fn for every element in order. fn must not mutate the
// collection.
func (c *Collection) ForEach(fn func(e Element, index int)) {
	for i, e := range c.items {
		fn(e, i)
	}
}

// Elements returns a copy of the elements in order.
func (c *Collection) Elements() []Element {
	return slices.Clone(c.items)
}

// Push appends e.
func (c *Collection) Push(e Element) error {
	return c.InsertAt(len(c.items), e)
}

// InsertAt inserts e at index, shifting later elements. index may equal Len.
func (c *Collection) InsertAt(index int, e Element) error {
	if err := c.check(e); err != nil {
		return err
	}
	if index < 0 || index > len(c.items) {
		return fmt.Errorf("insert at %d (len %d): %w", index, len(c.items), ErrIndexOutOfRange)
	}
	c.items = slices.Insert(c.items, index, e)
	c.added.Emit(CollectionEvent{Element: e, Index: index})
	return nil
}

// Extend pushes every element in order. It stops at the first element that
// cannot be added; elements pushed before it stay.
func (c *Collection) Extend(elems ...Element) error {
	for i, e := range elems {
		if err := c.Push(e); err != nil {
			return fmt.Errorf("extend element %d: %w", i, err)
		}
	}
	return nil
}

// RemoveAt removes and returns the element at index.
func (c *Collection) RemoveAt(index int) (Element, error) {
	if index < 0 || index >= len(c.items) {
		return nil, fmt.Errorf("remove at %d (len %d): %w", index, len(c.items), ErrIndexOutOfRange)
	}
	e := c.items[index]
	c.items = slices.Delete(c.items, index, index+1)
	c.removed.Emit(CollectionEvent{Element: e, Index: index})
	return e, nil
}

// Remove removes e and reports whether it was present.
func (c *Collection) Remove(e Element) bool {
	i := c.IndexOf(e)
	if i < 0 {
		return false
	}
	_, err := c.RemoveAt(i)
	return err == nil
}

// Clear removes every element from the end, emitting one remove
// notification per element.
func (c *Collection) Clear() {
	for len(c.items) > 0 {
		_, _ = c.RemoveAt(len(c.items) - 1)
	}
}

// Move relocates the element at from so that it ends up at to. Observers see
// a remove followed by an add.
func (c *Collection) Move(from, to int) error {
	if to < 0 || to >= len(c.items) {
		return fmt.Errorf("move to %d (len %d): %w", to, len(c.items), ErrIndexOutOfRange)
	}
	e, err := c.RemoveAt(from)
	if err != nil {
		return fmt.Errorf("move: %w", err)
	}
	return c.InsertAt(to, e)
}

// OnAdd registers a listener for add notifications.
func (c *Collection) OnAdd(h event.Handler[CollectionEvent]) event.Key {
	return c.added.On(h)
}

// OnRemove registers a listener for remove notifications.
func (c *Collection) OnRemove(h event.Handler[CollectionEvent]) event.Key {
	return c.removed.On(h)
}

// Unlisten removes a listener registered with OnAdd or OnRemove.
func (c *Collection) Unlisten(key event.Key) bool {
	return c.added.Off(key) || c.removed.Off(key)
}

// ListenerCount returns the number of add and remove listeners attached.
func (c *Collection) ListenerCount() int {
	return c.added.Len() + c.removed.Len()
}

func (c *Collection) check(e Element) error {
	if e == nil {
		return ErrNilElement
	}
	if c.IndexOf(e) >= 0 {
		return fmt.Errorf("%s: %w", describe(e), ErrDuplicate)
	}
	return nil
}

func describe(e Element) string {
	if id := IDOf(e); id != "" {
		return fmt.Sprintf("layer %q", id)
	}
	return "layer"
}
