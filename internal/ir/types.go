package ir

// Property keys interpreted by the sync engine. Every other key is opaque.
const (
	// PropID is the property holding a layer's stable identifier.
	PropID = "id"

	// PropTitle is the only property mirrored in both directions.
	PropTitle = "title"
)

// LayerSpec is a declarative description of one layer.
// Produced by the manifest compiler and by scenario files.
type LayerSpec struct {
	ID    string   `json:"id" yaml:"id"`
	Title string   `json:"title" yaml:"title"`
	Props IRObject `json:"props,omitempty" yaml:"-"`
}

// Properties returns the full property set of the spec, with id and title
// folded in. The returned object is a fresh copy.
func (s LayerSpec) Properties() IRObject {
	props := make(IRObject, len(s.Props)+2)
	for k, v := range s.Props {
		props[k] = v
	}
	props[PropID] = IRString(s.ID)
	props[PropTitle] = IRString(s.Title)
	return props
}
