package model

// State is a derived maturity classification. Only Story entities carry
// one; it is recomputed on every build and never authored or persisted.
type State string

const (
	StateNone        State = ""
	StateReferenced  State = "Referenced"
	StateDefined     State = "Defined"
	StateTestable    State = "Testable"
	StateImplemented State = "Implemented"
)

// Entity is the canonical merged record for one (kind, id). The first
// loader record creates it; later records elaborate attributes and append
// provenance. Entities are rebuilt from scratch every build.
type Entity struct {
	Kind  Kind
	ID    string
	Attrs map[string]string
	Refs  map[string][]Ref
	Prov  []Provenance

	// AttrProv tracks which provenance last set each attribute, so a
	// conflicting elaboration can cite both sites.
	AttrProv map[string]Provenance

	// Derived is computed by the lifecycle classifier, never authored.
	Derived State
}

// NewEntity creates an empty entity for the given identity.
func NewEntity(ref Ref) *Entity {
	return &Entity{
		Kind:     ref.Kind,
		ID:       ref.ID,
		Attrs:    make(map[string]string),
		Refs:     make(map[string][]Ref),
		AttrProv: make(map[string]Provenance),
	}
}

// Ref returns the entity's identity.
func (e *Entity) Ref() Ref {
	return Ref{Kind: e.Kind, ID: e.ID}
}

// Attr returns the named attribute, or "" when unset.
func (e *Entity) Attr(name string) string {
	return e.Attrs[name]
}

// HasSource reports whether any provenance entry came from the given
// loader source.
func (e *Entity) HasSource(src Source) bool {
	for _, p := range e.Prov {
		if p.Source == src {
			return true
		}
	}
	return false
}
