package model

// Source identifies which loader produced a record. Declaration and
// manifest records are authoritative claims on an identity; mention,
// directory, and scenario records only ever create stubs or elaborate.
type Source int

const (
	SourceDeclaration Source = iota
	SourceMention
	SourceManifest
	SourceDirectory
	SourceScenario
)

func (s Source) String() string {
	switch s {
	case SourceDeclaration:
		return "declaration"
	case SourceMention:
		return "mention"
	case SourceManifest:
		return "manifest"
	case SourceDirectory:
		return "directory"
	case SourceScenario:
		return "scenario"
	}
	return "unknown"
}

// Authoritative reports whether two records of this source for the same
// (kind, id) are mutually exclusive by design. Two declarations, or two
// manifests, claiming one identity is a DuplicateIdentity error; a
// declaration elaborated by a manifest is the normal document-first plus
// code-first combination.
func (s Source) Authoritative() bool {
	return s == SourceDeclaration || s == SourceManifest
}

// Provenance is the artifact location a record was derived from.
type Provenance struct {
	Path   string
	Line   int
	Source Source
}

// Record is the raw output of a loader: one claim about one entity.
// Records never reference each other; the registry is the only merge point.
type Record struct {
	Kind  Kind
	ID    string
	Attrs map[string]string
	Refs  map[string][]Ref
	Prov  Provenance
}

// Ref returns the identity this record claims.
func (r *Record) Ref() Ref {
	return Ref{Kind: r.Kind, ID: r.ID}
}
