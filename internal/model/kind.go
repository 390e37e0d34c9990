package model

// Kind is one of the closed set of entity kinds. The set is versioned with
// the core; adding a kind means adding a table entry in internal/schema,
// not a new branch in the pipeline.
type Kind string

const (
	KindPersona        Kind = "Persona"
	KindJourney        Kind = "Journey"
	KindEpic           Kind = "Epic"
	KindStory          Kind = "Story"
	KindApplication    Kind = "Application"
	KindAccelerator    Kind = "Accelerator"
	KindIntegration    Kind = "Integration"
	KindSoftwareSystem Kind = "SoftwareSystem"
	KindContainer      Kind = "Container"
	KindComponent      Kind = "Component"
	KindRelationship   Kind = "Relationship"
	KindDeploymentNode Kind = "DeploymentNode"
)

// Kinds returns the closed kind set in its canonical order. Generator
// output lists kinds in this order.
func Kinds() []Kind {
	return []Kind{
		KindPersona,
		KindJourney,
		KindEpic,
		KindStory,
		KindApplication,
		KindAccelerator,
		KindIntegration,
		KindSoftwareSystem,
		KindContainer,
		KindComponent,
		KindRelationship,
		KindDeploymentNode,
	}
}

// Ref is a symbolic reference to an entity by kind and id.
type Ref struct {
	Kind Kind
	ID   string
}

func (r Ref) String() string {
	return string(r.Kind) + "/" + r.ID
}

// Less orders refs by kind (canonical order), then id ascending.
func (r Ref) Less(other Ref) bool {
	if r.Kind != other.Kind {
		return kindRank(r.Kind) < kindRank(other.Kind)
	}
	return r.ID < other.ID
}

func kindRank(k Kind) int {
	for i, known := range Kinds() {
		if known == k {
			return i
		}
	}
	return len(Kinds())
}
