// Package lifecycle derives the per-Story maturity state from the
// evidence accumulated on the resolved graph. The state is recomputed in
// full on every build; there is no manual override and nothing persists
// between builds.
package lifecycle

import (
	"context"

	"github.com/archgraph-dev/archgraph/internal/ctxlog"
	"github.com/archgraph-dev/archgraph/internal/model"
)

// EvidenceSource supplies the external runtime signal behind the
// Implemented state. Matching a runtime capability to a story is a
// collaborator's concern; the core only asks whether evidence exists.
type EvidenceSource interface {
	HasEvidence(storyID string) bool
}

// StaticEvidence is a map-backed EvidenceSource. Collaborators mark
// evidence present for a story; the classifier queries it.
type StaticEvidence struct {
	byStory map[string]map[string]struct{}
}

// NewStaticEvidence creates an empty evidence set.
func NewStaticEvidence() *StaticEvidence {
	return &StaticEvidence{byStory: make(map[string]map[string]struct{})}
}

// Mark records that the named evidence is present for the story.
func (s *StaticEvidence) Mark(storyID, evidenceID string) {
	if s.byStory[storyID] == nil {
		s.byStory[storyID] = make(map[string]struct{})
	}
	s.byStory[storyID][evidenceID] = struct{}{}
}

// HasEvidence reports whether any evidence was marked for the story.
func (s *StaticEvidence) HasEvidence(storyID string) bool {
	return len(s.byStory[storyID]) > 0
}

// Classify computes the derived state for every Story entity on the
// resolved graph. This is the one place in the pipeline that writes a
// derived field; everything else treats the graph as read-only.
func Classify(ctx context.Context, g *model.Graph, evidence EvidenceSource) {
	logger := ctxlog.FromContext(ctx)

	for _, entity := range g.ListByKind(model.KindStory) {
		entity.Derived = classifyStory(g, entity, evidence)
	}
	logger.Debug("lifecycle classifier finished", "stories", len(g.ListByKind(model.KindStory)))
}

func classifyStory(g *model.Graph, story *model.Entity, evidence EvidenceSource) model.State {
	// Referenced: something names the story, but no declaration defines it,
	// or the declaration's required references did not resolve.
	if !story.HasSource(model.SourceDeclaration) {
		return model.StateReferenced
	}
	if !requiredResolved(g, story) {
		return model.StateReferenced
	}

	// Defined: declared with persona and application resolved.
	// Testable additionally needs the scenario link to have parsed; the
	// scenario loader records that as scenario-sourced provenance.
	if !story.HasSource(model.SourceScenario) {
		return model.StateDefined
	}

	if evidence != nil && evidence.HasEvidence(story.ID) {
		return model.StateImplemented
	}
	return model.StateTestable
}

// requiredResolved reports whether the story's persona and app references
// both resolved to registered entities.
func requiredResolved(g *model.Graph, story *model.Entity) bool {
	resolved := make(map[string]bool)
	for _, edge := range g.Outgoing(story.Ref()) {
		resolved[edge.Field] = true
	}
	return resolved["persona"] && resolved["app"]
}
