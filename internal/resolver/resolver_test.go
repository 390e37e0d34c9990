package resolver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archgraph-dev/archgraph/internal/model"
	"github.com/archgraph-dev/archgraph/internal/registry"
)

func buildGraph(t *testing.T, records []model.Record) *model.Graph {
	t.Helper()
	r := registry.New()
	r.Merge(context.Background(), records)
	require.Empty(t, r.Diagnostics())
	return r.Graph()
}

func record(kind model.Kind, id, path string, refs map[string][]model.Ref) model.Record {
	if refs == nil {
		refs = map[string][]model.Ref{}
	}
	return model.Record{
		Kind:  kind,
		ID:    id,
		Attrs: map[string]string{},
		Refs:  refs,
		Prov:  model.Provenance{Path: path, Line: 1, Source: model.SourceDeclaration},
	}
}

func TestResolve(t *testing.T) {
	ctx := context.Background()

	t.Run("resolves references into edges", func(t *testing.T) {
		g := buildGraph(t, []model.Record{
			record(model.KindPersona, "dev", "docs/p.arch.hcl", nil),
			record(model.KindApplication, "staff-portal", "docs/a.arch.hcl", nil),
			record(model.KindStory, "checkout-flow", "docs/s.arch.hcl", map[string][]model.Ref{
				"persona": {{Kind: model.KindPersona, ID: "dev"}},
				"app":     {{Kind: model.KindApplication, ID: "staff-portal"}},
			}),
		})

		res := Resolve(ctx, g)
		assert.Empty(t, res.Unresolved)

		story := model.Ref{Kind: model.KindStory, ID: "checkout-flow"}
		out := res.Graph.Outgoing(story)
		require.Len(t, out, 2)
		assert.Equal(t, "app", out[0].Field)
		assert.Equal(t, model.Ref{Kind: model.KindApplication, ID: "staff-portal"}, out[0].To)
		assert.Equal(t, "persona", out[1].Field)

		in := res.Graph.Incoming(model.Ref{Kind: model.KindApplication, ID: "staff-portal"})
		require.Len(t, in, 1)
		assert.Equal(t, story, in[0].From)
	})

	t.Run("unresolved required reference is flagged as required", func(t *testing.T) {
		g := buildGraph(t, []model.Record{
			record(model.KindPersona, "dev", "docs/p.arch.hcl", nil),
			record(model.KindStory, "checkout-flow", "docs/s.arch.hcl", map[string][]model.Ref{
				"persona": {{Kind: model.KindPersona, ID: "dev"}},
				"app":     {{Kind: model.KindApplication, ID: "staff-portal"}},
			}),
		})

		res := Resolve(ctx, g)
		require.Len(t, res.Unresolved, 1)
		u := res.Unresolved[0]
		assert.True(t, u.Required)
		assert.Equal(t, "app", u.Field)
		assert.Equal(t, model.Ref{Kind: model.KindApplication, ID: "staff-portal"}, u.Target)
		assert.Equal(t, "docs/s.arch.hcl", u.Location.Path)
	})

	t.Run("unresolved optional reference is flagged as optional", func(t *testing.T) {
		g := buildGraph(t, []model.Record{
			record(model.KindPersona, "dev", "docs/p.arch.hcl", nil),
			record(model.KindApplication, "staff-portal", "docs/a.arch.hcl", nil),
			record(model.KindStory, "checkout-flow", "docs/s.arch.hcl", map[string][]model.Ref{
				"persona":      {{Kind: model.KindPersona, ID: "dev"}},
				"app":          {{Kind: model.KindApplication, ID: "staff-portal"}},
				"accelerators": {{Kind: model.KindAccelerator, ID: "gone"}},
			}),
		})

		res := Resolve(ctx, g)
		require.Len(t, res.Unresolved, 1)
		assert.False(t, res.Unresolved[0].Required)
		assert.Equal(t, "accelerators", res.Unresolved[0].Field)
	})

	t.Run("mention stub satisfies a forward reference", func(t *testing.T) {
		g := buildGraph(t, []model.Record{
			record(model.KindPersona, "dev", "docs/p.arch.hcl", nil),
			record(model.KindApplication, "staff-portal", "docs/a.arch.hcl", nil),
			record(model.KindStory, "checkout-flow", "docs/s.arch.hcl", map[string][]model.Ref{
				"persona":     {{Kind: model.KindPersona, ID: "dev"}},
				"app":         {{Kind: model.KindApplication, ID: "staff-portal"}},
				"integration": {{Kind: model.KindIntegration, ID: "payments-bridge"}},
			}),
			{
				Kind:  model.KindIntegration,
				ID:    "payments-bridge",
				Attrs: map[string]string{},
				Refs:  map[string][]model.Ref{},
				Prov:  model.Provenance{Path: "docs/z.arch.hcl", Line: 2, Source: model.SourceMention},
			},
		})

		res := Resolve(ctx, g)
		assert.Empty(t, res.Unresolved, "a stub is a registered target even if unelaborated")
	})
}
