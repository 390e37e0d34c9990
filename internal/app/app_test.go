package app

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archgraph-dev/archgraph/internal/diag"
	"github.com/archgraph-dev/archgraph/internal/model"
)

// project builds a minimal consistent project tree: one journey, one epic,
// one story with persona and application, the application's manifest, and
// one accelerator directory elaborated by a declaration.
func project(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	write(t, root, "docs/model.arch.hcl", `
journey "purchase" {
  epics = ["checkout"]
}

epic "checkout" {
  stories = ["checkout-flow"]
}

story "checkout-flow" {
  persona      = "solutions-developer"
  app          = "staff-portal"
  accelerators = ["billing"]
}

persona "solutions-developer" {
  goals = "ship features without touching infrastructure"
}

accelerator "billing" {
  description = "payments and invoicing"
}
`)
	write(t, root, "applications/staff-portal/app.toml", `
name = "Staff Portal"
interface = "web"
accelerators = ["billing"]
`)
	mkdir(t, root, "billing/entities")
	mkdir(t, root, "billing/usecases")
	mkdir(t, root, "docs")
	mkdir(t, root, "core")
	mkdir(t, root, "deployment")
	return root
}

func write(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func mkdir(t *testing.T, root, rel string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(root, rel), 0o755))
}

func build(t *testing.T, root string) *BuildResult {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	a, err := NewApp(io.Discard, logger, Config{RootPath: root})
	require.NoError(t, err)
	result, err := a.Run(context.Background())
	require.NoError(t, err)
	return result
}

func storyState(t *testing.T, r *BuildResult) model.State {
	t.Helper()
	state, _ := r.Graph.DerivedState(model.Ref{Kind: model.KindStory, ID: "checkout-flow"})
	return state
}

func TestRun(t *testing.T) {
	t.Run("consistent project builds successfully", func(t *testing.T) {
		result := build(t, project(t))

		assert.True(t, result.OK())
		require.NotNil(t, result.View)
		assert.Equal(t, model.StateDefined, storyState(t, result))

		// The Defined-without-scenario gap is advisory only.
		warns := result.Diags.ByRule(diag.RuleCoverageWarning)
		require.NotEmpty(t, warns)
		for _, w := range result.Diags {
			assert.Equal(t, diag.SeverityWarning, w.Severity)
		}
	})

	t.Run("rebuild from unchanged sources is identical", func(t *testing.T) {
		root := project(t)
		first := build(t, root)
		second := build(t, root)

		assert.Equal(t, first.Diags, second.Diags)

		var a, b bytes.Buffer
		require.NoError(t, first.View.Render(&a))
		require.NoError(t, second.View.Render(&b))
		assert.Equal(t, a.Bytes(), b.Bytes())
	})

	t.Run("unknown application is exactly one reference error", func(t *testing.T) {
		root := project(t)
		require.NoError(t, os.RemoveAll(filepath.Join(root, "applications")))

		result := build(t, root)
		assert.False(t, result.OK())
		assert.Nil(t, result.View, "errors block the generator stage")

		errs := result.Diags.ByRule(diag.RuleReferenceError)
		require.Len(t, errs, 1)
		assert.Contains(t, errs[0].Message, `"staff-portal"`)
		assert.Contains(t, errs[0].Message, "Application")
	})

	t.Run("adding a scenario file promotes the story to Testable", func(t *testing.T) {
		root := project(t)
		assert.Equal(t, model.StateDefined, storyState(t, build(t, root)))

		write(t, root, "docs/scenario.arch.hcl", `
story "checkout-flow" {
  persona  = "solutions-developer"
  app      = "staff-portal"
  scenario = "scenarios/checkout.scenario"
}
`)
		// Two declarations would collide; replace the original.
		write(t, root, "docs/model.arch.hcl", `
journey "purchase" {
  epics = ["checkout"]
}

epic "checkout" {
  stories = ["checkout-flow"]
}

persona "solutions-developer" {
  goals = "ship features without touching infrastructure"
}

accelerator "billing" {
  description = "payments and invoicing"
}
`)
		write(t, root, "scenarios/checkout.scenario", `
Scenario: Customer completes a checkout
Given a cart with two items
When the customer pays by card
Then the order is confirmed
`)

		result := build(t, root)
		assert.True(t, result.OK())
		assert.Equal(t, model.StateTestable, storyState(t, result))
	})

	t.Run("unparseable scenario file is a warning and keeps the story Defined", func(t *testing.T) {
		root := project(t)
		write(t, root, "docs/model.arch.hcl", `
journey "purchase" {
  epics = ["checkout"]
}

epic "checkout" {
  stories = ["checkout-flow"]
}

story "checkout-flow" {
  persona  = "solutions-developer"
  app      = "staff-portal"
  scenario = "scenarios/missing.scenario"
}

persona "solutions-developer" {}

accelerator "billing" {}
`)

		result := build(t, root)
		assert.True(t, result.OK(), "a scenario parse failure is never fatal")
		assert.Equal(t, model.StateDefined, storyState(t, result))

		parseWarns := result.Diags.ByRule(diag.RuleParseError)
		require.Len(t, parseWarns, 1)
		assert.Equal(t, diag.SeverityWarning, parseWarns[0].Severity)
		assert.Contains(t, parseWarns[0].Message, "Story/checkout-flow")
	})

	t.Run("conflicting attribute values warn and the later source wins", func(t *testing.T) {
		root := project(t)
		// The manifest already claims the application; this declaration
		// elaborates it with a different display name. Merge order is
		// ascending path, so the declaration under docs/ lands last.
		write(t, root, "docs/zz-app.arch.hcl", `
application "staff-portal" {
  name = "Back Office Portal"
}
`)

		result := build(t, root)
		assert.True(t, result.OK(), "attribute conflicts never fail the build")

		conflicts := result.Diags.ByRule(diag.RuleSchemaViolation)
		require.Len(t, conflicts, 1)
		assert.Equal(t, diag.SeverityWarning, conflicts[0].Severity)
		assert.Contains(t, conflicts[0].Message, "name")
		require.Len(t, conflicts[0].Related, 1)

		e, ok := result.Graph.Get(model.Ref{Kind: model.KindApplication, ID: "staff-portal"})
		require.True(t, ok)
		assert.Equal(t, "Back Office Portal", e.Attrs["name"])
	})

	t.Run("duplicate story declarations fail the build", func(t *testing.T) {
		root := project(t)
		write(t, root, "docs/zz-duplicate.arch.hcl", `
story "checkout-flow" {
  persona = "solutions-developer"
  app     = "staff-portal"
}
`)

		result := build(t, root)
		assert.False(t, result.OK())
		dups := result.Diags.ByRule(diag.RuleDuplicateIdentity)
		require.Len(t, dups, 1)
		require.Len(t, dups[0].Related, 1)
		assert.NotEqual(t, dups[0].Location.Path, dups[0].Related[0].Path)
	})

	t.Run("reserved directories are never accelerators", func(t *testing.T) {
		result := build(t, project(t))

		var ids []string
		for _, acc := range result.Graph.ListByKind(model.KindAccelerator) {
			ids = append(ids, acc.ID)
		}
		assert.Equal(t, []string{"billing"}, ids)
	})

	t.Run("deleting a referenced accelerator directory is never silent", func(t *testing.T) {
		root := project(t)
		require.NoError(t, os.RemoveAll(filepath.Join(root, "billing")))
		// Also drop the elaborating declaration so nothing registers the id.
		write(t, root, "docs/model.arch.hcl", `
journey "purchase" {
  epics = ["checkout"]
}

epic "checkout" {
  stories = ["checkout-flow"]
}

story "checkout-flow" {
  persona      = "solutions-developer"
  app          = "staff-portal"
  accelerators = ["billing"]
}

persona "solutions-developer" {}
`)

		result := build(t, root)
		warns := result.Diags.ByRule(diag.RuleReferenceWarning)
		require.NotEmpty(t, warns)
		assert.Contains(t, warns[0].Message, `"billing"`)
	})

	t.Run("project file evidence promotes a testable story to Implemented", func(t *testing.T) {
		root := project(t)
		write(t, root, "docs/model.arch.hcl", `
journey "purchase" {
  epics = ["checkout"]
}

epic "checkout" {
  stories = ["checkout-flow"]
}

story "checkout-flow" {
  persona  = "solutions-developer"
  app      = "staff-portal"
  scenario = "scenarios/checkout.scenario"
}

persona "solutions-developer" {}

accelerator "billing" {}
`)
		write(t, root, "scenarios/checkout.scenario", "Scenario: Checkout\nGiven a cart\n")
		write(t, root, ProjectFileName, `
evidence:
  checkout-flow:
    - pipeline:checkout-e2e
`)

		result := build(t, root)
		assert.True(t, result.OK())
		assert.Equal(t, model.StateImplemented, storyState(t, result))
	})

	t.Run("unreadable project root aborts with no partial result", func(t *testing.T) {
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		a, err := NewApp(io.Discard, logger, Config{RootPath: filepath.Join(t.TempDir(), "missing")})
		require.NoError(t, err)

		result, err := a.Run(context.Background())
		assert.Error(t, err)
		assert.Nil(t, result)
	})
}

func TestNewConfig(t *testing.T) {
	t.Run("requires a root path", func(t *testing.T) {
		_, err := NewConfig(Config{})
		assert.Error(t, err)
	})

	t.Run("fills defaults from the root", func(t *testing.T) {
		cfg, err := NewConfig(Config{RootPath: "/proj"})
		require.NoError(t, err)
		assert.Equal(t, filepath.Join("/proj", "docs"), cfg.DocsPath)
		assert.Equal(t, filepath.Join("/proj", "applications"), cfg.AppsPath)
		assert.Equal(t, "app.toml", cfg.ManifestName)
	})
}

func TestProjectFile(t *testing.T) {
	t.Run("file values apply only where flags left gaps", func(t *testing.T) {
		root := t.TempDir()
		write(t, root, ProjectFileName, "docs: architecture\nmanifest: application.toml\n")
		mkdir(t, root, "architecture")

		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		a, err := NewApp(io.Discard, logger, Config{
			RootPath: root,
			DocsPath: filepath.Join(root, "elsewhere"),
		})
		require.NoError(t, err)

		assert.Equal(t, filepath.Join(root, "elsewhere"), a.Config().DocsPath, "explicit value wins")
		assert.Equal(t, "application.toml", a.Config().ManifestName)
	})

	t.Run("malformed project file is a startup error", func(t *testing.T) {
		root := t.TempDir()
		write(t, root, ProjectFileName, "evidence: [not: valid\n")

		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		_, err := NewApp(io.Discard, logger, Config{RootPath: root})
		assert.Error(t, err)
	})
}
