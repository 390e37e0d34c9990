package app

import (
	"context"
	"fmt"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/archgraph-dev/archgraph/internal/ctxlog"
	"github.com/archgraph-dev/archgraph/internal/decl"
	"github.com/archgraph-dev/archgraph/internal/diag"
	"github.com/archgraph-dev/archgraph/internal/dirscan"
	"github.com/archgraph-dev/archgraph/internal/index"
	"github.com/archgraph-dev/archgraph/internal/lifecycle"
	"github.com/archgraph-dev/archgraph/internal/manifest"
	"github.com/archgraph-dev/archgraph/internal/model"
	"github.com/archgraph-dev/archgraph/internal/registry"
	"github.com/archgraph-dev/archgraph/internal/resolver"
	"github.com/archgraph-dev/archgraph/internal/scenario"
	"github.com/archgraph-dev/archgraph/internal/validate"
)

// BuildResult is the outcome of one build: the resolved graph, the full
// ordered diagnostics list, and the generated view. View is nil when an
// Error diagnostic blocked the generator stage.
type BuildResult struct {
	Graph *model.Graph
	Diags diag.List
	View  *index.View
}

// OK reports build status: success only with zero Error diagnostics.
// Warnings never affect status.
func (r *BuildResult) OK() bool {
	return !r.Diags.HasErrors()
}

// Run executes one build. The returned error covers unrecoverable
// failures only (an unreadable source tree); artifact-level problems land
// in the diagnostics list instead, and no partial graph is exposed on
// error.
func (a *App) Run(ctx context.Context) (*BuildResult, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("build started", "root", a.config.RootPath)

	// The loaders are independent and read-only, so they run in parallel.
	// Determinism comes from the registry merging records in sorted source
	// order, not from scheduling.
	var declRes decl.Result
	var manRes manifest.Result
	var dirRes dirscan.Result

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		declRes, err = decl.Load(groupCtx, a.config.DocsPath)
		return err
	})
	group.Go(func() error {
		var err error
		manRes, err = manifest.Load(groupCtx, a.config.AppsPath, a.config.ManifestName)
		return err
	})
	group.Go(func() error {
		var err error
		dirRes, err = dirscan.Load(groupCtx, a.config.RootPath)
		return err
	})
	if err := group.Wait(); err != nil {
		return nil, fmt.Errorf("build aborted: %w", err)
	}

	var diags diag.List
	diags = append(diags, declRes.Diags...)
	diags = append(diags, manRes.Diags...)
	diags = append(diags, dirRes.Diags...)

	var records []model.Record
	records = append(records, declRes.Records...)
	records = append(records, manRes.Records...)
	records = append(records, dirRes.Records...)

	reg := registry.New()
	reg.Merge(ctx, records)

	// Scenario loading is driven by the merged stories: only a Story that
	// declares a link gets its file parsed.
	scenarioRecords, scenarioDiags := a.loadScenarios(ctx, reg.Graph())
	diags = append(diags, scenarioDiags...)
	if len(scenarioRecords) > 0 {
		reg.Merge(ctx, scenarioRecords)
	}
	diags = append(diags, reg.Diagnostics()...)

	res := resolver.Resolve(ctx, reg.Graph())
	lifecycle.Classify(ctx, res.Graph, a.config.Evidence)
	diags = append(diags, validate.Run(ctx, res)...)
	diags.Sort()

	result := &BuildResult{Graph: res.Graph, Diags: diags}
	if !diags.HasErrors() {
		result.View = index.Build(res.Graph)
	}

	a.logger.Info("build finished",
		"entities", res.Graph.Len(),
		"errors", diags.Errors(),
		"warnings", diags.Warnings())
	return result, nil
}

// loadScenarios parses the scenario file of every story that links one.
// A failed parse is a Warning and retracts nothing from the story.
func (a *App) loadScenarios(ctx context.Context, g *model.Graph) ([]model.Record, diag.List) {
	logger := ctxlog.FromContext(ctx)

	var records []model.Record
	var diags diag.List
	for _, story := range g.ListByKind(model.KindStory) {
		link := story.Attr("scenario")
		if link == "" {
			continue
		}

		path := filepath.Join(a.config.RootPath, link)
		parsed, err := scenario.Parse(path)
		if err != nil {
			diags = append(diags, diag.Warnf(diag.RuleParseError,
				diag.Location{Path: link},
				"%s: scenario file not usable as evidence: %v", story.Ref(), err))
			continue
		}
		records = append(records, scenario.StoryRecord(story.Ref(), link, parsed))
	}

	logger.Debug("scenario loader finished", "parsed", len(records), "failed", len(diags))
	return records, diags
}
