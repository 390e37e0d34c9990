// Package dirscan discovers code-first Accelerator entities from the
// project's top-level directory layout. Discovery only ever creates stubs;
// the document-first declaration for the same id elaborates them.
package dirscan

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/archgraph-dev/archgraph/internal/ctxlog"
	"github.com/archgraph-dev/archgraph/internal/diag"
	"github.com/archgraph-dev/archgraph/internal/model"
	"github.com/archgraph-dev/archgraph/internal/schema"
)

// layerNames are the recognized accelerator sub-layers, in the order they
// appear in the layers attribute.
var layerNames = []string{"entities", "repositories", "usecases", "infrastructure"}

// Result is the loader's raw output: records plus localized diagnostics.
type Result struct {
	Records []model.Record
	Diags   diag.List
}

// Load registers every non-reserved top-level directory of rootPath as an
// Accelerator stub, attributed with which sub-layers are present. An
// unreadable root is the one unrecoverable loader failure.
func Load(ctx context.Context, rootPath string) (Result, error) {
	logger := ctxlog.FromContext(ctx)

	entries, err := os.ReadDir(rootPath)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read project root %s: %w", rootPath, err)
	}

	var res Result
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		if schema.IsReservedDir(name) {
			logger.Debug("skipping reserved directory", "dir", name)
			continue
		}

		rec := model.Record{
			Kind:  model.KindAccelerator,
			ID:    name,
			Attrs: make(map[string]string),
			Refs:  make(map[string][]model.Ref),
			Prov:  model.Provenance{Path: name, Source: model.SourceDirectory},
		}
		if layers := presentLayers(rootPath, name); len(layers) > 0 {
			rec.Attrs["layers"] = strings.Join(layers, ", ")
		}
		res.Records = append(res.Records, rec)
	}

	logger.Debug("directory loader finished", "accelerators", len(res.Records))
	return res, nil
}

// presentLayers probes one level into an accelerator directory for the
// recognized sub-layer names.
func presentLayers(rootPath, dir string) []string {
	entries, err := os.ReadDir(filepath.Join(rootPath, dir))
	if err != nil {
		return nil
	}
	present := make(map[string]bool)
	for _, entry := range entries {
		if entry.IsDir() {
			present[entry.Name()] = true
		}
	}

	var layers []string
	for _, name := range layerNames {
		if present[name] {
			layers = append(layers, name)
		}
	}
	return layers
}
