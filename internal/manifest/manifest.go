// Package manifest loads code-first Application entities from TOML
// manifests. Each application directory carries one manifest file; its
// directory name is the application id.
package manifest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/archgraph-dev/archgraph/internal/ctxlog"
	"github.com/archgraph-dev/archgraph/internal/diag"
	"github.com/archgraph-dev/archgraph/internal/fsutil"
	"github.com/archgraph-dev/archgraph/internal/model"
)

// DefaultFileName is the manifest file name looked up in each application
// directory.
const DefaultFileName = "app.toml"

// manifestFile is the on-disk manifest shape.
type manifestFile struct {
	Name         string   `toml:"name"`
	Interface    string   `toml:"interface"`
	Technology   string   `toml:"technology"`
	Accelerators []string `toml:"accelerators"`
}

// Result is the loader's raw output: records plus localized diagnostics.
type Result struct {
	Records []model.Record
	Diags   diag.List
}

// Load scans appsPath for manifest files named fileName and decodes each
// into an Application record. A malformed manifest yields a localized
// ParseError; the remaining manifests still load. A project without an
// applications directory is not an error.
func Load(ctx context.Context, appsPath string, fileName string) (Result, error) {
	logger := ctxlog.FromContext(ctx)
	if fileName == "" {
		fileName = DefaultFileName
	}

	files, err := fsutil.FindFilesNamed(appsPath, fileName)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Debug("no applications directory, skipping manifest loader", "path", appsPath)
			return Result{}, nil
		}
		return Result{}, fmt.Errorf("failed to walk applications path %s: %w", appsPath, err)
	}
	logger.Debug("manifest loader found files", "path", appsPath, "count", len(files))

	var res Result
	for _, path := range files {
		loadManifest(path, &res)
	}
	return res, nil
}

func loadManifest(path string, res *Result) {
	loc := diag.Location{Path: path}

	raw, err := os.ReadFile(path)
	if err != nil {
		res.Diags = append(res.Diags, diag.Errorf(diag.RuleParseError, loc,
			"unreadable manifest: %v", err))
		return
	}

	var mf manifestFile
	if err := toml.Unmarshal(raw, &mf); err != nil {
		var decodeErr *toml.DecodeError
		if errors.As(err, &decodeErr) {
			row, _ := decodeErr.Position()
			loc.Line = row
		}
		res.Diags = append(res.Diags, diag.Errorf(diag.RuleParseError, loc,
			"malformed manifest: %v", err))
		return
	}

	// The application id is the directory the manifest lives in.
	id := filepath.Base(filepath.Dir(path))

	rec := model.Record{
		Kind:  model.KindApplication,
		ID:    id,
		Attrs: make(map[string]string),
		Refs:  make(map[string][]model.Ref),
		Prov:  model.Provenance{Path: path, Source: model.SourceManifest},
	}
	if mf.Name == "" {
		res.Diags = append(res.Diags, diag.Errorf(diag.RuleSchemaViolation, loc,
			"application %q manifest is missing required field %q", id, "name"))
	} else {
		rec.Attrs["name"] = mf.Name
	}
	if mf.Interface == "" {
		res.Diags = append(res.Diags, diag.Errorf(diag.RuleSchemaViolation, loc,
			"application %q manifest is missing required field %q", id, "interface"))
	} else {
		rec.Attrs["interface"] = mf.Interface
	}
	if mf.Technology != "" {
		rec.Attrs["technology"] = mf.Technology
	}
	for _, acc := range mf.Accelerators {
		rec.Refs["accelerators"] = append(rec.Refs["accelerators"],
			model.Ref{Kind: model.KindAccelerator, ID: acc})
	}

	res.Records = append(res.Records, rec)
}
