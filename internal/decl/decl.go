// Package decl loads document-first entity declarations. Declarations are
// HCL blocks in *.arch.hcl files anywhere under the docs tree: the block
// type is the marker name, the single label is the entity id, attributes
// are the marker's options, and the body attribute carries free-form
// descriptive text. Unknown block types are skipped so newer vocabularies
// degrade gracefully on older cores.
package decl

import (
	"context"
	"fmt"
	"sort"

	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"

	"github.com/archgraph-dev/archgraph/internal/ctxlog"
	"github.com/archgraph-dev/archgraph/internal/diag"
	"github.com/archgraph-dev/archgraph/internal/fsutil"
	"github.com/archgraph-dev/archgraph/internal/model"
	"github.com/archgraph-dev/archgraph/internal/schema"
)

// FileSuffix is the extension declaring a file as an entity declaration
// source.
const FileSuffix = ".arch.hcl"

// Result is the loader's raw output: records plus localized diagnostics.
type Result struct {
	Records []model.Record
	Diags   diag.List
}

// Load scans docsPath for declaration files and parses every marker block.
// A malformed file yields a ParseError diagnostic and the remaining files
// still load; only an unreadable tree is a hard error.
func Load(ctx context.Context, docsPath string) (Result, error) {
	logger := ctxlog.FromContext(ctx)

	files, err := fsutil.FindFilesBySuffix(docsPath, FileSuffix)
	if err != nil {
		return Result{}, fmt.Errorf("failed to walk docs path %s: %w", docsPath, err)
	}
	logger.Debug("declaration loader found files", "path", docsPath, "count", len(files))

	var res Result
	parser := hclparse.NewParser()
	for _, path := range files {
		file, hclDiags := parser.ParseHCLFile(path)
		if hclDiags.HasErrors() {
			res.Diags = append(res.Diags, diag.Errorf(diag.RuleParseError,
				diag.Location{Path: path}, "malformed declaration file: %s", hclDiags.Error()))
			continue
		}

		body, ok := file.Body.(*hclsyntax.Body)
		if !ok {
			res.Diags = append(res.Diags, diag.Errorf(diag.RuleParseError,
				diag.Location{Path: path}, "declaration file is not native HCL syntax"))
			continue
		}

		for _, block := range body.Blocks {
			loadBlock(ctx, path, block, &res)
		}
	}

	logger.Debug("declaration loader finished",
		"records", len(res.Records), "diagnostics", len(res.Diags))
	return res, nil
}

func loadBlock(ctx context.Context, path string, block *hclsyntax.Block, res *Result) {
	loc := diag.Location{Path: path, Line: block.DefRange().Start.Line}

	if block.Type == schema.MentionMarker {
		loadMention(path, block, loc, res)
		return
	}

	spec, known := schema.ForMarker(block.Type)
	if !known {
		// Forward-compatible: a newer vocabulary's markers are not errors.
		ctxlog.FromContext(ctx).Debug("skipping unknown marker", "marker", block.Type, "file", path)
		return
	}

	if len(block.Labels) != 1 || block.Labels[0] == "" {
		res.Diags = append(res.Diags, diag.Errorf(diag.RuleSchemaViolation, loc,
			"%s marker requires exactly one id label", block.Type))
		return
	}

	rec := model.Record{
		Kind:  spec.Kind,
		ID:    block.Labels[0],
		Attrs: make(map[string]string),
		Refs:  make(map[string][]model.Ref),
		Prov:  model.Provenance{Path: path, Line: loc.Line, Source: model.SourceDeclaration},
	}

	for _, name := range sortedAttrNames(block.Body.Attributes) {
		attr := block.Body.Attributes[name]
		attrLoc := diag.Location{Path: path, Line: attr.SrcRange.Start.Line}

		if field, isRef := spec.RefField(name); isRef {
			loadRefAttr(spec, field, attr, attrLoc, &rec, res)
			continue
		}
		if !spec.HasOption(name) {
			res.Diags = append(res.Diags, diag.Warnf(diag.RuleSchemaViolation, attrLoc,
				"%s %q: unknown option %q", block.Type, rec.ID, name))
			continue
		}
		value, ok := evalString(attr.Expr, attrLoc, res)
		if ok {
			rec.Attrs[name] = value
		}
	}

	for _, field := range spec.Refs {
		if field.Required && len(rec.Refs[field.Name]) == 0 {
			res.Diags = append(res.Diags, diag.Errorf(diag.RuleSchemaViolation, loc,
				"%s %q is missing required option %q", block.Type, rec.ID, field.Name))
		}
	}

	res.Records = append(res.Records, rec)
}

// loadMention handles the reference-only marker. It emits a stub record so
// forward references always have a registry target.
func loadMention(path string, block *hclsyntax.Block, loc diag.Location, res *Result) {
	if len(block.Labels) != 2 {
		res.Diags = append(res.Diags, diag.Errorf(diag.RuleSchemaViolation, loc,
			"mention marker requires kind and id labels"))
		return
	}
	spec, known := schema.ForMarker(block.Labels[0])
	if !known {
		res.Diags = append(res.Diags, diag.Warnf(diag.RuleSchemaViolation, loc,
			"mention of unknown kind %q ignored", block.Labels[0]))
		return
	}
	res.Records = append(res.Records, model.Record{
		Kind:  spec.Kind,
		ID:    block.Labels[1],
		Attrs: make(map[string]string),
		Refs:  make(map[string][]model.Ref),
		Prov:  model.Provenance{Path: path, Line: loc.Line, Source: model.SourceMention},
	})
}

func loadRefAttr(spec schema.KindSpec, field schema.RefField, attr *hclsyntax.Attribute, loc diag.Location, rec *model.Record, res *Result) {
	var raw []string
	if field.List {
		values, ok := evalStringList(attr.Expr, loc, res)
		if !ok {
			return
		}
		raw = values
	} else {
		value, ok := evalString(attr.Expr, loc, res)
		if !ok {
			return
		}
		raw = []string{value}
	}

	for _, value := range raw {
		target := model.Ref{Kind: field.Target, ID: value}
		if field.Qualified {
			parsed, err := schema.ParseQualifiedRef(value)
			if err != nil {
				res.Diags = append(res.Diags, diag.Errorf(diag.RuleSchemaViolation, loc,
					"%s %q, option %q: %v", spec.Marker, rec.ID, field.Name, err))
				continue
			}
			target = parsed
		}
		rec.Refs[field.Name] = append(rec.Refs[field.Name], target)
	}
}

// evalString evaluates an expression to a string. Declarations are static
// text, so evaluation happens without variables; anything that needs an
// EvalContext is a malformed option.
func evalString(expr hclsyntax.Expression, loc diag.Location, res *Result) (string, bool) {
	value, hclDiags := expr.Value(nil)
	if hclDiags.HasErrors() {
		res.Diags = append(res.Diags, diag.Errorf(diag.RuleParseError, loc,
			"option value is not a static expression: %s", hclDiags.Error()))
		return "", false
	}
	converted, err := convert.Convert(value, cty.String)
	if err != nil || converted.IsNull() {
		res.Diags = append(res.Diags, diag.Errorf(diag.RuleSchemaViolation, loc,
			"option value is not a scalar"))
		return "", false
	}
	return converted.AsString(), true
}

func evalStringList(expr hclsyntax.Expression, loc diag.Location, res *Result) ([]string, bool) {
	value, hclDiags := expr.Value(nil)
	if hclDiags.HasErrors() {
		res.Diags = append(res.Diags, diag.Errorf(diag.RuleParseError, loc,
			"option value is not a static expression: %s", hclDiags.Error()))
		return nil, false
	}
	if !value.CanIterateElements() {
		res.Diags = append(res.Diags, diag.Errorf(diag.RuleSchemaViolation, loc,
			"option value is not a list"))
		return nil, false
	}

	var out []string
	for it := value.ElementIterator(); it.Next(); {
		_, element := it.Element()
		converted, err := convert.Convert(element, cty.String)
		if err != nil || converted.IsNull() {
			res.Diags = append(res.Diags, diag.Errorf(diag.RuleSchemaViolation, loc,
				"list element is not a scalar"))
			return nil, false
		}
		out = append(out, converted.AsString())
	}
	return out, true
}

func sortedAttrNames(attrs hclsyntax.Attributes) []string {
	names := make([]string, 0, len(attrs))
	for name := range attrs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
