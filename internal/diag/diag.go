// Package diag defines the diagnostic taxonomy shared by every pipeline
// stage. Stages append to a single list; nothing downstream of a loader
// aborts on an artifact-level problem, so one build surfaces as many
// diagnostics as the sources allow.
package diag

import (
	"fmt"
	"sort"
)

// Severity classifies a diagnostic as build-blocking or advisory.
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
)

func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// Rule identifies which class of check produced a diagnostic.
type Rule string

const (
	RuleParseError        Rule = "ParseError"
	RuleSchemaViolation   Rule = "SchemaViolation"
	RuleReferenceError    Rule = "ReferenceError"
	RuleReferenceWarning  Rule = "ReferenceWarning"
	RuleDuplicateIdentity Rule = "DuplicateIdentity"
	RuleCycleError        Rule = "CycleError"
	RuleCoverageWarning   Rule = "CoverageWarning"
)

// Location points at the artifact a diagnostic originated from. Line 0
// means the whole artifact (directories, manifests rejected before any
// line was decoded).
type Location struct {
	Path string
	Line int
}

func (l Location) String() string {
	if l.Line > 0 {
		return fmt.Sprintf("%s:%d", l.Path, l.Line)
	}
	return l.Path
}

// Diagnostic is a single structured finding. Related carries secondary
// locations, e.g. both provenance sites of a conflicting elaboration.
type Diagnostic struct {
	Severity Severity
	Rule     Rule
	Message  string
	Location Location
	Related  []Location
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s[%s] %s: %s", d.Severity, d.Rule, d.Location, d.Message)
}

// Errorf constructs an Error-severity diagnostic.
func Errorf(rule Rule, loc Location, format string, args ...any) Diagnostic {
	return Diagnostic{Severity: SeverityError, Rule: rule, Location: loc, Message: fmt.Sprintf(format, args...)}
}

// Warnf constructs a Warning-severity diagnostic.
func Warnf(rule Rule, loc Location, format string, args ...any) Diagnostic {
	return Diagnostic{Severity: SeverityWarning, Rule: rule, Location: loc, Message: fmt.Sprintf(format, args...)}
}

// List is an ordered collection of diagnostics.
type List []Diagnostic

// Errors counts Error-severity entries.
func (l List) Errors() int {
	n := 0
	for _, d := range l {
		if d.Severity == SeverityError {
			n++
		}
	}
	return n
}

// Warnings counts Warning-severity entries.
func (l List) Warnings() int {
	return len(l) - l.Errors()
}

// HasErrors reports whether at least one Error-severity entry exists.
func (l List) HasErrors() bool {
	return l.Errors() > 0
}

// Sort orders the list by location, then rule, then message, so two builds
// over identical sources report identically.
func (l List) Sort() {
	sort.SliceStable(l, func(i, j int) bool {
		a, b := l[i], l[j]
		if a.Location.Path != b.Location.Path {
			return a.Location.Path < b.Location.Path
		}
		if a.Location.Line != b.Location.Line {
			return a.Location.Line < b.Location.Line
		}
		if a.Rule != b.Rule {
			return a.Rule < b.Rule
		}
		return a.Message < b.Message
	})
}

// ByRule returns the entries produced by a single rule, preserving order.
func (l List) ByRule(rule Rule) List {
	var out List
	for _, d := range l {
		if d.Rule == rule {
			out = append(out, d)
		}
	}
	return out
}
