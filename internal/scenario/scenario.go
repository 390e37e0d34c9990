// Package scenario extracts titles and step structure from
// scenario-description files linked by a Story's scenario option. Steps
// are extracted for cross-referencing only and are never executed. A
// parse failure is acceptance-criteria evidence going missing, not a
// broken build, so every failure here surfaces as a Warning.
package scenario

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/archgraph-dev/archgraph/internal/model"
)

// stepKeywords are the recognized structured step prefixes.
var stepKeywords = []string{"Given", "When", "Then", "And", "But"}

// Step is one structured line of a scenario.
type Step struct {
	Keyword string
	Text    string
}

// Scenario is the extracted structure of one scenario file.
type Scenario struct {
	Title string
	Steps []Step
}

// Parse reads a scenario file and extracts its title and steps. The first
// non-empty line must be a "Scenario:" or "Feature:" title; step lines
// must start with a recognized keyword. Anything else is a parse error.
func Parse(path string) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unreadable scenario file: %w", err)
	}
	defer f.Close()

	var s Scenario
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if s.Title == "" {
			title, ok := parseTitle(line)
			if !ok {
				return nil, fmt.Errorf("line %d: expected a Scenario: or Feature: title, got %q", lineNo, line)
			}
			s.Title = title
			continue
		}

		step, ok := parseStep(line)
		if !ok {
			return nil, fmt.Errorf("line %d: expected a step line, got %q", lineNo, line)
		}
		s.Steps = append(s.Steps, step)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed reading scenario file: %w", err)
	}
	if s.Title == "" {
		return nil, fmt.Errorf("scenario file has no title")
	}
	return &s, nil
}

func parseTitle(line string) (string, bool) {
	for _, prefix := range []string{"Scenario:", "Feature:"} {
		if strings.HasPrefix(line, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(line, prefix)), true
		}
	}
	return "", false
}

func parseStep(line string) (Step, bool) {
	for _, kw := range stepKeywords {
		rest, ok := strings.CutPrefix(line, kw+" ")
		if ok {
			return Step{Keyword: kw, Text: strings.TrimSpace(rest)}, true
		}
	}
	return Step{}, false
}

// StoryRecord builds the elaboration record a successful parse contributes
// to its Story: the extracted title plus scenario-sourced provenance. The
// lifecycle classifier treats that provenance as Testable evidence.
func StoryRecord(story model.Ref, path string, s *Scenario) model.Record {
	return model.Record{
		Kind:  story.Kind,
		ID:    story.ID,
		Attrs: map[string]string{"scenario_title": s.Title},
		Refs:  make(map[string][]model.Ref),
		Prov:  model.Provenance{Path: path, Source: model.SourceScenario},
	}
}
