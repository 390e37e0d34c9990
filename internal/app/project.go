package app

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/archgraph-dev/archgraph/internal/lifecycle"
)

// ProjectFileName is the optional per-project configuration file looked up
// at the project root.
const ProjectFileName = "archgraph.yaml"

// projectFile is the on-disk shape of the project configuration.
type projectFile struct {
	Docs         string              `yaml:"docs"`
	Applications string              `yaml:"applications"`
	Manifest     string              `yaml:"manifest"`
	// Evidence maps story ids to the runtime evidence confirmed for them.
	// This feeds the Implemented lifecycle state; the core never infers it.
	Evidence map[string][]string `yaml:"evidence"`
}

// applyProjectFile overlays the optional project file onto a config. Only
// fields the caller left unset are taken from the file, so flags always
// win. A missing file is not an error.
func applyProjectFile(cfg *Config) error {
	path := filepath.Join(cfg.RootPath, ProjectFileName)
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read project file %s: %w", path, err)
	}

	var pf projectFile
	if err := yaml.Unmarshal(raw, &pf); err != nil {
		return fmt.Errorf("malformed project file %s: %w", path, err)
	}

	if cfg.DocsPath == "" && pf.Docs != "" {
		cfg.DocsPath = filepath.Join(cfg.RootPath, pf.Docs)
	}
	if cfg.AppsPath == "" && pf.Applications != "" {
		cfg.AppsPath = filepath.Join(cfg.RootPath, pf.Applications)
	}
	if cfg.ManifestName == "" && pf.Manifest != "" {
		cfg.ManifestName = pf.Manifest
	}
	if cfg.Evidence == nil && len(pf.Evidence) > 0 {
		ev := lifecycle.NewStaticEvidence()
		for storyID, items := range pf.Evidence {
			for _, item := range items {
				ev.Mark(storyID, item)
			}
		}
		cfg.Evidence = ev
	}
	return nil
}
