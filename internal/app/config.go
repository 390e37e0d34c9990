package app

import (
	"errors"
	"path/filepath"

	"github.com/archgraph-dev/archgraph/internal/lifecycle"
	"github.com/archgraph-dev/archgraph/internal/manifest"
)

// Config holds everything an App instance needs to run one build.
type Config struct {
	// RootPath is the project root the directory loader walks.
	RootPath string
	// DocsPath holds the declaration files. Defaults to RootPath/docs.
	DocsPath string
	// AppsPath holds the application directories. Defaults to
	// RootPath/applications.
	AppsPath string
	// ManifestName is the per-application manifest file name.
	ManifestName string

	// Evidence supplies the external runtime signal for the Implemented
	// lifecycle state. Nil means no story ever reaches Implemented.
	Evidence lifecycle.EvidenceSource

	LogFormat string
	LogLevel  string
}

// NewConfig validates a config and fills in defaults.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.RootPath == "" {
		return nil, errors.New("RootPath is a required configuration field and cannot be empty")
	}
	if cfg.DocsPath == "" {
		cfg.DocsPath = filepath.Join(cfg.RootPath, "docs")
	}
	if cfg.AppsPath == "" {
		cfg.AppsPath = filepath.Join(cfg.RootPath, "applications")
	}
	if cfg.ManifestName == "" {
		cfg.ManifestName = manifest.DefaultFileName
	}
	return &cfg, nil
}
