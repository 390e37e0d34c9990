// Package app wires the pipeline: loaders feed the registry, the registry
// feeds the resolver, the resolver feeds the classifier and validator, and
// the generator runs only when no Error diagnostic was recorded. One App
// performs one fully self-contained build per Run call; nothing is cached
// between builds.
package app

import (
	"io"
	"log/slog"
)

// App is one configured build pipeline.
type App struct {
	out    io.Writer
	logger *slog.Logger
	config *Config
}

// NewApp creates an App for the given configuration. The optional project
// file at the root is applied before defaults.
func NewApp(out io.Writer, logger *slog.Logger, cfg Config) (*App, error) {
	if err := applyProjectFile(&cfg); err != nil {
		return nil, err
	}
	resolved, err := NewConfig(cfg)
	if err != nil {
		return nil, err
	}
	return &App{out: out, logger: logger, config: resolved}, nil
}

// Config returns the resolved configuration.
func (a *App) Config() *Config {
	return a.config
}
