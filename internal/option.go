package internal

import (
	"io"

	"github.com/starford/assetexport/internal/docstore"
	"github.com/starford/assetexport/internal/models"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config    *Config
	target    models.Asset
	outputDir string
	client    docstore.Client
	logOutput io.Writer
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithTarget sets the root asset to export.
func WithTarget(asset models.Asset) Option {
	return func(a *application) {
		a.target = asset
	}
}

// WithOutputDir overrides the configured output directory.
func WithOutputDir(dir string) Option {
	return func(a *application) {
		a.outputDir = dir
	}
}

// WithClient replaces the HTTP document store client.
func WithClient(c docstore.Client) Option {
	return func(a *application) {
		a.client = c
	}
}

// WithLogOutput sets where logs go when no log file is configured.
func WithLogOutput(w io.Writer) Option {
	return func(a *application) {
		a.logOutput = w
	}
}
