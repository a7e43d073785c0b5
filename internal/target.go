package internal

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/starford/assetexport/internal/apperr"
	"github.com/starford/assetexport/internal/models"
)

// Exit codes.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
)

// ParseTarget returns the asset selected by exactly one of the dashboard,
// visualization or search names.
func ParseTarget(dashboard, visualization, search string) (models.Asset, error) {
	var selected []models.Asset
	if dashboard != "" {
		selected = append(selected, models.Asset{Type: models.Dashboard, ID: dashboard})
	}
	if visualization != "" {
		selected = append(selected, models.Asset{Type: models.Visualization, ID: visualization})
	}
	if search != "" {
		selected = append(selected, models.Asset{Type: models.Search, ID: search})
	}

	switch len(selected) {
	case 0:
		return models.Asset{}, apperr.Usage("must have one of the following flags: -d -v -s")
	case 1:
		return selected[0], nil
	default:
		return models.Asset{}, apperr.Usage("flags -d -v -s are mutually exclusive")
	}
}

// ExitCode maps a run error to the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, apperr.ErrUsage), errors.Is(err, apperr.ErrNotFound):
		return ExitUsage
	default:
		return ExitFailure
	}
}

// DefaultOutputDir returns the directory containing the running executable,
// or the working directory when it cannot be determined.
func DefaultOutputDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe)
}
