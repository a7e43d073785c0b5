// Package exporter writes resolved assets to the output directory.
package exporter

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/starford/assetexport/internal/apperr"
	"github.com/starford/assetexport/internal/checksum"
	"github.com/starford/assetexport/internal/models"
	"github.com/starford/assetexport/internal/storage"
)

var errVerify = errors.New("verify: file content differs from payload")

// Layout places exported files in Dir.
type Layout struct {
	Dir string
}

// FileName returns the file name for an asset id.
func FileName(id string) string {
	return id + ".json"
}

// Path returns the output path for an asset id. Trailing separators on
// Dir never produce a doubled separator.
func (l Layout) Path(id string) string {
	return filepath.Join(l.Dir, FileName(id))
}

// Written describes one file written by Export.
type Written struct {
	Path     string
	Checksum string
}

// Report is the outcome of an Export.
type Report struct {
	Written []Written
	Failed  []*apperr.WriteError
}

// Err joins every write failure, or returns nil.
func (r Report) Err() error {
	if len(r.Failed) == 0 {
		return nil
	}
	errs := make([]error, len(r.Failed))
	for i, f := range r.Failed {
		errs[i] = f
	}
	return errors.Join(errs...)
}

// Exporter writes ExportSet entries through a storage.Provider.
type Exporter struct {
	store  storage.Provider
	logger *slog.Logger
}

// New creates an Exporter.
func New(store storage.Provider, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{store: store, logger: logger}
}

// Export writes every entry of set as pretty-printed JSON, overwriting
// existing files, and reads each file back to checksum what landed on
// disk. A failed write is recorded and the remaining entries are still
// written.
func (e *Exporter) Export(set *models.ExportSet) Report {
	var rep Report
	if set == nil {
		return rep
	}
	for _, entry := range set.Entries() {
		sum, err := e.write(entry)
		if err != nil {
			werr := &apperr.WriteError{Path: entry.Path, Err: err}
			e.logger.Error("exporter: write failed",
				slog.String("path", entry.Path),
				slog.String("error", err.Error()))
			rep.Failed = append(rep.Failed, werr)
			continue
		}
		e.logger.Info("exporter: wrote asset",
			slog.String("path", entry.Path),
			slog.String("checksum", sum))
		rep.Written = append(rep.Written, Written{Path: entry.Path, Checksum: sum})
	}
	return rep
}

func (e *Exporter) write(entry models.Entry) (string, error) {
	data, err := Pretty(entry.Payload)
	if err != nil {
		return "", err
	}
	if err := e.store.Write(entry.Path, data); err != nil {
		return "", err
	}
	back, err := e.store.Read(entry.Path)
	if err != nil {
		return "", fmt.Errorf("verify: %w", err)
	}
	if !bytes.Equal(back, data) {
		return "", errVerify
	}
	return checksum.Sum(back), nil
}

// Pretty indents a JSON payload with two spaces and a trailing newline.
func Pretty(p models.Payload) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, p, "", "  "); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
