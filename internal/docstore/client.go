// Package docstore talks to the document store holding saved objects.
package docstore

import (
	"context"

	"github.com/starford/assetexport/internal/models"
)

// Client reports existence of and fetches raw documents.
type Client interface {
	// Exists reports whether the document index/typ/id is present.
	Exists(ctx context.Context, index, typ, id string) (bool, error)
	// Get returns the raw envelope of index/typ/id. A missing document
	// yields an error matching apperr.ErrNotFound.
	Get(ctx context.Context, index, typ, id string) (models.Envelope, error)
}
