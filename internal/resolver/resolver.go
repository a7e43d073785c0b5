// Package resolver walks a root asset and its dashboard panels into an ExportSet.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/starford/assetexport/internal/apperr"
	"github.com/starford/assetexport/internal/docstore"
	"github.com/starford/assetexport/internal/models"
	"github.com/starford/assetexport/internal/parser"
)

// DefaultConcurrency bounds parallel panel fetches.
const DefaultConcurrency = 4

var (
	errMissingPayload  = errors.New("document has no _source payload")
	errIncompletePanel = errors.New("panel descriptor is missing id or type")
	errMissingPanels   = errors.New("field is absent")
)

// Paths maps an asset id to its output file path.
type Paths interface {
	Path(id string) string
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = l
	}
}

// WithConcurrency sets how many panels are fetched at once.
func WithConcurrency(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// Resolver fetches assets from a document store.
type Resolver struct {
	client      docstore.Client
	index       string
	paths       Paths
	logger      *slog.Logger
	concurrency int

	inflight singleflight.Group
}

// New creates a Resolver reading from index through client.
func New(client docstore.Client, index string, paths Paths, opts ...Option) *Resolver {
	r := &Resolver{
		client:      client,
		index:       index,
		paths:       paths,
		logger:      slog.Default(),
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type panelResult struct {
	id      string
	payload models.Payload
	err     error
}

// Resolve builds the ExportSet for root: the root document and, for a
// dashboard, every panel it references.
//
// A root that cannot be fetched fails with *apperr.NotFoundError and no
// panel is fetched. Panels that cannot be fetched are logged and skipped.
// A malformed panel list returns the set holding the root together with
// an error matching apperr.ErrParse.
func (r *Resolver) Resolve(ctx context.Context, root models.Asset) (*models.ExportSet, error) {
	env, err := r.fetch(ctx, root.Type, root.ID)
	if err != nil {
		return nil, &apperr.NotFoundError{Type: root.Type.String(), ID: root.ID, Err: err}
	}

	set := models.NewExportSet()
	payload, ok := parser.Strip(env)
	if !ok {
		r.logger.Warn("resolver: asset has no payload, skipping",
			slog.String("type", root.Type.String()),
			slog.String("id", root.ID))
		return set, nil
	}
	set.Put(r.paths.Path(root.ID), payload)

	if root.Type != models.Dashboard {
		return set, nil
	}

	raw, ok := parser.StringField(payload, parser.PanelsField)
	if !ok {
		return set, fmt.Errorf("resolver: dashboard %s: %w", root.ID,
			&apperr.ParseError{Field: parser.PanelsField, Err: errMissingPanels})
	}
	panels, err := parser.ParsePanels(raw)
	if err != nil {
		return set, fmt.Errorf("resolver: dashboard %s: %w", root.ID, err)
	}

	r.logger.Debug("resolver: dashboard panels",
		slog.String("dashboard", root.ID),
		slog.Int("count", len(panels)))

	for _, res := range r.resolvePanels(ctx, root.ID, panels) {
		if res.err != nil {
			r.logger.Warn("resolver: failed to get asset needed by dashboard",
				slog.String("id", res.id),
				slog.String("dashboard", root.ID),
				slog.String("error", res.err.Error()))
			continue
		}
		set.Put(r.paths.Path(res.id), res.payload)
	}
	return set, nil
}

// resolvePanels fetches panels concurrently and returns their results
// sorted by panel id.
func (r *Resolver) resolvePanels(ctx context.Context, dashboard string, panels map[string]models.AssetType) []panelResult {
	ids := make([]string, 0, len(panels))
	for id := range panels {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	results := make([]panelResult, len(ids))
	g := new(errgroup.Group)
	g.SetLimit(r.concurrency)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			results[i] = r.resolvePanel(ctx, dashboard, id, panels[id])
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (r *Resolver) resolvePanel(ctx context.Context, dashboard, id string, typ models.AssetType) panelResult {
	fail := func(err error) panelResult {
		return panelResult{id: id, err: &apperr.PanelError{Dashboard: dashboard, ID: id, Type: typ.String(), Err: err}}
	}
	if id == "" || typ == "" {
		return fail(errIncompletePanel)
	}
	env, err := r.fetch(ctx, typ, id)
	if err != nil {
		return fail(err)
	}
	payload, ok := parser.Strip(env)
	if !ok {
		return fail(errMissingPayload)
	}
	return panelResult{id: id, payload: payload}
}

// fetch runs the exists-then-get sequence for typ/id. Concurrent fetches
// of the same document share one sequence.
func (r *Resolver) fetch(ctx context.Context, typ models.AssetType, id string) (models.Envelope, error) {
	v, err, _ := r.inflight.Do(typ.String()+"/"+id, func() (any, error) {
		ok, err := r.client.Exists(ctx, r.index, typ.String(), id)
		if err != nil {
			return nil, err
		}
		if !ok {
			r.logger.Info("resolver: no such asset",
				slog.String("index", r.index),
				slog.String("type", typ.String()),
				slog.String("id", id))
			return nil, apperr.ErrNotFound
		}
		env, err := r.client.Get(ctx, r.index, typ.String(), id)
		if err != nil {
			return nil, err
		}
		r.logger.Debug("resolver: get returns",
			slog.String("type", typ.String()),
			slog.String("id", id),
			slog.Int("fields", len(env)))
		return env, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(models.Envelope), nil
}
