package docstore

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/starford/assetexport/internal/apperr"
	"github.com/starford/assetexport/internal/models"
	"github.com/starford/assetexport/internal/parser"
)

// maxEnvelopeSize bounds a single document response.
const maxEnvelopeSize = 32 << 20

// HTTP implements Client against the Elasticsearch document API
// (HEAD/GET {base}/{index}/{type}/{id}).
type HTTP struct {
	base    string
	timeout time.Duration
	client  *http.Client
}

// HTTPOption configures an HTTP client.
type HTTPOption func(*HTTP)

// WithHTTPClient sets the underlying *http.Client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(h *HTTP) {
		h.client = c
	}
}

// NewHTTP creates a client for the store at baseURL. Every call is bounded
// by timeout; zero disables the per-call bound.
func NewHTTP(baseURL string, timeout time.Duration, opts ...HTTPOption) (*HTTP, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("docstore: parse url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("docstore: unsupported scheme %q", u.Scheme)
	}
	h := &HTTP{
		base:    strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		client:  http.DefaultClient,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Exists issues HEAD on the document.
func (h *HTTP) Exists(ctx context.Context, index, typ, id string) (bool, error) {
	resp, cancel, err := h.do(ctx, http.MethodHead, index, typ, id)
	if err != nil {
		return false, err
	}
	defer cancel()
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("docstore: exists %s/%s/%s: unexpected status %d", index, typ, id, resp.StatusCode)
	}
}

// Get issues GET on the document and decodes its envelope.
func (h *HTTP) Get(ctx context.Context, index, typ, id string) (models.Envelope, error) {
	resp, cancel, err := h.do(ctx, http.MethodGet, index, typ, id)
	if err != nil {
		return nil, err
	}
	defer cancel()
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("docstore: get %s/%s/%s: %w", index, typ, id, apperr.ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("docstore: get %s/%s/%s: unexpected status %d", index, typ, id, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxEnvelopeSize))
	if err != nil {
		return nil, fmt.Errorf("docstore: read %s/%s/%s: %w", index, typ, id, err)
	}
	env, err := parser.DecodeEnvelope(data)
	if err != nil {
		return nil, fmt.Errorf("docstore: decode %s/%s/%s: %w", index, typ, id, err)
	}
	return env, nil
}

// do sends one request under the per-call timeout. The returned cancel
// must be called once the body has been consumed.
func (h *HTTP) do(ctx context.Context, method, index, typ, id string) (*http.Response, context.CancelFunc, error) {
	cancel := context.CancelFunc(func() {})
	if h.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
	}

	req, err := http.NewRequestWithContext(ctx, method, h.docURL(index, typ, id), nil)
	if err != nil {
		cancel()
		return nil, nil, fmt.Errorf("docstore: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		cancel()
		return nil, nil, fmt.Errorf("docstore: %s %s/%s/%s: %w", strings.ToLower(method), index, typ, id, err)
	}
	return resp, cancel, nil
}

func (h *HTTP) docURL(index, typ, id string) string {
	return h.base + "/" + url.PathEscape(index) + "/" + url.PathEscape(typ) + "/" + url.PathEscape(id)
}
