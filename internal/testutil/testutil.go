// Package testutil provides shared test helpers: an in-memory document
// store, a fake Elasticsearch server, and log capture.
package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/starford/assetexport/internal/apperr"
	"github.com/starford/assetexport/internal/models"
)

// Index is the store index used by fixtures.
const Index = ".kibana"

// Call records one request made against a Store.
type Call struct {
	Method string // "exists" or "get"
	Type   string
	ID     string
}

type docKey struct {
	typ string
	id  string
}

// Store is an in-memory document store. It is safe for concurrent use.
type Store struct {
	mu    sync.Mutex
	docs  map[docKey]models.Envelope
	fail  map[docKey]error
	calls []Call
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{
		docs: make(map[docKey]models.Envelope),
		fail: make(map[docKey]error),
	}
}

// Put stores source (a JSON object) as typ/id wrapped in a store envelope.
func (s *Store) Put(typ models.AssetType, id, source string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[docKey{string(typ), id}] = Envelope(typ, id, source)
}

// PutEnvelope stores a raw envelope as typ/id.
func (s *Store) PutEnvelope(typ models.AssetType, id string, env models.Envelope) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[docKey{string(typ), id}] = env
}

// Fail makes every call for typ/id return err.
func (s *Store) Fail(typ models.AssetType, id string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail[docKey{string(typ), id}] = err
}

// Calls returns the calls made so far.
func (s *Store) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

// CallsFor returns the calls made for id.
func (s *Store) CallsFor(id string) []Call {
	var out []Call
	for _, c := range s.Calls() {
		if c.ID == id {
			out = append(out, c)
		}
	}
	return out
}

// Exists implements docstore.Client.
func (s *Store) Exists(ctx context.Context, _, typ, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, Call{Method: "exists", Type: typ, ID: id})
	if err := ctx.Err(); err != nil {
		return false, err
	}
	k := docKey{typ, id}
	if err := s.fail[k]; err != nil {
		return false, err
	}
	_, ok := s.docs[k]
	return ok, nil
}

// Get implements docstore.Client.
func (s *Store) Get(ctx context.Context, index, typ, id string) (models.Envelope, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, Call{Method: "get", Type: typ, ID: id})
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	k := docKey{typ, id}
	if err := s.fail[k]; err != nil {
		return nil, err
	}
	env, ok := s.docs[k]
	if !ok {
		return nil, fmt.Errorf("get %s/%s/%s: %w", index, typ, id, apperr.ErrNotFound)
	}
	return env, nil
}

// Envelope builds an Elasticsearch-style envelope around source.
func Envelope(typ models.AssetType, id, source string) models.Envelope {
	quote := func(s string) json.RawMessage {
		b, _ := json.Marshal(s)
		return b
	}
	return models.Envelope{
		"_index":   quote(Index),
		"_type":    quote(string(typ)),
		"_id":      quote(id),
		"_version": json.RawMessage("1"),
		"found":    json.RawMessage("true"),
		"_source":  json.RawMessage(source),
	}
}

// DashboardSource returns a dashboard _source whose panelsJSON lists panels,
// serialized the way the store keeps it (a JSON string inside the object).
func DashboardSource(title string, panels ...models.Panel) string {
	items := make([]map[string]any, 0, len(panels))
	for i, p := range panels {
		items = append(items, map[string]any{
			"id":     p.ID,
			"type":   p.Type,
			"col":    1 + (i%2)*6,
			"row":    1 + i/2,
			"size_x": 6,
			"size_y": 3,
		})
	}
	panelsJSON, _ := json.Marshal(items)
	src, _ := json.Marshal(map[string]any{
		"title":       title,
		"panelsJSON":  string(panelsJSON),
		"timeRestore": false,
	})
	return string(src)
}

// Server starts a fake Elasticsearch serving the documents in s.
// delay is applied to every request before it is answered.
func Server(t *testing.T, s *Store, delay time.Duration) *httptest.Server {
	t.Helper()

	wait := func(r *http.Request) bool {
		if delay <= 0 {
			return true
		}
		select {
		case <-time.After(delay):
			return true
		case <-r.Context().Done():
			return false
		}
	}

	r := chi.NewRouter()
	r.Head("/{index}/{type}/{id}", func(w http.ResponseWriter, r *http.Request) {
		if !wait(r) {
			return
		}
		ok, err := s.Exists(r.Context(), chi.URLParam(r, "index"), chi.URLParam(r, "type"), chi.URLParam(r, "id"))
		switch {
		case err != nil:
			w.WriteHeader(http.StatusInternalServerError)
		case !ok:
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusOK)
		}
	})
	r.Get("/{index}/{type}/{id}", func(w http.ResponseWriter, r *http.Request) {
		if !wait(r) {
			return
		}
		index, typ, id := chi.URLParam(r, "index"), chi.URLParam(r, "type"), chi.URLParam(r, "id")
		env, err := s.Get(r.Context(), index, typ, id)
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		if err != nil {
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]any{"_index": index, "_type": typ, "_id": id, "found": false})
			return
		}
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(env)
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

// LogBuffer collects log output; safe for concurrent writers.
type LogBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *LogBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

// String returns everything logged so far.
func (b *LogBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// Count returns how many log lines contain substr.
func (b *LogBuffer) Count(substr string) int {
	n := 0
	for _, line := range strings.Split(b.String(), "\n") {
		if strings.Contains(line, substr) {
			n++
		}
	}
	return n
}

// Logger returns a debug-level JSON logger writing into a LogBuffer.
func Logger(t *testing.T) (*slog.Logger, *LogBuffer) {
	t.Helper()
	buf := &LogBuffer{}
	logger := slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return logger, buf
}
