package internal

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/starford/assetexport/internal/apperr"
	"github.com/starford/assetexport/internal/models"
	"github.com/starford/assetexport/internal/testutil"
)

func listJSON(t *testing.T, dir string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, m := range matches {
		names = append(names, filepath.Base(m))
	}
	sort.Strings(names)
	return names
}

func dashboardStore() *testutil.Store {
	store := testutil.NewStore()
	store.Put(models.Dashboard, "ops", testutil.DashboardSource("Ops",
		models.Panel{ID: "cpu", Type: models.Visualization},
		models.Panel{ID: "gone", Type: models.Visualization},
		models.Panel{ID: "errors", Type: models.Search},
	))
	store.Put(models.Visualization, "cpu", `{"title":"CPU"}`)
	store.Put(models.Search, "errors", `{"title":"Errors"}`)
	return store
}

func TestRun_DashboardOverHTTP(t *testing.T) {
	srv := testutil.Server(t, dashboardStore(), 0)
	out := t.TempDir()

	cfg := NewDefaultConfig()
	cfg.Store.URL = srv.URL
	cfg.Store.Index = testutil.Index

	err := Run(context.Background(),
		WithConfig(cfg),
		WithTarget(models.Asset{Type: models.Dashboard, ID: "ops"}),
		WithOutputDir(out+"/"),
		WithLogOutput(io.Discard))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []string{"cpu.json", "errors.json", "ops.json"}
	if diff := cmp.Diff(want, listJSON(t, out)); diff != "" {
		t.Errorf("files mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_VisualizationRoundTrip(t *testing.T) {
	store := testutil.NewStore()
	source := `{"title":"Sales","visState":"{\"type\":\"line\"}","uiStateJSON":"{}"}`
	store.Put(models.Visualization, "sales-chart", source)
	out := t.TempDir()

	err := Run(context.Background(),
		WithConfig(NewDefaultConfig()),
		WithClient(store),
		WithTarget(models.Asset{Type: models.Visualization, ID: "sales-chart"}),
		WithOutputDir(out),
		WithLogOutput(io.Discard))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(out, "sales-chart.json"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	var got, want map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal output: %v", err)
	}
	_ = json.Unmarshal([]byte(source), &want)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("content mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(string(data), "\n  \"title\"") {
		t.Errorf("output is not pretty-printed:\n%s", data)
	}
}

func TestRun_RootNotFound(t *testing.T) {
	store := dashboardStore()
	out := t.TempDir()

	err := Run(context.Background(),
		WithConfig(NewDefaultConfig()),
		WithClient(store),
		WithTarget(models.Asset{Type: models.Dashboard, ID: "absent"}),
		WithOutputDir(out),
		WithLogOutput(io.Discard))
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if ExitCode(err) != ExitUsage {
		t.Errorf("exit code = %d, want %d", ExitCode(err), ExitUsage)
	}
	if files := listJSON(t, out); len(files) != 0 {
		t.Errorf("expected no files, got %v", files)
	}
	for _, c := range store.Calls() {
		if c.ID != "absent" {
			t.Errorf("unexpected fetch %+v", c)
		}
	}
}

func TestRun_MalformedPanelsWritesRoot(t *testing.T) {
	store := testutil.NewStore()
	store.Put(models.Dashboard, "bad", `{"title":"Bad","panelsJSON":"[{"}`)
	out := t.TempDir()

	err := Run(context.Background(),
		WithConfig(NewDefaultConfig()),
		WithClient(store),
		WithTarget(models.Asset{Type: models.Dashboard, ID: "bad"}),
		WithOutputDir(out),
		WithLogOutput(io.Discard))
	if !errors.Is(err, apperr.ErrParse) {
		t.Fatalf("err = %v, want ErrParse", err)
	}
	if ExitCode(err) != ExitFailure {
		t.Errorf("exit code = %d, want %d", ExitCode(err), ExitFailure)
	}
	if diff := cmp.Diff([]string{"bad.json"}, listJSON(t, out)); diff != "" {
		t.Errorf("files mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_WriteFailureSurfaced(t *testing.T) {
	store := testutil.NewStore()
	store.Put(models.Dashboard, "d", testutil.DashboardSource("D",
		models.Panel{ID: "../escape", Type: models.Visualization},
		models.Panel{ID: "ok", Type: models.Visualization},
	))
	store.Put(models.Visualization, "../escape", `{"title":"escape"}`)
	store.Put(models.Visualization, "ok", `{"title":"ok"}`)
	out := t.TempDir()

	err := Run(context.Background(),
		WithConfig(NewDefaultConfig()),
		WithClient(store),
		WithTarget(models.Asset{Type: models.Dashboard, ID: "d"}),
		WithOutputDir(out),
		WithLogOutput(io.Discard))
	if !errors.Is(err, apperr.ErrWrite) {
		t.Fatalf("err = %v, want ErrWrite", err)
	}
	if ExitCode(err) != ExitFailure {
		t.Errorf("exit code = %d, want %d", ExitCode(err), ExitFailure)
	}
	if diff := cmp.Diff([]string{"d.json", "ok.json"}, listJSON(t, out)); diff != "" {
		t.Errorf("files mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_LogFile(t *testing.T) {
	store := testutil.NewStore()
	store.Put(models.Search, "s1", `{"title":"S"}`)
	out := t.TempDir()
	logFile := filepath.Join(t.TempDir(), "export.log")

	cfg := NewDefaultConfig()
	cfg.App.LogFile = logFile
	err := Run(context.Background(),
		WithConfig(cfg),
		WithClient(store),
		WithTarget(models.Asset{Type: models.Search, ID: "s1"}),
		WithOutputDir(out))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), "Export finished") {
		t.Errorf("log file missing summary:\n%s", data)
	}
}

func TestRun_RequiresConfigAndTarget(t *testing.T) {
	if err := Run(context.Background()); err == nil {
		t.Error("expected error without config")
	}
	err := Run(context.Background(), WithConfig(NewDefaultConfig()))
	if !errors.Is(err, apperr.ErrUsage) {
		t.Errorf("err = %v, want ErrUsage", err)
	}
}

func TestParseTarget(t *testing.T) {
	cases := []struct {
		d, v, s string
		want    models.Asset
		usage   bool
	}{
		{d: "ops", want: models.Asset{Type: models.Dashboard, ID: "ops"}},
		{v: "sales-chart", want: models.Asset{Type: models.Visualization, ID: "sales-chart"}},
		{s: "errors", want: models.Asset{Type: models.Search, ID: "errors"}},
		{usage: true},
		{d: "ops", s: "errors", usage: true},
	}
	for _, c := range cases {
		got, err := ParseTarget(c.d, c.v, c.s)
		if c.usage {
			if !errors.Is(err, apperr.ErrUsage) {
				t.Errorf("ParseTarget(%q,%q,%q) err = %v, want usage error", c.d, c.v, c.s, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseTarget(%q,%q,%q): %v", c.d, c.v, c.s, err)
			continue
		}
		if got != c.want {
			t.Errorf("ParseTarget(%q,%q,%q) = %+v, want %+v", c.d, c.v, c.s, got, c.want)
		}
	}
}

func TestExitCode(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, ExitOK},
		{apperr.Usage("x"), ExitUsage},
		{&apperr.NotFoundError{Type: "dashboard", ID: "x"}, ExitUsage},
		{&apperr.ParseError{Field: "panelsJSON"}, ExitFailure},
		{errors.Join(&apperr.WriteError{Path: "/a.json", Err: os.ErrPermission}), ExitFailure},
		{errors.New("boom"), ExitFailure},
	}
	for _, c := range cases {
		if got := ExitCode(c.err); got != c.want {
			t.Errorf("ExitCode(%v) = %d, want %d", c.err, got, c.want)
		}
	}
}

func TestDefaultOutputDir(t *testing.T) {
	dir := DefaultOutputDir()
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		t.Errorf("DefaultOutputDir() = %q is not a directory", dir)
	}
}
