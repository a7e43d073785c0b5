package apperr

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestNotFoundError_Kind(t *testing.T) {
	err := error(&NotFoundError{Type: "dashboard", ID: "ops", Err: context.DeadlineExceeded})
	if !errors.Is(err, ErrNotFound) {
		t.Error("expected ErrNotFound kind")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Error("expected cause to be reachable")
	}
	if !strings.Contains(err.Error(), "did not find any dashboard named ops") {
		t.Errorf("message = %q", err.Error())
	}
}

func TestNotFoundError_NoDuplicateCause(t *testing.T) {
	err := &NotFoundError{Type: "search", ID: "s1", Err: ErrNotFound}
	if got := err.Error(); got != "did not find any search named s1" {
		t.Errorf("message = %q", got)
	}
}

func TestKindsAreDistinct(t *testing.T) {
	cases := []struct {
		err  error
		kind error
	}{
		{&PanelError{ID: "p"}, ErrPanelFetch},
		{&ParseError{Field: "panelsJSON"}, ErrParse},
		{&WriteError{Path: "/x.json"}, ErrWrite},
		{Usage("no arguments supplied"), ErrUsage},
	}
	for _, c := range cases {
		if !errors.Is(c.err, c.kind) {
			t.Errorf("%v: expected kind %v", c.err, c.kind)
		}
		if errors.Is(c.err, ErrNotFound) {
			t.Errorf("%v: should not be ErrNotFound", c.err)
		}
	}
}

func TestParseError_NamesField(t *testing.T) {
	err := &ParseError{Field: "panelsJSON", Err: errors.New("unexpected end of JSON input")}
	if !strings.Contains(err.Error(), "panelsJSON") {
		t.Errorf("message = %q", err.Error())
	}
}
