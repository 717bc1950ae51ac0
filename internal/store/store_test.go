package store

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://www.Example.com/page", "example.com"},
		{"example.com", "example.com"},
		{"http://example.com", "example.com"},
		{"www.reddit.com/r/golang", "reddit.com"},
		{"HTTPS://WWW.REDDIT.COM", "reddit.com"},
		{"  news.ycombinator.com  ", "news.ycombinator.com"},
		{"localhost:8080/x", "localhost:8080"},
		{"wwwx.com", "wwwx.com"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Key(tt.in)
			if err != nil {
				t.Fatalf("Key(%q): %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("Key(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestKeyIdempotent(t *testing.T) {
	first, _ := Key("https://www.Example.com/page")
	second, _ := Key(first)
	if first != second {
		t.Errorf("Key not idempotent: %q then %q", first, second)
	}
}

func TestKeyEmpty(t *testing.T) {
	if _, err := Key("   "); !errors.Is(err, ErrEmptyURL) {
		t.Errorf("expected ErrEmptyURL, got %v", err)
	}
}

func TestNavigable(t *testing.T) {
	tests := map[string]string{
		"example.com":          "https://example.com",
		"http://example.com/a": "http://example.com/a",
	}
	for in, want := range tests {
		got, err := Navigable(in)
		if err != nil {
			t.Fatalf("Navigable(%q): %v", in, err)
		}
		if got != want {
			t.Errorf("Navigable(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLatest(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	entries := []Entry{
		{ID: "old", Created: base},
		{ID: "new", Created: base.Add(time.Hour)},
		{ID: "tie", Created: base.Add(time.Hour)},
	}
	got, ok := latest(entries)
	if !ok {
		t.Fatal("expected an entry")
	}
	if got.ID != "new" {
		t.Errorf("expected first of the newest entries, got %s", got.ID)
	}

	if _, ok := latest(nil); ok {
		t.Error("expected no entry for empty input")
	}
}

func TestIsTransport(t *testing.T) {
	wrapped := fmt.Errorf("lookup: %w", &TransportError{Op: "get", Err: errors.New("refused")})
	if !IsTransport(wrapped) {
		t.Error("expected wrapped transport error to be detected")
	}
	if IsTransport(errors.New("plain")) {
		t.Error("plain error reported as transport")
	}
}
