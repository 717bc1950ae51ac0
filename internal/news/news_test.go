package news

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/GetMystAdmin/hot-pot/internal/config"
)

const headlinesJSON = `{"status":"ok","totalResults":3,"articles":[
 {"source":{"id":null,"name":"AP"},"title":"One","description":"first","url":"https://a/1","publishedAt":"2024-05-01T10:00:00Z"},
 {"source":{"id":null,"name":"Reuters"},"title":"Two","description":"second","url":"https://a/2","publishedAt":"2024-05-01T09:00:00Z"},
 {"source":{"id":null,"name":"BBC"},"title":"Three","description":null,"url":"https://a/3","publishedAt":"2024-05-01T08:00:00Z"}
]}`

const rssXML = `<?xml version="1.0"?>
<rss version="2.0"><channel><title>HN</title>
<item><title>Old</title><link>https://x/old</link><description>&lt;p&gt;old item&lt;/p&gt;</description><pubDate>Mon, 01 Jan 2024 00:00:00 +0000</pubDate></item>
<item><title>New</title><link>https://x/new</link><description>new item</description><pubDate>Tue, 02 Jan 2024 00:00:00 +0000</pubDate></item>
</channel></rss>`

func newsServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/entertainment/us.json":
			io.WriteString(w, headlinesJSON)
		case "/feed.xml":
			w.Header().Set("Content-Type", "application/rss+xml")
			io.WriteString(w, rssXML)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestJSONFetcherLimit(t *testing.T) {
	srv := newsServer(t)
	c := NewClient(2 * time.Second)

	got, err := c.Fetch(context.Background(), config.Source{Name: "entertainment", Type: "json", URL: srv.URL + "/entertainment/us.json"}, 2)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(got))
	}
	if got[0].Title != "One" || got[0].SourceName != "AP" || got[0].Description != "first" {
		t.Errorf("unexpected first article %+v", got[0])
	}
}

func TestJSONFetcherStatus(t *testing.T) {
	srv := newsServer(t)
	c := NewClient(2 * time.Second)
	_, err := c.Fetch(context.Background(), config.Source{Name: "general", Type: "json", URL: srv.URL + "/missing.json"}, 5)
	if err == nil {
		t.Fatal("expected error for 404")
	}
}

func TestRSSFetcherNewestFirst(t *testing.T) {
	srv := newsServer(t)
	c := NewClient(2 * time.Second)

	got, err := c.Fetch(context.Background(), config.Source{Name: "hn", Type: "rss", URL: srv.URL + "/feed.xml"}, 5)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 items, got %d", len(got))
	}
	if got[0].Title != "New" {
		t.Errorf("expected newest first, got %q", got[0].Title)
	}
	if got[1].Description != "old item" {
		t.Errorf("expected stripped description, got %q", got[1].Description)
	}
	if got[0].SourceName != "HN" {
		t.Errorf("expected feed title as source, got %q", got[0].SourceName)
	}
}

func TestGatherKeepsPartialResults(t *testing.T) {
	srv := newsServer(t)
	c := NewClient(2 * time.Second)
	sources := []config.Source{
		{Name: "entertainment", Type: "json", URL: srv.URL + "/entertainment/us.json"},
		{Name: "general", Type: "json", URL: srv.URL + "/general/us.json"},
	}

	cats := FetchAll(context.Background(), c, sources, 5)
	if len(cats) != 2 || cats[0].Name != "entertainment" || cats[1].Name != "general" {
		t.Fatalf("unexpected categories %+v", cats)
	}
	if cats[1].Err == nil {
		t.Error("expected error on missing category")
	}

	all, err := Gather(context.Background(), c, sources, 5)
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 articles, got %d", len(all))
	}
}

func TestGatherAllFailed(t *testing.T) {
	srv := newsServer(t)
	c := NewClient(2 * time.Second)
	_, err := Gather(context.Background(), c, []config.Source{{Name: "x", Type: "json", URL: srv.URL + "/nope"}}, 5)
	if err == nil {
		t.Error("expected error when every source fails")
	}
}

func TestFormat(t *testing.T) {
	got := Format([]Article{
		{Title: "A", SourceName: "S1", Description: "d1"},
		{Title: "B", SourceName: "S2", Description: "d2"},
	})
	want := "Title: A\nSource: S1\nDescription: d1\n\nTitle: B\nSource: S2\nDescription: d2"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if Format(nil) != "" {
		t.Error("expected empty text for no articles")
	}
}

func TestDisplay(t *testing.T) {
	var buf bytes.Buffer
	Display(&buf, "general", []Article{{Title: "A", SourceName: "S", Description: "d"}})
	out := buf.String()
	for _, want := range []string{"General News:", "1. A", "Source: S", "Description: d"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in %q", want, out)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		input string
		n     int
		want  string
	}{
		{"short", 10, "short"},
		{"this is a long string", 10, "this is..."},
		{"abcd", 3, "abc"},
		{"", 5, ""},
	}
	for _, tt := range tests {
		got := truncate(tt.input, tt.n)
		if got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.input, tt.n, got, tt.want)
		}
	}
}

func TestStripHTML(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"<p>Hello</p>", "Hello"},
		{"<b>Bold</b> and <i>italic</i>", "Bold and italic"},
		{"<div>  Multiple   spaces  </div>", "Multiple spaces"},
		{"<a href=\"url\">Link</a> text", "Link text"},
	}
	for _, tt := range tests {
		got := stripHTML(tt.input)
		if got != tt.want {
			t.Errorf("stripHTML(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
