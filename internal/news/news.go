// Package news fetches headline lists and flattens them into the text block
// handed to the post generator.
package news

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/GetMystAdmin/hot-pot/internal/config"
	"golang.org/x/sync/errgroup"
)

type Article struct {
	Title       string
	SourceName  string
	Description string
	Link        string
	Published   time.Time
}

type Fetcher interface {
	Fetch(ctx context.Context, source config.Source, limit int) ([]Article, error)
}

// Client dispatches each source to the fetcher for its type.
type Client struct {
	json *JSONFetcher
	rss  *RSSFetcher
}

func NewClient(timeout time.Duration) *Client {
	hc := &http.Client{Timeout: timeout}
	return &Client{json: NewJSONFetcher(hc), rss: NewRSSFetcher(hc)}
}

func (c *Client) Fetch(ctx context.Context, source config.Source, limit int) ([]Article, error) {
	switch source.Type {
	case "json", "":
		return c.json.Fetch(ctx, source, limit)
	case "rss", "atom":
		return c.rss.Fetch(ctx, source, limit)
	default:
		return nil, fmt.Errorf("source %q: unsupported type %q", source.Name, source.Type)
	}
}

// Category is one source's articles, in the order the sources were given.
type Category struct {
	Name     string
	Articles []Article
	Err      error
}

// FetchAll fetches every source concurrently. Per-source failures are kept
// on the Category rather than failing the whole batch.
func FetchAll(ctx context.Context, f Fetcher, sources []config.Source, limit int) []Category {
	out := make([]Category, len(sources))
	g, ctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		g.Go(func() error {
			articles, err := f.Fetch(ctx, src, limit)
			out[i] = Category{Name: src.Name, Articles: articles, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// Gather fetches every source and returns all articles. It fails only when
// no source produced anything.
func Gather(ctx context.Context, f Fetcher, sources []config.Source, limit int) ([]Article, error) {
	var (
		all  []Article
		errs []string
	)
	for _, c := range FetchAll(ctx, f, sources, limit) {
		if c.Err != nil {
			errs = append(errs, c.Err.Error())
			continue
		}
		all = append(all, c.Articles...)
	}
	if len(all) == 0 && len(errs) > 0 {
		return nil, fmt.Errorf("fetching news: %s", strings.Join(errs, "; "))
	}
	return all, nil
}

// Feed is a fixed set of sources read with one fetcher.
type Feed struct {
	Fetcher Fetcher
	Sources []config.Source
	Limit   int
}

// Latest gathers up to Limit articles from each source.
func (f Feed) Latest(ctx context.Context) ([]Article, error) {
	return Gather(ctx, f.Fetcher, f.Sources, f.Limit)
}

// Format renders each article as a Title/Source/Description block.
func Format(articles []Article) string {
	blocks := make([]string, 0, len(articles))
	for _, a := range articles {
		blocks = append(blocks, fmt.Sprintf("Title: %s\nSource: %s\nDescription: %s", a.Title, a.SourceName, a.Description))
	}
	return strings.Join(blocks, "\n\n")
}

// Display writes a numbered listing for one category.
func Display(w io.Writer, category string, articles []Article) {
	if len(articles) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s News:\n", titleCase(category))
	for i, a := range articles {
		fmt.Fprintf(w, "\n%d. %s\n", i+1, a.Title)
		fmt.Fprintf(w, "Source: %s\n", a.SourceName)
		fmt.Fprintf(w, "Description: %s\n", a.Description)
	}
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
