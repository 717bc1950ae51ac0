package news

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/GetMystAdmin/hot-pot/internal/config"
	"github.com/mmcdole/gofeed"
)

type RSSFetcher struct {
	parser *gofeed.Parser
}

func NewRSSFetcher(client *http.Client) *RSSFetcher {
	p := gofeed.NewParser()
	if client != nil {
		p.Client = client
	}
	return &RSSFetcher{parser: p}
}

// Fetch returns the newest items first.
func (f *RSSFetcher) Fetch(ctx context.Context, source config.Source, limit int) ([]Article, error) {
	feed, err := f.parser.ParseURLWithContext(source.URL, ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", source.Name, err)
	}

	sourceName := feed.Title
	if sourceName == "" {
		sourceName = source.Name
	}

	articles := make([]Article, 0, len(feed.Items))
	for _, item := range feed.Items {
		a := Article{Title: item.Title, SourceName: sourceName, Link: item.Link}
		if item.PublishedParsed != nil {
			a.Published = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			a.Published = *item.UpdatedParsed
		}

		desc := item.Description
		if desc == "" {
			desc = item.Content
		}
		a.Description = truncate(stripHTML(desc), 300)
		articles = append(articles, a)
	}

	sort.SliceStable(articles, func(i, j int) bool {
		return articles[i].Published.After(articles[j].Published)
	})
	if limit > 0 && len(articles) > limit {
		articles = articles[:limit]
	}
	return articles, nil
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}

func stripHTML(s string) string {
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
