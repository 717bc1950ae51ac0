package news

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/GetMystAdmin/hot-pot/internal/config"
)

// JSONFetcher reads NewsAPI-shaped documents: {"articles": [...]}.
type JSONFetcher struct {
	client *http.Client
}

func NewJSONFetcher(client *http.Client) *JSONFetcher {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &JSONFetcher{client: client}
}

type headlines struct {
	Articles []struct {
		Source struct {
			Name string `json:"name"`
		} `json:"source"`
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		PublishedAt string `json:"publishedAt"`
	} `json:"articles"`
}

func (f *JSONFetcher) Fetch(ctx context.Context, source config.Source, limit int) ([]Article, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source.URL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", source.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("fetching %s: status %d", source.Name, resp.StatusCode)
	}

	var h headlines
	if err := json.NewDecoder(resp.Body).Decode(&h); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", source.Name, err)
	}

	items := h.Articles
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	articles := make([]Article, 0, len(items))
	for _, it := range items {
		pub, _ := time.Parse(time.RFC3339, it.PublishedAt)
		articles = append(articles, Article{
			Title:       it.Title,
			SourceName:  it.Source.Name,
			Description: it.Description,
			Link:        it.URL,
			Published:   pub,
		})
	}
	return articles, nil
}
