package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
)

// AstraOptions configures the Astra REST v2 backend.
type AstraOptions struct {
	DBID     string
	Region   string
	Keyspace string
	Table    string
	Token    string
	// BaseURL overrides https://{DBID}-{Region}.apps.astra.datastax.com.
	BaseURL string
	Timeout time.Duration
}

// AstraStore talks to an Astra DB table over its REST v2 API. Put always
// inserts a new row; Get resolves duplicates by most recent creation time.
type AstraStore struct {
	baseURL  string
	keyspace string
	table    string
	token    string
	client   *http.Client
	now      func() time.Time
}

func NewAstra(opts AstraOptions) *AstraStore {
	base := opts.BaseURL
	if base == "" {
		base = fmt.Sprintf("https://%s-%s.apps.astra.datastax.com", opts.DBID, opts.Region)
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &AstraStore{
		baseURL:  base,
		keyspace: opts.Keyspace,
		table:    opts.Table,
		token:    opts.Token,
		client:   &http.Client{Timeout: timeout},
		now:      time.Now,
	}
}

type astraRow struct {
	ID       string `json:"id"`
	URL      string `json:"url"`
	Template string `json:"template"`
	Created  string `json:"created"`
}

type astraRows struct {
	Count int        `json:"count"`
	Data  []astraRow `json:"data"`
}

// Python-style isoformat without zone is what older rows carry.
var createdLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
}

func parseCreated(s string) time.Time {
	for _, layout := range createdLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func (a *AstraStore) rowsURL() string {
	return fmt.Sprintf("%s/api/rest/v2/keyspaces/%s/%s", a.baseURL, url.PathEscape(a.keyspace), url.PathEscape(a.table))
}

func (a *AstraStore) Get(ctx context.Context, key string) (Entry, bool, error) {
	where, _ := json.Marshal(map[string]any{"url": map[string]string{"$eq": key}})
	q := url.Values{"where": {string(where)}}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.rowsURL()+"?"+q.Encode(), nil)
	if err != nil {
		return Entry{}, false, err
	}
	a.setHeaders(req)

	resp, err := a.client.Do(req)
	if err != nil {
		return Entry{}, false, &TransportError{Op: "get", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return Entry{}, false, nil
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Entry{}, false, &TransportError{Op: "get", Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return Entry{}, false, statusError("get", resp.StatusCode, body)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return Entry{}, false, nil
	}

	var rows astraRows
	if err := json.Unmarshal(body, &rows); err != nil {
		return Entry{}, false, fmt.Errorf("decoding astra rows: %w", err)
	}
	entries := make([]Entry, 0, len(rows.Data))
	for _, r := range rows.Data {
		entries = append(entries, Entry{ID: r.ID, URL: r.URL, Template: r.Template, Created: parseCreated(r.Created)})
	}
	e, ok := latest(entries)
	return e, ok, nil
}

func (a *AstraStore) Put(ctx context.Context, key, template string) (Entry, error) {
	e := Entry{ID: uuid.NewString(), URL: key, Template: template, Created: a.now().UTC()}
	body, _ := json.Marshal(astraRow{
		ID:       e.ID,
		URL:      e.URL,
		Template: e.Template,
		Created:  e.Created.Format(time.RFC3339Nano),
	})

	if err := a.post(ctx, "put", a.rowsURL(), body); err != nil {
		return Entry{}, err
	}
	return e, nil
}

// EnsureTable creates the cache table if it does not exist yet.
func (a *AstraStore) EnsureTable(ctx context.Context) error {
	payload := map[string]any{
		"name":        a.table,
		"ifNotExists": true,
		"columnDefinitions": []map[string]any{
			{"name": "id", "typeDefinition": "text", "static": false},
			{"name": "url", "typeDefinition": "text", "static": false},
			{"name": "template", "typeDefinition": "text", "static": false},
			{"name": "created", "typeDefinition": "text", "static": false},
		},
		"primaryKey":   map[string]any{"partitionKey": []string{"id"}},
		"tableOptions": map[string]any{"defaultTimeToLive": 0},
	}
	body, _ := json.Marshal(payload)
	u := fmt.Sprintf("%s/api/rest/v2/schemas/keyspaces/%s/tables", a.baseURL, url.PathEscape(a.keyspace))
	return a.post(ctx, "create table", u, body)
}

func (a *AstraStore) post(ctx context.Context, op, u string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return err
	}
	a.setHeaders(req)

	resp, err := a.client.Do(req)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return statusError(op, resp.StatusCode, b)
	}
	return nil
}

func (a *AstraStore) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Cassandra-Token", a.token)
}

func (a *AstraStore) Close() error {
	a.client.CloseIdleConnections()
	return nil
}

// statusError treats 5xx and 429 as transport trouble; other codes are final.
func statusError(op string, code int, body []byte) error {
	if len(body) > 1024 {
		body = body[:1024]
	}
	err := fmt.Errorf("astra %s %d: %s", op, code, bytes.TrimSpace(body))
	if code >= 500 || code == http.StatusTooManyRequests {
		return &TransportError{Op: op, Err: err}
	}
	return err
}
