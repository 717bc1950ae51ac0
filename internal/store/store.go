// Package store persists page templates keyed by normalized site.
package store

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Entry is one cached page template.
type Entry struct {
	ID       string
	URL      string
	Template string
	Created  time.Time
}

// Store is the get/put-by-key contract. Get reports absence with ok=false and
// a nil error; err is reserved for failures talking to the backend.
type Store interface {
	Get(ctx context.Context, key string) (entry Entry, ok bool, err error)
	Put(ctx context.Context, key, template string) (Entry, error)
	Close() error
}

// TransportError marks a failure reaching the backend, as opposed to a
// well-formed "no such key" answer.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsTransport reports whether err came from the backend transport.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

var ErrEmptyURL = errors.New("empty url")

// Key normalizes a user-entered URL to the cache key: host only, lowercased,
// with any leading "www." removed. Ports are kept.
func Key(rawURL string) (string, error) {
	u, err := parse(rawURL)
	if err != nil {
		return "", err
	}
	host := strings.ToLower(u.Host)
	host = strings.TrimPrefix(host, "www.")
	if host == "" {
		return "", fmt.Errorf("no host in %q", rawURL)
	}
	return host, nil
}

// Navigable returns rawURL with an https scheme added when none was given.
func Navigable(rawURL string) (string, error) {
	u, err := parse(rawURL)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

func parse(rawURL string) (*url.URL, error) {
	s := strings.TrimSpace(rawURL)
	if s == "" {
		return nil, ErrEmptyURL
	}
	lower := strings.ToLower(s)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		s = "https://" + s
	}
	u, err := url.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("invalid url %q: %w", rawURL, err)
	}
	return u, nil
}

// latest picks the most recently created entry; earlier entries win ties.
func latest(entries []Entry) (Entry, bool) {
	if len(entries) == 0 {
		return Entry{}, false
	}
	best := entries[0]
	for _, e := range entries[1:] {
		if e.Created.After(best.Created) {
			best = e
		}
	}
	return best, true
}
