package shell

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/GetMystAdmin/hot-pot/internal/metrics"
	"github.com/GetMystAdmin/hot-pot/internal/pipeline"
	"github.com/GetMystAdmin/hot-pot/internal/profile"
	"github.com/prometheus/client_golang/prometheus"
)

type fakeNav struct {
	res  pipeline.Result
	err  error
	prof profile.Profile
}

func (f *fakeNav) Navigate(_ context.Context, rawURL string, prof profile.Profile) (pipeline.Result, error) {
	f.prof = prof
	if f.err != nil {
		return pipeline.Result{}, f.err
	}
	return f.res, nil
}

type fakeRegen struct {
	mu      sync.Mutex
	claimed map[string]bool
	urls    []string
}

func (r *fakeRegen) Claim(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.claimed == nil {
		r.claimed = map[string]bool{}
	}
	if r.claimed[key] {
		return false
	}
	r.claimed[key] = true
	return true
}

func (r *fakeRegen) Regenerate(_ context.Context, rawURL string) (pipeline.Notice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.urls = append(r.urls, rawURL)
	return pipeline.Notice{Success: true}, nil
}

func get(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestBrowseServesDocument(t *testing.T) {
	tests := []struct {
		name    string
		outcome pipeline.Outcome
	}{
		{"personalized", pipeline.Personalized},
		{"cached", pipeline.Cached},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nav := &fakeNav{res: pipeline.Result{Key: "example.com", Outcome: tt.outcome, Document: "<html>doc</html>"}}
			s := New(Options{Navigator: nav})

			rec := get(t, s, "/browse?url=example.com")
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d", rec.Code)
			}
			if rec.Body.String() != "<html>doc</html>" {
				t.Errorf("body = %q", rec.Body.String())
			}
			if got := rec.Header().Get(OutcomeHeader); got != tt.name {
				t.Errorf("outcome header = %q", got)
			}
		})
	}
}

func TestBrowseAppliesTraits(t *testing.T) {
	nav := &fakeNav{res: pipeline.Result{Outcome: pipeline.Cached}}
	base := profile.New(profile.Trait{Name: "Humor", Value: 5})
	s := New(Options{Navigator: nav, Profile: base})

	rec := get(t, s, "/browse?url=example.com&trait=Humor=9")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if v, _ := nav.prof.Value("Humor"); v != 9 {
		t.Errorf("Humor = %d, want 9", v)
	}

	if rec := get(t, s, "/browse?url=example.com&trait=nonsense"); rec.Code != http.StatusBadRequest {
		t.Errorf("bad trait status = %d", rec.Code)
	}
}

func TestBrowseBadRequests(t *testing.T) {
	s := New(Options{Navigator: &fakeNav{err: errors.New("bad url")}})
	for _, target := range []string{"/browse", "/browse?url=%3A%2F%2F"} {
		if rec := get(t, s, target); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d", target, rec.Code)
		}
	}
}

func TestBrowseMissRedirectsAndRegeneratesOnce(t *testing.T) {
	nav := &fakeNav{res: pipeline.Result{Key: "example.com", URL: "https://example.com", Outcome: pipeline.Live}}
	regen := &fakeRegen{}
	s := New(Options{Navigator: nav, Regenerator: regen, AutoRegenerate: true})

	for range 2 {
		rec := get(t, s, "/browse?url=example.com")
		if rec.Code != http.StatusFound {
			t.Fatalf("status = %d", rec.Code)
		}
		if loc := rec.Header().Get("Location"); loc != "https://example.com" {
			t.Errorf("Location = %q", loc)
		}
	}
	s.Wait()
	if len(regen.urls) != 1 || regen.urls[0] != "https://example.com" {
		t.Errorf("expected one regeneration, got %v", regen.urls)
	}
}

func TestBrowseMissWithoutAutoRegenerate(t *testing.T) {
	nav := &fakeNav{res: pipeline.Result{Key: "example.com", URL: "https://example.com", Outcome: pipeline.Live}}
	regen := &fakeRegen{}
	s := New(Options{Navigator: nav, Regenerator: regen})

	get(t, s, "/browse?url=example.com")
	s.Wait()
	if len(regen.urls) != 0 {
		t.Errorf("regeneration ran with auto regenerate off: %v", regen.urls)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	m.Lookup("hit")

	s := New(Options{Navigator: &fakeNav{}, Gatherer: reg})
	if rec := get(t, s, "/healthz"); rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Errorf("healthz = %d %q", rec.Code, rec.Body.String())
	}
	rec := get(t, s, "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "hotpot_") {
		t.Errorf("metrics output missing hotpot series:\n%s", rec.Body.String())
	}
}

func TestShutdownCancelsBackgroundWork(t *testing.T) {
	s := New(Options{Navigator: &fakeNav{}})
	if err := s.Shutdown(context.Background()); err != nil {
		t.Errorf("shutdown: %v", err)
	}
	if s.bg.Err() == nil {
		t.Error("background context still live after shutdown")
	}
}
