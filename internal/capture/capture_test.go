package capture

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"testing"
	"time"
)

func haveChrome() bool {
	for _, name := range []string{"google-chrome", "chromium", "chromium-browser", "headless-shell"} {
		if _, err := exec.LookPath(name); err == nil {
			return true
		}
	}
	return false
}

func TestCaptureCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewChrome().Capture(ctx, "http://127.0.0.1:1"); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestCapturePNG(t *testing.T) {
	if !haveChrome() {
		t.Skip("no chrome binary on PATH")
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><body style="background:#fb923c"><h1>hot pot</h1></body></html>`))
	}))
	defer srv.Close()

	c := &Chrome{Width: 320, Height: 240, Timeout: 30 * time.Second}
	png, err := c.Capture(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if !bytes.HasPrefix(png, []byte("\x89PNG\r\n\x1a\n")) {
		t.Errorf("not a png: % x", png[:min(8, len(png))])
	}
}
