package codegen

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/GetMystAdmin/hot-pot/internal/logger"
	"github.com/GetMystAdmin/hot-pot/internal/retry"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{}

// fakeService rejects the first failFirst handshakes with 503, then runs
// script on each accepted connection.
type fakeService struct {
	failFirst int32
	attempts  atomic.Int32
	requests  atomic.Int32
	script    func(conn *websocket.Conn)
	lastReq   atomic.Value
}

func (f *fakeService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	n := f.attempts.Add(1)
	if n <= f.failFirst {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	var req request
	if err := conn.ReadJSON(&req); err != nil {
		return
	}
	f.requests.Add(1)
	f.lastReq.Store(req)
	f.script(conn)
}

func twoVariants(conn *websocket.Conn) {
	events := []Event{
		{Type: "status", Value: "Generating code...", VariantIndex: 0},
		{Type: "chunk", Value: "<html>", VariantIndex: 0},
		{Type: "chunk", Value: "<b>v1</b>", VariantIndex: 1},
		{Type: "chunk", Value: "</html>", VariantIndex: 0},
		{Type: "status", Value: completeStatus, VariantIndex: 0},
		{Type: "setCode", Value: "<html>v1 final</html>", VariantIndex: 1},
		{Type: "status", Value: completeStatus, VariantIndex: 1},
	}
	for _, ev := range events {
		if err := conn.WriteJSON(ev); err != nil {
			return
		}
	}
	// wait for the client to hang up
	conn.ReadMessage()
}

func startFake(t *testing.T, f *fakeService) string {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func testClient(url string) *Client {
	return NewClient(Options{
		URL:        url,
		Model:      "test-model",
		Variants:   2,
		Attempts:   3,
		RetryDelay: 10 * time.Millisecond,
	}, logger.Nop())
}

func TestGenerateRetriesConnectFailures(t *testing.T) {
	f := &fakeService{failFirst: 2, script: twoVariants}
	c := testClient(startFake(t, f))

	doc, err := c.Generate(context.Background(), []byte("png"))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if doc != "<html></html>" {
		t.Errorf("expected first variant, got %q", doc)
	}
	if got := f.attempts.Load(); got != 3 {
		t.Errorf("expected 3 connection attempts, got %d", got)
	}
	if got := f.requests.Load(); got != 1 {
		t.Errorf("expected 1 request on the accepted connection, got %d", got)
	}
}

func TestGenerateSendsRequest(t *testing.T) {
	f := &fakeService{script: twoVariants}
	c := testClient(startFake(t, f))

	if _, err := c.Generate(context.Background(), []byte{0x89, 'P', 'N', 'G'}); err != nil {
		t.Fatalf("generate: %v", err)
	}
	req := f.lastReq.Load().(request)
	if req.Image != "data:image/png;base64,iVBORw==" {
		t.Errorf("image = %q", req.Image)
	}
	if req.InputMode != "image" || req.GenerationType != "create" {
		t.Errorf("unexpected mode %+v", req)
	}
	if req.GeneratedCodeConfig != "html_css" || req.CodeGenerationModel != "test-model" {
		t.Errorf("unexpected generation config %+v", req)
	}
}

type entry struct {
	msg    string
	fields map[string]int64
}

type recordLogger struct {
	mu      sync.Mutex
	entries []entry
}

func (l *recordLogger) record(msg string, fields []logger.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	m := map[string]int64{}
	for _, f := range fields {
		m[f.Key] = f.Integer
	}
	l.entries = append(l.entries, entry{msg: msg, fields: m})
}

func (l *recordLogger) Debug(msg string, fields ...logger.Field) { l.record(msg, fields) }
func (l *recordLogger) Info(msg string, fields ...logger.Field)  { l.record(msg, fields) }
func (l *recordLogger) Warn(msg string, fields ...logger.Field)  { l.record(msg, fields) }
func (l *recordLogger) Error(msg string, fields ...logger.Field) { l.record(msg, fields) }
func (l *recordLogger) With(...logger.Field) logger.Logger       { return l }
func (l *recordLogger) Sync() error                              { return nil }

func TestGenerateLogsCompletedVariants(t *testing.T) {
	f := &fakeService{script: twoVariants}
	log := &recordLogger{}
	c := NewClient(Options{URL: startFake(t, f), Variants: 2, Attempts: 1, ImageGeneration: true}, log)

	if _, err := c.Generate(context.Background(), []byte("png")); err != nil {
		t.Fatalf("generate: %v", err)
	}
	for _, e := range log.entries {
		if e.msg != "code generation exchange finished" {
			continue
		}
		if e.fields["variants_completed"] != 2 {
			t.Errorf("variants_completed = %d, want 2", e.fields["variants_completed"])
		}
		if e.fields["image_generation"] != 1 {
			t.Errorf("image_generation = %d, want 1", e.fields["image_generation"])
		}
		return
	}
	t.Errorf("no completion entry in %+v", log.entries)
}

func TestGenerateExhausted(t *testing.T) {
	f := &fakeService{failFirst: 100, script: twoVariants}
	c := testClient(startFake(t, f))

	_, err := c.Generate(context.Background(), []byte("png"))
	if !errors.Is(err, retry.ErrExhausted) {
		t.Errorf("expected ErrExhausted, got %v", err)
	}
	if got := f.attempts.Load(); got != 3 {
		t.Errorf("expected 3 attempts, got %d", got)
	}
}

func TestGenerateNoDocument(t *testing.T) {
	f := &fakeService{script: func(conn *websocket.Conn) {
		conn.WriteJSON(Event{Type: "status", Value: "Generating code..."})
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	}}
	c := testClient(startFake(t, f))

	_, err := c.Generate(context.Background(), []byte("png"))
	if !errors.Is(err, ErrNoDocument) {
		t.Errorf("expected ErrNoDocument, got %v", err)
	}
	if got := f.requests.Load(); got != 3 {
		t.Errorf("expected every attempt to be used, got %d", got)
	}
}

func TestGenerateBackendError(t *testing.T) {
	f := &fakeService{script: func(conn *websocket.Conn) {
		conn.WriteJSON(Event{Type: "error", Value: "no api key"})
		conn.ReadMessage()
	}}
	c := testClient(startFake(t, f))

	_, err := c.Generate(context.Background(), []byte("png"))
	if !errors.Is(err, ErrBackend) {
		t.Errorf("expected ErrBackend, got %v", err)
	}
}

func TestGenerateStopsOnClose(t *testing.T) {
	f := &fakeService{script: func(conn *websocket.Conn) {
		conn.WriteJSON(Event{Type: "chunk", Value: "<p>partial</p>"})
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	}}
	c := testClient(startFake(t, f))

	doc, err := c.Generate(context.Background(), []byte("png"))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if doc != "<p>partial</p>" {
		t.Errorf("got %q", doc)
	}
}

func TestGenerateCancelled(t *testing.T) {
	f := &fakeService{failFirst: 100, script: twoVariants}
	c := NewClient(Options{URL: startFake(t, f), Attempts: 3, RetryDelay: time.Hour}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := c.Generate(ctx, []byte("png"))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}
