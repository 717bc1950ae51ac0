package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/GetMystAdmin/hot-pot/internal/capture"
	"github.com/GetMystAdmin/hot-pot/internal/codegen"
	"github.com/GetMystAdmin/hot-pot/internal/logger"
	"github.com/GetMystAdmin/hot-pot/internal/metrics"
	"github.com/GetMystAdmin/hot-pot/internal/store"
)

type CodeGenerator interface {
	Generate(ctx context.Context, png []byte) (string, error)
}

// Notice reports the end of a regeneration to the user.
type Notice struct {
	Key        string
	Success    bool
	Document   string
	Screenshot string
	Err        error
}

func (n Notice) String() string {
	if n.Success {
		return fmt.Sprintf("regenerated %s: %s", n.Key, n.Document)
	}
	if errors.Is(n.Err, codegen.ErrNoDocument) {
		return fmt.Sprintf("could not regenerate %s: the code generator returned nothing", n.Key)
	}
	return fmt.Sprintf("could not regenerate %s: %v", n.Key, n.Err)
}

type Notifier interface {
	Notify(Notice)
}

// NotifyFunc adapts a function to Notifier.
type NotifyFunc func(Notice)

func (f NotifyFunc) Notify(n Notice) { f(n) }

// Regenerator captures a live page and rebuilds it as HTML.
type Regenerator struct {
	Capturer  capture.Capturer
	Generator CodeGenerator
	Archive   *Archive
	// Store receives generated documents when set.
	Store    store.Store
	Notifier Notifier
	Log      logger.Logger
	Metrics  *metrics.Metrics

	mu        sync.Mutex
	attempted map[string]bool
}

// Claim reports whether key has not been regenerated yet in this session
// and marks it as taken.
func (r *Regenerator) Claim(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.attempted == nil {
		r.attempted = make(map[string]bool)
	}
	if r.attempted[key] {
		return false
	}
	r.attempted[key] = true
	return true
}

// OnLoad runs Regenerate the first time a live page for rawURL finishes
// loading. It returns false when the key was already handled.
func (r *Regenerator) OnLoad(ctx context.Context, rawURL string) bool {
	key, err := store.Key(rawURL)
	if err != nil || !r.Claim(key) {
		return false
	}
	_, _ = r.Regenerate(ctx, rawURL)
	return true
}

// Regenerate screenshots rawURL, sends it to the code generator and
// archives both files. The notifier hears about the result either way.
func (r *Regenerator) Regenerate(ctx context.Context, rawURL string) (Notice, error) {
	key, err := store.Key(rawURL)
	if err != nil {
		return Notice{}, err
	}
	live, err := store.Navigable(rawURL)
	if err != nil {
		return Notice{}, err
	}
	log := r.log().With(logger.String("key", key))
	n := Notice{Key: key}

	fail := func(err error) (Notice, error) {
		n.Err = err
		log.Error("regeneration failed", logger.Err(err))
		r.Metrics.Regeneration("failure")
		r.notify(n)
		return n, err
	}

	png, err := r.Capturer.Capture(ctx, live)
	if err != nil {
		return fail(err)
	}
	if r.Archive != nil {
		path, err := r.Archive.Write(key, "png", png)
		if err != nil {
			log.Warn("saving screenshot failed", logger.Err(err))
		}
		n.Screenshot = path
	}

	doc, err := r.Generator.Generate(ctx, png)
	if err != nil {
		return fail(err)
	}

	if r.Archive != nil {
		path, err := r.Archive.Write(key, "html", []byte(doc))
		if err != nil {
			log.Warn("saving generated document failed", logger.Err(err))
		}
		n.Document = path
	}
	if r.Store != nil {
		if _, err := r.Store.Put(ctx, key, doc); err != nil {
			log.Warn("caching generated document failed", logger.Err(err))
		}
	}

	n.Success = true
	log.Info("regenerated", logger.String("document", n.Document))
	r.Metrics.Regeneration("success")
	r.notify(n)
	return n, nil
}

func (r *Regenerator) notify(n Notice) {
	if r.Notifier != nil {
		r.Notifier.Notify(n)
	}
}

func (r *Regenerator) log() logger.Logger {
	if r.Log == nil {
		return logger.Nop()
	}
	return r.Log
}
