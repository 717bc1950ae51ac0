package pipeline

import (
	"context"

	"github.com/GetMystAdmin/hot-pot/internal/capture"
	"github.com/GetMystAdmin/hot-pot/internal/codegen"
	"github.com/GetMystAdmin/hot-pot/internal/config"
	"github.com/GetMystAdmin/hot-pot/internal/flow"
	"github.com/GetMystAdmin/hot-pot/internal/logger"
	"github.com/GetMystAdmin/hot-pot/internal/metrics"
	"github.com/GetMystAdmin/hot-pot/internal/news"
	"github.com/GetMystAdmin/hot-pot/internal/store"
)

// App bundles the wired pipelines and the store they share.
type App struct {
	Config       *config.Config
	Store        store.Store
	Personalizer *Personalizer
	Regenerator  *Regenerator
}

// Setup opens the configured store and wires both pipelines.
func Setup(ctx context.Context, cfg *config.Config, log logger.Logger, m *metrics.Metrics, notifier Notifier) (*App, error) {
	st, err := store.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	archive := NewArchive(cfg.RendersPath())
	gen := flow.FromConfig(cfg)
	feed := news.Feed{
		Fetcher: news.NewClient(cfg.NewsTimeout()),
		Sources: cfg.EnabledSources(),
		Limit:   cfg.GetNewsLimit(),
	}

	p := &Personalizer{
		Store:          st,
		News:           feed,
		Posts:          gen,
		HTML:           gen,
		Archive:        archive,
		LookupAttempts: cfg.Store.LookupAttempts,
		Log:            log.With(logger.String("component", "personalizer")),
		Metrics:        m,
	}

	r := &Regenerator{
		Capturer:  capture.NewChrome(),
		Generator: codegen.NewClient(codegen.OptionsFromConfig(cfg), log.With(logger.String("component", "codegen"))),
		Archive:   archive,
		Notifier:  notifier,
		Log:       log.With(logger.String("component", "regenerator")),
		Metrics:   m,
	}
	if cfg.Codegen.CacheGenerated {
		r.Store = st
	}

	return &App{Config: cfg, Store: st, Personalizer: p, Regenerator: r}, nil
}

// AutoRegenerate reports whether misses should trigger regeneration.
func (a *App) AutoRegenerate() bool {
	return a.Config.Codegen.AutoGenerate
}

func (a *App) Close() error {
	return a.Store.Close()
}
