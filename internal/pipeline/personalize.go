// Package pipeline resolves a URL to the page to display: a personalized
// rendering of a cached template, the cached template itself, or the live
// site. It also drives screenshot regeneration for uncached sites.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/GetMystAdmin/hot-pot/internal/ai"
	"github.com/GetMystAdmin/hot-pot/internal/logger"
	"github.com/GetMystAdmin/hot-pot/internal/metrics"
	"github.com/GetMystAdmin/hot-pot/internal/news"
	"github.com/GetMystAdmin/hot-pot/internal/profile"
	"github.com/GetMystAdmin/hot-pot/internal/retry"
	"github.com/GetMystAdmin/hot-pot/internal/section"
	"github.com/GetMystAdmin/hot-pot/internal/store"
)

type Headlines interface {
	Latest(ctx context.Context) ([]news.Article, error)
}

type PostGenerator interface {
	GeneratePosts(ctx context.Context, news, personality string) (string, error)
}

type HTMLBuilder interface {
	BuildHTML(ctx context.Context, posts, template string) (string, error)
}

// Outcome says what a navigation ended up displaying.
type Outcome int

const (
	// Live means no template was cached; show the site itself.
	Live Outcome = iota
	// Cached means the stored template is shown unmodified.
	Cached
	// Personalized means the template's section was regenerated.
	Personalized
)

func (o Outcome) String() string {
	switch o {
	case Cached:
		return "cached"
	case Personalized:
		return "personalized"
	default:
		return "live"
	}
}

// Result is the outcome of one navigation. Document is set for Cached and
// Personalized. Err records why personalization fell back, if it did.
type Result struct {
	Key      string
	URL      string
	Outcome  Outcome
	Document string
	Archived string
	Err      error
}

var errEmptyHTML = errors.New("html builder returned no markup")

type Personalizer struct {
	Store          store.Store
	News           Headlines
	Posts          PostGenerator
	HTML           HTMLBuilder
	Archive        *Archive
	LookupAttempts int
	Log            logger.Logger
	Metrics        *metrics.Metrics
}

// Navigate resolves rawURL. The only error returned is for a URL that
// cannot be parsed; every other failure degrades the Result.
func (p *Personalizer) Navigate(ctx context.Context, rawURL string, prof profile.Profile) (Result, error) {
	key, err := store.Key(rawURL)
	if err != nil {
		return Result{}, err
	}
	live, err := store.Navigable(rawURL)
	if err != nil {
		return Result{}, err
	}
	log := p.log().With(logger.String("key", key))

	res := Result{Key: key, URL: live, Outcome: Live}
	entry, ok := p.lookup(ctx, key, log)
	if !ok {
		p.Metrics.Navigation(res.Outcome.String())
		return res, nil
	}

	res.Outcome = Cached
	res.Document = entry.Template

	fragment, found := section.Extract(entry.Template)
	if !found {
		log.Info("cached template has no section markers")
		p.Metrics.Navigation(res.Outcome.String())
		return res, nil
	}

	doc, stage, err := p.personalize(ctx, entry.Template, fragment, prof)
	if err != nil {
		log.Warn("personalization failed, showing cached template",
			logger.String("stage", stage), logger.Err(err))
		p.Metrics.GenerationFailure(stage)
		res.Err = fmt.Errorf("%s: %w", stage, err)
		p.Metrics.Navigation(res.Outcome.String())
		return res, nil
	}

	res.Outcome = Personalized
	res.Document = doc
	if p.Archive != nil {
		path, err := p.Archive.Write(key, "html", []byte(doc))
		if err != nil {
			log.Warn("archiving rendering failed", logger.Err(err))
		} else {
			res.Archived = path
		}
	}
	p.Metrics.Navigation(res.Outcome.String())
	log.Info("personalized", logger.String("archived", res.Archived))
	return res, nil
}

// lookup retries transport failures with no delay. Exhausted retries and
// any other error count as a miss.
func (p *Personalizer) lookup(ctx context.Context, key string, log logger.Logger) (store.Entry, bool) {
	type found struct {
		entry store.Entry
		ok    bool
	}
	attempts := p.LookupAttempts
	if attempts < 1 {
		attempts = 3
	}
	policy := retry.Immediate(attempts)
	policy.Retryable = store.IsTransport
	policy.OnRetry = func(attempt int, err error, _ time.Duration) {
		log.Debug("template lookup failed, retrying", logger.Int("attempt", attempt), logger.Err(err))
	}

	start := time.Now()
	r, err := retry.Do(ctx, policy, func(ctx context.Context, _ int) (found, error) {
		p.Metrics.LookupAttempt()
		e, ok, err := p.Store.Get(ctx, key)
		return found{e, ok}, err
	})
	p.Metrics.Observe("lookup", start)

	switch {
	case err != nil:
		log.Warn("template lookup failed, treating as miss", logger.Err(err))
		p.Metrics.Lookup("error")
		return store.Entry{}, false
	case !r.ok:
		p.Metrics.Lookup("miss")
		return store.Entry{}, false
	default:
		p.Metrics.Lookup("hit")
		return r.entry, true
	}
}

// personalize returns the spliced document, or the stage that failed.
func (p *Personalizer) personalize(ctx context.Context, original, fragment string, prof profile.Profile) (string, string, error) {
	start := time.Now()
	articles, err := p.News.Latest(ctx)
	p.Metrics.Observe("news", start)
	if err != nil {
		return "", "news", err
	}

	start = time.Now()
	posts, err := p.Posts.GeneratePosts(ctx, news.Format(articles), prof.String())
	p.Metrics.Observe("posts", start)
	if err != nil {
		return "", "posts", err
	}

	start = time.Now()
	html, err := p.HTML.BuildHTML(ctx, posts, fragment)
	p.Metrics.Observe("html", start)
	if err != nil {
		return "", "html", err
	}
	html = ai.StripCodeFence(html)
	if strings.TrimSpace(html) == "" {
		return "", "html", errEmptyHTML
	}

	doc, err := section.Splice(original, html)
	if err != nil {
		return "", "splice", err
	}
	return doc, "", nil
}

func (p *Personalizer) log() logger.Logger {
	if p.Log == nil {
		return logger.Nop()
	}
	return p.Log
}
