// Package shell serves personalized pages over HTTP so any browser can act
// as the display surface.
package shell

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/GetMystAdmin/hot-pot/internal/logger"
	"github.com/GetMystAdmin/hot-pot/internal/pipeline"
	"github.com/GetMystAdmin/hot-pot/internal/profile"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// OutcomeHeader carries the navigation outcome on /browse responses.
const OutcomeHeader = "X-Hotpot-Outcome"

type Navigator interface {
	Navigate(ctx context.Context, rawURL string, prof profile.Profile) (pipeline.Result, error)
}

type Regenerator interface {
	Claim(key string) bool
	Regenerate(ctx context.Context, rawURL string) (pipeline.Notice, error)
}

type Options struct {
	Navigator Navigator
	// Regenerator runs in the background after a miss when AutoRegenerate
	// is set.
	Regenerator    Regenerator
	AutoRegenerate bool
	Profile        profile.Profile
	Gatherer       prometheus.Gatherer
	Log            logger.Logger
}

type Server struct {
	opts Options
	e    *echo.Echo
	log  logger.Logger

	// background work outlives the request that started it
	bg     context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(opts Options) *Server {
	log := opts.Log
	if log == nil {
		log = logger.Nop()
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	bg, cancel := context.WithCancel(context.Background())
	s := &Server{opts: opts, log: log, bg: bg, cancel: cancel}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []logger.Field{
				logger.String("method", v.Method),
				logger.String("uri", v.URI),
				logger.Int("status", v.Status),
				logger.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				s.log.Warn("request failed", append(fields, logger.Err(v.Error))...)
				return nil
			}
			s.log.Debug("request completed", fields...)
			return nil
		},
	}))
	e.Use(middleware.Recover())

	e.GET("/browse", s.browse)
	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	s.e = e
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.e }

// browse handles GET /browse?url=...&trait=Name=n
func (s *Server) browse(c echo.Context) error {
	raw := c.QueryParam("url")
	if raw == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing url parameter")
	}
	prof, err := profile.Override(s.opts.Profile, c.QueryParams()["trait"])
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	res, err := s.opts.Navigator.Navigate(c.Request().Context(), raw, prof)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	c.Response().Header().Set(OutcomeHeader, res.Outcome.String())

	if res.Outcome == pipeline.Live {
		s.regenerateLater(res)
		return c.Redirect(http.StatusFound, res.URL)
	}
	return c.HTML(http.StatusOK, res.Document)
}

func (s *Server) regenerateLater(res pipeline.Result) {
	r := s.opts.Regenerator
	if !s.opts.AutoRegenerate || r == nil || !r.Claim(res.Key) {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if _, err := r.Regenerate(s.bg, res.URL); err != nil {
			s.log.Warn("background regeneration failed", logger.String("key", res.Key), logger.Err(err))
		}
	}()
}

// Wait blocks until background regenerations finish.
func (s *Server) Wait() { s.wg.Wait() }

// Start serves on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.log.Info("shell listening", logger.String("addr", addr))
	if err := s.e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, cancels background regenerations and
// waits for them, bounded by ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.e.Shutdown(ctx)
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return errors.Join(err, ctx.Err())
	}
	return err
}

// ShutdownTimeout is how long serve waits for in-flight work on exit.
const ShutdownTimeout = 10 * time.Second
