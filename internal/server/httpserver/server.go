// Package httpserver serves the router over plain HTTP for local runs. Every
// request outside /health and /metrics becomes a router.Event.
package httpserver

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/dmitrijs2005/userreg/internal/logging"
	"github.com/dmitrijs2005/userreg/internal/server/router"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Dispatcher interface {
	Dispatch(ctx context.Context, ev router.Event) router.Response
}

type Options struct {
	Addr           string
	RequestTimeout time.Duration
	RateLimitRPS   float64
	RateLimitBurst int
	MaxBodyBytes   int64
	Gatherer       prometheus.Gatherer
}

const defaultMaxBodyBytes = 64 << 10

func writeError(c *gin.Context, status int, msg string) {
	writeResponse(c, router.JSON(status, router.ErrorBody{
		StatusCode: status,
		Error:      http.StatusText(status),
		Message:    msg,
	}))
}

func writeResponse(c *gin.Context, resp router.Response) {
	for k, v := range resp.Headers {
		c.Header(k, v)
	}
	c.Data(resp.StatusCode, resp.Headers["Content-Type"], []byte(resp.Body))
}

// NewEngine builds the gin engine.
func NewEngine(d Dispatcher, log logging.Logger, o Options) *gin.Engine {
	maxBody := o.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = defaultMaxBodyBytes
	}

	e := gin.New()
	e.Use(requestID(), accessLog(log), recovery(log), rateLimit(o.RateLimitRPS, o.RateLimitBurst), timeout(o.RequestTimeout))

	e.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if o.Gatherer != nil {
		e.GET("/metrics", gin.WrapH(promhttp.HandlerFor(o.Gatherer, promhttp.HandlerOpts{})))
	}

	e.NoRoute(func(c *gin.Context) {
		ev, err := toEvent(c, maxBody)
		if err != nil {
			var tooBig *http.MaxBytesError
			if errors.As(err, &tooBig) {
				writeError(c, http.StatusRequestEntityTooLarge, "request body too large")
				return
			}
			writeError(c, http.StatusBadRequest, "unreadable request body")
			return
		}
		writeResponse(c, d.Dispatch(c.Request.Context(), ev))
	})

	return e
}

func toEvent(c *gin.Context, maxBody int64) (router.Event, error) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBody))
	if err != nil {
		return router.Event{}, err
	}

	query := map[string]string{}
	for k, v := range c.Request.URL.Query() {
		if len(v) > 0 {
			query[k] = v[0]
		}
	}

	headers := map[string]string{}
	for k, v := range c.Request.Header {
		if len(v) > 0 {
			headers[k] = v[0]
		}
	}

	return router.Event{
		Method:                c.Request.Method,
		Path:                  c.Request.URL.EscapedPath(),
		QueryStringParameters: query,
		Headers:               headers,
		Body:                  string(body),
	}, nil
}

// Server runs the engine until its context is canceled.
type Server struct {
	srv *http.Server
	log logging.Logger
}

func New(d Dispatcher, log logging.Logger, o Options) *Server {
	log = log.With("module", "http")
	return &Server{
		srv: &http.Server{
			Addr:              o.Addr,
			Handler:           NewEngine(d, log, o),
			ReadHeaderTimeout: 5 * time.Second,
			MaxHeaderBytes:    1 << 20,
		},
		log: log,
	}
}

// Run listens until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info(ctx, "http starting", "addr", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.log.Info(ctx, "http stopping")
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
