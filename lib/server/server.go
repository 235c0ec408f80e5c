package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/teris-io/shortid"
	"golang.org/x/sync/semaphore"

	"github.com/pescuma/tia/lib/consoles"
	"github.com/pescuma/tia/lib/impact"
)

type Options struct {
	// Port to listen on localhost. 0 picks a free one.
	Port uint
	// Workers is the maximum number of requests handled at the same time.
	Workers int
}

type Server struct {
	console  consoles.Console
	analyzer *impact.Analyzer
	opts     *Options

	id       string
	workers  *semaphore.Weighted
	metrics  *metrics
	listener net.Listener
	http     *http.Server
	done     chan struct{}

	closeOnce sync.Once
	closeErr  error
}

// Start listens on localhost and serves requests in the background until Close is called.
func Start(console consoles.Console, analyzer *impact.Analyzer, opts *Options) (*Server, error) {
	s := newServer(console, analyzer, opts)

	listener, err := net.Listen("tcp", fmt.Sprintf("localhost:%v", s.opts.Port))
	if err != nil {
		return nil, errors.Wrapf(err, "error listening on port %v", s.opts.Port)
	}

	s.listener = listener
	s.http = &http.Server{
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		defer close(s.done)

		err := s.http.Serve(listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.console.Errorf("Server %v stopped: %v", s.id, err)
		}
	}()

	s.console.Debugf("Server %v listening on %v", s.id, s.URL())

	return s, nil
}

func newServer(console consoles.Console, analyzer *impact.Analyzer, opts *Options) *Server {
	if opts == nil {
		opts = &Options{}
	}
	if opts.Workers <= 0 {
		opts.Workers = 2
	}

	return &Server{
		console:  console,
		analyzer: analyzer,
		opts:     opts,
		id:       shortid.MustGenerate(),
		workers:  semaphore.NewWeighted(int64(opts.Workers)),
		metrics:  newMetrics(),
		done:     make(chan struct{}),
	}
}

func (s *Server) routes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.POST("/", s.limit, s.handle)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{})))

	return r
}

func (s *Server) ID() string {
	return s.id
}

func (s *Server) Port() int {
	return s.listener.Addr().(*net.TCPAddr).Port
}

func (s *Server) URL() string {
	return fmt.Sprintf("http://localhost:%v/", s.Port())
}

func (s *Server) Analyzer() *impact.Analyzer {
	return s.analyzer
}

// Registry exposes the server metrics, mainly for tests.
func (s *Server) Registry() prometheus.Gatherer {
	return s.metrics.registry
}

// Close stops accepting requests and waits for the ones in flight.
func (s *Server) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		s.closeErr = s.http.Shutdown(ctx)
		<-s.done

		s.console.Debugf("Server %v closed", s.id)
	})

	return s.closeErr
}
