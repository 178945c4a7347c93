// Package webserver serves the cart screen as server-rendered HTML.
package webserver

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// Server wraps the cart screen HTTP server.
type Server struct {
	httpServer *http.Server
	web        *webServer
	log        logrus.FieldLogger
	// stop cancels the base context of every request.
	stop context.CancelFunc
}

// New builds a Server serving the cart screen on addr.
func New(addr string, log *logrus.Logger, deps Deps) (*Server, error) {
	web, router, err := buildRouter(log, deps)
	if err != nil {
		return nil, err
	}

	base, stop := context.WithCancel(context.Background())
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return base },
	}

	return &Server{
		httpServer: httpSrv,
		web:        web,
		log:        log,
		stop:       stop,
	}, nil
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on ln.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully stops the HTTP server. Request contexts are cancelled
// first so open event streams end instead of holding the shutdown.
func (s *Server) Shutdown(ctx context.Context) error {
	s.stop()
	return s.httpServer.Shutdown(ctx)
}

// SweepIdle drops cart views that have not been used for maxIdle, every
// interval, until ctx is done.
func (s *Server) SweepIdle(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.web.views.sweep(maxIdle); n > 0 {
				s.log.WithField("views", n).Debug("dropped idle cart views")
			}
		}
	}
}
