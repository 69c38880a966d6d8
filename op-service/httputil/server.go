// Package httputil runs the HTTP servers of the service: the JSON-RPC endpoint and metrics.
package httputil

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/rpc"
)

var ErrAlreadyStarted = errors.New("http server already started")

// standupDelay is how long Start waits for an immediate serve failure.
const standupDelay = 10 * time.Millisecond

// Option adjusts the http.Server right before it starts serving.
type Option func(srv *http.Server) error

func WithMaxHeaderBytes(n int) Option {
	return func(srv *http.Server) error {
		srv.MaxHeaderBytes = n
		return nil
	}
}

func WithTimeouts(timeouts rpc.HTTPTimeouts) Option {
	return func(srv *http.Server) error {
		srv.ReadTimeout = timeouts.ReadTimeout
		srv.ReadHeaderTimeout = timeouts.ReadHeaderTimeout
		srv.WriteTimeout = timeouts.WriteTimeout
		srv.IdleTimeout = timeouts.IdleTimeout
		return nil
	}
}

type running struct {
	srv      *http.Server
	listener net.Listener
	cancel   context.CancelFunc
}

// HTTPServer serves a handler on a TCP address. Port 0 binds to any free port,
// the bound address is available through Addr and HTTPEndpoint once started.
type HTTPServer struct {
	addr    string
	handler http.Handler
	opts    []Option

	mu  sync.RWMutex
	cur *running
}

func NewHTTPServer(addr string, handler http.Handler, opts ...Option) *HTTPServer {
	return &HTTPServer{addr: addr, handler: handler, opts: opts}
}

func StartHTTPServer(addr string, handler http.Handler, opts ...Option) (*HTTPServer, error) {
	s := NewHTTPServer(addr, handler, opts...)
	return s, s.Start()
}

// Start binds the listener and returns once the server did not fail right away.
func (s *HTTPServer) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur != nil {
		return ErrAlreadyStarted
	}

	ctx, cancel := context.WithCancel(context.Background())
	srv := &http.Server{
		Handler:     s.handler,
		BaseContext: func(net.Listener) context.Context { return ctx },
	}
	for _, opt := range append([]Option{WithTimeouts(rpc.DefaultHTTPTimeouts)}, s.opts...) {
		if err := opt(srv); err != nil {
			cancel()
			return fmt.Errorf("invalid http server option: %w", err)
		}
	}
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		cancel()
		return fmt.Errorf("failed to listen on %q: %w", s.addr, err)
	}

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Serve(listener) }()
	select {
	case err := <-serveErr:
		cancel()
		return fmt.Errorf("http server failed: %w", err)
	case <-time.After(standupDelay):
	}
	s.cur = &running{srv: srv, listener: listener, cancel: cancel}
	return nil
}

func (s *HTTPServer) Closed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur == nil
}

// Stop drains active connections, and force-closes them once ctx is done.
func (s *HTTPServer) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur == nil {
		return nil
	}
	s.cur.cancel()
	err := s.cur.srv.Shutdown(ctx)
	if err != nil && errors.Is(err, ctx.Err()) {
		err = s.cur.srv.Close()
	}
	if err != nil {
		return err
	}
	s.cur = nil
	return nil
}

// Close drops the listener and every active connection immediately.
func (s *HTTPServer) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur == nil {
		return nil
	}
	s.cur.cancel()
	if err := s.cur.srv.Close(); err != nil {
		return err
	}
	s.cur = nil
	return nil
}

// Addr is nil while the server is not running.
func (s *HTTPServer) Addr() net.Addr {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cur == nil {
		return nil
	}
	return s.cur.listener.Addr()
}

// HTTPEndpoint is empty while the server is not running.
func (s *HTTPServer) HTTPEndpoint() string {
	if addr := s.Addr(); addr != nil {
		return "http://" + addr.String()
	}
	return ""
}
