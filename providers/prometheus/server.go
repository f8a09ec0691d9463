// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package prometheus

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/z5labs/otelcompose/internal/slogfield"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type serverConfig struct {
	path              string
	readTimeout       time.Duration
	readHeaderTimeout time.Duration
	writeTimeout      time.Duration
	idleTimeout       time.Duration
}

// ServerOption configures the scrape server.
type ServerOption func(*serverConfig)

// Path sets the path metrics are served on. Defaults to "/metrics".
func Path(p string) ServerOption {
	return func(sc *serverConfig) {
		sc.path = p
	}
}

// ReadTimeout sets the maximum duration for reading an entire scrape request.
func ReadTimeout(d time.Duration) ServerOption {
	return func(sc *serverConfig) {
		sc.readTimeout = d
	}
}

// ReadHeaderTimeout sets the maximum duration for reading request headers.
func ReadHeaderTimeout(d time.Duration) ServerOption {
	return func(sc *serverConfig) {
		sc.readHeaderTimeout = d
	}
}

// WriteTimeout sets the maximum duration before timing out a scrape response.
func WriteTimeout(d time.Duration) ServerOption {
	return func(sc *serverConfig) {
		sc.writeTimeout = d
	}
}

// IdleTimeout sets how long keep-alive connections wait for the next scrape.
func IdleTimeout(d time.Duration) ServerOption {
	return func(sc *serverConfig) {
		sc.idleTimeout = d
	}
}

type server struct {
	ls   net.Listener
	srv  *http.Server
	done chan struct{}
}

func listen(addr string, reg *prometheus.Registry, opts ...ServerOption) (*server, error) {
	sc := serverConfig{
		path:              "/metrics",
		readTimeout:       5 * time.Second,
		readHeaderTimeout: 2 * time.Second,
		writeTimeout:      10 * time.Second,
		idleTimeout:       120 * time.Second,
	}
	for _, opt := range opts {
		opt(&sc)
	}

	ls, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle(sc.path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	s := &server{
		ls: ls,
		srv: &http.Server{
			Handler:           mux,
			ReadTimeout:       sc.readTimeout,
			ReadHeaderTimeout: sc.readHeaderTimeout,
			WriteTimeout:      sc.writeTimeout,
			IdleTimeout:       sc.idleTimeout,
		},
		done: make(chan struct{}),
	}
	return s, nil
}

// Addr is the address the server is listening on.
func (s *server) Addr() net.Addr {
	return s.ls.Addr()
}

func (s *server) serve(log *slog.Logger) {
	go func() {
		defer close(s.done)

		err := s.srv.Serve(s.ls)
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return
		}
		log.Error("prometheus scrape server stopped", slogfield.Error(err))
	}()
}

func (s *server) shutdown(ctx context.Context) error {
	err := s.srv.Shutdown(ctx)
	if err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return nil
	}
}
