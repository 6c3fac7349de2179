// Package server runs the gateway on the configured virtual host.
package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/amiddy/amiddy/pkg/config"
	"github.com/amiddy/amiddy/pkg/logging"
	"github.com/amiddy/amiddy/pkg/proxy"
	amtls "github.com/amiddy/amiddy/pkg/tls"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 5 * time.Second
)

// Server serves one virtual host.
type Server struct {
	cfg     *config.Config
	report  proxy.Reporter
	logger  *slog.Logger
	gateway *proxy.Gateway
	http    *http.Server
}

// New builds the gateway for cfg and the HTTP server around it. When the
// vhost uses HTTPS the certificate is loaded or generated here.
func New(cfg *config.Config, report proxy.Reporter, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = logging.Nop()
	}
	if report == nil {
		report = logging.NopReporter()
	}

	var material *amtls.Material
	var tlsConfig *tls.Config
	if cfg.Vhost.HTTPS {
		m, err := amtls.ForVhost(cfg.Vhost, cfg.SelfSigned)
		if err != nil {
			return nil, fmt.Errorf("failed to load vhost certificate: %w", err)
		}
		cert, err := m.TLSCertificate()
		if err != nil {
			return nil, fmt.Errorf("failed to load vhost certificate: %w", err)
		}
		material = m
		tlsConfig = &tls.Config{
			Certificates: []tls.Certificate{cert},
			MinVersion:   tls.VersionTLS12,
		}
	}

	gw, err := proxy.NewGateway(cfg, proxy.GatewayOptions{
		SSL:      material,
		Reporter: report,
		Logger:   logger.With("component", "gateway"),
	})
	if err != nil {
		return nil, err
	}

	return &Server{
		cfg:     cfg,
		report:  report,
		logger:  logger,
		gateway: gw,
		http: &http.Server{
			Addr:              net.JoinHostPort("", strconv.Itoa(cfg.Vhost.Port)),
			Handler:           VhostHandler(cfg.Vhost.Name, gw),
			TLSConfig:         tlsConfig,
			ReadHeaderTimeout: readHeaderTimeout,
			ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
		},
	}, nil
}

// Handler returns the vhost-matched gateway handler.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// URL is the address users open in a browser.
func (s *Server) URL() string {
	proto := "http"
	if s.cfg.Vhost.HTTPS {
		proto = "https"
	}
	return fmt.Sprintf("%s://%s:%d", proto, s.cfg.Vhost.Name, s.cfg.Vhost.Port)
}

// Run listens on the vhost port and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.http.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully and
// waits for pending recordings.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		if s.http.TLSConfig != nil {
			err = s.http.ServeTLS(ln, "", "")
		} else {
			err = s.http.Serve(ln)
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		<-gctx.Done()
		s.logger.Debug("shutting down", "addr", ln.Addr().String())

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return errors.Join(s.http.Shutdown(shutdownCtx), s.gateway.Close())
	})

	s.report.Success("Started", "server-start")
	s.report.Success("Open: "+s.URL(), "server-start")
	s.logger.Info("listening", "addr", ln.Addr().String(), "vhost", s.cfg.Vhost.Name)

	return g.Wait()
}
