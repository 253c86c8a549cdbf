// Package server is a mock identity backend implementing the JSON contract
// the authentication client expects, in cookie or token mode.
package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-auth-client/accounts"
	"github.com/jrsteele09/go-auth-client/internal/config"
	"github.com/jrsteele09/go-auth-client/token"
)

type Server struct {
	env      string // Environment (e.g., "DEV", "production")
	mux      *http.ServeMux
	routes   []string
	config   config.Config
	mode     config.Mode
	prefix   string
	accounts *accounts.Service
	metrics  *serverMetrics
	registry *prometheus.Registry
	nowTime  func() time.Time
	mailer   ResetMailer
}

// ResetMailer delivers a password reset link. The default logs it.
type ResetMailer func(email, link string)

type Option func(*Server)

// WithResetMailer replaces the reset link delivery.
func WithResetMailer(mailer ResetMailer) Option {
	return func(s *Server) {
		s.mailer = mailer
	}
}

// Registry exposes the collectors served on the metrics route.
func (s *Server) Registry() *prometheus.Registry {
	return s.registry
}

// WithNowTime sets the clock tokens are issued and checked against (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(s *Server) {
		s.nowTime = nowFunc
	}
}

func New(cfg config.Config, repos accounts.Repos, options ...Option) (*Server, error) {
	s := &Server{
		mux:      http.NewServeMux(),
		config:   cfg,
		env:      cfg.GetEnv(),
		mode:     cfg.GetAuthMode(),
		prefix:   cfg.GetAPIPrefix(),
		registry: prometheus.NewRegistry(),
		nowTime:  time.Now,
		mailer:   logResetLink,
	}
	for _, opt := range options {
		opt(s)
	}

	serviceOptions := []accounts.ServiceOption{accounts.WithNowTime(s.nowTime)}
	if s.mode == config.ModeCookie {
		serviceOptions = append(serviceOptions, accounts.WithDoubleSubmit())
	}
	service, err := accounts.NewService(repos, cfg, token.NewHMACSigner(cfg.GetJWTSecret()), serviceOptions...)
	if err != nil {
		return nil, fmt.Errorf("[Server New] failed to create account service: %w", err)
	}
	s.accounts = service
	s.metrics = newServerMetrics(s.registry)

	if err := s.InitialiseSystem(); err != nil {
		return nil, fmt.Errorf("[Server New] Failed to initialise the system: %w", err)
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Mode reports how credentials are handed to clients.
func (s *Server) Mode() config.Mode {
	return s.mode
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logResetLink(email, link string) {
	log.Info().Str("email", email).Str("link", link).Msg("password reset link issued")
}

func logRoute(method, path string) {
	log.Debug().Msgf("[%-19s] %s", colourMethod(method), path)
}

// Helper function to determine the scheme (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
