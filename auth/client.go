// Package auth assembles the authentication client: the credential carrier,
// the session state, the identity endpoints, the request pipeline with its
// refresh coordinator and the navigation guards, all from one AuthConfig.
package auth

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"

	"github.com/jrsteele09/go-auth-client/credential"
	"github.com/jrsteele09/go-auth-client/guard"
	"github.com/jrsteele09/go-auth-client/identity"
	"github.com/jrsteele09/go-auth-client/internal/config"
	"github.com/jrsteele09/go-auth-client/pipeline"
	"github.com/jrsteele09/go-auth-client/refresh"
	"github.com/jrsteele09/go-auth-client/sessions"
)

// Client is the authentication core of an application. Identity operations
// are promoted from the embedded identity client; Refresh is routed through the
// coordinator so it never races the pipeline.
type Client struct {
	*identity.Client

	cfg         config.AuthConfig
	state       *sessions.State
	carrier     credential.Carrier
	coordinator *refresh.Coordinator
	navigator   guard.Navigator
	http        *http.Client
}

func New(cfg config.AuthConfig, opts ...Option) (*Client, error) {
	cfg = cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := options{namespace: defaultNamespace}
	for _, opt := range opts {
		opt(&o)
	}
	logger := log.Logger
	if o.logger != nil {
		logger = *o.logger
	}
	if o.navigator == nil {
		o.navigator = guard.NewHistory(cfg.Routes.Home)
	}
	if o.tracerProvider == nil {
		o.tracerProvider = otel.GetTracerProvider()
	}

	c := &Client{
		cfg:       cfg,
		state:     sessions.NewState(),
		carrier:   credential.NewCarrier(cfg, o.tokenStore),
		navigator: o.navigator,
	}
	c.coordinator = refresh.NewCoordinator(
		func(ctx context.Context) error { return c.Client.Refresh(ctx) },
		refresh.WithLogger(logger),
		refresh.WithTracerProvider(o.tracerProvider),
		refresh.WithRegisterer(o.registerer),
		refresh.WithNamespace(o.namespace),
	)
	c.http = &http.Client{
		Timeout: o.timeout,
		Transport: pipeline.Chain(o.transport,
			pipeline.Tracing(o.tracerProvider),
			pipeline.Logging(logger),
			pipeline.Metrics(o.registerer, o.namespace),
			pipeline.Recovery(cfg, c.coordinator, c.navigator, logger),
			pipeline.Credentials(c.carrier),
		),
	}
	c.Client = identity.New(cfg, c.http, c.carrier, c.state, identity.WithLogger(logger))
	return c, nil
}

// Refresh renews the credential, joining a refresh already in flight.
func (c *Client) Refresh(ctx context.Context) error {
	return c.coordinator.Do(ctx)
}

// SignIn logs in, loads the profile and navigates to returnURL when it is a
// safe local location, to the home route otherwise.
func (c *Client) SignIn(ctx context.Context, req identity.LoginRequest, returnURL string) (*sessions.Profile, error) {
	if err := c.Login(ctx, req); err != nil {
		return nil, err
	}
	profile, err := c.FetchProfile(ctx)
	if err != nil {
		return nil, err
	}
	c.navigator.Navigate(guard.SafeReturnURL(returnURL, c.cfg.Routes), nil)
	return profile, nil
}

// SignOut logs out and navigates to the login route.
func (c *Client) SignOut(ctx context.Context) {
	_ = c.Logout(ctx)
	c.navigator.Navigate(c.cfg.Routes.Login, nil)
}

// HTTP returns the client every API request should be sent with.
func (c *Client) HTTP() *http.Client {
	return c.http
}

// State is the observable session.
func (c *Client) State() *sessions.State {
	return c.state
}

func (c *Client) Navigator() guard.Navigator {
	return c.navigator
}

func (c *Client) Config() config.AuthConfig {
	return c.cfg
}

// Protected guards routes that need a session.
func (c *Client) Protected() guard.Guard {
	return guard.Protected(c.cfg.Routes, c.state)
}

// GuestOnly guards routes such as login and registration.
func (c *Client) GuestOnly() guard.Guard {
	return guard.GuestOnly(c.cfg.Routes, c.state)
}

// Visit navigates to path unless a guard redirects elsewhere.
func (c *Client) Visit(path string, guards ...guard.Guard) guard.Decision {
	return guard.Visit(c.navigator, path, guards...)
}

// Close ends every state subscription and releases idle connections.
func (c *Client) Close() {
	c.state.Close()
	c.http.CloseIdleConnections()
}
