package auth

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/jrsteele09/go-auth-client/credential"
	"github.com/jrsteele09/go-auth-client/guard"
)

const defaultNamespace = "auth_client"

type options struct {
	navigator      guard.Navigator
	tokenStore     credential.TokenStore
	transport      http.RoundTripper
	logger         *zerolog.Logger
	registerer     prometheus.Registerer
	tracerProvider trace.TracerProvider
	timeout        time.Duration
	namespace      string
}

// Option configures a Client.
type Option func(*options)

// WithNavigator sets the router redirects are sent to. The default is an
// in-memory History starting at the home route.
func WithNavigator(nav guard.Navigator) Option {
	return func(o *options) {
		o.navigator = nav
	}
}

// WithTokenStore sets where the access token is kept in token mode.
func WithTokenStore(store credential.TokenStore) Option {
	return func(o *options) {
		o.tokenStore = store
	}
}

// WithTransport sets the transport requests leave through, http.DefaultTransport otherwise.
func WithTransport(transport http.RoundTripper) Option {
	return func(o *options) {
		o.transport = transport
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = &logger
	}
}

// WithRegisterer exports the request and refresh metrics through reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = reg
	}
}

func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) {
		o.tracerProvider = tp
	}
}

// WithTimeout bounds every request. Timeouts surface as transport failures.
func WithTimeout(timeout time.Duration) Option {
	return func(o *options) {
		o.timeout = timeout
	}
}

// WithNamespace prefixes every metric name.
func WithNamespace(namespace string) Option {
	return func(o *options) {
		o.namespace = namespace
	}
}
