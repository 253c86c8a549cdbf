// Package refresh collapses concurrent session refresh attempts into one.
package refresh

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
)

const (
	tracerName = "github.com/jrsteele09/go-auth-client/refresh"
	flightKey  = "refresh"
)

// Func performs one network refresh of the session credential.
type Func func(ctx context.Context) error

// Coordinator guarantees at most one refresh is in flight. Every caller that
// arrives while it runs waits for, and receives, the same result. The shared
// call is forgotten as soon as it settles, so the next caller starts afresh.
type Coordinator struct {
	refresh Func
	group   singleflight.Group
	logger  zerolog.Logger
	tracer  trace.Tracer
	metrics *metrics
}

type metrics struct {
	attempts *prometheus.CounterVec
	waiters  prometheus.Counter
	duration prometheus.Histogram
}

type options struct {
	logger         zerolog.Logger
	tracerProvider trace.TracerProvider
	registerer     prometheus.Registerer
	namespace      string
}

type Option func(*options)

func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) {
		o.tracerProvider = tp
	}
}

// WithRegisterer registers the coordinator metrics with reg. Without it the
// metrics are collected but never exported.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = reg
	}
}

func WithNamespace(namespace string) Option {
	return func(o *options) {
		o.namespace = namespace
	}
}

func NewCoordinator(refresh Func, opts ...Option) *Coordinator {
	o := options{
		logger:    log.Logger,
		namespace: "auth_client",
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.tracerProvider == nil {
		o.tracerProvider = otel.GetTracerProvider()
	}

	factory := promauto.With(o.registerer)
	return &Coordinator{
		refresh: refresh,
		logger:  o.logger,
		tracer:  o.tracerProvider.Tracer(tracerName),
		metrics: &metrics{
			attempts: factory.NewCounterVec(prometheus.CounterOpts{
				Namespace: o.namespace,
				Subsystem: "refresh",
				Name:      "attempts_total",
				Help:      "Network refresh attempts by result.",
			}, []string{"result"}),
			waiters: factory.NewCounter(prometheus.CounterOpts{
				Namespace: o.namespace,
				Subsystem: "refresh",
				Name:      "waiters_total",
				Help:      "Callers that asked for a refresh.",
			}),
			duration: factory.NewHistogram(prometheus.HistogramOpts{
				Namespace: o.namespace,
				Subsystem: "refresh",
				Name:      "duration_seconds",
				Help:      "Duration of network refresh attempts.",
				Buckets:   prometheus.DefBuckets,
			}),
		},
	}
}

// Do joins the in-flight refresh or starts one. The refresh itself is not
// cancelled when ctx is; ctx only bounds how long this caller waits.
func (c *Coordinator) Do(ctx context.Context) error {
	c.metrics.waiters.Inc()

	result := c.group.DoChan(flightKey, func() (interface{}, error) {
		return nil, c.run(context.WithoutCancel(ctx))
	})

	select {
	case res := <-result:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Coordinator) run(ctx context.Context) error {
	ctx, span := c.tracer.Start(ctx, "auth.refresh")
	defer span.End()

	start := time.Now()
	err := c.refresh(ctx)
	c.metrics.duration.Observe(time.Since(start).Seconds())

	if err != nil {
		c.metrics.attempts.WithLabelValues("failure").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.Warn().Err(err).Dur("duration", time.Since(start)).Msg("session refresh failed")
		return err
	}
	c.metrics.attempts.WithLabelValues("success").Inc()
	c.logger.Debug().Dur("duration", time.Since(start)).Msg("session refreshed")
	return nil
}
