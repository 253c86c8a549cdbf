package pipeline

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	RequestIDHeader = "X-Request-ID"
	tracerName      = "github.com/jrsteele09/go-auth-client/pipeline"
)

// Logging tags each request with a request id and logs its outcome. Failed and
// rejected requests are logged at warn level, everything else at debug.
func Logging(logger zerolog.Logger) Stage {
	return func(req *http.Request, next Next) (*http.Response, error) {
		id := req.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
			req = req.Clone(req.Context())
			req.Header.Set(RequestIDHeader, id)
		}

		start := time.Now()
		resp, err := next(req)

		event := logger.Debug()
		if err != nil || resp.StatusCode >= http.StatusBadRequest {
			event = logger.Warn()
		}
		event = event.Str("request_id", id).
			Str("method", req.Method).
			Str("path", req.URL.Path).
			Dur("duration", time.Since(start))
		if err != nil {
			event.Err(err).Msg("request failed")
		} else {
			event.Int("status", resp.StatusCode).Msg("request completed")
		}
		return resp, err
	}
}

// Metrics counts requests by method and status and observes their duration.
// A nil registerer keeps the collectors private.
func Metrics(reg prometheus.Registerer, namespace string) Stage {
	factory := promauto.With(reg)
	requests := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Outgoing requests by method and status.",
	}, []string{"method", "status"})
	duration := factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Duration of outgoing requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method"})

	return func(req *http.Request, next Next) (*http.Response, error) {
		start := time.Now()
		resp, err := next(req)
		duration.WithLabelValues(req.Method).Observe(time.Since(start).Seconds())

		status := "error"
		if err == nil {
			status = strconv.Itoa(resp.StatusCode)
		}
		requests.WithLabelValues(req.Method, status).Inc()
		return resp, err
	}
}

// Tracing wraps each request in a client span. tp defaults to the global provider.
func Tracing(tp trace.TracerProvider) Stage {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	tracer := tp.Tracer(tracerName)

	return func(req *http.Request, next Next) (*http.Response, error) {
		ctx, span := tracer.Start(req.Context(), "HTTP "+req.Method,
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(
				attribute.String("http.request.method", req.Method),
				attribute.String("url.full", req.URL.Redacted()),
			))
		defer span.End()

		resp, err := next(req.WithContext(ctx))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return resp, err
		}
		span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
		if resp.StatusCode >= http.StatusBadRequest {
			span.SetStatus(codes.Error, http.StatusText(resp.StatusCode))
		}
		return resp, err
	}
}
