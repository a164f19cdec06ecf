// Package tracing provides OpenTelemetry integration for the message bus.
//
// Basic usage:
//
//	tp := sdktrace.NewTracerProvider(...)
//	otel.SetTracerProvider(tp)
//
//	tracer := tracing.NewTracer(tracing.WithServiceName("menuplan"))
//	bus := services.NewBus(db.NewUnitOfWork, deps,
//	    menuplan.WithMiddleware(tracing.CommandMiddleware(tracer)),
//	    menuplan.WithEventMiddleware(tracing.EventMiddleware(tracer)),
//	)
//
// The spans capture the message type, the target aggregate, the correlation
// ID and the outcome. Event handler spans are children of the command span
// that raised the event.
package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/menu-planning/go-menuplan"
)

const (
	// TracerName is the instrumentation name.
	TracerName = "github.com/menu-planning/go-menuplan"

	// DefaultServiceName is the default service name for spans.
	DefaultServiceName = "menuplan"
)

// Tracer wraps an OpenTelemetry tracer.
type Tracer struct {
	tracer      trace.Tracer
	serviceName string
}

// TracerOption configures a Tracer.
type TracerOption func(*Tracer)

// WithTracerProvider sets a custom TracerProvider.
func WithTracerProvider(tp trace.TracerProvider) TracerOption {
	return func(t *Tracer) {
		t.tracer = tp.Tracer(TracerName)
	}
}

// WithServiceName sets the service name for spans.
func WithServiceName(name string) TracerOption {
	return func(t *Tracer) {
		t.serviceName = name
	}
}

// NewTracer creates a new Tracer with the global TracerProvider.
func NewTracer(opts ...TracerOption) *Tracer {
	t := &Tracer{
		tracer:      otel.Tracer(TracerName),
		serviceName: DefaultServiceName,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// StartSpan starts a new span with the given name.
func (t *Tracer) StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name, opts...)
}

// Tracer returns the underlying OpenTelemetry tracer.
func (t *Tracer) Tracer() trace.Tracer {
	return t.tracer
}

// ServiceName returns the configured service name.
func (t *Tracer) ServiceName() string {
	return t.serviceName
}

// =============================================================================
// Bus Middleware
// =============================================================================

// CommandMiddleware creates middleware that traces command execution.
func CommandMiddleware(tracer *Tracer) menuplan.Middleware {
	return func(next menuplan.MiddlewareFunc) menuplan.MiddlewareFunc {
		return func(ctx context.Context, cmd menuplan.Command) error {
			ctx, span := tracer.StartSpan(ctx, fmt.Sprintf("command.%s", cmd.CommandType()),
				trace.WithSpanKind(trace.SpanKindInternal),
			)
			defer span.End()

			attrs := []attribute.KeyValue{
				attribute.String("menuplan.service", tracer.serviceName),
				attribute.String("menuplan.command.type", cmd.CommandType()),
			}
			if aggCmd, ok := cmd.(menuplan.AggregateCommand); ok {
				attrs = append(attrs, attribute.String("menuplan.command.aggregate_id", aggCmd.AggregateID()))
			}
			if correlationID := menuplan.CorrelationIDFromContext(ctx); correlationID != "" {
				attrs = append(attrs, attribute.String("menuplan.correlation_id", correlationID))
			}
			span.SetAttributes(attrs...)

			err := next(ctx, cmd)
			finish(span, err)
			return err
		}
	}
}

// EventMiddleware creates middleware that traces each event handler call.
func EventMiddleware(tracer *Tracer) menuplan.EventMiddleware {
	return func(next menuplan.EventMiddlewareFunc) menuplan.EventMiddlewareFunc {
		return func(ctx context.Context, handler string, event menuplan.Event) error {
			ctx, span := tracer.StartSpan(ctx, fmt.Sprintf("event.%s.%s", event.EventType(), handler),
				trace.WithSpanKind(trace.SpanKindConsumer),
			)
			defer span.End()

			attrs := []attribute.KeyValue{
				attribute.String("menuplan.service", tracer.serviceName),
				attribute.String("menuplan.event.type", event.EventType()),
				attribute.String("menuplan.event.handler", handler),
			}
			if aggEvent, ok := event.(menuplan.AggregateEvent); ok {
				attrs = append(attrs, attribute.String("menuplan.event.aggregate_id", aggEvent.AggregateID()))
			}
			span.SetAttributes(attrs...)

			err := next(ctx, handler, event)
			finish(span, err)
			return err
		}
	}
}

// =============================================================================
// Publisher Middleware
// =============================================================================

// PublisherMiddleware wraps a notification publisher with tracing.
type PublisherMiddleware struct {
	publisher menuplan.Publisher
	tracer    *Tracer
}

var _ menuplan.Publisher = (*PublisherMiddleware)(nil)

// NewPublisherMiddleware wraps a publisher with tracing.
func NewPublisherMiddleware(publisher menuplan.Publisher, tracer *Tracer) *PublisherMiddleware {
	return &PublisherMiddleware{
		publisher: publisher,
		tracer:    tracer,
	}
}

// Destination returns the wrapped publisher's destination prefix.
func (m *PublisherMiddleware) Destination() string {
	return m.publisher.Destination()
}

// Publish publishes notifications inside a producer span.
func (m *PublisherMiddleware) Publish(ctx context.Context, notifications []*menuplan.Notification) error {
	ctx, span := m.tracer.StartSpan(ctx, fmt.Sprintf("notify.%s.publish", m.publisher.Destination()),
		trace.WithSpanKind(trace.SpanKindProducer),
	)
	defer span.End()

	eventTypes := make([]string, len(notifications))
	for i, n := range notifications {
		eventTypes[i] = n.EventType
	}
	span.SetAttributes(
		attribute.String("menuplan.service", m.tracer.serviceName),
		attribute.String("menuplan.notify.destination", m.publisher.Destination()),
		attribute.Int("menuplan.notify.count", len(notifications)),
		attribute.StringSlice("menuplan.notify.event_types", eventTypes),
	)

	err := m.publisher.Publish(ctx, notifications)
	finish(span, err)
	return err
}

func finish(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetStatus(codes.Ok, "")
}

// =============================================================================
// Span Helpers
// =============================================================================

// SpanFromContext returns the current span from context.
func SpanFromContext(ctx context.Context) trace.Span {
	return trace.SpanFromContext(ctx)
}

// AddEvent adds an event to the current span.
func AddEvent(ctx context.Context, name string, opts ...trace.EventOption) {
	trace.SpanFromContext(ctx).AddEvent(name, opts...)
}

// SetError sets an error on the current span.
func SetError(ctx context.Context, err error) {
	span := trace.SpanFromContext(ctx)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// SetAttributes sets attributes on the current span.
func SetAttributes(ctx context.Context, attrs ...attribute.KeyValue) {
	trace.SpanFromContext(ctx).SetAttributes(attrs...)
}
