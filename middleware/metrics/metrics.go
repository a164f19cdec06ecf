// Package metrics provides Prometheus metrics for the message bus.
//
// Basic usage:
//
//	m := metrics.New(metrics.WithNamespace("menuplan"))
//	prometheus.MustRegister(m.Collectors()...)
//
//	bus := services.NewBus(db.NewUnitOfWork, deps,
//	    menuplan.WithMiddleware(m.CommandMiddleware()),
//	    menuplan.WithEventMiddleware(m.EventMiddleware()),
//	)
//
// The metrics collected include:
//   - Command counts, durations and in-flight gauges
//   - Event handler counts, durations and timeouts
//   - Published notifications
//   - Error counts by type
package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/menu-planning/go-menuplan"
	"github.com/menu-planning/go-menuplan/adapters/memory"
)

// Default metric labels.
const (
	LabelCommandType = "command_type"
	LabelEventType   = "event_type"
	LabelHandler     = "handler"
	LabelDestination = "destination"
	LabelStatus      = "status"
	LabelErrorType   = "error_type"
	LabelService     = "service"
)

// Status values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusTimeout = "timeout"
)

// Metrics holds all Prometheus metrics for the bus.
type Metrics struct {
	namespace   string
	subsystem   string
	serviceName string

	// Command metrics
	commandsTotal    *prometheus.CounterVec
	commandDuration  *prometheus.HistogramVec
	commandsInFlight *prometheus.GaugeVec

	// Event handler metrics
	eventHandlersTotal   *prometheus.CounterVec
	eventHandlerDuration *prometheus.HistogramVec
	eventHandlerTimeouts *prometheus.CounterVec

	// Notification metrics
	notificationsTotal *prometheus.CounterVec

	// Error metrics
	errorsTotal *prometheus.CounterVec
}

// MetricsOption configures Metrics.
type MetricsOption func(*Metrics)

// WithNamespace sets the Prometheus namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(m *Metrics) {
		m.namespace = namespace
	}
}

// WithSubsystem sets the Prometheus subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(m *Metrics) {
		m.subsystem = subsystem
	}
}

// WithMetricsServiceName sets the service name label.
func WithMetricsServiceName(name string) MetricsOption {
	return func(m *Metrics) {
		m.serviceName = name
	}
}

// New creates a new Metrics instance with default settings.
func New(opts ...MetricsOption) *Metrics {
	m := &Metrics{
		namespace:   "menuplan",
		serviceName: "unknown",
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initMetrics()
	return m
}

func (m *Metrics) initMetrics() {
	m.commandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "commands_total",
			Help:      "Total number of commands processed.",
		},
		[]string{LabelService, LabelCommandType, LabelStatus},
	)

	m.commandDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "command_duration_seconds",
			Help:      "Duration of command processing in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{LabelService, LabelCommandType},
	)

	m.commandsInFlight = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "commands_in_flight",
			Help:      "Number of commands currently being processed.",
		},
		[]string{LabelService, LabelCommandType},
	)

	m.eventHandlersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "event_handlers_total",
			Help:      "Total number of event handler invocations.",
		},
		[]string{LabelService, LabelEventType, LabelHandler, LabelStatus},
	)

	m.eventHandlerDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "event_handler_duration_seconds",
			Help:      "Duration of event handler invocations in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{LabelService, LabelEventType, LabelHandler},
	)

	m.eventHandlerTimeouts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "event_handler_timeouts_total",
			Help:      "Total number of event handler invocations cut off by the event deadline.",
		},
		[]string{LabelService, LabelEventType, LabelHandler},
	)

	m.notificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "notifications_published_total",
			Help:      "Total number of notifications handed to publishers.",
		},
		[]string{LabelService, LabelDestination, LabelStatus},
	)

	m.errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_total",
			Help:      "Total number of errors by type.",
		},
		[]string{LabelService, LabelErrorType},
	)
}

// Collectors returns all Prometheus collectors for registration.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.commandsTotal,
		m.commandDuration,
		m.commandsInFlight,
		m.eventHandlersTotal,
		m.eventHandlerDuration,
		m.eventHandlerTimeouts,
		m.notificationsTotal,
		m.errorsTotal,
	}
}

// MustRegister registers all collectors with the default registry.
// Panics if registration fails.
func (m *Metrics) MustRegister() {
	prometheus.MustRegister(m.Collectors()...)
}

// Register registers all collectors with the given registry.
func (m *Metrics) Register(registry prometheus.Registerer) error {
	for _, collector := range m.Collectors() {
		if err := registry.Register(collector); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Bus Middleware
// =============================================================================

// CommandMiddleware returns middleware that records command metrics.
func (m *Metrics) CommandMiddleware() menuplan.Middleware {
	return func(next menuplan.MiddlewareFunc) menuplan.MiddlewareFunc {
		return func(ctx context.Context, cmd menuplan.Command) error {
			cmdType := cmd.CommandType()

			m.commandsInFlight.WithLabelValues(m.serviceName, cmdType).Inc()
			defer m.commandsInFlight.WithLabelValues(m.serviceName, cmdType).Dec()

			start := time.Now()
			err := next(ctx, cmd)
			m.commandDuration.WithLabelValues(m.serviceName, cmdType).Observe(time.Since(start).Seconds())

			status := StatusSuccess
			if err != nil {
				status = StatusError
				m.RecordError(errorTypeName(err))
			}
			m.commandsTotal.WithLabelValues(m.serviceName, cmdType, status).Inc()

			return err
		}
	}
}

// EventMiddleware returns middleware that records event handler metrics.
// An error returned after the event deadline passed counts as a timeout.
func (m *Metrics) EventMiddleware() menuplan.EventMiddleware {
	return func(next menuplan.EventMiddlewareFunc) menuplan.EventMiddlewareFunc {
		return func(ctx context.Context, handler string, event menuplan.Event) error {
			eventType := event.EventType()

			start := time.Now()
			err := next(ctx, handler, event)
			m.eventHandlerDuration.WithLabelValues(m.serviceName, eventType, handler).Observe(time.Since(start).Seconds())

			status := StatusSuccess
			switch {
			case err == nil:
			case errors.Is(ctx.Err(), context.DeadlineExceeded):
				status = StatusTimeout
				m.eventHandlerTimeouts.WithLabelValues(m.serviceName, eventType, handler).Inc()
			default:
				status = StatusError
				m.RecordError(errorTypeName(err))
			}
			m.eventHandlersTotal.WithLabelValues(m.serviceName, eventType, handler, status).Inc()

			return err
		}
	}
}

// =============================================================================
// Publisher Middleware
// =============================================================================

// PublisherMiddleware wraps a notification publisher with metrics.
type PublisherMiddleware struct {
	publisher menuplan.Publisher
	metrics   *Metrics
}

var _ menuplan.Publisher = (*PublisherMiddleware)(nil)

// WrapPublisher wraps a publisher with metrics collection.
func (m *Metrics) WrapPublisher(publisher menuplan.Publisher) *PublisherMiddleware {
	return &PublisherMiddleware{
		publisher: publisher,
		metrics:   m,
	}
}

// Destination returns the wrapped publisher's destination prefix.
func (pm *PublisherMiddleware) Destination() string {
	return pm.publisher.Destination()
}

// Publish publishes notifications and counts them by outcome.
func (pm *PublisherMiddleware) Publish(ctx context.Context, notifications []*menuplan.Notification) error {
	err := pm.publisher.Publish(ctx, notifications)

	status := StatusSuccess
	if err != nil {
		status = StatusError
		pm.metrics.RecordError("publish_error")
	}
	pm.metrics.notificationsTotal.
		WithLabelValues(pm.metrics.serviceName, pm.publisher.Destination(), status).
		Add(float64(len(notifications)))

	return err
}

// =============================================================================
// Manual Metric Recording
// =============================================================================

// RecordError records a custom error.
func (m *Metrics) RecordError(errorType string) {
	m.errorsTotal.WithLabelValues(m.serviceName, errorType).Inc()
}

// errorTypeName extracts the error type name based on sentinel errors.
func errorTypeName(err error) string {
	if err == nil {
		return "none"
	}

	switch {
	case errors.Is(err, memory.ErrConcurrencyConflict):
		return "concurrency_conflict"
	case errors.Is(err, menuplan.ErrTimeout):
		return "timeout"
	case errors.Is(err, menuplan.ErrNotFound):
		return "not_found"
	case errors.Is(err, menuplan.ErrAlreadyExists):
		return "already_exists"
	case errors.Is(err, menuplan.ErrHandlerNotFound):
		return "handler_not_found"
	case errors.Is(err, menuplan.ErrValidationFailed):
		return "validation_failed"
	case errors.Is(err, menuplan.ErrBusinessRule):
		return "business_rule"
	case errors.Is(err, menuplan.ErrInvalidProperty):
		return "invalid_property"
	case errors.Is(err, menuplan.ErrDiscarded):
		return "discarded"
	case errors.Is(err, menuplan.ErrHandlerPanicked):
		return "handler_panicked"
	case errors.Is(err, menuplan.ErrSerializationFailed):
		return "serialization_failed"
	case errors.Is(err, menuplan.ErrNoPublisher):
		return "no_publisher"
	case errors.Is(err, menuplan.ErrNilCommand):
		return "nil_command"
	case errors.Is(err, menuplan.ErrUnitOfWorkClosed):
		return "unit_of_work_closed"
	default:
		return "unknown"
	}
}

// =============================================================================
// Getters for testing
// =============================================================================

// CommandsTotal returns the commands counter.
func (m *Metrics) CommandsTotal() *prometheus.CounterVec {
	return m.commandsTotal
}

// CommandDuration returns the command duration histogram.
func (m *Metrics) CommandDuration() *prometheus.HistogramVec {
	return m.commandDuration
}

// CommandsInFlight returns the in-flight commands gauge.
func (m *Metrics) CommandsInFlight() *prometheus.GaugeVec {
	return m.commandsInFlight
}

// EventHandlersTotal returns the event handler counter.
func (m *Metrics) EventHandlersTotal() *prometheus.CounterVec {
	return m.eventHandlersTotal
}

// EventHandlerDuration returns the event handler duration histogram.
func (m *Metrics) EventHandlerDuration() *prometheus.HistogramVec {
	return m.eventHandlerDuration
}

// EventHandlerTimeouts returns the event handler timeout counter.
func (m *Metrics) EventHandlerTimeouts() *prometheus.CounterVec {
	return m.eventHandlerTimeouts
}

// NotificationsTotal returns the published notifications counter.
func (m *Metrics) NotificationsTotal() *prometheus.CounterVec {
	return m.notificationsTotal
}

// ErrorsTotal returns the errors counter.
func (m *Metrics) ErrorsTotal() *prometheus.CounterVec {
	return m.errorsTotal
}
