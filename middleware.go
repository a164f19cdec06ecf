package menuplan

import (
	"context"
	"encoding/json"
	"runtime/debug"
	"time"
)

// ValidationMiddleware validates commands before they reach the handler.
// If validation fails, the handler is not called.
func ValidationMiddleware() Middleware {
	return func(next MiddlewareFunc) MiddlewareFunc {
		return func(ctx context.Context, cmd Command) error {
			if err := cmd.Validate(); err != nil {
				return err
			}
			return next(ctx, cmd)
		}
	}
}

// RecoveryMiddleware recovers from panics in handlers and returns them as errors.
// It captures a JSON representation of the command for debugging.
func RecoveryMiddleware() Middleware {
	return func(next MiddlewareFunc) MiddlewareFunc {
		return func(ctx context.Context, cmd Command) (err error) {
			defer func() {
				if r := recover(); r != nil {
					stack := string(debug.Stack())
					var commandData string
					if data, jsonErr := json.Marshal(cmd); jsonErr == nil {
						commandData = string(data)
					}
					err = NewPanicErrorWithMessage(cmd.CommandType(), r, stack, commandData)
				}
			}()
			return next(ctx, cmd)
		}
	}
}

// EventRecoveryMiddleware recovers from panics in event handlers.
func EventRecoveryMiddleware() EventMiddleware {
	return func(next EventMiddlewareFunc) EventMiddlewareFunc {
		return func(ctx context.Context, handler string, event Event) (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = NewPanicError(event.EventType(), r, string(debug.Stack()))
				}
			}()
			return next(ctx, handler, event)
		}
	}
}

// LoggingMiddleware logs command and event handler execution.
type LoggingMiddleware struct {
	logger Logger
}

// NewLoggingMiddleware creates a new LoggingMiddleware.
func NewLoggingMiddleware(logger Logger) *LoggingMiddleware {
	return &LoggingMiddleware{logger: logger}
}

// Middleware returns the command middleware function.
func (m *LoggingMiddleware) Middleware() Middleware {
	return func(next MiddlewareFunc) MiddlewareFunc {
		return func(ctx context.Context, cmd Command) error {
			start := time.Now()

			m.logger.Info("Dispatching command",
				"type", cmd.CommandType(),
			)

			err := next(ctx, cmd)
			duration := time.Since(start)

			if err != nil {
				m.logger.Error("Command failed",
					"type", cmd.CommandType(),
					"duration", duration,
					"error", err,
				)
			} else {
				m.logger.Info("Command completed",
					"type", cmd.CommandType(),
					"duration", duration,
				)
			}

			return err
		}
	}
}

// EventMiddleware returns the event middleware function.
// Failures are not logged here; the bus already reports them.
func (m *LoggingMiddleware) EventMiddleware() EventMiddleware {
	return func(next EventMiddlewareFunc) EventMiddlewareFunc {
		return func(ctx context.Context, handler string, event Event) error {
			start := time.Now()
			err := next(ctx, handler, event)
			if err == nil {
				m.logger.Debug("Event handled",
					"event_type", event.EventType(),
					"handler", handler,
					"duration", time.Since(start),
				)
			}
			return err
		}
	}
}

type correlationIDKey struct{}

// CorrelationIDFromContext returns the correlation ID from context.
func CorrelationIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(correlationIDKey{}).(string); ok {
		return id
	}
	return ""
}

// WithCorrelationID returns a context with the correlation ID set.
func WithCorrelationID(ctx context.Context, correlationID string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, correlationID)
}

// CorrelationIDMiddleware ensures commands have a correlation ID in context.
// The ID is taken from the context, then from the command, then generated.
// The context of the bus call is reused for event dispatch, so event
// handlers see the same ID when it was set before Handle.
func CorrelationIDMiddleware(generator func() string) Middleware {
	if generator == nil {
		generator = NewID
	}

	return func(next MiddlewareFunc) MiddlewareFunc {
		return func(ctx context.Context, cmd Command) error {
			if CorrelationIDFromContext(ctx) != "" {
				return next(ctx, cmd)
			}

			var correlationID string
			if base, ok := cmd.(interface{ GetCorrelationID() string }); ok {
				correlationID = base.GetCorrelationID()
			}
			if correlationID == "" {
				correlationID = generator()
			}

			return next(WithCorrelationID(ctx, correlationID), cmd)
		}
	}
}

// ConditionalMiddleware applies middleware only if the condition is true.
func ConditionalMiddleware(condition func(Command) bool, middleware Middleware) Middleware {
	return func(next MiddlewareFunc) MiddlewareFunc {
		return func(ctx context.Context, cmd Command) error {
			if condition(cmd) {
				return middleware(next)(ctx, cmd)
			}
			return next(ctx, cmd)
		}
	}
}

// CommandTypeMiddleware applies middleware only for specific command types.
func CommandTypeMiddleware(types []string, middleware Middleware) Middleware {
	typeSet := make(map[string]bool, len(types))
	for _, t := range types {
		typeSet[t] = true
	}

	return ConditionalMiddleware(func(cmd Command) bool {
		return typeSet[cmd.CommandType()]
	}, middleware)
}
