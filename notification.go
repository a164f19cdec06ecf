package menuplan

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Notification is an event rendered for delivery to an external system.
type Notification struct {
	// ID uniquely identifies the notification.
	ID string

	// AggregateID is used as the partition key where the transport has one.
	AggregateID string

	// EventType is the type of the event that produced the notification.
	EventType string

	// Destination is "<transport>:<target>", for example "kafka:menus" or
	// "webhook:https://example.com/hooks".
	Destination string

	// Payload is the serialized event.
	Payload []byte

	// Headers carry metadata such as the content type and correlation ID.
	Headers map[string]string

	// CreatedAt is when the notification was built.
	CreatedAt time.Time
}

// WithHeader sets a header and returns the notification.
func (n *Notification) WithHeader(key, value string) *Notification {
	if n.Headers == nil {
		n.Headers = make(map[string]string)
	}
	n.Headers[key] = value
	return n
}

// NewNotification serializes event for delivery to destination.
func NewNotification(event Event, aggregateID, destination string, serializer Serializer) (*Notification, error) {
	payload, err := serializer.Serialize(event)
	if err != nil {
		return nil, err
	}
	return &Notification{
		ID:          NewID(),
		AggregateID: aggregateID,
		EventType:   event.EventType(),
		Destination: destination,
		Payload:     payload,
		Headers: map[string]string{
			"event-type":   event.EventType(),
			"content-type": serializer.ContentType(),
		},
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Publisher delivers notifications to one kind of external system.
type Publisher interface {
	// Publish sends one or more notifications.
	Publish(ctx context.Context, notifications []*Notification) error

	// Destination returns the destination prefix this publisher handles (e.g., "webhook", "kafka", "sns").
	Destination() string
}

// Notifier sends notifications. Event handlers depend on it rather than on
// a concrete transport.
type Notifier interface {
	Notify(ctx context.Context, notifications ...*Notification) error
}

// NotificationRouter routes notifications to publishers by destination prefix.
type NotificationRouter struct {
	mu         sync.RWMutex
	publishers map[string]Publisher
}

// NewNotificationRouter creates a router over the given publishers.
func NewNotificationRouter(publishers ...Publisher) *NotificationRouter {
	r := &NotificationRouter{publishers: make(map[string]Publisher)}
	for _, p := range publishers {
		r.Register(p)
	}
	return r
}

// Register adds a publisher, replacing any publisher with the same prefix.
func (r *NotificationRouter) Register(p Publisher) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.publishers[p.Destination()] = p
}

// Destinations returns the registered prefixes, sorted.
func (r *NotificationRouter) Destinations() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.publishers))
	for d := range r.publishers {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// Notify groups notifications by destination prefix and hands each group to
// its publisher. Every group is attempted; errors are joined.
func (r *NotificationRouter) Notify(ctx context.Context, notifications ...*Notification) error {
	grouped := make(map[string][]*Notification)
	var order []string
	for _, n := range notifications {
		prefix := DestinationPrefix(n.Destination)
		if _, ok := grouped[prefix]; !ok {
			order = append(order, prefix)
		}
		grouped[prefix] = append(grouped[prefix], n)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var errs []error
	for _, prefix := range order {
		p, ok := r.publishers[prefix]
		if !ok {
			errs = append(errs, fmt.Errorf("%w: %q", ErrNoPublisher, prefix))
			continue
		}
		if err := p.Publish(ctx, grouped[prefix]); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// DestinationPrefix returns the transport part of a destination ("kafka" for "kafka:menus").
func DestinationPrefix(destination string) string {
	if i := strings.IndexByte(destination, ':'); i > 0 {
		return destination[:i]
	}
	return destination
}
