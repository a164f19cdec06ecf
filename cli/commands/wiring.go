package commands

import (
	"fmt"
	"time"

	awssns "github.com/aws/aws-sdk-go-v2/service/sns"

	"github.com/menu-planning/go-menuplan"
	"github.com/menu-planning/go-menuplan/cli/config"
	"github.com/menu-planning/go-menuplan/middleware/metrics"
	"github.com/menu-planning/go-menuplan/middleware/tracing"
	"github.com/menu-planning/go-menuplan/notify/kafka"
	"github.com/menu-planning/go-menuplan/notify/sns"
	"github.com/menu-planning/go-menuplan/notify/webhook"
	"github.com/menu-planning/go-menuplan/serializer/msgpack"
	"github.com/menu-planning/go-menuplan/serializer/protobuf"
)

// NewSerializer returns the serializer for a notify.format value.
func NewSerializer(format string, registry *menuplan.EventRegistry) (menuplan.Serializer, error) {
	switch format {
	case "", "json":
		return menuplan.NewJSONSerializer(registry), nil
	case "msgpack":
		return msgpack.NewSerializer(registry), nil
	case "protobuf":
		return protobuf.NewSerializer(registry), nil
	default:
		return nil, fmt.Errorf("unknown notify format %q", format)
	}
}

// NewPublisher builds the publisher for the configured destination.
// The returned close function releases transport resources.
func NewPublisher(cfg config.NotifyConfig) (menuplan.Publisher, func() error, error) {
	noop := func() error { return nil }

	switch prefix := menuplan.DestinationPrefix(cfg.Destination); prefix {
	case "kafka":
		p := kafka.New(kafka.WithBrokers(cfg.Kafka.Brokers...))
		return p, p.Close, nil
	case "sns":
		client := awssns.New(awssns.Options{Region: cfg.SNS.Region})
		return sns.New(sns.WithSNSClient(client), sns.WithDefaultTopicARN(cfg.SNS.TopicARN)), noop, nil
	case "webhook":
		opts := []webhook.Option{webhook.WithDefaultURL(cfg.Webhook.URL)}
		if cfg.Webhook.TimeoutSeconds > 0 {
			opts = append(opts, webhook.WithTimeout(time.Duration(cfg.Webhook.TimeoutSeconds)*time.Second))
		}
		return webhook.New(opts...), noop, nil
	default:
		return nil, noop, fmt.Errorf("no publisher for destination %q", cfg.Destination)
	}
}

// NewNotifier routes notifications to the configured publisher, counted by
// m when it is non-nil and traced by tracer. It returns a nil Notifier when
// no destination is configured.
func NewNotifier(cfg config.NotifyConfig, m *metrics.Metrics, tracer *tracing.Tracer) (menuplan.Notifier, func() error, error) {
	if cfg.Destination == "" {
		return nil, func() error { return nil }, nil
	}

	publisher, closeFn, err := NewPublisher(cfg)
	if err != nil {
		return nil, closeFn, err
	}
	if m != nil {
		publisher = m.WrapPublisher(publisher)
	}
	if tracer != nil {
		publisher = tracing.NewPublisherMiddleware(publisher, tracer)
	}
	return menuplan.NewNotificationRouter(publisher), closeFn, nil
}
