// Package sns publishes notifications to AWS SNS topics.
package sns

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"

	"github.com/menu-planning/go-menuplan"
)

// SNSClient defines the subset of the SNS API used by the publisher.
type SNSClient interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// Publisher publishes notifications to AWS SNS topics.
// Destination format: "sns:arn:aws:sns:region:account:topic"
type Publisher struct {
	client          SNSClient
	defaultTopicARN string
	fifo            bool
}

var _ menuplan.Publisher = (*Publisher)(nil)

// Option configures an SNS Publisher.
type Option func(*Publisher)

// WithSNSClient sets a custom SNS client.
func WithSNSClient(client SNSClient) Option {
	return func(p *Publisher) {
		p.client = client
	}
}

// WithDefaultTopicARN sets the topic used when a destination is just "sns:".
func WithDefaultTopicARN(arn string) Option {
	return func(p *Publisher) {
		p.defaultTopicARN = arn
	}
}

// WithFIFO groups messages by aggregate ID and deduplicates by notification ID.
func WithFIFO() Option {
	return func(p *Publisher) {
		p.fifo = true
	}
}

// New creates a new SNS Publisher.
func New(opts ...Option) *Publisher {
	p := &Publisher{}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Destination returns the destination prefix this publisher handles.
func (p *Publisher) Destination() string {
	return "sns"
}

// Publish sends each notification to the SNS topic named in its destination.
// All notifications are attempted; errors are joined.
func (p *Publisher) Publish(ctx context.Context, notifications []*menuplan.Notification) error {
	if p.client == nil {
		return fmt.Errorf("sns: client not configured")
	}

	var errs []error
	for _, n := range notifications {
		topicARN := extractTopicARN(n.Destination)
		if topicARN == "" {
			topicARN = p.defaultTopicARN
		}
		if topicARN == "" {
			errs = append(errs, fmt.Errorf("sns: invalid destination %q: missing topic ARN", n.Destination))
			continue
		}

		input := &sns.PublishInput{
			TopicArn: stringPtr(topicARN),
			Message:  stringPtr(string(n.Payload)),
			MessageAttributes: map[string]types.MessageAttributeValue{
				"notification-id": stringAttribute(n.ID),
			},
		}
		for k, v := range n.Headers {
			input.MessageAttributes[k] = stringAttribute(v)
		}

		if p.fifo {
			input.MessageGroupId = stringPtr(n.AggregateID)
			input.MessageDeduplicationId = stringPtr(n.ID)
		}

		if _, err := p.client.Publish(ctx, input); err != nil {
			errs = append(errs, fmt.Errorf("sns: failed to publish to %s: %w", topicARN, err))
		}
	}

	return errors.Join(errs...)
}

// extractTopicARN removes the "sns:" prefix from a destination.
func extractTopicARN(destination string) string {
	const prefix = "sns:"
	if strings.HasPrefix(destination, prefix) {
		return destination[len(prefix):]
	}
	return ""
}

func stringAttribute(v string) types.MessageAttributeValue {
	return types.MessageAttributeValue{
		DataType:    stringPtr("String"),
		StringValue: stringPtr(v),
	}
}

func stringPtr(s string) *string {
	return &s
}
