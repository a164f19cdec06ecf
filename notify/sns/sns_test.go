package sns

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/menu-planning/go-menuplan"
)

type mockSNSClient struct {
	mock.Mock
}

func (m *mockSNSClient) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	args := m.Called(ctx, params)
	if out, ok := args.Get(0).(*sns.PublishOutput); ok {
		return out, args.Error(1)
	}
	return nil, args.Error(1)
}

const topic = "arn:aws:sns:eu-west-1:123456789:menus"

func TestPublisher_Destination(t *testing.T) {
	assert.Equal(t, "sns", New().Destination())
}

func TestExtractTopicARN(t *testing.T) {
	assert.Equal(t, topic, extractTopicARN("sns:"+topic))
	assert.Equal(t, "", extractTopicARN("kafka:menus"))
	assert.Equal(t, "", extractTopicARN("sns:"))
}

func TestPublisher_Publish(t *testing.T) {
	ctx := context.Background()

	t.Run("publishes payload with headers as attributes", func(t *testing.T) {
		client := &mockSNSClient{}
		client.On("Publish", ctx, mock.MatchedBy(func(in *sns.PublishInput) bool {
			return *in.TopicArn == topic &&
				*in.Message == `{"menuId":"m1"}` &&
				*in.MessageAttributes["event-type"].StringValue == "MenuDeleted" &&
				*in.MessageAttributes["notification-id"].StringValue == "n1" &&
				in.MessageGroupId == nil
		})).Return(&sns.PublishOutput{MessageId: stringPtr("msg-1")}, nil).Once()

		p := New(WithSNSClient(client))
		err := p.Publish(ctx, []*menuplan.Notification{{
			ID:          "n1",
			AggregateID: "m1",
			Destination: "sns:" + topic,
			Payload:     []byte(`{"menuId":"m1"}`),
			Headers:     map[string]string{"event-type": "MenuDeleted"},
		}})

		require.NoError(t, err)
		client.AssertExpectations(t)
	})

	t.Run("fifo sets group and deduplication IDs", func(t *testing.T) {
		client := &mockSNSClient{}
		client.On("Publish", ctx, mock.MatchedBy(func(in *sns.PublishInput) bool {
			return *in.MessageGroupId == "m1" && *in.MessageDeduplicationId == "n1"
		})).Return(&sns.PublishOutput{}, nil).Once()

		p := New(WithSNSClient(client), WithFIFO())
		err := p.Publish(ctx, []*menuplan.Notification{{ID: "n1", AggregateID: "m1", Destination: "sns:" + topic}})

		require.NoError(t, err)
		client.AssertExpectations(t)
	})

	t.Run("falls back to default topic", func(t *testing.T) {
		client := &mockSNSClient{}
		client.On("Publish", ctx, mock.MatchedBy(func(in *sns.PublishInput) bool {
			return *in.TopicArn == topic
		})).Return(&sns.PublishOutput{}, nil).Once()

		p := New(WithSNSClient(client), WithDefaultTopicARN(topic))
		require.NoError(t, p.Publish(ctx, []*menuplan.Notification{{ID: "n1", Destination: "sns:"}}))
		client.AssertExpectations(t)
	})

	t.Run("missing topic is reported and others still sent", func(t *testing.T) {
		client := &mockSNSClient{}
		client.On("Publish", ctx, mock.Anything).Return(&sns.PublishOutput{}, nil).Once()

		p := New(WithSNSClient(client))
		err := p.Publish(ctx, []*menuplan.Notification{
			{ID: "bad", Destination: "sns:"},
			{ID: "good", Destination: "sns:" + topic},
		})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing topic ARN")
		client.AssertExpectations(t)
	})

	t.Run("client errors are joined", func(t *testing.T) {
		client := &mockSNSClient{}
		client.On("Publish", ctx, mock.Anything).Return(nil, errors.New("throttled")).Twice()

		p := New(WithSNSClient(client))
		err := p.Publish(ctx, []*menuplan.Notification{
			{ID: "n1", Destination: "sns:" + topic},
			{ID: "n2", Destination: "sns:" + topic},
		})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "throttled")
		client.AssertExpectations(t)
	})

	t.Run("no client", func(t *testing.T) {
		err := New().Publish(ctx, []*menuplan.Notification{{ID: "n1", Destination: "sns:" + topic}})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "client not configured")
	})
}
