package events

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/wolfman30/braidbook/pkg/logging"
)

type sqsSender interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQSDelivery publishes outbox entries to an SQS queue consumed by the
// notification service.
type SQSDelivery struct {
	client   sqsSender
	queueURL string
}

// NewSQSDelivery wraps an SQS client (*sqs.Client satisfies sqsSender).
func NewSQSDelivery(client sqsSender, queueURL string) *SQSDelivery {
	if client == nil {
		panic("events: SQS client cannot be nil")
	}
	if queueURL == "" {
		panic("events: SQS queueURL cannot be empty")
	}
	return &SQSDelivery{client: client, queueURL: queueURL}
}

func (d *SQSDelivery) Handle(ctx context.Context, entry OutboxEntry) error {
	_, err := d.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(d.queueURL),
		MessageBody: aws.String(string(entry.Payload)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"event_type": {DataType: aws.String("String"), StringValue: aws.String(entry.Type)},
			"event_id":   {DataType: aws.String("String"), StringValue: aws.String(entry.ID.String())},
		},
	})
	if err != nil {
		return fmt.Errorf("events: failed to send SQS message: %w", err)
	}
	return nil
}

// LogDelivery writes entries to the log; used when no queue is configured.
type LogDelivery struct {
	logger *logging.Logger
}

func NewLogDelivery(logger *logging.Logger) *LogDelivery {
	if logger == nil {
		logger = logging.Default()
	}
	return &LogDelivery{logger: logger.Component("events")}
}

func (d *LogDelivery) Handle(ctx context.Context, entry OutboxEntry) error {
	d.logger.Info("appointment event", "event_id", entry.ID, "type", entry.Type, "appointment_id", entry.AggregateID, "payload", string(entry.Payload))
	return nil
}
