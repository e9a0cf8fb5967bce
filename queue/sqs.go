package queue

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

// SQS and AWS service limits
const (
	sqsMaxMessages    = 10 // SQS maximum messages per ReceiveMessage call
	sqsMaxWaitSeconds = 20 // SQS maximum long polling wait
)

// SQSAPI is the subset of the SQS client used by SQS.
// *sqs.Client satisfies it.
type SQSAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// SQS is an Amazon SQS backed channel.
type SQS struct {
	client SQSAPI
}

// NewSQS creates a new SQS channel.
func NewSQS(client SQSAPI) *SQS {
	return &SQS{client: client}
}

// Send enqueues body on queueURL and returns the message ID.
func (q *SQS) Send(ctx context.Context, queueURL string, body []byte, opts SendOptions) (string, error) {
	input := &sqs.SendMessageInput{
		QueueUrl:    aws.String(queueURL),
		MessageBody: aws.String(string(body)),
	}
	if opts.GroupID != "" {
		input.MessageGroupId = aws.String(opts.GroupID)
	}
	if opts.DeduplicationID != "" {
		input.MessageDeduplicationId = aws.String(opts.DeduplicationID)
	}
	if len(opts.Attributes) > 0 {
		input.MessageAttributes = make(map[string]sqstypes.MessageAttributeValue, len(opts.Attributes))
		for k, v := range opts.Attributes {
			input.MessageAttributes[k] = sqstypes.MessageAttributeValue{
				DataType:    aws.String("String"),
				StringValue: aws.String(v),
			}
		}
	}

	out, err := q.client.SendMessage(ctx, input)
	if err != nil {
		return "", fmt.Errorf("send message: %w", err)
	}
	return aws.ToString(out.MessageId), nil
}

// Receive fetches up to maxMessages messages, long polling for waitSeconds.
func (q *SQS) Receive(ctx context.Context, queueURL string, maxMessages, waitSeconds int32) ([]Message, error) {
	if maxMessages <= 0 || maxMessages > sqsMaxMessages {
		maxMessages = sqsMaxMessages
	}
	if waitSeconds < 0 {
		waitSeconds = 0
	}
	if waitSeconds > sqsMaxWaitSeconds {
		waitSeconds = sqsMaxWaitSeconds
	}

	out, err := q.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:              aws.String(queueURL),
		MaxNumberOfMessages:   maxMessages,
		WaitTimeSeconds:       waitSeconds,
		AttributeNames:        []sqstypes.QueueAttributeName{sqstypes.QueueAttributeNameAll},
		MessageAttributeNames: []string{"All"},
	})
	if err != nil {
		return nil, fmt.Errorf("receive message: %w", err)
	}

	messages := make([]Message, 0, len(out.Messages))
	for _, m := range out.Messages {
		msg := Message{
			ID:            aws.ToString(m.MessageId),
			ReceiptHandle: aws.ToString(m.ReceiptHandle),
			Body:          aws.ToString(m.Body),
			Attributes:    make(map[string]string, len(m.Attributes)),
		}
		for k, v := range m.Attributes {
			msg.Attributes[k] = v
		}
		if len(m.MessageAttributes) > 0 {
			msg.MessageAttributes = make(map[string]string, len(m.MessageAttributes))
			for k, v := range m.MessageAttributes {
				msg.MessageAttributes[k] = aws.ToString(v.StringValue)
			}
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// Ack deletes a received message so it is not redelivered.
func (q *SQS) Ack(ctx context.Context, queueURL, receiptHandle string) error {
	_, err := q.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(queueURL),
		ReceiptHandle: aws.String(receiptHandle),
	})
	if err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	return nil
}
