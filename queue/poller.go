package queue

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/cenkalti/backoff/v5"
)

// Receiver is the receive side of a channel.
type Receiver interface {
	Receive(ctx context.Context, queueURL string, maxMessages, waitSeconds int32) ([]Message, error)
	Ack(ctx context.Context, queueURL, receiptHandle string) error
}

// BatchHandler processes a batch of messages with Lambda SQS semantics:
// messages listed in BatchItemFailures are redelivered, a returned error
// redelivers the whole batch.
type BatchHandler func(ctx context.Context, event events.SQSEvent) (events.SQSEventResponse, error)

// PollerConfig holds configuration for the Poller.
type PollerConfig struct {
	// MaxMessages per receive call.
	// Default: 10
	MaxMessages int32

	// WaitSeconds is the long polling wait per receive call.
	// Default: 20
	WaitSeconds int32

	// IdleDelay is slept after an empty receive. Long polling queues can use 0.
	// Default: 0
	IdleDelay time.Duration
}

// DefaultPollerConfig returns settings suited to SQS long polling.
func DefaultPollerConfig() PollerConfig {
	return PollerConfig{
		MaxMessages: sqsMaxMessages,
		WaitSeconds: sqsMaxWaitSeconds,
	}
}

// Poller drains queues outside Lambda and hands batches to a BatchHandler.
type Poller struct {
	receiver  Receiver
	handler   BatchHandler
	queueURLs []string
	config    PollerConfig
	logger    *slog.Logger
}

// NewPoller creates a poller over queueURLs.
func NewPoller(receiver Receiver, handler BatchHandler, queueURLs []string, config PollerConfig, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	if config.MaxMessages <= 0 {
		config.MaxMessages = sqsMaxMessages
	}
	return &Poller{
		receiver:  receiver,
		handler:   handler,
		queueURLs: queueURLs,
		config:    config,
		logger:    logger,
	}
}

// Run polls every queue concurrently until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	for _, queueURL := range p.queueURLs {
		wg.Add(1)
		go func(queueURL string) {
			defer wg.Done()
			p.runQueue(ctx, queueURL)
		}(queueURL)
	}
	wg.Wait()
	return nil
}

func (p *Poller) runQueue(ctx context.Context, queueURL string) {
	b := backoff.NewExponentialBackOff()

	p.logger.Info("polling queue", "queueUrl", queueURL)
	for ctx.Err() == nil {
		n, err := p.PollOnce(ctx, queueURL)

		var delay time.Duration
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return
			}
			delay = b.NextBackOff()
			if delay == backoff.Stop {
				delay = b.MaxInterval
			}
			p.logger.Error("poll failed",
				"queueUrl", queueURL,
				"retryIn", delay,
				"error", err,
			)
		case n == 0:
			b.Reset()
			delay = p.config.IdleDelay
		default:
			b.Reset()
			continue
		}

		if delay <= 0 {
			continue
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}
}

// PollOnce receives one batch from queueURL, hands it to the handler and
// acknowledges every message the handler did not report as failed.
// It returns the number of messages received.
func (p *Poller) PollOnce(ctx context.Context, queueURL string) (int, error) {
	messages, err := p.receiver.Receive(ctx, queueURL, p.config.MaxMessages, p.config.WaitSeconds)
	if err != nil {
		return 0, err
	}
	if len(messages) == 0 {
		return 0, nil
	}

	event := toSQSEvent(messages)
	resp, err := p.handler(ctx, event)
	if err != nil {
		// Nothing is acknowledged; the whole batch becomes visible again
		return len(messages), err
	}

	failed := make(map[string]bool, len(resp.BatchItemFailures))
	for _, f := range resp.BatchItemFailures {
		failed[f.ItemIdentifier] = true
	}

	ackFailures := 0
	for _, m := range messages {
		if failed[m.ID] {
			continue
		}
		if err := p.receiver.Ack(ctx, queueURL, m.ReceiptHandle); err != nil {
			// Redelivery of an applied command is harmless
			p.logger.Warn("failed to acknowledge message",
				"queueUrl", queueURL,
				"messageId", m.ID,
				"error", err,
			)
			ackFailures++
		}
	}

	p.logger.Debug("batch processed",
		"queueUrl", queueURL,
		"received", len(messages),
		"failed", len(failed),
		"ackFailures", ackFailures,
	)

	return len(messages), nil
}

// toSQSEvent converts received messages into the Lambda event shape.
func toSQSEvent(messages []Message) events.SQSEvent {
	records := make([]events.SQSMessage, 0, len(messages))
	for _, m := range messages {
		record := events.SQSMessage{
			MessageId:     m.ID,
			ReceiptHandle: m.ReceiptHandle,
			Body:          m.Body,
			EventSource:   "aws:sqs",
			Attributes:    m.Attributes,
		}
		if len(m.MessageAttributes) > 0 {
			record.MessageAttributes = make(map[string]events.SQSMessageAttribute, len(m.MessageAttributes))
			for k, v := range m.MessageAttributes {
				value := v
				record.MessageAttributes[k] = events.SQSMessageAttribute{
					StringValue: &value,
					DataType:    "String",
				}
			}
		}
		records = append(records, record)
	}
	return events.SQSEvent{Records: records}
}
