package directory

import (
	"context"
	"log/slog"

	"github.com/aws/aws-lambda-go/events"

	"github.com/jacentio/roster/internal/metrics"
	"github.com/jacentio/roster/queue"
)

// Consumer applies queued commands to the store.
type Consumer struct {
	applier *Applier
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewConsumer creates a new Consumer. m may be nil.
func NewConsumer(applier *Applier, m *metrics.Metrics, logger *slog.Logger) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{
		applier: applier,
		metrics: m,
		logger:  logger,
	}
}

// HandleSQS processes an SQS batch. Failed messages are returned as batch
// item failures so only they are redelivered. Once a message of a FIFO group
// fails, the later messages of that group in the batch are returned as
// failures without being applied, so the group keeps its order on
// redelivery. The returned error is always nil.
func (c *Consumer) HandleSQS(ctx context.Context, event events.SQSEvent) (events.SQSEventResponse, error) {
	resp := events.SQSEventResponse{
		BatchItemFailures: []events.SQSBatchItemFailure{},
	}

	failedGroups := map[string]bool{}
	for _, record := range event.Records {
		group := record.Attributes[queue.AttrMessageGroupID]
		if group != "" && failedGroups[group] {
			c.logger.Warn("deferring message behind failed group member",
				"messageId", record.MessageId,
				"messageGroupId", group,
			)
			resp.BatchItemFailures = append(resp.BatchItemFailures, events.SQSBatchItemFailure{
				ItemIdentifier: record.MessageId,
			})
			continue
		}

		if err := c.Process(ctx, record); err != nil {
			if group != "" {
				failedGroups[group] = true
			}
			resp.BatchItemFailures = append(resp.BatchItemFailures, events.SQSBatchItemFailure{
				ItemIdentifier: record.MessageId,
			})
		}
	}

	if len(resp.BatchItemFailures) > 0 {
		c.logger.Warn("batch partially failed",
			"records", len(event.Records),
			"failed", len(resp.BatchItemFailures),
		)
	}
	return resp, nil
}

// Process decodes and applies a single message.
func (c *Consumer) Process(ctx context.Context, record events.SQSMessage) error {
	cmd, err := DecodeCommand([]byte(record.Body))
	if err != nil {
		c.metrics.Failed(attributeCommandType(record))
		c.logger.Error("failed to decode command",
			"messageId", record.MessageId,
			"receiveCount", record.Attributes[queue.AttrReceiveCount],
			"error", err,
		)
		return err
	}

	if err := c.applier.Apply(ctx, cmd); err != nil {
		c.metrics.Failed(string(cmd.CommandType))
		c.logger.Error("failed to apply command",
			"commandType", cmd.CommandType,
			"entityId", cmd.EntityID,
			"commandId", cmd.CommandID,
			"messageId", record.MessageId,
			"receiveCount", record.Attributes[queue.AttrReceiveCount],
			"error", err,
		)
		return err
	}

	c.metrics.Applied(string(cmd.CommandType))
	c.logger.Info("command applied",
		"commandType", cmd.CommandType,
		"entityId", cmd.EntityID,
		"commandId", cmd.CommandID,
		"messageId", record.MessageId,
	)
	return nil
}

// attributeCommandType reads the commandType message attribute set by the
// QueuedExecutor, for labelling messages whose body cannot be decoded.
func attributeCommandType(record events.SQSMessage) string {
	if attr, ok := record.MessageAttributes["commandType"]; ok && attr.StringValue != nil {
		return *attr.StringValue
	}
	return "unknown"
}
