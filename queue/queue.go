package queue

import "errors"

var (
	// ErrInvalidReceipt is returned when acknowledging with an unknown or stale receipt handle.
	ErrInvalidReceipt = errors.New("queue: invalid receipt handle")

	// ErrQueueNotConfigured is returned when no queue URL is configured for a command.
	ErrQueueNotConfigured = errors.New("queue: queue not configured")
)

// AttrReceiveCount is the system attribute carrying the delivery attempt number.
const AttrReceiveCount = "ApproximateReceiveCount"

// AttrMessageGroupID is the system attribute carrying a FIFO message's group.
const AttrMessageGroupID = "MessageGroupId"

// Message is a received message.
type Message struct {
	ID            string
	ReceiptHandle string
	Body          string

	// Attributes are system attributes such as ApproximateReceiveCount.
	Attributes map[string]string

	// MessageAttributes are the string attributes set by the sender.
	MessageAttributes map[string]string
}

// SendOptions configures a single send.
type SendOptions struct {
	// GroupID is the FIFO message group. Ignored by standard queues.
	GroupID string

	// DeduplicationID suppresses identical sends within the queue's
	// deduplication window. Ignored by standard queues.
	DeduplicationID string

	// Attributes are string message attributes.
	Attributes map[string]string
}
