package queue

import (
	"context"
	"maps"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

// defaultDeduplicationWindow matches the SQS FIFO deduplication interval.
const defaultDeduplicationWindow = 5 * time.Minute

type sentRecord struct {
	at time.Time
	id string
}

type memoryMessage struct {
	Message
	groupID   string
	visibleAt time.Time
	receives  int
}

// Memory is an in-process at-least-once queue.
type Memory struct {
	// VisibilityTimeout hides a received message until it is acknowledged
	// or the timeout passes. Zero makes unacknowledged messages visible to
	// the next Receive.
	VisibilityTimeout time.Duration

	mu     sync.Mutex
	queues map[string][]*memoryMessage
	dedup  map[string]map[string]sentRecord // queueURL -> dedup id -> first send
	now    func() time.Time
}

// NewMemory creates an empty in-memory queue set.
func NewMemory(visibilityTimeout time.Duration) *Memory {
	return &Memory{
		VisibilityTimeout: visibilityTimeout,
		queues:            make(map[string][]*memoryMessage),
		dedup:             make(map[string]map[string]sentRecord),
		now:               time.Now,
	}
}

// Send enqueues body. Queues are created on first use.
func (q *Memory) Send(_ context.Context, queueURL string, body []byte, opts SendOptions) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now()
	if opts.DeduplicationID != "" {
		seen := q.dedup[queueURL]
		if seen == nil {
			seen = make(map[string]sentRecord)
			q.dedup[queueURL] = seen
		}
		if prev, ok := seen[opts.DeduplicationID]; ok && now.Sub(prev.at) < defaultDeduplicationWindow {
			return prev.id, nil
		}
	}

	msg := &memoryMessage{
		Message: Message{
			ID:                uuid.NewString(),
			Body:              string(body),
			MessageAttributes: maps.Clone(opts.Attributes),
		},
		groupID:   opts.GroupID,
		visibleAt: now,
	}
	q.queues[queueURL] = append(q.queues[queueURL], msg)
	if opts.DeduplicationID != "" {
		q.dedup[queueURL][opts.DeduplicationID] = sentRecord{at: now, id: msg.ID}
	}
	return msg.ID, nil
}

// Receive returns up to maxMessages visible messages and hides them for the
// visibility timeout. As on a FIFO queue, messages of a group stay hidden
// while an earlier message of that group is in flight. waitSeconds is ignored.
func (q *Memory) Receive(_ context.Context, queueURL string, maxMessages, _ int32) ([]Message, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if maxMessages <= 0 {
		maxMessages = sqsMaxMessages
	}

	now := q.now()
	messages := []Message{}
	inFlight := map[string]bool{}
	for _, m := range q.queues[queueURL] {
		if int32(len(messages)) >= maxMessages {
			break
		}
		if m.visibleAt.After(now) {
			if m.groupID != "" {
				inFlight[m.groupID] = true
			}
			continue
		}
		if m.groupID != "" && inFlight[m.groupID] {
			continue
		}
		m.receives++
		m.visibleAt = now.Add(q.VisibilityTimeout)
		m.ReceiptHandle = uuid.NewString()

		out := m.Message
		out.Attributes = map[string]string{AttrReceiveCount: strconv.Itoa(m.receives)}
		if m.groupID != "" {
			out.Attributes[AttrMessageGroupID] = m.groupID
		}
		out.MessageAttributes = maps.Clone(m.MessageAttributes)
		messages = append(messages, out)
	}
	return messages, nil
}

// Ack removes the message holding receiptHandle.
func (q *Memory) Ack(_ context.Context, queueURL, receiptHandle string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	msgs := q.queues[queueURL]
	for i, m := range msgs {
		if m.ReceiptHandle == receiptHandle && receiptHandle != "" {
			q.queues[queueURL] = append(msgs[:i], msgs[i+1:]...)
			return nil
		}
	}
	return ErrInvalidReceipt
}

// Len returns the number of unacknowledged messages on a queue.
func (q *Memory) Len(queueURL string) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.queues[queueURL])
}
